package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// TradeStatus is the lifecycle state of a trade. A trade starts as pending
// and transitions exactly once to accepted or rejected.
type TradeStatus string

const (
	TradeStatusPending  TradeStatus = "pending"
	TradeStatusAccepted TradeStatus = "accepted"
	TradeStatusRejected TradeStatus = "rejected"
)

// GroupStatus is the lifecycle state of an order group. The closed state is
// reserved for a future threshold rule and is never assigned by current code.
type GroupStatus string

const (
	GroupStatusOpen   GroupStatus = "open"
	GroupStatusClosed GroupStatus = "closed"
)

// User represents a marketplace participant. Token and savings balances are
// mutated only by the token ledger and the referral engine.
type User struct {
	ID             string    `db:"id" json:"id"`
	Email          string    `db:"email" json:"email"`
	Name           string    `db:"name" json:"name"`
	Password       string    `db:"password" json:"-"` // Password hash, not returned in JSON
	Role           string    `db:"role" json:"role"`
	TokenBalance   int64     `db:"token_balance" json:"tokenBalance"`
	SavingsBalance float64   `db:"savings_balance" json:"savingsBalance"`
	SponsorCode    string    `db:"sponsor_code" json:"sponsorCode"`
	ReferredByCode *string   `db:"referred_by_code" json:"referredByCode,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// Offer represents a postable good or service. At least one of PriceTokens
// and PriceCash is set. Domain distinguishes independent marketplaces that
// share this engine.
type Offer struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Domain      string    `db:"domain" json:"domain"`
	OwnerID     string    `db:"owner_id" json:"ownerId"`
	PriceTokens *float64  `db:"price_tokens" json:"priceTokens,omitempty"`
	PriceCash   *float64  `db:"price_cash" json:"priceCash,omitempty"`
	ProductID   *string   `db:"product_id" json:"productId,omitempty"`
	IsUnique    bool      `db:"is_unique" json:"isUnique"`
	Meta        JSONMap   `db:"meta" json:"meta,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// Trade represents a token-for-offer exchange proposal between two users.
type Trade struct {
	ID         string      `db:"id" json:"id"`
	OfferID    string      `db:"offer_id" json:"offerId"`
	FromUserID string      `db:"from_user_id" json:"fromUserId"`
	ToUserID   string      `db:"to_user_id" json:"toUserId"`
	Tokens     int64       `db:"tokens" json:"tokens"`
	Status     TradeStatus `db:"status" json:"status"`
	CreatedAt  time.Time   `db:"created_at" json:"createdAt"`
	ResolvedAt *time.Time  `db:"resolved_at" json:"resolvedAt,omitempty"`
}

// OrderGroup pools per-user unit commitments toward a shared product
// purchase. TotalUnits always equals the sum of participant units.
type OrderGroup struct {
	ID                string             `db:"id" json:"id"`
	ProductID         string             `db:"product_id" json:"productId"`
	MinUnitsPerClient int64              `db:"min_units_per_client" json:"minUnitsPerClient"`
	TotalUnits        int64              `db:"total_units" json:"totalUnits"`
	Status            GroupStatus        `db:"status" json:"status"`
	Participants      []GroupParticipant `db:"-" json:"participants"`
	CreatedAt         time.Time          `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time          `db:"updated_at" json:"updatedAt"`
}

// GroupParticipant is one user's accumulated commitment inside a group.
type GroupParticipant struct {
	GroupID string `db:"group_id" json:"-"`
	UserID  string `db:"user_id" json:"userId"`
	Units   int64  `db:"units" json:"units"`
}

// ReferralStat accumulates, per (sponsor, invited) pair, the savings
// recorded by the invitee and the commission earned by the sponsor.
type ReferralStat struct {
	ID                  string    `db:"id" json:"id"`
	SponsorID           string    `db:"sponsor_id" json:"sponsorId"`
	InvitedID           string    `db:"invited_id" json:"invitedId"`
	TotalSavedByInvited float64   `db:"total_saved" json:"totalSavedByInvited"`
	CommissionEarned    float64   `db:"commission_earned" json:"commissionEarned"`
	CreatedAt           time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time `db:"updated_at" json:"updatedAt"`
}

// SavingTransaction is an append-only record of a savings event.
type SavingTransaction struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	Amount    float64   `db:"amount" json:"amount"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// JSONMap is a string map stored as a JSONB column.
type JSONMap map[string]string

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return errors.New("unsupported source type for JSONMap")
	}
}
