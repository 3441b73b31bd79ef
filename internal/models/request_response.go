package models

// Request models
type SignUpRequest struct {
	Email          string  `json:"email" binding:"required,email"`
	Password       string  `json:"password" binding:"required,min=8"`
	Name           string  `json:"name" binding:"required"`
	ReferredByCode *string `json:"referredByCode"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type CreateOfferRequest struct {
	Title       string            `json:"title" binding:"required"`
	Description string            `json:"description"`
	PriceTokens *float64          `json:"tokens"`
	PriceCash   *float64          `json:"price"`
	ProductID   *string           `json:"productId"`
	IsUnique    bool              `json:"isUnique"`
	Meta        map[string]string `json:"meta"`
}

type ProposeTradeRequest struct {
	ToUserID string   `json:"toUserId" binding:"required"`
	OfferID  string   `json:"offerId" binding:"required"`
	Tokens   *float64 `json:"tokens"`
}

type RecordSavingRequest struct {
	Amount *float64 `json:"amount" binding:"required"`
}

type CreateGroupRequest struct {
	ProductID         string `json:"productId" binding:"required"`
	MinUnitsPerClient int64  `json:"minUnitsPerClient" binding:"required,gt=0"`
}

type JoinGroupRequest struct {
	Units int64 `json:"units" binding:"required,gt=0"`
}

// Response models
type AuthResponse struct {
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	Name        string `json:"name,omitempty"`
	SponsorCode string `json:"sponsorCode,omitempty"`
	Token       string `json:"token,omitempty"`
	ExpiresIn   int    `json:"expiresIn,omitempty"`
}

type OfferListResponse struct {
	Items []Offer `json:"items"`
}

// TradeView is a trade enriched with the offer title and participant names.
// The enrichment is resolved at read time and never persisted.
type TradeView struct {
	Trade
	OfferTitle   string `json:"offerTitle"`
	FromUserName string `json:"fromUserName"`
	ToUserName   string `json:"toUserName"`
}

type TradeListResponse struct {
	Items []TradeView `json:"items"`
}

type RecordSavingResponse struct {
	Saving   SavingTransaction `json:"saving"`
	Referral *ReferralStat     `json:"referral,omitempty"`
}

type SponsorSummaryResponse struct {
	TotalInvited    int            `json:"totalInvited"`
	TotalSaved      float64        `json:"totalSaved"`
	TotalCommission float64        `json:"totalCommission"`
	Referrals       []ReferralStat `json:"referrals"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
