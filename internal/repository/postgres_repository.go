package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/trocly/troc-server/internal/models"
)

// querier is satisfied by both *sqlx.DB and *sqlx.Tx, so the same query
// methods serve plain calls and transaction-scoped calls.
type querier interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// PostgresRepository implements the Repository interface using PostgreSQL
type PostgresRepository struct {
	db *sqlx.DB
	q  querier
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
		q:  db,
	}
}

// GetDB returns the underlying database connection
func (r *PostgresRepository) GetDB() *sqlx.DB {
	return r.db
}

// WithTransaction runs fn against a transaction-scoped copy of the
// repository. Nested calls reuse the enclosing transaction.
func (r *PostgresRepository) WithTransaction(ctx context.Context, fn func(Repository) error) error {
	if _, ok := r.q.(*sqlx.Tx); ok {
		return fn(r)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	txRepo := &PostgresRepository{db: r.db, q: tx}
	if err := fn(txRepo); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// User repository methods
func (r *PostgresRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, name, password, role, token_balance, savings_balance,
			sponsor_code, referred_by_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	// Generate a new UUID if not provided
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.q.ExecContext(ctx, query,
		user.ID, user.Email, user.Name, user.Password, user.Role,
		user.TokenBalance, user.SavingsBalance, user.SponsorCode,
		user.ReferredByCode, user.CreatedAt, user.UpdatedAt)

	return err
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return r.getUser(ctx, `SELECT * FROM users WHERE id = $1`, id)
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getUser(ctx, `SELECT * FROM users WHERE email = $1`, email)
}

func (r *PostgresRepository) GetUserBySponsorCode(ctx context.Context, code string) (*models.User, error) {
	return r.getUser(ctx, `SELECT * FROM users WHERE sponsor_code = $1`, code)
}

func (r *PostgresRepository) getUser(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	err := r.q.GetContext(ctx, &user, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, err
	}

	return &user, nil
}

func (r *PostgresRepository) UpdateUserBalances(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users SET token_balance = $2, savings_balance = $3, updated_at = $4
		WHERE id = $1
	`

	user.UpdatedAt = time.Now().UTC()
	_, err := r.q.ExecContext(ctx, query,
		user.ID, user.TokenBalance, user.SavingsBalance, user.UpdatedAt)

	return err
}

// Offer repository methods
func (r *PostgresRepository) CreateOffer(ctx context.Context, offer *models.Offer) error {
	query := `
		INSERT INTO offers (id, title, description, domain, owner_id, price_tokens,
			price_cash, product_id, is_unique, meta, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	if offer.ID == "" {
		offer.ID = uuid.New().String()
	}
	offer.CreatedAt = time.Now().UTC()

	_, err := r.q.ExecContext(ctx, query,
		offer.ID, offer.Title, offer.Description, offer.Domain, offer.OwnerID,
		offer.PriceTokens, offer.PriceCash, offer.ProductID, offer.IsUnique,
		offer.Meta, offer.CreatedAt)

	return err
}

func (r *PostgresRepository) GetOffer(ctx context.Context, id string) (*models.Offer, error) {
	return r.getOffer(ctx, `SELECT * FROM offers WHERE id = $1`, id)
}

func (r *PostgresRepository) GetOfferForUpdate(ctx context.Context, id string) (*models.Offer, error) {
	return r.getOffer(ctx, `SELECT * FROM offers WHERE id = $1 FOR UPDATE`, id)
}

func (r *PostgresRepository) getOffer(ctx context.Context, query, id string) (*models.Offer, error) {
	var offer models.Offer
	err := r.q.GetContext(ctx, &offer, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Offer not found
		}
		return nil, err
	}

	return &offer, nil
}

func (r *PostgresRepository) ListOffers(ctx context.Context, domain, excludeOwnerID string) ([]models.Offer, error) {
	query := `SELECT * FROM offers WHERE domain = $1`
	args := []interface{}{domain}

	if excludeOwnerID != "" {
		query += ` AND owner_id <> $2`
		args = append(args, excludeOwnerID)
	}

	query += ` ORDER BY created_at DESC`

	var offers []models.Offer
	err := r.q.SelectContext(ctx, &offers, query, args...)
	if err != nil {
		return nil, err
	}

	return offers, nil
}

// Trade repository methods
func (r *PostgresRepository) CreateTrade(ctx context.Context, trade *models.Trade) error {
	query := `
		INSERT INTO trades (id, offer_id, from_user_id, to_user_id, tokens, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if trade.ID == "" {
		trade.ID = uuid.New().String()
	}
	trade.CreatedAt = time.Now().UTC()

	_, err := r.q.ExecContext(ctx, query,
		trade.ID, trade.OfferID, trade.FromUserID, trade.ToUserID,
		trade.Tokens, trade.Status, trade.CreatedAt)

	return err
}

func (r *PostgresRepository) GetTrade(ctx context.Context, id string) (*models.Trade, error) {
	var trade models.Trade
	err := r.q.GetContext(ctx, &trade, `SELECT * FROM trades WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Trade not found
		}
		return nil, err
	}

	return &trade, nil
}

func (r *PostgresRepository) ListTradesByOffer(ctx context.Context, offerID string) ([]models.Trade, error) {
	query := `SELECT * FROM trades WHERE offer_id = $1 ORDER BY created_at ASC`

	var trades []models.Trade
	err := r.q.SelectContext(ctx, &trades, query, offerID)
	if err != nil {
		return nil, err
	}

	return trades, nil
}

func (r *PostgresRepository) ListTradesForUser(ctx context.Context, userID string) ([]models.Trade, error) {
	query := `
		SELECT * FROM trades
		WHERE from_user_id = $1 OR to_user_id = $1
		ORDER BY created_at DESC
	`

	var trades []models.Trade
	err := r.q.SelectContext(ctx, &trades, query, userID)
	if err != nil {
		return nil, err
	}

	return trades, nil
}

// UpdateTradeStatus moves a pending trade to a terminal state. The guard on
// the current status makes terminal states sticky even under concurrent
// resolution attempts.
func (r *PostgresRepository) UpdateTradeStatus(ctx context.Context, trade *models.Trade) error {
	query := `
		UPDATE trades SET status = $2, resolved_at = $3
		WHERE id = $1 AND status = 'pending'
	`

	res, err := r.q.ExecContext(ctx, query, trade.ID, trade.Status, trade.ResolvedAt)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNoPendingTrade
	}

	return nil
}

// Order group repository methods
func (r *PostgresRepository) CreateOrderGroup(ctx context.Context, group *models.OrderGroup) error {
	query := `
		INSERT INTO order_groups (id, product_id, min_units_per_client, total_units, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if group.ID == "" {
		group.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	group.CreatedAt = now
	group.UpdatedAt = now

	_, err := r.q.ExecContext(ctx, query,
		group.ID, group.ProductID, group.MinUnitsPerClient, group.TotalUnits,
		group.Status, group.CreatedAt, group.UpdatedAt)

	return err
}

func (r *PostgresRepository) GetOrderGroup(ctx context.Context, id string) (*models.OrderGroup, error) {
	var group models.OrderGroup
	err := r.q.GetContext(ctx, &group, `SELECT * FROM order_groups WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Group not found
		}
		return nil, err
	}

	participants := []models.GroupParticipant{}
	err = r.q.SelectContext(ctx, &participants,
		`SELECT * FROM order_group_participants WHERE group_id = $1 ORDER BY user_id ASC`, id)
	if err != nil {
		return nil, err
	}
	group.Participants = participants

	return &group, nil
}

func (r *PostgresRepository) UpsertGroupParticipant(ctx context.Context, participant *models.GroupParticipant) error {
	query := `
		INSERT INTO order_group_participants (group_id, user_id, units)
		VALUES ($1, $2, $3)
		ON CONFLICT (group_id, user_id) DO UPDATE SET units = EXCLUDED.units
	`

	_, err := r.q.ExecContext(ctx, query,
		participant.GroupID, participant.UserID, participant.Units)

	return err
}

func (r *PostgresRepository) UpdateOrderGroupTotal(ctx context.Context, groupID string, totalUnits int64) error {
	query := `UPDATE order_groups SET total_units = $2, updated_at = $3 WHERE id = $1`

	_, err := r.q.ExecContext(ctx, query, groupID, totalUnits, time.Now().UTC())

	return err
}

// Referral and savings repository methods
func (r *PostgresRepository) CreateSavingTransaction(ctx context.Context, saving *models.SavingTransaction) error {
	query := `
		INSERT INTO saving_transactions (id, user_id, amount, created_at)
		VALUES ($1, $2, $3, $4)
	`

	if saving.ID == "" {
		saving.ID = uuid.New().String()
	}
	saving.CreatedAt = time.Now().UTC()

	_, err := r.q.ExecContext(ctx, query,
		saving.ID, saving.UserID, saving.Amount, saving.CreatedAt)

	return err
}

func (r *PostgresRepository) GetReferralStat(ctx context.Context, sponsorID, invitedID string) (*models.ReferralStat, error) {
	query := `SELECT * FROM referral_stats WHERE sponsor_id = $1 AND invited_id = $2`

	var stat models.ReferralStat
	err := r.q.GetContext(ctx, &stat, query, sponsorID, invitedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // No stat recorded yet for this pair
		}
		return nil, err
	}

	return &stat, nil
}

func (r *PostgresRepository) UpsertReferralStat(ctx context.Context, stat *models.ReferralStat) error {
	query := `
		INSERT INTO referral_stats (id, sponsor_id, invited_id, total_saved, commission_earned, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (sponsor_id, invited_id) DO UPDATE SET
			total_saved = EXCLUDED.total_saved,
			commission_earned = EXCLUDED.commission_earned,
			updated_at = EXCLUDED.updated_at
	`

	if stat.ID == "" {
		stat.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	if stat.CreatedAt.IsZero() {
		stat.CreatedAt = now
	}
	stat.UpdatedAt = now

	_, err := r.q.ExecContext(ctx, query,
		stat.ID, stat.SponsorID, stat.InvitedID, stat.TotalSavedByInvited,
		stat.CommissionEarned, stat.CreatedAt, stat.UpdatedAt)

	return err
}

func (r *PostgresRepository) ListReferralStatsBySponsor(ctx context.Context, sponsorID string) ([]models.ReferralStat, error) {
	query := `SELECT * FROM referral_stats WHERE sponsor_id = $1 ORDER BY created_at ASC`

	var stats []models.ReferralStat
	err := r.q.SelectContext(ctx, &stats, query, sponsorID)
	if err != nil {
		return nil, err
	}

	return stats, nil
}
