package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/trocly/troc-server/internal/models"
)

// memStore holds all in-memory state. Entities are stored and returned by
// value copy so callers never alias live store data.
type memStore struct {
	users         map[string]*models.User
	offers        map[string]*models.Offer
	trades        map[string]*models.Trade
	groups        map[string]*models.OrderGroup
	referralStats map[string]*models.ReferralStat // keyed by sponsorID + "/" + invitedID
	savings       []models.SavingTransaction
}

func newMemStore() *memStore {
	return &memStore{
		users:         make(map[string]*models.User),
		offers:        make(map[string]*models.Offer),
		trades:        make(map[string]*models.Trade),
		groups:        make(map[string]*models.OrderGroup),
		referralStats: make(map[string]*models.ReferralStat),
	}
}

func (s *memStore) clone() *memStore {
	c := newMemStore()
	for id, u := range s.users {
		cp := *u
		c.users[id] = &cp
	}
	for id, o := range s.offers {
		cp := *o
		c.offers[id] = &cp
	}
	for id, t := range s.trades {
		cp := *t
		c.trades[id] = &cp
	}
	for id, g := range s.groups {
		cp := *g
		cp.Participants = append([]models.GroupParticipant(nil), g.Participants...)
		c.groups[id] = &cp
	}
	for key, st := range s.referralStats {
		cp := *st
		c.referralStats[key] = &cp
	}
	c.savings = append([]models.SavingTransaction(nil), s.savings...)
	return c
}

// MemoryRepository implements the Repository interface with in-process maps.
// It backs the test suites and the "memory" store driver. A single mutex
// serializes transactions, which also closes the concurrent-accept race.
type MemoryRepository struct {
	mu   *sync.Mutex
	inTx bool // lock already held by the enclosing WithTransaction
	s    *memStore
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		mu: &sync.Mutex{},
		s:  newMemStore(),
	}
}

// enter acquires the store lock unless the enclosing transaction holds it.
func (r *MemoryRepository) enter() func() {
	if r.inTx {
		return func() {}
	}
	r.mu.Lock()
	return r.mu.Unlock
}

// WithTransaction serializes all transactions under the store mutex and
// restores a pre-transaction snapshot when fn fails, so partial writes never
// become visible.
func (r *MemoryRepository) WithTransaction(ctx context.Context, fn func(Repository) error) error {
	if r.inTx {
		return fn(r)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := r.s.clone()
	tx := &MemoryRepository{mu: r.mu, inTx: true, s: r.s}
	if err := fn(tx); err != nil {
		*r.s = *snapshot
		return err
	}

	return nil
}

// User repository methods
func (r *MemoryRepository) CreateUser(ctx context.Context, user *models.User) error {
	defer r.enter()()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r *MemoryRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	defer r.enter()()

	if u, ok := r.s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *MemoryRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	defer r.enter()()

	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) GetUserBySponsorCode(ctx context.Context, code string) (*models.User, error) {
	defer r.enter()()

	for _, u := range r.s.users {
		if u.SponsorCode == code {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) UpdateUserBalances(ctx context.Context, user *models.User) error {
	defer r.enter()()

	stored, ok := r.s.users[user.ID]
	if !ok {
		return nil
	}

	user.UpdatedAt = time.Now().UTC()
	stored.TokenBalance = user.TokenBalance
	stored.SavingsBalance = user.SavingsBalance
	stored.UpdatedAt = user.UpdatedAt
	return nil
}

// Offer repository methods
func (r *MemoryRepository) CreateOffer(ctx context.Context, offer *models.Offer) error {
	defer r.enter()()

	if offer.ID == "" {
		offer.ID = uuid.New().String()
	}
	offer.CreatedAt = time.Now().UTC()

	cp := *offer
	r.s.offers[offer.ID] = &cp
	return nil
}

func (r *MemoryRepository) GetOffer(ctx context.Context, id string) (*models.Offer, error) {
	defer r.enter()()

	if o, ok := r.s.offers[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, nil
}

// GetOfferForUpdate has no row locking to do here: the transaction mutex
// already serializes every writer.
func (r *MemoryRepository) GetOfferForUpdate(ctx context.Context, id string) (*models.Offer, error) {
	return r.GetOffer(ctx, id)
}

func (r *MemoryRepository) ListOffers(ctx context.Context, domain, excludeOwnerID string) ([]models.Offer, error) {
	defer r.enter()()

	offers := []models.Offer{}
	for _, o := range r.s.offers {
		if o.Domain != domain {
			continue
		}
		if excludeOwnerID != "" && o.OwnerID == excludeOwnerID {
			continue
		}
		offers = append(offers, *o)
	}
	return offers, nil
}

// Trade repository methods
func (r *MemoryRepository) CreateTrade(ctx context.Context, trade *models.Trade) error {
	defer r.enter()()

	if trade.ID == "" {
		trade.ID = uuid.New().String()
	}
	trade.CreatedAt = time.Now().UTC()

	cp := *trade
	r.s.trades[trade.ID] = &cp
	return nil
}

func (r *MemoryRepository) GetTrade(ctx context.Context, id string) (*models.Trade, error) {
	defer r.enter()()

	if t, ok := r.s.trades[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

func (r *MemoryRepository) ListTradesByOffer(ctx context.Context, offerID string) ([]models.Trade, error) {
	defer r.enter()()

	trades := []models.Trade{}
	for _, t := range r.s.trades {
		if t.OfferID == offerID {
			trades = append(trades, *t)
		}
	}
	return trades, nil
}

func (r *MemoryRepository) ListTradesForUser(ctx context.Context, userID string) ([]models.Trade, error) {
	defer r.enter()()

	trades := []models.Trade{}
	for _, t := range r.s.trades {
		if t.FromUserID == userID || t.ToUserID == userID {
			trades = append(trades, *t)
		}
	}
	return trades, nil
}

func (r *MemoryRepository) UpdateTradeStatus(ctx context.Context, trade *models.Trade) error {
	defer r.enter()()

	stored, ok := r.s.trades[trade.ID]
	if !ok || stored.Status != models.TradeStatusPending {
		return ErrNoPendingTrade
	}

	stored.Status = trade.Status
	stored.ResolvedAt = trade.ResolvedAt
	return nil
}

// Order group repository methods
func (r *MemoryRepository) CreateOrderGroup(ctx context.Context, group *models.OrderGroup) error {
	defer r.enter()()

	if group.ID == "" {
		group.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	group.CreatedAt = now
	group.UpdatedAt = now

	cp := *group
	cp.Participants = append([]models.GroupParticipant(nil), group.Participants...)
	r.s.groups[group.ID] = &cp
	return nil
}

func (r *MemoryRepository) GetOrderGroup(ctx context.Context, id string) (*models.OrderGroup, error) {
	defer r.enter()()

	if g, ok := r.s.groups[id]; ok {
		cp := *g
		cp.Participants = append([]models.GroupParticipant{}, g.Participants...)
		return &cp, nil
	}
	return nil, nil
}

func (r *MemoryRepository) UpsertGroupParticipant(ctx context.Context, participant *models.GroupParticipant) error {
	defer r.enter()()

	g, ok := r.s.groups[participant.GroupID]
	if !ok {
		return nil
	}

	for i := range g.Participants {
		if g.Participants[i].UserID == participant.UserID {
			g.Participants[i].Units = participant.Units
			return nil
		}
	}

	g.Participants = append(g.Participants, *participant)
	return nil
}

func (r *MemoryRepository) UpdateOrderGroupTotal(ctx context.Context, groupID string, totalUnits int64) error {
	defer r.enter()()

	if g, ok := r.s.groups[groupID]; ok {
		g.TotalUnits = totalUnits
		g.UpdatedAt = time.Now().UTC()
	}
	return nil
}

// Referral and savings repository methods
func (r *MemoryRepository) CreateSavingTransaction(ctx context.Context, saving *models.SavingTransaction) error {
	defer r.enter()()

	if saving.ID == "" {
		saving.ID = uuid.New().String()
	}
	saving.CreatedAt = time.Now().UTC()

	r.s.savings = append(r.s.savings, *saving)
	return nil
}

func (r *MemoryRepository) GetReferralStat(ctx context.Context, sponsorID, invitedID string) (*models.ReferralStat, error) {
	defer r.enter()()

	if st, ok := r.s.referralStats[sponsorID+"/"+invitedID]; ok {
		cp := *st
		return &cp, nil
	}
	return nil, nil
}

func (r *MemoryRepository) UpsertReferralStat(ctx context.Context, stat *models.ReferralStat) error {
	defer r.enter()()

	if stat.ID == "" {
		stat.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	if stat.CreatedAt.IsZero() {
		stat.CreatedAt = now
	}
	stat.UpdatedAt = now

	cp := *stat
	r.s.referralStats[stat.SponsorID+"/"+stat.InvitedID] = &cp
	return nil
}

func (r *MemoryRepository) ListReferralStatsBySponsor(ctx context.Context, sponsorID string) ([]models.ReferralStat, error) {
	defer r.enter()()

	stats := []models.ReferralStat{}
	for _, st := range r.s.referralStats {
		if st.SponsorID == sponsorID {
			stats = append(stats, *st)
		}
	}
	return stats, nil
}
