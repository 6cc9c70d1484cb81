// Package memory provides in-memory implementations of the repository
// ports. It backs the development backend and the service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"helpinghand/internal/core"
)

// Store implements every repository port over mutex-guarded maps. The two
// ledger mutations hold the lock for their whole critical section, which
// gives them the same lost-update guarantee the SQLite statements have.
type Store struct {
	mu         sync.Mutex
	users      map[string]core.User
	categories map[string]core.Category
	campaigns  map[string]*core.Campaign
	payments   map[string]core.Payment
	intents    map[string]core.PaymentIntent
	intentSeq  []string // creation order
}

func New() *Store {
	return &Store{
		users:      make(map[string]core.User),
		categories: make(map[string]core.Category),
		campaigns:  make(map[string]*core.Campaign),
		payments:   make(map[string]core.Payment),
		intents:    make(map[string]core.PaymentIntent),
	}
}

// Seed helpers, used by the dev backend and tests.

func (s *Store) AddUser(u core.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *Store) AddCategory(c core.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = c
}

func (s *Store) AddCampaign(c core.Campaign) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := c
	cp.PaymentIDs = append([]string(nil), c.PaymentIDs...)
	s.campaigns[c.ID] = &cp
}

// CampaignReader

func (s *Store) GetCampaign(_ context.Context, id string) (core.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return core.Campaign{}, core.ErrNotFound
	}
	return copyCampaign(c), nil
}

func (s *Store) ListCampaigns(_ context.Context) ([]core.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Campaign, 0, len(s.campaigns))
	for _, c := range s.campaigns {
		out = append(out, copyCampaign(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CampaignLedger

func (s *Store) AddToRaised(_ context.Context, campaignID string, amount core.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[campaignID]
	if !ok {
		return core.ErrNotFound
	}
	c.Raised.Cents += amount.Cents
	return nil
}

func (s *Store) AppendPaymentRef(_ context.Context, campaignID, paymentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[campaignID]
	if !ok {
		return core.ErrNotFound
	}
	for _, id := range c.PaymentIDs {
		if id == paymentID {
			return nil
		}
	}
	c.PaymentIDs = append(c.PaymentIDs, paymentID)
	return nil
}

// PaymentRepository

func (s *Store) CreatePayment(_ context.Context, p core.Payment) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payments[p.ID]; ok {
		return core.ErrAlreadyExists
	}
	// Relation-by-id with integrity enforced at the boundary.
	if _, ok := s.campaigns[p.CampaignID]; !ok {
		return core.ErrBrokenRef
	}
	if _, ok := s.users[p.PayerID]; !ok {
		return core.ErrBrokenRef
	}
	s.payments[p.ID] = p
	return nil
}

func (s *Store) GetPayment(_ context.Context, id string) (core.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return core.Payment{}, core.ErrNotFound
	}
	return p, nil
}

func (s *Store) ListPaymentsSince(_ context.Context, since time.Time) ([]core.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Payment
	for _, p := range s.payments {
		if !p.CreatedAt.Before(since) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) SumAmounts(_ context.Context) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, p := range s.payments {
		total += p.Amount.Cents
	}
	return core.Money{Cents: total}, nil
}

func (s *Store) SumAmountsByPayer(_ context.Context, payerID string) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, p := range s.payments {
		if p.PayerID == payerID {
			total += p.Amount.Cents
		}
	}
	return core.Money{Cents: total}, nil
}

// IntentRepository

func (s *Store) CreateIntent(_ context.Context, i core.PaymentIntent) error {
	if err := i.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.intents[i.ID]; ok {
		return core.ErrAlreadyExists
	}
	s.intents[i.ID] = i
	s.intentSeq = append(s.intentSeq, i.ID)
	return nil
}

func (s *Store) GetIntent(_ context.Context, id string) (core.PaymentIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.intents[id]
	if !ok {
		return core.PaymentIntent{}, core.ErrNotFound
	}
	return i, nil
}

func (s *Store) UpdateIntentStatus(_ context.Context, id string, status core.IntentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.intents[id]
	if !ok {
		return core.ErrNotFound
	}
	i.Status = status
	i.UpdatedAt = time.Now().UTC()
	s.intents[id] = i
	return nil
}

func (s *Store) ListIntentsByStatus(_ context.Context, status core.IntentStatus, limit int) ([]core.PaymentIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.PaymentIntent
	for _, id := range s.intentSeq {
		i := s.intents[id]
		if i.Status != status {
			continue
		}
		out = append(out, i)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// UserRepository / CategoryRepository

func (s *Store) GetUser(_ context.Context, id string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return u, nil
}

func (s *Store) GetCategory(_ context.Context, id string) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return core.Category{}, core.ErrNotFound
	}
	return c, nil
}

func copyCampaign(c *core.Campaign) core.Campaign {
	cp := *c
	cp.PaymentIDs = append([]string(nil), c.PaymentIDs...)
	return cp
}
