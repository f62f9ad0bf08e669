// Package memstore provides an in-memory EntityStore used for tests and
// local runs without Redis. Entries are stored by reference; callers get
// copies so later mutation cannot bypass the save path.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/gboigwe/nuru-sub002/internal/domain/model"
	"github.com/gboigwe/nuru-sub002/internal/domain/repository"
)

type MemStore struct {
	mu         sync.RWMutex
	payments   map[string]*model.Payment
	users      map[string]*model.User
	daily      map[int64]*model.DailyStat
	currencies map[string]*model.CurrencyStat
	protocol   *model.ProtocolStat
}

func New() *MemStore {
	return &MemStore{
		payments:   make(map[string]*model.Payment),
		users:      make(map[string]*model.User),
		daily:      make(map[int64]*model.DailyStat),
		currencies: make(map[string]*model.CurrencyStat),
	}
}

// Ensure MemStore implements the EntityStore interface
var _ repository.EntityStore = (*MemStore)(nil)

func (s *MemStore) GetPayment(ctx context.Context, id string) (*model.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payments[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *MemStore) SavePayment(ctx context.Context, p *model.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.payments[p.ID] = &cp
	return nil
}

func (s *MemStore) GetUser(ctx context.Context, address string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[address]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *MemStore) SaveUser(ctx context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.users[u.Address] = &cp
	return nil
}

func (s *MemStore) GetAllUsers(ctx context.Context) ([]*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*model.User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Address < result[j].Address })
	return result, nil
}

func (s *MemStore) GetDailyStat(ctx context.Context, date int64) (*model.DailyStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.daily[date]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (s *MemStore) SaveDailyStat(ctx context.Context, d *model.DailyStat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *d
	s.daily[d.Date] = &cp
	return nil
}

func (s *MemStore) GetAllDailyStats(ctx context.Context) ([]*model.DailyStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*model.DailyStat, 0, len(s.daily))
	for _, d := range s.daily {
		cp := *d
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date < result[j].Date })
	return result, nil
}

func (s *MemStore) GetCurrencyStat(ctx context.Context, currency string) (*model.CurrencyStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.currencies[currency]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (s *MemStore) SaveCurrencyStat(ctx context.Context, c *model.CurrencyStat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.currencies[c.Currency] = &cp
	return nil
}

func (s *MemStore) GetAllCurrencyStats(ctx context.Context) ([]*model.CurrencyStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*model.CurrencyStat, 0, len(s.currencies))
	for _, c := range s.currencies {
		cp := *c
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Currency < result[j].Currency })
	return result, nil
}

func (s *MemStore) GetProtocolStat(ctx context.Context) (*model.ProtocolStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.protocol == nil {
		return nil, nil
	}
	cp := *s.protocol
	return &cp, nil
}

func (s *MemStore) SaveProtocolStat(ctx context.Context, p *model.ProtocolStat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.protocol = &cp
	return nil
}
