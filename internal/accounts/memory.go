package accounts

import (
	"context"
	"sort"
	"sync"
	"time"
)

type premiumRow struct {
	firstName string
	start     time.Time
	expiry    time.Time
}

type premiumKey struct {
	validityDays int
	usedBy       string
}

// MemoryStore keeps accounts in process memory. It is used when no database
// is configured.
type MemoryStore struct {
	mu        sync.RWMutex
	admins    map[int64]struct{}
	premium   map[string]premiumRow
	freeUsers map[string]string
	keys      map[string]*premiumKey
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		admins:    make(map[int64]struct{}),
		premium:   make(map[string]premiumRow),
		freeUsers: make(map[string]string),
		keys:      make(map[string]*premiumKey),
	}
}

func (s *MemoryStore) AddAdmin(adminID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admins[adminID] = struct{}{}
}

// SetPremium sets the subscription expiry of userID. A zero expiry stands for
// a subscription row with no expiry.
func (s *MemoryStore) SetPremium(userID string, expiry time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.premium[userID]
	row.start = time.Now()
	row.expiry = expiry
	s.premium[userID] = row
}

// AddPremiumKey makes key redeemable for validityDays of premium.
func (s *MemoryStore) AddPremiumKey(key string, validityDays int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key] = &premiumKey{validityDays: validityDays}
}

func (s *MemoryStore) IsAdmin(_ context.Context, adminID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.admins[adminID]
	return ok, nil
}

func (s *MemoryStore) PremiumExpiry(_ context.Context, userID string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.premium[userID]
	if !ok || row.expiry.IsZero() {
		return time.Time{}, ErrNotFound
	}
	return row.expiry, nil
}

func (s *MemoryStore) IsFreeUser(_ context.Context, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.freeUsers[userID]
	return ok, nil
}

func (s *MemoryStore) RegisterFree(_ context.Context, userID, firstName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.freeUsers[userID]; !ok {
		s.freeUsers[userID] = firstName
	}
	return nil
}

func (s *MemoryStore) RedeemKey(_ context.Context, key, userID, firstName string, now time.Time) (Redemption, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k, ok := s.keys[key]
	if !ok || k.usedBy != "" {
		return Redemption{}, ErrKeyInvalid
	}
	k.usedBy = userID

	r := Redemption{
		ValidityDays: k.validityDays,
		Expiry:       now.AddDate(0, 0, k.validityDays),
	}
	s.premium[userID] = premiumRow{firstName: firstName, start: now, expiry: r.Expiry}
	return r, nil
}

func (s *MemoryStore) Stats(_ context.Context, now time.Time) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		FreeUsers: len(s.freeUsers),
		Admins:    len(s.admins),
	}
	ids := make([]string, 0, len(s.premium))
	for id, row := range s.premium {
		if row.expiry.After(now) {
			st.PremiumUsers++
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := s.premium[ids[i]], s.premium[ids[j]]
		if a.start.Equal(b.start) {
			return ids[i] < ids[j]
		}
		return a.start.After(b.start)
	})
	if len(ids) > RecentPremiumLimit {
		ids = ids[:RecentPremiumLimit]
	}
	for _, id := range ids {
		row := s.premium[id]
		st.RecentPremium = append(st.RecentPremium, PremiumUser{
			UserID:    id,
			FirstName: row.firstName,
			Expiry:    row.expiry,
		})
	}
	return st, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
