package accounts

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	ok, err := s.IsAdmin(ctx, 9)
	require.NoError(t, err)
	assert.False(t, ok)
	s.AddAdmin(9)
	ok, _ = s.IsAdmin(ctx, 9)
	assert.True(t, ok)

	_, err = s.PremiumExpiry(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)
	expiry := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	s.SetPremium("u1", expiry)
	got, err := s.PremiumExpiry(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, expiry, got)

	require.NoError(t, s.RegisterFree(ctx, "u2", "Jane"))
	require.NoError(t, s.RegisterFree(ctx, "u2", "Other"))
	ok, _ = s.IsFreeUser(ctx, "u2")
	assert.True(t, ok)
	assert.Equal(t, "Jane", s.freeUsers["u2"])

	assert.NoError(t, s.Close())
}

func TestMemoryStoreRedeemKey(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Date(2025, 1, 31, 9, 0, 0, 0, time.UTC)
	s.SetPremium("u", now.Add(-time.Hour))
	s.AddPremiumKey("K1", 14)

	r, err := s.RedeemKey(ctx, "K1", "u", "Jane", now)
	require.NoError(t, err)
	assert.Equal(t, Redemption{ValidityDays: 14, Expiry: now.AddDate(0, 0, 14)}, r)
	got, err := s.PremiumExpiry(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, r.Expiry, got, "redeeming replaces the old expiry")

	_, err = s.RedeemKey(ctx, "K1", "other", "Joe", now)
	assert.ErrorIs(t, err, ErrKeyInvalid)
	_, err = s.RedeemKey(ctx, "missing", "u", "Jane", now)
	assert.ErrorIs(t, err, ErrKeyInvalid)
}

func TestMemoryStoreStats(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.AddAdmin(1)
	s.AddAdmin(2)
	require.NoError(t, s.RegisterFree(ctx, "f", "Free"))

	for i := 0; i < RecentPremiumLimit+2; i++ {
		key := fmt.Sprintf("k%02d", i)
		s.AddPremiumKey(key, 1)
		_, err := s.RedeemKey(ctx, key, fmt.Sprintf("p%02d", i), "", now.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	st, err := s.Stats(ctx, now.Add(24*time.Hour+30*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, st.FreeUsers)
	assert.Equal(t, 2, st.Admins)
	assert.Equal(t, RecentPremiumLimit+1, st.PremiumUsers, "p00 expired half a minute ago")
	require.Len(t, st.RecentPremium, RecentPremiumLimit)
	assert.Equal(t, "p11", st.RecentPremium[0].UserID)
	assert.Equal(t, "p02", st.RecentPremium[RecentPremiumLimit-1].UserID)
}
