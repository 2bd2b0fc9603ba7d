// Package accounts resolves what a logged-in user is allowed to see: admin,
// premium subscriber, registered free user, or nobody.
package accounts

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrUnavailable means the store could not be reached at all.
	ErrUnavailable = errors.New("account store unavailable")
	// ErrKeyInvalid means the premium key does not exist or was used already.
	ErrKeyInvalid = errors.New("invalid or already used key")
)

// RecentPremiumLimit is how many subscribers the admin overview lists.
const RecentPremiumLimit = 10

// PremiumUser is one row of the admin overview.
type PremiumUser struct {
	UserID    string
	FirstName string
	Expiry    time.Time
}

// Stats is the admin overview of the account tables.
type Stats struct {
	FreeUsers     int
	PremiumUsers  int
	Admins        int
	RecentPremium []PremiumUser
}

// Redemption is the result of a successfully redeemed premium key.
type Redemption struct {
	ValidityDays int
	Expiry       time.Time
}

// Store is the persistence behind account tiers.
type Store interface {
	// IsAdmin reports whether adminID is listed as an admin.
	IsAdmin(ctx context.Context, adminID int64) (bool, error)
	// PremiumExpiry returns the subscription expiry of userID, or
	// ErrNotFound when the user has no subscription or no expiry set.
	PremiumExpiry(ctx context.Context, userID string) (time.Time, error)
	IsFreeUser(ctx context.Context, userID string) (bool, error)
	// RegisterFree adds userID to the free users. Registering an existing
	// user is a no-op.
	RegisterFree(ctx context.Context, userID, firstName string) error
	// RedeemKey marks key as used by userID and sets the subscription to
	// now plus the key's validity, replacing any earlier expiry. It returns
	// ErrKeyInvalid for unknown or used keys.
	RedeemKey(ctx context.Context, key, userID, firstName string, now time.Time) (Redemption, error)
	// Stats counts free users, subscriptions active at now and admins, and
	// lists the most recently started subscriptions.
	Stats(ctx context.Context, now time.Time) (Stats, error)
	Close() error
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
