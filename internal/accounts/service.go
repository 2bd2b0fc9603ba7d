package accounts

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"cardcheck/internal/logger"

	"github.com/patrickmn/go-cache"
)

// ExpiryLayout formats subscription expiry times for display.
const ExpiryLayout = "2006-01-02 15:04:05"

// Tier is what the store knows about one user at lookup time.
type Tier struct {
	Admin        bool
	PremiumUntil time.Time
	Registered   bool
}

// Subscription is the status shown on the subscription page.
type Subscription struct {
	Status string
	Expiry string
}

type Service struct {
	store       Store
	mainAdminID int64
	tiers       *cache.Cache
	now         func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService resolves tiers from store. mainAdminID is always an admin;
// zero disables it. Resolved tiers are cached for cacheTTL; zero disables
// caching.
func NewService(store Store, mainAdminID int64, cacheTTL time.Duration, opts ...Option) *Service {
	s := &Service{
		store:       store,
		mainAdminID: mainAdminID,
		now:         time.Now,
	}
	if cacheTTL > 0 {
		s.tiers = cache.New(cacheTTL, 2*cacheTTL)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tier resolves the tier of userID. Store errors are logged and treated as
// "no privilege". A tier built from a failed lookup is not cached, so the
// next request asks the store again.
func (s *Service) Tier(ctx context.Context, userID string) Tier {
	if s.tiers != nil {
		if t, ok := s.tiers.Get(userID); ok {
			return t.(Tier)
		}
	}

	admin, complete := s.isAdmin(ctx, userID)
	t := Tier{Admin: admin}

	expiry, err := s.store.PremiumExpiry(ctx, userID)
	switch {
	case err == nil:
		t.PremiumUntil = expiry
	case !errors.Is(err, ErrNotFound):
		logger.Log.Warnw("premium lookup failed", "user_id", userID, "err", err)
		complete = false
	}

	registered, err := s.store.IsFreeUser(ctx, userID)
	if err != nil {
		logger.Log.Warnw("free user lookup failed", "user_id", userID, "err", err)
		complete = false
	}
	t.Registered = registered

	if s.tiers != nil && complete {
		s.tiers.SetDefault(userID, t)
	}
	return t
}

// isAdmin only considers ids that strconv.ParseInt accepts, so surrounding
// spaces or digit separators make an id non-admin. The second result is false
// when the store could not answer.
func (s *Service) isAdmin(ctx context.Context, userID string) (bool, bool) {
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return false, true
	}
	if s.mainAdminID != 0 && id == s.mainAdminID {
		return true, true
	}
	admin, err := s.store.IsAdmin(ctx, id)
	if err != nil {
		logger.Log.Warnw("admin lookup failed", "user_id", userID, "err", err)
		return false, false
	}
	return admin, true
}

func (s *Service) IsAdmin(ctx context.Context, userID string) bool {
	return s.Tier(ctx, userID).Admin
}

func (s *Service) IsPremium(ctx context.Context, userID string) bool {
	t := s.Tier(ctx, userID)
	return t.Admin || t.PremiumUntil.After(s.now())
}

// IsAuthorized reports whether userID may use the portal at all.
func (s *Service) IsAuthorized(ctx context.Context, userID string) bool {
	t := s.Tier(ctx, userID)
	return t.Admin || t.PremiumUntil.After(s.now()) || t.Registered
}

// Register adds userID as a free user and drops its cached tier.
func (s *Service) Register(ctx context.Context, userID, firstName string) error {
	if err := s.store.RegisterFree(ctx, userID, firstName); err != nil {
		return fmt.Errorf("register %q: %w", userID, err)
	}
	if s.tiers != nil {
		s.tiers.Delete(userID)
	}
	return nil
}

// Redeem spends a premium key on userID. Unknown and spent keys return
// ErrKeyInvalid.
func (s *Service) Redeem(ctx context.Context, userID, firstName, key string) (Redemption, error) {
	r, err := s.store.RedeemKey(ctx, key, userID, firstName, s.now())
	if err != nil {
		return Redemption{}, fmt.Errorf("redeem key for %q: %w", userID, err)
	}
	if s.tiers != nil {
		s.tiers.Delete(userID)
	}
	return r, nil
}

// Stats feeds the admin page.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	st, err := s.store.Stats(ctx, s.now())
	if err != nil {
		return Stats{}, fmt.Errorf("load stats: %w", err)
	}
	return st, nil
}

func (s *Service) Subscription(ctx context.Context, userID string) Subscription {
	t := s.Tier(ctx, userID)
	now := s.now()

	switch {
	case t.Admin:
		return Subscription{Status: "Admin", Expiry: "Never"}
	case t.PremiumUntil.After(now):
		days := int(t.PremiumUntil.Sub(now) / (24 * time.Hour))
		return Subscription{
			Status: fmt.Sprintf("Premium (%d days remaining)", days),
			Expiry: t.PremiumUntil.Format(ExpiryLayout),
		}
	default:
		return Subscription{Status: "Free User", Expiry: "N/A"}
	}
}
