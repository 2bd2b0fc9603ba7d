package accounts

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"embed"
	"errors"
	"fmt"
	"net"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// PostgresStore keeps accounts in PostgreSQL.
type PostgresStore struct {
	database *sql.DB
}

// NewPostgresStore connects to databaseDSN, waits up to connectTimeout for the
// server to answer and applies the schema migrations.
func NewPostgresStore(ctx context.Context, databaseDSN string, connectTimeout time.Duration) (*PostgresStore, error) {
	database, err := sql.Open("pgx", databaseDSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := database.PingContext(pingCtx); err != nil {
		database.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrate(database); err != nil {
		database.Close()
		return nil, err
	}

	return &PostgresStore{database: database}, nil
}

func migrate(database *sql.DB) error {
	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.Up(database, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsAdmin(ctx context.Context, adminID int64) (bool, error) {
	var exists bool
	err := s.database.QueryRowContext(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM admins WHERE user_id = $1)`,
		adminID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query admins: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) PremiumExpiry(ctx context.Context, userID string) (time.Time, error) {
	var expiry sql.NullTime
	err := s.database.QueryRowContext(
		ctx,
		`SELECT subscription_expiry FROM premium_users WHERE user_id = $1`,
		userID,
	).Scan(&expiry)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, ErrNotFound
		}
		return time.Time{}, fmt.Errorf("query premium_users: %w", err)
	}
	if !expiry.Valid {
		return time.Time{}, ErrNotFound
	}
	return expiry.Time, nil
}

func (s *PostgresStore) IsFreeUser(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := s.database.QueryRowContext(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM free_users WHERE user_id = $1)`,
		userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query free_users: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) RegisterFree(ctx context.Context, userID, firstName string) error {
	_, err := s.database.ExecContext(
		ctx,
		`INSERT INTO free_users (user_id, first_name) VALUES ($1, $2) ON CONFLICT (user_id) DO NOTHING`,
		userID,
		firstName,
	)
	if err != nil {
		return wrapStoreError("insert free_users", err)
	}
	return nil
}

func isConnError(err error) bool {
	var netErr net.Error
	return errors.Is(err, driver.ErrBadConn) || errors.As(err, &netErr)
}

func wrapStoreError(op string, err error) error {
	if isConnError(err) {
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *PostgresStore) RedeemKey(ctx context.Context, key, userID, firstName string, now time.Time) (Redemption, error) {
	tx, err := s.database.BeginTx(ctx, nil)
	if err != nil {
		return Redemption{}, wrapStoreError("begin redeem", err)
	}
	defer tx.Rollback()

	var validityDays int
	err = tx.QueryRowContext(
		ctx,
		`SELECT validity_days FROM premium_keys WHERE key = $1 AND used_by IS NULL FOR UPDATE`,
		key,
	).Scan(&validityDays)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Redemption{}, ErrKeyInvalid
		}
		return Redemption{}, wrapStoreError("query premium_keys", err)
	}

	r := Redemption{
		ValidityDays: validityDays,
		Expiry:       now.AddDate(0, 0, validityDays),
	}

	if _, err := tx.ExecContext(
		ctx,
		`UPDATE premium_keys SET used_by = $1, used_at = $2 WHERE key = $3`,
		userID, now, key,
	); err != nil {
		return Redemption{}, wrapStoreError("update premium_keys", err)
	}

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO premium_users (user_id, first_name, subscription_start, subscription_expiry)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id) DO UPDATE SET
		     first_name = EXCLUDED.first_name,
		     subscription_start = EXCLUDED.subscription_start,
		     subscription_expiry = EXCLUDED.subscription_expiry`,
		userID, firstName, now, r.Expiry,
	); err != nil {
		return Redemption{}, wrapStoreError("upsert premium_users", err)
	}

	if err := tx.Commit(); err != nil {
		return Redemption{}, wrapStoreError("commit redeem", err)
	}
	return r, nil
}

func (s *PostgresStore) Stats(ctx context.Context, now time.Time) (Stats, error) {
	var st Stats
	err := s.database.QueryRowContext(
		ctx,
		`SELECT
		     (SELECT COUNT(*) FROM free_users),
		     (SELECT COUNT(*) FROM premium_users WHERE subscription_expiry > $1),
		     (SELECT COUNT(*) FROM admins)`,
		now,
	).Scan(&st.FreeUsers, &st.PremiumUsers, &st.Admins)
	if err != nil {
		return Stats{}, wrapStoreError("count accounts", err)
	}

	rows, err := s.database.QueryContext(
		ctx,
		`SELECT user_id, first_name, subscription_expiry
		 FROM premium_users
		 ORDER BY subscription_start DESC, user_id
		 LIMIT $1`,
		RecentPremiumLimit,
	)
	if err != nil {
		return Stats{}, wrapStoreError("query recent premium_users", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			u      PremiumUser
			expiry sql.NullTime
		)
		if err := rows.Scan(&u.UserID, &u.FirstName, &expiry); err != nil {
			return Stats{}, wrapStoreError("scan premium_users", err)
		}
		u.Expiry = expiry.Time
		st.RecentPremium = append(st.RecentPremium, u)
	}
	if err := rows.Err(); err != nil {
		return Stats{}, wrapStoreError("iterate premium_users", err)
	}
	return st, nil
}

// AddAdmin, SetPremium and AddPremiumKey are for provisioning; the portal
// only grants premium through RedeemKey.
func (s *PostgresStore) AddAdmin(ctx context.Context, adminID int64) error {
	_, err := s.database.ExecContext(
		ctx,
		`INSERT INTO admins (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`,
		adminID,
	)
	return err
}

func (s *PostgresStore) SetPremium(ctx context.Context, userID string, expiry time.Time) error {
	_, err := s.database.ExecContext(
		ctx,
		`INSERT INTO premium_users (user_id, subscription_expiry) VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET subscription_expiry = EXCLUDED.subscription_expiry`,
		userID,
		expiry,
	)
	return err
}

func (s *PostgresStore) AddPremiumKey(ctx context.Context, key string, validityDays int) error {
	_, err := s.database.ExecContext(
		ctx,
		`INSERT INTO premium_keys (key, validity_days) VALUES ($1, $2)`,
		key,
		validityDays,
	)
	return err
}

func (s *PostgresStore) Close() error {
	return s.database.Close()
}
