package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config is the typed view of the settings the server runs with.
type Config struct {
	ListenAddr       string        `validate:"required,hostname_port"`
	LogLevel         string        `validate:"loglevel"`
	SessionTTL       time.Duration `validate:"gt=0"`
	CookieSecure     bool
	DatabaseDSN      string
	DBConnectTimeout time.Duration `validate:"gt=0"`
	MainAdminID      int64         `validate:"gte=0"`
	TierCacheTTL     time.Duration `validate:"gte=0"`
	TLSEnabled       bool
	TLSCertPath      string `validate:"required_if=TLSEnabled true"`
	TLSKeyPath       string `validate:"required_if=TLSEnabled true"`
}

// LoadDotEnv loads variables from the given files (".env" when none are
// given) into the process environment. Missing files are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

// FromSettings parses and validates the raw settings.
func FromSettings(s *SettingsType) (*Config, error) {
	var err error
	cfg := &Config{
		ListenAddr:   s.Get(LISTEN_ADDR),
		LogLevel:     s.Get(LOG_LEVEL),
		CookieSecure: s.IsTrue(COOKIE_SECURE),
		DatabaseDSN:  s.Get(DATABASE_DSN),
		TLSEnabled:   s.IsTrue(TLS_ENABLED),
		TLSCertPath:  s.Get(TLS_CERT_PATH),
		TLSKeyPath:   s.Get(TLS_KEY_PATH),
	}

	if cfg.SessionTTL, err = time.ParseDuration(s.Get(SESSION_TTL)); err != nil {
		return nil, fmt.Errorf("%s: %w", SESSION_TTL, err)
	}
	if cfg.DBConnectTimeout, err = time.ParseDuration(s.Get(DB_CONNECT_TIMEOUT)); err != nil {
		return nil, fmt.Errorf("%s: %w", DB_CONNECT_TIMEOUT, err)
	}
	if cfg.TierCacheTTL, err = time.ParseDuration(s.Get(TIER_CACHE_TTL)); err != nil {
		return nil, fmt.Errorf("%s: %w", TIER_CACHE_TTL, err)
	}
	if cfg.MainAdminID, err = strconv.ParseInt(s.Get(MAIN_ADMIN_ID), 10, 64); err != nil {
		return nil, fmt.Errorf("%s: %w", MAIN_ADMIN_ID, err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	switch fieldLevel.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}

func validate(cfg *Config) error {
	v := validator.New()
	if err := v.RegisterValidation("loglevel", validateLogLevel); err != nil {
		return err
	}
	return v.Struct(cfg)
}
