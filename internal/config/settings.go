package config

import (
	"io"
	"os"
	"sort"

	"github.com/olekukonko/tablewriter"
)

type SettingsType struct {
	m map[string]SettingType
}

type SettingType struct {
	Description string
	Value       string
}

func NewSettingType(print bool) *SettingsType {
	s := &SettingsType{m: make(map[string]SettingType)}

	s.Set(LISTEN_ADDR, "Server listen address", ":5000")
	s.Set(LOG_LEVEL, "Log level (debug, info, warn, error)", "info")
	s.Set(SESSION_TTL, "Session lifetime", "24h")
	s.Set(COOKIE_SECURE, "Only send the session cookie over HTTPS", "false")
	s.Set(DATABASE_DSN, "PostgreSQL connection string, in-memory accounts when empty", "")
	s.Set(DB_CONNECT_TIMEOUT, "Timeout for the initial database connection", "10s")
	s.Set(MAIN_ADMIN_ID, "Numeric user id that is always treated as admin", "0")
	s.Set(TIER_CACHE_TTL, "How long resolved account tiers are cached", "1m")
	s.Set(TLS_ENABLED, "Serve HTTPS with the configured (or generated) certificate", "false")
	s.Set(TLS_CERT_PATH, "TLS certificate path", "certs/server.crt")
	s.Set(TLS_KEY_PATH, "TLS key path", "certs/server.key")

	if print {
		s.Print(os.Stdout)
	}
	return s
}

// Print writes the settings as a table, ordered by key.
func (s *SettingsType) Print(w io.Writer) {
	keys := make([]string, 0, len(s.m))
	for key := range s.m {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	table := tablewriter.NewWriter(w)
	table.Header("KEY", "Description", "value")
	for _, key := range keys {
		setting := s.m[key]
		table.Append([]string{key, setting.Description, setting.Value})
	}
	table.Render()
}

func (s *SettingsType) Get(id string) string {
	return s.m[id].Value
}

func (s *SettingsType) Has(id string) bool {
	return len(s.m[id].Value) > 0
}

func (s *SettingsType) IsTrue(id string) bool {
	return s.m[id].Value == "true"
}

func (s *SettingsType) Set(id string, description string, defaultValue string) {
	if value, ok := os.LookupEnv(id); ok {
		s.m[id] = SettingType{Description: description, Value: value}
	} else {
		s.m[id] = SettingType{Description: description, Value: defaultValue}
	}
}

const (
	LISTEN_ADDR        = "LISTEN_ADDR"
	LOG_LEVEL          = "LOG_LEVEL"
	SESSION_TTL        = "SESSION_TTL"
	COOKIE_SECURE      = "COOKIE_SECURE"
	DATABASE_DSN       = "DATABASE_DSN"
	DB_CONNECT_TIMEOUT = "DB_CONNECT_TIMEOUT"
	MAIN_ADMIN_ID      = "MAIN_ADMIN_ID"
	TIER_CACHE_TTL     = "TIER_CACHE_TTL"
	TLS_ENABLED        = "TLS_ENABLED"
	TLS_CERT_PATH      = "TLS_CERT_PATH"
	TLS_KEY_PATH       = "TLS_KEY_PATH"
)
