package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/millkeeper/internal/common"
)

// isolate points the per-user config dir at an empty temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Setenv(EnvPath, "")
	return dir
}

func remoteEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MILLKEEPER_API_KEY", "key")
	t.Setenv("MILLKEEPER_DATABASE_URL", "https://frantoio.firebaseio.com")
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_DefaultsFromEnvOnly(t *testing.T) {
	isolate(t)
	remoteEnv(t)

	cfg, err := Load("", Overrides{})
	require.NoError(t, err)

	assert.Equal(t, "molitura", cfg.Collection)
	assert.Equal(t, "frantoio_archive.db", cfg.ArchiveDB)
	assert.Equal(t, 7, cfg.HybridDays)
	assert.Equal(t, 7, cfg.RetentionDays)
	assert.InDelta(t, 0.30, cfg.EuroPerKg, 1e-9)
	assert.Equal(t, 3*time.Second, cfg.PollInterval())
	assert.Equal(t, 5*time.Minute, cfg.MirrorInterval())
	assert.Equal(t, 2*time.Minute, cfg.SyncTimeout())
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout())
	assert.Equal(t, "Europe/Rome", cfg.Timezone)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "https://identitytoolkit.googleapis.com", cfg.Auth.IdentityURL)
}

func TestLoad_LegacyJSONFile(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "config.json", `{
		"api_key": "AIza",
		"database_url": "https://frantoio.firebaseio.com",
		"collection": "molitura2025",
		"archive_db": "/var/lib/frantoio/archive.db",
		"hybrid_days": 3,
		"retention_days": 10,
		"euro_per_kg": 0.35,
		"poll_ms": 5000,
		"mirror_interval_minutes": 15
	}`)

	cfg, err := Load(path, Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "AIza", cfg.APIKey)
	assert.Equal(t, "molitura2025", cfg.Collection)
	assert.Equal(t, 3, cfg.HybridDays)
	assert.Equal(t, 10, cfg.RetentionDays)
	assert.InDelta(t, 0.35, cfg.EuroPerKg, 1e-9)
	assert.Equal(t, 5*time.Second, cfg.PollInterval())
	assert.Equal(t, 15*time.Minute, cfg.MirrorInterval())
	// absent keys keep their defaults
	assert.Equal(t, "Europe/Rome", cfg.Timezone)
}

func TestLoad_ExplicitZeroIsKept(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "config.json", `{
		"api_key": "k",
		"database_url": "https://frantoio.firebaseio.com",
		"hybrid_days": 0,
		"euro_per_kg": 0
	}`)

	cfg, err := Load(path, Overrides{})
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.HybridDays, "0 means archive-only reads")
	assert.Equal(t, 0.0, cfg.EuroPerKg)
	assert.Equal(t, 7, cfg.RetentionDays)
}

func TestLoad_ExplicitZeroFromYAML(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "millkeeper.yaml", `
api_key: k
database_url: https://frantoio.firebaseio.com
hybrid_days: 0
`)

	cfg, err := Load(path, Overrides{})
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.HybridDays)
	assert.InDelta(t, 0.30, cfg.EuroPerKg, 1e-9, "absent key keeps its default")
}

func TestLoad_ZeroFromEnv(t *testing.T) {
	isolate(t)
	remoteEnv(t)
	t.Setenv("MILLKEEPER_HYBRID_DAYS", "0")

	cfg, err := Load("", Overrides{})
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.HybridDays)
}

func TestLoad_YAMLFromEnvPath(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "millkeeper.yaml", `
api_key: key
database_url: https://frantoio.firebaseio.com
auth:
  email: operatore@frantoio.it
http:
  addr: 127.0.0.1:9090
log:
  format: json
  level: debug
`)
	t.Setenv(EnvPath, path)

	cfg, err := Load("", Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "operatore@frantoio.it", cfg.Auth.Email)
	assert.Equal(t, "127.0.0.1:9090", cfg.HTTP.Addr)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_PerUserFile(t *testing.T) {
	isolate(t)
	writeFile(t, filepath.Dir(DefaultPath()), "config.json",
		`{"api_key":"k","database_url":"https://x.firebaseio.com","collection":"per_user"}`)

	cfg, err := Load("", Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "per_user", cfg.Collection)
}

func TestLoad_Precedence(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "config.json",
		`{"api_key":"k","database_url":"https://x.firebaseio.com","hybrid_days":3,"retention_days":4}`)
	t.Setenv("MILLKEEPER_HYBRID_DAYS", "5")

	zero := 0
	archive := "other.db"
	cfg, err := Load(path, Overrides{HybridDays: &zero, ArchiveDB: &archive})
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.HybridDays, "flags beat env")
	assert.Equal(t, 4, cfg.RetentionDays, "file beats defaults")
	assert.Equal(t, "other.db", cfg.ArchiveDB)

	cfg, err = Load(path, Overrides{})
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.HybridDays, "env beats file")
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	dir := isolate(t)
	remoteEnv(t)

	_, err := Load(filepath.Join(dir, "nope.json"), Overrides{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.json")
}

func TestLoad_MissingRemoteSettings(t *testing.T) {
	isolate(t)

	_, err := Load("", Overrides{})
	require.ErrorIs(t, err, common.ErrValidation)
	require.ErrorIs(t, err, errMissingRemote)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			APIKey: "k", DatabaseURL: "https://x.firebaseio.com",
			Collection: "molitura", ArchiveDB: "a.db",
			HybridDays: 7, RetentionDays: 7, EuroPerKg: 0.3,
			PollMs: 3000, MirrorIntervalMinutes: 5,
			SyncTimeoutSeconds: 120, RequestTimeoutSeconds: 30,
			Timezone: "Europe/Rome",
			Log:      LogConfig{Format: "text", Level: "info"},
		}
	}
	base := valid()
	require.NoError(t, base.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative hybrid days", func(c *Config) { c.HybridDays = -1 }},
		{"zero retention", func(c *Config) { c.RetentionDays = 0 }},
		{"mirror under a minute", func(c *Config) { c.MirrorIntervalMinutes = 0 }},
		{"fast poll", func(c *Config) { c.PollMs = 10 }},
		{"unknown timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }},
		{"unknown log level", func(c *Config) { c.Log.Level = "loud" }},
		{"negative price", func(c *Config) { c.EuroPerKg = -1 }},
		{"empty collection", func(c *Config) { c.Collection = "" }},
		{"no timeouts", func(c *Config) { c.SyncTimeoutSeconds = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			require.ErrorIs(t, c.Validate(), common.ErrValidation)
		})
	}
}

func TestUsage_ListsEnvVars(t *testing.T) {
	u := Usage()
	assert.Contains(t, u, "MILLKEEPER_API_KEY")
	assert.Contains(t, u, "MILLKEEPER_HTTP_ADDR")
}
