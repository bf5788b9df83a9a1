package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "empty addr", mutate: func(c *Config) { c.Addr = "" }},
		{name: "short secret", mutate: func(c *Config) { c.JWTSecret = "short" }},
		{name: "unknown log level", mutate: func(c *Config) { c.LogLevel = "loud" }},
		{name: "unknown log format", mutate: func(c *Config) { c.LogFormat = "xml" }},
		{name: "zero send buffer", mutate: func(c *Config) { c.SendBuffer = 0 }},
		{name: "negative rate limit", mutate: func(c *Config) { c.RateLimitPerMinute = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestLoadWritesDefaultFile(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, resolved, err := Load(nil, path)
	req.NoError(err)
	req.Equal(path, resolved)
	req.Equal(Default().Addr, cfg.Addr)

	_, err = os.Stat(path)
	req.NoError(err)

	// Reloading the written file yields the same values
	again, _, err := Load(nil, path)
	req.NoError(err)
	req.Equal(cfg.SweepInterval, again.SweepInterval)
	req.Equal(cfg.JWTTTL, again.JWTTTL)
}

func TestLoadPrecedence(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	req.NoError(os.WriteFile(path, []byte("addr: \":9000\"\nsweep_interval: 10s\nmax_body_runes: 200\n"), 0o600))

	t.Setenv("LOBBYCHAT_ADDR", ":9100")
	t.Setenv("LOBBYCHAT_CENSORED_WORDS", "badger,snake")

	cfg, _, err := Load(nil, path)
	req.NoError(err)

	// env beats file, file beats defaults
	req.Equal(":9100", cfg.Addr)
	req.Equal(10*time.Second, cfg.SweepInterval)
	req.Equal(200, cfg.MaxBodyRunes)
	req.Equal([]string{"badger", "snake"}, cfg.CensoredWords)
	req.Equal(Default().DatabasePath, cfg.DatabasePath)
}

func TestUpdateFrom(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{Addr: ":7000", LogFormat: "json"})

	require.Equal(t, ":7000", cfg.Addr)
	require.Equal(t, "json", cfg.LogFormat)
	require.Equal(t, Default().DatabasePath, cfg.DatabasePath)
}
