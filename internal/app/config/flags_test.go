package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		name        string
		args        []string
		expected    *Config
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"cmd",
				"-d", "db", "-s", "secret", "-r", "redis:6380", "-p", "rpass",
				"-m", "sha512", "-v", "7", "-l", "debug", "follow", "-id", "u2",
			},
			expected: &Config{
				DatabaseDSN:           "db",
				SecretKey:             "secret",
				RedisAddr:             "redis:6380",
				RedisPassword:         "rpass",
				PasswordScheme:        "sha512",
				RememberTokenValidity: 7 * 24 * time.Hour,
				LogLevel:              "debug",
			},
		},
		{
			name:        "zero validity",
			args:        []string{"cmd", "-v", "0"},
			expectPanic: true,
		},
		{
			name:        "non-numeric validity",
			args:        []string{"cmd", "-v", "forever"},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			config := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config) })
				return
			}

			require.NotPanics(t, func() { parseFlags(config) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}

func TestParseFlags_KeepsExistingValues(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"cmd", "-l", "warn"}

	var c Config
	c.LoadDefaults()
	parseFlags(&c)

	assert.Equal(t, "warn", c.LogLevel)
	assert.Equal(t, "argon2id", c.PasswordScheme)
	assert.Equal(t, 30*24*time.Hour, c.RememberTokenValidity)
}

func TestParseFlags_ValidityUntouchedWithoutFlag(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"cmd", "-l", "warn", "whoami"}

	c := Config{RememberTokenValidity: 36 * time.Hour}
	parseFlags(&c)

	assert.Equal(t, 36*time.Hour, c.RememberTokenValidity)
}
