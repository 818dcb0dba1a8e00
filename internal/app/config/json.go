package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/sampleapp/internal/flagx"
	"github.com/dmitrijs2005/sampleapp/internal/timex"
)

// JsonConfig is the on-disk shape of the optional config file. Durations
// accept "720h" style strings or integer nanoseconds.
type JsonConfig struct {
	DatabaseDSN           string         `json:"database_dsn"`
	SecretKey             string         `json:"secret_key"`
	RedisAddr             string         `json:"redis_addr"`
	RedisPassword         string         `json:"redis_password"`
	PasswordScheme        string         `json:"password_scheme"`
	RememberTokenValidity timex.Duration `json:"remember_token_validity"`
	LogLevel              string         `json:"log_level"`
}

// parseJson overlays Config with the file named by -c/-config. Keys missing
// from the file keep their current value. An unreadable or malformed file
// panics.
func parseJson(config *Config) {
	path := flagx.JSONConfigPath(os.Args[1:])
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)
	setString(&config.PasswordScheme, c.PasswordScheme)
	setString(&config.LogLevel, c.LogLevel)
	if c.RememberTokenValidity.Duration > 0 {
		config.RememberTokenValidity = c.RememberTokenValidity.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
