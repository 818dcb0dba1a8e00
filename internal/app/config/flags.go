package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/sampleapp/internal/flagx"
)

// parseFlags overlays Config with command-line flags.
//
//	-d string   PostgreSQL DSN
//	-s string   remember token HMAC secret
//	-r string   Redis address
//	-p string   Redis password
//	-m string   password scheme for new hashes (argon2id|sha512)
//	-v int      remember token validity, days
//	-l string   log level
//
// RememberTokenValidity is only replaced when -v is given, so a sub-day value
// from the JSON file survives.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-s", "-r", "-p", "-m", "-v", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")
	fs.StringVar(&config.RedisPassword, "p", config.RedisPassword, "redis password")
	fs.StringVar(&config.PasswordScheme, "m", config.PasswordScheme, "password scheme (argon2id|sha512)")
	days := fs.Int("v", int(config.RememberTokenValidity/(24*time.Hour)), "remember token validity (in days)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name != "v" {
			return
		}
		if *days < 1 {
			panic(fmt.Errorf("remember token validity must be at least 1 day, got %d", *days))
		}
		config.RememberTokenValidity = time.Duration(*days) * 24 * time.Hour
	})
}
