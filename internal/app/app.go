// Package app wires configuration, storage and services together and runs
// one admin command per invocation.
package app

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"iter"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/sampleapp/internal/app/config"
	"github.com/dmitrijs2005/sampleapp/internal/app/credentials"
	"github.com/dmitrijs2005/sampleapp/internal/app/models"
	"github.com/dmitrijs2005/sampleapp/internal/app/repositories/repomanager"
	"github.com/dmitrijs2005/sampleapp/internal/app/services"
	"github.com/dmitrijs2005/sampleapp/internal/app/sessions"
	"github.com/dmitrijs2005/sampleapp/internal/logging"
	"github.com/redis/go-redis/v9"
)

type credentialService interface {
	Register(ctx context.Context, name, email, password, confirmation string) (*models.User, error)
	Update(ctx context.Context, user *models.User, name, email, password, confirmation string) error
	Authenticate(ctx context.Context, email, submitted string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type graphService interface {
	IsFollowing(ctx context.Context, user, candidate *models.User) (*models.Relationship, error)
	Follow(ctx context.Context, user, target *models.User) (*models.Relationship, error)
	Unfollow(ctx context.Context, user, target *models.User) error
	Following(ctx context.Context, user *models.User) iter.Seq2[*models.User, error]
	Followers(ctx context.Context, user *models.User) iter.Seq2[*models.User, error]
	Counts(ctx context.Context, user *models.User) (int64, int64, error)
	DeleteUser(ctx context.Context, user *models.User) error
}

type sessionService interface {
	SignIn(ctx context.Context, user *models.User) (string, error)
	Resolve(ctx context.Context, token string) (*models.User, error)
	SignOut(ctx context.Context, token string) error
	SignOutEverywhere(ctx context.Context, userID string) error
}

type App struct {
	config *config.Config
	logger logging.Logger

	db    *sql.DB
	redis *redis.Client

	migrate     func(ctx context.Context) error
	credentials credentialService
	graph       graphService
	sessions    sessionService

	out io.Writer
	in  *bufio.Reader
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stderr, c.LogLevel)

	hasher, err := credentials.NewHasher(c.PasswordScheme)
	if err != nil {
		return nil, err
	}

	db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rc, err := sessions.NewClient(ctx, c.RedisAddr, c.RedisPassword)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("session store init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	cs := services.NewCredentialService(db, rm, hasher, logger)
	gs := services.NewGraphService(db, rm, logger)
	ss := services.NewSessionService(c.SecretKey, c.RememberTokenValidity, sessions.NewRedisStore(rc), cs, logger)

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		redis:       rc,
		migrate:     func(ctx context.Context) error { return rm.RunMigrations(ctx, db) },
		credentials: cs,
		graph:       gs,
		sessions:    ss,
		out:         os.Stdout,
		in:          bufio.NewReader(os.Stdin),
	}, nil
}

// Close releases the database pool and the Redis client.
func (a *App) Close() error {
	var firstErr error
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			firstErr = err
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (a *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run executes one command. SIGINT and SIGTERM cancel it.
func (a *App) Run(ctx context.Context, name string, args []string) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	a.initSignalHandler(cancelFunc)

	a.logger.Debug(ctx, "running command", "command", name)
	return a.dispatch(ctx, name, args)
}
