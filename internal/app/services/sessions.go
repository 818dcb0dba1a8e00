package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sampleapp/internal/app/auth"
	"github.com/dmitrijs2005/sampleapp/internal/app/models"
	"github.com/dmitrijs2005/sampleapp/internal/app/sessions"
	"github.com/dmitrijs2005/sampleapp/internal/common"
	"github.com/dmitrijs2005/sampleapp/internal/logging"
)

// SaltAuthenticator resolves a (user id, salt) pair to a user.
type SaltAuthenticator interface {
	AuthenticateWithSalt(ctx context.Context, userID, sessionSalt string) (*models.User, error)
}

// SessionService issues remember tokens and resolves them back to users.
// A token resolves only while its session is registered in the store and the
// salt it carries still matches the user's.
type SessionService struct {
	secretKey []byte
	validity  time.Duration
	store     sessions.Store
	users     SaltAuthenticator
	logger    logging.Logger
}

func NewSessionService(secretKey string, validity time.Duration, store sessions.Store, users SaltAuthenticator, l logging.Logger) *SessionService {
	return &SessionService{
		secretKey: []byte(secretKey),
		validity:  validity,
		store:     store,
		users:     users,
		logger:    l.With("module", "sessions"),
	}
}

func (s *SessionService) SignIn(ctx context.Context, user *models.User) (string, error) {
	token, sessionID, err := auth.GenerateRememberToken(user.ID, user.Salt, s.secretKey, s.validity)
	if err != nil {
		return "", fmt.Errorf("error generating token: %w", err)
	}

	if err := s.store.Save(ctx, sessionID, user.ID, s.validity); err != nil {
		return "", err
	}

	s.logger.Info(ctx, "signed in", "user_id", user.ID)
	return token, nil
}

// Resolve returns the user a remember token belongs to. Any token that does
// not resolve yields common.ErrorUnauthorized.
func (s *SessionService) Resolve(ctx context.Context, token string) (*models.User, error) {
	claims, err := auth.ParseRememberToken(token, s.secretKey)
	if err != nil {
		s.logger.Warn(ctx, "token rejected", "error", err)
		return nil, common.ErrorUnauthorized
	}

	owner, err := s.store.UserID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, common.ErrSessionRevoked) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}
	if owner != claims.UserID {
		s.logger.Warn(ctx, "session owner mismatch", "user_id", claims.UserID)
		return nil, common.ErrorUnauthorized
	}

	return s.users.AuthenticateWithSalt(ctx, claims.UserID, claims.Salt)
}

// SignOut revokes the session behind token. An unparseable token is an error,
// an already revoked one is not.
func (s *SessionService) SignOut(ctx context.Context, token string) error {
	claims, err := auth.ParseRememberToken(token, s.secretKey)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, claims.ID); err != nil {
		return err
	}
	s.logger.Info(ctx, "signed out", "user_id", claims.UserID)
	return nil
}

// SignOutEverywhere revokes every session of the user.
func (s *SessionService) SignOutEverywhere(ctx context.Context, userID string) error {
	if err := s.store.DeleteForUser(ctx, userID); err != nil {
		return err
	}
	s.logger.Info(ctx, "signed out everywhere", "user_id", userID)
	return nil
}
