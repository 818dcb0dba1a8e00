// Package services holds the business logic: credentials, the follow graph
// and remember sessions.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sampleapp/internal/app/credentials"
	"github.com/dmitrijs2005/sampleapp/internal/app/models"
	"github.com/dmitrijs2005/sampleapp/internal/app/repositories/repomanager"
	"github.com/dmitrijs2005/sampleapp/internal/app/validation"
	"github.com/dmitrijs2005/sampleapp/internal/common"
	"github.com/dmitrijs2005/sampleapp/internal/logging"
	"github.com/google/uuid"
)

// CredentialService owns salts and password hashes and authenticates users
// by password or by a previously issued salt.
type CredentialService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      *credentials.Hasher
	logger      logging.Logger

	// checked against when an email is unknown, so a miss costs one hash too
	dummySalt string
	dummyHash string
}

func NewCredentialService(db *sql.DB, m repomanager.RepositoryManager, h *credentials.Hasher, l logging.Logger) *CredentialService {
	dummySalt := credentials.SecureHash(string(common.GenerateRandByteArray(32)))
	return &CredentialService{
		db:          db,
		repomanager: m,
		hasher:      h,
		logger:      l.With("module", "credentials"),
		dummySalt:   dummySalt,
		dummyHash:   h.Encrypt(dummySalt, ""),
	}
}

// SetPassword checks the raw password and its confirmation, gives the user a
// salt if it has none yet and stores the hash of the new password. When any
// check fails the user is left exactly as it was.
func (s *CredentialService) SetPassword(user *models.User, password, confirmation string) error {
	if err := validation.Password(password, confirmation).Err(); err != nil {
		return err
	}

	salt := user.Salt
	if salt == "" {
		if !user.IsNew() {
			return fmt.Errorf("stored user %s has no salt: %w", user.ID, common.ErrorInternal)
		}
		var err error
		if salt, err = s.hasher.MakeSalt(password); err != nil {
			return err
		}
	}

	user.Salt = salt
	user.EncryptedPassword = s.hasher.Encrypt(salt, password)
	return nil
}

// HasPassword reports whether submitted is the user's current password.
func (s *CredentialService) HasPassword(user *models.User, submitted string) bool {
	return credentials.Verify(user.Salt, submitted, user.EncryptedPassword)
}

// Register validates the input, hashes the password and stores a new user.
// A taken email fails with an error matching common.ErrorAlreadyExists.
func (s *CredentialService) Register(ctx context.Context, name, email, password, confirmation string) (*models.User, error) {
	if err := validation.User(name, email, password, confirmation).Err(); err != nil {
		return nil, err
	}

	user := &models.User{Name: name, Email: email}
	if err := s.SetPassword(user, password, confirmation); err != nil {
		return nil, err
	}

	u, err := s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", u.ID, "scheme", s.hasher.Scheme())
	return u, nil
}

// Update changes name, email and password of a stored user. The salt is kept.
// On any failure user is not modified.
func (s *CredentialService) Update(ctx context.Context, user *models.User, name, email, password, confirmation string) error {
	if err := validation.User(name, email, password, confirmation).Err(); err != nil {
		return err
	}

	next := *user
	next.Name = name
	next.Email = email
	if err := s.SetPassword(&next, password, confirmation); err != nil {
		return err
	}

	if err := s.repomanager.Users(s.db).Update(ctx, &next); err != nil {
		return fmt.Errorf("error updating user: %w", err)
	}

	*user = next
	s.logger.Info(ctx, "user updated", "user_id", user.ID)
	return nil
}

// Authenticate returns the user with this email if submitted is its password.
// An unknown email and a wrong password both yield common.ErrorUnauthorized.
func (s *CredentialService) Authenticate(ctx context.Context, email, submitted string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			credentials.Verify(s.dummySalt, submitted, s.dummyHash)
			s.logger.Warn(ctx, "authentication rejected")
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error authenticating: %w", err)
	}

	if !s.HasPassword(user, submitted) {
		s.logger.Warn(ctx, "authentication rejected")
		return nil, common.ErrorUnauthorized
	}

	return user, nil
}

// AuthenticateWithSalt returns the user with this id if its stored salt equals
// sessionSalt. Unknown ids, malformed ids and mismatching salts all yield
// common.ErrorUnauthorized.
func (s *CredentialService) AuthenticateWithSalt(ctx context.Context, userID, sessionSalt string) (*models.User, error) {
	if _, err := uuid.Parse(userID); err != nil || sessionSalt == "" {
		return nil, common.ErrorUnauthorized
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error authenticating: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(user.Salt), []byte(sessionSalt)) != 1 {
		s.logger.Warn(ctx, "session salt mismatch", "user_id", userID)
		return nil, common.ErrorUnauthorized
	}

	return user, nil
}

func (s *CredentialService) Find(ctx context.Context, userID string) (*models.User, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("user %q: %w", userID, common.ErrorNotFound)
	}
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error finding user: %w", err)
	}
	return user, nil
}

func (s *CredentialService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("error finding user: %w", err)
	}
	return user, nil
}
