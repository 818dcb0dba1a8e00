package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/sampleapp/internal/app/credentials"
	"github.com/dmitrijs2005/sampleapp/internal/app/models"
	"github.com/dmitrijs2005/sampleapp/internal/common"
	"github.com/dmitrijs2005/sampleapp/internal/logging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCredentialService(t *testing.T, scheme credentials.Scheme) (*CredentialService, *fakeStore) {
	t.Helper()
	db, _ := newSQLMockDB(t)
	h, err := credentials.NewHasher(string(scheme))
	require.NoError(t, err)
	store := newFakeStore()
	return NewCredentialService(db, &fakeRepoManager{s: store}, h, logging.Discard()), store
}

func register(t *testing.T, s *CredentialService, name, email, password string) *models.User {
	t.Helper()
	u, err := s.Register(context.Background(), name, email, password, password)
	require.NoError(t, err)
	return u
}

func TestSetPassword_NewUser(t *testing.T) {
	s, _ := newCredentialService(t, credentials.SchemeSHA512)
	u := &models.User{Name: "Example", Email: "user@example.com"}

	require.NoError(t, s.SetPassword(u, "foobar", "foobar"))

	assert.Len(t, u.Salt, 128)
	assert.Equal(t, credentials.SecureHash(u.Salt+"--foobar"), u.EncryptedPassword)
	assert.NotContains(t, u.EncryptedPassword, "foobar")
}

func TestSetPassword_KeepsExistingSalt(t *testing.T) {
	s, _ := newCredentialService(t, credentials.SchemeSHA512)
	u := &models.User{ID: uuid.NewString(), Salt: "fixed-salt"}

	require.NoError(t, s.SetPassword(u, "secret1", "secret1"))
	first := u.EncryptedPassword
	require.NoError(t, s.SetPassword(u, "secret2", "secret2"))

	assert.Equal(t, "fixed-salt", u.Salt)
	assert.NotEqual(t, first, u.EncryptedPassword)
	assert.True(t, s.HasPassword(u, "secret2"))
	assert.False(t, s.HasPassword(u, "secret1"))
}

func TestSetPassword_StoredUserWithoutSalt(t *testing.T) {
	s, _ := newCredentialService(t, credentials.SchemeSHA512)
	u := &models.User{ID: uuid.NewString()}

	err := s.SetPassword(u, "foobar", "foobar")
	assert.ErrorIs(t, err, common.ErrorInternal)
	assert.Empty(t, u.Salt)
	assert.Empty(t, u.EncryptedPassword)
}

func TestSetPassword_InvalidLeavesUserUntouched(t *testing.T) {
	s, _ := newCredentialService(t, credentials.SchemeSHA512)

	cases := []struct{ name, p, c string }{
		{"blank", "", ""},
		{"too short", "12345", "12345"},
		{"too long", strings.Repeat("a", 41), strings.Repeat("a", 41)},
		{"mismatch", "foobar", "foobaz"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u := &models.User{Salt: "s", EncryptedPassword: "old"}
			err := s.SetPassword(u, tc.p, tc.c)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrorValidation)
			assert.Equal(t, "s", u.Salt)
			assert.Equal(t, "old", u.EncryptedPassword)
		})
	}
}

func TestSetPassword_LengthBoundaries(t *testing.T) {
	s, _ := newCredentialService(t, credentials.SchemeSHA512)
	for _, p := range []string{strings.Repeat("a", 6), strings.Repeat("a", 40)} {
		u := &models.User{}
		assert.NoError(t, s.SetPassword(u, p, p))
	}
}

func TestHasPassword(t *testing.T) {
	s, _ := newCredentialService(t, credentials.SchemeSHA512)
	u := &models.User{}
	require.NoError(t, s.SetPassword(u, "foobar", "foobar"))

	assert.True(t, s.HasPassword(u, "foobar"))
	assert.False(t, s.HasPassword(u, "invalid"))
	assert.False(t, s.HasPassword(u, ""))
}

func TestRegister_Success(t *testing.T) {
	s, store := newCredentialService(t, credentials.SchemeArgon2ID)

	u := register(t, s, "Example User", "user@example.com", "foobar")

	require.NotEmpty(t, u.ID)
	stored := store.users[u.ID]
	require.NotNil(t, stored)
	assert.Equal(t, credentials.SchemeArgon2ID, credentials.SchemeOf(stored.EncryptedPassword))
	assert.True(t, s.HasPassword(stored, "foobar"))
}

func TestRegister_Validation(t *testing.T) {
	s, store := newCredentialService(t, credentials.SchemeSHA512)

	_, err := s.Register(context.Background(), "", "not-an-email", "foobar", "foobar")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrorValidation)
	assert.Contains(t, err.Error(), "name")
	assert.Contains(t, err.Error(), "email")
	assert.Empty(t, store.users)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	s, store := newCredentialService(t, credentials.SchemeSHA512)
	register(t, s, "First", "user@example.com", "foobar")

	_, err := s.Register(context.Background(), "Second", "user@example.com", "foobar", "foobar")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
	assert.ErrorIs(t, err, common.ErrorPersistence)
	assert.Len(t, store.users, 1)
}

func TestUpdate_PreservesSalt(t *testing.T) {
	s, store := newCredentialService(t, credentials.SchemeSHA512)
	u := register(t, s, "Example", "user@example.com", "foobar")
	salt := u.Salt

	require.NoError(t, s.Update(context.Background(), u, "Renamed", "new@example.com", "barbaz", "barbaz"))

	assert.Equal(t, salt, u.Salt)
	assert.Equal(t, "Renamed", u.Name)
	stored := store.users[u.ID]
	assert.Equal(t, salt, stored.Salt)
	assert.Equal(t, "new@example.com", stored.Email)
	assert.True(t, s.HasPassword(stored, "barbaz"))
	assert.False(t, s.HasPassword(stored, "foobar"))
}

func TestUpdate_FailureLeavesUserUntouched(t *testing.T) {
	s, store := newCredentialService(t, credentials.SchemeSHA512)
	register(t, s, "Other", "taken@example.com", "foobar")
	u := register(t, s, "Example", "user@example.com", "foobar")
	before := *u

	err := s.Update(context.Background(), u, "Example", "user@example.com", "short", "short")
	assert.ErrorIs(t, err, common.ErrorValidation)
	assert.Equal(t, before, *u)

	err = s.Update(context.Background(), u, "Example", "taken@example.com", "barbaz", "barbaz")
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
	assert.Equal(t, before, *u)
	assert.True(t, s.HasPassword(store.users[u.ID], "foobar"))
}

func TestUpdate_RehashesLegacyPassword(t *testing.T) {
	legacy, store := newCredentialService(t, credentials.SchemeSHA512)
	u := register(t, legacy, "Example", "user@example.com", "foobar")
	require.Equal(t, credentials.SchemeSHA512, credentials.SchemeOf(u.EncryptedPassword))

	h, err := credentials.NewHasher(string(credentials.SchemeArgon2ID))
	require.NoError(t, err)
	db, _ := newSQLMockDB(t)
	s := NewCredentialService(db, &fakeRepoManager{s: store}, h, logging.Discard())

	got, err := s.Authenticate(context.Background(), "user@example.com", "foobar")
	require.NoError(t, err)

	require.NoError(t, s.Update(context.Background(), got, got.Name, got.Email, "foobar", "foobar"))
	assert.Equal(t, credentials.SchemeArgon2ID, credentials.SchemeOf(store.users[u.ID].EncryptedPassword))

	_, err = s.Authenticate(context.Background(), "user@example.com", "foobar")
	assert.NoError(t, err)
}

func TestAuthenticate(t *testing.T) {
	s, _ := newCredentialService(t, credentials.SchemeSHA512)
	u := register(t, s, "Example", "user@example.com", "foobar")
	ctx := context.Background()

	got, err := s.Authenticate(ctx, "user@example.com", "foobar")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.Authenticate(ctx, "user@example.com", "wrong-password")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = s.Authenticate(ctx, "nobody@example.com", "foobar")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	assert.NotErrorIs(t, err, common.ErrorNotFound)
}

func TestAuthenticate_StoreFailure(t *testing.T) {
	s, store := newCredentialService(t, credentials.SchemeSHA512)
	store.getErr = dbErr(errors.New("connection refused"))

	_, err := s.Authenticate(context.Background(), "user@example.com", "foobar")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrorPersistence)
	assert.NotErrorIs(t, err, common.ErrorUnauthorized)
}

func TestAuthenticateWithSalt(t *testing.T) {
	s, _ := newCredentialService(t, credentials.SchemeSHA512)
	u := register(t, s, "Example", "user@example.com", "foobar")
	ctx := context.Background()

	got, err := s.AuthenticateWithSalt(ctx, u.ID, u.Salt)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)

	cases := []struct{ name, id, salt string }{
		{"wrong salt", u.ID, "not-the-salt"},
		{"empty salt", u.ID, ""},
		{"unknown id", uuid.NewString(), u.Salt},
		{"malformed id", "42", u.Salt},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.AuthenticateWithSalt(ctx, tc.id, tc.salt)
			assert.ErrorIs(t, err, common.ErrorUnauthorized)
		})
	}
}

func TestFind(t *testing.T) {
	s, _ := newCredentialService(t, credentials.SchemeSHA512)
	u := register(t, s, "Example", "user@example.com", "foobar")
	ctx := context.Background()

	got, err := s.Find(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)

	got, err = s.FindByEmail(ctx, "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.Find(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = s.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestAuthenticate_ImportedSHA256Hash(t *testing.T) {
	s, store := newCredentialService(t, credentials.SchemeArgon2ID)
	u := store.put(models.User{
		Name:              "Imported",
		Email:             "imported@example.com",
		Salt:              "somesalt",
		EncryptedPassword: "7292e40d21318c96eddc57c69135cdee88f7ce09bc80f82bbdeb5ac7ecdd37bf",
	})
	ctx := context.Background()

	got, err := s.Authenticate(ctx, u.Email, "foobar")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	require.NoError(t, s.Update(ctx, got, got.Name, got.Email, "foobar", "foobar"))
	stored := store.users[u.ID]
	assert.Equal(t, "somesalt", stored.Salt)
	assert.Equal(t, credentials.SchemeArgon2ID, credentials.SchemeOf(stored.EncryptedPassword))

	_, err = s.Authenticate(ctx, u.Email, "foobar")
	assert.NoError(t, err)
}
