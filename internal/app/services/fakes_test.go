package services

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/sampleapp/internal/app/models"
	"github.com/dmitrijs2005/sampleapp/internal/app/repositories/relationships"
	"github.com/dmitrijs2005/sampleapp/internal/app/repositories/users"
	"github.com/dmitrijs2005/sampleapp/internal/common"
	"github.com/dmitrijs2005/sampleapp/internal/dbx"
	"github.com/google/uuid"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func dbErr(sentinel error) error {
	return fmt.Errorf("%w: %w", common.ErrorPersistence, sentinel)
}

// fakeStore keeps users and edges in memory and enforces the same
// constraints as the schema: unique email, unique edge, existing endpoints.
type fakeStore struct {
	users map[string]*models.User
	rels  []*models.Relationship

	// forced failures
	createErr error
	getErr    error
	deleteErr error
	relErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[string]*models.User{}}
}

func (s *fakeStore) put(u models.User) *models.User {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	cp := u
	s.users[u.ID] = &cp
	out := cp
	return &out
}

type fakeUsersRepo struct{ s *fakeStore }

func (r *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if r.s.createErr != nil {
		return nil, r.s.createErr
	}
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return nil, dbErr(common.ErrorAlreadyExists)
		}
	}
	cp := *u
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	return r.s.put(cp), nil
}

func (r *fakeUsersRepo) Update(ctx context.Context, u *models.User) error {
	if r.s.createErr != nil {
		return r.s.createErr
	}
	stored, ok := r.s.users[u.ID]
	if !ok {
		return common.ErrorNotFound
	}
	for id, existing := range r.s.users {
		if id != u.ID && existing.Email == u.Email {
			return dbErr(common.ErrorAlreadyExists)
		}
	}
	stored.Name = u.Name
	stored.Email = u.Email
	stored.EncryptedPassword = u.EncryptedPassword
	stored.UpdatedAt = time.Now()
	u.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if r.s.getErr != nil {
		return nil, r.s.getErr
	}
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if r.s.getErr != nil {
		return nil, r.s.getErr
	}
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeUsersRepo) Delete(ctx context.Context, id string) error {
	if r.s.deleteErr != nil {
		return r.s.deleteErr
	}
	if _, ok := r.s.users[id]; !ok {
		return fmt.Errorf("user %s: %w", id, common.ErrorNotFound)
	}
	delete(r.s.users, id)
	return nil
}

type fakeRelsRepo struct{ s *fakeStore }

func (r *fakeRelsRepo) Create(ctx context.Context, followerID, followedID string) (*models.Relationship, error) {
	if r.s.relErr != nil {
		return nil, r.s.relErr
	}
	if r.s.users[followerID] == nil || r.s.users[followedID] == nil {
		return nil, dbErr(common.ErrorNotFound)
	}
	for _, rel := range r.s.rels {
		if rel.FollowerID == followerID && rel.FollowedID == followedID {
			return nil, dbErr(common.ErrorAlreadyExists)
		}
	}
	rel := &models.Relationship{ID: uuid.NewString(), FollowerID: followerID, FollowedID: followedID, CreatedAt: time.Now()}
	r.s.rels = append(r.s.rels, rel)
	return rel, nil
}

func (r *fakeRelsRepo) Find(ctx context.Context, followerID, followedID string) (*models.Relationship, error) {
	if r.s.relErr != nil {
		return nil, r.s.relErr
	}
	for _, rel := range r.s.rels {
		if rel.FollowerID == followerID && rel.FollowedID == followedID {
			cp := *rel
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeRelsRepo) Delete(ctx context.Context, id string) error {
	for i, rel := range r.s.rels {
		if rel.ID == id {
			r.s.rels = append(r.s.rels[:i], r.s.rels[i+1:]...)
			return nil
		}
	}
	return common.ErrorNotFound
}

func (r *fakeRelsRepo) DeleteForUser(ctx context.Context, userID string) (int64, error) {
	if r.s.relErr != nil {
		return 0, r.s.relErr
	}
	kept := r.s.rels[:0]
	var n int64
	for _, rel := range r.s.rels {
		if rel.FollowerID == userID || rel.FollowedID == userID {
			n++
			continue
		}
		kept = append(kept, rel)
	}
	r.s.rels = kept
	return n, nil
}

func (r *fakeRelsRepo) list(match func(*models.Relationship) (string, bool)) iter.Seq2[*models.User, error] {
	return func(yield func(*models.User, error) bool) {
		if r.s.relErr != nil {
			yield(nil, r.s.relErr)
			return
		}
		for _, rel := range r.s.rels {
			id, ok := match(rel)
			if !ok {
				continue
			}
			cp := *r.s.users[id]
			if !yield(&cp, nil) {
				return
			}
		}
	}
}

func (r *fakeRelsRepo) Following(ctx context.Context, userID string) iter.Seq2[*models.User, error] {
	return r.list(func(rel *models.Relationship) (string, bool) {
		return rel.FollowedID, rel.FollowerID == userID
	})
}

func (r *fakeRelsRepo) Followers(ctx context.Context, userID string) iter.Seq2[*models.User, error] {
	return r.list(func(rel *models.Relationship) (string, bool) {
		return rel.FollowerID, rel.FollowedID == userID
	})
}

func (r *fakeRelsRepo) Counts(ctx context.Context, userID string) (int64, int64, error) {
	if r.s.relErr != nil {
		return 0, 0, r.s.relErr
	}
	var following, followers int64
	for _, rel := range r.s.rels {
		if rel.FollowerID == userID {
			following++
		}
		if rel.FollowedID == userID {
			followers++
		}
	}
	return following, followers, nil
}

type fakeRepoManager struct {
	s *fakeStore
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository           { return &fakeUsersRepo{s: m.s} }
func (m *fakeRepoManager) Relationships(db dbx.DBTX) relationships.Repository {
	return &fakeRelsRepo{s: m.s}
}
