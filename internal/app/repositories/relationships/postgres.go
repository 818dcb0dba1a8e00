// Package relationships stores directed follow edges in PostgreSQL and
// answers the following / followers queries by joining back to users.
package relationships

import (
	"context"
	"fmt"
	"iter"

	"github.com/dmitrijs2005/sampleapp/internal/app/models"
	"github.com/dmitrijs2005/sampleapp/internal/common"
	"github.com/dmitrijs2005/sampleapp/internal/dbx"
	"github.com/google/uuid"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var newID = uuid.NewString

// Create inserts the edge follower -> followed. A missing endpoint fails the
// foreign key and a repeated pair fails the unique index; both come back
// matching common.ErrorPersistence.
func (r *PostgresRepository) Create(ctx context.Context, followerID, followedID string) (*models.Relationship, error) {
	query :=
		`INSERT INTO relationships (id, follower_id, followed_id)
		 VALUES ($1, $2, $3)
		 RETURNING created_at
		 `

	rel := &models.Relationship{ID: newID(), FollowerID: followerID, FollowedID: followedID}
	if err := r.db.QueryRowContext(ctx, query, rel.ID, followerID, followedID).Scan(&rel.CreatedAt); err != nil {
		return nil, dbx.Classify(err)
	}

	return rel, nil
}

func (r *PostgresRepository) Find(ctx context.Context, followerID, followedID string) (*models.Relationship, error) {
	query :=
		`SELECT id, follower_id, followed_id, created_at FROM relationships
		 WHERE follower_id = $1 AND followed_id = $2
		 `

	rel := &models.Relationship{}
	err := r.db.QueryRowContext(ctx, query, followerID, followedID).
		Scan(&rel.ID, &rel.FollowerID, &rel.FollowedID, &rel.CreatedAt)
	if err != nil {
		return nil, dbx.Classify(err)
	}

	return rel, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM relationships WHERE id = $1`, id)
	if err != nil {
		return dbx.Classify(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return dbx.Classify(err)
	}
	if n == 0 {
		return fmt.Errorf("relationship %s: %w", id, common.ErrorNotFound)
	}

	return nil
}

// DeleteForUser removes every edge touching userID in either direction and
// reports how many went.
func (r *PostgresRepository) DeleteForUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM relationships WHERE follower_id = $1 OR followed_id = $1`, userID)
	if err != nil {
		return 0, dbx.Classify(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, dbx.Classify(err)
	}

	return n, nil
}

// Following yields the users userID follows, oldest edge first. Rows are read
// as the caller iterates; stopping early closes them.
func (r *PostgresRepository) Following(ctx context.Context, userID string) iter.Seq2[*models.User, error] {
	query :=
		`SELECT u.id, u.name, u.email, u.salt, u.encrypted_password, u.created_at, u.updated_at
		 FROM relationships r
		 JOIN users u ON u.id = r.followed_id
		 WHERE r.follower_id = $1
		 ORDER BY r.created_at, u.id
		 `
	return r.users(ctx, query, userID)
}

// Followers yields the users following userID, oldest edge first.
func (r *PostgresRepository) Followers(ctx context.Context, userID string) iter.Seq2[*models.User, error] {
	query :=
		`SELECT u.id, u.name, u.email, u.salt, u.encrypted_password, u.created_at, u.updated_at
		 FROM relationships r
		 JOIN users u ON u.id = r.follower_id
		 WHERE r.followed_id = $1
		 ORDER BY r.created_at, u.id
		 `
	return r.users(ctx, query, userID)
}

func (r *PostgresRepository) Counts(ctx context.Context, userID string) (int64, int64, error) {
	query :=
		`SELECT
		   COUNT(*) FILTER (WHERE follower_id = $1),
		   COUNT(*) FILTER (WHERE followed_id = $1)
		 FROM relationships
		 WHERE follower_id = $1 OR followed_id = $1
		 `

	var following, followers int64
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&following, &followers); err != nil {
		return 0, 0, dbx.Classify(err)
	}

	return following, followers, nil
}

func (r *PostgresRepository) users(ctx context.Context, query string, userID string) iter.Seq2[*models.User, error] {
	return func(yield func(*models.User, error) bool) {
		rows, err := r.db.QueryContext(ctx, query, userID)
		if err != nil {
			yield(nil, dbx.Classify(err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			u := &models.User{}
			if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Salt, &u.EncryptedPassword, &u.CreatedAt, &u.UpdatedAt); err != nil {
				yield(nil, dbx.Classify(err))
				return
			}
			if !yield(u, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(nil, dbx.Classify(err))
		}
	}
}
