// Package users stores User records in PostgreSQL.
package users

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/sampleapp/internal/app/models"
	"github.com/dmitrijs2005/sampleapp/internal/common"
	"github.com/dmitrijs2005/sampleapp/internal/dbx"
	"github.com/google/uuid"
)

const userColumns = `id, name, email, salt, encrypted_password, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// newID is swapped in tests to get stable ids.
var newID = uuid.NewString

// Create assigns the user an id and inserts it. A taken email yields an error
// matching common.ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (id, name, email, salt, encrypted_password)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at
		 `

	id := newID()
	err := r.db.QueryRowContext(ctx, query,
		id, user.Name, user.Email, user.Salt, user.EncryptedPassword).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, dbx.Classify(err)
	}

	user.ID = id
	return user, nil
}

// Update writes name, email and encrypted password. Salt is immutable after
// creation and is never written here.
func (r *PostgresRepository) Update(ctx context.Context, user *models.User) error {
	query :=
		`UPDATE users SET name = $2, email = $3, encrypted_password = $4, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Name, user.Email, user.EncryptedPassword).Scan(&user.UpdatedAt)
	if err != nil {
		return dbx.Classify(err)
	}

	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.getOne(ctx, query, email)
}

// Delete removes the user row. Relationship rows go with it through the
// foreign keys' ON DELETE CASCADE.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return dbx.Classify(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return dbx.Classify(err)
	}
	if n == 0 {
		return fmt.Errorf("user %s: %w", id, common.ErrorNotFound)
	}

	return nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg string) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Name, &user.Email, &user.Salt, &user.EncryptedPassword, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, dbx.Classify(err)
	}
	return user, nil
}
