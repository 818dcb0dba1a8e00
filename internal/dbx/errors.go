package dbx

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sampleapp/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes the repositories care about.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// Classify maps a driver error onto the common sentinels.
//
// sql.ErrNoRows becomes common.ErrorNotFound. Everything else is wrapped so it
// matches common.ErrorPersistence; unique violations also match
// common.ErrorAlreadyExists and foreign key violations common.ErrorNotFound.
// A nil error stays nil.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrorNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%w: %w: %w", common.ErrorPersistence, common.ErrorAlreadyExists, err)
		case codeForeignKeyViolation:
			return fmt.Errorf("%w: %w: %w", common.ErrorPersistence, common.ErrorNotFound, err)
		}
	}

	return fmt.Errorf("%w: %w", common.ErrorPersistence, err)
}
