package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"

	"github.com/dmitrijs2005/sampleapp/internal/app/models"
	"github.com/dmitrijs2005/sampleapp/internal/app/repositories/repomanager"
	"github.com/dmitrijs2005/sampleapp/internal/common"
	"github.com/dmitrijs2005/sampleapp/internal/dbx"
	"github.com/dmitrijs2005/sampleapp/internal/logging"
)

// GraphService maintains the directed follow graph: an edge follower ->
// followed exists while the follower follows the followed user.
type GraphService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewGraphService(db *sql.DB, m repomanager.RepositoryManager, l logging.Logger) *GraphService {
	return &GraphService{db: db, repomanager: m, logger: l.With("module", "graph")}
}

// IsFollowing returns the edge user -> candidate or an error matching
// common.ErrorNotFound.
func (s *GraphService) IsFollowing(ctx context.Context, user, candidate *models.User) (*models.Relationship, error) {
	return s.repomanager.Relationships(s.db).Find(ctx, user.ID, candidate.ID)
}

// Follow creates the edge user -> target. A repeated follow fails with an
// error matching common.ErrorAlreadyExists.
func (s *GraphService) Follow(ctx context.Context, user, target *models.User) (*models.Relationship, error) {
	rel, err := s.repomanager.Relationships(s.db).Create(ctx, user.ID, target.ID)
	if err != nil {
		return nil, fmt.Errorf("error following user: %w", err)
	}
	s.logger.Info(ctx, "follow", "follower_id", user.ID, "followed_id", target.ID)
	return rel, nil
}

// Unfollow removes the edge user -> target.
func (s *GraphService) Unfollow(ctx context.Context, user, target *models.User) error {
	repo := s.repomanager.Relationships(s.db)

	rel, err := repo.Find(ctx, user.ID, target.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("user %s does not follow %s: %w", user.ID, target.ID, common.ErrorNotFound)
		}
		return fmt.Errorf("error unfollowing user: %w", err)
	}

	if err := repo.Delete(ctx, rel.ID); err != nil {
		return fmt.Errorf("error unfollowing user: %w", err)
	}
	s.logger.Info(ctx, "unfollow", "follower_id", user.ID, "followed_id", target.ID)
	return nil
}

// Following streams the users that user follows.
func (s *GraphService) Following(ctx context.Context, user *models.User) iter.Seq2[*models.User, error] {
	return s.repomanager.Relationships(s.db).Following(ctx, user.ID)
}

// Followers streams the users following user.
func (s *GraphService) Followers(ctx context.Context, user *models.User) iter.Seq2[*models.User, error] {
	return s.repomanager.Relationships(s.db).Followers(ctx, user.ID)
}

func (s *GraphService) Counts(ctx context.Context, user *models.User) (following, followers int64, err error) {
	following, followers, err = s.repomanager.Relationships(s.db).Counts(ctx, user.ID)
	if err != nil {
		return 0, 0, fmt.Errorf("error counting relationships: %w", err)
	}
	return following, followers, nil
}

// DeleteUser removes the user and every edge touching it in either role,
// in one transaction.
func (s *GraphService) DeleteUser(ctx context.Context, user *models.User) error {
	var removed int64

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		n, err := s.repomanager.Relationships(tx).DeleteForUser(ctx, user.ID)
		if err != nil {
			return err
		}
		removed = n
		return s.repomanager.Users(tx).Delete(ctx, user.ID)
	})
	if err != nil {
		return fmt.Errorf("error deleting user: %w", err)
	}

	s.logger.Info(ctx, "user deleted", "user_id", user.ID, "relationships", removed)
	return nil
}
