package relationships

import (
	"context"
	"iter"

	"github.com/dmitrijs2005/sampleapp/internal/app/models"
)

type Repository interface {
	Create(ctx context.Context, followerID, followedID string) (*models.Relationship, error)
	Find(ctx context.Context, followerID, followedID string) (*models.Relationship, error)
	Delete(ctx context.Context, id string) error
	DeleteForUser(ctx context.Context, userID string) (int64, error)
	Following(ctx context.Context, userID string) iter.Seq2[*models.User, error]
	Followers(ctx context.Context, userID string) iter.Seq2[*models.User, error]
	Counts(ctx context.Context, userID string) (following int64, followers int64, err error)
}
