package models

import "time"

// Relationship is a directed edge: FollowerID follows FollowedID.
type Relationship struct {
	ID         string    `db:"id"`
	FollowerID string    `db:"follower_id"`
	FollowedID string    `db:"followed_id"`
	CreatedAt  time.Time `db:"created_at"`
}
