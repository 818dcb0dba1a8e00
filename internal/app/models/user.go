package models

import "time"

// User is a registered account. Salt is written once on creation and never
// rewritten; EncryptedPassword always derives from Salt and the most recently
// accepted raw password, which itself is never kept.
type User struct {
	ID                string    `db:"id"`
	Name              string    `db:"name"`
	Email             string    `db:"email"`
	Salt              string    `db:"salt"`
	EncryptedPassword string    `db:"encrypted_password"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

// IsNew reports whether the user has not been stored yet.
func (u *User) IsNew() bool {
	return u.ID == ""
}
