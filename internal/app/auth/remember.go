// Package auth signs and parses remember-me tokens. A token carries the
// user's id and salt, which is what authenticating a returning session checks
// against the store.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sampleapp/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are the registered claims plus the remembered user. RegisteredClaims.ID
// names the server-side session.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
	Salt   string `json:"salt"`
}

// GenerateRememberToken returns a signed HS256 token and its session id.
func GenerateRememberToken(userID, salt string, secretKey []byte, validity time.Duration) (string, string, error) {
	now := time.Now()
	sessionID := uuid.NewString()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		UserID: userID,
		Salt:   salt,
	})

	signed, err := token.SignedString(secretKey)
	if err != nil {
		return "", "", err
	}

	return signed, sessionID, nil
}

// ParseRememberToken checks signature, algorithm and expiry. Any failure
// matches common.ErrInvalidToken.
func ParseRememberToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: expired", common.ErrInvalidToken)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.UserID == "" || claims.ID == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
