// Package credentials derives salts and password hashes.
//
// Every stored hash is computed over salt + "--" + raw password. New hashes
// are written with sha512 (hex SHA-512) or argon2id. Hashes imported from the
// previous system are hex SHA-256 (64 characters); they are verified but never
// written. Verification picks the scheme from the stored value, so old hashes
// keep working after the configured scheme changes.
package credentials

import (
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/sampleapp/internal/common"
	"golang.org/x/crypto/argon2"
)

type Scheme string

const (
	SchemeSHA512   Scheme = "sha512"
	SchemeArgon2ID Scheme = "argon2id"

	// SchemeSHA256 is verify-only.
	SchemeSHA256 Scheme = "sha256"
)

const argon2Prefix = string(SchemeArgon2ID) + "$"

// argon2id parameters; changing them invalidates stored argon2id hashes.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
)

// Hasher produces salts and hashes for new passwords with one scheme.
type Hasher struct {
	scheme Scheme
	now    func() time.Time
	random func() (string, error)
}

func NewHasher(scheme string) (*Hasher, error) {
	switch Scheme(scheme) {
	case SchemeSHA512, SchemeArgon2ID:
	default:
		return nil, fmt.Errorf("unknown password scheme %q", scheme)
	}
	return &Hasher{
		scheme: Scheme(scheme),
		now:    time.Now,
		random: func() (string, error) { return common.MakeRandHexString(16) },
	}, nil
}

func (h *Hasher) Scheme() Scheme {
	return h.scheme
}

// MakeSalt derives a fresh salt from the current UTC time, a random value and
// the raw password. The random part keeps salts unique when two users are
// created within the same clock tick with the same password.
func (h *Hasher) MakeSalt(raw string) (string, error) {
	nonce, err := h.random()
	if err != nil {
		return "", fmt.Errorf("error generating salt: %w", err)
	}
	ts := h.now().UTC().Format(time.RFC3339Nano)
	return SecureHash(ts + common.SaltSeparator + nonce + common.SaltSeparator + raw), nil
}

// Encrypt hashes raw under salt with the hasher's scheme.
func (h *Hasher) Encrypt(salt, raw string) string {
	return encrypt(h.scheme, salt, raw)
}

// Verify reports whether raw under salt produces stored. The scheme is taken
// from stored, not from the hasher.
func Verify(salt, raw, stored string) bool {
	if stored == "" {
		return false
	}
	candidate := encrypt(SchemeOf(stored), salt, raw)
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(stored)) == 1
}

// SchemeOf tells which scheme wrote stored.
func SchemeOf(stored string) Scheme {
	switch {
	case strings.HasPrefix(stored, argon2Prefix):
		return SchemeArgon2ID
	case len(stored) == 2*sha256.Size:
		return SchemeSHA256
	default:
		return SchemeSHA512
	}
}

// SecureHash is the hex encoded SHA-512 digest of s.
func SecureHash(s string) string {
	sum := sha512.Sum512([]byte(s))
	return hex.EncodeToString(sum[:])
}

func encrypt(scheme Scheme, salt, raw string) string {
	input := salt + common.SaltSeparator + raw
	switch scheme {
	case SchemeArgon2ID:
		key := argon2.IDKey([]byte(input), []byte(salt), argonTime, argonMemory, argonThreads, argonKeyLen)
		return argon2Prefix + hex.EncodeToString(key)
	case SchemeSHA256:
		sum := sha256.Sum256([]byte(input))
		return hex.EncodeToString(sum[:])
	default:
		return SecureHash(input)
	}
}
