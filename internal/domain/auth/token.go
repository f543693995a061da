// Package auth implements bearer-token authentication. Raw tokens are
// never stored; the database keeps only their peppered HMAC-SHA256, so a
// leaked table does not expose usable credentials.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/go-faster/errors"
)

// ErrUnauthorized is returned for missing, unknown, or mismatched tokens.
var ErrUnauthorized = errors.New("unauthorized")

// TokenInfo is a stored API token. TokenHash is the hex-encoded peppered
// HMAC-SHA256 of the raw token.
type TokenInfo struct {
	ID        int64
	UserID    int64
	TokenHash string
	Name      string
}

// User is the account a token authenticates as.
type User struct {
	ID          int64
	Email       string
	Name        string
	PhoneNumber string
}

// Repository provides token and user lookups. FindByHash returns
// ErrUnauthorized when no token matches the hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*TokenInfo, error)
	GetUser(ctx context.Context, id int64) (*User, error)
}

// HashToken returns the hex HMAC-SHA256 of token under the given pepper.
func HashToken(pepper []byte, token string) string {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verifier resolves raw bearer tokens to user ids.
type Verifier struct {
	repo   Repository
	pepper []byte
}

// NewVerifier creates a Verifier with the given server-side pepper.
func NewVerifier(repo Repository, pepper []byte) *Verifier {
	return &Verifier{repo: repo, pepper: pepper}
}

// Verify authenticates a raw bearer token and returns the owning user id.
// The stored hash is re-compared in constant time after the lookup.
func (v *Verifier) Verify(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, ErrUnauthorized
	}

	mac := hmac.New(sha256.New, v.pepper)
	mac.Write([]byte(token))
	hash := mac.Sum(nil)

	info, err := v.repo.FindByHash(ctx, hex.EncodeToString(hash))
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return 0, ErrUnauthorized
		}
		return 0, errors.Wrap(err, "lookup token")
	}

	stored, err := hex.DecodeString(info.TokenHash)
	if err != nil {
		return 0, ErrUnauthorized
	}
	if subtle.ConstantTimeCompare(hash, stored) != 1 {
		return 0, ErrUnauthorized
	}

	return info.UserID, nil
}

// GetUser loads the profile fields for an authenticated user id.
func (v *Verifier) GetUser(ctx context.Context, id int64) (*User, error) {
	u, err := v.repo.GetUser(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "load user")
	}
	return u, nil
}
