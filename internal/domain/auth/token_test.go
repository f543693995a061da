package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockTokenRepo struct {
	byHash map[string]*TokenInfo
	users  map[int64]*User
}

func (m *mockTokenRepo) FindByHash(_ context.Context, hash string) (*TokenInfo, error) {
	info, ok := m.byHash[hash]
	if !ok {
		return nil, ErrUnauthorized
	}
	return info, nil
}

func (m *mockTokenRepo) GetUser(_ context.Context, id int64) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUnauthorized
	}
	return u, nil
}

func TestHashToken_Deterministic(t *testing.T) {
	pepper := []byte("test-pepper")

	h1 := HashToken(pepper, "token-a")
	h2 := HashToken(pepper, "token-a")
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64, "hex sha256 is 64 chars")

	assert.NotEqual(t, h1, HashToken(pepper, "token-b"))
	assert.NotEqual(t, h1, HashToken([]byte("other-pepper"), "token-a"))
}

func TestVerify_KnownToken(t *testing.T) {
	pepper := []byte("test-pepper")
	raw := "piano_live_0123456789abcdef"

	repo := &mockTokenRepo{byHash: map[string]*TokenInfo{
		HashToken(pepper, raw): {ID: 1, UserID: 42, TokenHash: HashToken(pepper, raw), Name: "demo"},
	}}

	v := NewVerifier(repo, pepper)
	userID, err := v.Verify(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestVerify_RejectsBadTokens(t *testing.T) {
	pepper := []byte("test-pepper")
	raw := "piano_live_0123456789abcdef"

	repo := &mockTokenRepo{byHash: map[string]*TokenInfo{
		HashToken(pepper, raw): {ID: 1, UserID: 42, TokenHash: HashToken(pepper, raw)},
	}}
	v := NewVerifier(repo, pepper)

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"unknown token", "piano_live_deadbeef"},
		{"token hashed with different pepper", "token-a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tt.token)
			require.ErrorIs(t, err, ErrUnauthorized)
		})
	}
}

func TestVerify_CorruptStoredHash(t *testing.T) {
	pepper := []byte("test-pepper")
	raw := "piano_live_0123456789abcdef"

	repo := &mockTokenRepo{byHash: map[string]*TokenInfo{
		HashToken(pepper, raw): {ID: 1, UserID: 42, TokenHash: "not-hex"},
	}}

	v := NewVerifier(repo, pepper)
	_, err := v.Verify(context.Background(), raw)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestGetUser(t *testing.T) {
	repo := &mockTokenRepo{users: map[int64]*User{
		42: {ID: 42, Email: "demo@example.com", Name: "Demo User"},
	}}

	v := NewVerifier(repo, nil)
	u, err := v.GetUser(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "demo@example.com", u.Email)
}
