package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

type userIDKey struct{}

// authenticate resolves the Authorization bearer token and stores the user
// id in the request context. Requests without a valid token get 401.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := h.verifier.Verify(ctx, bearerToken(r))
		if err != nil {
			respondDomainError(ctx, w, err)
			return
		}

		ctx = context.WithValue(ctx, userIDKey{}, userID)
		ctx = zctx.With(ctx, zap.Int64("user_id", userID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userFrom returns the authenticated user id. It panics when called outside
// the authenticate middleware, which would be a routing bug.
func userFrom(ctx context.Context) int64 {
	return ctx.Value(userIDKey{}).(int64)
}

// maybeUser verifies the bearer token on a public route. It returns (0,
// false) for anonymous or invalid credentials instead of failing the
// request.
func (h *Handler) maybeUser(r *http.Request) (int64, bool) {
	token := bearerToken(r)
	if token == "" {
		return 0, false
	}
	userID, err := h.verifier.Verify(r.Context(), token)
	if err != nil {
		return 0, false
	}
	return userID, true
}

func bearerToken(r *http.Request) string {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}
