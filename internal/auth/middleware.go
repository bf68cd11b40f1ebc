package auth

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/redmonkez12/bookings-api/internal/httputil"
	"github.com/redmonkez12/bookings-api/internal/logging"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const UserIDContextKey ContextKey = "user_id"

// Client-facing 401 messages. The log line carries the precise reason.
const (
	msgNotAuthorized  = "not authorized to access this route"
	msgInvalidSession = "invalid or expired session"
)

// Middleware handles authentication for protected routes
type Middleware struct {
	tokenService TokenService
}

func NewMiddleware(tokenService TokenService) *Middleware {
	return &Middleware{tokenService: tokenService}
}

// RequireAuth rejects requests without a valid session token and stores the
// verified user id in the request context.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.GetLoggerFromContext(r.Context())

		token, err := ExtractToken(r)
		if err != nil {
			logger.Warn("authentication failed", "reason", FailureReason(err))
			logging.Annotate(r.Context(), "auth_failure", FailureReason(err))
			httputil.RespondErrorWithCode(w, msgNotAuthorized, httputil.CodeMissingAuth, http.StatusUnauthorized)
			return
		}

		claims, err := m.tokenService.Verify(token)
		if err != nil {
			logger.Warn("authentication failed", "reason", FailureReason(err), "error", err.Error())
			logging.Annotate(r.Context(), "auth_failure", FailureReason(err))
			httputil.RespondErrorWithCode(w, msgInvalidSession, httputil.CodeInvalidSession, http.StatusUnauthorized)
			return
		}

		logging.Annotate(r.Context(), "user_id", claims.UserID.String())

		ctx := context.WithValue(r.Context(), UserIDContextKey, claims.UserID)
		ctx = logging.WithLogger(ctx, logger.WithFields(map[string]any{"user_id": claims.UserID.String()}))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDContextKey).(uuid.UUID)
	return userID, ok
}
