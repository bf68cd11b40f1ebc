package auth

import (
	"context"
	"encoding/json"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/redmonkez12/bookings-api/internal/apperror"
	"github.com/redmonkez12/bookings-api/internal/httputil"
	"github.com/redmonkez12/bookings-api/internal/logging"
	"github.com/redmonkez12/bookings-api/internal/user"
)

// RateLimiter decides whether another request for key fits the window.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service      *Service
	cookies      CookiePolicy
	rateLimiter  RateLimiter // nil disables rate limiting
	resetURLBase string
}

func NewHandler(service *Service, cookies CookiePolicy, rateLimiter RateLimiter, frontendURL string) *Handler {
	return &Handler{
		service:      service,
		cookies:      cookies,
		rateLimiter:  rateLimiter,
		resetURLBase: frontendURL + "/resetpassword",
	}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateDetailsRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ForgotPasswordRequest represents the password reset request
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest carries the new password; the token is in the path.
type ResetPasswordRequest struct {
	Password string `json:"password"`
}

// UserResponse represents a user in token responses
type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// TokenResponse is returned whenever a new session is issued. The same token
// is also set as the session cookie.
type TokenResponse struct {
	Success bool         `json:"success"`
	Token   string       `json:"token"`
	User    UserResponse `json:"user"`
}

// Register handles POST /auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	if !h.allow(w, r, "register") {
		return
	}

	var req RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	session, err := h.service.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondServiceError(w, r, "registration failed", err)
		return
	}

	logger.Info("user registered", "user_id", session.User.ID.String())
	h.sendToken(w, session)
}

// Login handles POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	if !h.allow(w, r, "login") {
		return
	}

	var req LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, r, "login failed", err)
		return
	}

	logger.Info("user logged in", "user_id", session.User.ID.String())
	h.sendToken(w, session)
}

// Me handles GET /auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	u, err := h.service.CurrentUser(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, "failed to load current user", err)
		return
	}

	httputil.RespondData(w, u, http.StatusOK)
}

// Logout handles GET /auth/logout. It only clears the cookie; an issued token
// stays valid until it expires.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.ClearTokenCookie(w)
	httputil.RespondData(w, struct{}{}, http.StatusOK)
}

// UpdateDetails handles PUT /auth/updatedetails
func (h *Handler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req UpdateDetailsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	u, err := h.service.UpdateDetails(r.Context(), userID, req.Name, req.Email)
	if err != nil {
		respondServiceError(w, r, "update details failed", err)
		return
	}

	httputil.RespondData(w, u, http.StatusOK)
}

// UpdatePassword handles PUT /auth/updatepassword
func (h *Handler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req UpdatePasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	session, err := h.service.UpdatePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		respondServiceError(w, r, "update password failed", err)
		return
	}

	h.sendToken(w, session)
}

// ForgotPassword handles POST /auth/forgotpassword
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	if !h.allow(w, r, "forgotpassword") {
		return
	}

	var req ForgotPasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.service.ForgotPassword(r.Context(), req.Email, h.resetURLBase); err != nil {
		respondServiceError(w, r, "forgot password failed", err)
		return
	}

	logger.Info("password reset email sent")
	httputil.RespondData(w, "email sent", http.StatusOK)
}

// ResetPassword handles PUT /auth/resetpassword/{token}
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	session, err := h.service.ResetPassword(r.Context(), chi.URLParam(r, "token"), req.Password)
	if err != nil {
		respondServiceError(w, r, "reset password failed", err)
		return
	}

	h.sendToken(w, session)
}

func (h *Handler) sendToken(w http.ResponseWriter, session *Session) {
	h.cookies.SetTokenCookie(w, session.Token)
	httputil.RespondJSON(w, TokenResponse{
		Success: true,
		Token:   session.Token,
		User:    toUserResponse(session.User),
	}, http.StatusOK)
}

// allow applies the per-IP limit for purpose. Limiter failures let the
// request through.
func (h *Handler) allow(w http.ResponseWriter, r *http.Request, purpose string) bool {
	if h.rateLimiter == nil {
		return true
	}

	logger := logging.GetLoggerFromContext(r.Context())
	ip := getClientIP(r)

	allowed, err := h.rateLimiter.Allow(r.Context(), purpose+":"+ip)
	if err != nil {
		logger.Error("failed to check rate limit", "purpose", purpose, "error", err.Error())
		return true
	}
	if !allowed {
		logger.Warn("rate limit exceeded", "purpose", purpose, "ip", ip)
		httputil.RespondErrorWithCode(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return false
	}
	return true
}

func requireUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, msgNotAuthorized, httputil.CodeMissingAuth, http.StatusUnauthorized)
	}
	return userID, ok
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logging.GetLoggerFromContext(r.Context()).Warn("invalid request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return false
	}
	return true
}

// respondServiceError logs err with its cause and sends the classified
// envelope. Unclassified errors become a bare 500.
func respondServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	logger := logging.GetLoggerFromContext(r.Context())
	if status := apperror.HTTPStatus(err); status >= http.StatusInternalServerError {
		logger.Error(msg, "kind", apperror.KindOf(err).String(), "error", err.Error())
	} else {
		logger.Warn(msg, "kind", apperror.KindOf(err).String(), "error", err.Error())
	}
	httputil.RespondAppError(w, err, "server error")
}

func toUserResponse(u *user.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

// getClientIP returns the host part of RemoteAddr. The router runs chi's
// RealIP middleware first, which rewrites RemoteAddr from proxy headers.
func getClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
