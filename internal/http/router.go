package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/redmonkez12/bookings-api/internal/auth"
	"github.com/redmonkez12/bookings-api/internal/cors"
	"github.com/redmonkez12/bookings-api/internal/httputil"
	"github.com/redmonkez12/bookings-api/internal/logging"
)

// NewRouter creates and configures the HTTP router
func NewRouter(corsGate *cors.Gate, authHandler *auth.Handler, authMiddleware *auth.Middleware, logger *logging.Logger) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first so preflights never reach auth
	r.Use(corsGate.Handler())

	// Global middleware
	r.Use(SecurityHeaders)               // Security headers on all responses
	r.Use(middleware.Recoverer)          // Recover from panics
	r.Use(middleware.RequestID)          // Add request ID
	r.Use(middleware.RealIP)             // Set RemoteAddr to real IP
	r.Use(logging.RequestLogger(logger)) // Structured logging with request context
	r.Use(middleware.Compress(5))        // Compress responses

	// Public routes
	r.Get("/health", handleHealth)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/forgotpassword", authHandler.ForgotPassword)
		r.Put("/resetpassword/{token}", authHandler.ResetPassword)

		// Protected routes (require authentication)
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireAuth)
			r.Get("/me", authHandler.Me)
			r.Get("/logout", authHandler.Logout)
			r.Put("/updatedetails", authHandler.UpdateDetails)
			r.Put("/updatepassword", authHandler.UpdatePassword)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.RespondErrorWithCode(w, "route not found", httputil.CodeNotFound, http.StatusNotFound)
	})

	return r
}

// handleHealth is also what `authctl ping` polls to wake a sleeping instance.
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "api is running"}, http.StatusOK)
}
