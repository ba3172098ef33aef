// tavle/handlers/middleware.go
package handlers

import (
	"context"
	"net/http"
	"time"

	"tavle/config"
	"tavle/models"
	"tavle/utils"

	"github.com/go-chi/chi/v5/middleware"
	"log/slog"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	// CurrentUserKey holds the *models.User resolved from the session
	// cookie, or nothing when the request is unauthenticated.
	CurrentUserKey ContextKey = "currentUser"
)

// SessionMiddleware resolves the signed session cookie into a user record
// before each request. The server keeps no session state: the cookie carries
// the credentials and they are re-verified against the users table on every
// request, the way the original client-held session worked.
func SessionMiddleware(app App) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := resolveSessionUser(r, app)
			if user != nil {
				ctx := context.WithValue(r.Context(), CurrentUserKey, user)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func resolveSessionUser(r *http.Request, app App) *models.User {
	cookie, err := r.Cookie(config.SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	username, password, ok := utils.DecodeSession(cookie.Value)
	if !ok {
		app.Logger().Warn("Rejected tampered session cookie")
		return nil
	}
	user, err := app.DB().RetrieveUserByName(username)
	if err != nil {
		return nil
	}
	if !utils.CheckPassword(user.PasswordHash, password) {
		return nil
	}
	return &user
}

// currentUser returns the authenticated user for a request, if any.
func currentUser(r *http.Request) (*models.User, bool) {
	user, ok := r.Context().Value(CurrentUserKey).(*models.User)
	return user, ok
}

// setSessionCookie issues a signed session cookie for the given credentials.
func setSessionCookie(w http.ResponseWriter, r *http.Request, username, password string) {
	http.SetCookie(w, &http.Cookie{
		Name:     config.SessionCookieName,
		Value:    utils.EncodeSession(username, password),
		Path:     "/",
		MaxAge:   config.SessionMaxAge,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie expires the session cookie.
func clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     config.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// RateLimitMiddleware throttles mutating requests per client IP.
func RateLimitMiddleware(app App) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				ip := utils.GetIPAddress(r)
				if !app.RateLimiter().GetLimiter(ip).Allow() {
					app.Logger().Warn("Rate limit exceeded", "ip", ip)
					respondJSON(w, http.StatusTooManyRequests, map[string]string{
						"code":  "rate_limited",
						"error": "rate limit exceeded, please wait a moment",
					}, app)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NewStructuredLogger logs each request through slog as part of chi's
// middleware chain.
func NewStructuredLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
