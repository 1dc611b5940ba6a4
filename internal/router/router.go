package router

import (
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ulyban/contactbook/internal/auth"
	authrepo "github.com/ulyban/contactbook/internal/auth/repo"
	"github.com/ulyban/contactbook/internal/contact"
	contactrepo "github.com/ulyban/contactbook/internal/contact/repo"
	"github.com/ulyban/contactbook/internal/user"
	userrepo "github.com/ulyban/contactbook/internal/user/repo"
	"github.com/ulyban/contactbook/pkg/utilities"
)

// loggingResponseWriter wraps http.ResponseWriter to capture status and size.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

// LoggingMiddleware returns a middleware that logs requests at debug level
// using the provided sugared logger. Each request is tagged with a snowflake
// request id.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := utilities.NewSnowflakeID()
			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			dur := time.Since(start)
			status := lrw.status
			if status == 0 {
				status = http.StatusOK
			}
			logger.Debugw("http request",
				"request_id", reqID,
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", status,
				"duration_ms", float64(dur.Microseconds())/1000.0,
				"size", lrw.size,
			)
		})
	}
}

// SecurityHeadersMiddleware returns a middleware that sets common HTTP
// security headers. Conservative defaults; downstream handlers may override.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer-when-downgrade")
			if w.Header().Get("Content-Security-Policy") == "" {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; object-src 'none'; base-uri 'self';")
			}
			if r.TLS != nil {
				// 30 days
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RegisterRoutes wires repositories, services, and handlers over the given
// DB and mounts them on the standard library's http.ServeMux.
func RegisterRoutes(logger *zap.SugaredLogger, db *sqlx.DB, authCfg auth.Config, m auth.Mailer) http.Handler {
	users := user.NewService(userrepo.NewUserRepo(db), nil)
	sessions := authrepo.NewSessionRepo(db)
	tokens := auth.NewTokenIssuer(authCfg)
	authSvc := auth.NewService(users, sessions, tokens, m, authCfg)
	authHandler := auth.NewHandler(authSvc, users, logger)
	guard := auth.NewMiddleware(tokens, sessions, users)

	contactSvc := contact.NewService(contactrepo.NewContactRepo(db))
	contactHandler := contact.NewHandler(contactSvc, logger)

	mux := http.NewServeMux()

	// health
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// auth routes
	mux.HandleFunc("POST /auth/register", authHandler.Register)
	mux.HandleFunc("POST /auth/login", authHandler.Login)
	mux.HandleFunc("POST /auth/refresh", authHandler.Refresh)
	mux.HandleFunc("POST /auth/logout", authHandler.Logout)
	mux.HandleFunc("POST /auth/send-reset-email", authHandler.SendResetEmail)
	mux.HandleFunc("POST /auth/reset-pwd", authHandler.ResetPassword)

	// contact routes behind the access-token guard
	mux.Handle("GET /contacts", guard.Authenticate(http.HandlerFunc(contactHandler.List)))
	mux.Handle("POST /contacts", guard.Authenticate(http.HandlerFunc(contactHandler.Create)))
	mux.Handle("GET /contacts/{id}", guard.Authenticate(http.HandlerFunc(contactHandler.Get)))
	mux.Handle("PATCH /contacts/{id}", guard.Authenticate(http.HandlerFunc(contactHandler.Update)))
	mux.Handle("DELETE /contacts/{id}", guard.Authenticate(http.HandlerFunc(contactHandler.Delete)))

	// wrap with security headers middleware then logging middleware
	handler := LoggingMiddleware(logger)(SecurityHeadersMiddleware()(mux))
	return handler
}
