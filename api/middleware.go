package api

import (
	"errors"
	"net/http"
	"os"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-cms-backend/auth"
	"github.com/rpupo63/portfolio-cms-backend/errs"
)

type authMiddleware struct {
	responder Responder
	logger    zerolog.Logger
	tokens    *auth.Tokens
}

func newAuthMiddleware(tokens *auth.Tokens) authMiddleware {
	logger := log.With().Str("handlerName", "authMiddleware").Logger()
	return authMiddleware{
		responder: NewResponder(logger),
		logger:    logger,
		tokens:    tokens,
	}
}

// sessionToken reads the session cookie, falling back to a Bearer header.
func sessionToken(r *http.Request) string {
	if cookie, err := r.Cookie(auth.CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}

func (m authMiddleware) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := m.tokens.Parse(sessionToken(r))
		if err != nil {
			if !errs.IsMissingTokenError(err) {
				m.logger.Debug().Err(err).Str("path", r.URL.Path).Msg("rejected session token")
			}
			m.responder.WriteError(w, errs.Unauthorized)
			return
		}

		updatedReq := r.WithContext(ctxWithUserID(r.Context(), userID))
		next.ServeHTTP(w, updatedReq)
	})
}

type statusResponseWriter struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (w *statusResponseWriter) WriteHeader(statusCode int) {
	if !w.wroteHeader {
		w.status = statusCode
		w.wroteHeader = true
		w.ResponseWriter.WriteHeader(statusCode)
	}
}

func (w *statusResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *statusResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func LogInternalServerErrors(next http.Handler) http.Handler {
	responder := NewResponder(log.With().Str("handlerName", "recoverer").Logger())

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		srw := &statusResponseWriter{ResponseWriter: w, status: 200}

		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				log.Error().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("requestId", middleware.GetReqID(r.Context())).
					Interface("panic", err).
					Str("stack", string(debug.Stack())).
					Msg("Recovered from panic")

				// Write 500 if nothing written yet
				if !srw.wroteHeader {
					responder.WriteError(srw, errors.New("panic"))
				}
			}
		}()

		next.ServeHTTP(srw, r)

		// Handler-written 500s were already logged by the responder with their cause
		if srw.status == http.StatusInternalServerError {
			log.Error().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("requestId", middleware.GetReqID(r.Context())).
				Msg("500 error response")
		}
	})
}

// CORSCheckMiddleware checks if the request is blocked by CORS and returns a proper error
func CORSCheckMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	responder := NewResponder(log.With().Str("handlerName", "corsCheck").Logger())

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			// If no origin header, it's likely a same-origin request
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed := slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)

			// If not allowed and it's a preflight request, return error
			if !allowed && r.Method == http.MethodOptions {
				responder.WriteError(w, errs.NewCORSError(origin))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// corsMiddleware sets CORS headers for allowed origins. Credentials are
// allowed so the session cookie travels with cross-origin admin requests.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			return slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

// ColoredHTTPLoggingMiddleware logs HTTP requests with colored output based on status codes
func ColoredHTTPLoggingMiddleware(next http.Handler) http.Handler {
	// Set up colored console writer for development
	colorLogger := zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		srw := &statusResponseWriter{ResponseWriter: w, status: 200}

		next.ServeHTTP(srw, r)

		duration := time.Since(start)

		// Color-code based on HTTP status codes
		var logEvent *zerolog.Event
		switch {
		case srw.status >= 500:
			logEvent = colorLogger.Error()
		case srw.status >= 400:
			logEvent = colorLogger.Warn()
		default:
			logEvent = colorLogger.Info()
		}

		logEvent.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", srw.status).
			Int("bytes", srw.bytes).
			Dur("duration", duration).
			Str("remote_addr", r.RemoteAddr).
			Str("requestId", middleware.GetReqID(r.Context())).
			Msg("HTTP Request")
	})
}
