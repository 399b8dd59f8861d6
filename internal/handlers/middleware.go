package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"stuntcheck/internal/identity"
	"stuntcheck/internal/security"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const PrincipalContextKey ContextKey = "principal"

// Principal is the identity resolved from the request's bearer token
type Principal struct {
	Identity *identity.Identity
	Token    string
}

// Middleware holds dependencies for middleware functions
type Middleware struct {
	provider identity.Provider
	limiter  security.Limiter
	ips      *security.IPResolver
}

// NewMiddleware creates a new middleware instance. A nil resolver keys rate
// limits by the connection's remote address.
func NewMiddleware(provider identity.Provider, limiter security.Limiter, ips *security.IPResolver) *Middleware {
	return &Middleware{
		provider: provider,
		limiter:  limiter,
		ips:      ips,
	}
}

// Authenticate resolves a bearer token to a principal. It never rejects a
// request; protected handlers check for the principal themselves.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.provider.VerifyToken(r.Context(), token)
		if err != nil {
			if !errors.Is(err, identity.ErrInvalidToken) {
				log.Printf("Token verification failed: %v", err)
			}
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), PrincipalContextKey, &Principal{Identity: user, Token: token})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RateLimit is middleware that limits requests per client IP and route
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.limiter != nil {
			key := r.URL.Path + ":" + m.ips.ClientIP(r)
			if !m.limiter.Allow(r.Context(), key) {
				w.Header().Set("Retry-After", "60")
				respondWithError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.", "", nil)
				return
			}
		}
		next(w, r)
	}
}

// LimitBody caps the size of request bodies
func LimitBody(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && maxBytes > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		// Call next handler
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		// Log request
		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			log.Printf("[%s] %s %s %d %s", reqID, r.Method, r.URL.Path, status, time.Since(start))
			return
		}
		log.Printf("%s %s %d %s", r.Method, r.URL.Path, status, time.Since(start))
	})
}

// Recover converts a panic into a generic 500 response
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Printf("Panic serving %s %s: %v\n%s", r.Method, r.URL.Path, rec, debug.Stack())
				respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// GetPrincipalFromContext retrieves the principal from the request context
func GetPrincipalFromContext(ctx context.Context) *Principal {
	principal, ok := ctx.Value(PrincipalContextKey).(*Principal)
	if !ok {
		return nil
	}
	return principal
}

// requirePrincipal writes a 401 and returns nil when the request is unauthenticated
func requirePrincipal(w http.ResponseWriter, r *http.Request) *Principal {
	principal := GetPrincipalFromContext(r.Context())
	if principal == nil || principal.Identity == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return nil
	}
	return principal
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
