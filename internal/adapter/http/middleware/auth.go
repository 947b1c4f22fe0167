package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/infrastructure/auth"
	"github.com/iho/stockledger/internal/infrastructure/metrics"
)

// Development headers trusted when token auth is disabled.
const (
	PrincipalIDHeader   = "X-Principal-ID"
	PrincipalRoleHeader = "X-Principal-Role"
)

// AuthConfig selects how callers are identified.
type AuthConfig struct {
	// JWTManager verifies bearer tokens. Nil means headers are trusted.
	JWTManager *auth.JWTManager
	Metrics    *metrics.Metrics
}

// AuthMiddleware establishes the caller's principal or rejects the request with 401.
func AuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var (
				p      domain.Principal
				reason string
			)
			if cfg.JWTManager != nil {
				p, reason = fromBearer(cfg.JWTManager, r)
			} else {
				p, reason = fromHeaders(r)
			}

			if reason != "" {
				if cfg.Metrics != nil {
					cfg.Metrics.AuthFailures.WithLabelValues(reason).Inc()
				}
				writeError(w, http.StatusUnauthorized, "unauthorized", strings.ReplaceAll(reason, "_", " "))
				return
			}

			zerolog.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("principal", p.ID)
			})
			ctx := domain.ContextWithPrincipal(r.Context(), p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func fromBearer(jwtManager *auth.JWTManager, r *http.Request) (domain.Principal, string) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return domain.Principal{}, "missing_token"
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return domain.Principal{}, "malformed_header"
	}

	claims, err := jwtManager.Verify(parts[1])
	if err != nil {
		if errors.Is(err, domain.ErrExpiredToken) {
			return domain.Principal{}, "expired_token"
		}
		return domain.Principal{}, "invalid_token"
	}

	return claims.Principal(), ""
}

func fromHeaders(r *http.Request) (domain.Principal, string) {
	id := strings.TrimSpace(r.Header.Get(PrincipalIDHeader))
	if id == "" {
		return domain.Principal{}, "missing_principal"
	}

	role := domain.Role(r.Header.Get(PrincipalRoleHeader))
	if role == "" {
		role = domain.RoleTrader
	}
	if !role.IsValid() {
		return domain.Principal{}, "invalid_role"
	}

	return domain.Principal{ID: id, Role: role}, ""
}

// RequireRole rejects principals whose role cannot perform role's operations.
func RequireRole(role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := domain.PrincipalFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing principal")
				return
			}

			if role == domain.RoleAdmin && !p.Role.CanAdminister() {
				writeError(w, http.StatusForbidden, "forbidden", domain.ErrInsufficientRole.Error())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
