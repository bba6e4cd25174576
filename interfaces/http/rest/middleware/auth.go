package middleware

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/whikwon/nexusnote/pkg/auth"
	"github.com/whikwon/nexusnote/pkg/common"
	pkgerrors "github.com/whikwon/nexusnote/pkg/errors"
)

// Authenticate requires a valid bearer token on every request.
// A nil validator disables authentication.
func Authenticate(validator *auth.JWTValidator, errs *pkgerrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if validator == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				errs.HandleStatus(w, r, http.StatusUnauthorized, "Missing authorization header")
				return
			}

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") {
				errs.HandleStatus(w, r, http.StatusUnauthorized, "Invalid authorization header format")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.Debug("Rejected token", zap.Error(err), zap.String("remoteAddr", common.ClientIP(r)))
				switch {
				case errors.Is(err, auth.ErrExpiredToken):
					errs.HandleStatus(w, r, http.StatusUnauthorized, "Token has expired")
				case errors.Is(err, auth.ErrInvalidSignature):
					errs.HandleStatus(w, r, http.StatusUnauthorized, "Invalid token signature")
				default:
					errs.HandleStatus(w, r, http.StatusUnauthorized, "Invalid token")
				}
				return
			}

			ctx := auth.SetUserInContext(r.Context(), &auth.UserContext{
				UserID: claims.UserID,
				Email:  claims.Email,
				Roles:  claims.Roles,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimit rejects callers that exceed their per-IP budget with 429.
// A nil limiter disables limiting.
func RateLimit(limiter *auth.IPRateLimiter, errs *pkgerrors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := limiter.Allow(r.Context(), common.ClientIP(r))
			if err != nil {
				errs.Handle(w, r, err)
				return
			}
			if !allowed {
				w.Header().Set("Retry-After", "1")
				errs.HandleStatus(w, r, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
