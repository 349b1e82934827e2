package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/tirehub/punchout-backend/api/responses"
	"github.com/tirehub/punchout-backend/pkg/config"
	pkgerrors "github.com/tirehub/punchout-backend/pkg/errors"
	"github.com/tirehub/punchout-backend/pkg/logger"
)

type rateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// SetupRateLimit throttles the unauthenticated cXML intake per client IP.
// Procurement systems retry aggressively on transport errors, so the
// limit only guards against runaway loops, not normal retry storms.
func SetupRateLimit(cfg config.RateLimitConfig, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if cfg.SetupLimit <= 0 || cfg.SetupWindow <= 0 || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			scope := "setup:" + clientIP(r)
			allowed, count, err := store.FixedWindowAllow(ctx, scope, int64(cfg.SetupLimit), cfg.SetupWindow)
			if err != nil {
				// The limiter being down should not take the intake with it.
				if logg != nil {
					logg.Warn(ctx, "rate limiter unavailable: "+err.Error())
				}
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				if logg != nil {
					ctx = logg.WithFields(ctx, map[string]any{
						"scope": scope,
						"count": count,
					})
					logg.Warn(ctx, "setup request rate limited")
				}
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many setup requests"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
