package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/Beka01247/kwaaka-table/internal/domain"
	"github.com/Beka01247/kwaaka-table/internal/guest"
)

type guestKey string

const guestCtx guestKey = "guest"

func (app *application) rateLimiterMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if app.config.rateLimiter.Enabled {
			if allow, retryAfter := app.rateLimiter.Allow(r.RemoteAddr); !allow {
				app.rateLimitExceededResponse(w, r, fmt.Sprintf("%.0f", retryAfter.Seconds()))
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// sessionAuthMiddleware resolves the guest session from X-Session-ID and the bearer secret.
func (app *application) sessionAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.Header.Get("X-Session-ID")

		authHeader := r.Header.Get("Authorization")
		parts := strings.Split(authHeader, " ")
		if sessionID == "" || len(parts) != 2 || parts[0] != "Bearer" {
			app.unauthorizedResponse(w, r, fmt.Errorf("%w: missing credentials", domain.ErrUnauthorized))
			return
		}

		gctx, err := app.sessionService.Authenticate(r.Context(), sessionID, parts[1])
		if err != nil {
			app.errorResponse(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), guestCtx, gctx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getGuest(r *http.Request) *guest.Context {
	gctx, _ := r.Context().Value(guestCtx).(*guest.Context)
	return gctx
}
