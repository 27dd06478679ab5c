package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/cocoaloft/storefront-backend/api/responses"
	identitysvc "github.com/cocoaloft/storefront-backend/internal/identity"
	pkgauth "github.com/cocoaloft/storefront-backend/pkg/auth"
	"github.com/cocoaloft/storefront-backend/pkg/config"
	pkgerrors "github.com/cocoaloft/storefront-backend/pkg/errors"
	"github.com/cocoaloft/storefront-backend/pkg/logger"
	"github.com/cocoaloft/storefront-backend/pkg/types"
	"github.com/google/uuid"
)

// Identity resolves the caller to a registered user (bearer token) or a
// guest (cookie, minted on first touch). A request carrying both a valid
// token and a guest cookie triggers the idempotent guest merge before the
// handler runs, so the handler always sees a single reconciled identity.
func Identity(jwtCfg config.JWTConfig, guestCfg config.GuestConfig, merger identitysvc.Service, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var user *types.Identity
			if token := bearerToken(r); token != "" {
				claims, err := pkgauth.ParseAccessToken(jwtCfg, token)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
					return
				}
				id := types.User(claims.UserID)
				user = &id
			}

			guestID := guestIDFromCookie(r, guestCfg.CookieName)

			if user != nil {
				if guestID != uuid.Nil && merger != nil {
					if err := merger.MergeGuestIntoUser(ctx, guestID, user.ID); err != nil {
						responses.WriteError(ctx, logg, w, err)
						return
					}
					expireGuestCookie(w, guestCfg.CookieName)
				}
				if logg != nil {
					ctx = logg.WithUserID(ctx, user.ID.String())
				}
				next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, *user)))
				return
			}

			if guestID == uuid.Nil {
				guestID = uuid.New()
				setGuestCookie(w, guestCfg, guestID)
			}
			if logg != nil {
				ctx = logg.WithGuestID(ctx, guestID.String())
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, types.Guest(guestID))))
		})
	}
}

// RequireUser rejects guest callers. Used on surfaces that only make sense
// for registered accounts, like posting reviews.
func RequireUser(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := IdentityFromContext(r.Context())
			if id.IsZero() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
				return
			}
			if id.IsGuest() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "sign in to use this feature"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return ""
}

func guestIDFromCookie(r *http.Request, name string) uuid.UUID {
	cookie, err := r.Cookie(name)
	if err != nil {
		return uuid.Nil
	}
	id, err := uuid.Parse(strings.TrimSpace(cookie.Value))
	if err != nil {
		return uuid.Nil
	}
	return id
}

func setGuestCookie(w http.ResponseWriter, cfg config.GuestConfig, id uuid.UUID) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    id.String(),
		Path:     "/",
		MaxAge:   int(cfg.CookieTTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func expireGuestCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
