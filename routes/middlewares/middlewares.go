package middlewares

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/oauth"
	gojson "github.com/goccy/go-json"
	"github.com/mbolis/surveyforge/httpx"
	"github.com/mbolis/surveyforge/log"
	"github.com/pkg/errors"
)

const adminRole = "admin"

// Admin checks for the 'admin' role in an OAuth token signed with secret.
func Admin(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return chi.Chain(oauth.Authorize(secret, nil), admin).Handler(next)
	}
}

func hasRole(claims map[string]string, role string) bool {
	for _, r := range strings.Split(claims["roles"], ",") {
		if strings.TrimSpace(r) == role {
			return true
		}
	}
	return false
}

func admin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := r.Context().Value(oauth.ClaimsContext).(map[string]string)
		if !hasRole(claims, adminRole) {
			httpx.LogStatus(w, http.StatusForbidden, log.DebugLevel, "auth.admin.role")
			return
		}

		next.ServeHTTP(w, r)
	})
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     name,
		Value:    "",
		MaxAge:   -1,
		SameSite: http.SameSiteStrictMode,
	})
}

// CookieAuth lets browsers reach the admin pages with the tokens kept in the
// access_token and refresh_token cookies. An expired access token is renewed
// with the refresh token; without a valid one the request is redirected to
// the login page.
func CookieAuth(bearerServer *oauth.BearerServer) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				h.ServeHTTP(w, r)
				return
			}

			token, err := r.Cookie("access_token")
			if err != nil && !errors.Is(err, http.ErrNoCookie) {
				httpx.LogInternalError(w, "auth.cookie.access_token", err)
				return
			}
			if err == nil {
				r.Header.Set("authorization", "Bearer "+token.Value)
				buf := httpx.NewResponseBuffer()
				h.ServeHTTP(buf, r)
				if buf.Status() != http.StatusUnauthorized {
					if err := buf.Flush(w); err != nil {
						log.Debugf("auth.cookie.flush: %s", err)
					}
					return
				}
			}

			loginLocation := "/login?goto=" + url.QueryEscape(r.RequestURI)

			refreshToken, err := r.Cookie("refresh_token")
			if err != nil {
				if !errors.Is(err, http.ErrNoCookie) {
					httpx.LogInternalError(w, "auth.cookie.refresh_token", err)
					return
				}
				http.Redirect(w, r, loginLocation, http.StatusTemporaryRedirect)
				return
			}

			form := url.Values{
				"grant_type":    {"refresh_token"},
				"refresh_token": {refreshToken.Value},
			}.Encode()
			req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, "/", strings.NewReader(form))
			if err != nil {
				httpx.LogInternalError(w, "auth.cookie.new_request", err)
				return
			}
			req.Header.Set("content-type", "application/x-www-form-urlencoded")
			req.Header.Set("content-length", strconv.Itoa(len(form)))

			resp := httpx.NewResponseBuffer()
			bearerServer.UserCredentials(resp, req)
			switch resp.Status() {
			case http.StatusOK:
			case http.StatusUnauthorized:
				clearCookie(w, "refresh_token")
				http.Redirect(w, r, loginLocation, http.StatusTemporaryRedirect)
				return
			default:
				httpx.LogStatus(w, resp.Status(), log.WarnLevel, "auth.cookie.refresh")
				return
			}

			var tokens tokenResponse
			if err := gojson.Unmarshal(resp.Body(), &tokens); err != nil {
				httpx.LogInternalError(w, "auth.cookie.parse_tokens", err)
				return
			}

			http.SetCookie(w, &http.Cookie{
				Path:     "/",
				Name:     "access_token",
				Value:    tokens.AccessToken,
				MaxAge:   int(tokens.ExpiresIn),
				SameSite: http.SameSiteStrictMode,
			})
			http.SetCookie(w, &http.Cookie{
				Path:     "/",
				Name:     "refresh_token",
				Value:    tokens.RefreshToken,
				MaxAge:   int(httpx.RefreshTokenTTL.Seconds()),
				SameSite: http.SameSiteStrictMode,
			})

			r.Header.Set("authorization", "Bearer "+tokens.AccessToken)
			h.ServeHTTP(w, r)
		})
	}
}
