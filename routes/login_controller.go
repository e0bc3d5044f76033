package routes

import (
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/mbolis/surveyforge/app"
	"github.com/mbolis/surveyforge/httpx"
	"github.com/mbolis/surveyforge/log"
)

var refreshHeader = regexp.MustCompile(`(?i)^refresh\s+(.*)`)

// passwordGrant rewrites r into the form request the bearer server expects.
func passwordGrant(r *http.Request, form url.Values) {
	body := form.Encode()
	r.Body = io.NopCloser(strings.NewReader(body))
	r.ContentLength = int64(len(body))
	r.Header.Set("content-type", "application/x-www-form-urlencoded")
	r.Header.Set("content-length", strconv.Itoa(len(body)))
}

// Login exchanges HTTP basic credentials for an access and refresh token.
func Login(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "login.basic_auth")
			return
		}

		passwordGrant(r, url.Values{
			"grant_type": {"password"},
			"username":   {user},
			"password":   {pass},
		})
		app.UserCredentials(w, r)
	}
}

// Refresh redeems the token sent as "Authorization: Refresh <token>".
func Refresh(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		match := refreshHeader.FindStringSubmatch(r.Header.Get("authorization"))
		if len(match) == 0 {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "refresh.token")
			return
		}

		req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, "/", nil)
		if err != nil {
			httpx.LogInternalError(w, "refresh.new_request", err)
			return
		}
		passwordGrant(req, url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {match[1]},
		})

		resp := httpx.NewResponseBuffer()
		app.UserCredentials(resp, req)
		resp.Flush(w)
	}
}
