package httpx

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/oauth"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// RefreshTokenTTL bounds how long a refresh token stays redeemable.
const RefreshTokenTTL = 8760 * time.Hour

var errCannotRefresh = errors.New("could not refresh")

type credentialsVerifier struct {
	db *sql.DB
}

// NewBearerServer issues and verifies the admin tokens, with users and
// refresh tokens kept in db.
func NewBearerServer(db *sql.DB, secret string, ttl time.Duration) *oauth.BearerServer {
	return oauth.NewBearerServer(secret, ttl, CredentialsVerifier(db), nil)
}

func CredentialsVerifier(db *sql.DB) oauth.CredentialsVerifier {
	return &credentialsVerifier{db}
}

func (cs *credentialsVerifier) ValidateUser(username string, password string, scope string, r *http.Request) error {
	var hash []byte
	err := cs.db.
		QueryRowContext(r.Context(), "SELECT password_hash FROM user WHERE username = ?", username).
		Scan(&hash)
	if err != nil {
		return err
	}

	return bcrypt.CompareHashAndPassword(hash, []byte(password))
}

func (cs *credentialsVerifier) StoreTokenID(tokenType oauth.TokenType, credential string, tokenID string, refreshTokenID string) error {
	_, err := cs.db.Exec(
		"INSERT INTO token (username, token_id, refresh_token_id, expiration) VALUES (?, ?, ?, ?)",
		credential,
		tokenID,
		refreshTokenID,
		time.Now().Add(RefreshTokenTTL),
	)
	return err
}

// ValidateTokenID consumes the stored token pair, so a refresh token can be
// redeemed once.
func (cs *credentialsVerifier) ValidateTokenID(tokenType oauth.TokenType, credential string, tokenID string, refreshTokenID string) error {
	var expiration time.Time
	err := cs.db.
		QueryRow(`
			DELETE FROM token
			WHERE username = ?
				AND token_id = ?
				AND refresh_token_id = ?
			RETURNING expiration`,
			credential,
			tokenID,
			refreshTokenID,
		).
		Scan(&expiration)
	if err != nil {
		return errors.Wrap(errCannotRefresh, err.Error())
	}

	if expiration.Before(time.Now()) {
		return errCannotRefresh
	}
	return nil
}

func (cs *credentialsVerifier) AddClaims(tokenType oauth.TokenType, credential string, tokenID string, scope string, r *http.Request) (map[string]string, error) {
	var roles string
	err := cs.db.
		QueryRow("SELECT roles FROM user WHERE username = ?", credential).
		Scan(&roles)
	if err != nil {
		return nil, err
	}
	return map[string]string{"roles": roles}, nil
}

func (*credentialsVerifier) AddProperties(tokenType oauth.TokenType, credential string, tokenID string, scope string, r *http.Request) (map[string]string, error) {
	return map[string]string{}, nil
}

func (*credentialsVerifier) ValidateClient(clientID string, clientSecret string, scope string, r *http.Request) error {
	return errors.New("not supported")
}
