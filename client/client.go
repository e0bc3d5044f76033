// Package client talks to the survey REST backend.
package client

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	gojson "github.com/goccy/go-json"
	"github.com/mbolis/surveyforge/log"
	"github.com/mbolis/surveyforge/model"
	"github.com/mbolis/surveyforge/transform"
	"github.com/pkg/errors"
)

const (
	DefaultTimeout = 30 * time.Second
	DefaultRetries = 3
)

type Client struct {
	baseURL    string
	http       *http.Client
	retries    uint64
	newBackOff func() backoff.BackOff

	mu           sync.RWMutex
	token        string
	refreshToken string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithRetries sets how many times a failed GET is retried.
func WithRetries(n uint64) Option {
	return func(c *Client) {
		c.retries = n
	}
}

// WithBackOff replaces the exponential retry schedule of GETs.
func WithBackOff(fn func() backoff.BackOff) Option {
	return func(c *Client) {
		c.newBackOff = fn
	}
}

func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// New creates a client for the API rooted at baseURL, e.g.
// "http://localhost:8080/api".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		http:       &http.Client{Timeout: DefaultTimeout},
		retries:    DefaultRetries,
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

// Login exchanges admin credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) error {
	var tok tokenResponse
	err := c.send(ctx, "login", http.MethodPost, "/login", nil, &tok, func(r *http.Request) {
		r.SetBasicAuth(username, password)
	})
	if err != nil {
		return err
	}
	c.setTokens(tok)
	return nil
}

// Refresh trades the refresh token obtained at login for a new token pair.
func (c *Client) Refresh(ctx context.Context) error {
	c.mu.RLock()
	refresh := c.refreshToken
	c.mu.RUnlock()
	if refresh == "" {
		return errors.New("no refresh token")
	}

	var tok tokenResponse
	err := c.send(ctx, "refresh", http.MethodPost, "/refresh", nil, &tok, func(r *http.Request) {
		r.Header.Set("Authorization", "Refresh "+refresh)
	})
	if err != nil {
		return err
	}
	c.setTokens(tok)
	return nil
}

func (c *Client) setTokens(tok tokenResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = tok.AccessToken
	c.refreshToken = tok.RefreshToken
}

func (c *Client) ListSurveys(ctx context.Context) ([]model.SurveySummary, error) {
	var out struct {
		Surveys []model.SurveySummary `json:"surveys"`
	}
	if err := c.get(ctx, "list surveys", "/surveys", &out); err != nil {
		return nil, err
	}
	return transform.SurveyList(out.Surveys), nil
}

func (c *Client) GetSurvey(ctx context.Context, id string) (model.BackendSurvey, error) {
	var out model.BackendSurvey
	err := c.get(ctx, "get survey", "/surveys/"+url.PathEscape(id), &out)
	return out, err
}

func (c *Client) CreateSurvey(ctx context.Context, survey model.BackendSurvey) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	err := c.send(ctx, "create survey", http.MethodPost, "/surveys", survey, &out, nil)
	return out.ID, err
}

func (c *Client) UpdateSurvey(ctx context.Context, id string, survey model.BackendSurvey) error {
	return c.send(ctx, "update survey", http.MethodPut, "/surveys/"+url.PathEscape(id), survey, nil, nil)
}

func (c *Client) DeleteSurvey(ctx context.Context, id string) error {
	return c.send(ctx, "delete survey", http.MethodDelete, "/surveys/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) DuplicateSurvey(ctx context.Context, id string) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	err := c.send(ctx, "duplicate survey", http.MethodPost, "/surveys/"+url.PathEscape(id)+"/duplicate", nil, &out, nil)
	return out.ID, err
}

func (c *Client) PublishSurvey(ctx context.Context, id string) error {
	return c.send(ctx, "publish survey", http.MethodPost, "/surveys/"+url.PathEscape(id)+"/publish", nil, nil, nil)
}

func (c *Client) Analytics(ctx context.Context, id string) (model.Analytics, error) {
	var out model.Analytics
	err := c.get(ctx, "survey analytics", "/surveys/"+url.PathEscape(id)+"/analytics", &out)
	return out, err
}

func (c *Client) GetPublicSurvey(ctx context.Context, id string) (model.BackendSurvey, error) {
	var out model.BackendSurvey
	err := c.get(ctx, "get public survey", "/public/surveys/"+url.PathEscape(id), &out)
	return out, err
}

// SubmitResponse posts a finished response and returns its id.
func (c *Client) SubmitResponse(ctx context.Context, surveyID string, submission model.ResponseSubmission) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	err := c.send(ctx, "submit response", http.MethodPost,
		"/public/surveys/"+url.PathEscape(surveyID)+"/responses", submission, &out, nil)
	return out.ID, err
}

// get retries transport failures and 5xx answers with exponential backoff.
func (c *Client) get(ctx context.Context, op, path string, out any) error {
	b := backoff.WithMaxRetries(c.newBackOff(), c.retries)

	return backoff.RetryNotify(func() error {
		err := c.send(ctx, op, http.MethodGet, path, nil, out, nil)
		var netErr *model.NetworkError
		if errors.As(err, &netErr) && netErr.Status > 0 && netErr.Status < 500 {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(b, ctx), func(err error, wait time.Duration) {
		log.Debugf("client.retry: %s (next in %s)", err, wait)
	})
}

func (c *Client) send(ctx context.Context, op, method, path string, in, out any, prepare func(*http.Request)) error {
	var body io.Reader
	if in != nil {
		data, err := gojson.Marshal(in)
		if err != nil {
			return errors.Wrapf(err, "%s: encode", op)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrapf(err, "%s: new request", op)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if prepare != nil {
		prepare(req)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &model.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &model.NetworkError{Op: op, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(data))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &model.NetworkError{Op: op, Status: resp.StatusCode, Err: errors.New(msg)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := gojson.Unmarshal(data, out); err != nil {
		return &model.NetworkError{Op: op, Status: resp.StatusCode, Err: errors.Wrap(err, "malformed response")}
	}
	return nil
}
