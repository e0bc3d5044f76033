package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/mbolis/surveyforge/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} })}, opts...)
	return New(srv.URL+"/api", opts...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestListSurveys_AppliesDefaults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/surveys", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		writeJSON(w, 200, map[string]any{"surveys": []map[string]any{
			{"id": "1", "title": "One", "responseCount": 4},
		}})
	}, WithToken("tok"))

	list, err := c.ListSurveys(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "One", list[0].Title)
	assert.Equal(t, 4, list[0].ResponseCount)
	assert.Equal(t, "draft", list[0].Status)
	assert.Equal(t, "general", list[0].Type)
	assert.NotEmpty(t, list[0].Thumbnail)
}

func TestCreateAndUpdateSurvey(t *testing.T) {
	var got model.BackendSurvey
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		switch r.Method {
		case http.MethodPost:
			writeJSON(w, http.StatusCreated, map[string]string{"id": "9"})
		case http.MethodPut:
			assert.Equal(t, "/api/surveys/9", r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
		}
	})

	id, err := c.CreateSurvey(context.Background(), model.BackendSurvey{Title: "New"})
	require.NoError(t, err)
	assert.Equal(t, "9", id)
	assert.Equal(t, "New", got.Title)

	require.NoError(t, c.UpdateSurvey(context.Background(), "9", model.BackendSurvey{Title: "Renamed", Version: 1}))
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, 1, got.Version)
}

func TestGet_RetriesServerErrors(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, 200, model.BackendSurvey{ID: "5", Title: "Back"})
	})

	s, err := c.GetSurvey(context.Background(), "5")
	require.NoError(t, err)
	assert.Equal(t, "Back", s.Title)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestGet_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.GetPublicSurvey(context.Background(), "5")
	var netErr *model.NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, http.StatusNotFound, netErr.Status)
	assert.True(t, errors.Is(err, model.ErrNetworkFailure))
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestGet_GivesUpAfterRetries(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}, WithRetries(2))

	_, err := c.Analytics(context.Background(), "1")
	assert.True(t, errors.Is(err, model.ErrNetworkFailure))
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestSubmitResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/public/surveys/3/responses", r.URL.Path)
		var sub model.ResponseSubmission
		require.NoError(t, json.NewDecoder(r.Body).Decode(&sub))
		if sub.SessionID == "dup" {
			http.Error(w, "submission in flight", http.StatusConflict)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": "77"})
	})

	id, err := c.SubmitResponse(context.Background(), "3", model.ResponseSubmission{
		SessionID: "abc",
		Answers:   []model.Answer{{QuestionID: "q", Answer: "x"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "77", id)

	_, err = c.SubmitResponse(context.Background(), "3", model.ResponseSubmission{SessionID: "dup"})
	assert.True(t, errors.Is(err, model.ErrNetworkFailure))
	assert.Contains(t, err.Error(), "submission in flight")
}

func TestSend_MalformedResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	}, WithRetries(0))

	_, err := c.GetSurvey(context.Background(), "1")
	assert.True(t, errors.Is(err, model.ErrNetworkFailure))
	assert.Contains(t, err.Error(), "malformed response")
}

func TestLoginAndRefresh(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/login":
			user, pass, ok := r.BasicAuth()
			if !ok || user != "admin" || pass != "pw" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			writeJSON(w, 200, map[string]any{
				"access_token": "a1", "token_type": "Bearer", "expires_in": 60, "refresh_token": "r1",
			})
		case "/api/refresh":
			assert.Equal(t, "Refresh r1", r.Header.Get("Authorization"))
			writeJSON(w, 200, map[string]any{"access_token": "a2", "refresh_token": "r2"})
		}
	})

	assert.Error(t, c.Refresh(context.Background()))

	err := c.Login(context.Background(), "admin", "nope")
	assert.True(t, errors.Is(err, model.ErrNetworkFailure))

	require.NoError(t, c.Login(context.Background(), "admin", "pw"))
	assert.Equal(t, "a1", c.Token())

	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, "a2", c.Token())
}
