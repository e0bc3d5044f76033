package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mbolis/surveyforge/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestResponseBuffer(t *testing.T) {
	buf := NewResponseBuffer()
	buf.Header().Set("X-Test", "1")
	_, _ = buf.Write([]byte("hello"))
	assert.Equal(t, http.StatusOK, buf.Status())
	assert.Equal(t, "hello", string(buf.Body()))

	rec := httptest.NewRecorder()
	assert.NoError(t, buf.Flush(rec))
	assert.Equal(t, "1", rec.Header().Get("X-Test"))
	assert.Equal(t, "hello", rec.Body.String())

	buf = NewResponseBuffer()
	buf.WriteHeader(http.StatusUnauthorized)
	buf.WriteHeader(http.StatusOK)
	assert.Equal(t, http.StatusUnauthorized, buf.Status())
	assert.Empty(t, buf.Body())
}

func TestLogError_MapsSentinels(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{errors.Wrap(model.ErrNotFound, "survey 1"), http.StatusNotFound},
		{model.ErrSubmissionInFlight, http.StatusConflict},
		{errors.Wrap(model.ErrConstraintViolation, "bad type"), http.StatusBadRequest},
		{&model.ValidationError{Errors: map[string]string{"q": "required"}}, http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		LogError(rec, req, "test", c.err)
		assert.Equal(t, c.status, rec.Code, c.err.Error())
	}
}
