package main

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mbolis/surveyforge/app"
	"github.com/mbolis/surveyforge/config"
	"github.com/mbolis/surveyforge/model"
	"github.com/mbolis/surveyforge/renderer"
	"github.com/mbolis/surveyforge/routes"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feedbackDoc = `{
	"id": "s1",
	"title": "Feedback",
	"currentPageId": "page_1",
	"pages": [
		{"id": "page_1", "name": "About you", "questions": [
			{"id": "name", "type": "text-input", "title": "Name", "required": true},
			{"id": "likes", "type": "radio", "title": "Do you like it?", "required": true, "options": [
				{"id": "o1", "label": "Yes", "value": "yes"},
				{"id": "o2", "label": "No", "value": "no"}
			]}
		]},
		{"id": "page_2", "name": "Details", "questions": [
			{"id": "details", "type": "textarea", "title": "Why?", "required": true,
				"conditionalLogic": {"enabled": true, "dependsOn": "likes", "condition": "equals", "value": "yes"}},
			{"id": "score", "type": "rating", "title": "Score"}
		]}
	]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestValidate(t *testing.T) {
	out, err := run(t, "", "validate", writeFile(t, "ok.json", feedbackDoc))
	require.NoError(t, err)
	assert.Contains(t, out, "ok (2 pages, 4 questions)")

	bad := strings.Replace(feedbackDoc, `{"id": "o2", "label": "No", "value": "no"}`, ``, 1)
	bad = strings.Replace(bad, `"value": "yes"},`, `"value": "yes"}`, 1)
	_, err = run(t, "", "validate", writeFile(t, "bad.json", bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least two options")

	_, err = run(t, "", "validate", writeFile(t, "empty.json", `{"title": "x"}`))
	assert.Error(t, err)
}

func TestPreview(t *testing.T) {
	path := writeFile(t, "doc.json", feedbackDoc)

	out, err := run(t, "", "preview", path)
	require.NoError(t, err)
	assert.Contains(t, out, "About you (page 1/2)")
	assert.Contains(t, out, "- [input] Name *")
	assert.Contains(t, out, "- [choice] Do you like it? *")
	assert.Contains(t, out, "( ) Yes")

	out, err = run(t, "", "preview", "--page", "2", path)
	require.NoError(t, err)
	assert.Contains(t, out, "- [scale] Score")

	_, err = run(t, "", "preview", "--page", "3", path)
	assert.Error(t, err)
}

func TestParseAnswer(t *testing.T) {
	opts := renderer.Control{Kind: renderer.KindChoice, Options: []model.Option{
		{ID: "o1", Label: "Yes", Value: "yes"},
		{ID: "o2", Label: "No", Value: "no"},
	}}

	assert.Nil(t, parseAnswer(opts, "  "))
	assert.Equal(t, "yes", parseAnswer(opts, "1"))
	assert.Equal(t, "no", parseAnswer(opts, "no"))
	assert.Equal(t, "no", parseAnswer(opts, "NO"))
	assert.Equal(t, "maybe", parseAnswer(opts, "maybe"))

	multi := opts
	multi.Multiple = true
	assert.Equal(t, []any{"yes", "no"}, parseAnswer(multi, "1, No"))

	assert.Equal(t, 4.0, parseAnswer(renderer.Control{Kind: renderer.KindScale}, "4"))
	assert.Equal(t, 2.5, parseAnswer(renderer.Control{Kind: renderer.KindInput, InputType: "number"}, "2.5"))
	assert.Equal(t, "12", parseAnswer(renderer.Control{Kind: renderer.KindInput, InputType: "text"}, "12"))
}

func newBackend(t *testing.T) string {
	t.Helper()
	a, err := app.New(context.Background(), config.Config{
		DBUrl:         filepath.Join(t.TempDir(), "backend.sqlite"),
		TokenSecret:   "cli-secret",
		TokenTTL:      time.Hour,
		AdminUser:     "admin",
		AdminPassword: "pw",
	})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	srv := httptest.NewServer(routes.Wire(a))
	t.Cleanup(srv.Close)
	return srv.URL + "/api"
}

func TestPushTakeAnalytics(t *testing.T) {
	api := newBackend(t)
	auth := []string{"--api", api, "--user", "admin", "--password", "pw"}
	path := writeFile(t, "doc.json", feedbackDoc)

	out, err := run(t, "", append(auth, "push", "--publish", path)...)
	require.NoError(t, err)
	assert.Equal(t, "survey 1 saved\n", out)

	out, err = run(t, "", append(auth, "list")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Feedback")
	assert.Contains(t, out, "published")

	// first attempt leaves a required question empty and fills it on retry
	stdin := "\n1\nAnn\n\nGreat\n5\n"
	out, err = run(t, stdin, "--api", api, "--local-db", filepath.Join(t.TempDir(), "local.sqlite"), "take", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "! Name: This field is required")
	assert.Contains(t, out, "== Details (2/2, 100%)")
	assert.Contains(t, out, "Thank you! Response 1 recorded.")

	out, err = run(t, "", append(auth, "analytics", "1")...)
	require.NoError(t, err)
	assert.Contains(t, out, `"responses": 1`)

	pulled := filepath.Join(t.TempDir(), "pulled.json")
	_, err = run(t, "", append(auth, "pull", "-o", pulled, "1")...)
	require.NoError(t, err)
	out, err = run(t, "", "validate", pulled)
	require.NoError(t, err)
	assert.Contains(t, out, "ok (2 pages, 4 questions)")

	out, err = run(t, "", append(auth, "push", "--id", "1", pulled)...)
	require.NoError(t, err)
	assert.Equal(t, "survey 1 saved\n", out)
}

func TestTake_InputEnds(t *testing.T) {
	api := newBackend(t)
	_, err := run(t, "", "--api", api, "--user", "admin", "--password", "pw", "push", "--publish",
		writeFile(t, "doc.json", feedbackDoc))
	require.NoError(t, err)

	_, err = run(t, "Bob\n", "--api", api, "take", "1")
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
}

func TestTake_ResumesAfterInputEnds(t *testing.T) {
	api := newBackend(t)
	_, err := run(t, "", "--api", api, "--user", "admin", "--password", "pw", "push", "--publish",
		writeFile(t, "doc.json", feedbackDoc))
	require.NoError(t, err)

	local := filepath.Join(t.TempDir(), "local.sqlite")
	_, err = run(t, "Bob\n", "--api", api, "--local-db", local, "take", "1")
	require.True(t, errors.Is(err, io.ErrUnexpectedEOF))

	out, err := run(t, "\n1\nGreat\n5\n", "--api", api, "--local-db", local, "take", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Resuming earlier answers.")
	assert.Contains(t, out, "[Bob]")
	assert.Contains(t, out, "Thank you! Response 1 recorded.")
}

func TestAdminCommandsNeedPassword(t *testing.T) {
	_, err := run(t, "", "--api", "http://127.0.0.1:1/api", "--password", "", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password required")
}
