package builder

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mbolis/surveyforge/localstore"
	"github.com/mbolis/surveyforge/model"
	"github.com/mbolis/surveyforge/renderer"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	created []model.BackendSurvey
	updated map[string]model.BackendSurvey
	stored  model.BackendSurvey
	err     error
}

func (f *fakeBackend) CreateSurvey(_ context.Context, s model.BackendSurvey) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.created = append(f.created, s)
	return "42", nil
}

func (f *fakeBackend) UpdateSurvey(_ context.Context, id string, s model.BackendSurvey) error {
	if f.err != nil {
		return f.err
	}
	if f.updated == nil {
		f.updated = map[string]model.BackendSurvey{}
	}
	f.updated[id] = s
	return nil
}

func (f *fakeBackend) GetSurvey(_ context.Context, id string) (model.BackendSurvey, error) {
	if f.err != nil {
		return model.BackendSurvey{}, f.err
	}
	return f.stored, nil
}

func TestEditor_InsertEditDuplicate(t *testing.T) {
	e := NewEditor(nil, WithIDGenerator(seqIDs()))
	defer e.Close()

	id, err := e.InsertQuestion(model.Radio, 0)
	require.NoError(t, err)
	assert.Equal(t, id, e.Selected())

	title := "Pick one"
	require.NoError(t, e.UpdateQuestion(id, QuestionPatch{Title: &title}))

	dup, err := e.DuplicateQuestion(id)
	require.NoError(t, err)
	assert.Equal(t, dup, e.Selected())

	qs := e.CurrentPage().Questions
	require.Len(t, qs, 2)
	assert.Equal(t, "Pick one", qs[0].Title)
	assert.Equal(t, "Pick one (Copy)", qs[1].Title)
	assert.Equal(t, 0, qs[0].OrderIndex)
	assert.Equal(t, 1, qs[1].OrderIndex)
	assert.Equal(t, Unsaved, e.Status())
	assert.Equal(t, 4, e.History().Len())
}

func TestEditor_UndoRedo(t *testing.T) {
	e := NewEditor(nil, WithIDGenerator(seqIDs()))
	before := e.Document()

	id, err := e.InsertQuestion(model.Email, 0)
	require.NoError(t, err)
	after := e.Document()

	assert.True(t, e.Undo())
	assert.Equal(t, before, e.Document())
	assert.Empty(t, e.Selected(), "selection of an undone question is cleared")
	assert.False(t, e.Undo())

	assert.True(t, e.Redo())
	assert.Equal(t, after, e.Document())
	assert.False(t, e.Redo())

	require.NoError(t, e.SelectQuestion(id))
	require.NoError(t, e.DeleteQuestion(id))
	assert.Empty(t, e.Selected())
}

func TestEditor_PageNavigationIsNotAnEdit(t *testing.T) {
	e := NewEditor(nil, WithIDGenerator(seqIDs()))

	pid, err := e.AddPage("")
	require.NoError(t, err)
	assert.Equal(t, pid, e.Document().CurrentPageID)
	n := e.History().Len()

	require.NoError(t, e.SetCurrentPage("page_1"))
	assert.Equal(t, n, e.History().Len())
	assert.Equal(t, "page_1", e.Document().CurrentPageID)

	assert.True(t, errors.Is(e.SelectQuestion("nope"), model.ErrNotFound))
	assert.True(t, errors.Is(e.DeletePage("nope"), model.ErrNotFound))
}

func TestEditor_Drop(t *testing.T) {
	e := NewEditor(nil, WithIDGenerator(seqIDs()))
	first, _ := e.InsertQuestion(model.TextInput, 0)
	second, _ := e.InsertQuestion(model.TextInput, 1)

	boxes := []Box{{Top: 0, Height: 80}, {Top: 80, Height: 80}}
	id, err := e.Drop(model.Rating, 150, boxes)
	require.NoError(t, err)

	qs := e.CurrentPage().Questions
	require.Len(t, qs, 3)
	assert.Equal(t, []string{first, second, id}, []string{qs[0].ID, qs[1].ID, qs[2].ID})

	require.NoError(t, e.ReorderQuestion(2, 1))
	qs = e.CurrentPage().Questions
	assert.Equal(t, []string{first, id, second}, []string{qs[0].ID, qs[1].ID, qs[2].ID})
}

func TestEditor_ImportExport(t *testing.T) {
	e := NewEditor(nil, WithIDGenerator(seqIDs()))
	_, err := e.InsertQuestion(model.Checkbox, 0)
	require.NoError(t, err)
	title := "Feedback"
	e.doc.Title = title

	var buf bytes.Buffer
	require.NoError(t, e.Export(&buf))
	assert.Equal(t, "Feedback.json", e.ExportFilename())

	other := NewEditor(nil)
	require.NoError(t, other.Import(&buf))
	assert.Equal(t, "Feedback", other.Document().Title)
	assert.Equal(t, e.CurrentPage().Questions[0].Options, other.CurrentPage().Questions[0].Options)
	assert.Equal(t, 1, other.History().Len())
	assert.Equal(t, Unsaved, other.Status())
}

func TestEditor_ImportRejectsIncompleteDocument(t *testing.T) {
	e := NewEditor(nil, WithIDGenerator(seqIDs()))
	_, _ = e.InsertQuestion(model.Email, 0)
	before := e.Document()

	err := e.Import(strings.NewReader(`{"id":"x","title":"No pages"}`))
	assert.True(t, errors.Is(err, model.ErrInvalidDocument))
	assert.Equal(t, before, e.Document())
	assert.Equal(t, 2, e.History().Len())
}

func TestEditor_Autosave(t *testing.T) {
	ctx := context.Background()
	store := localstore.NewMemoryStore()
	e := NewEditor(nil, WithIDGenerator(seqIDs()), WithStore(store, 10*time.Millisecond))
	defer e.Close()

	_, err := e.InsertQuestion(model.Textarea, 0)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, err := store.Get(ctx, localstore.BuilderAutosaveKey)
		return err == nil
	}, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return e.Status() == Saved }, time.Second, 5*time.Millisecond)

	restored := NewEditor(nil, WithStore(store, time.Hour))
	ok, err := restored.Restore(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, e.Document().Pages[0].Questions[0].ID, restored.Document().Pages[0].Questions[0].ID)
}

func TestEditor_CloseWritesPendingDraft(t *testing.T) {
	ctx := context.Background()
	store := localstore.NewMemoryStore()
	e := NewEditor(nil, WithIDGenerator(seqIDs()), WithStore(store, time.Hour))

	id, err := e.InsertQuestion(model.Email, 0)
	require.NoError(t, err)
	e.Close()

	restored := NewEditor(nil, WithStore(store, time.Hour))
	ok, err := restored.Restore(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, id, restored.Document().Pages[0].Questions[0].ID)
}

func TestEditor_SaveWithoutStore(t *testing.T) {
	e := NewEditor(nil)
	assert.Error(t, e.Save(context.Background()))

	ok, err := e.Restore(context.Background())
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestEditor_Publish(t *testing.T) {
	ctx := context.Background()
	store := localstore.NewMemoryStore()
	backend := &fakeBackend{}
	e := NewEditor(nil, WithIDGenerator(seqIDs()), WithStore(store, time.Hour))
	defer e.Close()

	_, err := e.InsertQuestion(model.Phone, 0)
	require.NoError(t, err)
	require.NoError(t, e.Save(ctx))

	require.NoError(t, e.Publish(ctx, backend))
	assert.Equal(t, "42", e.RemoteID())
	require.Len(t, backend.created, 1)
	assert.Equal(t, model.BackendText, backend.created[0].Pages[0].Questions[0].Type)
	assert.Equal(t, Saved, e.Status())

	_, err = store.Get(ctx, localstore.BuilderAutosaveKey)
	assert.True(t, errors.Is(err, model.ErrNotFound), "auto-save is cleared after publishing")

	require.NoError(t, e.Publish(ctx, backend))
	assert.Contains(t, backend.updated, "42")
	assert.Equal(t, 1, backend.updated["42"].Version)
}

func TestEditor_PublishFailure(t *testing.T) {
	ctx := context.Background()
	e := NewEditor(nil, WithIDGenerator(seqIDs()))
	_, _ = e.InsertQuestion(model.Email, 0)
	before := e.Document()

	backend := &fakeBackend{err: &model.NetworkError{Op: "create", Err: errors.New("refused")}}
	err := e.Publish(ctx, backend)
	assert.True(t, errors.Is(err, model.ErrNetworkFailure))
	assert.Equal(t, SaveError, e.Status())
	assert.Equal(t, before, e.Document())
	assert.Empty(t, e.RemoteID())
}

func TestEditor_PublishRejectsInvalidDocument(t *testing.T) {
	e := NewEditor(nil, WithIDGenerator(seqIDs()))
	id, _ := e.InsertQuestion(model.Radio, 0)
	require.NoError(t, e.UpdateQuestion(id, QuestionPatch{Options: []model.Option{{ID: "a", Label: "A", Value: "a"}}}))

	backend := &fakeBackend{}
	err := e.Publish(context.Background(), backend)
	assert.True(t, errors.Is(err, model.ErrConstraintViolation))
	assert.Empty(t, backend.created)
}

func TestEditor_Open(t *testing.T) {
	backend := &fakeBackend{stored: model.BackendSurvey{
		ID:      "7",
		Version: 3,
		Title:   "Stored",
		Pages: []model.BackendPage{{
			ID:   "p1",
			Name: "Intro",
			Questions: []model.BackendQuestion{
				{ID: "q1", Type: model.BackendSelect, Title: "Choose", Options: []model.Option{}},
			},
		}},
	}}

	e := NewEditor(nil)
	require.NoError(t, e.Open(context.Background(), backend, "7"))
	doc := e.Document()
	assert.Equal(t, "Stored", doc.Title)
	assert.Equal(t, "p1", doc.CurrentPageID)
	assert.Equal(t, model.Dropdown, doc.Pages[0].Questions[0].Type)
	assert.Equal(t, "7", e.RemoteID())
	assert.Equal(t, Saved, e.Status())
	assert.False(t, e.History().CanUndo())
}

func TestEditor_Preview(t *testing.T) {
	e := NewEditor(nil, WithIDGenerator(seqIDs()))
	_, _ = e.InsertQuestion(model.NPS, 0)
	_, _ = e.InsertQuestion(model.Signature, 1)

	controls, err := e.Preview(renderer.DefaultRegistry())
	require.NoError(t, err)
	require.Len(t, controls, 2)
	assert.Equal(t, renderer.KindScale, controls[0].Kind)
	assert.Equal(t, renderer.KindSignature, controls[1].Kind)

	_, err = e.Preview(renderer.NewRegistry())
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestEditor_UIToggles(t *testing.T) {
	e := NewEditor(nil)
	e.ToggleLibrary()
	e.TogglePreview()
	e.TogglePreview()
	e.ToggleProperties()
	assert.Equal(t, UIState{LibraryCollapsed: true, PropertiesCollapsed: true}, e.UI())
}
