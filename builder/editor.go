package builder

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/mbolis/surveyforge/localstore"
	"github.com/mbolis/surveyforge/log"
	"github.com/mbolis/surveyforge/model"
	"github.com/mbolis/surveyforge/renderer"
	"github.com/mbolis/surveyforge/transform"
	"github.com/pkg/errors"
)

const DefaultAutosaveDelay = 2 * time.Second

// Publisher persists a document on the backend.
type Publisher interface {
	CreateSurvey(ctx context.Context, survey model.BackendSurvey) (string, error)
	UpdateSurvey(ctx context.Context, id string, survey model.BackendSurvey) error
}

// Loader fetches a persisted document.
type Loader interface {
	GetSurvey(ctx context.Context, id string) (model.BackendSurvey, error)
}

type UIState struct {
	LibraryCollapsed    bool
	PropertiesCollapsed bool
	PreviewMode         bool
}

// Editor is the builder session: the document being edited, its undo log,
// the selected question, save state and panel state. It is meant to be
// driven by one caller at a time.
type Editor struct {
	doc      model.Survey
	selected string
	history  *History
	ui       UIState

	store localstore.Store
	saver *localstore.Saver
	newID func(prefix string) string

	remoteID string
	version  int

	mu     sync.Mutex
	status SaveStatus
}

type EditorOption func(*Editor)

// WithStore enables auto-save of the document, delay after the last edit.
func WithStore(store localstore.Store, delay time.Duration) EditorOption {
	return func(e *Editor) {
		e.store = store
		e.saver = localstore.NewSaver(store, localstore.BuilderAutosaveKey, delay, e.saved)
	}
}

func WithIDGenerator(fn func(prefix string) string) EditorOption {
	return func(e *Editor) {
		e.newID = fn
	}
}

// NewEditor starts a session on doc, or on an empty survey when doc is nil
// or has no pages.
func NewEditor(doc *model.Survey, opts ...EditorOption) *Editor {
	e := &Editor{newID: NewID, status: Saved}
	for _, opt := range opts {
		opt(e)
	}

	if doc == nil || len(doc.Pages) == 0 {
		e.doc = EmptySurvey(e.newID("survey"))
	} else {
		e.doc = Clone(*doc)
		if p, _ := e.doc.CurrentPage(); p == nil {
			e.doc.CurrentPageID = e.doc.Pages[0].ID
		}
	}
	e.history = NewHistory(e.doc)
	return e
}

func (e *Editor) Document() model.Survey { return Clone(e.doc) }

func (e *Editor) History() *History { return e.history }

func (e *Editor) Selected() string { return e.selected }

func (e *Editor) RemoteID() string { return e.remoteID }

func (e *Editor) CurrentPage() model.Page {
	p, _ := e.doc.CurrentPage()
	if p == nil {
		return model.Page{}
	}
	return Clone(model.Survey{Pages: []model.Page{*p}}).Pages[0]
}

func (e *Editor) Status() SaveStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

func (e *Editor) setStatus(s SaveStatus) {
	e.mu.Lock()
	e.status = s
	e.mu.Unlock()
}

func (e *Editor) saved(err error) {
	if err != nil {
		log.Warnf("builder.autosave: %s", err)
		e.setStatus(SaveError)
		return
	}
	e.setStatus(Saved)
}

func (e *Editor) UI() UIState { return e.ui }

func (e *Editor) ToggleLibrary() { e.ui.LibraryCollapsed = !e.ui.LibraryCollapsed }

func (e *Editor) ToggleProperties() { e.ui.PropertiesCollapsed = !e.ui.PropertiesCollapsed }

func (e *Editor) TogglePreview() { e.ui.PreviewMode = !e.ui.PreviewMode }

// commit makes next the current document and records it.
func (e *Editor) commit(next model.Survey) {
	e.doc = next
	e.history.Commit(next)
	e.changed()
}

func (e *Editor) changed() {
	e.setStatus(Unsaved)
	if e.saver == nil {
		return
	}
	data, err := gojson.Marshal(e.doc)
	if err != nil {
		log.Errorf("builder.autosave.encode: %s", err)
		return
	}
	e.saver.Schedule(data)
}

func (e *Editor) InsertQuestion(t model.QuestionType, at int) (string, error) {
	next, id, err := InsertQuestion(e.doc, t, at, e.newID("q"))
	if err != nil {
		return "", err
	}
	e.commit(next)
	e.selected = id
	return id, nil
}

// Drop inserts a question of type t where the pointer is, given the boxes
// of the questions currently on the canvas.
func (e *Editor) Drop(t model.QuestionType, pointerY float64, boxes []Box) (string, error) {
	return e.InsertQuestion(t, InsertionIndex(pointerY, boxes))
}

func (e *Editor) UpdateQuestion(id string, patch QuestionPatch) error {
	next, err := UpdateQuestion(e.doc, id, patch)
	if err != nil {
		return err
	}
	e.commit(next)
	return nil
}

func (e *Editor) DeleteQuestion(id string) error {
	next, err := DeleteQuestion(e.doc, id)
	if err != nil {
		return err
	}
	e.commit(next)
	if e.selected == id {
		e.selected = ""
	}
	return nil
}

func (e *Editor) DuplicateQuestion(id string) (string, error) {
	next, newID, err := DuplicateQuestion(e.doc, id, e.newID("q"))
	if err != nil {
		return "", err
	}
	e.commit(next)
	e.selected = newID
	return newID, nil
}

func (e *Editor) ReorderQuestion(from, to int) error {
	next, err := ReorderQuestion(e.doc, from, to)
	if err != nil {
		return err
	}
	e.commit(next)
	return nil
}

// SelectQuestion selects a question of the current page; an empty id clears
// the selection.
func (e *Editor) SelectQuestion(id string) error {
	if id != "" {
		p, _ := e.doc.CurrentPage()
		if p == nil {
			return errors.Wrapf(model.ErrNotFound, "current page %q", e.doc.CurrentPageID)
		}
		if q, _ := p.Question(id); q == nil {
			return errors.Wrapf(model.ErrNotFound, "question %q", id)
		}
	}
	e.selected = id
	return nil
}

func (e *Editor) AddPage(name string) (string, error) {
	id := e.newID("page")
	next, err := AddPage(e.doc, name, id)
	if err != nil {
		return "", err
	}
	e.commit(next)
	e.selected = ""
	return id, nil
}

func (e *Editor) DeletePage(id string) error {
	next, err := DeletePage(e.doc, id)
	if err != nil {
		return err
	}
	e.commit(next)
	e.selected = ""
	return nil
}

func (e *Editor) ReorderPage(from, to int) error {
	next, err := ReorderPage(e.doc, from, to)
	if err != nil {
		return err
	}
	e.commit(next)
	return nil
}

// SetCurrentPage switches pages. Switching is navigation, not an edit, and
// is not recorded in the history.
func (e *Editor) SetCurrentPage(id string) error {
	next, err := SetCurrentPage(e.doc, id)
	if err != nil {
		return err
	}
	e.doc = next
	e.selected = ""
	return nil
}

func (e *Editor) Undo() bool {
	doc, ok := e.history.Undo()
	if !ok {
		return false
	}
	e.restore(doc)
	return true
}

func (e *Editor) Redo() bool {
	doc, ok := e.history.Redo()
	if !ok {
		return false
	}
	e.restore(doc)
	return true
}

func (e *Editor) restore(doc model.Survey) {
	e.doc = doc
	if e.selected != "" && e.doc.Question(e.selected) == nil {
		e.selected = ""
	}
	e.changed()
}

// Save writes the document to the local store right away.
func (e *Editor) Save(ctx context.Context) error {
	if e.saver == nil {
		return errors.New("no local store configured")
	}
	data, err := gojson.Marshal(e.doc)
	if err != nil {
		return errors.Wrap(err, "encode document")
	}
	e.setStatus(Saving)
	e.saver.Schedule(data)
	return e.saver.Flush(ctx)
}

// Restore loads an auto-saved document, if there is one.
func (e *Editor) Restore(ctx context.Context) (bool, error) {
	if e.store == nil {
		return false, nil
	}
	data, err := e.store.Get(ctx, localstore.BuilderAutosaveKey)
	if errors.Is(err, model.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	doc, warnings, err := transform.DecodeDocument(data)
	if err != nil {
		return false, err
	}
	logWarnings("builder.restore", warnings)

	e.reset(doc)
	e.setStatus(Unsaved)
	return true, nil
}

// Open replaces the session with a survey loaded from the backend.
func (e *Editor) Open(ctx context.Context, loader Loader, id string) error {
	b, err := loader.GetSurvey(ctx, id)
	if err != nil {
		return err
	}
	doc, warnings := transform.ToFrontend(b)
	logWarnings("builder.open", warnings)
	if len(doc.Pages) == 0 {
		page := EmptySurvey("").Pages[0]
		doc.Pages = []model.Page{page}
		doc.CurrentPageID = page.ID
	}

	e.reset(doc)
	e.remoteID = id
	e.version = b.Version
	e.setStatus(Saved)
	return nil
}

func (e *Editor) reset(doc model.Survey) {
	e.doc = doc
	e.history.Reset(doc)
	e.selected = ""
}

// Publish validates the document and creates or updates it on the backend.
// On failure the status becomes SaveError and the document and history are
// left as they were.
func (e *Editor) Publish(ctx context.Context, p Publisher) error {
	if err := Validate(e.doc); err != nil {
		return err
	}

	e.setStatus(Saving)
	b, warnings := transform.ToBackend(e.doc)
	logWarnings("builder.publish", warnings)
	b.Version = e.version

	if e.remoteID == "" {
		id, err := p.CreateSurvey(ctx, b)
		if err != nil {
			e.setStatus(SaveError)
			return err
		}
		e.remoteID = id
		e.version = 1
	} else {
		if err := p.UpdateSurvey(ctx, e.remoteID, b); err != nil {
			e.setStatus(SaveError)
			return err
		}
		e.version++
	}

	if e.saver != nil {
		if err := e.saver.Clear(ctx); err != nil {
			log.Warnf("builder.publish.clear_autosave: %s", err)
		}
	}
	e.setStatus(Saved)
	return nil
}

// ExportFilename is the file name offered for Export.
func (e *Editor) ExportFilename() string {
	title := strings.TrimSpace(e.doc.Title)
	if title == "" {
		title = "survey"
	}
	return title + ".json"
}

func (e *Editor) Export(w io.Writer) error {
	data, err := gojson.MarshalIndent(e.doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode document")
	}
	_, err = w.Write(data)
	return err
}

// Import replaces the document with one read from r. A document without
// id, title or pages is rejected and the session is left unchanged.
func (e *Editor) Import(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrap(err, "read import")
	}
	doc, warnings, err := transform.DecodeDocument(data)
	if err != nil {
		return err
	}
	logWarnings("builder.import", warnings)

	e.reset(doc)
	e.remoteID = ""
	e.version = 0
	e.changed()
	return nil
}

// Preview renders the questions of the current page as a respondent would
// see them before answering.
func (e *Editor) Preview(reg *renderer.Registry) ([]renderer.Control, error) {
	p, _ := e.doc.CurrentPage()
	if p == nil {
		return nil, errors.Wrapf(model.ErrNotFound, "current page %q", e.doc.CurrentPageID)
	}
	controls := make([]renderer.Control, 0, len(p.Questions))
	for _, q := range p.Questions {
		c, err := reg.Render(q, nil)
		if err != nil {
			return nil, err
		}
		controls = append(controls, c)
	}
	return controls, nil
}

// Close writes any pending auto-save.
func (e *Editor) Close() {
	if e.saver == nil {
		return
	}
	if err := e.saver.Flush(context.Background()); err != nil {
		log.WithError(err).Warn("builder.close")
	}
}

func logWarnings(code string, warnings transform.Warnings) {
	for _, w := range warnings {
		log.WithFields(log.Fields{"code": code}).Warn(w)
	}
}
