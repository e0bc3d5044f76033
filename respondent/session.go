// Package respondent runs a survey for one respondent: answers, per-page
// required checks, page navigation and the final submission.
package respondent

import (
	"context"
	"sync"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/gofrs/uuid"
	"github.com/mbolis/surveyforge/localstore"
	"github.com/mbolis/surveyforge/log"
	"github.com/mbolis/surveyforge/logic"
	"github.com/mbolis/surveyforge/model"
	"github.com/mbolis/surveyforge/renderer"
	"github.com/mbolis/surveyforge/transform"
	"github.com/pkg/errors"
)

const (
	DefaultAutosaveDelay = time.Second
	RequiredMessage      = "This field is required"
)

type Phase int

const (
	Answering Phase = iota
	Submitting
	Completed
)

func (p Phase) String() string {
	switch p {
	case Answering:
		return "answering"
	case Submitting:
		return "submitting"
	case Completed:
		return "completed"
	}
	return "unknown"
}

// State is the position of a session. PageIndex is meaningful while
// Answering and holds the last page otherwise.
type State struct {
	Phase     Phase
	PageIndex int
}

// Submitter delivers a finished response to the backend.
type Submitter interface {
	SubmitResponse(ctx context.Context, surveyID string, submission model.ResponseSubmission) (string, error)
}

type PageView struct {
	Index    int
	Total    int
	PageID   string
	Name     string
	Controls []renderer.Control
	Errors   map[string]string
	// Progress is the share of pages reached, in percent.
	Progress float64
}

type Session struct {
	survey     model.Survey
	submitter  Submitter
	registry   *renderer.Registry
	store      localstore.Store
	saver      *localstore.Saver
	id         string
	deviceInfo string
	now        func() time.Time
	started    time.Time

	mu         sync.Mutex
	state      State
	answers    model.Answers
	errors     map[string]string
	responseID string
}

type Option func(*Session)

// WithStore keeps in-progress answers under the survey's responses key,
// written delay after the last change.
func WithStore(store localstore.Store, delay time.Duration) Option {
	return func(s *Session) {
		s.store = store
		s.saver = localstore.NewSaver(store, localstore.ResponsesKey(s.survey.ID), delay, nil)
	}
}

func WithRegistry(r *renderer.Registry) Option {
	return func(s *Session) {
		s.registry = r
	}
}

func WithDeviceInfo(info string) Option {
	return func(s *Session) {
		s.deviceInfo = info
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// NewSession starts answering survey at its first page.
func NewSession(survey model.Survey, submitter Submitter, opts ...Option) (*Session, error) {
	if len(survey.Pages) == 0 {
		return nil, errors.Wrapf(model.ErrConstraintViolation, "survey %q has no pages", survey.ID)
	}
	s := &Session{
		survey:    survey,
		submitter: submitter,
		registry:  renderer.DefaultRegistry(),
		id:        uuid.Must(uuid.NewV4()).String(),
		now:       time.Now,
		answers:   model.Answers{},
		errors:    map[string]string{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.started = s.now()
	return s, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ResponseID is the id the backend assigned on completion.
func (s *Session) ResponseID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.responseID
}

func (s *Session) Answers() model.Answers {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(model.Answers, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

func (s *Session) Errors() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyErrors(s.errors)
}

func copyErrors(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// SetAnswer records the answer to question id and clears its error.
func (s *Session) SetAnswer(id string, value any) error {
	if s.survey.Question(id) == nil {
		return errors.Wrapf(model.ErrNotFound, "question %q", id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Phase != Answering {
		return errors.Wrapf(model.ErrConstraintViolation, "session is %s", s.state.Phase)
	}
	s.answers[id] = value
	delete(s.errors, id)
	s.autosave()
	return nil
}

// autosave must be called with mu held.
func (s *Session) autosave() {
	if s.saver == nil {
		return
	}
	data, err := gojson.Marshal(s.answers)
	if err != nil {
		log.Errorf("respondent.autosave.encode: %s", err)
		return
	}
	s.saver.Schedule(data)
}

// Restore reloads answers saved by an earlier session on the same survey.
func (s *Session) Restore(ctx context.Context) (bool, error) {
	if s.store == nil {
		return false, nil
	}
	data, err := s.store.Get(ctx, localstore.ResponsesKey(s.survey.ID))
	if errors.Is(err, model.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	var saved model.Answers
	if err := gojson.Unmarshal(data, &saved); err != nil {
		return false, errors.Wrap(err, "decode saved answers")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, v := range saved {
		if s.survey.Question(id) != nil {
			s.answers[id] = v
		}
	}
	return true, nil
}

// ValidatePage checks the required questions of page i against the current
// answers. Every required question counts, visible or not.
func (s *Session) ValidatePage(i int) (bool, map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	errs := s.validate(i)
	return len(errs) == 0, errs
}

func (s *Session) validate(i int) map[string]string {
	errs := map[string]string{}
	if i < 0 || i >= len(s.survey.Pages) {
		return errs
	}
	for _, q := range s.survey.Pages[i].Questions {
		if q.Required && !logic.IsAnswered(s.answers[q.ID]) {
			errs[q.ID] = RequiredMessage
		}
	}
	return errs
}

// Previous goes back one page without validating.
func (s *Session) Previous() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Phase == Answering && s.state.PageIndex > 0 {
		s.state.PageIndex--
		s.errors = map[string]string{}
	}
	return s.state
}

// Next validates the current page and moves forward. On the last page it
// submits the response; the session completes only when the backend
// accepts it.
func (s *Session) Next(ctx context.Context) (State, error) {
	s.mu.Lock()
	switch s.state.Phase {
	case Submitting:
		s.mu.Unlock()
		return State{Phase: Submitting, PageIndex: s.lastPage()}, model.ErrSubmissionInFlight
	case Completed:
		state := s.state
		s.mu.Unlock()
		return state, errors.Wrap(model.ErrConstraintViolation, "response already submitted")
	}

	if errs := s.validate(s.state.PageIndex); len(errs) > 0 {
		s.errors = errs
		state := s.state
		s.mu.Unlock()
		return state, &model.ValidationError{Errors: copyErrors(errs)}
	}
	s.errors = map[string]string{}

	if s.state.PageIndex < s.lastPage() {
		s.state.PageIndex++
		state := s.state
		s.mu.Unlock()
		return state, nil
	}

	s.state = State{Phase: Submitting, PageIndex: s.lastPage()}
	payload := transform.ResponsePayload(s.answers, transform.Metadata{
		SessionID:  s.id,
		TimeSpent:  s.now().Sub(s.started),
		DeviceInfo: s.deviceInfo,
	})
	s.mu.Unlock()

	responseID, err := s.submitter.SubmitResponse(ctx, s.survey.ID, payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = State{Phase: Answering, PageIndex: s.lastPage()}
		if !errors.Is(err, model.ErrNetworkFailure) {
			err = &model.NetworkError{Op: "submit response", Err: err}
		}
		log.WithFields(log.Fields{"survey": s.survey.ID, "session": s.id}).Warnf("respondent.submit: %s", err)
		return s.state, err
	}

	s.state.Phase = Completed
	s.responseID = responseID
	if s.saver != nil {
		if err := s.saver.Clear(ctx); err != nil {
			log.Warnf("respondent.submit.clear_autosave: %s", err)
		}
	}
	return s.state, nil
}

func (s *Session) lastPage() int { return len(s.survey.Pages) - 1 }

// CurrentPage renders the visible questions of the current page with their
// current answers.
func (s *Session) CurrentPage() (PageView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.state.PageIndex
	page := s.survey.Pages[i]
	view := PageView{
		Index:    i,
		Total:    len(s.survey.Pages),
		PageID:   page.ID,
		Name:     page.Name,
		Controls: make([]renderer.Control, 0, len(page.Questions)),
		Errors:   copyErrors(s.errors),
		Progress: float64(i+1) / float64(len(s.survey.Pages)) * 100,
	}
	for _, q := range page.Questions {
		if !logic.ShouldShow(q, s.answers) {
			continue
		}
		c, err := s.registry.Render(q, s.answers[q.ID])
		if err != nil {
			return PageView{}, err
		}
		view.Controls = append(view.Controls, c)
	}
	return view, nil
}

// Close writes any pending auto-save.
func (s *Session) Close() {
	if s.saver == nil {
		return
	}
	if err := s.saver.Flush(context.Background()); err != nil {
		log.WithError(err).Warn("respondent.close")
	}
}
