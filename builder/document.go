// Package builder holds the survey editing model: structural mutations on
// the document tree, the undo/redo log, drag-and-drop placement and the
// editor controller that ties them to persistence.
package builder

import (
	"fmt"

	"github.com/mbolis/surveyforge/model"
	"github.com/pkg/errors"
)

// QuestionPatch carries the fields of an update. Nil fields are left as
// they are.
type QuestionPatch struct {
	Name             *string
	Type             *model.QuestionType
	Title            *string
	Description      *string
	Placeholder      *string
	Required         *bool
	Options          []model.Option
	Validation       model.Object
	ConditionalLogic *model.ConditionalLogic
	Styling          model.Object
}

func currentPage(doc *model.Survey) (*model.Page, error) {
	page, _ := doc.CurrentPage()
	if page == nil {
		return nil, errors.Wrapf(model.ErrNotFound, "current page %q", doc.CurrentPageID)
	}
	return page, nil
}

func clamp(i, lo, hi int) int {
	if i < lo {
		return lo
	}
	if i > hi {
		return hi
	}
	return i
}

func move[T any](items []T, from, to int) []T {
	item := items[from]
	out := make([]T, 0, len(items))
	out = append(out, items[:from]...)
	out = append(out, items[from+1:]...)
	out = append(out[:to], append([]T{item}, out[to:]...)...)
	return out
}

// InsertQuestion adds a default question of type t to the current page at
// index at, clamped to the page bounds.
func InsertQuestion(doc model.Survey, t model.QuestionType, at int, id string) (model.Survey, string, error) {
	if !t.Valid() {
		return doc, "", errors.Wrapf(model.ErrNotFound, "question type %q", t)
	}
	next := Clone(doc)
	page, err := currentPage(&next)
	if err != nil {
		return doc, "", err
	}
	if next.Question(id) != nil {
		return doc, "", errors.Wrapf(model.ErrConstraintViolation, "duplicate question id %q", id)
	}

	at = clamp(at, 0, len(page.Questions))
	q := Defaults(t, id)
	page.Questions = append(page.Questions[:at], append([]model.Question{q}, page.Questions[at:]...)...)
	page.Reindex()
	return next, id, nil
}

func UpdateQuestion(doc model.Survey, id string, patch QuestionPatch) (model.Survey, error) {
	next := Clone(doc)
	page, err := currentPage(&next)
	if err != nil {
		return doc, err
	}
	q, _ := page.Question(id)
	if q == nil {
		return doc, errors.Wrapf(model.ErrNotFound, "question %q", id)
	}

	if patch.Type != nil {
		if !patch.Type.Valid() {
			return doc, errors.Wrapf(model.ErrNotFound, "question type %q", *patch.Type)
		}
		q.Type = *patch.Type
	}
	if patch.Name != nil {
		q.Name = *patch.Name
	}
	if patch.Title != nil {
		q.Title = *patch.Title
	}
	if patch.Description != nil {
		q.Description = *patch.Description
	}
	if patch.Placeholder != nil {
		q.Placeholder = *patch.Placeholder
	}
	if patch.Required != nil {
		q.Required = *patch.Required
	}
	if patch.Options != nil {
		q.Options = append([]model.Option{}, patch.Options...)
	}
	if patch.Validation != nil {
		q.Validation = cloneObject(patch.Validation)
	}
	if patch.ConditionalLogic != nil {
		q.ConditionalLogic = *patch.ConditionalLogic
	}
	if patch.Styling != nil {
		q.Styling = cloneObject(patch.Styling)
	}
	return next, nil
}

func DeleteQuestion(doc model.Survey, id string) (model.Survey, error) {
	next := Clone(doc)
	page, err := currentPage(&next)
	if err != nil {
		return doc, err
	}
	_, i := page.Question(id)
	if i < 0 {
		return doc, errors.Wrapf(model.ErrNotFound, "question %q", id)
	}
	page.Questions = append(page.Questions[:i], page.Questions[i+1:]...)
	page.Reindex()
	return next, nil
}

// DuplicateQuestion inserts a copy of question id right after it, titled
// "<title> (Copy)".
func DuplicateQuestion(doc model.Survey, id, newID string) (model.Survey, string, error) {
	next := Clone(doc)
	page, err := currentPage(&next)
	if err != nil {
		return doc, "", err
	}
	orig, i := page.Question(id)
	if orig == nil {
		return doc, "", errors.Wrapf(model.ErrNotFound, "question %q", id)
	}
	if next.Question(newID) != nil {
		return doc, "", errors.Wrapf(model.ErrConstraintViolation, "duplicate question id %q", newID)
	}

	dup := cloneQuestion(*orig)
	dup.ID = newID
	dup.Title = fmt.Sprintf("%s (Copy)", orig.Title)
	page.Questions = append(page.Questions[:i+1], append([]model.Question{dup}, page.Questions[i+1:]...)...)
	page.Reindex()
	return next, newID, nil
}

func ReorderQuestion(doc model.Survey, from, to int) (model.Survey, error) {
	next := Clone(doc)
	page, err := currentPage(&next)
	if err != nil {
		return doc, err
	}
	n := len(page.Questions)
	if from < 0 || from >= n || to < 0 || to >= n {
		return doc, errors.Wrapf(model.ErrNotFound, "question move %d -> %d (have %d)", from, to, n)
	}
	page.Questions = move(page.Questions, from, to)
	page.Reindex()
	return next, nil
}

// AddPage appends a page and makes it current. An empty name becomes
// "Page <n>".
func AddPage(doc model.Survey, name, id string) (model.Survey, error) {
	if p, _ := doc.Page(id); p != nil {
		return doc, errors.Wrapf(model.ErrConstraintViolation, "duplicate page id %q", id)
	}
	next := Clone(doc)
	if name == "" {
		name = fmt.Sprintf("Page %d", len(next.Pages)+1)
	}
	next.Pages = append(next.Pages, model.Page{
		ID:        id,
		Name:      name,
		Questions: []model.Question{},
	})
	next.ReindexPages()
	next.CurrentPageID = id
	return next, nil
}

// DeletePage removes a page. The last remaining page cannot be removed.
func DeletePage(doc model.Survey, id string) (model.Survey, error) {
	_, i := doc.Page(id)
	if i < 0 {
		return doc, errors.Wrapf(model.ErrNotFound, "page %q", id)
	}
	if len(doc.Pages) <= 1 {
		return doc, errors.Wrap(model.ErrConstraintViolation, "cannot delete the last page")
	}

	next := Clone(doc)
	next.Pages = append(next.Pages[:i], next.Pages[i+1:]...)
	next.ReindexPages()
	if next.CurrentPageID == id {
		next.CurrentPageID = next.Pages[0].ID
	}
	return next, nil
}

func ReorderPage(doc model.Survey, from, to int) (model.Survey, error) {
	n := len(doc.Pages)
	if from < 0 || from >= n || to < 0 || to >= n {
		return doc, errors.Wrapf(model.ErrNotFound, "page move %d -> %d (have %d)", from, to, n)
	}
	next := Clone(doc)
	next.Pages = move(next.Pages, from, to)
	next.ReindexPages()
	return next, nil
}

func SetCurrentPage(doc model.Survey, id string) (model.Survey, error) {
	if p, _ := doc.Page(id); p == nil {
		return doc, errors.Wrapf(model.ErrNotFound, "page %q", id)
	}
	next := Clone(doc)
	next.CurrentPageID = id
	return next, nil
}
