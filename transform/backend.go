package transform

import (
	"fmt"

	"github.com/mbolis/surveyforge/model"
	"github.com/pkg/errors"
)

var ErrQuestionDropped = errors.New("question dropped")

// DroppedQuestionError reports a question whose type the backend cannot
// store.
type DroppedQuestionError struct {
	PageID     string
	QuestionID string
	Type       model.QuestionType
}

func (e *DroppedQuestionError) Error() string {
	return fmt.Sprintf("question %s on page %s dropped: type %q unsupported by backend",
		e.QuestionID, e.PageID, e.Type)
}

func (e *DroppedQuestionError) Is(target error) bool { return target == ErrQuestionDropped }

// ToBackend flattens a builder document into the persistence schema.
// The type mapping is lossy: see BackendType.
func ToBackend(doc model.Survey) (model.BackendSurvey, Warnings) {
	var warnings Warnings
	warn := func(err error) {
		if err != nil {
			warnings = append(warnings, err)
		}
	}

	out := model.BackendSurvey{
		ID:             doc.ID,
		Title:          doc.Title,
		Description:    doc.Description,
		IsPublic:       doc.IsPublic,
		AllowAnonymous: doc.AllowAnonymous,
		ExpiresAt:      doc.ExpiresAt,
		Status:         doc.Status,
		Pages:          make([]model.BackendPage, 0, len(doc.Pages)),
	}
	var err error
	out.Settings, err = encodeObject("settings", doc.Settings)
	warn(err)
	out.Theme, err = encodeObject("theme", doc.Theme)
	warn(err)

	taken := names{}
	for _, page := range doc.Pages {
		bp := model.BackendPage{
			ID:         page.ID,
			Name:       page.Name,
			OrderIndex: page.OrderIndex,
			Questions:  make([]model.BackendQuestion, 0, len(page.Questions)),
		}

		for _, q := range page.Questions {
			bt, ok := BackendType(q.Type)
			if !ok {
				warn(&DroppedQuestionError{PageID: page.ID, QuestionID: q.ID, Type: q.Type})
				continue
			}

			name := q.Name
			if name == "" {
				name = taken.derive(q.Title)
			}
			options := q.Options
			if options == nil {
				options = []model.Option{}
			}

			bq := model.BackendQuestion{
				ID:          q.ID,
				Name:        name,
				Type:        bt,
				Title:       q.Title,
				Description: q.Description,
				Placeholder: q.Placeholder,
				Required:    q.Required,
				OrderIndex:  len(bp.Questions),
				Options:     options,
			}
			bq.Validation, err = encodeObject("validation", q.Validation)
			warn(err)
			bq.ConditionalLogic, err = encodeLogic("conditionalLogic", q.ConditionalLogic)
			warn(err)
			bq.Styling, err = encodeObject("styling", q.Styling)
			warn(err)

			bp.Questions = append(bp.Questions, bq)
		}
		out.Pages = append(out.Pages, bp)
	}

	return out, warnings
}

// ToFrontend rebuilds a builder document from the persistence schema,
// deriving the presentation-only fields. Malformed JSON fields become empty
// objects and are reported as warnings.
func ToFrontend(b model.BackendSurvey) (model.Survey, Warnings) {
	var warnings Warnings
	warn := func(err error) {
		if err != nil {
			warnings = append(warnings, err)
		}
	}

	doc := model.Survey{
		ID:             b.ID,
		Title:          b.Title,
		Description:    b.Description,
		IsPublic:       b.IsPublic,
		AllowAnonymous: b.AllowAnonymous,
		ExpiresAt:      b.ExpiresAt,
		Status:         b.Status,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
		Pages:          make([]model.Page, 0, len(b.Pages)),
	}
	if doc.Status == "" {
		doc.Status = "draft"
	}
	var err error
	doc.Settings, err = ParseJSONField("settings", b.Settings)
	warn(err)
	doc.Theme, err = ParseJSONField("theme", b.Theme)
	warn(err)
	if len(b.Pages) > 0 {
		doc.CurrentPageID = b.Pages[0].ID
	}

	for _, bp := range b.Pages {
		page := model.Page{
			ID:         bp.ID,
			Name:       bp.Name,
			OrderIndex: bp.OrderIndex,
			Questions:  make([]model.Question, 0, len(bp.Questions)),
		}
		for _, bq := range bp.Questions {
			field := func(name string) string {
				return fmt.Sprintf("pages[%s].questions[%s].%s", bp.ID, bq.ID, name)
			}
			t := FrontendType(bq.Type)
			options := bq.Options
			if options == nil {
				options = []model.Option{}
			}

			q := model.Question{
				ID:          bq.ID,
				Name:        bq.Name,
				Type:        t,
				Title:       bq.Title,
				Description: bq.Description,
				Placeholder: bq.Placeholder,
				Required:    bq.Required,
				OrderIndex:  bq.OrderIndex,
				Options:     options,
				Icon:        Icon(t),
			}
			q.Validation, err = ParseJSONField(field("validation"), bq.Validation)
			warn(err)
			q.ConditionalLogic, err = ParseConditionalLogic(field("conditionalLogic"), bq.ConditionalLogic)
			warn(err)
			q.Styling, err = ParseJSONField(field("styling"), bq.Styling)
			warn(err)
			q.Logic = &model.LogicSummary{Enabled: q.ConditionalLogic.Enabled}

			page.Questions = append(page.Questions, q)
		}
		doc.Pages = append(doc.Pages, page)
	}

	return doc, warnings
}
