package builder

import (
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/mbolis/surveyforge/model"
	"github.com/mitchellh/copystructure"
)

// NewID returns a fresh identifier such as "q_6f1c…".
func NewID(prefix string) string {
	return prefix + "_" + uuid.Must(uuid.NewV4()).String()
}

// Clone deep-copies a document so that edits to the copy never reach the
// original.
func Clone(doc model.Survey) model.Survey {
	return copystructure.Must(copystructure.Copy(doc)).(model.Survey)
}

func cloneQuestion(q model.Question) model.Question {
	return copystructure.Must(copystructure.Copy(q)).(model.Question)
}

func cloneObject(o model.Object) model.Object {
	if o == nil {
		return nil
	}
	return copystructure.Must(copystructure.Copy(o)).(model.Object)
}

// EmptySurvey is the document a fresh builder session starts from.
func EmptySurvey(id string) model.Survey {
	return model.Survey{
		ID:            id,
		Title:         "Untitled Survey",
		CurrentPageID: "page_1",
		Pages: []model.Page{{
			ID:        "page_1",
			Name:      "Page 1",
			Questions: []model.Question{},
		}},
	}
}

func defaultOptions(labels ...string) []model.Option {
	opts := make([]model.Option, len(labels))
	for i, label := range labels {
		opts[i] = model.Option{
			ID:    fmt.Sprintf("opt_%d", i+1),
			Label: label,
			Value: fmt.Sprintf("option_%d", i+1),
		}
	}
	return opts
}

// Defaults builds the question the component library drops for type t.
func Defaults(t model.QuestionType, id string) model.Question {
	q := model.Question{
		ID:         id,
		Type:       t,
		Title:      "New " + t.DisplayName(),
		Options:    []model.Option{},
		Validation: model.Object{},
		ConditionalLogic: model.ConditionalLogic{
			Condition: model.Equals,
			Value:     "",
		},
	}

	switch t {
	case model.Radio, model.Checkbox, model.Dropdown, model.MultiSelect, model.Ranking:
		q.Options = defaultOptions("Option 1", "Option 2")
	case model.Likert:
		q.Options = defaultOptions(
			"Strongly disagree", "Disagree", "Neutral", "Agree", "Strongly agree",
		)
		for i := range q.Options {
			q.Options[i].Value = fmt.Sprint(i + 1)
		}
	case model.Rating, model.StarRating:
		q.Validation["max"] = 5
	case model.NPS:
		q.Validation["min"] = 0
		q.Validation["max"] = 10
	case model.Slider:
		q.Validation["min"] = 0
		q.Validation["max"] = 100
		q.Validation["step"] = 1
	case model.MatrixSingle, model.MatrixMultiple:
		q.Validation["rows"] = []any{"Row 1", "Row 2"}
		q.Validation["columns"] = []any{"Column 1", "Column 2"}
	case model.TextInput, model.Email, model.Phone:
		q.Placeholder = "Type your answer here..."
	}
	return q
}
