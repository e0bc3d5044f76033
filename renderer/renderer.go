// Package renderer turns questions into input control descriptions. The
// builder preview and the respondent runtime share one registry, so a new
// question type is added with a single Register call.
package renderer

import (
	"github.com/mbolis/surveyforge/model"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

type Kind string

const (
	KindInput     Kind = "input"
	KindTextarea  Kind = "textarea"
	KindChoice    Kind = "choice"
	KindSelect    Kind = "select"
	KindScale     Kind = "scale"
	KindMatrix    Kind = "matrix"
	KindFile      Kind = "file"
	KindSignature Kind = "signature"
	KindLocation  Kind = "location"
	KindRanking   Kind = "ranking"
	KindSlider    Kind = "slider"
)

type Control struct {
	QuestionID  string         `json:"questionId"`
	Type        string         `json:"type"`
	Kind        Kind           `json:"kind"`
	InputType   string         `json:"inputType,omitempty"`
	Label       string         `json:"label"`
	Description string         `json:"description,omitempty"`
	Placeholder string         `json:"placeholder,omitempty"`
	Required    bool           `json:"required"`
	Multiple    bool           `json:"multiple,omitempty"`
	Options     []model.Option `json:"options,omitempty"`
	Min         float64        `json:"min,omitempty"`
	Max         float64        `json:"max,omitempty"`
	Step        float64        `json:"step,omitempty"`
	Rows        []string       `json:"rows,omitempty"`
	Columns     []string       `json:"columns,omitempty"`
	Value       any            `json:"value,omitempty"`
}

type RenderFunc func(q model.Question, value any) Control

type Registry struct {
	renderers map[model.QuestionType]RenderFunc
}

func NewRegistry() *Registry {
	return &Registry{renderers: map[model.QuestionType]RenderFunc{}}
}

func (r *Registry) Register(t model.QuestionType, fn RenderFunc) {
	r.renderers[t] = fn
}

func (r *Registry) Has(t model.QuestionType) bool {
	_, ok := r.renderers[t]
	return ok
}

func (r *Registry) Render(q model.Question, value any) (Control, error) {
	fn, ok := r.renderers[q.Type]
	if !ok {
		return Control{}, errors.Wrapf(model.ErrNotFound, "renderer for type %q", q.Type)
	}
	return fn(q, value), nil
}

func base(q model.Question, value any, kind Kind) Control {
	return Control{
		QuestionID:  q.ID,
		Type:        string(q.Type),
		Kind:        kind,
		Label:       q.Title,
		Description: q.Description,
		Placeholder: q.Placeholder,
		Required:    q.Required,
		Value:       value,
	}
}

func number(q model.Question, key string, def float64) float64 {
	if v, ok := q.Validation[key]; ok {
		if f, err := cast.ToFloat64E(v); err == nil {
			return f
		}
	}
	return def
}

func labels(q model.Question, key string, def ...string) []string {
	if v, ok := q.Validation[key]; ok {
		if s, err := cast.ToStringSliceE(v); err == nil && len(s) > 0 {
			return s
		}
	}
	return def
}

func input(inputType string) RenderFunc {
	return func(q model.Question, value any) Control {
		c := base(q, value, KindInput)
		c.InputType = inputType
		return c
	}
}

func choice(multiple bool) RenderFunc {
	return func(q model.Question, value any) Control {
		c := base(q, value, KindChoice)
		c.Multiple = multiple
		c.Options = q.Options
		return c
	}
}

func dropdown(multiple bool) RenderFunc {
	return func(q model.Question, value any) Control {
		c := base(q, value, KindSelect)
		c.Multiple = multiple
		c.Options = q.Options
		return c
	}
}

func scale(lo, hi float64) RenderFunc {
	return func(q model.Question, value any) Control {
		c := base(q, value, KindScale)
		c.Min = number(q, "min", lo)
		c.Max = number(q, "max", hi)
		c.Step = 1
		return c
	}
}

func matrix(multiple bool) RenderFunc {
	return func(q model.Question, value any) Control {
		c := base(q, value, KindMatrix)
		c.Multiple = multiple
		c.Rows = labels(q, "rows", "Row 1")
		c.Columns = labels(q, "columns", "Column 1")
		return c
	}
}

func plain(kind Kind) RenderFunc {
	return func(q model.Question, value any) Control {
		return base(q, value, kind)
	}
}

// DefaultRegistry has a renderer for every builder question type.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(model.TextInput, input("text"))
	r.Register(model.Email, input("email"))
	r.Register(model.Phone, input("tel"))
	r.Register(model.Number, input("number"))
	r.Register(model.Date, input("date"))
	r.Register(model.TimePicker, input("time"))
	r.Register(model.Textarea, plain(KindTextarea))
	r.Register(model.Radio, choice(false))
	r.Register(model.Checkbox, choice(true))
	r.Register(model.Likert, choice(false))
	r.Register(model.Dropdown, dropdown(false))
	r.Register(model.MultiSelect, dropdown(true))
	r.Register(model.Rating, scale(1, 5))
	r.Register(model.StarRating, scale(1, 5))
	r.Register(model.NPS, scale(0, 10))
	r.Register(model.MatrixSingle, matrix(false))
	r.Register(model.MatrixMultiple, matrix(true))
	r.Register(model.FileUpload, plain(KindFile))
	r.Register(model.Signature, plain(KindSignature))
	r.Register(model.Location, plain(KindLocation))
	r.Register(model.Ranking, func(q model.Question, value any) Control {
		c := base(q, value, KindRanking)
		c.Multiple = true
		c.Options = q.Options
		return c
	})
	r.Register(model.Slider, func(q model.Question, value any) Control {
		c := base(q, value, KindSlider)
		c.Min = number(q, "min", 0)
		c.Max = number(q, "max", 100)
		c.Step = number(q, "step", 1)
		return c
	})
	return r
}
