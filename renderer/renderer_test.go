package renderer

import (
	"testing"

	"github.com/mbolis/surveyforge/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry_CoversEveryType(t *testing.T) {
	r := DefaultRegistry()
	for _, qt := range model.QuestionTypes {
		c, err := r.Render(model.Question{ID: "q", Type: qt, Title: "T"}, nil)
		require.NoError(t, err, qt)
		assert.Equal(t, "q", c.QuestionID)
		assert.Equal(t, string(qt), c.Type)
		assert.NotEmpty(t, c.Kind, qt)
	}
}

func TestRender_UnknownType(t *testing.T) {
	_, err := DefaultRegistry().Render(model.Question{Type: "hologram"}, nil)
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestRender_Controls(t *testing.T) {
	r := DefaultRegistry()
	opts := []model.Option{{ID: "1", Label: "A", Value: "a"}, {ID: "2", Label: "B", Value: "b"}}

	c, _ := r.Render(model.Question{ID: "q", Type: model.Checkbox, Options: opts, Required: true}, []any{"a"})
	assert.Equal(t, KindChoice, c.Kind)
	assert.True(t, c.Multiple)
	assert.True(t, c.Required)
	assert.Equal(t, opts, c.Options)
	assert.Equal(t, []any{"a"}, c.Value)

	c, _ = r.Render(model.Question{Type: model.Email}, "")
	assert.Equal(t, KindInput, c.Kind)
	assert.Equal(t, "email", c.InputType)

	c, _ = r.Render(model.Question{Type: model.NPS}, nil)
	assert.Equal(t, 0.0, c.Min)
	assert.Equal(t, 10.0, c.Max)

	c, _ = r.Render(model.Question{Type: model.Rating, Validation: model.Object{"max": 7}}, nil)
	assert.Equal(t, 7.0, c.Max)

	c, _ = r.Render(model.Question{Type: model.MatrixSingle, Validation: model.Object{
		"rows":    []any{"Speed", "Price"},
		"columns": []any{"Bad", "Good"},
	}}, nil)
	assert.Equal(t, KindMatrix, c.Kind)
	assert.Equal(t, []string{"Speed", "Price"}, c.Rows)
	assert.Equal(t, []string{"Bad", "Good"}, c.Columns)
}

func TestRegister_AddsType(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.Has(model.Signature))
	r.Register(model.Signature, func(q model.Question, value any) Control {
		return Control{QuestionID: q.ID, Kind: KindSignature}
	})
	c, err := r.Render(model.Question{ID: "sig", Type: model.Signature}, nil)
	require.NoError(t, err)
	assert.Equal(t, KindSignature, c.Kind)
}
