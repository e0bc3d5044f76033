package logic

import (
	"testing"

	"github.com/mbolis/surveyforge/model"
	"github.com/stretchr/testify/assert"
)

func ruled(cond model.Condition, value any) model.Question {
	return model.Question{
		ID:   "q2",
		Type: model.TextInput,
		ConditionalLogic: model.ConditionalLogic{
			Enabled:   true,
			DependsOn: "q1",
			Condition: cond,
			Value:     value,
		},
	}
}

func TestShouldShow_DisabledAlwaysVisible(t *testing.T) {
	q := ruled(model.Equals, "yes")
	q.ConditionalLogic.Enabled = false

	for _, answers := range []model.Answers{
		nil,
		{},
		{"q1": "no"},
		{"q1": []any{"a"}},
		{"q1": 42.0},
	} {
		assert.True(t, ShouldShow(q, answers), "answers %v", answers)
	}
}

func TestShouldShow_Conditions(t *testing.T) {
	tests := []struct {
		name    string
		cond    model.Condition
		value   any
		answer  any
		visible bool
	}{
		{"equals match", model.Equals, "yes", "yes", true},
		{"equals mismatch", model.Equals, "yes", "no", false},
		{"equals is strict on types", model.Equals, "5", 5.0, false},
		{"equals numbers across go types", model.Equals, 5, 5.0, true},
		{"equals missing answer", model.Equals, "yes", nil, false},
		{"not equals", model.NotEquals, "yes", "no", true},
		{"not equals same", model.NotEquals, "yes", "yes", false},
		{"contains array member", model.Contains, "b", []any{"a", "b"}, true},
		{"contains array non member", model.Contains, "c", []any{"a", "b"}, false},
		{"contains string slice", model.Contains, "a", []string{"a"}, true},
		{"contains substring", model.Contains, "ell", "hello", true},
		{"contains stringified number", model.Contains, "2", 123.0, true},
		{"not contains array", model.NotContains, "c", []any{"a", "b"}, true},
		{"not contains substring", model.NotContains, "ell", "hello", false},
		{"greater than", model.GreaterThan, "10", "11", true},
		{"greater than equal", model.GreaterThan, 10, 10.0, false},
		{"greater than non numeric", model.GreaterThan, "10", "abc", false},
		{"less than non numeric", model.LessThan, "10", "abc", false},
		{"greater than missing", model.GreaterThan, 0, nil, false},
		{"less than blank is zero", model.LessThan, 1, "", true},
		{"less than", model.LessThan, 3, 2.5, true},
		{"unknown condition", model.Condition("between"), 1, 0.0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answers := model.Answers{}
			if tt.answer != nil {
				answers["q1"] = tt.answer
			}
			assert.Equal(t, tt.visible, ShouldShow(ruled(tt.cond, tt.value), answers))
		})
	}
}

func TestIsAnswered(t *testing.T) {
	assert.False(t, IsAnswered(nil))
	assert.False(t, IsAnswered(""))
	assert.False(t, IsAnswered([]any{}))
	assert.False(t, IsAnswered([]string{}))
	assert.True(t, IsAnswered("x"))
	assert.True(t, IsAnswered([]any{"a"}))
	assert.True(t, IsAnswered(0.0))
	assert.True(t, IsAnswered(false))
	assert.True(t, IsAnswered(map[string]any{"row": "col"}))
}
