package builder

import (
	"fmt"
	"testing"

	"github.com/mbolis/surveyforge/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_UndoRedo(t *testing.T) {
	base := EmptySurvey("s")
	h := NewHistory(base)
	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())

	next, _, err := InsertQuestion(base, model.Email, 0, "q")
	require.NoError(t, err)
	h.Commit(next)

	undone, ok := h.Undo()
	require.True(t, ok)
	assert.Equal(t, base, undone)

	redone, ok := h.Redo()
	require.True(t, ok)
	assert.Equal(t, next, redone)

	_, ok = h.Redo()
	assert.False(t, ok)
}

func TestHistory_CommitDropsRedoTail(t *testing.T) {
	doc := EmptySurvey("s")
	h := NewHistory(doc)
	for i := 0; i < 3; i++ {
		doc.Title = fmt.Sprint(i)
		h.Commit(doc)
	}
	h.Undo()
	h.Undo()
	assert.True(t, h.CanRedo())

	doc.Title = "branch"
	h.Commit(doc)
	assert.False(t, h.CanRedo())
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, "branch", h.Current().Title)
}

func TestHistory_Capacity(t *testing.T) {
	doc := EmptySurvey("s")
	h := NewHistory(doc)
	for i := 0; i < 80; i++ {
		doc.Title = fmt.Sprint(i)
		h.Commit(doc)
	}
	assert.Equal(t, DefaultHistoryCapacity, h.Len())
	assert.Equal(t, DefaultHistoryCapacity-1, h.Index())

	for h.CanUndo() {
		h.Undo()
	}
	assert.Equal(t, "30", h.Current().Title, "oldest entries are evicted")
}

func TestHistory_SnapshotsAreIsolated(t *testing.T) {
	doc, _, _ := InsertQuestion(EmptySurvey("s"), model.Radio, 0, "q")
	h := NewHistory(doc)

	doc.Pages[0].Questions[0].Options[0].Label = "mutated"
	assert.Equal(t, "Option 1", h.Current().Pages[0].Questions[0].Options[0].Label)

	cur := h.Current()
	cur.Title = "mutated"
	assert.Equal(t, "Untitled Survey", h.Current().Title)
}

func TestSaveStatus_Text(t *testing.T) {
	for _, s := range []SaveStatus{Saved, Saving, Unsaved, SaveError} {
		text, err := s.MarshalText()
		require.NoError(t, err)
		var back SaveStatus
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, s, back)
	}
	assert.Equal(t, "error", SaveError.String())

	var s SaveStatus
	assert.Error(t, s.UnmarshalText([]byte("lost")))
}
