package builder

import "github.com/mbolis/surveyforge/model"

const DefaultHistoryCapacity = 50

// History is a linear undo/redo log of full document snapshots. Once the
// log holds more than its capacity the oldest entries are evicted.
type History struct {
	entries  []model.Survey
	index    int
	capacity int
}

func NewHistory(initial model.Survey) *History {
	return NewHistoryWithCapacity(initial, DefaultHistoryCapacity)
}

func NewHistoryWithCapacity(initial model.Survey, capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	h := &History{capacity: capacity}
	h.Reset(initial)
	return h
}

// Reset drops every entry and starts over from doc.
func (h *History) Reset(doc model.Survey) {
	h.entries = []model.Survey{Clone(doc)}
	h.index = 0
}

// Commit records doc after the current position, discarding any redo tail.
func (h *History) Commit(doc model.Survey) {
	h.entries = append(h.entries[:h.index+1], Clone(doc))
	if over := len(h.entries) - h.capacity; over > 0 {
		h.entries = append([]model.Survey(nil), h.entries[over:]...)
	}
	h.index = len(h.entries) - 1
}

func (h *History) Undo() (model.Survey, bool) {
	if !h.CanUndo() {
		return model.Survey{}, false
	}
	h.index--
	return Clone(h.entries[h.index]), true
}

func (h *History) Redo() (model.Survey, bool) {
	if !h.CanRedo() {
		return model.Survey{}, false
	}
	h.index++
	return Clone(h.entries[h.index]), true
}

func (h *History) CanUndo() bool { return h.index > 0 }

func (h *History) CanRedo() bool { return h.index < len(h.entries)-1 }

func (h *History) Len() int { return len(h.entries) }

func (h *History) Index() int { return h.index }

func (h *History) Current() model.Survey { return Clone(h.entries[h.index]) }
