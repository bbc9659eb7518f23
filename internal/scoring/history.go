package scoring

// Command mutates a state snapshot. Apply must treat its input as read-only
// and return a fresh value; the engine relies on that for undo.
type Command[S any] interface {
	Name() string
	Apply(S) (S, error)
}

// History is the host-local undo/redo stack. It stores whole snapshots, so
// undo is exact restoration, not inverse replay. Never persisted: a process
// restart starts with empty history by design of the scoring session.
type History[S any] struct {
	limit  int
	past   []S
	future []S
}

const defaultHistoryLimit = 50

func NewHistory[S any](limit int) *History[S] {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return &History[S]{limit: limit}
}

// Do applies cmd to current. On success the prior snapshot is pushed for
// undo and any redo history is discarded; on failure both the state and the
// history are untouched.
func (h *History[S]) Do(current S, cmd Command[S]) (S, error) {
	next, err := cmd.Apply(current)
	if err != nil {
		return current, err
	}

	h.Record(current)
	return next, nil
}

// Record pushes prev as the undo snapshot for a command the caller already
// applied. Lets callers persist the new state before committing it to the
// stack.
func (h *History[S]) Record(prev S) {
	h.past = append(h.past, prev)
	if len(h.past) > h.limit {
		h.past = h.past[1:]
	}
	h.future = h.future[:0]
}

// Undo returns the snapshot before the last command and remembers current
// for redo.
func (h *History[S]) Undo(current S) (S, error) {
	if len(h.past) == 0 {
		return current, ErrNothingToUndo
	}

	prev := h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	h.future = append(h.future, current)
	return prev, nil
}

// Redo re-applies the most recently undone command's result.
func (h *History[S]) Redo(current S) (S, error) {
	if len(h.future) == 0 {
		return current, ErrNothingToRedo
	}

	next := h.future[len(h.future)-1]
	h.future = h.future[:len(h.future)-1]
	h.past = append(h.past, current)
	return next, nil
}

func (h *History[S]) CanUndo() bool { return len(h.past) > 0 }
func (h *History[S]) CanRedo() bool { return len(h.future) > 0 }

// Clear drops all history, e.g. when the match completes.
func (h *History[S]) Clear() {
	h.past = h.past[:0]
	h.future = h.future[:0]
}
