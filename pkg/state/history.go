package state

// HistoryLimit is the most scene ids a HistoryStack keeps. Pushing past it
// drops the oldest entry.
const HistoryLimit = 50

// HistoryStack is the bounded list of visited scene ids used for back navigation.
type HistoryStack struct {
	entries []string
}

// Push appends id, dropping the oldest entry past HistoryLimit.
func (h *HistoryStack) Push(id string) {
	h.entries = append(h.entries, id)
	if len(h.entries) > HistoryLimit {
		// Copy down instead of reslicing so the backing array does not grow forever.
		n := copy(h.entries, h.entries[len(h.entries)-HistoryLimit:])
		h.entries = h.entries[:n]
	}
}

// Pop removes and returns the most recent entry. ok is false when the stack is empty.
func (h *HistoryStack) Pop() (id string, ok bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	id = h.entries[len(h.entries)-1]
	h.entries = h.entries[:len(h.entries)-1]
	return id, true
}

// Peek returns the most recent entry without removing it.
func (h *HistoryStack) Peek() (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	return h.entries[len(h.entries)-1], true
}

// Previous returns the second-to-last entry without consuming anything.
func (h *HistoryStack) Previous() (string, bool) {
	if len(h.entries) < 2 {
		return "", false
	}
	return h.entries[len(h.entries)-2], true
}

func (h *HistoryStack) Clear() {
	h.entries = nil
}

func (h *HistoryStack) Len() int {
	return len(h.entries)
}

// Entries returns a copy of the stack, oldest first.
func (h *HistoryStack) Entries() []string {
	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}
