package tasks

import (
	"sync"
)

// History is the linear undo/redo history of committed task lists.
// The cursor points behind the last done list.
type History struct {
	lock   sync.RWMutex
	lists  []*TaskList
	cursor int
}

func NewHistory() *History {
	return &History{}
}

// Add records a committed list. Everything after the cursor (the redo
// tail) is discarded.
func (h *History) Add(l *TaskList) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.lists = append(h.lists[:h.cursor], l)
	h.cursor = len(h.lists)
}

// ToUndo moves the cursor backwards and returns the list to revert,
// or nil if there is nothing to undo.
func (h *History) ToUndo() *TaskList {
	h.lock.Lock()
	defer h.lock.Unlock()
	if h.cursor == 0 {
		return nil
	}
	h.cursor--
	return h.lists[h.cursor]
}

// ToRedo returns the list to perform again and advances the cursor,
// or nil if there is nothing to redo.
func (h *History) ToRedo() *TaskList {
	h.lock.Lock()
	defer h.lock.Unlock()
	if h.cursor >= len(h.lists) {
		return nil
	}
	l := h.lists[h.cursor]
	h.cursor++
	return l
}

// Restore moves the cursor back after a failed undo or redo of list l.
func (h *History) Restore(l *TaskList, dir Direction) {
	h.lock.Lock()
	defer h.lock.Unlock()
	switch {
	case dir == DIR_UNDO && h.cursor < len(h.lists) && h.lists[h.cursor] == l:
		h.cursor++
	case dir == DIR_DO && h.cursor > 0 && h.lists[h.cursor-1] == l:
		h.cursor--
	}
}

func (h *History) Clear() {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.lists = nil
	h.cursor = 0
}

func (h *History) CanUndo() bool {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return h.cursor > 0
}

func (h *History) CanRedo() bool {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return h.cursor < len(h.lists)
}

func (h *History) Len() int {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return len(h.lists)
}

func (h *History) Cursor() int {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return h.cursor
}
