// Package history keeps the undo stack of committed viewports.
package history

import (
	"errors"

	"github.com/san-kum/fraczoom/internal/viewport"
)

// ErrEmpty is returned by Pop when only the floor entry remains.
var ErrEmpty = errors.New("history: nothing to revert, only the initial view remains")

// Entry is an immutable snapshot. Seq grows by one per push and is never reused.
type Entry[T any] struct {
	Seq      uint64
	Viewport viewport.Viewport[T]
}

// History is an append/pop stack whose first entry is a floor that is
// never popped. A positive limit caps the depth by discarding the oldest
// entry above the floor.
type History[T any] struct {
	entries []Entry[T]
	nextSeq uint64
	limit   int
}

func New[T any](initial viewport.Viewport[T], limit int) *History[T] {
	h := &History[T]{limit: limit}
	h.Reset(initial)
	return h
}

// Reset drops every entry and installs initial as the new floor.
func (h *History[T]) Reset(initial viewport.Viewport[T]) Entry[T] {
	h.entries = h.entries[:0]
	return h.push(initial)
}

func (h *History[T]) Push(v viewport.Viewport[T]) Entry[T] {
	e := h.push(v)
	if h.limit > 0 && len(h.entries) > h.limit {
		// keep the floor, drop the oldest entry above it
		h.entries = append(h.entries[:1], h.entries[2:]...)
	}
	return e
}

func (h *History[T]) push(v viewport.Viewport[T]) Entry[T] {
	h.nextSeq++
	e := Entry[T]{Seq: h.nextSeq, Viewport: v}
	h.entries = append(h.entries, e)
	return e
}

// Pop removes the top entry and returns the one beneath it.
func (h *History[T]) Pop() (Entry[T], error) {
	if len(h.entries) <= 1 {
		return h.Top(), ErrEmpty
	}
	h.entries = h.entries[:len(h.entries)-1]
	return h.Top(), nil
}

func (h *History[T]) Top() Entry[T] {
	return h.entries[len(h.entries)-1]
}

func (h *History[T]) Len() int { return len(h.entries) }

func (h *History[T]) CanPop() bool { return len(h.entries) > 1 }

// Entries returns a copy, oldest first.
func (h *History[T]) Entries() []Entry[T] {
	out := make([]Entry[T], len(h.entries))
	copy(out, h.entries)
	return out
}
