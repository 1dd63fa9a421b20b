package nav

import (
	"errors"

	"github.com/san-kum/fraczoom/internal/history"
	"github.com/san-kum/fraczoom/internal/viewport"
)

// ErrEmptyJournal rejects a restore with no rows.
var ErrEmptyJournal = errors.New("nav: journal has no entries")

// JournalEntry is one history entry in text form, oldest first.
type JournalEntry struct {
	Seq       uint64
	CenterHex string
	HalfSpanX string
	HalfSpanY string
}

// Journal exports the whole history, floor first.
func (c *Controller[T]) Journal() []JournalEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := c.history.Entries()
	out := make([]JournalEntry, len(entries))
	for i, e := range entries {
		half := e.Viewport.HalfSpan()
		out[i] = JournalEntry{
			Seq:       e.Seq,
			CenterHex: c.codec.Encode(e.Viewport.Center()),
			HalfSpanX: c.num.Format(half.X),
			HalfSpanY: c.num.Format(half.Y),
		}
	}
	return out
}

// Restore replaces the history with the journal. Every row is decoded
// first; a single bad row rejects the whole restore. The first row becomes
// the new floor and sequence ids are reissued.
func (c *Controller[T]) Restore(rows []JournalEntry) error {
	if len(rows) == 0 {
		c.mu.Lock()
		err := c.failLocked("restore", ErrEmptyJournal)
		c.mu.Unlock()
		return err
	}

	views := make([]viewport.Viewport[T], 0, len(rows))
	for i, row := range rows {
		v, err := c.parseFields(row.CenterHex, row.HalfSpanX, row.HalfSpanY)
		if err != nil {
			c.mu.Lock()
			err = c.failLocked("restore", &RestoreError{Row: i, Wrapped: err})
			c.mu.Unlock()
			return err
		}
		views = append(views, v)
	}

	c.mu.Lock()
	if c.gesture == Panning {
		err := c.failLocked("restore", ErrGestureActive)
		c.mu.Unlock()
		return err
	}
	c.history.Reset(views[0])
	for _, v := range views[1:] {
		c.history.Push(v)
	}
	c.metrics.Operation("restore")
	c.metrics.HistoryDepth(c.history.Len())
	c.notice = ""
	c.logger.Info("history restored", "entries", c.history.Len())
	req := c.requestLocked()
	c.mu.Unlock()

	c.fire(req)
	return nil
}

// Depth is the number of history entries, including the floor.
func (c *Controller[T]) Depth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.Len()
}

func (c *Controller[T]) Top() history.Entry[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.Top()
}
