// Package queue holds the playback items and the history of what was
// played.
package queue

import (
	"math/rand"
	"slices"
)

// Item is a playable entry: a file (local, remote or live) or a captured
// stream.
type Item interface {
	Title() string
	// Cleanup releases resources held by the item. Calling it more than
	// once is harmless.
	Cleanup()
}

// History is the item list plus a log of played items with a cursor into
// it. The log is newest first; the cursor moves towards older entries on
// Previous and back on Next before new items are picked.
// It is only mutated from Bubbletea's single-threaded Update loop.
type History struct {
	items []Item
	log   []Item
	pos   int // index into log, -1 when nothing is selected

	// intn returns a value in [0,n); replaced in tests.
	intn func(n int) int
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{pos: -1, intn: rand.Intn}
}

// Len returns the number of items.
func (h *History) Len() int { return len(h.items) }

// Items returns the items in the order they were added.
func (h *History) Items() []Item { return h.items }

// Current returns the selected item, or nil.
func (h *History) Current() Item {
	if h.pos < 0 || h.pos >= len(h.log) {
		return nil
	}
	return h.log[h.pos]
}

// Add appends items to the list. It does not change the selection.
func (h *History) Add(items ...Item) {
	h.items = append(h.items, items...)
}

// Select makes item current and records it as the newest log entry.
func (h *History) Select(item Item) {
	h.log = slices.Insert(h.log, 0, item)
	h.pos = 0
}

// Next moves forward through the log if Previous was used, otherwise picks
// the item after the current one. With shuffle, the pick is uniform over
// every other item; a single item repeats. Returns nil when there are no
// items.
func (h *History) Next(shuffle bool) Item {
	if h.pos > 0 {
		h.pos--
		return h.Current()
	}
	n := len(h.items)
	if n == 0 {
		return nil
	}

	idx := slices.Index(h.items, h.Current())
	var next int
	switch {
	case shuffle && idx < 0:
		next = h.intn(n)
	case shuffle && n > 1:
		next = (idx + 1 + h.intn(n-1)) % n
	default:
		next = (idx + 1) % n
	}
	item := h.items[next]
	h.Select(item)
	return item
}

// Previous moves to the previously played item. At the oldest entry the
// current item is returned unchanged.
func (h *History) Previous() Item {
	if h.pos+1 < len(h.log) {
		h.pos++
	}
	return h.Current()
}

// Remove drops item from the list and the log and releases it. When item
// was current, the item that followed it becomes current, or none if the
// list is now empty. Remove returns the current item afterwards.
func (h *History) Remove(item Item) Item {
	idx := slices.Index(h.items, item)
	if idx < 0 {
		return h.Current()
	}
	cur := h.Current()

	h.items = slices.Delete(h.items, idx, idx+1)
	h.log = slices.DeleteFunc(h.log, func(x Item) bool { return x == item })
	item.Cleanup()

	switch {
	case cur != item:
		if cur == nil {
			h.pos = -1
		} else {
			h.pos = slices.Index(h.log, cur)
		}
	case len(h.items) == 0:
		h.pos = -1
	default:
		h.Select(h.items[idx%len(h.items)])
	}
	return h.Current()
}

// Index returns the position of item in the list, or -1.
func (h *History) Index(item Item) int {
	return slices.Index(h.items, item)
}

// CleanupAll releases every item.
func (h *History) CleanupAll() {
	for _, item := range h.items {
		item.Cleanup()
	}
}
