package events

import "slices"

// window keeps the most recent events in emission order. The feed guards it.
type window struct {
	events []Event
	next   int
	filled bool
}

func newWindow(size int) *window {
	return &window{events: make([]Event, size)}
}

func (w *window) add(e Event) {
	w.events[w.next] = e
	w.next++
	if w.next == len(w.events) {
		w.next = 0
		w.filled = true
	}
}

func (w *window) len() int {
	if w.filled {
		return len(w.events)
	}
	return w.next
}

// last returns up to n of the newest events matching f, oldest first.
// n <= 0 returns every match.
func (w *window) last(n int, f Filter) []Event {
	out := []Event{}
	for i := 1; i <= w.len(); i++ {
		e := w.events[(w.next-i+len(w.events))%len(w.events)]
		if !f.Match(e) {
			continue
		}
		out = append(out, e)
		if n > 0 && len(out) == n {
			break
		}
	}
	slices.Reverse(out)
	return out
}

func (w *window) reset() {
	clear(w.events)
	w.next = 0
	w.filled = false
}
