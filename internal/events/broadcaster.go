package events

import (
	"sync"
	"sync/atomic"
)

const (
	windowSize       = 256
	subscriberBuffer = 64
)

// Filter selects the events about one draft or orb. Empty fields match
// anything, so the zero Filter selects every event.
type Filter struct {
	DraftID string
	OrbID   string
}

// Match reports whether e carries the filter's draft_id and orb_id.
func (f Filter) Match(e Event) bool {
	if f.DraftID != "" && stringField(e, "draft_id") != f.DraftID {
		return false
	}
	if f.OrbID != "" && stringField(e, "orb_id") != f.OrbID {
		return false
	}
	return true
}

func stringField(e Event, key string) string {
	s, _ := e.Fields[key].(string)
	return s
}

// Subscription receives live events that match its filter. A subscriber
// that falls behind loses events rather than stalling Emit.
type Subscription struct {
	C <-chan Event

	ch      chan Event
	filter  Filter
	dropped atomic.Int64
}

// Dropped is the number of matching events lost because C was full.
func (s *Subscription) Dropped() int64 { return s.dropped.Load() }

// feed is the recent-event window plus the live subscribers. One lock
// covers both so a subscriber's backlog and stream neither overlap nor
// leave a gap.
type feed struct {
	mu     sync.Mutex
	recent *window
	subs   map[*Subscription]struct{}
}

var live = &feed{
	recent: newWindow(windowSize),
	subs:   make(map[*Subscription]struct{}),
}

func (f *feed) publish(e Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.recent.add(e)
	for sub := range f.subs {
		if !sub.filter.Match(e) {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			sub.dropped.Add(1)
		}
	}
}

// Subscribe starts a subscription for events matching f. It also returns
// up to backlog recent matching events, oldest first, that were emitted
// before the subscription began.
func Subscribe(f Filter, backlog int) (*Subscription, []Event) {
	ch := make(chan Event, subscriberBuffer)
	sub := &Subscription{C: ch, ch: ch, filter: f}

	live.mu.Lock()
	defer live.mu.Unlock()
	var past []Event
	if backlog > 0 {
		past = live.recent.last(backlog, f)
	}
	live.subs[sub] = struct{}{}
	return sub, past
}

// Unsubscribe ends sub and closes its channel. Unsubscribing twice, or
// after CloseAllSubscribers, is a no-op.
func Unsubscribe(sub *Subscription) {
	live.mu.Lock()
	defer live.mu.Unlock()
	if _, ok := live.subs[sub]; !ok {
		return
	}
	delete(live.subs, sub)
	close(sub.ch)
}

// CloseAllSubscribers closes every subscription. Called on shutdown so
// websocket writers return.
func CloseAllSubscribers() {
	live.mu.Lock()
	defer live.mu.Unlock()
	for sub := range live.subs {
		delete(live.subs, sub)
		close(sub.ch)
	}
}

func SubscriberCount() int {
	live.mu.Lock()
	defer live.mu.Unlock()
	return len(live.subs)
}

// RecentEvents returns up to n of the newest buffered events matching f,
// oldest first. n <= 0 returns every match.
func RecentEvents(n int, f Filter) []Event {
	live.mu.Lock()
	defer live.mu.Unlock()
	return live.recent.last(n, f)
}
