package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

var total atomic.Int64

// Sink persists events outside the process.
type Sink interface {
	Append(ts time.Time, level, event, msg string, fields map[string]interface{}) error
}

var (
	sink            Sink
	sinkMu          sync.RWMutex
	sinkErrorLogged bool
)

// SetSink sets where events are persisted. A nil sink disables persistence.
func SetSink(s Sink) {
	sinkMu.Lock()
	sink = s
	sinkErrorLogged = false
	sinkMu.Unlock()
}

// GetSink returns the current sink (for API queries).
func GetSink() Sink {
	sinkMu.RLock()
	defer sinkMu.RUnlock()
	return sink
}

type Event struct {
	Timestamp string                 `json:"ts"`
	Level     string                 `json:"level"`
	Name      string                 `json:"event"`
	Message   string                 `json:"msg,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

func Emit(level, name, msg string, fields map[string]interface{}) ([]byte, error) {
	if err := Validate(name); err != nil {
		return nil, err
	}

	ts := time.Now().UTC()
	e := Event{
		Timestamp: ts.Format(time.RFC3339Nano),
		Level:     level,
		Name:      name,
		Message:   msg,
		Fields:    fields,
	}

	live.publish(e)
	total.Add(1)

	sinkMu.RLock()
	s := sink
	errorLogged := sinkErrorLogged
	sinkMu.RUnlock()

	if s != nil {
		if err := s.Append(ts, level, name, msg, fields); err != nil && !errorLogged {
			// Reported once, straight into the feed so a failing sink
			// cannot recurse through Emit.
			sinkMu.Lock()
			first := !sinkErrorLogged
			sinkErrorLogged = true
			sinkMu.Unlock()
			if first {
				errEvent := Event{
					Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
					Level:     "error",
					Name:      "system.error",
					Message:   "event sink append failed",
					Fields: map[string]interface{}{
						"error": err.Error(),
					},
				}
				live.publish(errEvent)
			}
		}
	}

	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	return b, nil
}

// Snapshot returns every buffered event, oldest first.
func Snapshot() []Event {
	return RecentEvents(0, Filter{})
}

// TotalCount is the number of events emitted since start (or the last Clear).
func TotalCount() int64 {
	return total.Load()
}

// Clear resets the event buffer. Used for testing.
func Clear() {
	live.mu.Lock()
	live.recent.reset()
	live.mu.Unlock()
	total.Store(0)
}
