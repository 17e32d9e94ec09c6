package mqtt

import (
	"context"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/AaronLay10/OrbFi/internal/events"
	"github.com/AaronLay10/OrbFi/internal/storage"
)

// PerformanceRecorder stores performance snapshots.
type PerformanceRecorder interface {
	RecordPerformance(ctx context.Context, id string, perf storage.Performance) (*storage.Orb, error)
}

// PerformanceSubscriber feeds runner performance reports into the store.
// Subscribing is idempotent across reconnects.
type PerformanceSubscriber struct {
	mu         sync.Mutex
	conn       Conn
	recorder   PerformanceRecorder
	timeout    time.Duration
	subscribed bool
}

func NewPerformanceSubscriber(conn Conn, recorder PerformanceRecorder) *PerformanceSubscriber {
	return &PerformanceSubscriber{
		conn:     conn,
		recorder: recorder,
		timeout:  5 * time.Second,
	}
}

// Subscribe subscribes to PerformanceFilter unless already subscribed.
func (s *PerformanceSubscriber) Subscribe() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subscribed {
		return nil
	}
	if err := s.conn.Subscribe(PerformanceFilter, s.handle); err != nil {
		return err
	}
	s.subscribed = true
	return nil
}

// IsSubscribed reports whether the filter is currently subscribed.
func (s *PerformanceSubscriber) IsSubscribed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subscribed
}

// Reset forgets the subscription. Call it when the connection drops so
// the next connect subscribes again.
func (s *PerformanceSubscriber) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribed = false
}

func (s *PerformanceSubscriber) handle(_ paho.Client, msg paho.Message) {
	topic := msg.Topic()
	orbID, ok := OrbIDFromTopic(topic)
	if !ok {
		s.reject(topic, "", "unexpected topic")
		return
	}

	report, err := ParsePerformance(msg.Payload())
	if err != nil {
		s.reject(topic, orbID, err.Error())
		return
	}
	if result := ValidatePerformance(report); !result.Valid {
		events.Emit("error", "mqtt.error", "performance report rejected", map[string]interface{}{
			"orb_id": orbID,
			"topic":  topic,
			"errors": result.Errors,
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if _, err := s.recorder.RecordPerformance(ctx, orbID, report.Performance()); err != nil {
		s.reject(topic, orbID, err.Error())
	}
}

func (s *PerformanceSubscriber) reject(topic, orbID, reason string) {
	fields := map[string]interface{}{
		"topic": topic,
		"error": reason,
	}
	if orbID != "" {
		fields["orb_id"] = orbID
	}
	events.Emit("error", "mqtt.error", "performance report rejected", fields)
}
