package mqtt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/AaronLay10/OrbFi/internal/storage"
)

// Notifier publishes orb status as retained messages so runners that
// connect later still see the latest state.
type Notifier struct {
	conn Conn
}

func NewNotifier(conn Conn) *Notifier {
	return &Notifier{conn: conn}
}

// OrbChanged publishes the orb's current status.
func (n *Notifier) OrbChanged(_ context.Context, orb *storage.Orb) error {
	if !n.conn.IsConnected() {
		return fmt.Errorf("publish status for orb %s: not connected", orb.ID)
	}
	payload, err := json.Marshal(NewStatusMessage(orb))
	if err != nil {
		return fmt.Errorf("marshal status for orb %s: %w", orb.ID, err)
	}
	return n.conn.Publish(StatusTopic(orb.ID), true, payload)
}

// OrbRemoved clears the retained status for a deleted orb.
func (n *Notifier) OrbRemoved(_ context.Context, id string) error {
	if !n.conn.IsConnected() {
		return fmt.Errorf("clear status for orb %s: not connected", id)
	}
	return n.conn.Publish(StatusTopic(id), true, nil)
}
