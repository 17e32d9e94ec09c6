package events

import "fmt"

var allowedEvents = map[string]struct{}{
	// draft
	"draft.created":   {},
	"draft.saved":     {},
	"draft.renamed":   {},
	"draft.discarded": {},

	// orb
	"orb.published":   {},
	"orb.status":      {},
	"orb.performance": {},
	"orb.deleted":     {},

	// editor
	"editor.opened":      {},
	"editor.load_failed": {},
	"editor.autosaved":   {},
	"editor.save_failed": {},
	"editor.closed":      {},

	// template
	"template.reloaded": {},
	"template.error":    {},

	// mqtt
	"mqtt.connected":    {},
	"mqtt.disconnected": {},
	"mqtt.error":        {},

	// system
	"system.startup":  {},
	"system.shutdown": {},
	"system.error":    {},
}

func Validate(event string) error {
	if _, ok := allowedEvents[event]; !ok {
		return fmt.Errorf("unknown event: %s", event)
	}
	return nil
}
