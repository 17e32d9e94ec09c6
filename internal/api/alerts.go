package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"
)

// Alert severity levels
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityInfo     = "info"
)

// Alert event types
const (
	AlertMQTTDisconnected    = "mqtt_disconnected"
	AlertPostgresUnavailable = "postgres_unavailable"
)

// AlertPayload is the JSON structure sent to the webhook.
type AlertPayload struct {
	Service   string                 `json:"service"`
	Instance  string                 `json:"instance"`
	Event     string                 `json:"event"`
	Timestamp string                 `json:"timestamp"`
	Severity  string                 `json:"severity"`
	Message   string                 `json:"message,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// AlertConfig holds alert configuration.
type AlertConfig struct {
	WebhookURL    string
	Service       string
	Instance      string
	MQTTDelay     time.Duration // how long MQTT must be down before alerting
	PostgresDelay time.Duration // how long Postgres must be down before alerting
}

// outage tracks one dependency. An alert fires once the dependency has been
// down for delay, and a recovery alert follows only if one was sent.
type outage struct {
	event    string
	severity string
	label    string
	delay    time.Duration

	up        bool
	downSince time.Time
	alerted   bool
}

// Alerter sends webhook alerts when a dependency stays down.
type Alerter struct {
	cfg    AlertConfig
	client *http.Client
	now    func() time.Time
	send   func(AlertPayload)

	mu       sync.Mutex
	mqtt     *outage
	postgres *outage
}

// NewAlerter creates an Alerter. Without a webhook URL alerts are logged.
func NewAlerter(cfg AlertConfig) *Alerter {
	if cfg.MQTTDelay <= 0 {
		cfg.MQTTDelay = 30 * time.Second
	}
	if cfg.PostgresDelay <= 0 {
		cfg.PostgresDelay = 5 * time.Second
	}
	a := &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		now:    time.Now,
		mqtt: &outage{
			event: AlertMQTTDisconnected, severity: SeverityWarning,
			label: "MQTT broker", delay: cfg.MQTTDelay, up: true,
		},
		postgres: &outage{
			event: AlertPostgresUnavailable, severity: SeverityCritical,
			label: "PostgreSQL", delay: cfg.PostgresDelay, up: true,
		},
	}
	a.send = a.post

	if cfg.WebhookURL != "" {
		log.Printf("alerts: webhook configured (mqtt_delay=%s, pg_delay=%s)", cfg.MQTTDelay, cfg.PostgresDelay)
	}
	return a
}

// Send delivers an alert in the background.
func (a *Alerter) Send(event, severity, message string, details map[string]interface{}) {
	payload := AlertPayload{
		Service:   a.cfg.Service,
		Instance:  a.cfg.Instance,
		Event:     event,
		Timestamp: a.now().UTC().Format(time.RFC3339),
		Severity:  severity,
		Message:   message,
		Details:   details,
	}
	go a.send(payload)
}

func (a *Alerter) post(payload AlertPayload) {
	if a.cfg.WebhookURL == "" {
		log.Printf("[ALERT] %s severity=%s msg=%q details=%v", payload.Event, payload.Severity, payload.Message, payload.Details)
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("alerts: failed to marshal payload: %v", err)
		return
	}
	resp, err := a.client.Post(a.cfg.WebhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("alerts: webhook POST failed: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Printf("alerts: webhook returned status %d", resp.StatusCode)
	}
}

// CheckMQTT records broker state and alerts on a long outage.
func (a *Alerter) CheckMQTT(connected bool) { a.check(a.mqtt, connected) }

// CheckPostgres records database state and alerts on a long outage.
func (a *Alerter) CheckPostgres(connected bool) { a.check(a.postgres, connected) }

func (a *Alerter) check(o *outage, connected bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	now := a.now()

	if connected {
		if !o.up && o.alerted {
			a.Send(o.event, SeverityInfo, o.label+" connection restored", map[string]interface{}{
				"recovered_at": now.UTC().Format(time.RFC3339),
			})
		}
		o.up = true
		o.downSince = time.Time{}
		o.alerted = false
		return
	}

	if o.up {
		o.downSince = now
	}
	o.up = false

	if down := now.Sub(o.downSince); !o.alerted && down >= o.delay {
		o.alerted = true
		a.Send(o.event, o.severity, o.label+" unavailable", map[string]interface{}{
			"disconnected_since":   o.downSince.UTC().Format(time.RFC3339),
			"disconnected_seconds": int(down.Seconds()),
		})
	}
}

// Run polls the readiness state every interval until ctx is done. Only
// dependencies that are not optional are watched.
func (a *Alerter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			readiness.mu.RLock()
			mqttUp, mqttOptional := readiness.mqttConnected, readiness.mqttOptional
			pgUp, pgOptional := readiness.postgresConnected, readiness.postgresOptional
			readiness.mu.RUnlock()

			if !mqttOptional {
				a.CheckMQTT(mqttUp)
			}
			if !pgOptional {
				a.CheckPostgres(pgUp)
			}
		}
	}
}
