package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
)

type readinessState struct {
	mu                sync.RWMutex
	studioReady       bool
	mqttConnected     bool
	mqttOptional      bool
	postgresConnected bool
	postgresOptional  bool
}

var readiness = &readinessState{}

// SetStudioReady marks the block registry and template catalog as loaded.
func SetStudioReady(ready bool) {
	readiness.mu.Lock()
	defer readiness.mu.Unlock()
	readiness.studioReady = ready
}

// SetMQTTState records broker connectivity. An optional broker that is
// down does not make the service unready.
func SetMQTTState(connected, optional bool) {
	readiness.mu.Lock()
	defer readiness.mu.Unlock()
	readiness.mqttConnected = connected
	readiness.mqttOptional = optional
}

// SetPostgresState records database connectivity.
func SetPostgresState(connected, optional bool) {
	readiness.mu.Lock()
	defer readiness.mu.Unlock()
	readiness.postgresConnected = connected
	readiness.postgresOptional = optional
}

func mqttConnected() bool {
	readiness.mu.RLock()
	defer readiness.mu.RUnlock()
	return readiness.mqttConnected
}

func postgresConnected() bool {
	readiness.mu.RLock()
	defer readiness.mu.RUnlock()
	return readiness.postgresConnected
}

type CheckResult struct {
	Status string `json:"status"`
}

type ReadinessResponse struct {
	Ready       bool                   `json:"ready"`
	Checks      map[string]CheckResult `json:"checks"`
	NotReadyMsg string                 `json:"message,omitempty"`
}

func dependencyCheck(connected, optional bool) (CheckResult, bool) {
	switch {
	case connected:
		return CheckResult{Status: "ok"}, true
	case optional:
		return CheckResult{Status: "unavailable"}, true
	default:
		return CheckResult{Status: "disconnected"}, false
	}
}

func readyHandler(w http.ResponseWriter, r *http.Request) {
	readiness.mu.RLock()
	studioReady := readiness.studioReady
	mqttCheck, mqttOK := dependencyCheck(readiness.mqttConnected, readiness.mqttOptional)
	pgCheck, pgOK := dependencyCheck(readiness.postgresConnected, readiness.postgresOptional)
	readiness.mu.RUnlock()

	resp := ReadinessResponse{
		Ready:  true,
		Checks: make(map[string]CheckResult, 3),
	}
	var reasons []string

	if studioReady {
		resp.Checks["studio"] = CheckResult{Status: "ok"}
	} else {
		resp.Checks["studio"] = CheckResult{Status: "not_ready"}
		resp.Ready = false
		reasons = append(reasons, "studio not ready")
	}

	resp.Checks["mqtt"] = mqttCheck
	if !mqttOK {
		resp.Ready = false
		reasons = append(reasons, "mqtt not connected")
	}

	resp.Checks["postgres"] = pgCheck
	if !pgOK {
		resp.Ready = false
		reasons = append(reasons, "postgres not connected")
	}

	w.Header().Set("Content-Type", "application/json")
	if !resp.Ready {
		resp.NotReadyMsg = strings.Join(reasons, "; ")
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(resp)
}
