package controllers

import (
	"net/http"
	"time"
)

var startedAt = time.Now()

// Health answers liveness probes; it touches no dependencies so a waking
// instance reports ready as soon as it can serve requests
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(startedAt).Round(time.Second).String(),
	})
}
