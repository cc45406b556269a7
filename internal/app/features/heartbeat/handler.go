// internal/app/features/heartbeat/handler.go
package heartbeat

import (
	"encoding/json"
	"net/http"
	"time"
)

// Handler answers liveness probes. Unlike /health it touches nothing:
// a 200 here means only that the process is serving requests.
type Handler struct {
	started time.Time
}

func NewHandler() *Handler {
	return &Handler{started: time.Now().UTC()}
}

// Serve handles GET /heartbeat.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": "alive",
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}
