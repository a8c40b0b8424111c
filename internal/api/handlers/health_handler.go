package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// HealthHandler reports service liveness plus a host resource snapshot.
type HealthHandler struct {
	db      *sql.DB
	started time.Time
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db, started: time.Now()}
}

// HealthResponse is the body returned by GET /health.
type HealthResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds int64   `json:"uptimeSeconds"`
	Database      string  `json:"database"`
	CPUPercent    float64 `json:"cpuPercent"`
	MemPercent    float64 `json:"memPercent"`
}

// Get handles the health check request.
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:        "UP",
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Database:      "UP",
	}

	status := http.StatusOK
	if err := h.db.Ping(); err != nil {
		resp.Status = "DOWN"
		resp.Database = "DOWN"
		status = http.StatusServiceUnavailable
	}

	// Host stats are best effort; a sampling failure is not unhealthy.
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		resp.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		resp.MemPercent = vm.UsedPercent
	}

	respondJSON(w, status, resp)
}
