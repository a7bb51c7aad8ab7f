package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/marquee/internal/repository"
)

const healthPingTimeout = 2 * time.Second

// HealthHandler reports liveness and database reachability.
type HealthHandler struct {
	database    repository.DatabaseHealth
	environment string
	started     time.Time
	now         func() time.Time
	logger      zerolog.Logger
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Database    string    `json:"database"`
	Uptime      float64   `json:"uptime"`
	Environment string    `json:"environment"`
}

// ServeHTTP answers 200 when the database responds to a ping and 503 otherwise.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	resp := HealthResponse{
		Status:      "OK",
		Timestamp:   now.UTC(),
		Database:    "connected",
		Uptime:      now.Sub(h.started).Seconds(),
		Environment: h.environment,
	}

	status := http.StatusOK
	if h.database != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		defer cancel()

		if err := h.database.Ping(ctx); err != nil {
			h.logger.Warn().Err(err).Msg("Health check database ping failed")
			resp.Status = "UNAVAILABLE"
			resp.Database = "disconnected"
			status = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, status, resp)
}
