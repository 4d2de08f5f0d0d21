package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/social-apps/backend/internal/api/middleware"
)

// Pinger checks a backing connection.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status         string `json:"status"`
	DBConnected    bool   `json:"db_connected"`
	RedisConnected *bool  `json:"redis_connected,omitempty"`
}

// HealthCheck returns a handler that performs a health check. redis may be nil
// when the Redis stream sink is disabled.
func HealthCheck(db Pinger, redis Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		dbConnected := db.PingContext(ctx) == nil

		response := HealthResponse{
			Status:      "healthy",
			DBConnected: dbConnected,
		}
		if !dbConnected {
			response.Status = "degraded"
		}
		if redis != nil {
			ok := redis.PingContext(ctx) == nil
			response.RedisConnected = &ok
			if !ok {
				response.Status = "degraded"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if response.Status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(response)
	}
}

// ClientCounter reports connected WebSocket clients.
type ClientCounter interface {
	ClientCount() int
}

// NextRunner reports the next scheduled reindex.
type NextRunner interface {
	NextRun() *time.Time
}

// StatusResponse represents the system status response.
type StatusResponse struct {
	WebSocketClients int    `json:"websocket_clients"`
	NextReindexAt    string `json:"next_reindex_at,omitempty"`
}

// Status returns live counters of the running server.
func Status(hub ClientCounter, scheduler NextRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := StatusResponse{WebSocketClients: hub.ClientCount()}
		if scheduler != nil {
			if next := scheduler.NextRun(); next != nil {
				response.NextReindexAt = next.UTC().Format(time.RFC3339)
			}
		}
		middleware.Resolve(w, response)
	}
}
