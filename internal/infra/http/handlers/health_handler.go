package handlers

import (
	"fmt"
	"net/http"
	"time"
)

// Checker reports whether a dependency is usable.
type Checker interface {
	Check() error
}

type HealthHandler struct {
	Store     Checker
	Broker    Checker
	StartTime time.Time
}

type HealthResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	Uptime       string            `json:"uptime"`
	Dependencies map[string]string `json:"dependencies"`
}

// NewHealthHandler accepts a nil broker when notifications do not go through RabbitMQ.
func NewHealthHandler(store Checker, broker Checker) *HealthHandler {
	return &HealthHandler{
		Store:     store,
		Broker:    broker,
		StartTime: time.Now(),
	}
}

func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	deps := make(map[string]string)

	deps["store"] = check(h.Store)
	deps["rabbitmq"] = check(h.Broker)

	status := "healthy"
	for _, v := range deps {
		if v != "healthy" && v != "not configured" {
			status = "degraded"
			break
		}
	}

	response := HealthResponse{
		Status:       status,
		Version:      "1.0.0",
		Uptime:       time.Since(h.StartTime).Round(time.Second).String(),
		Dependencies: deps,
	}

	code := http.StatusOK
	if status == "degraded" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, response)
}

func check(c Checker) string {
	if c == nil {
		return "not configured"
	}
	if err := c.Check(); err != nil {
		return fmt.Sprintf("unhealthy: %v", err)
	}
	return "healthy"
}
