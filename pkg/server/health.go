package server

import (
	"net/http"
	"time"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"message":     "Amazon Q Wrapper API",
		"version":     apiVersion,
		"description": "Web interface for Amazon Q CLI with Bedrock integration and dashboard generation",
		"endpoints": map[string]string{
			"amazon_q":  "/api/v1/amazon-q",
			"bedrock":   "/api/v1/bedrock",
			"dashboard": "/api/v1/dashboard",
			"health":    "/health",
		},
	})
}

// handleHealth probes each dependency and folds the results into an
// overall status: degraded when anything configured is unreachable,
// partial when optional pieces are simply absent.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	services := map[string]string{}

	switch {
	case s.publisher == nil:
		services["s3"] = "not_configured"
	default:
		if err := s.publisher.CheckAvailability(r.Context()); err != nil {
			s.warnf("S3 health check failed: %v", err)
			services["s3"] = "unavailable"
		} else {
			services["s3"] = "available"
		}
	}

	if s.processor == nil {
		services["bedrock"] = "not_configured"
	} else {
		services["bedrock"] = "available"
	}

	switch {
	case s.engine == nil:
		services["amazon_q_cli"] = "not_configured"
	default:
		if err := s.engine.CheckAvailability(r.Context()); err != nil {
			state := cliProbeState(err)
			s.warnf("Amazon Q CLI health check failed (%s): %v", state, err)
			services["amazon_q_cli"] = state
		} else {
			services["amazon_q_cli"] = "available"
		}
	}

	status := "healthy"
	notConfigured := false
	for _, state := range services {
		switch state {
		case "unavailable", "not_found":
			status = "degraded"
		case "not_configured":
			notConfigured = true
		}
	}
	if status == "healthy" && notConfigured {
		status = "partial"
	}

	respondJSON(w, http.StatusOK, HealthResponse{
		Status:    status,
		Timestamp: s.timestamp(),
		Services:  services,
		Version:   apiVersion,
		Uptime:    time.Since(s.started).Seconds(),
	})
}
