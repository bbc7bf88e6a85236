package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if !s.processorReady(w, r) {
		return
	}
	var req ProcessRequest
	if err := decodeJSON(r, w, &req); err != nil {
		s.respondValidationError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.respondValidationError(w, r, err)
		return
	}
	result, err := s.processor.ProcessDataObjects(r.Context(), req.DataObjects, req.ProcessingType)
	if err != nil {
		s.respondEngineError(w, r, err)
		return
	}
	s.respondData(w, ProcessingResponse{
		ProcessedData:  result.Response,
		ProcessingType: result.ProcessingType,
		SessionID:      result.SessionID,
		Timestamp:      s.timestamp(),
		Metadata: map[string]any{
			"input_objects_count": len(req.DataObjects),
			"provider":            result.Provider,
			"chunks":              result.Chunks,
			"status":              result.Status,
		},
	}, fmt.Sprintf("Successfully processed %d data objects", len(req.DataObjects)))
}

func (s *Server) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	if !s.processorReady(w, r) {
		return
	}
	var req DashboardSummaryRequest
	if err := decodeJSON(r, w, &req); err != nil {
		s.respondValidationError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.respondValidationError(w, r, err)
		return
	}
	result, err := s.processor.CreateDashboardSummary(r.Context(), req.ProcessedData)
	if err != nil {
		s.respondEngineError(w, r, err)
		return
	}

	// Agents asked for dashboard JSON usually answer with JSON, but a
	// prose answer is passed through untouched rather than rejected.
	var processedData any = result.Response
	structured := false
	var decoded any
	if err := json.Unmarshal([]byte(result.Response), &decoded); err == nil {
		processedData = decoded
		_, structured = decoded.(map[string]any)
	}

	s.respondData(w, ProcessingResponse{
		ProcessedData:  processedData,
		ProcessingType: result.ProcessingType,
		SessionID:      result.SessionID,
		Timestamp:      s.timestamp(),
		Metadata: map[string]any{
			"is_structured": structured,
			"provider":      result.Provider,
			"status":        result.Status,
		},
	}, "Dashboard summary created successfully")
}

func (s *Server) handleBulkProcess(w http.ResponseWriter, r *http.Request) {
	if !s.processorReady(w, r) {
		return
	}
	var req BulkProcessRequest
	if err := decodeJSON(r, w, &req); err != nil {
		s.respondValidationError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.respondValidationError(w, r, err)
		return
	}

	batchResults := make([]map[string]any, 0, (len(req.DataObjects)+req.BatchSize-1)/req.BatchSize)
	for start := 0; start < len(req.DataObjects); start += req.BatchSize {
		end := min(start+req.BatchSize, len(req.DataObjects))
		batch := req.DataObjects[start:end]
		batchNumber := start/req.BatchSize + 1
		s.infof("processing batch %d with %d objects", batchNumber, len(batch))

		result, err := s.processor.ProcessDataObjects(r.Context(), batch, defaultProcessingType)
		if err != nil {
			s.respondEngineError(w, r, fmt.Errorf("batch %d: %w", batchNumber, err))
			return
		}
		batchResults = append(batchResults, map[string]any{
			"batch_number":      batchNumber,
			"objects_processed": len(batch),
			"result":            result.Response,
		})
	}

	s.respondData(w, map[string]any{
		"total_objects":      len(req.DataObjects),
		"total_batches":      len(batchResults),
		"batch_size":         req.BatchSize,
		"batch_results":      batchResults,
		"processing_options": req.ProcessingOptions,
		"timestamp":          s.timestamp(),
	}, fmt.Sprintf("Bulk processing completed: %d objects in %d batches", len(req.DataObjects), len(batchResults)))
}

// handleSessionStatus is a placeholder. Agent sessions are one-shot
// today, so there is no stored state to report.
func (s *Server) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	s.respondData(w, map[string]any{
		"session_id": sessionID,
		"status":     "placeholder",
		"message":    "Session status tracking not yet implemented",
	}, "Session status placeholder")
}
