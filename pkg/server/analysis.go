package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/entrhq/qbridge/pkg/qcli"
)

var defaultComprehensiveServices = []string{"EC2", "EBS", "S3", "Lambda", "RDS"}

// analysisResult normalizes a parsed CLI response into the API shape.
// Attribution lists come back nil from the parser and serialize as
// empty arrays here.
func (s *Server) analysisResult(query, queryType, resourceType string, parsed *qcli.ParsedResponse) AnalysisResponse {
	attributions := parsed.SourceAttributions
	if attributions == nil {
		attributions = []string{}
	}
	return AnalysisResponse{
		Query:              query,
		Response:           parsed.Response,
		ConversationID:     parsed.ConversationID,
		SourceAttributions: attributions,
		Timestamp:          s.timestamp(),
		QueryType:          queryType,
		ResourceType:       resourceType,
	}
}

func (s *Server) respondAnalysis(w http.ResponseWriter, query, queryType string, parsed *qcli.ParsedResponse, message string) {
	s.respondData(w, s.analysisResult(query, queryType, "", parsed), message)
}

func (s *Server) handleCostOptimization(w http.ResponseWriter, r *http.Request) {
	if !s.engineReady(w, r) {
		return
	}
	var req CostOptimizationRequest
	if err := decodeJSON(r, w, &req); err != nil {
		s.respondValidationError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.respondValidationError(w, r, err)
		return
	}
	parsed, err := s.engine.QueryCostOptimization(r.Context(), req.Query)
	if err != nil {
		s.respondEngineError(w, r, err)
		return
	}
	s.respondAnalysis(w, req.Query, "cost_optimization", parsed, "Cost optimization analysis completed successfully")
}

func (s *Server) handleUnderutilization(w http.ResponseWriter, r *http.Request) {
	if !s.engineReady(w, r) {
		return
	}
	var req UnderutilizationRequest
	if err := decodeJSON(r, w, &req); err != nil {
		s.respondValidationError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.respondValidationError(w, r, err)
		return
	}
	parsed, err := s.engine.QueryUnderutilization(r.Context(), req.ResourceType, req.TimeRange)
	if err != nil {
		s.respondEngineError(w, r, err)
		return
	}
	query := fmt.Sprintf("Underutilization analysis for %s over %s", req.ResourceType, req.TimeRange)
	message := fmt.Sprintf("Underutilization analysis for %s completed successfully", req.ResourceType)
	s.respondAnalysis(w, query, "underutilization", parsed, message)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if !s.engineReady(w, r) {
		return
	}
	var req ChatRequest
	if err := decodeJSON(r, w, &req); err != nil {
		s.respondValidationError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.respondValidationError(w, r, err)
		return
	}
	parsed, err := s.engine.Chat(r.Context(), req.Message)
	if err != nil {
		s.respondEngineError(w, r, err)
		return
	}
	s.respondAnalysis(w, req.Message, "chat", parsed, "Chat completed successfully")
}

// handleConversation is a placeholder. The CLI does not expose stored
// conversation transcripts yet.
func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	s.respondData(w, map[string]any{
		"conversation_id": conversationID,
		"status":          "placeholder",
		"message":         "Conversation history retrieval not yet implemented",
	}, "Conversation history placeholder")
}

func (s *Server) handleAnalyzeEC2(w http.ResponseWriter, r *http.Request) {
	if !s.engineReady(w, r) {
		return
	}
	timeRange := r.URL.Query().Get("time_range")
	if err := validateTimeRange(&timeRange); err != nil {
		s.respondValidationError(w, r, err)
		return
	}
	parsed, err := s.engine.AnalyzeEC2Underutilization(r.Context(), timeRange)
	if err != nil {
		s.respondEngineError(w, r, err)
		return
	}
	query := fmt.Sprintf("EC2 underutilization analysis for %s", timeRange)
	s.respondAnalysis(w, query, "ec2_analysis", parsed, "EC2 underutilization analysis completed successfully")
}

func (s *Server) handleAnalyzeEBS(w http.ResponseWriter, r *http.Request) {
	if !s.engineReady(w, r) {
		return
	}
	parsed, err := s.engine.AnalyzeEBSUnderutilization(r.Context())
	if err != nil {
		s.respondEngineError(w, r, err)
		return
	}
	s.respondAnalysis(w, "EBS volumes underutilization analysis", "ebs_analysis", parsed, "EBS underutilization analysis completed successfully")
}

func (s *Server) handleAnalyzeS3(w http.ResponseWriter, r *http.Request) {
	if !s.engineReady(w, r) {
		return
	}
	parsed, err := s.engine.AnalyzeS3Underutilization(r.Context())
	if err != nil {
		s.respondEngineError(w, r, err)
		return
	}
	s.respondAnalysis(w, "S3 buckets underutilization analysis", "s3_analysis", parsed, "S3 underutilization analysis completed successfully")
}

func (s *Server) handleAnalyzeLambda(w http.ResponseWriter, r *http.Request) {
	if !s.engineReady(w, r) {
		return
	}
	parsed, err := s.engine.AnalyzeLambdaUnderutilization(r.Context())
	if err != nil {
		s.respondEngineError(w, r, err)
		return
	}
	s.respondAnalysis(w, "Lambda functions underutilization analysis", "lambda_analysis", parsed, "Lambda underutilization analysis completed successfully")
}

func (s *Server) handleAnalyzeRDS(w http.ResponseWriter, r *http.Request) {
	if !s.engineReady(w, r) {
		return
	}
	parsed, err := s.engine.AnalyzeRDSUnderutilization(r.Context())
	if err != nil {
		s.respondEngineError(w, r, err)
		return
	}
	s.respondAnalysis(w, "RDS instances underutilization analysis", "rds_analysis", parsed, "RDS underutilization analysis completed successfully")
}

func (s *Server) handleComprehensive(w http.ResponseWriter, r *http.Request) {
	if !s.engineReady(w, r) {
		return
	}
	var req ComprehensiveRequest
	if err := decodeOptionalJSON(r, w, &req); err != nil {
		s.respondValidationError(w, r, err)
		return
	}
	services := req.Services
	if len(services) == 0 {
		services = defaultComprehensiveServices
	}
	parsed, err := s.engine.ComprehensiveCostAnalysis(r.Context(), services)
	if err != nil {
		s.respondEngineError(w, r, err)
		return
	}
	query := fmt.Sprintf("Comprehensive cost analysis for services: %s", strings.Join(services, ", "))
	message := fmt.Sprintf("Comprehensive cost analysis completed for %d services", len(services))
	s.respondAnalysis(w, query, "comprehensive_analysis", parsed, message)
}
