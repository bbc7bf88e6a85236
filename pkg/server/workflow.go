package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/entrhq/qbridge/pkg/dashboard"
	"github.com/entrhq/qbridge/pkg/publisher"
	"github.com/entrhq/qbridge/pkg/qcli"
	"github.com/entrhq/qbridge/pkg/summarizer"
)

// handleCompleteWorkflow runs the entire pipeline in one request: the
// CLI queries, an agent processing pass over their combined output, a
// dashboard summary pass, and finally rendering and deployment.
func (s *Server) handleCompleteWorkflow(w http.ResponseWriter, r *http.Request) {
	if !s.engineReady(w, r) || !s.processorReady(w, r) || !s.rendererReady(w, r) || !s.publisherReady(w, r) {
		return
	}
	var req WorkflowRequest
	if err := decodeJSON(r, w, &req); err != nil {
		s.respondValidationError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.respondValidationError(w, r, err)
		return
	}

	workflowID := "workflow-" + uuid.NewString()[:8]
	start := s.now()
	s.infof("starting workflow %s with %d queries", workflowID, len(req.AmazonQQueries))

	results, err := s.runWorkflowQueries(r.Context(), req.AmazonQQueries)
	if err != nil {
		s.respondEngineError(w, r, err)
		return
	}

	objects := make([]map[string]any, 0, len(results))
	for _, result := range results {
		objects = append(objects, result.dataObject())
	}
	processed, err := s.processor.ProcessDataObjects(r.Context(), objects, req.ProcessingType)
	if err != nil {
		s.respondEngineError(w, r, fmt.Errorf("processing analysis results: %w", err))
		return
	}
	summary, err := s.processor.CreateDashboardSummary(r.Context(), processed.Response)
	if err != nil {
		s.respondEngineError(w, r, fmt.Errorf("creating dashboard summary: %w", err))
		return
	}

	// A summarizer that produced no usable output hands back the raw
	// analysis, which renders as the preservation variant instead of
	// being parsed as summary JSON.
	var data *dashboard.SummaryData
	if summary.Status == summarizer.StatusRawDataPreservation {
		data = &dashboard.SummaryData{
			Status:       summary.Status,
			Reason:       "dashboard summary pass returned no output",
			RawInputData: summary.Response,
		}
	} else {
		data = dashboard.ParseSummary(summary.Response)
	}

	// The dashboard name is resolved up front because it feeds both the
	// renderer and the site id.
	dashboardName := dashboard.DefaultName
	if v, ok := req.DashboardConfig["dashboard_name"].(string); ok && v != "" {
		dashboardName = v
	}
	dashboardType := defaultDashboardType
	if v, ok := req.DashboardConfig["type"].(string); ok && v != "" {
		dashboardType = v
	}

	html, err := s.renderer.Render(data, dashboardName)
	if err != nil {
		s.respondEngineError(w, r, fmt.Errorf("dashboard rendering failed: %w", err))
		return
	}

	deployed := s.now()
	siteID := publisher.SiteID(dashboardName, deployed)
	if data.Preserved() {
		siteID = publisher.FallbackSiteID(dashboardName, deployed)
	}
	assets := s.renderer.StaticAssets()
	url, err := s.publisher.UploadStaticSite(r.Context(), html, siteID, assets)
	if err != nil {
		s.respondEngineError(w, r, fmt.Errorf("dashboard deployment failed: %w", err))
		return
	}
	embed := s.publisher.EmbedCode(url, publisher.EmbedOptions{})

	response := WorkflowResponse{
		WorkflowID:     workflowID,
		AmazonQResults: results,
		BedrockProcessing: &ProcessingResponse{
			ProcessedData:  processed.Response,
			ProcessingType: req.ProcessingType,
			SessionID:      "session-" + workflowID,
			Timestamp:      s.timestamp(),
			Metadata: map[string]any{
				"input_queries_count": len(results),
			},
		},
		Dashboard: &DashboardResponse{
			DashboardURL:  url,
			SiteID:        siteID,
			EmbedCode:     embed,
			DashboardType: dashboardType,
			Timestamp:     s.timestamp(),
			Title:         fmt.Sprintf("Cost Analysis Dashboard - %s UTC", deployed.UTC().Format("2006-01-02 15:04:05")),
			Metadata:      req.DashboardConfig,
		},
		TotalExecutionTime: s.now().Sub(start).Seconds(),
		Timestamp:          s.timestamp(),
		Status:             "completed",
	}
	message := fmt.Sprintf("Cost Analysis Dashboard '%s' generated successfully. Available at: %s", siteID, url)
	s.respondData(w, response, message)
}

// runWorkflowQueries executes each workflow step in order. Cost-shaped
// steps with resource types fan out into one analysis per type; the
// first failing query aborts the workflow.
func (s *Server) runWorkflowQueries(ctx context.Context, queries []WorkflowQuery) ([]AnalysisResponse, error) {
	results := make([]AnalysisResponse, 0, len(queries))
	for i, query := range queries {
		s.infof("running workflow query %d/%d", i+1, len(queries))
		switch {
		case query.Query != "" && len(query.ResourceTypes) > 0:
			for _, resourceType := range query.ResourceTypes {
				result, err := s.runResourceAnalysis(ctx, query, resourceType)
				if err != nil {
					return nil, err
				}
				results = append(results, result)
			}
		case query.Query != "":
			parsed, err := s.engine.QueryCostOptimization(ctx, query.Query)
			if err != nil {
				return nil, err
			}
			results = append(results, s.analysisResult(query.Query, "cost_optimization", "", parsed))
		default:
			parsed, err := s.engine.QueryUnderutilization(ctx, query.ResourceType, query.TimeRange)
			if err != nil {
				return nil, err
			}
			described := fmt.Sprintf("Underutilization analysis for %s", query.ResourceType)
			results = append(results, s.analysisResult(described, "underutilization", "", parsed))
		}
	}
	return results, nil
}

// runResourceAnalysis dispatches one resource type of a cost-shaped
// workflow step to its dedicated analysis when one exists, and to a
// focused cost optimization query otherwise.
func (s *Server) runResourceAnalysis(ctx context.Context, query WorkflowQuery, resourceType string) (AnalysisResponse, error) {
	var (
		parsed    *qcli.ParsedResponse
		err       error
		queryType string
		described string
	)
	upper := strings.ToUpper(resourceType)
	switch upper {
	case "EC2":
		parsed, err = s.engine.AnalyzeEC2Underutilization(ctx, query.TimeRange)
		queryType = "ec2_analysis"
		described = fmt.Sprintf("EC2 underutilization analysis - %s", query.Query)
	case "EBS":
		parsed, err = s.engine.AnalyzeEBSUnderutilization(ctx)
		queryType = "ebs_analysis"
		described = fmt.Sprintf("EBS underutilization analysis - %s", query.Query)
	case "S3":
		parsed, err = s.engine.AnalyzeS3Underutilization(ctx)
		queryType = "s3_analysis"
		described = fmt.Sprintf("S3 underutilization analysis - %s", query.Query)
	case "LAMBDA":
		parsed, err = s.engine.AnalyzeLambdaUnderutilization(ctx)
		queryType = "lambda_analysis"
		described = fmt.Sprintf("Lambda underutilization analysis - %s", query.Query)
	case "RDS":
		parsed, err = s.engine.AnalyzeRDSUnderutilization(ctx)
		queryType = "rds_analysis"
		described = fmt.Sprintf("RDS underutilization analysis - %s", query.Query)
	default:
		parsed, err = s.engine.QueryCostOptimization(ctx, fmt.Sprintf("%s - Focus on %s", query.Query, resourceType))
		queryType = "cost_optimization"
		described = fmt.Sprintf("%s cost optimization - %s", resourceType, query.Query)
	}
	if err != nil {
		return AnalysisResponse{}, err
	}
	return s.analysisResult(described, queryType, upper, parsed), nil
}
