package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	defaultTimeRange      = "30d"
	defaultProcessingType = "analysis"
	defaultDashboardType  = "cost_optimization"

	maxWorkflowQueries = 10
	maxBulkObjects     = 50
	maxBulkBytes       = 1 << 20
)

var (
	// Angle brackets and quotes have no place in an analysis query and
	// are the cheapest tell of a markup or quoting injection attempt.
	harmfulQueryChars = regexp.MustCompile(`[<>"']`)

	// Time ranges look like "30d", "12h", "1w", "6m", or "1y".
	timeRangePattern = regexp.MustCompile(`^\d+[dhwmy]$`)

	// Dashboard names become S3 key prefixes, so only key-safe
	// characters are allowed.
	dashboardNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

var resourceTypes = []string{"EC2", "RDS", "S3", "EBS", "Lambda", "ELB", "CloudFront", "ElastiCache"}

var processingTypes = []string{"summary", "analysis", "report", "dashboard_summary"}

var dashboardTypes = []string{defaultDashboardType, "utilization", "general"}

// canonicalResourceType resolves name against the supported resource
// types without regard to case and returns the canonical spelling.
func canonicalResourceType(name string) (string, bool) {
	for _, rt := range resourceTypes {
		if strings.EqualFold(rt, name) {
			return rt, true
		}
	}
	return "", false
}

func oneOf(value string, allowed []string) bool {
	for _, candidate := range allowed {
		if value == candidate {
			return true
		}
	}
	return false
}

func validateQuery(query string) error {
	if harmfulQueryChars.MatchString(query) {
		return errors.New("query contains invalid characters")
	}
	if len(query) < 10 {
		return errors.New("query must be at least 10 characters")
	}
	if len(query) > 1000 {
		return errors.New("query must be at most 1000 characters")
	}
	return nil
}

func validateTimeRange(timeRange *string) error {
	if *timeRange == "" {
		*timeRange = defaultTimeRange
		return nil
	}
	if !timeRangePattern.MatchString(*timeRange) {
		return fmt.Errorf("time range %q must look like '30d', '1w', or '1m'", *timeRange)
	}
	return nil
}

func validateProcessingType(processingType string) error {
	if !oneOf(processingType, processingTypes) {
		return fmt.Errorf("processing type must be one of: %s", strings.Join(processingTypes, ", "))
	}
	return nil
}

// CostOptimizationRequest asks for a cost optimization analysis scoped
// by an optional lookback window and resource type focus.
type CostOptimizationRequest struct {
	Query         string   `json:"query"`
	TimeRange     string   `json:"time_range"`
	ResourceTypes []string `json:"resource_types"`
}

func (r *CostOptimizationRequest) Validate() error {
	r.Query = strings.TrimSpace(r.Query)
	if err := validateQuery(r.Query); err != nil {
		return err
	}
	return validateTimeRange(&r.TimeRange)
}

// UnderutilizationRequest asks for an underutilization analysis of one
// resource type.
type UnderutilizationRequest struct {
	ResourceType         string   `json:"resource_type"`
	TimeRange            string   `json:"time_range"`
	UtilizationThreshold *float64 `json:"utilization_threshold"`
}

func (r *UnderutilizationRequest) Validate() error {
	canonical, ok := canonicalResourceType(r.ResourceType)
	if !ok {
		return fmt.Errorf("resource type must be one of: %s", strings.Join(resourceTypes, ", "))
	}
	r.ResourceType = canonical
	if r.UtilizationThreshold != nil && (*r.UtilizationThreshold < 0 || *r.UtilizationThreshold > 100) {
		return errors.New("utilization threshold must be between 0 and 100")
	}
	return validateTimeRange(&r.TimeRange)
}

// ChatRequest carries a free-form message for the chat endpoint.
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
}

func (r *ChatRequest) Validate() error {
	r.Message = strings.TrimSpace(r.Message)
	if r.Message == "" {
		return errors.New("message cannot be empty")
	}
	return nil
}

// ComprehensiveRequest optionally narrows the comprehensive analysis to
// a subset of services. An empty body analyzes the default set.
type ComprehensiveRequest struct {
	Services []string `json:"services"`
}

// ProcessRequest submits raw analysis objects for agent processing.
type ProcessRequest struct {
	DataObjects    []map[string]any `json:"data_objects"`
	ProcessingType string           `json:"processing_type"`
}

func (r *ProcessRequest) Validate() error {
	if len(r.DataObjects) == 0 {
		return errors.New("at least one data object is required")
	}
	for i, obj := range r.DataObjects {
		if len(obj) == 0 {
			return fmt.Errorf("data object at index %d must be a non-empty object", i)
		}
	}
	return validateProcessingType(r.ProcessingType)
}

// DashboardSummaryRequest turns already-processed analysis text into a
// dashboard-ready summary.
type DashboardSummaryRequest struct {
	ProcessedData string `json:"processed_data"`
}

func (r *DashboardSummaryRequest) Validate() error {
	r.ProcessedData = strings.TrimSpace(r.ProcessedData)
	if r.ProcessedData == "" {
		return errors.New("processed data cannot be empty")
	}
	return nil
}

// BulkProcessRequest processes a larger object set in fixed-size
// batches.
type BulkProcessRequest struct {
	DataObjects       []map[string]any `json:"data_objects"`
	BatchSize         int              `json:"batch_size"`
	ProcessingOptions map[string]any   `json:"processing_options"`
}

func (r *BulkProcessRequest) Validate() error {
	if len(r.DataObjects) == 0 {
		return errors.New("at least one data object is required")
	}
	if len(r.DataObjects) > maxBulkObjects {
		return fmt.Errorf("a maximum of %d data objects is allowed per request", maxBulkObjects)
	}
	if r.BatchSize == 0 {
		r.BatchSize = 5
	}
	if r.BatchSize < 1 || r.BatchSize > 10 {
		return errors.New("batch size must be between 1 and 10")
	}
	total := 0
	for _, obj := range r.DataObjects {
		encoded, err := json.Marshal(obj)
		if err != nil {
			return fmt.Errorf("data object is not serializable: %w", err)
		}
		total += len(encoded)
	}
	if total > maxBulkBytes {
		return errors.New("total data size exceeds the 1MB limit")
	}
	return nil
}

// GenerateDashboardRequest renders summary data into a dashboard and
// deploys it.
type GenerateDashboardRequest struct {
	SummaryData   map[string]any `json:"summary_data"`
	DashboardType string         `json:"dashboard_type"`
	DashboardName string         `json:"dashboard_name"`
	Title         string         `json:"title"`
	EmbedOptions  map[string]any `json:"embed_options"`
}

var embedOptionKeys = []string{"width", "height", "frameborder", "allowfullscreen"}

func (r *GenerateDashboardRequest) Validate() error {
	if len(r.SummaryData) == 0 {
		return errors.New("summary data must be a non-empty object")
	}
	if r.DashboardType == "" {
		r.DashboardType = defaultDashboardType
	}
	if !oneOf(r.DashboardType, dashboardTypes) {
		return fmt.Errorf("dashboard type must be one of: %s", strings.Join(dashboardTypes, ", "))
	}
	if err := validateDashboardName(&r.DashboardName); err != nil {
		return err
	}
	if len(r.Title) > 100 {
		return errors.New("title must be at most 100 characters")
	}
	for key := range r.EmbedOptions {
		if !oneOf(key, embedOptionKeys) {
			return fmt.Errorf("invalid embed option %q, allowed: %s", key, strings.Join(embedOptionKeys, ", "))
		}
	}
	return nil
}

func validateDashboardName(name *string) error {
	*name = strings.TrimSpace(*name)
	if *name == "" {
		*name = "costAnalysis"
		return nil
	}
	if len(*name) > 50 {
		return errors.New("dashboard name must be at most 50 characters")
	}
	if !dashboardNamePattern.MatchString(*name) {
		return errors.New("dashboard name may only contain letters, numbers, underscores, and dashes")
	}
	return nil
}

// WorkflowQuery is one step of a complete workflow. A step with a query
// runs cost optimization, optionally fanned out per resource type; a
// step with only a resource type runs an underutilization analysis.
type WorkflowQuery struct {
	Query                string   `json:"query"`
	TimeRange            string   `json:"time_range"`
	ResourceTypes        []string `json:"resource_types"`
	ResourceType         string   `json:"resource_type"`
	UtilizationThreshold *float64 `json:"utilization_threshold"`
}

func (q *WorkflowQuery) validate(index int) error {
	q.Query = strings.TrimSpace(q.Query)
	if q.Query == "" && q.ResourceType == "" {
		return fmt.Errorf("query at index %d must provide either a query or a resource_type", index)
	}
	if q.Query != "" {
		if err := validateQuery(q.Query); err != nil {
			return fmt.Errorf("query at index %d: %w", index, err)
		}
	} else {
		canonical, ok := canonicalResourceType(q.ResourceType)
		if !ok {
			return fmt.Errorf("query at index %d: resource type must be one of: %s", index, strings.Join(resourceTypes, ", "))
		}
		q.ResourceType = canonical
		if q.UtilizationThreshold != nil && (*q.UtilizationThreshold < 0 || *q.UtilizationThreshold > 100) {
			return fmt.Errorf("query at index %d: utilization threshold must be between 0 and 100", index)
		}
	}
	if err := validateTimeRange(&q.TimeRange); err != nil {
		return fmt.Errorf("query at index %d: %w", index, err)
	}
	return nil
}

// WorkflowRequest runs the full pipeline: CLI queries, agent
// processing, and dashboard deployment in one request.
type WorkflowRequest struct {
	AmazonQQueries  []WorkflowQuery `json:"amazon_q_queries"`
	ProcessingType  string          `json:"processing_type"`
	DashboardConfig map[string]any  `json:"dashboard_config"`
}

func (r *WorkflowRequest) Validate() error {
	if len(r.AmazonQQueries) == 0 {
		return errors.New("at least one analysis query is required")
	}
	if len(r.AmazonQQueries) > maxWorkflowQueries {
		return fmt.Errorf("a maximum of %d queries is allowed per workflow", maxWorkflowQueries)
	}
	for i := range r.AmazonQQueries {
		if err := r.AmazonQQueries[i].validate(i); err != nil {
			return err
		}
	}
	if r.ProcessingType == "" {
		r.ProcessingType = defaultProcessingType
	}
	if err := validateProcessingType(r.ProcessingType); err != nil {
		return err
	}
	// The dashboard name from the config reaches S3 keys the same way
	// the explicit generate endpoint's name does, so it gets the same
	// character policy.
	if raw, ok := r.DashboardConfig["dashboard_name"]; ok {
		name, ok := raw.(string)
		if !ok {
			return errors.New("dashboard_name in dashboard_config must be a string")
		}
		if err := validateDashboardName(&name); err != nil {
			return err
		}
		r.DashboardConfig["dashboard_name"] = name
	}
	return nil
}
