package server

// AnalysisResponse is one CLI analysis result. ResourceType is set only
// on workflow steps that fanned out per resource type.
type AnalysisResponse struct {
	Query              string   `json:"query"`
	Response           string   `json:"response"`
	ConversationID     string   `json:"conversation_id"`
	SourceAttributions []string `json:"source_attributions"`
	Timestamp          string   `json:"timestamp"`
	QueryType          string   `json:"query_type"`
	ResourceType       string   `json:"resource_type,omitempty"`
}

// dataObject flattens the result into the shape the processing agent
// receives.
func (a AnalysisResponse) dataObject() map[string]any {
	obj := map[string]any{
		"query":               a.Query,
		"response":            a.Response,
		"conversation_id":     a.ConversationID,
		"source_attributions": a.SourceAttributions,
		"timestamp":           a.Timestamp,
		"query_type":          a.QueryType,
	}
	if a.ResourceType != "" {
		obj["resource_type"] = a.ResourceType
	}
	return obj
}

// ProcessingResponse is the outcome of an agent processing pass.
// ProcessedData is a decoded object when the agent answered with JSON
// and the raw string otherwise.
type ProcessingResponse struct {
	ProcessedData  any            `json:"processed_data"`
	ProcessingType string         `json:"processing_type"`
	SessionID      string         `json:"session_id"`
	Timestamp      string         `json:"timestamp"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// DashboardResponse describes a deployed dashboard.
type DashboardResponse struct {
	DashboardURL  string         `json:"dashboard_url"`
	SiteID        string         `json:"site_id"`
	EmbedCode     string         `json:"embed_code"`
	DashboardType string         `json:"dashboard_type"`
	Timestamp     string         `json:"timestamp"`
	Title         string         `json:"title,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// WorkflowResponse is the combined record of a complete workflow run.
type WorkflowResponse struct {
	WorkflowID         string              `json:"workflow_id"`
	AmazonQResults     []AnalysisResponse  `json:"amazon_q_results"`
	BedrockProcessing  *ProcessingResponse `json:"bedrock_processing"`
	Dashboard          *DashboardResponse  `json:"dashboard"`
	TotalExecutionTime float64             `json:"total_execution_time"`
	Timestamp          string              `json:"timestamp"`
	Status             string              `json:"status"`
}

// HealthResponse reports per-dependency availability. It is served
// without the success envelope so load balancer probes can read it
// directly.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Version   string            `json:"version"`
	Uptime    float64           `json:"uptime,omitempty"`
}
