package dashboard

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Statuses that route rendering to the raw-data debug dashboard.
const (
	statusRawDataFallback     = "raw_data_fallback"
	statusRawDataPreservation = "raw_data_preservation"
)

// Amount is a money or count value from agent JSON, which arrives as either
// a bare number or a formatted string ("400", 400, "$1,200/month").
type Amount string

func (a *Amount) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*a = Amount(strings.TrimSpace(s))
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("amount must be a number or string: %w", err)
	}
	*a = Amount(strconv.FormatFloat(n, 'f', -1, 64))
	return nil
}

// Value parses the numeric magnitude, tolerating "$" prefixes, comma
// grouping, and trailing units. Unparseable amounts report 0.
func (a Amount) Value() float64 {
	s := strings.TrimSpace(string(a))
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if i := strings.IndexFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	}); i >= 0 {
		s = s[:i]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// TotalSavings aggregates the savings headline metrics.
type TotalSavings struct {
	MonthlySavings           Amount `json:"monthly_savings"`
	YearlySavings            Amount `json:"yearly_savings"`
	NumberOfOpportunities    Amount `json:"number_of_opportunities"`
	HighestSingleSaving      Amount `json:"highest_single_saving"`
	ImplementationDifficulty string `json:"implementation_difficulty"`

	// Extraction-pass spellings.
	MonthlyTotal Amount `json:"monthly_total"`
	YearlyTotal  Amount `json:"yearly_total"`
}

func (t *TotalSavings) normalize() {
	if t.MonthlySavings == "" {
		t.MonthlySavings = t.MonthlyTotal
	}
	if t.YearlySavings == "" {
		t.YearlySavings = t.YearlyTotal
	}
}

func (t *TotalSavings) empty() bool {
	return t.MonthlySavings == "" && t.YearlySavings == "" &&
		t.NumberOfOpportunities == "" && t.HighestSingleSaving == ""
}

// Recommendation is one actionable cost finding. Field pairs cover both
// agent passes; normalization collapses them onto the canonical names.
type Recommendation struct {
	Rank               int      `json:"rank"`
	ResourceID         string   `json:"resource_id"`
	ResourceType       string   `json:"resource_type"`
	MonthlySaving      Amount   `json:"monthly_saving"`
	ActionSummary      string   `json:"action_summary"`
	ImplementationTime string   `json:"implementation_time"`
	RiskAssessment     string   `json:"risk_assessment"`
	StepByStep         []string `json:"step_by_step"`

	// Extraction-pass spellings.
	PotentialMonthlySaving Amount   `json:"potential_monthly_saving"`
	ActionRequired         string   `json:"action_required"`
	RiskLevel              string   `json:"risk_level"`
	ImplementationSteps    []string `json:"implementation_steps"`
	CurrentMonthlyCost     Amount   `json:"current_monthly_cost"`
	ConfidenceLevel        string   `json:"confidence_level"`
}

func (r *Recommendation) normalize(rank int) {
	if r.Rank == 0 {
		r.Rank = rank
	}
	if r.MonthlySaving == "" {
		r.MonthlySaving = r.PotentialMonthlySaving
	}
	if r.ActionSummary == "" {
		r.ActionSummary = r.ActionRequired
	}
	if r.RiskAssessment == "" {
		r.RiskAssessment = r.RiskLevel
	}
	if len(r.StepByStep) == 0 {
		r.StepByStep = r.ImplementationSteps
	}
}

// QuickWin is a low-effort action the dashboard surfaces prominently.
type QuickWin struct {
	Action     string `json:"action"`
	Saving     Amount `json:"saving"`
	TimeNeeded string `json:"time_needed"`
}

// ImplementationPlan phases the recommended actions over time.
type ImplementationPlan struct {
	ImmediateActions    []string `json:"immediate_actions"`
	ThisWeek            []string `json:"this_week"`
	ThisMonth           []string `json:"this_month"`
	TotalTimeInvestment string   `json:"total_time_investment"`
}

func (p *ImplementationPlan) empty() bool {
	return len(p.ImmediateActions) == 0 && len(p.ThisWeek) == 0 &&
		len(p.ThisMonth) == 0 && p.TotalTimeInvestment == ""
}

// Fragments carries whatever partial signals an agent salvaged from an
// analysis it could not fully structure.
type Fragments struct {
	Numbers     []Amount `json:"any_numbers_found"`
	ResourceIDs []string `json:"any_resource_ids_found"`
	Services    []string `json:"any_service_names_found"`
	Errors      []string `json:"any_error_messages"`
}

// SummaryData is the decoded agent analysis that drives dashboard rendering.
type SummaryData struct {
	Status           string `json:"status,omitempty"`
	Reason           string `json:"reason,omitempty"`
	ExecutiveSummary string `json:"executive_summary"`

	TotalCostSavings *TotalSavings `json:"total_cost_savings,omitempty"`
	TotalSavings     *TotalSavings `json:"total_savings,omitempty"`

	PriorityRecommendations   []Recommendation `json:"priority_recommendations,omitempty"`
	ActionableRecommendations []Recommendation `json:"actionable_recommendations,omitempty"`

	QuickWins        []QuickWin          `json:"quick_wins,omitempty"`
	SavingsByService map[string]Amount   `json:"savings_by_service,omitempty"`
	Plan             *ImplementationPlan `json:"implementation_plan,omitempty"`

	Fragments        *Fragments     `json:"extracted_fragments,omitempty"`
	DebugInfo        map[string]any `json:"debug_info,omitempty"`
	DebugAnalysis    map[string]any `json:"debug_analysis,omitempty"`
	RawInputData     string         `json:"raw_input_data,omitempty"`
	AmazonQResponses string         `json:"amazon_q_responses,omitempty"`
}

// ParseSummary decodes agent output into dashboard data. Output that is not
// a JSON object is preserved verbatim as the executive summary so the
// dashboard always renders something.
func ParseSummary(text string) *SummaryData {
	var data SummaryData
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return &SummaryData{ExecutiveSummary: text}
	}

	if data.TotalCostSavings != nil {
		data.TotalCostSavings.normalize()
	}
	if data.TotalSavings != nil {
		data.TotalSavings.normalize()
	}
	recs := data.Recommendations()
	for i := range recs {
		recs[i].normalize(i + 1)
	}
	return &data
}

// Savings returns the populated savings block, preferring the dashboard-pass
// spelling. Nil when neither pass produced one.
func (d *SummaryData) Savings() *TotalSavings {
	if d.TotalCostSavings != nil && !d.TotalCostSavings.empty() {
		return d.TotalCostSavings
	}
	if d.TotalSavings != nil && !d.TotalSavings.empty() {
		return d.TotalSavings
	}
	return nil
}

// Recommendations returns the recommendation list, preferring the
// dashboard-pass spelling.
func (d *SummaryData) Recommendations() []Recommendation {
	if len(d.PriorityRecommendations) > 0 {
		return d.PriorityRecommendations
	}
	return d.ActionableRecommendations
}

// Preserved reports whether the data is flagged for the raw-data debug
// rendering instead of the recommendation dashboard.
func (d *SummaryData) Preserved() bool {
	return d.Status == statusRawDataFallback || d.Status == statusRawDataPreservation
}

func (d *SummaryData) summaryText() string {
	if d.ExecutiveSummary == "" {
		return "Cost optimization analysis completed."
	}
	return d.ExecutiveSummary
}

func (d *SummaryData) plan() *ImplementationPlan {
	if d.Plan == nil || d.Plan.empty() {
		return nil
	}
	return d.Plan
}

func (d *SummaryData) reason() string {
	if d.Reason == "" {
		return "No reason provided"
	}
	return d.Reason
}

func (d *SummaryData) debug() map[string]any {
	if len(d.DebugInfo) > 0 {
		return d.DebugInfo
	}
	return d.DebugAnalysis
}

func (d *SummaryData) rawInput() string {
	if d.RawInputData != "" {
		return d.RawInputData
	}
	if d.AmazonQResponses != "" {
		return d.AmazonQResponses
	}
	return "No raw data available"
}
