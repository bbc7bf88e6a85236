package dashboard

import (
	"strings"
	"testing"
	"time"
)

func newTestGenerator(t *testing.T) *Generator {
	t.Helper()
	g, err := NewGenerator()
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}
	g.now = func() time.Time {
		return time.Date(2024, 5, 15, 10, 30, 0, 0, time.UTC)
	}
	return g
}

const dashboardSummaryJSON = `{
	"executive_summary": "Analysis found $420/month in savings across 3 resources.",
	"total_cost_savings": {
		"monthly_savings": 420,
		"yearly_savings": 5040,
		"number_of_opportunities": 3,
		"highest_single_saving": 180
	},
	"priority_recommendations": [
		{
			"rank": 1,
			"resource_id": "vol-0abc123",
			"resource_type": "EBS",
			"monthly_saving": 180,
			"action_summary": "Migrate gp2 volume to gp3",
			"implementation_time": "30 minutes",
			"risk_assessment": "Low",
			"step_by_step": [
				"Review attachment history for the volume",
				"aws ec2 modify-volume --volume-id vol-0abc123 --volume-type \"gp3\""
			]
		},
		{
			"resource_id": "i-0def456",
			"resource_type": "EC2",
			"monthly_saving": "$140",
			"action_summary": "Rightsize to t3.medium",
			"risk_assessment": "Medium"
		}
	],
	"savings_by_service": {"EC2": 240, "EBS": 180, "S3": 0, "Lambda": "0"},
	"quick_wins": [
		{"action": "Delete unattached volumes", "saving": "$45/month", "time_needed": "15 minutes"}
	],
	"implementation_plan": {
		"immediate_actions": ["Delete unattached volumes"],
		"this_week": ["Migrate gp2 volumes to gp3"],
		"this_month": ["Review EC2 rightsizing candidates"],
		"total_time_investment": "6 hours"
	}
}`

func TestRenderDashboard(t *testing.T) {
	g := newTestGenerator(t)

	html, err := g.Render(ParseSummary(dashboardSummaryJSON), "costAnalysis")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	t.Run("header and footer carry identity", func(t *testing.T) {
		if !strings.Contains(html, "<title>Cost Optimization Dashboard - 2024-05-15</title>") {
			t.Error("Expected dated title")
		}
		if !strings.Contains(html, "Generated on 2024-05-15 10:30:00 UTC") {
			t.Error("Expected generation timestamp")
		}
		if !strings.Contains(html, "Dashboard ID: costAnalysis_20240515_103000 | Powered by Amazon Q + Bedrock Analytics") {
			t.Errorf("Expected dashboard id footer, got %q", html[len(html)-400:])
		}
	})

	t.Run("savings summary metrics", func(t *testing.T) {
		for _, want := range []string{"$420", "$5040", "$180", "Monthly Savings", "Yearly Savings", "Opportunities", "Biggest Single Win"} {
			if !strings.Contains(html, want) {
				t.Errorf("Expected savings summary to contain %q", want)
			}
		}
	})

	t.Run("recommendation cards", func(t *testing.T) {
		if !strings.Contains(html, "Rank #1") {
			t.Error("Expected explicit rank on first card")
		}
		if !strings.Contains(html, "Rank #2") {
			t.Error("Expected positional rank on unranked card")
		}
		if !strings.Contains(html, "$180/month") || !strings.Contains(html, "$140/month") {
			t.Error("Expected per-card monthly savings")
		}
		if !strings.Contains(html, "vol-0abc123") || !strings.Contains(html, "i-0def456") {
			t.Error("Expected resource ids")
		}
		if !strings.Contains(html, `risk-badge risk-low">Low Risk`) {
			t.Error("Expected lowercased risk badge class")
		}
		if !strings.Contains(html, `risk-badge risk-medium">Medium Risk`) {
			t.Error("Expected medium risk badge")
		}
		if !strings.Contains(html, "Time needed: 30 minutes") {
			t.Error("Expected implementation time")
		}
	})

	t.Run("implementation steps highlight commands", func(t *testing.T) {
		if !strings.Contains(html, "Review attachment history for the volume") {
			t.Error("Expected prose step text")
		}
		if !strings.Contains(html, "modify-volume") {
			t.Error("Expected command step text")
		}
		if !strings.Contains(html, "<span style=") {
			t.Error("Expected chroma inline-style spans in command step")
		}
		if !strings.Contains(html, `<span class="step-number">1</span>`) {
			t.Error("Expected numbered steps")
		}
	})

	t.Run("savings by service filters zeros and sorts descending", func(t *testing.T) {
		if strings.Contains(html, `<span class="service-name">S3</span>`) {
			t.Error("Expected zero-saving S3 row to be dropped")
		}
		if strings.Contains(html, `<span class="service-name">Lambda</span>`) {
			t.Error("Expected zero-saving Lambda row to be dropped")
		}
		ec2 := strings.Index(html, `<span class="service-name">EC2</span>`)
		ebs := strings.Index(html, `<span class="service-name">EBS</span>`)
		if ec2 == -1 || ebs == -1 {
			t.Fatal("Expected EC2 and EBS rows")
		}
		if ec2 > ebs {
			t.Error("Expected EC2 ($240) to be listed before EBS ($180)")
		}
		if !strings.Contains(html, "$240/month") {
			t.Error("Expected service saving amount")
		}
	})

	t.Run("quick wins and plan", func(t *testing.T) {
		if !strings.Contains(html, "Delete unattached volumes") {
			t.Error("Expected quick win action")
		}
		if !strings.Contains(html, "$45/month") {
			t.Error("Expected quick win saving rendered as provided")
		}
		for _, want := range []string{"Start Immediately", "This Week", "This Month", "Total time investment: 6 hours"} {
			if !strings.Contains(html, want) {
				t.Errorf("Expected implementation plan to contain %q", want)
			}
		}
	})
}

func TestRenderDashboardCustomName(t *testing.T) {
	g := newTestGenerator(t)

	html, err := g.Render(ParseSummary(`{"executive_summary": "ok"}`), "weeklyReview")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(html, "Dashboard ID: weeklyReview_20240515_103000") {
		t.Error("Expected the provided dashboard name in the id")
	}
}

func TestRenderDashboardMinimal(t *testing.T) {
	g := newTestGenerator(t)

	html, err := g.Render(ParseSummary("The analysis completed with no savings found."), "")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if !strings.Contains(html, "The analysis completed with no savings found.") {
		t.Error("Expected unparsed analysis preserved as the executive summary")
	}
	for _, section := range []string{"Total Cost Savings Potential", "Priority Recommendations", "Quick Wins", "Implementation Plan", "Savings by AWS Service"} {
		if strings.Contains(html, section) {
			t.Errorf("Expected empty section %q to be omitted", section)
		}
	}
	if !strings.Contains(html, "Dashboard ID: costAnalysis_") {
		t.Error("Expected the default dashboard name")
	}
}

func TestRenderDashboardDefaultSummary(t *testing.T) {
	g := newTestGenerator(t)

	html, err := g.Render(ParseSummary(`{}`), "")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(html, "Cost optimization analysis completed.") {
		t.Error("Expected the default executive summary")
	}
}

func TestRenderDashboardEscapesUntrustedText(t *testing.T) {
	g := newTestGenerator(t)

	html, err := g.Render(ParseSummary("Analysis failed <script>alert('x')</script>"), "")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if strings.Contains(html, "<script>alert") {
		t.Error("Expected script tags to be escaped")
	}
	if !strings.Contains(html, "&lt;script&gt;") {
		t.Error("Expected escaped markup in the summary")
	}
}

func TestRenderFallbackDashboard(t *testing.T) {
	g := newTestGenerator(t)

	data := ParseSummary(`{
		"status": "raw_data_preservation",
		"reason": "Agent returned empty output",
		"extracted_fragments": {
			"any_numbers_found": ["$400", 1200],
			"any_resource_ids_found": ["vol-0abc123"],
			"any_service_names_found": ["EBS"],
			"any_error_messages": []
		},
		"debug_info": {"chunks": 2},
		"raw_input_data": "query: ebs analysis\nresponse: <empty>"
	}`)

	html, err := g.Render(data, "")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	t.Run("debug header and identity", func(t *testing.T) {
		if !strings.Contains(html, "<title>Raw Data Debug Dashboard - 2024-05-15</title>") {
			t.Error("Expected debug title")
		}
		if !strings.Contains(html, "Dashboard ID: costAnalysis_20240515_103000_fallback") {
			t.Error("Expected fallback-suffixed dashboard id")
		}
		if !strings.Contains(html, "Status: raw_data_preservation") {
			t.Error("Expected status heading")
		}
		if !strings.Contains(html, "Agent returned empty output") {
			t.Error("Expected the reason")
		}
	})

	t.Run("fragments and debug data", func(t *testing.T) {
		if !strings.Contains(html, "$400, 1200") {
			t.Error("Expected joined number fragments")
		}
		if !strings.Contains(html, "vol-0abc123") {
			t.Error("Expected resource id fragment")
		}
		if !strings.Contains(html, "chunks") {
			t.Error("Expected debug info JSON")
		}
	})

	t.Run("raw input preserved and escaped", func(t *testing.T) {
		if !strings.Contains(html, "query: ebs analysis") {
			t.Error("Expected raw input text")
		}
		if !strings.Contains(html, "&lt;empty&gt;") {
			t.Error("Expected markup in raw input to be escaped")
		}
	})

	t.Run("operator checklist", func(t *testing.T) {
		if !strings.Contains(html, "What to do next:") {
			t.Error("Expected the checklist heading")
		}
		if !strings.Contains(html, "Verify AWS credentials and permissions") {
			t.Error("Expected checklist items")
		}
	})
}

func TestRenderFallbackDefaults(t *testing.T) {
	g := newTestGenerator(t)

	html, err := g.Render(&SummaryData{Status: "raw_data_fallback"}, "")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(html, "No reason provided") {
		t.Error("Expected the default reason")
	}
	if !strings.Contains(html, "No raw data available") {
		t.Error("Expected the default raw input placeholder")
	}
	if strings.Contains(html, "Extracted Fragments") {
		t.Error("Expected fragments section to be omitted")
	}
	if strings.Contains(html, "Debug Information") {
		t.Error("Expected debug section to be omitted")
	}
}

func TestRenderStep(t *testing.T) {
	t.Run("highlights commands", func(t *testing.T) {
		out, err := renderStep(`aws ec2 modify-volume --volume-id vol-0abc123 --volume-type "gp3"`)
		if err != nil {
			t.Fatalf("renderStep failed: %v", err)
		}
		html := string(out)
		if !strings.Contains(html, "<pre") {
			t.Error("Expected a pre block around the command")
		}
		if !strings.Contains(html, "<span style=") {
			t.Error("Expected inline-style token spans")
		}
		if !strings.Contains(html, "modify-volume") {
			t.Error("Expected the command text")
		}
	})

	t.Run("strips prompt markers", func(t *testing.T) {
		out, err := renderStep("$ aws ce get-cost-and-usage")
		if err != nil {
			t.Fatalf("renderStep failed: %v", err)
		}
		if strings.Contains(string(out), "$ aws") {
			t.Error("Expected the prompt marker to be stripped")
		}
		if !strings.Contains(string(out), "get-cost-and-usage") {
			t.Error("Expected the command text")
		}
	})

	t.Run("escapes prose", func(t *testing.T) {
		out, err := renderStep("Review the volume's attachment history")
		if err != nil {
			t.Fatalf("renderStep failed: %v", err)
		}
		if strings.Contains(string(out), "<span") {
			t.Error("Expected prose to stay unhighlighted")
		}
		if !strings.Contains(string(out), "&#39;s attachment") {
			t.Errorf("Expected escaped prose, got %q", out)
		}
	})
}

func TestLooksLikeCommand(t *testing.T) {
	tests := []struct {
		step string
		want bool
	}{
		{"aws ec2 describe-volumes", true},
		{"  $ aws s3 ls", true},
		{"terraform plan", true},
		{"kubectl get pods", true},
		{"Review the volume attachment history", false},
		{"Contact the owning team", false},
		{"awsome idea", false},
	}
	for _, tt := range tests {
		if got := looksLikeCommand(tt.step); got != tt.want {
			t.Errorf("looksLikeCommand(%q) = %v, want %v", tt.step, got, tt.want)
		}
	}
}

func TestServiceSavings(t *testing.T) {
	items := serviceSavings(map[string]Amount{
		"EC2":    "100",
		"EBS":    "100",
		"S3":     "250",
		"Lambda": "$25/month",
		"RDS":    "0",
	})

	var order []string
	for _, item := range items {
		order = append(order, item.Service)
	}
	want := []string{"S3", "EBS", "EC2", "Lambda"}
	if len(order) != len(want) {
		t.Fatalf("Expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, order)
			break
		}
	}
}

func TestMoneyAndPresent(t *testing.T) {
	if got := money("400"); got != "$400" {
		t.Errorf("money(400) = %q", got)
	}
	if got := money("$400"); got != "$400" {
		t.Errorf("money($400) = %q", got)
	}
	if got := money(""); got != "" {
		t.Errorf("money of empty = %q", got)
	}

	if present("0") {
		t.Error("Expected zero amounts to be hidden")
	}
	if present("") {
		t.Error("Expected missing amounts to be hidden")
	}
	if !present("410.50") {
		t.Error("Expected real amounts to be shown")
	}
	if !present("varies") {
		t.Error("Expected textual amounts to be shown")
	}
}

func TestStaticAssets(t *testing.T) {
	g := newTestGenerator(t)
	if assets := g.StaticAssets(); len(assets) != 0 {
		t.Errorf("Expected a self-contained dashboard, got extra assets %v", assets)
	}
}
