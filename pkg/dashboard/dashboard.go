// Package dashboard renders agent cost analysis into self-contained HTML
// reports ready for static hosting.
//
// Two renderings exist: the recommendation dashboard for structured analysis,
// and a raw-data debug page for analysis the agents could not structure.
// Implementation steps that look like shell commands are syntax highlighted
// with inline styles so the page needs no external assets beyond its icon
// font.
package dashboard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// DefaultName is used when the caller does not name the dashboard.
const DefaultName = "costAnalysis"

// highlightStyle is the chroma style for command snippets.
const highlightStyle = "monokai"

const timestampLayout = "2006-01-02 15:04:05 UTC"

// Generator renders dashboards from parsed templates.
type Generator struct {
	main     *template.Template
	fallback *template.Template
	now      func() time.Time
}

// NewGenerator parses the report templates.
func NewGenerator() (*Generator, error) {
	funcs := template.FuncMap{
		"inc":        func(i int) int { return i + 1 },
		"lower":      strings.ToLower,
		"money":      money,
		"present":    present,
		"renderStep": renderStep,
	}

	main, err := template.New("dashboard").Funcs(funcs).Parse(mainTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dashboard template: %w", err)
	}
	fallback, err := template.New("fallback").Funcs(funcs).Parse(fallbackTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fallback template: %w", err)
	}

	return &Generator{main: main, fallback: fallback, now: time.Now}, nil
}

type mainModel struct {
	Title            string
	DashboardID      string
	Timestamp        string
	ExecutiveSummary string
	TotalSavings     *TotalSavings
	Recommendations  []Recommendation
	QuickWins        []QuickWin
	SavingsByService []ServiceSaving
	Plan             *ImplementationPlan
}

type fallbackModel struct {
	Title       string
	DashboardID string
	Timestamp   string
	Status      string
	Reason      string
	Fragments   *fragmentsView
	DebugJSON   string
	RawInput    string
}

type fragmentsView struct {
	Numbers     string
	ResourceIDs string
	Services    string
	Errors      string
}

// ServiceSaving is one row of the savings-by-service breakdown.
type ServiceSaving struct {
	Service string
	Saving  Amount
}

// Render produces the complete dashboard HTML for decoded summary data.
// Summaries flagged for raw-data preservation render the debug variant,
// which shows the unprocessed analysis instead of recommendation cards.
func (g *Generator) Render(data *SummaryData, name string) (string, error) {
	if name == "" {
		name = DefaultName
	}
	now := g.now().UTC()
	if data.Preserved() {
		return g.renderFallback(data, name, now)
	}
	return g.renderMain(data, name, now)
}

func (g *Generator) renderMain(data *SummaryData, name string, now time.Time) (string, error) {
	model := mainModel{
		Title:            "Cost Optimization Dashboard - " + now.Format("2006-01-02"),
		DashboardID:      fmt.Sprintf("%s_%s", name, now.Format("20060102_150405")),
		Timestamp:        now.Format(timestampLayout),
		ExecutiveSummary: data.summaryText(),
		TotalSavings:     data.Savings(),
		Recommendations:  data.Recommendations(),
		QuickWins:        data.QuickWins,
		SavingsByService: serviceSavings(data.SavingsByService),
		Plan:             data.plan(),
	}

	var buf bytes.Buffer
	if err := g.main.Execute(&buf, model); err != nil {
		return "", fmt.Errorf("failed to render dashboard: %w", err)
	}
	return buf.String(), nil
}

func (g *Generator) renderFallback(data *SummaryData, name string, now time.Time) (string, error) {
	model := fallbackModel{
		Title:       "Raw Data Debug Dashboard - " + now.Format("2006-01-02"),
		DashboardID: fmt.Sprintf("%s_%s_fallback", name, now.Format("20060102_150405")),
		Timestamp:   now.Format(timestampLayout),
		Status:      data.Status,
		Reason:      data.reason(),
		Fragments:   fragments(data.Fragments),
		DebugJSON:   debugJSON(data.debug()),
		RawInput:    data.rawInput(),
	}

	var buf bytes.Buffer
	if err := g.fallback.Execute(&buf, model); err != nil {
		return "", fmt.Errorf("failed to render fallback dashboard: %w", err)
	}
	return buf.String(), nil
}

// StaticAssets returns additional files to deploy beside index.html. The
// dashboard is currently self-contained, so there are none.
func (g *Generator) StaticAssets() map[string]string {
	return map[string]string{}
}

// serviceSavings filters zero-saving services and orders the rest by
// descending saving.
func serviceSavings(m map[string]Amount) []ServiceSaving {
	items := make([]ServiceSaving, 0, len(m))
	for service, saving := range m {
		if saving.Value() > 0 {
			items = append(items, ServiceSaving{Service: service, Saving: saving})
		}
	}
	sort.Slice(items, func(i, j int) bool {
		vi, vj := items[i].Saving.Value(), items[j].Saving.Value()
		if vi != vj {
			return vi > vj
		}
		return items[i].Service < items[j].Service
	})
	return items
}

func fragments(f *Fragments) *fragmentsView {
	if f == nil {
		return nil
	}
	return &fragmentsView{
		Numbers:     joinAmounts(f.Numbers),
		ResourceIDs: strings.Join(f.ResourceIDs, ", "),
		Services:    strings.Join(f.Services, ", "),
		Errors:      strings.Join(f.Errors, ", "),
	}
}

func joinAmounts(amounts []Amount) string {
	parts := make([]string, len(amounts))
	for i, a := range amounts {
		parts[i] = string(a)
	}
	return strings.Join(parts, ", ")
}

func debugJSON(debug map[string]any) string {
	if len(debug) == 0 {
		return ""
	}
	b, err := json.MarshalIndent(debug, "", "  ")
	if err != nil {
		return fmt.Sprint(debug)
	}
	return string(b)
}

// money renders an amount with a single leading dollar sign.
func money(a Amount) string {
	s := strings.TrimSpace(string(a))
	if s == "" || strings.HasPrefix(s, "$") {
		return s
	}
	return "$" + s
}

// present gates the savings metrics: zero and missing values hide the card.
func present(a Amount) bool {
	s := strings.TrimSpace(string(a))
	return s != "" && s != "0"
}

// renderStep renders one implementation step. Steps that look like shell
// commands are syntax highlighted; prose is escaped as-is.
func renderStep(step string) (template.HTML, error) {
	if looksLikeCommand(step) {
		return highlightCommand(strings.TrimPrefix(strings.TrimSpace(step), "$ "))
	}
	return template.HTML(template.HTMLEscapeString(step)), nil
}

// looksLikeCommand reports whether a step is a shell command rather than
// prose.
func looksLikeCommand(step string) bool {
	trimmed := strings.TrimSpace(step)
	for _, prefix := range []string{"$ ", "aws ", "kubectl ", "terraform "} {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}

// highlightCommand renders a shell command as a chroma block with inline
// styles, keeping the page self-contained.
func highlightCommand(cmd string) (template.HTML, error) {
	lexer := lexers.Get("bash")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	iterator, err := chroma.Coalesce(lexer).Tokenise(nil, cmd)
	if err != nil {
		return "", fmt.Errorf("failed to tokenise command: %w", err)
	}

	var buf bytes.Buffer
	if err := chromahtml.New().Format(&buf, styles.Get(highlightStyle), iterator); err != nil {
		return "", fmt.Errorf("failed to highlight command: %w", err)
	}
	return template.HTML(buf.String()), nil
}
