package dashboard

// mainTemplate renders the recommendation-focused cost dashboard. The report
// is a single self-contained page: all styling is inline so it can be served
// from a bucket with no asset pipeline.
const mainTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <link href="https://cdnjs.cloudflare.com/ajax/libs/font-awesome/6.0.0/css/all.min.css" rel="stylesheet">
    <style>
        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }

        body {
            font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif;
            line-height: 1.6;
            color: #333;
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            min-height: 100vh;
        }

        .container {
            max-width: 1200px;
            margin: 0 auto;
            padding: 20px;
        }

        .header {
            text-align: center;
            background: white;
            padding: 30px;
            border-radius: 15px;
            box-shadow: 0 8px 25px rgba(0,0,0,0.1);
            margin-bottom: 30px;
        }

        .header h1 {
            color: #2c3e50;
            font-size: 2.5em;
            margin-bottom: 10px;
        }

        .timestamp {
            color: #7f8c8d;
            font-size: 0.9em;
        }

        .savings-summary {
            background: linear-gradient(135deg, #27ae60, #2ecc71);
            color: white;
            padding: 30px;
            border-radius: 15px;
            box-shadow: 0 8px 25px rgba(0,0,0,0.1);
            margin-bottom: 30px;
            text-align: center;
        }

        .savings-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(200px, 1fr));
            gap: 20px;
            margin-top: 20px;
        }

        .savings-metric {
            background: rgba(255,255,255,0.2);
            padding: 20px;
            border-radius: 10px;
            text-align: center;
        }

        .savings-value {
            font-size: 2.2em;
            font-weight: bold;
            margin-bottom: 5px;
        }

        .savings-label {
            font-size: 0.9em;
            opacity: 0.9;
        }

        .executive-summary {
            background: white;
            padding: 30px;
            border-radius: 15px;
            box-shadow: 0 8px 25px rgba(0,0,0,0.1);
            margin-bottom: 30px;
        }

        .section-title {
            color: #2c3e50;
            font-size: 1.8em;
            margin-bottom: 20px;
            display: flex;
            align-items: center;
            gap: 10px;
        }

        .recommendations-grid {
            display: grid;
            gap: 20px;
            margin-bottom: 30px;
        }

        .recommendation-card {
            background: white;
            padding: 25px;
            border-radius: 15px;
            box-shadow: 0 8px 25px rgba(0,0,0,0.1);
            border-left: 5px solid #3498db;
            position: relative;
        }

        .recommendation-header {
            display: flex;
            justify-content: space-between;
            align-items: center;
            margin-bottom: 15px;
        }

        .recommendation-rank {
            background: linear-gradient(135deg, #3498db, #2980b9);
            color: white;
            padding: 8px 15px;
            border-radius: 50px;
            font-weight: bold;
            font-size: 0.9em;
        }

        .monthly-saving {
            background: linear-gradient(135deg, #27ae60, #2ecc71);
            color: white;
            padding: 8px 15px;
            border-radius: 50px;
            font-weight: bold;
        }

        .resource-info {
            margin-bottom: 15px;
        }

        .resource-id {
            font-family: 'Courier New', monospace;
            background: #f8f9fa;
            padding: 5px 10px;
            border-radius: 5px;
            font-size: 0.9em;
            color: #e74c3c;
            font-weight: bold;
        }

        .resource-type {
            background: #3498db;
            color: white;
            padding: 3px 8px;
            border-radius: 3px;
            font-size: 0.8em;
            margin-left: 10px;
        }

        .implementation-steps {
            background: #f8f9fa;
            padding: 15px;
            border-radius: 10px;
            margin-top: 15px;
        }

        .step {
            padding: 8px 0;
            border-bottom: 1px solid #dee2e6;
        }

        .step:last-child {
            border-bottom: none;
        }

        .step-number {
            background: #3498db;
            color: white;
            padding: 2px 8px;
            border-radius: 50%;
            font-size: 0.8em;
            margin-right: 10px;
            font-weight: bold;
        }

        .step pre {
            margin-top: 8px;
            padding: 10px;
            border-radius: 5px;
            overflow-x: auto;
            font-size: 0.9em;
        }

        .quick-wins {
            background: linear-gradient(135deg, #f39c12, #e67e22);
            color: white;
            padding: 30px;
            border-radius: 15px;
            box-shadow: 0 8px 25px rgba(0,0,0,0.1);
            margin-bottom: 30px;
        }

        .quick-win-item {
            background: rgba(255,255,255,0.2);
            padding: 15px;
            border-radius: 10px;
            margin-bottom: 15px;
            display: flex;
            justify-content: space-between;
            align-items: center;
        }

        .services-breakdown {
            background: white;
            padding: 30px;
            border-radius: 15px;
            box-shadow: 0 8px 25px rgba(0,0,0,0.1);
            margin-bottom: 30px;
        }

        .service-item {
            display: flex;
            justify-content: space-between;
            align-items: center;
            padding: 15px;
            border-bottom: 1px solid #ecf0f1;
        }

        .service-item:last-child {
            border-bottom: none;
        }

        .service-name {
            font-weight: bold;
            color: #2c3e50;
        }

        .service-saving {
            background: #27ae60;
            color: white;
            padding: 5px 12px;
            border-radius: 20px;
            font-weight: bold;
        }

        .implementation-timeline {
            background: white;
            padding: 30px;
            border-radius: 15px;
            box-shadow: 0 8px 25px rgba(0,0,0,0.1);
            margin-bottom: 30px;
        }

        .timeline-section {
            margin-bottom: 20px;
        }

        .timeline-title {
            color: #2c3e50;
            font-weight: bold;
            margin-bottom: 10px;
            padding: 10px 15px;
            background: #ecf0f1;
            border-radius: 8px;
        }

        .timeline-item {
            padding: 8px 0;
            padding-left: 20px;
            border-left: 3px solid #3498db;
            margin-left: 10px;
        }

        .footer {
            text-align: center;
            padding: 30px;
            color: white;
            font-size: 0.9em;
            background: rgba(255,255,255,0.1);
            border-radius: 15px;
        }

        .risk-badge {
            padding: 3px 8px;
            border-radius: 3px;
            font-size: 0.8em;
            font-weight: bold;
        }

        .risk-low { background: #27ae60; color: white; }
        .risk-medium { background: #f39c12; color: white; }
        .risk-high { background: #e74c3c; color: white; }

        @media (max-width: 768px) {
            .container { padding: 10px; }
            .header h1 { font-size: 2em; }
            .savings-grid { grid-template-columns: 1fr; }
            .recommendation-header { flex-direction: column; gap: 10px; }
        }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1><i class="fas fa-dollar-sign"></i> {{.Title}}</h1>
            <div class="timestamp">Generated on {{.Timestamp}}</div>
        </div>

        {{if .TotalSavings}}
        <div class="savings-summary">
            <h2><i class="fas fa-piggy-bank"></i> Total Cost Savings Potential</h2>
            <div class="savings-grid">
                {{if present .TotalSavings.MonthlySavings}}
                <div class="savings-metric">
                    <div class="savings-value">{{money .TotalSavings.MonthlySavings}}</div>
                    <div class="savings-label">Monthly Savings</div>
                </div>
                {{end}}
                {{if present .TotalSavings.YearlySavings}}
                <div class="savings-metric">
                    <div class="savings-value">{{money .TotalSavings.YearlySavings}}</div>
                    <div class="savings-label">Yearly Savings</div>
                </div>
                {{end}}
                {{if present .TotalSavings.NumberOfOpportunities}}
                <div class="savings-metric">
                    <div class="savings-value">{{.TotalSavings.NumberOfOpportunities}}</div>
                    <div class="savings-label">Opportunities</div>
                </div>
                {{end}}
                {{if present .TotalSavings.HighestSingleSaving}}
                <div class="savings-metric">
                    <div class="savings-value">{{money .TotalSavings.HighestSingleSaving}}</div>
                    <div class="savings-label">Biggest Single Win</div>
                </div>
                {{end}}
            </div>
        </div>
        {{end}}

        <div class="executive-summary">
            <h2 class="section-title"><i class="fas fa-file-alt"></i> Executive Summary</h2>
            <p>{{.ExecutiveSummary}}</p>
        </div>

        {{if .QuickWins}}
        <div class="quick-wins">
            <h2 class="section-title"><i class="fas fa-bolt"></i> Quick Wins - Implement Now</h2>
            {{range .QuickWins}}
            <div class="quick-win-item">
                <div>
                    <strong>{{.Action}}</strong>
                    <br><small>Time needed: {{.TimeNeeded}}</small>
                </div>
                <div class="monthly-saving">{{.Saving}}</div>
            </div>
            {{end}}
        </div>
        {{end}}

        {{if .Recommendations}}
        <div class="recommendations-grid">
            <h2 class="section-title"><i class="fas fa-lightbulb"></i> Priority Recommendations</h2>
            {{range .Recommendations}}
            <div class="recommendation-card">
                <div class="recommendation-header">
                    <div class="recommendation-rank">Rank #{{.Rank}}</div>
                    <div class="monthly-saving">{{money .MonthlySaving}}/month</div>
                </div>

                <div class="resource-info">
                    <span class="resource-id">{{.ResourceID}}</span>
                    <span class="resource-type">{{.ResourceType}}</span>
                    {{if .RiskAssessment}}
                    <span class="risk-badge risk-{{lower .RiskAssessment}}">{{.RiskAssessment}} Risk</span>
                    {{end}}
                </div>

                <div style="margin-bottom: 15px;">
                    <strong>Action:</strong> {{.ActionSummary}}
                    {{if .ImplementationTime}}
                    <br><small><i class="fas fa-clock"></i> Time needed: {{.ImplementationTime}}</small>
                    {{end}}
                </div>

                {{if .StepByStep}}
                <div class="implementation-steps">
                    <strong><i class="fas fa-list-ol"></i> Implementation Steps:</strong>
                    {{range $i, $step := .StepByStep}}
                    <div class="step">
                        <span class="step-number">{{inc $i}}</span>{{renderStep $step}}
                    </div>
                    {{end}}
                </div>
                {{end}}
            </div>
            {{end}}
        </div>
        {{end}}

        {{if .SavingsByService}}
        <div class="services-breakdown">
            <h2 class="section-title"><i class="fas fa-chart-pie"></i> Savings by AWS Service</h2>
            {{range .SavingsByService}}
            <div class="service-item">
                <span class="service-name">{{.Service}}</span>
                <span class="service-saving">{{money .Saving}}/month</span>
            </div>
            {{end}}
        </div>
        {{end}}

        {{if .Plan}}
        <div class="implementation-timeline">
            <h2 class="section-title"><i class="fas fa-calendar-alt"></i> Implementation Plan</h2>

            {{if .Plan.ImmediateActions}}
            <div class="timeline-section">
                <div class="timeline-title"><i class="fas fa-play"></i> Start Immediately</div>
                {{range .Plan.ImmediateActions}}
                <div class="timeline-item">{{.}}</div>
                {{end}}
            </div>
            {{end}}

            {{if .Plan.ThisWeek}}
            <div class="timeline-section">
                <div class="timeline-title"><i class="fas fa-calendar-week"></i> This Week</div>
                {{range .Plan.ThisWeek}}
                <div class="timeline-item">{{.}}</div>
                {{end}}
            </div>
            {{end}}

            {{if .Plan.ThisMonth}}
            <div class="timeline-section">
                <div class="timeline-title"><i class="fas fa-calendar"></i> This Month</div>
                {{range .Plan.ThisMonth}}
                <div class="timeline-item">{{.}}</div>
                {{end}}
            </div>
            {{end}}

            {{if .Plan.TotalTimeInvestment}}
            <div style="text-align: center; margin-top: 20px; padding: 15px; background: #ecf0f1; border-radius: 8px;">
                <strong>Total time investment: {{.Plan.TotalTimeInvestment}}</strong>
            </div>
            {{end}}
        </div>
        {{end}}

        <div class="footer">
            <p>Dashboard ID: {{.DashboardID}} | Powered by Amazon Q + Bedrock Analytics</p>
            <p><small>Focus on actionable cost savings - No complex charts, just results!</small></p>
        </div>
    </div>
</body>
</html>
`

// fallbackTemplate renders the raw-data debug dashboard used when an
// analysis could not be structured. It favors losing no information over
// looking polished.
const fallbackTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <style>
        body {
            font-family: 'Courier New', monospace;
            line-height: 1.6;
            color: #333;
            background: #f5f5f5;
            margin: 0;
            padding: 20px;
        }
        .container {
            max-width: 1200px;
            margin: 0 auto;
            background: white;
            padding: 30px;
            border-radius: 8px;
            box-shadow: 0 2px 10px rgba(0,0,0,0.1);
        }
        .header {
            background: #e74c3c;
            color: white;
            padding: 20px;
            border-radius: 8px;
            margin-bottom: 20px;
        }
        .status {
            background: #f39c12;
            color: white;
            padding: 15px;
            border-radius: 5px;
            margin-bottom: 20px;
        }
        .raw-data {
            background: #2c3e50;
            color: #ecf0f1;
            padding: 20px;
            border-radius: 5px;
            overflow-x: auto;
            white-space: pre-wrap;
            font-size: 12px;
            line-height: 1.4;
            max-height: 600px;
            overflow-y: auto;
        }
        .debug-info {
            background: #3498db;
            color: white;
            padding: 15px;
            border-radius: 5px;
            margin: 20px 0;
        }
        .extracted-fragments {
            background: #27ae60;
            color: white;
            padding: 15px;
            border-radius: 5px;
            margin: 20px 0;
        }
        pre {
            margin: 0;
            font-family: inherit;
        }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Raw Data Debug Dashboard</h1>
            <p>Generated on {{.Timestamp}}</p>
            <p>Dashboard ID: {{.DashboardID}}</p>
        </div>

        <div class="status">
            <h3>Status: {{.Status}}</h3>
            <p><strong>Reason:</strong> {{.Reason}}</p>
        </div>

        {{if .Fragments}}
        <div class="extracted-fragments">
            <h3>Extracted Fragments</h3>
            <p><strong>Numbers Found:</strong> {{.Fragments.Numbers}}</p>
            <p><strong>Resource IDs:</strong> {{.Fragments.ResourceIDs}}</p>
            <p><strong>Services:</strong> {{.Fragments.Services}}</p>
            <p><strong>Errors:</strong> {{.Fragments.Errors}}</p>
        </div>
        {{end}}

        {{if .DebugJSON}}
        <div class="debug-info">
            <h3>Debug Information</h3>
            <pre>{{.DebugJSON}}</pre>
        </div>
        {{end}}

        <div class="raw-data">
            <h3>Raw Input Data</h3>
            <pre>{{.RawInput}}</pre>
        </div>

        <div style="margin-top: 30px; padding: 20px; background: #ecf0f1; border-radius: 5px;">
            <h3>What to do next:</h3>
            <ul>
                <li>Check if Amazon Q CLI is properly configured and accessible</li>
                <li>Verify AWS credentials and permissions</li>
                <li>Review the raw data above for any error messages or clues</li>
                <li>Try running the cost optimization query again with different parameters</li>
                <li>Check the Amazon Q service logs for more details</li>
            </ul>
        </div>
    </div>
</body>
</html>
`
