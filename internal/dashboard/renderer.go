package dashboard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
)

// Renderer turns prepared dashboard data into a full HTML document.
type Renderer struct {
	tmpl     *template.Template
	markdown goldmark.Markdown
}

// NewRenderer parses the page template once.
func NewRenderer() *Renderer {
	return &Renderer{
		tmpl:     template.Must(template.New("dashboard").Parse(pageTemplate)),
		markdown: goldmark.New(),
	}
}

type pageModel struct {
	*Data
	Title      string
	RefreshMS  int
	ChartsJSON template.JS
	ReportHTML template.HTML
}

// Render produces the dashboard page. Data.ReportMarkdown, when set,
// is converted to HTML and embedded as the report section.
func (r *Renderer) Render(data *Data) (string, error) {
	chartsJSON, err := json.Marshal(data.Charts)
	if err != nil {
		return "", fmt.Errorf("encoding chart data: %w", err)
	}

	var reportHTML template.HTML
	if data.ReportMarkdown != "" {
		var buf bytes.Buffer
		if err := r.markdown.Convert([]byte(data.ReportMarkdown), &buf); err != nil {
			return "", fmt.Errorf("rendering report markdown: %w", err)
		}
		reportHTML = template.HTML(buf.String()) // #nosec G203 -- goldmark escapes raw HTML by default
	}

	model := pageModel{
		Data:       data,
		Title:      "Model Hub Monitor",
		RefreshMS:  data.RefreshInterval * 1000,
		ChartsJSON: template.JS(chartsJSON), // #nosec G203 -- marshaled from typed chart structs
		ReportHTML: reportHTML,
	}

	var out bytes.Buffer
	if err := r.tmpl.Execute(&out, model); err != nil {
		return "", fmt.Errorf("rendering dashboard: %w", err)
	}
	return out.String(), nil
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en" class="{{.Theme}}">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <style>
        :root {
            --bg-color: #1a1a1a;
            --text-color: #e0e0e0;
            --card-bg: #2d2d2d;
            --border-color: #444;
            --accent-color: #007acc;
            --success-color: #4caf50;
            --warning-color: #ff9800;
            --error-color: #f44336;
        }

        .light {
            --bg-color: #ffffff;
            --text-color: #333333;
            --card-bg: #f5f5f5;
            --border-color: #ddd;
        }

        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }

        body {
            font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif;
            background-color: var(--bg-color);
            color: var(--text-color);
            line-height: 1.6;
        }

        .container {
            max-width: 1200px;
            margin: 0 auto;
            padding: 20px;
        }

        .header {
            text-align: center;
            margin-bottom: 30px;
        }

        .header h1 {
            color: var(--accent-color);
            margin-bottom: 10px;
        }

        .summary-cards {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(250px, 1fr));
            gap: 20px;
            margin-bottom: 30px;
        }

        .card {
            background: var(--card-bg);
            border: 1px solid var(--border-color);
            border-radius: 8px;
            padding: 20px;
            text-align: center;
        }

        .card h3 {
            color: var(--accent-color);
            margin-bottom: 10px;
        }

        .card .value {
            font-size: 2em;
            font-weight: bold;
            color: var(--success-color);
        }

        .models-section {
            margin-bottom: 30px;
        }

        .models-table {
            width: 100%;
            border-collapse: collapse;
            background: var(--card-bg);
            border-radius: 8px;
            overflow: hidden;
        }

        .models-table th,
        .models-table td {
            padding: 12px;
            text-align: left;
            border-bottom: 1px solid var(--border-color);
        }

        .models-table th {
            background: var(--accent-color);
            color: white;
        }

        .status-active { color: var(--success-color); }
        .status-warning { color: var(--warning-color); }
        .status-error { color: var(--error-color); }

        .charts-section {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(300px, 1fr));
            gap: 20px;
            margin-bottom: 30px;
        }

        .chart-container {
            background: var(--card-bg);
            border: 1px solid var(--border-color);
            border-radius: 8px;
            padding: 20px;
            height: 300px;
        }

        .report-section {
            background: var(--card-bg);
            border: 1px solid var(--border-color);
            border-radius: 8px;
            padding: 20px;
            margin-bottom: 30px;
        }

        .report-section h1,
        .report-section h2 {
            color: var(--accent-color);
            margin-bottom: 10px;
        }

        .footer {
            text-align: center;
            margin-top: 30px;
            padding: 20px;
            border-top: 1px solid var(--border-color);
            color: #888;
        }
    </style>
    <script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>{{.Title}}</h1>
            <p>Last updated: {{.GeneratedAt}}</p>
        </div>

        <div class="summary-cards">
            <div class="card">
                <h3>Total Models</h3>
                <div class="value">{{.Summary.TotalModels}}</div>
            </div>
            <div class="card">
                <h3>Active Models</h3>
                <div class="value">{{.Summary.ActiveModels}}</div>
            </div>
            <div class="card">
                <h3>Total Size</h3>
                <div class="value">{{printf "%.1f" .Summary.TotalSizeMB}} MB</div>
            </div>
            <div class="card">
                <h3>Avg Downloads</h3>
                <div class="value">{{printf "%.0f" .Summary.AverageDownloads}}</div>
            </div>
        </div>

        <div class="models-section">
            <h2>Model Status</h2>
            {{if .Models}}<table class="models-table">
<thead>
    <tr>
        <th>Model Name</th>
        <th>Task</th>
        <th>Library</th>
        <th>Size (MB)</th>
        <th>Downloads</th>
        <th>Status</th>
        <th>Health</th>
        <th>Last Updated</th>
    </tr>
</thead>
<tbody>{{range .Models}}
    <tr>
        <td>{{.Name}}</td>
        <td>{{.TaskType}}</td>
        <td>{{.Library}}</td>
        <td>{{printf "%.1f" .SizeMB}}</td>
        <td>{{.Downloads}}</td>
        <td class="status-{{.Status}}">{{.Status}}</td>
        <td>{{.HealthScore}}%</td>
        <td>{{.LastUpdated}}</td>
    </tr>{{end}}
</tbody>
</table>{{else}}<p>No models to display</p>{{end}}
        </div>

        <div class="charts-section">
            <div class="chart-container">
                <canvas id="taskChart"></canvas>
            </div>
            <div class="chart-container">
                <canvas id="throughputChart"></canvas>
            </div>
            <div class="chart-container">
                <canvas id="performanceChart"></canvas>
            </div>
        </div>

        {{if .ReportHTML}}<div class="report-section">
            {{.ReportHTML}}
        </div>{{end}}

        <div class="footer">
            <p>{{.Title}} - Auto-refresh every {{.RefreshMS}}ms</p>
        </div>
    </div>

    <script>
        const dashboardCharts = {{.ChartsJSON}};

        const taskCtx = document.getElementById('taskChart').getContext('2d');
        new Chart(taskCtx, {
            type: 'pie',
            data: {
                labels: dashboardCharts.task_distribution.map(function(b) { return b.label; }),
                datasets: [{
                    data: dashboardCharts.task_distribution.map(function(b) { return b.count; }),
                    backgroundColor: [
                        '#FF6384', '#36A2EB', '#FFCE56', '#4BC0C0', '#9966FF', '#FF9F40'
                    ]
                }]
            },
            options: {
                responsive: true,
                maintainAspectRatio: false,
                plugins: {
                    title: { display: true, text: 'Task Distribution' },
                    legend: { position: 'bottom' }
                }
            }
        });

        const throughputCtx = document.getElementById('throughputChart').getContext('2d');
        new Chart(throughputCtx, {
            type: 'bar',
            data: {
                labels: dashboardCharts.throughput.map(function(p) { return p.model; }),
                datasets: [{
                    label: 'Throughput (tokens/sec)',
                    data: dashboardCharts.throughput.map(function(p) { return p.value; }),
                    backgroundColor: '#4BC0C0'
                }]
            },
            options: {
                responsive: true,
                maintainAspectRatio: false,
                plugins: {
                    title: { display: true, text: 'Latest Throughput' },
                    legend: { display: false }
                },
                scales: { y: { beginAtZero: true } }
            }
        });

        const perfCtx = document.getElementById('performanceChart').getContext('2d');
        new Chart(perfCtx, {
            type: 'line',
            data: {
                labels: dashboardCharts.performance_trends.labels,
                datasets: [{
                    label: 'Memory Usage (MB)',
                    data: dashboardCharts.performance_trends.memory_usage,
                    borderColor: '#36A2EB',
                    tension: 0.1
                }, {
                    label: 'CPU Usage (%)',
                    data: dashboardCharts.performance_trends.cpu_usage,
                    borderColor: '#FF6384',
                    tension: 0.1
                }]
            },
            options: {
                responsive: true,
                maintainAspectRatio: false,
                plugins: {
                    title: { display: true, text: 'Performance Trends (24h)' }
                },
                scales: { y: { beginAtZero: true } }
            }
        });

        setTimeout(function() {
            location.reload();
        }, {{.RefreshMS}});
    </script>
</body>
</html>`
