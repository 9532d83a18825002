package webui

import (
	"html/template"
)

// Templates contains all HTML templates for the web UI
var Templates = template.Must(template.New("").Funcs(template.FuncMap{
	"levelClass": func(level string) string {
		switch level {
		case "error", "fatal":
			return "log-error"
		case "warn":
			return "log-warn"
		case "debug":
			return "log-debug"
		default:
			return "log-info"
		}
	},
	"iconGlyph": func(icon string) string {
		switch icon {
		case "lightbulb":
			return "💡"
		case "thermometer":
			return "🌡"
		case "droplet":
			return "💧"
		default:
			return "⏻"
		}
	},
}).Parse(`
{{define "base"}}
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>EcoHome - Smart Energy Management</title>
    <link rel="preconnect" href="https://fonts.googleapis.com">
    <link rel="preconnect" href="https://fonts.gstatic.com" crossorigin>
    <link href="https://fonts.googleapis.com/css2?family=JetBrains+Mono:wght@400;500;600&family=Outfit:wght@400;500;600;700&display=swap" rel="stylesheet">
    <style>
        :root {
            --bg-primary: #0d1117;
            --bg-secondary: #161b22;
            --bg-tertiary: #21262d;
            --border-color: #30363d;
            --text-primary: #e6edf3;
            --text-secondary: #8b949e;
            --text-muted: #6e7681;
            --accent-green: #3fb950;
            --accent-green-dim: #238636;
            --accent-red: #f85149;
            --accent-yellow: #d29922;
            --accent-blue: #58a6ff;
            --accent-purple: #a371f7;
        }

        * { margin: 0; padding: 0; box-sizing: border-box; }

        body {
            font-family: 'Outfit', -apple-system, BlinkMacSystemFont, sans-serif;
            background: var(--bg-primary);
            color: var(--text-primary);
            line-height: 1.6;
            min-height: 100vh;
        }

        .container { max-width: 1400px; margin: 0 auto; padding: 2rem; }

        header {
            display: flex;
            justify-content: space-between;
            align-items: center;
            margin-bottom: 2rem;
            padding-bottom: 1.5rem;
            border-bottom: 1px solid var(--border-color);
        }

        .logo { display: flex; align-items: center; gap: 0.75rem; }

        .logo-icon {
            width: 40px;
            height: 40px;
            background: linear-gradient(135deg, var(--accent-green) 0%, var(--accent-blue) 100%);
            border-radius: 10px;
            display: flex;
            align-items: center;
            justify-content: center;
            font-weight: 700;
            font-size: 1.2rem;
        }

        h1 { font-size: 1.75rem; font-weight: 600; }
        .subtitle { font-size: 0.875rem; color: var(--text-secondary); }

        .tabs { display: flex; gap: 0.5rem; }

        .tab {
            padding: 0.5rem 1rem;
            border-radius: 8px;
            background: var(--bg-tertiary);
            color: var(--text-secondary);
            text-decoration: none;
            font-weight: 500;
        }

        .tab.active { background: var(--accent-green-dim); color: var(--text-primary); }

        .grid { display: grid; gap: 1rem; margin-bottom: 1.5rem; }
        .grid-4 { grid-template-columns: repeat(auto-fit, minmax(220px, 1fr)); }
        .grid-3 { grid-template-columns: repeat(auto-fit, minmax(300px, 1fr)); }
        .grid-2 { grid-template-columns: repeat(auto-fit, minmax(420px, 1fr)); }

        .card {
            background: var(--bg-secondary);
            border: 1px solid var(--border-color);
            border-radius: 12px;
            padding: 1.5rem;
        }

        .card h3 { font-size: 1.1rem; margin-bottom: 1rem; }

        .stat-label { font-size: 0.8125rem; color: var(--text-secondary); margin-bottom: 0.5rem; }

        .stat-value {
            font-size: 1.75rem;
            font-weight: 600;
            font-family: 'JetBrains Mono', monospace;
        }

        .stat-value.green { color: var(--accent-green); }
        .stat-value.blue { color: var(--accent-blue); }
        .stat-value.purple { color: var(--accent-purple); }

        .bars { display: flex; align-items: flex-end; gap: 0.5rem; height: 200px; }
        .bar-col { flex: 1; display: flex; flex-direction: column; align-items: center; justify-content: flex-end; height: 100%; }
        .bar { width: 100%; background: var(--accent-green); border-radius: 4px 4px 0 0; }
        .bar-label { font-size: 0.75rem; color: var(--text-muted); font-family: 'JetBrains Mono', monospace; }

        .room-row { margin-bottom: 0.75rem; }
        .room-head { display: flex; justify-content: space-between; font-size: 0.875rem; }
        .room-track { height: 8px; background: var(--bg-tertiary); border-radius: 4px; }
        .room-fill { height: 8px; background: var(--accent-blue); border-radius: 4px; }

        .alert {
            padding: 1rem;
            border-left: 4px solid var(--border-color);
            background: var(--bg-tertiary);
            border-radius: 6px;
            margin-bottom: 0.75rem;
            display: flex;
            justify-content: space-between;
        }

        .alert.warning { border-color: var(--accent-yellow); }
        .alert.info { border-color: var(--accent-blue); }
        .alert.success { border-color: var(--accent-green); }
        .alert-time { font-size: 0.75rem; color: var(--text-muted); }

        .device-head { display: flex; justify-content: space-between; align-items: flex-start; margin-bottom: 0.75rem; }
        .device-name { font-weight: 600; }
        .device-room { font-size: 0.875rem; color: var(--text-secondary); }
        .device-row { display: flex; justify-content: space-between; font-size: 0.875rem; }

        .toggle {
            width: 48px;
            height: 24px;
            border-radius: 12px;
            border: none;
            cursor: pointer;
            background: var(--text-muted);
        }

        .toggle.on { background: var(--accent-green); }

        .badge {
            display: inline-block;
            margin-top: 0.5rem;
            padding: 0.125rem 0.5rem;
            border-radius: 10px;
            font-size: 0.75rem;
            background: var(--bg-tertiary);
            color: var(--text-secondary);
        }

        .badge.on { color: var(--accent-green); }

        table { width: 100%; border-collapse: collapse; font-family: 'JetBrains Mono', monospace; font-size: 0.8125rem; }
        th, td { text-align: left; padding: 0.5rem; border-bottom: 1px solid var(--border-color); }
        th { color: var(--text-secondary); font-weight: 500; }

        .insight { display: flex; justify-content: space-between; padding: 0.75rem; background: var(--bg-tertiary); border-radius: 8px; margin-bottom: 0.75rem; }
        .insight-value { font-weight: 600; color: var(--accent-green); }
        .tips li { margin: 0 0 0.75rem 1.25rem; font-size: 0.875rem; }

        .log-container {
            max-height: 300px;
            overflow-y: auto;
            font-family: 'JetBrains Mono', monospace;
            font-size: 0.75rem;
        }

        .log-entry { display: flex; gap: 0.75rem; padding: 0.25rem 0; }
        .log-time { color: var(--text-muted); }
        .log-level { width: 3rem; text-transform: uppercase; }
        .log-error .log-level { color: var(--accent-red); }
        .log-warn .log-level { color: var(--accent-yellow); }
        .log-info .log-level { color: var(--accent-blue); }
        .log-debug .log-level { color: var(--text-muted); }

        footer { margin-top: 2rem; font-size: 0.75rem; color: var(--text-muted); text-align: center; }
    </style>
</head>
<body>
    <div class="container">
        <header>
            <div class="logo">
                <div class="logo-icon">E</div>
                <div>
                    <h1>EcoHome</h1>
                    <div class="subtitle">Smart Energy Management</div>
                </div>
            </div>
            <nav class="tabs">
                {{range .Tabs}}
                <a class="tab{{if eq . $.Tab}} active{{end}}" href="/?tab={{.}}">{{.Title}}</a>
                {{end}}
            </nav>
        </header>

        {{if eq .Tab "devices"}}
            {{template "devices" .}}
        {{else if eq .Tab "analytics"}}
            {{template "analytics" .}}
        {{else}}
            {{template "dashboard" .}}
        {{end}}

        <footer>EcoHome {{.Version}} &middot; up {{.Uptime}}</footer>
    </div>
    <script>
        function escapeHtml(text) {
            const div = document.createElement('div');
            div.textContent = text;
            return div.innerHTML;
        }

        function setText(id, value) {
            const el = document.getElementById(id);
            if (el) el.textContent = value;
        }

        const currency = {{.Currency}};

        // Refresh headline figures, the chart table and logs every 5 seconds
        setInterval(() => {
            fetch('/api/state')
                .then(r => r.json())
                .then(s => {
                    const t = s.totals;
                    setText('stat-power', (Math.round(t.power_w / 10) / 100).toFixed(2) + ' kW');
                    setText('stat-cost', currency + t.monthly_cost.toFixed(2));
                    setText('stat-savings', currency + t.savings.toFixed(2));
                    setText('stat-active', t.active_devices + '/' + t.device_count);

                    const body = document.getElementById('samples-body');
                    if (body && s.samples) {
                        body.innerHTML = s.samples.map(e =>
                            '<tr><td>' + escapeHtml(e.time) + '</td>' +
                            '<td>' + e.consumption_kwh.toFixed(1) + '</td>' +
                            '<td>' + currency + e.cost.toFixed(2) + '</td></tr>'
                        ).join('');
                    }
                })
                .catch(() => {});

            fetch('/api/logs')
                .then(r => r.json())
                .then(data => {
                    const container = document.querySelector('.log-container');
                    if (container && data.entries) {
                        container.innerHTML = data.entries.map(e =>
                            '<div class="log-entry log-' + e.level + '">' +
                            '<span class="log-time">' + new Date(e.timestamp).toLocaleTimeString() + '</span>' +
                            '<span class="log-level">' + e.level + '</span>' +
                            '<span class="log-message">' + escapeHtml(e.message) + '</span>' +
                            '</div>'
                        ).join('');
                    }
                })
                .catch(() => {});
        }, 5000);
    </script>
</body>
</html>
{{end}}

{{define "dashboard"}}
<div class="grid grid-4">
    <div class="card">
        <div class="stat-label">Current Usage</div>
        <div class="stat-value" id="stat-power">{{.Stats.TotalPower}}</div>
    </div>
    <div class="card">
        <div class="stat-label">Monthly Cost</div>
        <div class="stat-value blue" id="stat-cost">{{.Stats.MonthlyCost}}</div>
    </div>
    <div class="card">
        <div class="stat-label">Est. Savings</div>
        <div class="stat-value green" id="stat-savings">{{.Stats.Savings}}</div>
    </div>
    <div class="card">
        <div class="stat-label">Active Devices</div>
        <div class="stat-value purple" id="stat-active">{{.Stats.Active}}</div>
    </div>
</div>

<div class="grid grid-2">
    <div class="card">
        <h3>Real-Time Energy Consumption</h3>
        <table>
            <thead><tr><th>Time</th><th>kWh</th><th>Cost</th></tr></thead>
            <tbody id="samples-body">
                {{range .Samples}}
                <tr><td>{{.Time}}</td><td>{{.Consumption}}</td><td>{{.Cost}}</td></tr>
                {{end}}
            </tbody>
        </table>
    </div>
    <div class="card">
        <h3>Energy by Room</h3>
        {{range .Rooms}}
        <div class="room-row">
            <div class="room-head"><span>{{.Room}}: {{.Share}}</span><span>{{.Power}}</span></div>
            <div class="room-track"><div class="room-fill" style="width: {{.Width}}%"></div></div>
        </div>
        {{end}}
    </div>
</div>

<div class="card">
    <h3>Alerts &amp; Recommendations</h3>
    {{range .Alerts}}
    <div class="alert {{.Severity}}">
        <span>{{.Message}}</span>
        <span class="alert-time">{{.Time}}</span>
    </div>
    {{else}}
    <div class="subtitle">No alerts</div>
    {{end}}
</div>
{{end}}

{{define "devices"}}
<div class="card">
    <h3>Device Control</h3>
    <div class="grid grid-3">
        {{range .Devices}}
        <div class="card">
            <div class="device-head">
                <div>
                    <div class="device-name">{{iconGlyph .Icon}} {{.Name}}</div>
                    <div class="device-room">{{.Room}}</div>
                </div>
                <form method="POST" action="/devices/{{.ID}}/toggle">
                    <button type="submit" class="toggle{{if .On}} on{{end}}" aria-label="Toggle {{.Name}}"></button>
                </form>
            </div>
            <div class="device-row"><span>Power Draw:</span><strong>{{.Power}}</strong></div>
            <span class="badge{{if .On}} on{{end}}">{{.Status}}</span>
        </div>
        {{end}}
    </div>
</div>
{{end}}

{{define "analytics"}}
<div class="card" style="margin-bottom: 1.5rem;">
    <h3>Daily Energy Pattern</h3>
    <div class="bars">
        {{range .Samples}}
        <div class="bar-col" title="{{.Consumption}} kWh / {{.Cost}}">
            <div class="bar" style="height: {{.Height}}%"></div>
            <div class="bar-label">{{.Time}}</div>
        </div>
        {{end}}
    </div>
</div>

<div class="grid grid-2">
    <div class="card">
        <h3>Efficiency Insights</h3>
        {{range .Insights.Metrics}}
        <div class="insight"><span>{{.Label}}</span><span class="insight-value">{{.Value}}</span></div>
        {{end}}
    </div>
    <div class="card">
        <h3>Optimization Tips</h3>
        <ul class="tips">
            {{range .Insights.Tips}}<li>{{.}}</li>{{end}}
        </ul>
    </div>
</div>

<div class="card">
    <h3>Logs</h3>
    <div class="log-container">
        {{range .Logs}}
        <div class="log-entry {{levelClass .Level}}">
            <span class="log-time">{{.Timestamp.Format "15:04:05"}}</span>
            <span class="log-level">{{.Level}}</span>
            <span class="log-message">{{.Message}}</span>
        </div>
        {{end}}
    </div>
</div>
{{end}}
`))
