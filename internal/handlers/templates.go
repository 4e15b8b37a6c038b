package handlers

import (
	"html/template"
	"net/http"
	"strings"

	"almanac-platform/internal/calendar"
)

var templateFuncs = template.FuncMap{
	"phaseLabel": calendar.PhaseLabel,
	"join":       strings.Join,
}

// docsTemplate serves the Swagger UI for the OpenAPI document
var docsTemplate = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>{{.Title}}</title>
    <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5.10.0/swagger-ui.css">
    <style>
        body { margin:0; padding:0; }
    </style>
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5.10.0/swagger-ui-bundle.js"></script>
    <script>
        window.onload = function() {
            window.ui = SwaggerUIBundle({
                url: "{{.SpecURL}}",
                dom_id: '#swagger-ui',
                deepLinking: true
            });
        };
    </script>
</body>
</html>`))

// SwaggerUI serves the API documentation page
func SwaggerUI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	docsTemplate.Execute(w, map[string]string{
		"Title":   "Lunar Almanac API Documentation",
		"SpecURL": "/api/docs/openapi.json",
	})
}

// calendarTemplate renders the month page
var calendarTemplate = template.Must(template.New("calendar").Funcs(templateFuncs).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>{{.View.Label}} · Lunar Almanac</title>
    <style>
        body { font-family: system-ui, sans-serif; margin: 0 auto; max-width: 960px; padding: 1rem; color: #1f2933; }
        .strip { background: #f5f0e6; border-radius: 8px; padding: 0.75rem 1rem; margin-bottom: 1rem; }
        .nav, .filters { display: flex; gap: 0.5rem; align-items: center; margin-bottom: 0.75rem; }
        .filters a { padding: 0.25rem 0.75rem; border: 1px solid #ccc; border-radius: 999px; text-decoration: none; color: inherit; }
        .filters a.active { background: #1f2933; color: #fff; }
        table { width: 100%; border-collapse: collapse; table-layout: fixed; }
        th { font-size: 0.8rem; text-transform: uppercase; color: #52606d; }
        td { border: 1px solid #e4e7eb; height: 5rem; vertical-align: top; padding: 0.25rem; font-size: 0.8rem; }
        td.blank { background: #fafafa; }
        td.today { outline: 2px solid #c17d11; }
        td.selected { background: #fff8e1; }
        td a { color: inherit; text-decoration: none; display: block; height: 100%; }
        .day { font-weight: 600; }
        .badge { float: right; color: #c17d11; }
        .card { border: 1px solid #e4e7eb; border-radius: 8px; padding: 1rem; margin-top: 1rem; }
    </style>
</head>
<body>
    <h1>Lunar Almanac</h1>

    {{with .Today}}
    <div class="strip">
        <strong>{{$.TodayHeading}}: {{.Date}}</strong>
        · {{phaseLabel .MoonPhase}}{{with .MoonName}} · {{.}}{{end}}{{with .Holiday}} · {{.}}{{end}}
        {{with .Notes}}<div>{{.}}</div>{{end}}
    </div>
    {{end}}

    <div class="nav">
        {{if .PrevURL}}<a href="{{.PrevURL}}">&larr; Prev</a>{{end}}
        <h2>{{.View.Label}}</h2>
        {{if .NextURL}}<a href="{{.NextURL}}">Next &rarr;</a>{{end}}
        <form method="get" action="/">
            <input type="hidden" name="filter" value="{{.View.Filter}}">
            <select name="month" onchange="this.form.submit()">
                {{range .Months}}<option value="{{.Key}}"{{if eq .Key $.View.Key}} selected{{end}}>{{.Label}}</option>{{end}}
            </select>
        </form>
    </div>

    <div class="filters">
        {{range .Filters}}<a href="{{.URL}}"{{if .Active}} class="active"{{end}}>{{.Label}}</a>{{end}}
    </div>

    <table>
        <thead><tr>{{range .View.WeekdayLabels}}<th>{{.}}</th>{{end}}</tr></thead>
        <tbody>
        {{range .Rows}}
            <tr>
            {{range .}}
                {{if .Blank}}<td class="blank"></td>{{else}}
                <td class="{{if .IsToday}}today{{end}}{{if .IsSelected}} selected{{end}}">
                    <a href="{{.URL}}">
                        <span class="day">{{.DayNumber}}</span>{{with .Badge}}<span class="badge">{{.}}</span>{{end}}
                        <div>{{.Subtitle}}</div>
                    </a>
                </td>
                {{end}}
            {{end}}
            </tr>
        {{end}}
        </tbody>
    </table>

    {{with .Selected}}
    <div class="card">
        <h3>{{.Date}}{{with .Holiday}} · {{.}}{{end}}</h3>
        <p>{{phaseLabel .MoonPhase}}{{with .MoonName}} ({{.}}){{end}} · {{.Season}} · {{.Region}}</p>
        {{with .Notes}}<p>{{.}}</p>{{end}}
        {{if .Crops}}<p><strong>Crops:</strong> {{join .Crops ", "}}</p>{{end}}
        {{if .Farming.BestFor}}<p><strong>Farming, best for:</strong> {{join .Farming.BestFor ", "}}</p>{{end}}
        {{if .Farming.Avoid}}<p><strong>Farming, avoid:</strong> {{join .Farming.Avoid ", "}}</p>{{end}}
        {{if .Business.BestFor}}<p><strong>Business, best for:</strong> {{join .Business.BestFor ", "}}</p>{{end}}
        {{if .Business.Avoid}}<p><strong>Business, avoid:</strong> {{join .Business.Avoid ", "}}</p>{{end}}
    </div>
    {{end}}
</body>
</html>`))
