package output

import (
	"html/template"
	"io"

	"github.com/amarzeus/github-stats-cli/pkg/stats"
)

// WriteDashboard renders a single-file HTML dashboard for one account.
func WriteDashboard(w io.Writer, st *stats.AccountStats) error {
	return dashboardTmpl.Execute(w, st)
}

var dashboardTmpl = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"orNA": orNA,
	"date": func(st *stats.AccountStats) string { return st.Profile.CreatedAt.Format("2006-01-02") },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>GitHub Stats Dashboard - {{.Profile.Login}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        h1 { color: #333; }
        .stats { display: flex; flex-wrap: wrap; }
        .stat { background: #f4f4f4; padding: 10px; margin: 10px; border-radius: 5px; flex: 1; min-width: 200px; }
        table { width: 100%; border-collapse: collapse; }
        th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
        th { background-color: #f2f2f2; }
    </style>
</head>
<body>
    <h1>GitHub Stats Dashboard for {{.Profile.Login}}</h1>
    <div class="stats">
        <div class="stat"><strong>Name:</strong> {{orNA .Profile.Name}}</div>
        <div class="stat"><strong>Bio:</strong> {{orNA .Profile.Bio}}</div>
        <div class="stat"><strong>Location:</strong> {{orNA .Profile.Location}}</div>
        <div class="stat"><strong>Followers:</strong> {{.Profile.Followers}}</div>
        <div class="stat"><strong>Following:</strong> {{.Profile.Following}}</div>
        <div class="stat"><strong>Public Repos:</strong> {{.Profile.PublicRepos}}</div>
        <div class="stat"><strong>Public Gists:</strong> {{.Profile.PublicGists}}</div>
        <div class="stat"><strong>Account Created:</strong> {{date .}}</div>
    </div>
    <h2>Top Repositories</h2>
    <table>
        <tr><th>Name</th><th>Stars</th><th>Language</th><th>Forks</th><th>Open Issues</th><th>Last Updated</th></tr>
        {{range .Repositories}}<tr><td>{{.Name}}</td><td>{{.Stars}}</td><td>{{orNA .Language}}</td><td>{{.Forks}}</td><td>{{.OpenIssues}}</td><td>{{.UpdatedAt.Format "2006-01-02"}}</td></tr>
        {{end}}
    </table>
    {{if .Contributors}}<h2>Top Contributors</h2>
    <table>
        <tr><th>Login</th><th>Contributions</th></tr>
        {{range .Contributors}}<tr><td>{{.Login}}</td><td>{{.Contributions}}</td></tr>
        {{end}}
    </table>
    {{end}}
</body>
</html>
`))
