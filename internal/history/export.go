package history

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/DukeRupert/readyhire/internal/domain"
)

// ReportData is everything the progress report renders.
type ReportData struct {
	Generated time.Time
	Readiness int
	Streak    int
	Profile   *domain.Profile
	Sessions  []domain.SessionRecord
	WeakAreas []domain.WeakArea
}

// passMark is the score at which a session is shown as strong.
const passMark = 70

var reportTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"longDate":  func(t time.Time) string { return t.Format("2 January 2006") },
	"shortDate": func(t time.Time) string { return t.Format("02/01/2006") },
	"strong":    func(score int) bool { return score >= passMark },
}).Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>ReadyHire Report</title>
  <style>
    body{font-family:sans-serif;max-width:800px;margin:0 auto;padding:40px 20px}
    h1{color:#4f46e5}
    table{width:100%;border-collapse:collapse}
    th{text-align:left;padding:10px 12px;background:#f8fafc;border-bottom:2px solid #e2e8f0;font-size:13px}
    td{padding:8px 12px;border-bottom:1px solid #e2e8f0}
    .section{margin:32px 0;padding:24px;background:#f8fafc;border-radius:16px}
    .ring{width:120px;height:120px;border-radius:50%;border:8px solid #f59e0b;display:flex;align-items:center;justify-content:center;margin:20px auto;font-size:36px;font-weight:900}
    .ring.strong{border-color:#10b981}
    .badge{padding:2px 10px;border-radius:999px;font-weight:700;background:#fef3c7;color:#92400e}
    .badge.strong{background:#dcfce7;color:#166534}
    @media print{.section{break-inside:avoid}}
  </style>
</head>
<body>
  <div style="text-align:center">
    <h1>ReadyHire Progress Report</h1>
    <p>{{longDate .Generated}}</p>
    <div class="ring{{if strong .Readiness}} strong{{end}}">{{.Readiness}}</div>
    {{with .Profile}}<p style="font-size:18px;font-weight:600">{{.CurrentRole}} to {{.TargetRole}}</p>{{end}}
    {{if .Streak}}<p>{{.Streak}} day streak</p>{{end}}
  </div>
  <div class="section">
    <h2>Sessions</h2>
    <table>
      <thead>
        <tr><th>Date</th><th>Topic</th><th>Score</th></tr>
      </thead>
      <tbody>
      {{- range .Sessions}}
        <tr>
          <td>{{shortDate .Date}}</td>
          <td>{{.Title}}</td>
          <td style="text-align:center"><span class="badge{{if strong .Score}} strong{{end}}">{{.Score}}</span></td>
        </tr>
      {{- else}}
        <tr><td colspan="3">No sessions yet.</td></tr>
      {{- end}}
      </tbody>
    </table>
  </div>
  {{- if .WeakAreas}}
  <div class="section">
    <h2>Focus areas</h2>
    <ul>
    {{- range .WeakAreas}}
      <li>{{.Area}} ({{.Count}})</li>
    {{- end}}
    </ul>
  </div>
  {{- end}}
</body>
</html>
`))

// Export writes the HTML progress report to w.
func Export(w io.Writer, data ReportData) error {
	if err := reportTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}
