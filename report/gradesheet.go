package report

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/scolaris-app/scolaris/internal/grades"
)

// gradeSheetTmpl is the printable course grade list. Raw values only.
var gradeSheetTmpl = template.Must(template.New("gradesheet").Parse(`<!DOCTYPE html>
<html lang="fr">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: "Helvetica Neue", Arial, sans-serif; margin: 2cm; color: #1a1a1a; }
h1 { font-size: 18pt; border-bottom: 2px solid #1a1a1a; padding-bottom: 4px; }
p.meta { color: #555; font-size: 9pt; }
table { width: 100%; border-collapse: collapse; margin-top: 12px; font-size: 10pt; }
th, td { border: 1px solid #999; padding: 4px 8px; text-align: left; }
th { background: #eee; }
td.num { text-align: right; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="meta">Édité le {{.GeneratedAt}} · {{.Count}} note(s)</p>
<table>
<thead>
<tr><th>Élève</th><th>Note /20</th><th>Coefficient</th><th>Commentaire</th><th>Saisie le</th></tr>
</thead>
<tbody>
{{range .Rows}}<tr>
<td>{{.StudentName}}</td>
<td class="num">{{printf "%.2f" .Value}}</td>
<td class="num">{{printf "%.1f" .Coefficient}}</td>
<td>{{.Comment}}</td>
<td>{{.RecordedAt.Format "02/01/2006 15:04"}}</td>
</tr>
{{end}}</tbody>
</table>
</body>
</html>
`))

type gradeSheetData struct {
	Title       string
	GeneratedAt string
	Count       int
	Rows        []grades.ExportRow
}

// BuildGradeSheetHTML renders the printable HTML for a course grade list.
func BuildGradeSheetHTML(courseName string, rows []grades.ExportRow, generatedAt time.Time) (string, error) {
	var buf bytes.Buffer
	err := gradeSheetTmpl.Execute(&buf, gradeSheetData{
		Title:       fmt.Sprintf("Relevé de notes · %s", courseName),
		GeneratedAt: generatedAt.Format("02/01/2006 15:04"),
		Count:       len(rows),
		Rows:        rows,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
