package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/scolaris-app/scolaris/internal/grades"
)

func TestBuildGradeSheetHTML(t *testing.T) {
	rows := []grades.ExportRow{
		{
			StudentName: "Léa Durand",
			CourseName:  "Mathématiques",
			Value:       14.5,
			Coefficient: 2,
			Comment:     "Bon trimestre",
			RecordedAt:  time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC),
		},
		{
			StudentName: "Hugo <script>Martin</script>",
			CourseName:  "Mathématiques",
			Value:       8,
			Coefficient: 1,
			RecordedAt:  time.Date(2025, time.March, 11, 9, 0, 0, 0, time.UTC),
		},
	}

	html, err := BuildGradeSheetHTML("Mathématiques", rows, time.Date(2025, time.March, 12, 18, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Contains(t, html, "Relevé de notes")
	require.Contains(t, html, "Mathématiques")
	require.Contains(t, html, "14.50")
	require.Contains(t, html, "10/03/2025 09:00")
	require.Contains(t, html, "2 note(s)")

	// Student names are user input and must be escaped.
	require.NotContains(t, html, "<script>")
}

func TestBuildGradeSheetHTMLEmptyCourse(t *testing.T) {
	html, err := BuildGradeSheetHTML("Histoire", nil, time.Now())
	require.NoError(t, err)
	require.Contains(t, html, "0 note(s)")
}
