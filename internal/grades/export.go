package grades

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

// WriteCourseCSV serialises a course grade list to CSV. Raw values only; no
// derived figures.
func WriteCourseCSV(w io.Writer, rows []ExportRow) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Student", "Course", "Value", "Coefficient", "Comment", "Recorded At"}); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.StudentName,
			row.CourseName,
			strconv.FormatFloat(row.Value, 'f', 2, 64),
			strconv.FormatFloat(row.Coefficient, 'f', 1, 64),
			row.Comment,
			row.RecordedAt.Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
