// Package export renders saved reports into portable formats: a CSV table
// for spreadsheets and a print-ready text document. Both are pure
// transformations of the report data.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/hargabyte/sir/internal/report"
)

// csvHeader lists the exported columns, in order.
var csvHeader = []string{
	"id",
	"savedAt",
	"schoolUnit",
	"municipality",
	"state",
	"studentName",
	"studentDob",
	"grade",
	"shift",
	"occurrenceDateTime",
	"occurrenceLocation",
	"occurrenceSeverity",
	"occurrenceTypes",
	"detailedDescription",
	"immediateActions",
	"referrals",
	"reporterName",
	"reporterDate",
	"status",
}

// CSV writes the reports as a CSV table with a header row.
func CSV(w io.Writer, reports []report.SavedReport) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, sr := range reports {
		row := []string{
			sr.ID,
			sr.SavedAt,
			sr.SchoolUnit,
			sr.Municipality,
			sr.State,
			sr.StudentName,
			sr.StudentDob,
			sr.Grade,
			sr.Shift,
			sr.OccurrenceDateTime,
			sr.OccurrenceLocation,
			string(sr.OccurrenceSeverity),
			strings.Join(sr.OccurrenceTypes.Labels(), "; "),
			sr.DetailedDescription,
			sr.ImmediateActions,
			sr.Referrals,
			sr.ReporterName,
			sr.ReporterDate,
			string(sr.Status),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row for %s: %w", sr.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
