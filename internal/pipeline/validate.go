package pipeline

import (
	"strings"

	"apsiteimport/internal/domain"
	"apsiteimport/internal/input"
)

// Column names the pipeline requires, compared against the normalized
// (lower-cased, trimmed) header set.
const (
	ColumnFloor    = "floor #"
	ColumnHostname = "wap hostname"
	ColumnSerial   = "serial number"
	ColumnMAC      = "mac address"
)

// RequiredColumns lists the columns every input file must carry.
var RequiredColumns = []string{ColumnFloor, ColumnHostname, ColumnSerial, ColumnMAC}

// MissingColumns returns the required columns absent from the normalized
// header set, in RequiredColumns order.
func MissingColumns(t input.Table) []string {
	present := make(map[string]bool, len(t.Headers))
	for _, header := range t.Headers {
		present[header] = true
	}
	var missing []string
	for _, column := range RequiredColumns {
		if !present[column] {
			missing = append(missing, column)
		}
	}
	return missing
}

// HeaderIssue wraps a missing-column list into the single header-level
// issue (row 0) the pipeline reports for a structurally broken file.
func HeaderIssue(missing []string) domain.Issue {
	return domain.Issue{
		Row:     0,
		Field:   "headers",
		Value:   strings.Join(missing, ", "),
		Message: "missing required column(s)",
	}
}

// ValidateRows checks every normalized row against the inventory snapshot
// and collects the full ordered issue list; it never stops at the first bad
// row. Within a row the checks run presence → membership → format and stop
// at the first disqualifying issue, so a row whose serial is unusable is
// not also flagged for downstream problems.
func ValidateRows(t input.Table, snapshot domain.InventorySnapshot) []domain.Issue {
	var issues []domain.Issue
	for _, row := range t.Rows {
		serial := row.Values[ColumnSerial]

		if serial == "" {
			issues = append(issues, domain.Issue{
				Row:     row.Number,
				Field:   ColumnSerial,
				Value:   "",
				Message: "blank",
			})
			continue
		}

		if _, ok := snapshot[serial]; !ok {
			issues = append(issues, domain.Issue{
				Row:     row.Number,
				Field:   ColumnSerial,
				Value:   serial,
				Message: "not found in inventory",
			})
			continue
		}

		rawMAC := row.Values[ColumnMAC]
		if mac := CanonicalMAC(rawMAC); mac != "" && !ValidCanonicalMAC(mac) {
			issues = append(issues, domain.Issue{
				Row:     row.Number,
				Field:   ColumnMAC,
				Value:   rawMAC,
				Message: "format invalid",
			})
		}
	}
	return issues
}
