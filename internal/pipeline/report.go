package pipeline

import (
	"strings"

	"apsiteimport/internal/domain"
	"apsiteimport/internal/input"
)

const issueSeparator = " | "

// Trailing columns appended to the normalized input on the failure path.
var reportColumns = []string{"issue", "issue_field", "issue_value"}

// Trailing columns appended to the normalized input on the success path.
var resultColumns = []string{"assignment status", "error message"}

// BuildReport annotates the normalized table with the collected issues,
// producing the header and rows of the validation report artifact. Issues
// attributed to the same row are pipe-joined in order.
//
// When the file has no data rows and only header-level issues exist, the
// report degenerates to a single synthetic row carrying just the issue
// columns — the minimum viable diagnostic for a structurally broken file.
func BuildReport(t input.Table, issues []domain.Issue) ([]string, [][]string) {
	byRow := make(map[int][]domain.Issue)
	for _, issue := range issues {
		row := issue.Row
		if row < 0 {
			row = 0
		}
		byRow[row] = append(byRow[row], issue)
	}

	if len(t.Rows) == 0 {
		if header, ok := byRow[0]; ok {
			return append([]string(nil), reportColumns...), [][]string{joinIssues(header)}
		}
	}

	headers := append(append([]string(nil), t.Headers...), reportColumns...)
	rows := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		record := make([]string, 0, len(headers))
		for _, header := range t.Headers {
			record = append(record, row.Values[header])
		}
		if rowIssues, ok := byRow[row.Number]; ok {
			record = append(record, joinIssues(rowIssues)...)
		} else {
			record = append(record, "", "", "")
		}
		rows = append(rows, record)
	}
	return headers, rows
}

func joinIssues(issues []domain.Issue) []string {
	messages := make([]string, len(issues))
	fields := make([]string, len(issues))
	values := make([]string, len(issues))
	for i, issue := range issues {
		messages[i] = issue.Message
		fields[i] = issue.Field
		values[i] = issue.Value
	}
	return []string{
		strings.Join(messages, issueSeparator),
		strings.Join(fields, issueSeparator),
		strings.Join(values, issueSeparator),
	}
}

// BuildResults appends the per-row assignment status and error message
// columns to the normalized table. Outcomes are matched to rows by their
// shared row number.
func BuildResults(t input.Table, outcomes []domain.AssignmentOutcome) ([]string, [][]string) {
	byRow := make(map[int]domain.AssignmentOutcome, len(outcomes))
	for _, outcome := range outcomes {
		byRow[outcome.Row] = outcome
	}

	headers := append(append([]string(nil), t.Headers...), resultColumns...)
	rows := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		record := make([]string, 0, len(headers))
		for _, header := range t.Headers {
			record = append(record, row.Values[header])
		}
		outcome := byRow[row.Number]
		record = append(record, string(outcome.Status), outcome.Error)
		rows = append(rows, record)
	}
	return headers, rows
}
