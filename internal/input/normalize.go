package input

import "strings"

// Normalize returns a canonical copy of the table: header names trimmed and
// lower-cased, every cell trimmed of surrounding whitespace, and every
// header present in every row (missing cells become empty strings). The
// transformation is pure and idempotent; row numbers are preserved.
//
// If two headers collide after folding, the later column wins.
func Normalize(t Table) Table {
	headers := make([]string, 0, len(t.Headers))
	seen := make(map[string]bool, len(t.Headers))
	for _, header := range t.Headers {
		name := strings.ToLower(strings.TrimSpace(header))
		if seen[name] {
			continue
		}
		seen[name] = true
		headers = append(headers, name)
	}

	rows := make([]Row, len(t.Rows))
	for i, row := range t.Rows {
		values := make(map[string]string, len(headers))
		for _, header := range headers {
			values[header] = ""
		}
		for _, raw := range t.Headers {
			name := strings.ToLower(strings.TrimSpace(raw))
			if value, ok := row.Values[raw]; ok {
				values[name] = strings.TrimSpace(value)
			}
		}
		rows[i] = Row{Number: row.Number, Values: values}
	}

	return Table{Headers: headers, Rows: rows}
}
