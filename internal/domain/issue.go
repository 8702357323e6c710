package domain

// Issue describes a single validation problem found while checking an
// uploaded file. Row is the 1-based data row number; row 0 means the issue
// applies to the whole file (e.g. a missing header column).
type Issue struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

// HeaderLevel reports whether the issue applies to the file as a whole
// rather than a specific data row.
func (i Issue) HeaderLevel() bool {
	return i.Row <= 0
}
