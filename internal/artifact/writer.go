package artifact

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const stampLayout = "20060102_150405"

// Writer persists run artifacts (results tables and validation reports) as
// uniquely named CSV files. Files are written to a temp file first and
// promoted by rename so a partially written artifact is never visible.
type Writer struct {
	dir string
	now func() time.Time
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: filepath.Clean(dir), now: time.Now}
}

// Dir returns the directory artifacts are written to.
func (w *Writer) Dir() string {
	return w.dir
}

// ResultsFileName derives the results artifact name from the input file's
// base name, the current timestamp, and the run ID.
func (w *Writer) ResultsFileName(inputPath string, runID uuid.UUID) string {
	base := sanitizeFileComponent(strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath)))
	if base == "" {
		return fmt.Sprintf("results_%s_%s.csv", w.stamp(), shortID(runID))
	}
	return fmt.Sprintf("%s_results_%s_%s.csv", base, w.stamp(), shortID(runID))
}

// ReportFileName names a validation report artifact.
func (w *Writer) ReportFileName(runID uuid.UUID) string {
	return fmt.Sprintf("validation_report_%s_%s.csv", w.stamp(), shortID(runID))
}

// WriteCSV persists one table under the given file name and returns the
// final path.
func (w *Writer) WriteCSV(name string, headers []string, rows [][]string) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure artifact directory: %w", err)
	}

	tempFile, err := os.CreateTemp(w.dir, ".artifact-*.csv")
	if err != nil {
		return "", fmt.Errorf("create temp artifact: %w", err)
	}
	tempPath := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = tempFile.Close()
			_ = os.Remove(tempPath)
		}
	}()

	csvWriter := csv.NewWriter(tempFile)
	if err := csvWriter.Write(headers); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		if err := csvWriter.Write(row); err != nil {
			return "", fmt.Errorf("write row: %w", err)
		}
	}
	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return "", fmt.Errorf("flush artifact: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return "", fmt.Errorf("sync artifact: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return "", fmt.Errorf("close artifact: %w", err)
	}

	finalPath := filepath.Join(w.dir, name)
	if err := os.Rename(tempPath, finalPath); err != nil {
		return "", fmt.Errorf("promote artifact: %w", err)
	}
	cleanup = false
	return finalPath, nil
}

func (w *Writer) stamp() string {
	return w.now().Format(stampLayout)
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

func sanitizeFileComponent(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	builder := strings.Builder{}
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z':
			builder.WriteRune(r)
		case r >= '0' && r <= '9':
			builder.WriteRune(r)
		case r == '-' || r == '_':
			builder.WriteRune(r)
		default:
			builder.WriteRune('-')
		}
	}
	return strings.Trim(builder.String(), "-")
}
