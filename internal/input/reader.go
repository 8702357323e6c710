package input

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFormat is returned when the input file is neither CSV
	// nor XLSX.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrSheetNotFound is returned when a named worksheet does not exist in
	// the workbook.
	ErrSheetNotFound = errors.New("sheet not found")

	byteOrderMark = []byte{0xEF, 0xBB, 0xBF}
)

// Table is an ordered sequence of data rows under a header. Every cell is a
// string; serials and MAC addresses must never be reinterpreted as numbers.
type Table struct {
	Headers []string
	Rows    []Row
}

// Row is one data row. Number is the 1-based position among data rows
// (header excluded) and is the row-number source of truth for the rest of
// the pipeline.
type Row struct {
	Number int
	Values map[string]string
}

// Read parses the file at path into a raw table. The format is chosen by
// extension: .csv or .xlsx. sheetName selects a worksheet for workbooks;
// when empty the first sheet is used.
func Read(path, sheetName string) (Table, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read input file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv":
		return readCSV(payload)
	case ".xlsx":
		return readExcel(payload, sheetName)
	default:
		return Table{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func readCSV(payload []byte) (Table, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("read csv: %w", err)
	}
	return buildTable(records)
}

func readExcel(payload []byte, sheetName string) (Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return Table{}, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, errors.New("workbook has no sheets")
	}

	sheet := sheets[0]
	if sheetName != "" {
		found := false
		for _, candidate := range sheets {
			if candidate == sheetName {
				found = true
				break
			}
		}
		if !found {
			return Table{}, fmt.Errorf("%w: %q", ErrSheetNotFound, sheetName)
		}
		sheet = sheetName
	}

	records, err := f.GetRows(sheet)
	if err != nil {
		return Table{}, fmt.Errorf("read rows from sheet %q: %w", sheet, err)
	}
	return buildTable(records)
}

// buildTable takes the first non-empty record as the header row and numbers
// the remaining non-empty records 1..N in input order. A record carrying
// data beyond the header width is an error: there is no column to attribute
// the extra cells to, and dropping them would hide it. Trailing blank cells
// are tolerated.
func buildTable(records [][]string) (Table, error) {
	var headers []string
	var rows []Row

	for _, record := range records {
		if emptyRecord(record) {
			continue
		}
		if headers == nil {
			headers = append([]string(nil), record...)
			continue
		}
		number := len(rows) + 1
		for _, cell := range record[min(len(record), len(headers)):] {
			if strings.TrimSpace(cell) != "" {
				return Table{}, fmt.Errorf("row %d has %d cells but the header has %d columns", number, len(record), len(headers))
			}
		}
		record = padRecord(record, len(headers))
		values := make(map[string]string, len(headers))
		for i, header := range headers {
			values[header] = record[i]
		}
		rows = append(rows, Row{Number: number, Values: values})
	}

	if headers == nil {
		return Table{}, errors.New("no header row found in file")
	}
	return Table{Headers: headers, Rows: rows}, nil
}

func emptyRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func padRecord(record []string, length int) []string {
	if len(record) >= length {
		return record[:length]
	}
	padded := make([]string, length)
	copy(padded, record)
	return padded
}
