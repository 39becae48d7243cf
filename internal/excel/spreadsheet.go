package excel

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/example/vocabdeck/pkg/models"
	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for anything other than xlsx or csv
var ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

// Format is a spreadsheet flavour
type Format string

const (
	// XLSX is an Excel workbook
	XLSX Format = "xlsx"
	// CSV is comma separated text
	CSV Format = "csv"
)

// Header is the first row written on export
var Header = []string{"word", "part", "note"}

// ImportConfig defines the import configuration
type ImportConfig struct {
	WordColumn string // Column with the word
	PartColumn string // Column with the part of speech
	NoteColumn string // Column with the note
	SheetName  string // Sheet to import; the first sheet is used when missing
	StartRow   int    // 1-based row to start from; 0 skips a detected header row
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		WordColumn: "A",
		PartColumn: "B",
		NoteColumn: "C",
		SheetName:  "Sheet1",
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	Entries        []models.Entry
	TotalProcessed int
	Skipped        int
}

// ReadEntries reads entries from an xlsx or csv document
func ReadEntries(r io.Reader, format Format, config ImportConfig) (*ImportResult, error) {
	var rows [][]string
	var err error

	switch format {
	case XLSX:
		rows, err = readExcelRows(r, config.SheetName)
	case CSV:
		rows, err = readCSVRows(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}

	return processRows(rows, config), nil
}

// WriteEntries writes entries as an xlsx or csv document, header first
func WriteEntries(w io.Writer, format Format, entries []models.Entry) error {
	switch format {
	case XLSX:
		return writeExcel(w, entries)
	case CSV:
		return writeCSV(w, entries)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// readExcelRows returns all rows of the requested sheet
func readExcelRows(r io.Reader, sheetName string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	sheet := sheets[0]
	for _, name := range sheets {
		if name == sheetName {
			sheet = name
			break
		}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

// readCSVRows reads all records from a CSV document
func readCSVRows(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}
	return rows, nil
}

// processRows turns raw rows into entries, skipping blank rows and the header
func processRows(rows [][]string, config ImportConfig) *ImportResult {
	result := &ImportResult{
		Entries: make([]models.Entry, 0, len(rows)),
	}

	for i, row := range rows {
		if config.StartRow > 0 && i < config.StartRow-1 {
			continue
		}
		if config.StartRow == 0 && i == 0 && isHeader(row) {
			continue
		}

		result.TotalProcessed++

		entry := models.Entry{
			Word: cell(row, config.WordColumn),
			Part: cell(row, config.PartColumn),
			Note: cell(row, config.NoteColumn),
		}
		if strings.TrimSpace(entry.Word+entry.Part+entry.Note) == "" {
			result.Skipped++
			continue
		}
		result.Entries = append(result.Entries, entry)
	}

	return result
}

func isHeader(row []string) bool {
	if len(row) < len(Header) {
		return false
	}
	for i, name := range Header {
		if !strings.EqualFold(strings.TrimSpace(row[i]), name) {
			return false
		}
	}
	return true
}

// cell returns the value in column, or "" when the row is shorter
func cell(row []string, column string) string {
	if column == "" {
		return ""
	}
	if colIdx := columnToIndex(column); colIdx >= 0 && colIdx < len(row) {
		return row[colIdx]
	}
	return ""
}

func writeExcel(w io.Writer, entries []models.Entry) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	if err := f.SetSheetRow(sheet, "A1", &Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, e := range entries {
		cellName, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", i+2, err)
		}
		row := []string{e.Word, e.Part, e.Note}
		if err := f.SetSheetRow(sheet, cellName, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeCSV(w io.Writer, entries []models.Entry) error {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, e := range entries {
		if err := writer.Write([]string{e.Word, e.Part, e.Note}); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// Helper function to convert Excel column letter to index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
