// Package files maps upload and download file names to the codecs that read
// and write vocabulary entries.
package files

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/example/vocabdeck/internal/excel"
	"github.com/example/vocabdeck/internal/vocab"
	"github.com/example/vocabdeck/pkg/models"
)

// Format is a supported file format
type Format string

const (
	JSON Format = "json"
	XLSX Format = "xlsx"
	CSV  Format = "csv"
)

// ErrUnknownFormat is returned for file names without a supported extension
var ErrUnknownFormat = errors.New("unknown file format")

// ParseFormat accepts a format name such as "json" or ".xlsx"
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), ".")); f {
	case JSON, XLSX, CSV:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// FormatOf returns the format implied by a file name's extension
func FormatOf(fileName string) (Format, error) {
	ext := filepath.Ext(fileName)
	if ext == "" {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, fileName)
	}
	return ParseFormat(ext)
}

// FileName returns the download name for a format, e.g. vocab.json
func FileName(base string, format Format) string {
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return base + "." + string(format)
}

// Decoded is the outcome of reading a file
type Decoded struct {
	Entries []models.Entry
	// Blank spreadsheet rows that were dropped
	Skipped int
}

// DecodeFile reads and validates entries. Nothing is committed to a list.
func DecodeFile(format Format, data []byte) (*Decoded, error) {
	switch format {
	case JSON:
		entries, err := vocab.ParseImport(data)
		if err != nil {
			return nil, err
		}
		return &Decoded{Entries: entries}, nil
	case XLSX, CSV:
		result, err := excel.ReadEntries(bytes.NewReader(data), excel.Format(format), excel.DefaultImportConfig())
		if err != nil {
			return nil, err
		}
		return &Decoded{Entries: result.Entries, Skipped: result.Skipped}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Decode is DecodeFile without the row counts
func Decode(format Format, data []byte) ([]models.Entry, error) {
	decoded, err := DecodeFile(format, data)
	if err != nil {
		return nil, err
	}
	return decoded.Entries, nil
}

// Encode writes entries in the given format
func Encode(format Format, entries []models.Entry) ([]byte, error) {
	switch format {
	case JSON:
		return vocab.Marshal(entries)
	case XLSX, CSV:
		var buf bytes.Buffer
		if err := excel.WriteEntries(&buf, excel.Format(format), entries); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
