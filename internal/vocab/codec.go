package vocab

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/vocabdeck/pkg/models"
)

var (
	// ErrMalformedJSON means the upload is not JSON at all
	ErrMalformedJSON = errors.New("malformed JSON")
	// ErrInvalidShape means the JSON is not an array of {word, part, note} objects
	ErrInvalidShape = errors.New("expected an array of objects with string word, part and note")
)

// ValidateImport reports whether v, a value produced by encoding/json into an
// interface{}, is an array whose every element carries string word, part and
// note fields. Other fields are ignored.
func ValidateImport(v interface{}) bool {
	items, ok := v.([]interface{})
	if !ok {
		return false
	}

	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return false
		}
		for _, key := range []string{"word", "part", "note"} {
			if _, ok := obj[key].(string); !ok {
				return false
			}
		}
	}
	return true
}

// ParseImport decodes and validates an uploaded JSON document. Nothing is
// committed; pass the result to List.Import.
func ParseImport(data []byte) ([]models.Entry, error) {
	var candidate interface{}
	if err := json.Unmarshal(data, &candidate); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	if !ValidateImport(candidate) {
		return nil, ErrInvalidShape
	}

	items := candidate.([]interface{})
	entries := make([]models.Entry, 0, len(items))
	for _, item := range items {
		obj := item.(map[string]interface{})
		entries = append(entries, models.Entry{
			Word: obj["word"].(string),
			Part: obj["part"].(string),
			Note: obj["note"].(string),
		})
	}
	return entries, nil
}

// Serialize encodes the list as a compact JSON array in insertion order
func (l *List) Serialize() (string, error) {
	data, err := Marshal(l.Entries())
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Marshal encodes entries as a compact JSON array without HTML escaping
func Marshal(entries []models.Entry) ([]byte, error) {
	if entries == nil {
		entries = []models.Entry{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(entries); err != nil {
		return nil, fmt.Errorf("failed to encode entries: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
