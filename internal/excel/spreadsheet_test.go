package excel

import (
	"bytes"
	"strings"
	"testing"

	"github.com/example/vocabdeck/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var entries = []models.Entry{
	{Word: "猫", Part: "n.", Note: "cat"},
	{Word: "run", Part: "v.", Note: ""},
	{Word: "quote", Part: "", Note: `say "hi", then leave`},
}

func TestWriteReadRoundTrip(t *testing.T) {
	for _, format := range []Format{XLSX, CSV} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteEntries(&buf, format, entries))

			result, err := ReadEntries(&buf, format, DefaultImportConfig())
			require.NoError(t, err)
			assert.Equal(t, entries, result.Entries)
			assert.Equal(t, len(entries), result.TotalProcessed)
			assert.Zero(t, result.Skipped)
		})
	}
}

func TestWriteEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteEntries(&buf, CSV, nil))
	assert.Equal(t, "word,part,note\n", buf.String())
}

func TestReadCSV(t *testing.T) {
	doc := "dog,n.,inu\n,,\nshort\n  ,\t,\nfly,v.,tobu,ignored\n"

	result, err := ReadEntries(strings.NewReader(doc), CSV, DefaultImportConfig())
	require.NoError(t, err)
	assert.Equal(t, []models.Entry{
		{Word: "dog", Part: "n.", Note: "inu"},
		{Word: "short"},
		{Word: "fly", Part: "v.", Note: "tobu"},
	}, result.Entries)
	assert.Equal(t, 5, result.TotalProcessed)
	assert.Equal(t, 2, result.Skipped)
}

func TestReadCustomColumns(t *testing.T) {
	doc := "id,note,word,part\n1,cat,neko,n.\n"
	config := ImportConfig{WordColumn: "C", PartColumn: "D", NoteColumn: "B", StartRow: 2}

	result, err := ReadEntries(strings.NewReader(doc), CSV, config)
	require.NoError(t, err)
	assert.Equal(t, []models.Entry{{Word: "neko", Part: "n.", Note: "cat"}}, result.Entries)
}

func TestReadExcelFallsBackToFirstSheet(t *testing.T) {
	f := excelize.NewFile()
	_, err := f.NewSheet("Words")
	require.NoError(t, err)
	f.DeleteSheet("Sheet1")
	require.NoError(t, f.SetSheetRow("Words", "A1", &[]string{"book", "n.", "hon"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	result, err := ReadEntries(&buf, XLSX, DefaultImportConfig())
	require.NoError(t, err)
	assert.Equal(t, []models.Entry{{Word: "book", Part: "n.", Note: "hon"}}, result.Entries)
}

func TestReadExcelRejectsGarbage(t *testing.T) {
	_, err := ReadEntries(strings.NewReader("not a zip"), XLSX, DefaultImportConfig())
	assert.Error(t, err)
}

func TestUnsupportedFormat(t *testing.T) {
	_, err := ReadEntries(strings.NewReader(""), Format("ods"), DefaultImportConfig())
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	err = WriteEntries(&bytes.Buffer{}, Format("ods"), entries)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestColumnToIndex(t *testing.T) {
	tests := map[string]int{"A": 0, "c": 2, "Z": 25, "AA": 26, "AB": 27}
	for column, want := range tests {
		assert.Equal(t, want, columnToIndex(column), column)
	}
}
