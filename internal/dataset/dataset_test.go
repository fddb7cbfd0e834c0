package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = "ID,Resume_str,Resume_html,Category\n" +
	"1,\"Chef, 10 years\",\"<div><p>Chef</p></div>\",CHEF\n" +
	"2,Nurse with ICU experience,<p>Nurse</p>, HEALTHCARE \n" +
	"3,short\n"

func TestReadCSV(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader(sample), "Resume_str", "Category", Options{})
	require.NoError(t, err)
	assert.Equal(t, []Row{
		{Text: "Chef, 10 years", Label: "CHEF"},
		{Text: "Nurse with ICU experience", Label: "HEALTHCARE"},
	}, rows)
}

func TestReadCSVHTML(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader(sample), "resume_html", "category", Options{HTML: true})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Chef", rows[0].Text)
	assert.Equal(t, "Nurse", rows[1].Text)
}

func TestReadCSVMissingColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(sample), "Resume", "Category", Options{})
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

func TestLoadInfo(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "data")
	require.NoError(t, os.MkdirAll(data, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(data, "Resume.csv"), []byte("\ufeff"+sample), 0o644))
	info := `{"dataset_path": "data", "csv_file": "Resume.csv", "text_column": "Resume_str", "category_column": "Category", "categories": {"CHEF": 1}}`
	infoPath := filepath.Join(dir, "dataset_info.json")
	require.NoError(t, os.WriteFile(infoPath, []byte(info), 0o644))

	src, err := LoadInfo(infoPath)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(data, "Resume.csv"), src.Path)
	assert.Equal(t, "Resume_str", src.TextColumn)

	// a BOM on the header must not hide the first column name
	rows, err := LoadCSV(src.Path, "ID", src.CategoryColumn, Options{})
	require.NoError(t, err)
	assert.Equal(t, "1", rows[0].Text)

	rows, err = Load(src, Options{})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestLoadInfoInvalid(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "dataset_info.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"csv_file": "x.csv", "text_column": null}`), 0o644))
	_, err := LoadInfo(p)
	assert.Error(t, err)

	_, err = LoadInfo(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
