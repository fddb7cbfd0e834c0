// Package dataset reads labelled resumes from a CSV file.
package dataset

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"resumeclf/internal/textprep"
)

var ErrColumnNotFound = errors.New("dataset: column not found")

// Row is one labelled training example.
type Row struct {
	Text  string
	Label string
}

// Source identifies a resolved dataset: the CSV file and the names of its
// text and category columns.
type Source struct {
	Path           string
	TextColumn     string
	CategoryColumn string
}

// Options tunes LoadCSV.
type Options struct {
	// HTML converts cells that look like markup to their visible text.
	HTML bool
}

// Info mirrors the dataset_info.json descriptor written by the dataset
// preparation step.
type Info struct {
	DatasetPath    string         `json:"dataset_path"`
	CSVFile        string         `json:"csv_file"`
	TextColumn     string         `json:"text_column"`
	CategoryColumn string         `json:"category_column"`
	Columns        []string       `json:"columns,omitempty"`
	Categories     map[string]int `json:"categories,omitempty"`
}

// LoadInfo reads a dataset_info.json descriptor and resolves it to a Source.
// A relative dataset_path is taken relative to the descriptor's directory.
func LoadInfo(path string) (Source, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Source{}, fmt.Errorf("read dataset info: %w", err)
	}
	var info Info
	if err := json.Unmarshal(raw, &info); err != nil {
		return Source{}, fmt.Errorf("parse dataset info %s: %w", path, err)
	}
	if info.CSVFile == "" {
		return Source{}, fmt.Errorf("dataset info %s: csv_file is empty", path)
	}
	if info.TextColumn == "" || info.CategoryColumn == "" {
		return Source{}, fmt.Errorf("dataset info %s: text or category column not set", path)
	}
	base := info.DatasetPath
	if !filepath.IsAbs(base) {
		base = filepath.Join(filepath.Dir(path), base)
	}
	return Source{
		Path:           filepath.Join(base, info.CSVFile),
		TextColumn:     info.TextColumn,
		CategoryColumn: info.CategoryColumn,
	}, nil
}

// Load reads the rows of src.
func Load(src Source, opts Options) ([]Row, error) {
	f, err := os.Open(src.Path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return ReadCSV(f, src.TextColumn, src.CategoryColumn, opts)
}

// LoadCSV reads the text and category columns of the CSV file at path.
func LoadCSV(path, textCol, categoryCol string, opts Options) ([]Row, error) {
	return Load(Source{Path: path, TextColumn: textCol, CategoryColumn: categoryCol}, opts)
}

// ReadCSV reads rows from r. The first record is the header; columns are
// matched by exact name first and case-insensitively second.
func ReadCSV(r io.Reader, textCol, categoryCol string, opts Options) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	ti, err := column(header, textCol)
	if err != nil {
		return nil, err
	}
	ci, err := column(header, categoryCol)
	if err != nil {
		return nil, err
	}

	var rows []Row
	skipped := 0
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record %d: %w", line, err)
		}
		if ti >= len(rec) || ci >= len(rec) {
			skipped++
			continue
		}
		text := rec[ti]
		if opts.HTML && textprep.LooksLikeHTML(text) {
			if text, err = textprep.HTMLToText(text); err != nil {
				log.Warnf("Record %d: %v", line, err)
				skipped++
				continue
			}
		}
		rows = append(rows, Row{Text: text, Label: strings.TrimSpace(rec[ci])})
	}
	if skipped > 0 {
		log.Warnf("Skipped %d malformed records", skipped)
	}
	log.Infof("Loaded %d resumes", len(rows))
	return rows, nil
}

func column(header []string, name string) (int, error) {
	for i, h := range header {
		if h == name {
			return i, nil
		}
	}
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q (have %s)", ErrColumnNotFound, name, strings.Join(header, ", "))
}
