// Package testutil builds small, deterministic training sets and models for
// tests across packages.
package testutil

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"resumeclf/internal/artifacts"
	"resumeclf/internal/dataset"
	"resumeclf/internal/pipeline"
)

// Vocabularies per toy category.
var Vocabularies = map[string][]string{
	"Chef":       {"kitchen", "menu", "cooking", "sauce", "restaurant", "pastry", "catering", "grill"},
	"Healthcare": {"patient", "nursing", "clinical", "hospital", "medication", "triage", "ward", "bedside"},
	"Software":   {"golang", "kubernetes", "microservices", "backend", "api", "docker", "database", "cloud"},
}

// Categories of the toy corpus in sorted order.
var Categories = []string{"Chef", "Healthcare", "Software"}

// ToyRows returns perRow rows per category. Every row mixes five words of
// its category's vocabulary with shared filler and is longer than 50
// characters.
func ToyRows(perCategory int) []dataset.Row {
	var rows []dataset.Row
	for _, c := range Categories {
		vocab := Vocabularies[c]
		for i := 0; i < perCategory; i++ {
			words := make([]string, 0, 8)
			for k := 0; k < 5; k++ {
				words = append(words, vocab[(i+k*3)%len(vocab)])
			}
			text := fmt.Sprintf("Resume %d. Skills: %s. Strong team experience, contact me%d@example.com",
				i, strings.Join(words, ", "), i)
			rows = append(rows, dataset.Row{Text: text, Label: c})
		}
	}
	return rows
}

// Resume returns a held-out resume for category c.
func Resume(c string) string {
	return "Experienced professional. " + strings.Join(Vocabularies[c], " ") + " with years of team experience."
}

// Train fits a model on ToyRows(10).
func Train(t testing.TB) *pipeline.Result {
	t.Helper()
	res, err := pipeline.Train(ToyRows(10), pipeline.DefaultOptions())
	require.NoError(t, err)
	return res
}

// SaveModel trains a toy model and saves it to dir.
func SaveModel(t testing.TB, dir string) *artifacts.Model {
	t.Helper()
	res := Train(t)
	require.NoError(t, artifacts.Save(dir, res.Model))
	return res.Model
}

// WriteCSV writes rows to path with the Resume_str and Category columns of
// the public resume dataset.
func WriteCSV(t testing.TB, path string, rows []dataset.Row) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := csv.NewWriter(f)
	require.NoError(t, w.Write([]string{"ID", "Resume_str", "Category"}))
	for i, r := range rows {
		require.NoError(t, w.Write([]string{fmt.Sprint(i), r.Text, r.Label}))
	}
	w.Flush()
	require.NoError(t, w.Error())
}
