package artifacts

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumeclf/internal/ml"
	"resumeclf/internal/ml/forest"
	"resumeclf/internal/ml/tfidf"
)

func trainModel(t *testing.T) *Model {
	t.Helper()
	docs := []string{
		"java developer spring", "java developer backend",
		"nurse patient care", "nurse patient ward",
	}
	labels := []int{0, 0, 1, 1}
	vec, err := tfidf.Fit(docs, tfidf.DefaultParams())
	require.NoError(t, err)
	p := forest.DefaultParams()
	p.Trees = 5
	clf, err := forest.Fit(vec.TransformAll(docs), labels, 2, vec.Dim(), p)
	require.NoError(t, err)
	return &Model{Featurizer: vec, Classifier: clf, Categories: []string{"Engineering", "Healthcare"}}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "models")
	m := trainModel(t)
	require.NoError(t, Save(dir, m))
	assert.True(t, Exists(dir))

	raw, err := os.ReadFile(filepath.Join(dir, CategoriesFile))
	require.NoError(t, err)
	assert.JSONEq(t, `{"categories": ["Engineering", "Healthcare"]}`, string(raw))

	got, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, m.Categories, got.Categories)
	for _, doc := range []string{"java developer", "patient care nurse", "unrelated"} {
		x := m.Featurizer.Transform(doc)
		assert.Equal(t, m.Classifier.PredictProba(x), got.Classifier.PredictProba(got.Featurizer.Transform(doc)))
	}

	// no staging or backup directories are left behind
	entries, err := os.ReadDir(filepath.Dir(dir))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSaveOverwrites(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "models")
	require.NoError(t, Save(dir, trainModel(t)))

	m := trainModel(t)
	m.Categories = []string{"Backend", "Nursing"}
	require.NoError(t, Save(dir, m))

	got, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"Backend", "Nursing"}, got.Categories)
}

type failingFeaturizer struct{ ml.Featurizer }

func (failingFeaturizer) MarshalBinary() ([]byte, error) { return nil, errors.New("boom") }

func TestFailedSaveKeepsPreviousModel(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "models")
	good := trainModel(t)
	require.NoError(t, Save(dir, good))

	bad := trainModel(t)
	bad.Categories = []string{"X", "Y"}
	bad.Featurizer = failingFeaturizer{bad.Featurizer}
	require.Error(t, Save(dir, bad))

	got, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, good.Categories, got.Categories)
}

func TestSaveRejectsInconsistentModel(t *testing.T) {
	m := trainModel(t)
	m.Categories = []string{"only-one"}
	err := Save(filepath.Join(t.TempDir(), "models"), m)
	assert.Error(t, err)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.ErrorIs(t, err, ErrArtifactMissing)

	dir := filepath.Join(t.TempDir(), "models")
	require.NoError(t, Save(dir, trainModel(t)))
	require.NoError(t, os.Remove(filepath.Join(dir, VectorizerFile)))
	_, err = Load(dir)
	assert.ErrorIs(t, err, ErrArtifactMissing)
}

func TestLoadFallsBackToPreviousAfterInterruptedSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "models")
	m := trainModel(t)
	require.NoError(t, Save(dir, m))

	// state left when a Save stops between moving dir aside and installing
	// the staged set
	require.NoError(t, os.Rename(dir, dir+".old"))

	got, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, m.Categories, got.Categories)

	require.NoError(t, Save(dir, m))
	assert.True(t, Exists(dir))
	assert.NoDirExists(t, dir+".old")
}

func TestLoadIgnoresIncompletePrevious(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "models")
	require.NoError(t, os.MkdirAll(dir+".old", 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir+".old", CategoriesFile), []byte(`{"categories":["A"]}`), 0o644))

	_, err := Load(dir)
	assert.ErrorIs(t, err, ErrArtifactMissing)
}

func TestLoadCorrupt(t *testing.T) {
	for _, name := range []string{ClassifierFile, VectorizerFile, CategoriesFile} {
		t.Run(name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "models")
			require.NoError(t, Save(dir, trainModel(t)))
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("garbage"), 0o644))

			_, err := Load(dir)
			assert.ErrorIs(t, err, ErrArtifactCorrupt)
		})
	}
}

func TestLoadCategoryMismatch(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "models")
	require.NoError(t, Save(dir, trainModel(t)))
	require.NoError(t, os.WriteFile(filepath.Join(dir, CategoriesFile), []byte(`{"categories":["a","b","c"]}`), 0o644))

	_, err := Load(dir)
	assert.ErrorIs(t, err, ErrArtifactCorrupt)
}
