// Package artifacts persists a trained model as three files in one
// directory: the classifier, the vectorizer and the category list.
package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	log "github.com/sirupsen/logrus"

	"resumeclf/internal/ml"
	"resumeclf/internal/ml/forest"
	"resumeclf/internal/ml/tfidf"
)

const (
	ClassifierFile = "resume_classifier.bin"
	VectorizerFile = "tfidf_vectorizer.bin"
	CategoriesFile = "categories.json"
)

var (
	ErrArtifactMissing = errors.New("artifact missing")
	ErrArtifactCorrupt = errors.New("artifact corrupt")
)

// Model is the full artifact set produced by one training run.
type Model struct {
	Featurizer ml.Featurizer
	Classifier ml.Classifier
	Categories []string
}

type categoriesDoc struct {
	Categories []string `json:"categories"`
}

// Validate checks that the three parts describe the same model.
func (m *Model) Validate() error {
	if m == nil || m.Featurizer == nil || m.Classifier == nil {
		return errors.New("incomplete model")
	}
	if len(m.Categories) == 0 {
		return errors.New("model has no categories")
	}
	if n := m.Classifier.NumClasses(); n != len(m.Categories) {
		return fmt.Errorf("classifier has %d classes but %d categories are listed", n, len(m.Categories))
	}
	if m.Classifier.NumFeatures() != m.Featurizer.Dim() {
		return fmt.Errorf("classifier expects %d features but the vectorizer produces %d", m.Classifier.NumFeatures(), m.Featurizer.Dim())
	}
	return nil
}

// Save writes the model to dir. All files go to a staging directory next to
// dir which is then renamed into place, so readers see either the previous
// artifact set or the new one, never a mix.
func Save(dir string, m *Model) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	parent := filepath.Dir(filepath.Clean(dir))
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", parent, err)
	}

	staging, err := os.MkdirTemp(parent, filepath.Base(dir)+".staging-*")
	if err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(staging) // no-op once renamed

	if err := writeBlob(filepath.Join(staging, ClassifierFile), m.Classifier); err != nil {
		return err
	}
	if err := writeBlob(filepath.Join(staging, VectorizerFile), m.Featurizer); err != nil {
		return err
	}
	cats, err := json.MarshalIndent(categoriesDoc{Categories: m.Categories}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode categories: %w", err)
	}
	if err := writeFile(filepath.Join(staging, CategoriesFile), func(w io.Writer) error {
		_, err := w.Write(cats)
		return err
	}); err != nil {
		return err
	}

	return swap(staging, dir)
}

// swap moves staging to dir, keeping the previous dir until the rename has
// succeeded.
func swap(staging, dir string) error {
	var old string
	if _, err := os.Stat(dir); err == nil {
		old = previous(dir)
		if err := os.RemoveAll(old); err != nil {
			return fmt.Errorf("clear %s: %w", old, err)
		}
		if err := os.Rename(dir, old); err != nil {
			return fmt.Errorf("move previous model aside: %w", err)
		}
	}
	if err := os.Rename(staging, dir); err != nil {
		if old != "" {
			if rerr := os.Rename(old, dir); rerr != nil {
				log.Errorf("Failed to restore previous model from %s: %v", old, rerr)
			}
		}
		return fmt.Errorf("install model: %w", err)
	}
	if err := os.RemoveAll(previous(dir)); err != nil {
		log.Warnf("Failed to remove previous model at %s: %v", previous(dir), err)
	}
	return nil
}

// previous is where swap keeps the replaced artifact set until the new one
// is in place.
func previous(dir string) string {
	return filepath.Clean(dir) + ".old"
}

func writeBlob(path string, m interface{ MarshalBinary() ([]byte, error) }) error {
	data, err := m.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return writeFile(path, func(w io.Writer) error {
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return err
		}
		if _, err := enc.Write(data); err != nil {
			enc.Close()
			return err
		}
		return enc.Close()
	})
}

func writeFile(path string, fill func(io.Writer) error) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fill(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	return f.Close()
}

// Exists reports whether all three artifacts are present in dir.
func Exists(dir string) bool {
	for _, name := range []string{ClassifierFile, VectorizerFile, CategoriesFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return false
		}
	}
	return true
}

// Load reads the artifact set from dir. A missing file yields
// ErrArtifactMissing; anything that fails to decode or does not fit together
// yields ErrArtifactCorrupt. When dir is absent but a complete previous set
// is left at dir.old by an interrupted Save, that set is loaded instead.
func Load(dir string) (*Model, error) {
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) && Exists(previous(dir)) {
		log.Warnf("Model directory %s is missing; loading the previous model from %s", dir, previous(dir))
		dir = previous(dir)
	}
	for _, name := range []string{ClassifierFile, VectorizerFile, CategoriesFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrArtifactMissing, filepath.Join(dir, name))
			}
			return nil, fmt.Errorf("stat %s: %w", name, err)
		}
	}

	clfData, err := readBlob(filepath.Join(dir, ClassifierFile))
	if err != nil {
		return nil, err
	}
	clf, err := forest.Unmarshal(clfData)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArtifactCorrupt, ClassifierFile, err)
	}

	vecData, err := readBlob(filepath.Join(dir, VectorizerFile))
	if err != nil {
		return nil, err
	}
	vec, err := tfidf.Unmarshal(vecData)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArtifactCorrupt, VectorizerFile, err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, CategoriesFile))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", CategoriesFile, err)
	}
	var doc categoriesDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArtifactCorrupt, CategoriesFile, err)
	}

	m := &Model{Featurizer: vec, Classifier: clf, Categories: doc.Categories}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactCorrupt, err)
	}
	return m, nil
}

func readBlob(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArtifactCorrupt, filepath.Base(path), err)
	}
	defer dec.Close()
	data, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArtifactCorrupt, filepath.Base(path), err)
	}
	return data, nil
}
