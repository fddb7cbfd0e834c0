package tfidf

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var corpus = []string{
	"senior java developer spring microservices",
	"java developer spring boot",
	"registered nurse patient care",
	"nurse patient care hospital",
	"chef kitchen menu",
}

func TestAnalyze(t *testing.T) {
	got := analyze("the java developer is a spring x expert", 2)
	assert.Equal(t, []string{
		"java", "developer", "spring", "expert",
		"java developer", "developer spring", "spring expert",
	}, got)

	assert.Equal(t, []string{"java", "developer"}, analyze("java developer", 1))
	assert.Empty(t, analyze("", 2))
}

func TestFitVocabulary(t *testing.T) {
	v, err := Fit(corpus, DefaultParams())
	require.NoError(t, err)

	// only terms in at least two documents survive
	assert.Equal(t, []string{
		"care", "developer", "developer spring", "java", "java developer",
		"nurse", "nurse patient", "patient", "patient care", "spring",
	}, v.Terms())
	assert.Equal(t, 10, v.Dim())
}

func TestFitMaxFeatures(t *testing.T) {
	v, err := Fit(corpus, Params{MaxFeatures: 3, MinDF: 2, MaxNGram: 2})
	require.NoError(t, err)
	// every surviving term has corpus frequency 2; ties fall back to term order
	assert.Equal(t, []string{"care", "developer", "developer spring"}, v.Terms())
}

func TestFitEmptyVocabulary(t *testing.T) {
	_, err := Fit([]string{"alpha", "beta"}, DefaultParams())
	assert.ErrorIs(t, err, ErrEmptyVocabulary)

	_, err = Fit(nil, DefaultParams())
	assert.ErrorIs(t, err, ErrEmptyVocabulary)
}

func TestTransform(t *testing.T) {
	v, err := Fit(corpus, DefaultParams())
	require.NoError(t, err)

	vec := v.Transform("java developer with unknown words java")
	require.NotZero(t, vec.NNZ())

	var norm float64
	for _, x := range vec.Values {
		norm += x * x
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)
	assert.IsIncreasing(t, vec.Indices)

	java := indexOf(t, v, "java")
	dev := indexOf(t, v, "developer")
	// java occurs twice, developer once, same idf
	assert.InDelta(t, 2*vec.At(dev), vec.At(java), 1e-9)
	assert.Zero(t, vec.At(indexOf(t, v, "nurse")))

	empty := v.Transform("completely unseen vocabulary")
	assert.Zero(t, empty.NNZ())
}

func TestTransformConcurrent(t *testing.T) {
	v, err := Fit(corpus, DefaultParams())
	require.NoError(t, err)
	want := v.Transform("nurse patient care in the hospital")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, v.Transform("nurse patient care in the hospital"))
		}()
	}
	wg.Wait()
}

func TestMarshalRoundTrip(t *testing.T) {
	v, err := Fit(corpus, DefaultParams())
	require.NoError(t, err)

	data, err := v.MarshalBinary()
	require.NoError(t, err)

	got, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, v.Terms(), got.Terms())
	assert.Equal(t, v.Transform(corpus[0]), got.Transform(corpus[0]))

	_, err = Unmarshal([]byte("not gob"))
	assert.Error(t, err)
}

func TestIsStopWord(t *testing.T) {
	assert.True(t, IsStopWord("the"))
	assert.False(t, IsStopWord("kubernetes"))
}

func indexOf(t *testing.T, v *Vectorizer, term string) int {
	t.Helper()
	i, ok := v.index[term]
	require.True(t, ok, "term %q not in vocabulary", term)
	return i
}
