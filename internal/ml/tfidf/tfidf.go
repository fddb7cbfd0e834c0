// Package tfidf implements a TF-IDF vectorizer over unigrams and bigrams with
// an English stop-word list, a minimum document frequency and a cap on the
// vocabulary size.
package tfidf

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"resumeclf/internal/ml"
)

var ErrEmptyVocabulary = errors.New("tfidf: empty vocabulary; every term was pruned")

// Params configures Fit.
type Params struct {
	MaxFeatures int // 0 keeps every surviving term
	MinDF       int // minimum number of documents a term must occur in
	MaxNGram    int // 1 = unigrams, 2 = unigrams + bigrams
}

// DefaultParams mirrors the resume classifier settings.
func DefaultParams() Params {
	return Params{MaxFeatures: 5000, MinDF: 2, MaxNGram: 2}
}

// Vectorizer holds a fitted vocabulary and its idf weights. It is immutable
// after Fit and safe for concurrent use.
type Vectorizer struct {
	params Params
	terms  []string
	idf    []float64
	index  map[string]int
}

// state is the gob wire form of a Vectorizer.
type state struct {
	Params Params
	Terms  []string
	IDF    []float64
}

// Fit builds the vocabulary from corpus, which is expected to be already
// preprocessed text.
func Fit(corpus []string, p Params) (*Vectorizer, error) {
	if p.MaxNGram <= 0 {
		p.MaxNGram = 1
	}
	if p.MinDF <= 0 {
		p.MinDF = 1
	}

	df := make(map[string]int)
	tf := make(map[string]int)
	for _, doc := range corpus {
		seen := make(map[string]struct{})
		for _, term := range analyze(doc, p.MaxNGram) {
			tf[term]++
			if _, ok := seen[term]; !ok {
				seen[term] = struct{}{}
				df[term]++
			}
		}
	}

	terms := make([]string, 0, len(df))
	for term, n := range df {
		if n >= p.MinDF {
			terms = append(terms, term)
		}
	}
	if len(terms) == 0 {
		return nil, ErrEmptyVocabulary
	}

	if p.MaxFeatures > 0 && len(terms) > p.MaxFeatures {
		sort.Slice(terms, func(i, j int) bool {
			if tf[terms[i]] != tf[terms[j]] {
				return tf[terms[i]] > tf[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:p.MaxFeatures]
	}
	sort.Strings(terms)

	n := float64(len(corpus))
	idf := make([]float64, len(terms))
	for i, term := range terms {
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	return newVectorizer(p, terms, idf), nil
}

func newVectorizer(p Params, terms []string, idf []float64) *Vectorizer {
	index := make(map[string]int, len(terms))
	for i, t := range terms {
		index[t] = i
	}
	return &Vectorizer{params: p, terms: terms, idf: idf, index: index}
}

// Dim is the vocabulary size.
func (v *Vectorizer) Dim() int { return len(v.terms) }

// Terms returns a copy of the vocabulary in index order.
func (v *Vectorizer) Terms() []string {
	return append([]string(nil), v.terms...)
}

// Transform maps text onto the fitted vocabulary: term counts weighted by idf
// and L2-normalized. Unknown terms are ignored.
func (v *Vectorizer) Transform(text string) ml.Vector {
	counts := make(map[int]float64)
	for _, term := range analyze(text, v.params.MaxNGram) {
		if i, ok := v.index[term]; ok {
			counts[i]++
		}
	}
	if len(counts) == 0 {
		return ml.Vector{}
	}

	idx := make([]int, 0, len(counts))
	for i := range counts {
		idx = append(idx, i)
	}
	sort.Ints(idx)

	vals := make([]float64, len(idx))
	var norm float64
	for k, i := range idx {
		vals[k] = counts[i] * v.idf[i]
		norm += vals[k] * vals[k]
	}
	norm = math.Sqrt(norm)
	for k := range vals {
		vals[k] /= norm
	}
	return ml.Vector{Indices: idx, Values: vals}
}

// TransformAll transforms every document, preserving order.
func (v *Vectorizer) TransformAll(docs []string) []ml.Vector {
	out := make([]ml.Vector, len(docs))
	for i, d := range docs {
		out[i] = v.Transform(d)
	}
	return out
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (v *Vectorizer) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(state{Params: v.params, Terms: v.terms, IDF: v.idf}); err != nil {
		return nil, fmt.Errorf("tfidf: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a vectorizer written by MarshalBinary.
func Unmarshal(data []byte) (*Vectorizer, error) {
	var s state
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return nil, fmt.Errorf("tfidf: decode: %w", err)
	}
	if len(s.Terms) == 0 || len(s.Terms) != len(s.IDF) {
		return nil, fmt.Errorf("tfidf: decode: %d terms but %d idf weights", len(s.Terms), len(s.IDF))
	}
	if !sort.StringsAreSorted(s.Terms) {
		return nil, errors.New("tfidf: decode: vocabulary is not sorted")
	}
	return newVectorizer(s.Params, s.Terms, s.IDF), nil
}

// analyze tokenizes text into words of two or more characters, drops stop
// words and emits n-grams up to maxN over the remaining tokens.
func analyze(text string, maxN int) []string {
	var tokens []string
	for _, tok := range strings.FieldsFunc(text, isSeparator) {
		if len(tok) < 2 {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		tokens = append(tokens, tok)
	}
	if maxN <= 1 {
		return tokens
	}

	out := make([]string, 0, len(tokens)*maxN)
	out = append(out, tokens...)
	for n := 2; n <= maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}

func isSeparator(r rune) bool {
	return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_')
}

var _ ml.Featurizer = (*Vectorizer)(nil)
