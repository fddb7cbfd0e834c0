package services

import (
	"errors"
	"fmt"

	"resumeclf/internal/inference"
	"resumeclf/pkg/categorizer"
)

// ErrTextTooShort rejects resumes below the minimum length before any
// backend is called.
var ErrTextTooShort = fmt.Errorf("%w: resume text too short (min %d chars)", inference.ErrInvalidInput, inference.MinTextLength)

// ErrNoCategories is returned when no category set is available.
var ErrNoCategories = errors.New("no categories configured")

// CategorySource supplies the allowed category set. *inference.Service
// satisfies it with the loaded model's categories.
type CategorySource interface {
	Categories() ([]string, error)
}

// StaticCategories is a fixed category set, used by LLM backends when no
// model is loaded.
type StaticCategories []string

func (s StaticCategories) Categories() ([]string, error) {
	if len(s) == 0 {
		return nil, ErrNoCategories
	}
	return append([]string(nil), s...), nil
}

// FallbackCategories tries each source in order and returns the first
// non-empty set.
type FallbackCategories []CategorySource

func (f FallbackCategories) Categories() ([]string, error) {
	var firstErr error
	for _, src := range f {
		cats, err := src.Categories()
		if err == nil && len(cats) > 0 {
			return cats, nil
		}
		if firstErr == nil && err != nil {
			firstErr = err
		}
	}
	if firstErr == nil {
		firstErr = ErrNoCategories
	}
	return nil, firstErr
}

// BatchResult holds either a result or the reason the item was rejected.
type BatchResult struct {
	Result *categorizer.CategorizationResult
	Err    error
}
