package textprep_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"resumeclf/internal/textprep"
)

func TestExcerpt(t *testing.T) {
	text := "Led a team of five engineers. Built the billing platform in Go.   Migrated services to Kubernetes."

	assert.Equal(t, strings.Join(strings.Fields(text), " "), textprep.Excerpt(text, 0))
	assert.Equal(t, strings.Join(strings.Fields(text), " "), textprep.Excerpt(text, 1000))

	got := textprep.Excerpt(text, 70)
	assert.Equal(t, "Led a team of five engineers. Built the billing platform in Go.", got)

	got = textprep.Excerpt(text, 10)
	assert.Equal(t, 10, utf8.RuneCountInString(got))
	assert.Equal(t, "Led a team", got)
}
