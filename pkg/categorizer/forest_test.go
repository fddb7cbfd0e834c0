package categorizer_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumeclf/internal/inference"
	"resumeclf/internal/testutil"
	"resumeclf/pkg/categorizer"
)

func TestForestCategorizer(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "models")
	testutil.SaveModel(t, dir)
	svc := inference.New(dir)
	require.NoError(t, svc.Load())

	c := categorizer.NewForestCategorizer(svc)
	assert.Equal(t, "forest", c.Name())

	res, err := c.Categorize(context.Background(), categorizer.CategorizationRequest{Text: testutil.Resume("Chef")})
	require.NoError(t, err)
	assert.Equal(t, "Chef", res.Category)
	require.NotEmpty(t, res.Top)
	assert.Equal(t, res.Category, res.Top[0].Category)

	_, err = categorizer.NewForestCategorizer(inference.New(dir)).Categorize(context.Background(), categorizer.CategorizationRequest{Text: "x"})
	assert.ErrorIs(t, err, inference.ErrModelNotLoaded)
}
