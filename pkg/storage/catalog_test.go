package storage

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/adfharrison1/go-campus/pkg/domain"
)

func TestCatalog_FromCollections(t *testing.T) {
	catalog, err := NewCatalog(sampleCollections())
	require.NoError(t, err)

	assert.Equal(t, []string{"courses", "fees"}, catalog.Names())

	info, ok := catalog.Info("courses")
	require.True(t, ok)
	assert.Equal(t, int64(50), info.RecordCount)
	assert.Equal(t, CollectionStateUnloaded, info.State)

	courses, err := catalog.Dataset("courses")
	require.NoError(t, err)
	assert.Len(t, courses.Records, 50)

	info, _ = catalog.Info("courses")
	assert.Equal(t, CollectionStateLoaded, info.State)
	assert.Equal(t, int64(1), info.AccessCount)

	_, err = catalog.Dataset("courses")
	require.NoError(t, err)
	info, _ = catalog.Info("courses")
	assert.Equal(t, int64(2), info.AccessCount)
}

func TestCatalog_ReturnsCopies(t *testing.T) {
	catalog, err := NewCatalog(sampleCollections())
	require.NoError(t, err)

	first, err := catalog.Dataset("fees")
	require.NoError(t, err)
	first.Records[0]["term"] = "Tampered"
	first.Records = first.Records[:0]

	second, err := catalog.Dataset("fees")
	require.NoError(t, err)
	require.Len(t, second.Records, 2)
	assert.Equal(t, "Fall", second.Records[0]["term"])
}

func TestCatalog_NotFound(t *testing.T) {
	catalog, err := NewCatalog(nil)
	require.NoError(t, err)

	_, err = catalog.Dataset("grades")
	assert.ErrorIs(t, err, ErrDatasetNotFound)
	assert.Contains(t, err.Error(), `"grades"`)

	_, ok := catalog.Info("grades")
	assert.False(t, ok)
}

func TestCatalog_EvictionMarksUnloaded(t *testing.T) {
	catalog, err := NewCatalog(sampleCollections(), WithCacheSize(1), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)

	_, err = catalog.Dataset("courses")
	require.NoError(t, err)
	_, err = catalog.Dataset("fees")
	require.NoError(t, err)

	info, _ := catalog.Info("courses")
	assert.Equal(t, CollectionStateUnloaded, info.State)
	info, _ = catalog.Info("fees")
	assert.Equal(t, CollectionStateLoaded, info.State)

	// evicted datasets decode again on demand
	courses, err := catalog.Dataset("courses")
	require.NoError(t, err)
	assert.Len(t, courses.Records, 50)
}

func TestCatalog_OpenPackedFixtures(t *testing.T) {
	collections, err := ParseFixtures(strings.NewReader(fixturesYAML))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "campus.campus")
	require.NoError(t, WriteBundleFile(context.Background(), path, collections))

	catalog, err := OpenCatalog(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"courses", "fees", "empty"}, catalog.Names())

	courses, err := catalog.Dataset("courses")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "code", "title", "semester", "credits"}, courses.Columns)
	assert.Equal(t, `Intro, "Basics"`, courses.Records[1]["title"])

	var source domain.DatasetSource = catalog
	assert.Len(t, source.Names(), 3)
}

func TestOpenCatalog_Missing(t *testing.T) {
	_, err := OpenCatalog(context.Background(), filepath.Join(t.TempDir(), "nope.campus"))
	assert.Error(t, err)
}
