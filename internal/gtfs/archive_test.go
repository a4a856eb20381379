package gtfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractArchive(t *testing.T) {
	zipPath := writeFeedZip(t, map[string]string{
		"agency.txt": "agency_id\nA1\n",
		"stops.txt":  "stop_id\nS1\n",
	})

	dest := t.TempDir()
	names, err := ExtractArchive(zipPath, dest)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"agency.txt", "stops.txt"}, names)

	content, err := os.ReadFile(filepath.Join(dest, "stops.txt"))
	require.NoError(t, err)
	assert.Equal(t, "stop_id\nS1\n", string(content))
}

func TestExtractArchiveFlattensDirectories(t *testing.T) {
	// Feeds zipped from a folder nest their files one level down.
	zipPath := writeFeedZip(t, map[string]string{
		"gtfs/agency.txt": "agency_id\nA1\n",
		"gtfs/stops.txt":  "stop_id\nS1\n",
	})

	dest := t.TempDir()
	names, err := ExtractArchive(zipPath, dest)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"agency.txt", "stops.txt"}, names)
	_, err = os.Stat(filepath.Join(dest, "agency.txt"))
	assert.NoError(t, err)
}

func TestExtractArchiveNotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.zip")
	require.NoError(t, os.WriteFile(path, []byte("plain text, not a zip"), 0o644))

	_, err := ExtractArchive(path, t.TempDir())
	assert.ErrorIs(t, err, ErrInvalidArchive)
}

func TestExtractArchiveEmpty(t *testing.T) {
	zipPath := writeFeedZip(t, map[string]string{})

	_, err := ExtractArchive(zipPath, t.TempDir())
	assert.ErrorIs(t, err, ErrInvalidArchive)
}

func TestNewScratchDir(t *testing.T) {
	workDir := t.TempDir()

	a, err := NewScratchDir(workDir)
	require.NoError(t, err)
	b, err := NewScratchDir(workDir)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	for _, dir := range []string{a, b} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
