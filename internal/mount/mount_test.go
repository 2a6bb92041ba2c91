package mount

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestScan_LooseFileAndDirectory(t *testing.T) {
	root := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(root, "Loose.Movie.2020.mkv"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "readme.txt"), nil, 0o644))

	showDir := filepath.Join(root, "Show.S01")
	require.NoError(t, os.MkdirAll(filepath.Join(showDir, "Season 1"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(showDir, "Season 1", "Show.S01E01.mkv"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(showDir, "Season 1", "Show.S01E02.mkv"), nil, 0o644))

	s := NewScanner(root, zerolog.Nop())
	got := s.Scan()

	require.Len(t, got["Loose.Movie.2020.mkv"], 1)
	require.Len(t, got["Show.S01"], 2)
	require.NotContains(t, got, "readme.txt")
}

func TestScan_MissingRootReturnsNil(t *testing.T) {
	s := NewScanner(filepath.Join(t.TempDir(), "missing"), zerolog.Nop())
	require.Nil(t, s.Scan())
}
