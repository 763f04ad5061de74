package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chess3d/internal/server/game"
	"chess3d/internal/server/storage"
)

func runOK(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, run(args, &out))
	return out.String()
}

func TestRun_Lifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chess.db")

	assert.Contains(t, runOK(t, "init", "-path", path), "Database initialized")
	assert.Contains(t, runOK(t, "query", "-path", path), "No games found")
	assert.Contains(t, runOK(t, "moves", "-path", path, "-gameId", "nope"), "No moves found")
	assert.Contains(t, runOK(t, "position", "-path", path), "No saved position")

	store, err := storage.NewStore(path, false, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, store.Set(game.StorageKey, "4k3/8/8/8/8/8/8/4K2R w K - 0 1"))
	require.NoError(t, store.Close())

	out := runOK(t, "position", "-path", path)
	assert.Contains(t, out, "FEN: 4k3/8/8/8/8/8/8/4K2R w K - 0 1")
	assert.Contains(t, out, ". . . . K . . R")

	assert.Contains(t, runOK(t, "position", "-path", path, "-clear"), "cleared")
	assert.Contains(t, runOK(t, "position", "-path", path), "No saved position")

	assert.Contains(t, runOK(t, "delete", "-path", path), "Database deleted")
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestRun_Errors(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, run(nil, &out))
	assert.Error(t, run([]string{"bogus"}, &out))
	assert.Error(t, run([]string{"init"}, &out))
	assert.Error(t, run([]string{"moves", "-path", filepath.Join(t.TempDir(), "x.db")}, &out))
}
