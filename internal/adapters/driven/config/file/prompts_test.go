package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

func TestPromptStore_ImplementsInterface(t *testing.T) {
	var _ driven.PromptStore = (*PromptStore)(nil)
}

func TestNewPromptStore_DefaultDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}

	store, err := NewPromptStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".marginalia", "prompts"), store.Dir())
}

func TestPromptStore_WritesDefaultsLazily(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "prompts")
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "constructor must not touch the filesystem")

	prompt, err := store.Load(driven.PromptAnalysisSystem)
	require.NoError(t, err)
	assert.Contains(t, prompt, `"findings"`)
	assert.FileExists(t, filepath.Join(dir, "analysis_system.txt"))
	assert.FileExists(t, filepath.Join(dir, "README.md"))
}

func TestPromptStore_PluginOverride(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load("fact-check")
	assert.Error(t, err, "no override and no default")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "fact-check.txt"), []byte("  Check dates only.\n"), 0600))
	store.Reload()

	prompt, err := store.Load("fact-check")
	require.NoError(t, err)
	assert.Equal(t, "Check dates only.", prompt)
}

func TestPromptStore_CachesUntilReload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)
	path := filepath.Join(dir, "math.txt")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0600))

	first, err := store.Load("math")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("v2"), 0600))
	cached, err := store.Load("math")
	require.NoError(t, err)
	store.Reload()
	fresh, err := store.Load("math")
	require.NoError(t, err)

	assert.Equal(t, "v1", first)
	assert.Equal(t, "v1", cached)
	assert.Equal(t, "v2", fresh)
}

func TestPromptStore_ConcurrentLoad(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Load(driven.PromptAnalysisSystem)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}
