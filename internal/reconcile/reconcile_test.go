package reconcile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bannercheck/internal/inventory"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestReconcile_EveryLocaleReported(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "en", "c1", "a_10x10.png"))
	touch(t, filepath.Join(root, "en", "c1", "b_20x20.png"))
	touch(t, filepath.Join(root, "fr", "c1", "a_10x10.png"))
	touch(t, filepath.Join(root, "de", "c1", "A_10x10.png")) // wrong case, not the joined path
	require.NoError(t, os.MkdirAll(filepath.Join(root, "de", "c1", "b_20x20.png"), 0o755))

	inv, err := inventory.Build(root, inventory.Options{ReferenceLocale: "en"})
	require.NoError(t, err)

	res := Reconcile(inv)
	entries := res.Entries()
	require.Len(t, entries, len(inv.Banners)*len(inv.Locales))

	seen := map[string]int{}
	for _, e := range entries {
		seen[e.Locale]++
	}
	for _, l := range inv.Locales {
		assert.Equal(t, len(inv.Banners), seen[l], "locale %s", l)
	}

	assert.True(t, res.Found("c1/a_10x10.png", "en"))
	assert.True(t, res.Found("c1/a_10x10.png", "fr"))
	assert.False(t, res.Found("c1/b_20x20.png", "fr"))
	assert.False(t, res.Found("c1/b_20x20.png", "de"), "directory at the joined path is not a banner")
	assert.False(t, res.Found("c1/unknown.png", "fr"))

	if !caseInsensitiveFS(t, root) {
		assert.False(t, res.Found("c1/a_10x10.png", "de"))
		assert.Len(t, res.Missing(), 3)
	}

	e, ok := res.Lookup("c1/a_10x10.png", "fr")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "fr", "c1", "a_10x10.png"), e.Path)
}

func caseInsensitiveFS(t *testing.T, dir string) bool {
	t.Helper()
	probe := filepath.Join(dir, "CaseProbe")
	touch(t, probe)
	_, err := os.Stat(filepath.Join(dir, "caseprobe"))
	return err == nil
}
