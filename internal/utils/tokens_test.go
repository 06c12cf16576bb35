package utils_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/askcsv/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountTokens(t *testing.T) {
	assert.Equal(t, 0, utils.CountTokens(""))
	assert.Equal(t, 1, utils.CountTokens("a"))
	assert.Equal(t, 1000, utils.CountTokens(strings.Repeat("a", 4000)))
	assert.Equal(t, 2, utils.CountTokens("ações"), "counts runes, not bytes")
}

func TestSafeWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, utils.EnsureDir(dir))
	p := filepath.Join(dir, "x.txt")
	require.NoError(t, utils.SafeWriteFile(p, []byte("one")))
	require.NoError(t, utils.SafeWriteFile(p, []byte("two")))
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "two", string(b))
	_, err = os.Stat(p + ".tmp")
	assert.True(t, os.IsNotExist(err))
}
