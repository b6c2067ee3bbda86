package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadIgnoreFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".fileignore")
	content := "# comment\n*.pem\n\n  \nconfig/*.yaml   \n#*.go\nvendor/*\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	patterns, err := LoadIgnoreFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"*.pem", "config/*.yaml", "vendor/*"}, patterns)
}

func TestLoadIgnoreFile_Missing(t *testing.T) {
	patterns, err := LoadIgnoreFile(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, patterns)
}

func TestLoadIgnoreFile_NoTrailingNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".fileignore")
	require.NoError(t, os.WriteFile(path, []byte("*.lock\r\n*.min.js"), 0o644))

	patterns, err := LoadIgnoreFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"*.lock", "*.min.js"}, patterns)
}

func TestLoadIgnoreFile_Directory(t *testing.T) {
	_, err := LoadIgnoreFile(t.TempDir())
	assert.Error(t, err)
}
