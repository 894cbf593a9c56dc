package pathutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := ExpandTilde("~/.klish_history")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".klish_history"), got)

	got, err = ExpandTilde("/etc/clish")
	require.NoError(t, err)
	assert.Equal(t, "/etc/clish", got)

	_, err = ExpandTilde("~other/x")
	assert.Error(t, err)
}

func TestSplitSearchPath(t *testing.T) {
	got, err := SplitSearchPath("/etc/clish;/usr/share/clish; ;")
	require.NoError(t, err)
	assert.Equal(t, []string{"/etc/clish", "/usr/share/clish"}, got)
}

func TestParseSize(t *testing.T) {
	n, err := ParseSize("100MB")
	require.NoError(t, err)
	assert.Equal(t, int64(100*1024*1024), n)

	n, err = ParseSize("512")
	require.NoError(t, err)
	assert.Equal(t, int64(512), n)

	_, err = ParseSize("lots")
	assert.Error(t, err)
}
