package rcconf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSaveWritesSortedAssignments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rc.conf")
	f := NewFile(path, nil)
	f.Set("rtsold_enable", true)
	f.Set("ip6addrctl_enable", false)

	require.NoError(t, f.Save())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ip6addrctl_enable=\"NO\"\nrtsold_enable=\"YES\"\n", string(content))
}

func TestFileSavePreservesUnmanagedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rc.conf")
	require.NoError(t, os.WriteFile(path, []byte(
		"hostname=\"web01\"\nrtsold_enable=\"YES\"\nsshd_enable=\"YES\"\n"), 0o644))

	f := NewFile(path, nil)
	f.Set("rtsold_enable", false)
	require.NoError(t, f.Save())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"hostname=\"web01\"\nsshd_enable=\"YES\"\nrtsold_enable=\"NO\"\n",
		string(content))
}

func TestFileSaveWithoutFlagsIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rc.conf")
	require.NoError(t, NewFile(path, nil).Save())
	assert.NoFileExists(t, path)
}

func TestLastSetWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rc.conf")
	f := NewFile(path, nil)
	f.Set("rtsold_enable", true)
	f.Set("rtsold_enable", false)
	require.NoError(t, f.Save())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "rtsold_enable=\"NO\"\n", string(content))
}

func TestMemorySink(t *testing.T) {
	m := NewMemory()
	m.Set("rtsold_enable", true)
	require.NoError(t, m.Save())
	require.NoError(t, m.Save())

	assert.True(t, m.Flags["rtsold_enable"])
	assert.Equal(t, 2, m.Saves)
}
