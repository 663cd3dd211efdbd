package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	s := NewStore()
	applyDoc(s, "a", "the blue widget manual")
	applyDoc(s, "b", "the red widget manual")

	path := filepath.Join(t.TempDir(), "index.sdx")
	require.NoError(t, WriteSnapshot(path, s.Snapshot()))

	loaded, err := LoadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, s.Snapshot(), loaded)

	restored := NewStore()
	restored.Restore(loaded)
	assert.Equal(t, s.Lookup("widget"), restored.Lookup("widget"))
}

func TestLoadSnapshotMissingFile(t *testing.T) {
	_, err := LoadSnapshot(filepath.Join(t.TempDir(), "nope.sdx"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadSnapshotCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.sdx")

	cases := map[string][]byte{
		"garbage":   []byte("this is not an index"),
		"truncated": {0x31},
		"bad magic": append([]byte{0xde, 0xad, 0xbe, 0xef}, make([]byte, 16)...),
	}
	for name, data := range cases {
		require.NoError(t, os.WriteFile(path, data, 0644))
		_, err := LoadSnapshot(path)
		assert.ErrorIs(t, err, ErrCorruptSnapshot, "case %q", name)
	}
}

func TestLoadSnapshotChecksumMismatch(t *testing.T) {
	s := NewStore()
	applyDoc(s, "a", "the blue widget manual")
	path := filepath.Join(t.TempDir(), "index.sdx")
	require.NoError(t, WriteSnapshot(path, s.Snapshot()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[len(data)-1] ^= 0xff
	require.NoError(t, os.WriteFile(path, data, 0644))

	_, err = LoadSnapshot(path)
	assert.ErrorIs(t, err, ErrCorruptSnapshot)
}

func TestWriteSnapshotCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "index.sdx")
	require.NoError(t, WriteSnapshot(path, NewStore().Snapshot()))
	_, err := LoadSnapshot(path)
	assert.NoError(t, err)
}
