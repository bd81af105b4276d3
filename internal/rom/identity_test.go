package rom

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentifyValidImage(t *testing.T) {
	t.Parallel()

	data := Synthesize("SUPER MARIO 64", 4096, 0xAB)
	id, err := Identify(data)
	require.NoError(t, err)
	assert.Equal(t, "SUPER MARIO 64", id.InternalName)
	assert.Equal(t, int64(4096), id.Size)
	assert.Len(t, id.Hash, 32)
	assert.Equal(t, strings.ToLower(id.Hash), id.Hash)
}

func TestIdentifyRejectsShortAndForeignBuffers(t *testing.T) {
	t.Parallel()

	valid := Synthesize("X", 64, 0)
	cases := map[string][]byte{
		"empty":     nil,
		"truncated": valid[:35],
		"v64":       ToV64(valid),
		"garbage":   bytes.Repeat([]byte{0x11}, 64),
	}
	for name, data := range cases {
		_, err := Identify(data)
		assert.ErrorIs(t, err, ErrInvalidSignature, name)
	}
}

func TestIdentifyMinimumLength(t *testing.T) {
	t.Parallel()

	data := Synthesize("ABCD", 36, 0)
	id, err := Identify(data)
	require.NoError(t, err)
	assert.Equal(t, "ABCD", id.InternalName)
	assert.Equal(t, int64(36), id.Size)
}

func TestIdentifyTrimsNulPadding(t *testing.T) {
	t.Parallel()

	data := Synthesize("", 128, 0)
	copy(data[32:], []byte("ZELDA\x00\x00\x00  \x00"))
	id, err := Identify(data)
	require.NoError(t, err)
	assert.Equal(t, "ZELDA", id.InternalName)
}

func TestHashIsPureFunctionOfContent(t *testing.T) {
	t.Parallel()

	a := Synthesize("GAME", 512, 0x01)
	b := append([]byte(nil), a...)
	idA, err := Identify(a)
	require.NoError(t, err)
	idB, err := Identify(b)
	require.NoError(t, err)
	assert.Equal(t, idA.Hash, idB.Hash)

	b[500] ^= 0xFF
	idC, err := Identify(b)
	require.NoError(t, err)
	assert.NotEqual(t, idA.Hash, idC.Hash)
}

func TestHashEqual(t *testing.T) {
	t.Parallel()

	assert.True(t, HashEqual("abcdef0123", "ABCDEF0123"))
	assert.False(t, HashEqual("abcdef0123", "abcdef0124"))
}

func TestReadFormat(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	z64 := filepath.Join(dir, "a.z64")
	v64 := filepath.Join(dir, "a.v64")
	tiny := filepath.Join(dir, "tiny.bin")
	data := Synthesize("A", 64, 0)
	require.NoError(t, os.WriteFile(z64, data, 0o644))
	require.NoError(t, os.WriteFile(v64, ToV64(data), 0o644))
	require.NoError(t, os.WriteFile(tiny, []byte{0x80}, 0o644))

	f, err := ReadFormat(z64)
	require.NoError(t, err)
	assert.Equal(t, FormatZ64, f)
	f, err = ReadFormat(v64)
	require.NoError(t, err)
	assert.Equal(t, FormatV64, f)
	f, err = ReadFormat(tiny)
	require.NoError(t, err)
	assert.Equal(t, FormatUnknown, f)
}

func TestHashFileMatchesIdentify(t *testing.T) {
	t.Parallel()

	data := Synthesize("HASHME", 2048, 0x33)
	path := filepath.Join(t.TempDir(), "h.z64")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	id, err := Identify(data)
	require.NoError(t, err)
	h, err := HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, id.Hash, h)
}
