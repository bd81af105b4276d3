package rom

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertV64RoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	original := Synthesize("PILOTWINGS", 3000, 0x5A)
	original[2999] = 0x7F
	src := filepath.Join(dir, "game.v64")
	dst := filepath.Join(dir, "out", "game.z64")
	require.NoError(t, os.WriteFile(src, ToV64(original), 0o644))

	require.NoError(t, ConvertV64(src, dst))
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, original, got)

	id, err := Identify(got)
	require.NoError(t, err)
	assert.Equal(t, "PILOTWINGS", id.InternalName)
}

func TestConvertV64OddTrailingByte(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	v64 := ToV64(Synthesize("ODD", 64, 0x00))
	v64 = append(v64, 0xEE)
	src := filepath.Join(dir, "odd.v64")
	dst := filepath.Join(dir, "odd.z64")
	require.NoError(t, os.WriteFile(src, v64, 0o644))

	require.NoError(t, ConvertV64(src, dst))
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Len(t, got, 65)
	assert.Equal(t, byte(0xEE), got[64])
	assert.Equal(t, FormatZ64, DetectFormat(got))
}

func TestConvertV64RejectsOtherFormats(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	z64 := filepath.Join(dir, "a.z64")
	junk := filepath.Join(dir, "a.bin")
	require.NoError(t, os.WriteFile(z64, Synthesize("A", 64, 0), 0o644))
	require.NoError(t, os.WriteFile(junk, []byte("not a rom at all"), 0o644))

	assert.ErrorIs(t, ConvertV64(z64, filepath.Join(dir, "x.z64")), ErrAlreadyZ64)
	assert.ErrorIs(t, ConvertV64(junk, filepath.Join(dir, "y.z64")), ErrNotV64)
	_, err := os.Stat(filepath.Join(dir, "x.z64"))
	assert.True(t, os.IsNotExist(err))
}
