package rom

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	headerMinSize    = 36
	internalNameOff  = 32
	internalNameSize = 20
)

// ErrInvalidSignature is returned when a buffer is not a z64 ROM image.
var ErrInvalidSignature = errors.New("invalid rom signature")

var (
	magicZ64 = []byte{0x80, 0x37, 0x12, 0x40}
	magicV64 = []byte{0x37, 0x80, 0x40, 0x12}
)

// Format classifies the byte order of a ROM image.
type Format int

const (
	FormatUnknown Format = iota
	FormatZ64
	FormatV64
)

func (f Format) String() string {
	switch f {
	case FormatZ64:
		return "z64"
	case FormatV64:
		return "v64"
	default:
		return "unknown"
	}
}

// Identity holds the fields derived from raw ROM bytes.
type Identity struct {
	Hash         string
	InternalName string
	Size         int64
}

// DetectFormat inspects the leading signature bytes.
func DetectFormat(head []byte) Format {
	if len(head) < 4 {
		return FormatUnknown
	}
	switch {
	case bytes.Equal(head[:4], magicZ64):
		return FormatZ64
	case bytes.Equal(head[:4], magicV64):
		return FormatV64
	default:
		return FormatUnknown
	}
}

// CheckSignature reads the first four bytes of r and classifies them.
func CheckSignature(r io.Reader) (Format, error) {
	head := make([]byte, 4)
	if _, err := io.ReadFull(r, head); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return FormatUnknown, nil
		}
		return FormatUnknown, fmt.Errorf("read rom signature: %w", err)
	}
	return DetectFormat(head), nil
}

// ReadFormat opens path and classifies its signature.
func ReadFormat(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, err
	}
	defer f.Close()
	return CheckSignature(f)
}

// Identify validates a z64 image and derives its identity. Byte-swapped
// images are rejected as well, they must be converted first.
func Identify(data []byte) (Identity, error) {
	if len(data) < headerMinSize {
		return Identity{}, ErrInvalidSignature
	}
	if DetectFormat(data) != FormatZ64 {
		return Identity{}, ErrInvalidSignature
	}
	sum := md5.Sum(data)
	return Identity{
		Hash:         hex.EncodeToString(sum[:]),
		InternalName: internalName(data),
		Size:         int64(len(data)),
	}, nil
}

// IdentifyFile reads a whole file and identifies it.
func IdentifyFile(path string) (Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Identity{}, fmt.Errorf("read rom %s: %w", path, err)
	}
	return Identify(data)
}

func internalName(data []byte) string {
	end := internalNameOff + internalNameSize
	if end > len(data) {
		end = len(data)
	}
	raw := string(data[internalNameOff:end])
	return strings.TrimRight(raw, " \t\r\n\x00")
}

// HashFile returns the lowercase md5 of a file's content.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashEqual compares two content hashes ignoring case.
func HashEqual(a, b string) bool {
	return strings.EqualFold(a, b)
}
