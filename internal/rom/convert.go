package rom

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

var (
	ErrAlreadyZ64 = errors.New("rom already in z64 format")
	ErrNotV64     = errors.New("rom is not a v64 image")
)

const convertChunkSize = 1024

// ConvertV64 writes a byte-swapped copy of the v64 image at src into dst.
func ConvertV64(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source %s: %w", src, err)
	}
	defer in.Close()

	format, err := CheckSignature(in)
	if err != nil {
		return err
	}
	switch format {
	case FormatZ64:
		return ErrAlreadyZ64
	case FormatV64:
	default:
		return ErrNotV64
	}
	if _, err := in.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind source %s: %w", src, err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("ensure dest dir %s: %w", dst, err)
	}
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create dest %s: %w", dst, err)
	}
	w := bufio.NewWriter(out)
	if err := swapStream(in, w); err != nil {
		_ = out.Close()
		return fmt.Errorf("convert %s: %w", src, err)
	}
	if err := w.Flush(); err != nil {
		_ = out.Close()
		return fmt.Errorf("flush dest %s: %w", dst, err)
	}
	return out.Close()
}

// swapStream swaps every byte pair; an odd trailing byte is copied unchanged.
func swapStream(r io.Reader, w io.Writer) error {
	buf := make([]byte, convertChunkSize)
	br := bufio.NewReader(r)
	for {
		n, err := io.ReadFull(br, buf)
		if n > 0 {
			swapPairs(buf[:n])
			if _, werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func swapPairs(b []byte) {
	for i := 0; i+1 < len(b); i += 2 {
		b[i], b[i+1] = b[i+1], b[i]
	}
}
