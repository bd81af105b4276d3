package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
)

var (
	ErrNotAnArchive  = errors.New("not an archive")
	ErrEntryNotFound = errors.New("archive entry not found")
	ErrSizeMismatch  = errors.New("archive entry size mismatch")
)

var (
	archiveExts = map[string]struct{}{".zip": {}, ".7z": {}}
	romExts     = map[string]struct{}{".z64": {}, ".n64": {}}
)

// Entry is a single file member of a container.
type Entry struct {
	Name string
	Size int64
}

type member struct {
	Entry
	open func() (io.ReadCloser, error)
}

// Reader gives read access to the members of a zip or 7z container.
type Reader struct {
	path    string
	members []member
	closer  io.Closer
}

// IsArchiveName reports whether name carries a supported container extension.
func IsArchiveName(name string) bool {
	_, ok := archiveExts[strings.ToLower(filepath.Ext(name))]
	return ok
}

// IsROMName reports whether name carries a recognised ROM extension.
func IsROMName(name string) bool {
	_, ok := romExts[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Open opens a container by extension. Anything that is not a readable zip
// or 7z container fails with ErrNotAnArchive.
func Open(path string) (*Reader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip":
		return openZip(path)
	case ".7z":
		return openSevenZip(path)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrNotAnArchive)
	}
}

func openZip(path string) (*Reader, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("open zip %s: %w: %v", path, ErrNotAnArchive, err)
	}
	members := make([]member, 0, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		members = append(members, member{
			Entry: Entry{Name: f.Name, Size: int64(f.UncompressedSize64)},
			open:  f.Open,
		})
	}
	return &Reader{path: path, members: members, closer: zr}, nil
}

func openSevenZip(path string) (*Reader, error) {
	sr, err := sevenzip.OpenReader(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("open 7z %s: %w: %v", path, ErrNotAnArchive, err)
	}
	members := make([]member, 0, len(sr.File))
	for _, f := range sr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		members = append(members, member{
			Entry: Entry{Name: f.Name, Size: int64(f.UncompressedSize)},
			open:  f.Open,
		})
	}
	return &Reader{path: path, members: members, closer: sr}, nil
}

// Path returns the container path the reader was opened from.
func (r *Reader) Path() string {
	return r.path
}

// Entries lists every file member in container order.
func (r *Reader) Entries() []Entry {
	out := make([]Entry, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, m.Entry)
	}
	return out
}

// ROMEntries lists the members with a recognised ROM extension.
func (r *Reader) ROMEntries() []Entry {
	var out []Entry
	for _, m := range r.members {
		if IsROMName(m.Name) {
			out = append(out, m.Entry)
		}
	}
	return out
}

func (r *Reader) find(name string) (member, bool) {
	for _, m := range r.members {
		if m.Name == name {
			return m, true
		}
	}
	return member{}, false
}

// ReadEntry returns the full content of a member. A read whose length differs
// from the declared uncompressed size is reported as ErrSizeMismatch.
func (r *Reader) ReadEntry(name string) ([]byte, error) {
	m, ok := r.find(name)
	if !ok {
		return nil, fmt.Errorf("%s in %s: %w", name, r.path, ErrEntryNotFound)
	}
	rc, err := m.open()
	if err != nil {
		return nil, fmt.Errorf("open entry %s: %w", name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read entry %s: %w", name, err)
	}
	if int64(len(data)) != m.Size {
		return nil, fmt.Errorf("entry %s read %d of %d bytes: %w", name, len(data), m.Size, ErrSizeMismatch)
	}
	return data, nil
}

// ExtractEntry writes a member to dest, replacing any existing file.
func (r *Reader) ExtractEntry(name, dest string) error {
	data, err := r.ReadEntry(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("ensure dest dir %s: %w", dest, err)
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("write dest %s: %w", dest, err)
	}
	return nil
}

// Close releases the underlying file handle.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}
