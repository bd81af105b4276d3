package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xxxsen/cen64-launcher/internal/dat"
	"github.com/xxxsen/cen64-launcher/internal/model"

	"github.com/cespare/xxhash"
	"gopkg.in/ini.v1"
)

// Catalog resolves content hashes to reference entries. Lookup never fails;
// unresolved hashes yield an entry flagged unknown or missing.
type Catalog interface {
	Lookup(hash string) model.CatalogEntry
	Available() bool
}

type record struct {
	goodName string
	crc      string
	refMD5   string
	players  string
	saveType string
	rumble   string
}

type memCatalog struct {
	available   bool
	fingerprint uint64
	records     map[string]record
}

// Empty returns the catalog used when no reference file is configured.
func Empty() Catalog {
	return &memCatalog{}
}

// Load reads a catalog file. A blank path or a missing file yields Empty and
// no error, since the catalog is optional. .ini files are read as
// mupen64plus.ini, .dat and .xml files as logiqx DAT.
func Load(path string) (Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Empty(), nil
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Empty(), nil
		}
		return nil, fmt.Errorf("stat catalog %s: %w", path, err)
	}
	var c *memCatalog
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dat", ".xml":
		c, err = loadDAT(path)
	default:
		c, err = loadINI(path)
	}
	if err != nil {
		return nil, err
	}
	c.fingerprint = sourceFingerprint(path, info)
	return c, nil
}

// sourceFingerprint identifies one revision of a catalog file.
func sourceFingerprint(path string, info os.FileInfo) uint64 {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return xxhash.Sum64String(fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().UnixNano()))
}

func loadINI(path string) (*memCatalog, error) {
	f, err := ini.LoadSources(ini.LoadOptions{
		Loose:               true,
		IgnoreInlineComment: true,
	}, path)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	c := &memCatalog{available: true, records: make(map[string]record)}
	for _, sec := range f.Sections() {
		name := strings.ToUpper(strings.TrimSpace(sec.Name()))
		if name == "" || name == strings.ToUpper(ini.DefaultSection) {
			continue
		}
		c.records[name] = record{
			goodName: keyValue(sec, "GoodName"),
			crc:      keyValue(sec, "CRC"),
			refMD5:   strings.ToUpper(keyValue(sec, "RefMD5")),
			players:  keyValue(sec, "Players"),
			saveType: keyValue(sec, "SaveType"),
			rumble:   keyValue(sec, "Rumble"),
		}
	}
	return c, nil
}

func keyValue(sec *ini.Section, name string) string {
	k, err := sec.GetKey(name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(k.String())
}

func loadDAT(path string) (*memCatalog, error) {
	df, err := dat.NewParser().ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	c := &memCatalog{available: true, records: make(map[string]record)}
	for hash, ref := range df.IndexByMD5() {
		c.records[hash] = record{
			goodName: ref.Game.Title(),
			crc:      strings.ToUpper(ref.Rom.CRC),
		}
	}
	return c, nil
}

// Fingerprint changes whenever the catalog file is replaced or edited. The
// empty catalog reports zero.
func (c *memCatalog) Fingerprint() uint64 {
	return c.fingerprint
}

// Available reports whether a catalog file was loaded.
func (c *memCatalog) Available() bool {
	return c.available
}

// Lookup resolves hash. Shared fields (players, save type, rumble) come from
// the RefMD5 entry when one is named, following exactly one level.
func (c *memCatalog) Lookup(hash string) model.CatalogEntry {
	if !c.available {
		return model.CatalogEntry{Source: model.CatalogMissing}
	}
	key := strings.ToUpper(strings.TrimSpace(hash))
	rec, ok := c.records[key]
	if !ok {
		return model.CatalogEntry{Source: model.CatalogUnknown}
	}
	entry := model.CatalogEntry{Source: model.CatalogKnown, GoodName: rec.goodName}
	entry.CRC1, entry.CRC2 = splitCRC(rec.crc)

	shared := rec
	if rec.refMD5 != "" {
		if ref, ok := c.records[rec.refMD5]; ok {
			shared = ref
		}
	}
	entry.Players = shared.players
	entry.SaveType = shared.saveType
	entry.Rumble = shared.rumble
	return entry
}

func splitCRC(v string) (string, string) {
	parts := strings.Fields(v)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], parts[1]
	}
}
