package model

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Placeholder values shown when a field cannot be resolved.
const (
	PlaceholderNoCatalog = "Requires catalog file"
	PlaceholderUnknown   = "Unknown ROM"
	PlaceholderNotFound  = "Not found"
)

// CatalogSource tells how a catalog entry was resolved.
type CatalogSource int

const (
	CatalogMissing CatalogSource = iota
	CatalogUnknown
	CatalogKnown
)

// CatalogEntry is the read-only reference data for one content hash.
type CatalogEntry struct {
	Source   CatalogSource
	GoodName string
	CRC1     string
	CRC2     string
	Players  string
	SaveType string
	Rumble   string
}

// Known reports whether the catalog resolved the hash.
func (c CatalogEntry) Known() bool {
	return c.Source == CatalogKnown
}

// DisplayName returns GoodName or the matching placeholder.
func (c CatalogEntry) DisplayName() string {
	switch c.Source {
	case CatalogKnown:
		if c.GoodName != "" {
			return c.GoodName
		}
		return PlaceholderUnknown
	case CatalogUnknown:
		return PlaceholderUnknown
	default:
		return PlaceholderNoCatalog
	}
}

// GameInfo holds descriptive fields read from the local enrichment cache.
type GameInfo struct {
	GameTitle   string
	ReleaseDate string
	SortDate    string
	Overview    string
	ESRB        string
	Genre       string
	Publisher   string
	Developer   string
	Rating      string
	CoverPath   string
}

// RomRecord is one ROM of the collection.
type RomRecord struct {
	FileName      string
	ContainerFile string
	ContentHash   string
	InternalName  string
	SizeBytes     int64

	Catalog CatalogEntry
	Info    *GameInfo
}

// BaseName returns the file name without its extension.
func (r RomRecord) BaseName() string {
	return strings.TrimSuffix(r.FileName, filepath.Ext(r.FileName))
}

// SizeLabel renders the size in megabytes, rounded the way the ROM sizes are
// usually quoted (8 MB, 12 MB, ...).
func (r RomRecord) SizeLabel() string {
	return fmt.Sprintf("%d MB", (r.SizeBytes+1023)/1024/1024)
}

// Location returns the path of the ROM relative to the scan root.
func (r RomRecord) Location() string {
	if r.ContainerFile != "" {
		return r.ContainerFile + ":" + r.FileName
	}
	return r.FileName
}
