package app

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xxxsen/cen64-launcher/internal/catalog"
	"github.com/xxxsen/cen64-launcher/internal/model"
	"github.com/xxxsen/cen64-launcher/internal/rom"
)

func fileExt(path string) string {
	return filepath.Ext(path)
}

// recordFromFile identifies a plain ROM file and resolves its catalog entry.
func recordFromFile(path string, cat catalog.Catalog) (model.RomRecord, error) {
	id, err := rom.IdentifyFile(path)
	if err != nil {
		return model.RomRecord{}, fmt.Errorf("identify %s: %w", path, err)
	}
	return model.RomRecord{
		FileName:     filepath.Base(path),
		ContentHash:  id.Hash,
		InternalName: id.InternalName,
		SizeBytes:    id.Size,
		Catalog:      cat.Lookup(id.Hash),
	}, nil
}

// printFields writes "label: value" lines, skipping empty values.
func printFields(w io.Writer, rec model.RomRecord, fields []model.Field) {
	width := 0
	for _, f := range fields {
		if n := len(f.String()); n > width {
			width = n
		}
	}
	for _, f := range fields {
		v := f.Display(rec)
		if strings.TrimSpace(v) == "" {
			continue
		}
		fmt.Fprintf(w, "%-*s  %s\n", width+1, f.String()+":", v)
	}
}
