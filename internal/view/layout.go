package view

import (
	"fmt"
	"strings"

	"github.com/xxxsen/cen64-launcher/internal/model"
)

// Layout selects how the collection is presented.
type Layout int

const (
	LayoutEmpty Layout = iota
	LayoutTable
	LayoutGrid
	LayoutList
)

var layoutNames = map[Layout]string{
	LayoutEmpty: "None",
	LayoutTable: "Table View",
	LayoutGrid:  "Grid View",
	LayoutList:  "List View",
}

func (l Layout) String() string {
	if n, ok := layoutNames[l]; ok {
		return n
	}
	return fmt.Sprintf("Layout(%d)", int(l))
}

// ParseLayout accepts the configured label ("Table View") or its short
// form ("table"). An empty value selects LayoutEmpty.
func ParseLayout(v string) (Layout, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return LayoutEmpty, nil
	}
	for l, name := range layoutNames {
		short := strings.TrimSuffix(name, " View")
		if strings.EqualFold(v, name) || strings.EqualFold(v, short) {
			return l, nil
		}
	}
	if strings.EqualFold(v, "empty") {
		return LayoutEmpty, nil
	}
	return LayoutEmpty, fmt.Errorf("unknown layout %q", v)
}

// Options holds the per-layout presentation settings.
type Options struct {
	Layout       Layout
	TableColumns []model.Field
	ListColumns  []model.Field
	// ListHeader renders the first list field as a heading.
	ListHeader  bool
	GridLabel   bool
	GridText    model.Field
	GridColumns int
}

// DefaultOptions mirrors the out-of-the-box settings.
func DefaultOptions() Options {
	return Options{
		Layout:       LayoutEmpty,
		TableColumns: []model.Field{model.FieldFilename, model.FieldSize},
		ListColumns:  []model.Field{model.FieldFilename, model.FieldInternalName, model.FieldSize},
		ListHeader:   true,
		GridLabel:    true,
		GridText:     model.FieldFilename,
		GridColumns:  4,
	}
}
