package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Field identifies one displayable attribute of a RomRecord.
type Field int

const (
	FieldGoodName Field = iota
	FieldFilename
	FieldFilenameExt
	FieldZipFile
	FieldInternalName
	FieldSize
	FieldMD5
	FieldCRC1
	FieldCRC2
	FieldPlayers
	FieldRumble
	FieldSaveType
	FieldGameTitle
	FieldReleaseDate
	FieldOverview
	FieldESRB
	FieldGenre
	FieldPublisher
	FieldDeveloper
	FieldRating
	fieldCount
)

var fieldLabels = [fieldCount]string{
	FieldGoodName:     "GoodName",
	FieldFilename:     "Filename",
	FieldFilenameExt:  "Filename (extension)",
	FieldZipFile:      "Zip File",
	FieldInternalName: "Internal Name",
	FieldSize:         "Size",
	FieldMD5:          "MD5",
	FieldCRC1:         "CRC1",
	FieldCRC2:         "CRC2",
	FieldPlayers:      "Players",
	FieldRumble:       "Rumble",
	FieldSaveType:     "Save Type",
	FieldGameTitle:    "Game Title",
	FieldReleaseDate:  "Release Date",
	FieldOverview:     "Overview",
	FieldESRB:         "ESRB",
	FieldGenre:        "Genre",
	FieldPublisher:    "Publisher",
	FieldDeveloper:    "Developer",
	FieldRating:       "Rating",
}

type fieldAccessor func(r RomRecord) string

func infoField(get func(i *GameInfo) string) fieldAccessor {
	return func(r RomRecord) string {
		if r.Info == nil {
			return ""
		}
		return get(r.Info)
	}
}

func catalogField(get func(c CatalogEntry) string) fieldAccessor {
	return func(r RomRecord) string {
		if !r.Catalog.Known() {
			return ""
		}
		return get(r.Catalog)
	}
}

var fieldAccessors = [fieldCount]fieldAccessor{
	FieldGoodName:     catalogField(func(c CatalogEntry) string { return c.GoodName }),
	FieldFilename:     func(r RomRecord) string { return r.BaseName() },
	FieldFilenameExt:  func(r RomRecord) string { return r.FileName },
	FieldZipFile:      func(r RomRecord) string { return r.ContainerFile },
	FieldInternalName: func(r RomRecord) string { return r.InternalName },
	FieldSize:         func(r RomRecord) string { return strconv.FormatInt(r.SizeBytes, 10) },
	FieldMD5:          func(r RomRecord) string { return strings.ToUpper(r.ContentHash) },
	FieldCRC1:         catalogField(func(c CatalogEntry) string { return c.CRC1 }),
	FieldCRC2:         catalogField(func(c CatalogEntry) string { return c.CRC2 }),
	FieldPlayers:      catalogField(func(c CatalogEntry) string { return c.Players }),
	FieldRumble:       catalogField(func(c CatalogEntry) string { return c.Rumble }),
	FieldSaveType:     catalogField(func(c CatalogEntry) string { return c.SaveType }),
	FieldGameTitle:    infoField(func(i *GameInfo) string { return i.GameTitle }),
	FieldReleaseDate:  infoField(func(i *GameInfo) string { return i.ReleaseDate }),
	FieldOverview:     infoField(func(i *GameInfo) string { return i.Overview }),
	FieldESRB:         infoField(func(i *GameInfo) string { return i.ESRB }),
	FieldGenre:        infoField(func(i *GameInfo) string { return i.Genre }),
	FieldPublisher:    infoField(func(i *GameInfo) string { return i.Publisher }),
	FieldDeveloper:    infoField(func(i *GameInfo) string { return i.Developer }),
	FieldRating:       infoField(func(i *GameInfo) string { return i.Rating }),
}

// AllFields lists every field in display order.
func AllFields() []Field {
	out := make([]Field, 0, fieldCount)
	for f := Field(0); f < fieldCount; f++ {
		out = append(out, f)
	}
	return out
}

func (f Field) valid() bool {
	return f >= 0 && f < fieldCount
}

// String returns the display label.
func (f Field) String() string {
	if !f.valid() {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return fieldLabels[f]
}

// ParseField resolves a display label, ignoring case and surrounding spaces.
func ParseField(label string) (Field, error) {
	label = strings.TrimSpace(label)
	for f := Field(0); f < fieldCount; f++ {
		if strings.EqualFold(fieldLabels[f], label) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown field %q", label)
}

// ParseFields resolves a list of labels, skipping blank items.
func ParseFields(list []string) ([]Field, error) {
	out := make([]Field, 0, len(list))
	for _, item := range list {
		if strings.TrimSpace(item) == "" {
			continue
		}
		f, err := ParseField(item)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// Value returns the raw value of the field, empty when unresolved.
func (f Field) Value(r RomRecord) string {
	if !f.valid() {
		return ""
	}
	return fieldAccessors[f](r)
}

// Display returns the value shown to users. Catalog fields fall back to
// the catalog placeholders and enrichment titles to "Not found".
func (f Field) Display(r RomRecord) string {
	switch f {
	case FieldGoodName:
		return r.Catalog.DisplayName()
	case FieldSize:
		return r.SizeLabel()
	case FieldCRC1, FieldCRC2, FieldPlayers, FieldRumble, FieldSaveType:
		if !r.Catalog.Known() {
			return r.Catalog.DisplayName()
		}
	case FieldGameTitle:
		if r.Info != nil && r.Info.GameTitle == "" {
			return PlaceholderNotFound
		}
	}
	return f.Value(r)
}

// IsPlaceholder reports whether v stands for an unresolved value.
func IsPlaceholder(v string) bool {
	switch strings.TrimSpace(v) {
	case "", PlaceholderNoCatalog, PlaceholderUnknown, PlaceholderNotFound:
		return true
	}
	return false
}
