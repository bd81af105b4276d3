package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func titled(file, title string) RomRecord {
	r := RomRecord{FileName: file}
	if title != "" {
		r.Catalog = CatalogEntry{Source: CatalogKnown, GoodName: title}
	} else {
		r.Catalog = CatalogEntry{Source: CatalogUnknown}
	}
	return r
}

func names(records []RomRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.FileName)
	}
	return out
}

func TestSortUnknownTitlesLastBothDirections(t *testing.T) {
	t.Parallel()

	recs := []RomRecord{titled("z.z64", "Zelda"), titled("u.z64", ""), titled("m.z64", "Mario")}

	asc := append([]RomRecord(nil), recs...)
	SortRecords(asc, SortSpec{Field: FieldGoodName})
	assert.Equal(t, []string{"m.z64", "z.z64", "u.z64"}, names(asc))

	desc := append([]RomRecord(nil), recs...)
	SortRecords(desc, SortSpec{Field: FieldGoodName, Descending: true})
	assert.Equal(t, []string{"z.z64", "m.z64", "u.z64"}, names(desc))
}

func TestSortTiesByFilename(t *testing.T) {
	t.Parallel()

	recs := []RomRecord{
		titled("c.z64", "Same"),
		titled("a.z64", "Same"),
		titled("b.z64", ""),
		titled("0.z64", ""),
	}
	SortRecords(recs, SortSpec{Field: FieldGoodName, Descending: true})
	assert.Equal(t, []string{"a.z64", "c.z64", "0.z64", "b.z64"}, names(recs))
}

func TestSortBySizeNumeric(t *testing.T) {
	t.Parallel()

	recs := []RomRecord{
		{FileName: "big.z64", SizeBytes: 33554432},
		{FileName: "small.z64", SizeBytes: 4194304},
		{FileName: "mid.z64", SizeBytes: 12582912},
	}
	SortRecords(recs, SortSpec{Field: FieldSize})
	assert.Equal(t, []string{"small.z64", "mid.z64", "big.z64"}, names(recs))
}

func TestSortByReleaseDate(t *testing.T) {
	t.Parallel()

	recs := []RomRecord{
		{FileName: "a.z64", Info: &GameInfo{ReleaseDate: "11/24/1997", SortDate: "1997-11-24"}},
		{FileName: "b.z64"},
		{FileName: "c.z64", Info: &GameInfo{ReleaseDate: "09/29/1996", SortDate: "1996-09-29"}},
	}
	SortRecords(recs, SortSpec{Field: FieldReleaseDate})
	assert.Equal(t, []string{"c.z64", "a.z64", "b.z64"}, names(recs))
}

func TestSortFoldsHanTitles(t *testing.T) {
	t.Parallel()

	recs := []RomRecord{
		{FileName: "1.z64", InternalName: "Zoo"},
		{FileName: "2.z64", InternalName: "马里奥"},
		{FileName: "3.z64", InternalName: "apple"},
	}
	SortRecords(recs, SortSpec{Field: FieldInternalName})
	assert.Equal(t, []string{"3.z64", "2.z64", "1.z64"}, names(recs))
}

func TestParseSortSpec(t *testing.T) {
	t.Parallel()

	spec, err := ParseSortSpec("", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultSort, spec)

	spec, err = ParseSortSpec("release date", "Descending")
	require.NoError(t, err)
	assert.Equal(t, SortSpec{Field: FieldReleaseDate, Descending: true}, spec)

	_, err = ParseSortSpec("Colour", "")
	assert.Error(t, err)
	_, err = ParseSortSpec("Size", "sideways")
	assert.Error(t, err)
}

func TestFieldAccessors(t *testing.T) {
	t.Parallel()

	r := RomRecord{
		FileName:      "Super Mario 64 (U).z64",
		ContainerFile: "sm64.zip",
		ContentHash:   "20b854b239203baf6c961b850a4a51a2",
		InternalName:  "SUPER MARIO 64",
		SizeBytes:     8388608,
		Catalog: CatalogEntry{
			Source: CatalogKnown, GoodName: "Super Mario 64 (U) [!]",
			CRC1: "635A2BFF", CRC2: "8B022326", Players: "1", SaveType: "Eeprom 4KB", Rumble: "No",
		},
		Info: &GameInfo{GameTitle: "Super Mario 64", Genre: "Platform"},
	}

	assert.Equal(t, "Super Mario 64 (U)", FieldFilename.Value(r))
	assert.Equal(t, "Super Mario 64 (U).z64", FieldFilenameExt.Value(r))
	assert.Equal(t, "sm64.zip", FieldZipFile.Value(r))
	assert.Equal(t, "20B854B239203BAF6C961B850A4A51A2", FieldMD5.Value(r))
	assert.Equal(t, "8 MB", FieldSize.Display(r))
	assert.Equal(t, "8B022326", FieldCRC2.Value(r))
	assert.Equal(t, "Platform", FieldGenre.Value(r))
	assert.Equal(t, "", FieldPublisher.Value(r))

	missing := RomRecord{FileName: "x.z64"}
	assert.Equal(t, PlaceholderNoCatalog, FieldGoodName.Display(missing))
	assert.Equal(t, PlaceholderNoCatalog, FieldPlayers.Display(missing))
	unknown := RomRecord{FileName: "x.z64", Catalog: CatalogEntry{Source: CatalogUnknown}, Info: &GameInfo{}}
	assert.Equal(t, PlaceholderUnknown, FieldGoodName.Display(unknown))
	assert.Equal(t, PlaceholderNotFound, FieldGameTitle.Display(unknown))
}

func TestParseFields(t *testing.T) {
	t.Parallel()

	fs, err := ParseFields([]string{"Filename", " internal name ", "", "Size"})
	require.NoError(t, err)
	assert.Equal(t, []Field{FieldFilename, FieldInternalName, FieldSize}, fs)

	_, err = ParseFields([]string{"Filename", "Bogus"})
	assert.Error(t, err)
	assert.Len(t, AllFields(), 20)
	assert.Equal(t, "Save Type", FieldSaveType.String())
}
