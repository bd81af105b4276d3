package metadata

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xxxsen/cen64-launcher/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildGamelist(t *testing.T) {
	t.Parallel()

	records := []model.RomRecord{
		{
			FileName:    "Mario.z64",
			ContentHash: "ABCDEF",
			Catalog:     model.CatalogEntry{Source: model.CatalogKnown, GoodName: "Super Mario 64 (U) [!]", Players: "1"},
			Info: &model.GameInfo{
				GameTitle: "Super Mario 64",
				SortDate:  "1996-06-23",
				Overview:  "Jump around.",
				Genre:     "Platform",
				CoverPath: "/cache/abcdef/boxart-front.jpg",
			},
		},
		{FileName: "Kart.n64", ContainerFile: "sub dir/kart.zip", Catalog: model.CatalogEntry{Source: model.CatalogKnown, GoodName: "Mario Kart 64 (U)"}},
		{FileName: "Homebrew.z64", Catalog: model.CatalogEntry{Source: model.CatalogUnknown}},
	}
	doc := BuildGamelist(records)
	require.Len(t, doc.Games, 3)

	first := doc.Games[0]
	assert.Equal(t, "./Mario.z64", first.Path)
	assert.Equal(t, "Super Mario 64", first.Name)
	assert.Equal(t, "19960623T000000", first.ReleaseDate)
	assert.Equal(t, "abcdef", first.MD5)
	assert.Equal(t, "1", first.Players)
	assert.Equal(t, "/cache/abcdef/boxart-front.jpg", first.Image)

	assert.Equal(t, "./sub dir/kart.zip", doc.Games[1].Path)
	assert.Equal(t, "Mario Kart 64 (U)", doc.Games[1].Name)
	assert.Equal(t, "Homebrew", doc.Games[2].Name)
	assert.Empty(t, doc.Games[2].ReleaseDate)
}

func TestWriteGamelistFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out", "gamelist.xml")
	doc := BuildGamelist([]model.RomRecord{{
		FileName:    "Zelda.z64",
		ContentHash: "1234",
		Info:        &model.GameInfo{GameTitle: "Zelda & Link", Overview: "  Hero  "},
	}})
	require.NoError(t, WriteGamelistFile(path, doc))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(raw)
	assert.True(t, strings.HasPrefix(text, "<?xml"))
	assert.True(t, strings.HasSuffix(text, "</gameList>\n"))
	assert.Contains(t, text, "<system>n64</system>")
	assert.Contains(t, text, "Zelda &amp; Link")
	assert.NotContains(t, text, "<publisher>")

	back, err := ParseGamelistFile(path)
	require.NoError(t, err)
	require.Len(t, back.Games, 1)
	assert.Equal(t, "Zelda & Link", back.Games[0].Name)
	assert.Equal(t, "Hero", back.Games[0].Description)
	assert.Equal(t, "./Zelda.z64", back.Games[0].Path)
}

func TestWriteGamelistFileRejectsBadInput(t *testing.T) {
	t.Parallel()

	assert.Error(t, WriteGamelistFile(filepath.Join(t.TempDir(), "g.xml"), nil))
	assert.Error(t, WriteGamelistFile(" ", &GamelistDocument{}))
}
