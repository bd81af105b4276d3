package metadata

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xxxsen/cen64-launcher/internal/model"
)

// GamelistDocument is an EmulationStation gamelist.xml.
type GamelistDocument struct {
	Provider ProviderInfo    `xml:"provider"`
	Games    []GamelistEntry `xml:"game"`
}

// ProviderInfo describes the creator of the gamelist file.
type ProviderInfo struct {
	System   string `xml:"system"`
	Software string `xml:"software"`
}

type GamelistEntry struct {
	Path        string `xml:"path"`
	Name        string `xml:"name"`
	Description string `xml:"desc"`
	Image       string `xml:"image"`
	Developer   string `xml:"developer"`
	Publisher   string `xml:"publisher"`
	Genre       string `xml:"genre"`
	ReleaseDate string `xml:"releasedate"`
	Players     string `xml:"players"`
	MD5         string `xml:"md5"`
}

// BuildGamelist turns presented records into gamelist entries. Archive
// members are referenced through their container, which is what frontends
// hand to the emulator.
func BuildGamelist(records []model.RomRecord) *GamelistDocument {
	doc := &GamelistDocument{
		Provider: ProviderInfo{System: "n64", Software: "cen64-launcher"},
		Games:    make([]GamelistEntry, 0, len(records)),
	}
	for _, r := range records {
		p := r.FileName
		if r.ContainerFile != "" {
			p = r.ContainerFile
		}
		entry := GamelistEntry{
			Path:    "./" + filepath.ToSlash(p),
			Name:    gamelistName(r),
			Players: r.Catalog.Players,
			MD5:     strings.ToLower(r.ContentHash),
		}
		if r.Info != nil {
			entry.Description = r.Info.Overview
			entry.Image = r.Info.CoverPath
			entry.Developer = r.Info.Developer
			entry.Publisher = r.Info.Publisher
			entry.Genre = r.Info.Genre
			entry.ReleaseDate = esDate(r.Info.SortDate)
		}
		doc.Games = append(doc.Games, entry)
	}
	return doc
}

func gamelistName(r model.RomRecord) string {
	if r.Info != nil && r.Info.GameTitle != "" {
		return r.Info.GameTitle
	}
	if r.Catalog.Known() && r.Catalog.GoodName != "" {
		return r.Catalog.GoodName
	}
	return r.BaseName()
}

// esDate converts YYYY-MM-DD into the YYYYMMDDT000000 form frontends expect.
func esDate(sortDate string) string {
	d := strings.ReplaceAll(sortDate, "-", "")
	if len(d) != 8 {
		return ""
	}
	return d + "T000000"
}

func ParseGamelistFile(path string) (*GamelistDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gamelist %s: %w", path, err)
	}
	defer f.Close()

	var doc GamelistDocument
	decoder := xml.NewDecoder(f)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode gamelist %s: %w", path, err)
	}
	for i := range doc.Games {
		entry := &doc.Games[i]
		entry.Path = strings.TrimSpace(entry.Path)
		entry.Name = strings.TrimSpace(entry.Name)
		entry.Description = strings.TrimSpace(entry.Description)
		entry.MD5 = strings.TrimSpace(entry.MD5)
	}
	return &doc, nil
}

// WriteGamelistFile serialises the gamelist document to the provided file path.
func WriteGamelistFile(path string, doc *GamelistDocument) error {
	if doc == nil {
		return fmt.Errorf("gamelist document is nil")
	}
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("invalid gamelist output path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure gamelist dir %s: %w", path, err)
	}

	output := gamelistOutput{
		Provider: &providerOutput{
			System:   strings.TrimSpace(doc.Provider.System),
			Software: strings.TrimSpace(doc.Provider.Software),
		},
		Games: make([]gamelistOutputEntry, 0, len(doc.Games)),
	}
	for _, game := range doc.Games {
		output.Games = append(output.Games, newOutputEntry(game))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create gamelist %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(xml.Header); err != nil {
		return fmt.Errorf("write xml header: %w", err)
	}

	encoder := xml.NewEncoder(f)
	encoder.Indent("", "  ")
	if err := encoder.Encode(output); err != nil {
		return fmt.Errorf("encode gamelist xml: %w", err)
	}
	if err := encoder.Flush(); err != nil {
		return fmt.Errorf("flush gamelist xml: %w", err)
	}
	if _, err := f.WriteString("\n"); err != nil {
		return fmt.Errorf("terminate gamelist xml: %w", err)
	}
	return nil
}

func newOutputEntry(src GamelistEntry) gamelistOutputEntry {
	return gamelistOutputEntry{
		Path:        strings.TrimSpace(src.Path),
		Name:        strings.TrimSpace(src.Name),
		Description: strings.TrimSpace(src.Description),
		Image:       strings.TrimSpace(src.Image),
		Developer:   strings.TrimSpace(src.Developer),
		Publisher:   strings.TrimSpace(src.Publisher),
		Genre:       strings.TrimSpace(src.Genre),
		ReleaseDate: strings.TrimSpace(src.ReleaseDate),
		Players:     strings.TrimSpace(src.Players),
		MD5:         strings.TrimSpace(src.MD5),
	}
}

type gamelistOutput struct {
	XMLName  xml.Name              `xml:"gameList"`
	Provider *providerOutput       `xml:"provider,omitempty"`
	Games    []gamelistOutputEntry `xml:"game"`
}

type providerOutput struct {
	System   string `xml:"system,omitempty"`
	Software string `xml:"software,omitempty"`
}

type gamelistOutputEntry struct {
	XMLName     xml.Name `xml:"game"`
	Path        string   `xml:"path,omitempty"`
	Name        string   `xml:"name,omitempty"`
	Description string   `xml:"desc,omitempty"`
	Image       string   `xml:"image,omitempty"`
	Developer   string   `xml:"developer,omitempty"`
	Publisher   string   `xml:"publisher,omitempty"`
	Genre       string   `xml:"genre,omitempty"`
	ReleaseDate string   `xml:"releasedate,omitempty"`
	Players     string   `xml:"players,omitempty"`
	MD5         string   `xml:"md5,omitempty"`
}
