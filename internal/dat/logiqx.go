package dat

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
)

// Parser reads logiqx-style DAT files as published by No-Intro and
// similar preservation groups. Both <game> and <machine> nodes are accepted.
type Parser struct{}

// NewParser builds a fresh DAT parser.
func NewParser() Parser {
	return Parser{}
}

// ParseFile opens and parses a DAT file.
func (p Parser) ParseFile(path string) (*DataFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dat %s: %w", path, err)
	}
	defer f.Close()
	return p.Parse(f)
}

// Parse consumes DAT XML content from the provided reader.
func (p Parser) Parse(r io.Reader) (*DataFile, error) {
	decoder := xml.NewDecoder(r)
	decoder.Strict = false // DTD is referenced; relax strict parsing.

	var df DataFile
	if err := decoder.Decode(&df); err != nil {
		return nil, fmt.Errorf("decode dat: %w", err)
	}
	return &df, nil
}

// DataFile is the root node of a DAT file.
type DataFile struct {
	XMLName  xml.Name `xml:"datafile"`
	Header   Header   `xml:"header"`
	Games    []Game   `xml:"game"`
	Machines []Game   `xml:"machine"`
}

// Header carries top-level metadata for the DAT.
type Header struct {
	Name        string `xml:"name"`
	Description string `xml:"description"`
	Version     string `xml:"version"`
	Date        string `xml:"date"`
	Author      string `xml:"author"`
	Homepage    string `xml:"homepage"`
	URL         string `xml:"url"`
}

// Game represents a single set entry.
type Game struct {
	Name         string `xml:"name,attr"`
	CloneOf      string `xml:"cloneof,attr,omitempty"`
	Description  string `xml:"description"`
	Year         string `xml:"year"`
	Manufacturer string `xml:"manufacturer"`
	Roms         []Rom  `xml:"rom"`
}

// Rom describes a single ROM file entry.
type Rom struct {
	Name   string `xml:"name,attr"`
	Size   int64  `xml:"size,attr,omitempty"`
	CRC    string `xml:"crc,attr,omitempty"`
	MD5    string `xml:"md5,attr,omitempty"`
	SHA1   string `xml:"sha1,attr,omitempty"`
	Status string `xml:"status,attr,omitempty"`
}

// Title returns the display title of the set.
func (g *Game) Title() string {
	if d := strings.TrimSpace(g.Description); d != "" {
		return d
	}
	return strings.TrimSpace(g.Name)
}

// Sets returns games followed by machines.
func (df *DataFile) Sets() []Game {
	if df == nil {
		return nil
	}
	out := make([]Game, 0, len(df.Games)+len(df.Machines))
	out = append(out, df.Games...)
	out = append(out, df.Machines...)
	return out
}

// RomRef locates a ROM entry inside its owning set.
type RomRef struct {
	Game *Game
	Rom  *Rom
}

// IndexByMD5 maps the uppercase md5 of every ROM entry to its set.
// The first entry wins when a hash repeats.
func (df *DataFile) IndexByMD5() map[string]RomRef {
	out := make(map[string]RomRef)
	if df == nil {
		return out
	}
	index := func(games []Game) {
		for i := range games {
			g := &games[i]
			for j := range g.Roms {
				r := &g.Roms[j]
				key := strings.ToUpper(strings.TrimSpace(r.MD5))
				if key == "" {
					continue
				}
				if _, ok := out[key]; ok {
					continue
				}
				out[key] = RomRef{Game: g, Rom: r}
			}
		}
	}
	index(df.Games)
	index(df.Machines)
	return out
}

// FindGame returns the first set matching the given name.
func (df *DataFile) FindGame(name string) *Game {
	if df == nil {
		return nil
	}
	for i := range df.Games {
		if df.Games[i].Name == name {
			return &df.Games[i]
		}
	}
	for i := range df.Machines {
		if df.Machines[i].Name == name {
			return &df.Machines[i]
		}
	}
	return nil
}
