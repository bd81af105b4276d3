package gamesdb

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/xxxsen/cen64-launcher/internal/model"
)

// Data is the envelope returned by the GetGame endpoint.
type Data struct {
	XMLName    xml.Name `xml:"Data"`
	BaseImgURL string   `xml:"baseImgUrl,omitempty"`
	Games      []Game   `xml:"Game"`
}

// Game is one TheGamesDB game document.
type Game struct {
	XMLName     xml.Name `xml:"Game"`
	ID          string   `xml:"id"`
	GameTitle   string   `xml:"GameTitle"`
	Platform    string   `xml:"Platform,omitempty"`
	ReleaseDate string   `xml:"ReleaseDate,omitempty"`
	Overview    string   `xml:"Overview,omitempty"`
	ESRB        string   `xml:"ESRB,omitempty"`
	Genres      []string `xml:"Genres>genre,omitempty"`
	Players     string   `xml:"Players,omitempty"`
	Publisher   string   `xml:"Publisher,omitempty"`
	Developer   string   `xml:"Developer,omitempty"`
	Rating      string   `xml:"Rating,omitempty"`
	Images      *Images  `xml:"Images,omitempty"`
}

// Images lists artwork references.
type Images struct {
	BoxArt []BoxArt `xml:"boxart"`
}

// BoxArt is a cover image reference.
type BoxArt struct {
	Side  string `xml:"side,attr"`
	Thumb string `xml:"thumb,attr,omitempty"`
	Path  string `xml:",chardata"`
}

// FrontThumb returns the thumbnail path of the front cover, if any.
func (g *Game) FrontThumb() string {
	if g.Images == nil {
		return ""
	}
	for _, b := range g.Images.BoxArt {
		if b.Side == "front" && b.Thumb != "" {
			return b.Thumb
		}
	}
	return ""
}

// ParseGames returns every <Game> element of a document, whatever the
// root element is.
func ParseGames(r io.Reader) ([]Game, error) {
	decoder := xml.NewDecoder(r)
	decoder.Strict = false

	var games []Game
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			return games, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decode game xml: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Game" {
			continue
		}
		var g Game
		if err := decoder.DecodeElement(&g, &se); err != nil {
			return nil, fmt.Errorf("decode game element: %w", err)
		}
		games = append(games, g)
	}
}

// WriteGame writes g as a standalone document.
func WriteGame(w io.Writer, g *Game) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(g); err != nil {
		return fmt.Errorf("encode game xml: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

var (
	dateFixes = []struct {
		re   *regexp.Regexp
		repl string
	}{
		{regexp.MustCompile(`^(\d)/(\d{2})/(\d{4})`), "0${1}/${2}/${3}"},
		{regexp.MustCompile(`^(\d{2})/(\d)/(\d{4})`), "${1}/0${2}/${3}"},
		{regexp.MustCompile(`^(\d)/(\d)/(\d{4})`), "0${1}/0${2}/${3}"},
	}
	sortDateRe = regexp.MustCompile(`(\d{2})/(\d{2})/(\d{4})`)
)

// NormalizeDate zero pads M/D/YYYY dates and derives a YYYY-MM-DD sort key.
// Dates in other shapes are returned unchanged for both values.
func NormalizeDate(v string) (display, sortKey string) {
	display = strings.TrimSpace(v)
	for _, fix := range dateFixes {
		display = fix.re.ReplaceAllString(display, fix.repl)
	}
	sortKey = sortDateRe.ReplaceAllString(display, "${3}-${1}-${2}")
	return display, sortKey
}

// StripText keeps printable ASCII only.
func StripText(v string) string {
	var sb strings.Builder
	for _, r := range v {
		if r >= 0x20 && r <= 0x7e {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// ToInfo converts a game document into descriptive record fields.
func (g *Game) ToInfo() model.GameInfo {
	release, sortDate := NormalizeDate(g.ReleaseDate)
	genres := make([]string, 0, len(g.Genres))
	for _, genre := range g.Genres {
		if genre = strings.TrimSpace(genre); genre != "" {
			genres = append(genres, genre)
		}
	}
	return model.GameInfo{
		GameTitle:   strings.TrimSpace(StripText(g.GameTitle)),
		ReleaseDate: release,
		SortDate:    sortDate,
		Overview:    strings.TrimSpace(StripText(g.Overview)),
		ESRB:        strings.TrimSpace(g.ESRB),
		Genre:       strings.Join(genres, "/"),
		Publisher:   strings.TrimSpace(g.Publisher),
		Developer:   strings.TrimSpace(g.Developer),
		Rating:      strings.TrimSpace(g.Rating),
	}
}
