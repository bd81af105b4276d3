package gamesdb

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/xxxsen/cen64-launcher/internal/model"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

var (
	bracketTagRe = regexp.MustCompile(`\W*(\(|\[).+(\)|\])\W*`)
	camelRe      = regexp.MustCompile(`([a-z])([A-Z])`)
	digitRe      = regexp.MustCompile(`([^ \d])(\d)`)
)

// searchRenames maps cleaned catalog titles the provider lists differently.
var searchRenames = map[string]string{
	"Legend of Zelda, The - Majora's Mask":                  "Majora's Mask",
	"Legend of Zelda, The - Ocarina of Time - Master Quest": "Master Quest",
}

// knownIDs pins titles the name search cannot find.
var knownIDs = map[string]string{
	"f-zero x": "10836",
}

// CleanSearchName drops bracketed dump tags such as "(U) [!]".
func CleanSearchName(name string) string {
	return strings.TrimSpace(bracketTagRe.ReplaceAllString(name, ""))
}

// SearchName picks the provider search text for a record: the catalog title
// when known, else the header name with word breaks restored.
func SearchName(rec model.RomRecord) string {
	if rec.Catalog.Known() && rec.Catalog.GoodName != "" {
		return rec.Catalog.GoodName
	}
	s := camelRe.ReplaceAllString(rec.InternalName, "${1} ${2}")
	s = digitRe.ReplaceAllString(s, "${1} ${2}")
	return strings.TrimSpace(s)
}

// Request describes one user triggered download.
type Request struct {
	Hash       string
	SearchName string
	GameID     string
	Force      bool
}

// Result reports what a download did.
type Result struct {
	Game       *Game
	Candidates int
	Fetched    bool
	CoverSaved bool
}

// Downloader fills the local cache from a Provider. It is only used on user
// request, never while scanning.
type Downloader struct {
	cache    *Cache
	provider Provider
}

// NewDownloader builds a downloader writing into cache.
func NewDownloader(cache *Cache, provider Provider) *Downloader {
	return &Downloader{cache: cache, provider: provider}
}

// Download fetches and caches game data for req.Hash. Existing data is kept
// unless Force is set. A missing cover is fetched when the provider can.
func (d *Downloader) Download(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Hash) == "" {
		return nil, fmt.Errorf("download requires a content hash")
	}
	logger := logutil.GetLogger(ctx).With(zap.String("hash", strings.ToLower(req.Hash)))
	res := &Result{}

	if req.Force || !d.cache.HasData(req.Hash) {
		game, count, err := d.fetch(ctx, req)
		if err != nil {
			return nil, err
		}
		if err := d.cache.Store(req.Hash, game); err != nil {
			return nil, err
		}
		res.Game = game
		res.Candidates = count
		res.Fetched = true
		logger.Info("game info cached", zap.String("title", game.GameTitle), zap.Int("candidates", count))
	}

	if res.Game == nil && !d.cache.HasCover(req.Hash) {
		games, err := readCached(d.cache, req.Hash)
		if err == nil && len(games) > 0 {
			res.Game = &games[0]
		}
	}

	saved, err := d.fetchCover(ctx, req.Hash, res.Game, req.Force && res.Fetched)
	if err != nil {
		logger.Warn("download cover failed", zap.Error(err))
	}
	res.CoverSaved = saved
	return res, nil
}

func (d *Downloader) fetch(ctx context.Context, req Request) (*Game, int, error) {
	name := CleanSearchName(req.SearchName)
	if renamed, ok := searchRenames[name]; ok {
		name = renamed
	}
	id := strings.TrimSpace(req.GameID)
	if pinned, ok := knownIDs[strings.ToLower(name)]; ok && id == "" {
		id = pinned
	}

	if id != "" {
		game, err := d.provider.FetchByID(ctx, id)
		if err != nil {
			return nil, 0, err
		}
		return game, 1, nil
	}
	if name == "" {
		return nil, 0, fmt.Errorf("empty search name: %w", ErrNoResults)
	}
	games, err := d.provider.FetchByName(ctx, name)
	if err != nil {
		return nil, 0, err
	}
	if len(games) == 0 {
		return nil, 0, fmt.Errorf("search %q: %w", name, ErrNoResults)
	}
	pick := 0
	for i := range games {
		if games[i].GameTitle == name {
			pick = i
			break
		}
	}
	return &games[pick], len(games), nil
}

func (d *Downloader) fetchCover(ctx context.Context, hash string, game *Game, refresh bool) (bool, error) {
	if game == nil {
		return false, nil
	}
	if d.cache.HasCover(hash) && !refresh {
		return false, nil
	}
	covers, ok := d.provider.(CoverFetcher)
	if !ok {
		return false, nil
	}
	thumb := game.FrontThumb()
	if thumb == "" {
		return false, nil
	}
	data, err := covers.DownloadCover(ctx, thumb)
	if err != nil {
		return false, err
	}
	if err := d.cache.StoreCover(hash, data); err != nil {
		return false, err
	}
	return true, nil
}

func readCached(c *Cache, hash string) ([]Game, error) {
	f, err := os.Open(c.DataPath(hash))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseGames(f)
}
