package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xxxsen/cen64-launcher/internal/gamesdb"
	"github.com/xxxsen/cen64-launcher/internal/model"

	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// DownloadCommand fetches game information for one ROM into the local
// enrichment cache.
type DownloadCommand struct {
	env    *Env
	hash   string
	file   string
	name   string
	gameID string
	force  bool
}

func (c *DownloadCommand) Name() string { return "download" }

func (c *DownloadCommand) Desc() string {
	return "Download game information and cover art for a ROM"
}

func NewDownloadCommand() *DownloadCommand { return &DownloadCommand{} }

func (c *DownloadCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.hash, "hash", "", "MD5 of a cached ROM")
	f.StringVar(&c.file, "file", "", "ROM file to identify instead of --hash")
	f.StringVar(&c.name, "name", "", "Search name, defaults to the catalog or internal name")
	f.StringVar(&c.gameID, "id", "", "TheGamesDB game id, skips the name search")
	f.BoolVar(&c.force, "force", false, "Refetch even when information is cached")
}

func (c *DownloadCommand) PreRun(ctx context.Context, env *Env) error {
	c.env = env
	if strings.TrimSpace(c.hash) == "" && strings.TrimSpace(c.file) == "" {
		return errors.New("download requires --hash or --file")
	}
	return nil
}

func (c *DownloadCommand) Run(ctx context.Context) error {
	logger := logutil.GetLogger(ctx)
	rec, err := c.record(ctx)
	if err != nil {
		return err
	}
	client, err := c.env.GamesDB()
	if err != nil {
		return err
	}
	cache := c.env.Cache()
	name := c.name
	if name == "" {
		name = gamesdb.SearchName(rec)
	}
	res, err := gamesdb.NewDownloader(cache, client).Download(ctx, gamesdb.Request{
		Hash:       rec.ContentHash,
		SearchName: name,
		GameID:     c.gameID,
		Force:      c.force,
	})
	if err != nil {
		return fmt.Errorf("download %s: %w", rec.FileName, err)
	}
	logger.Info("download finished",
		zap.String("hash", rec.ContentHash),
		zap.String("search", name),
		zap.Bool("fetched", res.Fetched),
		zap.Bool("cover", res.CoverSaved),
	)
	rec.Info = cache.Load(rec.ContentHash)
	printFields(os.Stdout, rec, []model.Field{
		model.FieldFilenameExt, model.FieldGameTitle, model.FieldReleaseDate,
		model.FieldGenre, model.FieldPublisher, model.FieldDeveloper,
	})
	return nil
}

func (c *DownloadCommand) record(ctx context.Context) (model.RomRecord, error) {
	if c.file != "" {
		return recordFromFile(c.file, c.env.Catalog(ctx))
	}
	rec, err := findCached(ctx, c.env, c.hash)
	if err == nil {
		return rec, nil
	}
	if c.name == "" && c.gameID == "" {
		return model.RomRecord{}, fmt.Errorf("%w; pass --name or --id to download by hash alone", err)
	}
	return model.RomRecord{ContentHash: strings.ToLower(c.hash)}, nil
}

func (c *DownloadCommand) PostRun(ctx context.Context) error { return nil }

func init() {
	RegisterRunner("download", func() IRunner { return NewDownloadCommand() })
}
