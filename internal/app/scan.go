package app

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/xxxsen/cen64-launcher/internal/collection"

	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// ScanCommand rebuilds the cached collection from the ROM directory.
type ScanCommand struct {
	env      *Env
	romDir   string
	patterns []string
	layout   string
}

func (c *ScanCommand) Name() string { return "scan" }

func (c *ScanCommand) Desc() string {
	return "Scan the ROM directory, refresh the cache and show the collection"
}

func NewScanCommand() *ScanCommand { return &ScanCommand{} }

func (c *ScanCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.romDir, "dir", "", "ROM directory, defaults to paths.roms")
	f.StringSliceVar(&c.patterns, "pattern", nil, "File patterns to scan, defaults to *.z64,*.n64,*.zip,*.7z")
	f.StringVar(&c.layout, "layout", "", "Override view.layout (table, grid, list, none)")
}

func (c *ScanCommand) PreRun(ctx context.Context, env *Env) error {
	c.env = env
	if strings.TrimSpace(c.romDir) == "" {
		c.romDir = env.Config.Paths.Roms
	}
	if strings.TrimSpace(c.romDir) == "" {
		return errors.New("scan requires --dir or paths.roms")
	}
	logutil.GetLogger(ctx).Info("starting scan", zap.String("dir", c.romDir))
	return nil
}

func (c *ScanCommand) Run(ctx context.Context) error {
	_, err := presentCollection(ctx, c.env, os.Stdout, c.layout,
		func(ctx context.Context, s *collection.Synchronizer) (collection.Summary, error) {
			return s.Rescan(ctx, c.romDir, c.patterns)
		})
	return err
}

func (c *ScanCommand) PostRun(ctx context.Context) error { return nil }

func init() {
	RegisterRunner("scan", func() IRunner { return NewScanCommand() })
}
