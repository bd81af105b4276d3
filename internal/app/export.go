package app

import (
	"context"
	"errors"
	"strings"

	"github.com/xxxsen/cen64-launcher/internal/metadata"
	"github.com/xxxsen/cen64-launcher/internal/view"

	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// ExportCommand writes the cached collection as an EmulationStation
// gamelist.xml.
type ExportCommand struct {
	env    *Env
	output string
}

func (c *ExportCommand) Name() string { return "export" }

func (c *ExportCommand) Desc() string {
	return "Export the cached collection as gamelist.xml"
}

func NewExportCommand() *ExportCommand { return &ExportCommand{} }

func (c *ExportCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.output, "out", "", "gamelist.xml output path")
}

func (c *ExportCommand) PreRun(ctx context.Context, env *Env) error {
	c.env = env
	if strings.TrimSpace(c.output) == "" {
		return errors.New("export requires --out")
	}
	logutil.GetLogger(ctx).Info("starting export", zap.String("out", c.output))
	return nil
}

func (c *ExportCommand) Run(ctx context.Context) error {
	collector := view.NewCollector(nil)
	syncer, err := c.env.Synchronizer(ctx, collector)
	if err != nil {
		return err
	}
	summary, err := syncer.LoadCached(ctx)
	if err != nil {
		return err
	}
	if summary.Cancelled {
		return errors.New("export cancelled")
	}
	records := collector.Records()
	cache := c.env.Cache()
	for i := range records {
		if records[i].Info == nil {
			records[i].Info = cache.Load(records[i].ContentHash)
		}
	}
	if err := metadata.WriteGamelistFile(c.output, metadata.BuildGamelist(records)); err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("export completed",
		zap.Int("records", len(records)),
		zap.String("output", c.output),
	)
	return nil
}

func (c *ExportCommand) PostRun(ctx context.Context) error { return nil }

func init() {
	RegisterRunner("export", func() IRunner { return NewExportCommand() })
}
