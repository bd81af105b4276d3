package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/xxxsen/cen64-launcher/internal/collection"
	"github.com/xxxsen/cen64-launcher/internal/view"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type passFunc func(ctx context.Context, s *collection.Synchronizer) (collection.Summary, error)

// presentCollection runs one synchronizer pass and renders what it
// presented. layout overrides the configured layout when set.
func presentCollection(ctx context.Context, env *Env, out io.Writer, layout string, pass passFunc) (collection.Summary, error) {
	logger := logutil.GetLogger(ctx)
	opts, err := env.Config.ViewOptions()
	if err != nil {
		return collection.Summary{}, err
	}
	if layout != "" {
		l, err := view.ParseLayout(layout)
		if err != nil {
			return collection.Summary{}, err
		}
		opts.Layout = l
	}

	collector := view.NewCollector(func(done, total int) {
		fmt.Fprintf(os.Stderr, "\rscanning %d/%d", done, total)
		if done == total {
			fmt.Fprintln(os.Stderr)
		}
	})
	syncer, err := env.Synchronizer(ctx, collector)
	if err != nil {
		return collection.Summary{}, err
	}
	summary, passErr := pass(ctx, syncer)
	if passErr != nil {
		logger.Error("collection pass failed", zap.Error(passErr))
	}
	if summary.Cancelled {
		logger.Warn("collection pass cancelled", zap.Int("presented", summary.Count))
		return summary, passErr
	}
	if err := view.Render(out, opts, collector.Records()); err != nil {
		return summary, err
	}
	if !summary.CatalogAvailable {
		logger.Debug("no catalog configured, names fall back to placeholders")
	}
	logger.Info("collection presented",
		zap.Int("count", summary.Count),
		zap.Int("candidates", summary.Candidates),
		zap.Int("skipped", summary.Skipped),
		zap.Bool("changed", summary.Changed),
		zap.Bool("from_cache", summary.FromCache),
	)
	return summary, passErr
}
