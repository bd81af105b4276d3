package app

import (
	"context"
	"os"

	"github.com/xxxsen/cen64-launcher/internal/collection"

	"github.com/spf13/pflag"
)

// ListCommand shows the cached collection, scanning only when the cache is
// empty.
type ListCommand struct {
	env    *Env
	layout string
}

func (c *ListCommand) Name() string { return "list" }

func (c *ListCommand) Desc() string {
	return "Show the cached ROM collection"
}

func NewListCommand() *ListCommand { return &ListCommand{} }

func (c *ListCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.layout, "layout", "", "Override view.layout (table, grid, list, none)")
}

func (c *ListCommand) PreRun(ctx context.Context, env *Env) error {
	c.env = env
	return nil
}

func (c *ListCommand) Run(ctx context.Context) error {
	_, err := presentCollection(ctx, c.env, os.Stdout, c.layout,
		func(ctx context.Context, s *collection.Synchronizer) (collection.Summary, error) {
			return s.LoadCached(ctx)
		})
	return err
}

func (c *ListCommand) PostRun(ctx context.Context) error { return nil }

func init() {
	RegisterRunner("list", func() IRunner { return NewListCommand() })
}
