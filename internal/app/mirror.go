package app

import (
	"context"
	"errors"

	"github.com/xxxsen/cen64-launcher/internal/storage"

	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// MirrorCommand syncs the enrichment cache with an S3 bucket.
type MirrorCommand struct {
	env  *Env
	push bool
	pull bool
}

func (c *MirrorCommand) Name() string { return "mirror" }

func (c *MirrorCommand) Desc() string {
	return "Push or pull the game information cache to or from S3"
}

func NewMirrorCommand() *MirrorCommand { return &MirrorCommand{} }

func (c *MirrorCommand) Init(f *pflag.FlagSet) {
	f.BoolVar(&c.push, "push", false, "Upload local cache entries missing from the bucket")
	f.BoolVar(&c.pull, "pull", false, "Download bucket entries missing locally")
}

func (c *MirrorCommand) PreRun(ctx context.Context, env *Env) error {
	c.env = env
	if c.push == c.pull {
		return errors.New("mirror requires exactly one of --push or --pull")
	}
	if env.Config.S3.Bucket == "" {
		return errors.New("mirror requires s3.bucket")
	}
	if storage.DefaultClient() == nil {
		client, err := storage.NewS3Client(ctx, env.Config.S3)
		if err != nil {
			return err
		}
		storage.SetDefaultClient(client)
	}
	return nil
}

func (c *MirrorCommand) Run(ctx context.Context) error {
	m := storage.NewMirror(storage.DefaultClient(), c.env.Cache(), c.env.Config.S3.Prefix)
	op, direction := m.Push, "push"
	if c.pull {
		op, direction = m.Pull, "pull"
	}
	res, err := op(ctx)
	if err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("mirror completed",
		zap.String("direction", direction),
		zap.String("bucket", c.env.Config.S3.Bucket),
		zap.Int("transferred", res.Transferred),
		zap.Int("skipped", res.Skipped),
	)
	return nil
}

func (c *MirrorCommand) PostRun(ctx context.Context) error { return nil }

func init() {
	RegisterRunner("mirror", func() IRunner { return NewMirrorCommand() })
}
