package app

import (
	"context"
	"errors"
	"strings"

	"github.com/xxxsen/cen64-launcher/internal/rom"

	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// ConvertCommand byte-swaps a v64 image into z64.
type ConvertCommand struct {
	src string
	dst string
}

func (c *ConvertCommand) Name() string { return "convert" }

func (c *ConvertCommand) Desc() string {
	return "Convert a byte-swapped v64 ROM into z64"
}

func NewConvertCommand() *ConvertCommand { return &ConvertCommand{} }

func (c *ConvertCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.src, "src", "", "v64 source file")
	f.StringVar(&c.dst, "dst", "", "z64 destination, defaults to the source with a .z64 extension")
}

func (c *ConvertCommand) PreRun(ctx context.Context, env *Env) error {
	if strings.TrimSpace(c.src) == "" {
		return errors.New("convert requires --src")
	}
	if strings.TrimSpace(c.dst) == "" {
		c.dst = strings.TrimSuffix(c.src, fileExt(c.src)) + ".z64"
	}
	if c.dst == c.src {
		return errors.New("convert --dst must differ from --src")
	}
	return nil
}

func (c *ConvertCommand) Run(ctx context.Context) error {
	if err := rom.ConvertV64(c.src, c.dst); err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("rom converted", zap.String("src", c.src), zap.String("dst", c.dst))
	return nil
}

func (c *ConvertCommand) PostRun(ctx context.Context) error { return nil }

func init() {
	RegisterRunner("convert", func() IRunner { return NewConvertCommand() })
}
