package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xxxsen/cen64-launcher/internal/emulator"
	"github.com/xxxsen/cen64-launcher/internal/model"
	"github.com/xxxsen/cen64-launcher/internal/view"

	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// LaunchCommand runs the emulator in the foreground. Interrupting the
// command stops the emulator.
type LaunchCommand struct {
	env       *Env
	file      string
	container string
	hash      string
	input     string
}

func (c *LaunchCommand) Name() string { return "launch" }

func (c *LaunchCommand) Desc() string {
	return "Launch a ROM with the emulator"
}

func NewLaunchCommand() *LaunchCommand { return &LaunchCommand{} }

func (c *LaunchCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.file, "file", "", "ROM file, or the member name when --zip is set; relative paths use paths.roms")
	f.StringVar(&c.container, "zip", "", "Archive holding the ROM")
	f.StringVar(&c.hash, "hash", "", "Launch the cached ROM with this MD5")
	f.StringVar(&c.input, "input", "", "Controller profile, overrides input")
}

func (c *LaunchCommand) PreRun(ctx context.Context, env *Env) error {
	c.env = env
	if strings.TrimSpace(c.file) == "" && strings.TrimSpace(c.hash) == "" {
		return errors.New("launch requires --file or --hash")
	}
	if c.input != "" && !emulator.ValidInput(c.input) {
		return fmt.Errorf("unknown controller profile %q", c.input)
	}
	return nil
}

func (c *LaunchCommand) Run(ctx context.Context) error {
	logger := logutil.GetLogger(ctx)
	req, err := c.request(ctx)
	if err != nil {
		return err
	}

	ctrl := emulator.NewController(c.env.Config.EmulatorSettings())
	ctrl.OnStatus(func(line string) {
		fmt.Fprintf(os.Stderr, "\r%s", line)
	})
	if err := ctrl.Launch(ctx, req); err != nil {
		return err
	}

	exited := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			logger.Info("stopping emulator")
			if err := ctrl.Stop(); err != nil {
				logger.Error("stop emulator failed", zap.Error(err))
			}
		case <-exited:
		}
	}()
	err = ctrl.Wait()
	close(exited)
	fmt.Fprintln(os.Stderr)

	var exitErr *emulator.ExitError
	if errors.As(err, &exitErr) {
		if out := strings.TrimSpace(ctrl.Log()); out != "" {
			fmt.Fprintln(os.Stderr, out)
		}
		return err
	}
	logger.Info("emulator finished", zap.String("state", ctrl.LastState().String()))
	return nil
}

func (c *LaunchCommand) request(ctx context.Context) (emulator.LaunchRequest, error) {
	req := emulator.LaunchRequest{Input: c.input}
	if c.hash != "" {
		rec, err := findCached(ctx, c.env, c.hash)
		if err != nil {
			return req, err
		}
		if rec.ContainerFile != "" {
			req.ContainerPath = c.romPath(rec.ContainerFile)
			req.RomPath = rec.FileName
		} else {
			req.RomPath = c.romPath(rec.FileName)
		}
		return req, nil
	}
	if c.container != "" {
		req.ContainerPath = c.romPath(c.container)
		req.RomPath = c.file
		return req, nil
	}
	req.RomPath = c.romPath(c.file)
	return req, nil
}

func (c *LaunchCommand) romPath(p string) string {
	if filepath.IsAbs(p) || c.env.Config.Paths.Roms == "" {
		return p
	}
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return filepath.Join(c.env.Config.Paths.Roms, p)
}

func (c *LaunchCommand) PostRun(ctx context.Context) error { return nil }

// findCached looks a record up in the cached collection by MD5.
func findCached(ctx context.Context, env *Env, hash string) (model.RomRecord, error) {
	collector := view.NewCollector(nil)
	syncer, err := env.Synchronizer(ctx, collector)
	if err != nil {
		return model.RomRecord{}, err
	}
	if _, err := syncer.LoadCached(ctx); err != nil {
		return model.RomRecord{}, err
	}
	for _, rec := range collector.Records() {
		if strings.EqualFold(rec.ContentHash, hash) {
			return rec, nil
		}
	}
	return model.RomRecord{}, fmt.Errorf("no cached rom with md5 %s", hash)
}

func init() {
	RegisterRunner("launch", func() IRunner { return NewLaunchCommand() })
}
