package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
)

// ConfigCommand prints settings by their slash key, e.g. Paths/roms.
type ConfigCommand struct {
	env  *Env
	keys []string
}

func (c *ConfigCommand) Name() string { return "config" }

func (c *ConfigCommand) Desc() string {
	return "Print configuration values such as Paths/roms or View/layout"
}

func NewConfigCommand() *ConfigCommand { return &ConfigCommand{} }

func (c *ConfigCommand) Init(f *pflag.FlagSet) {
	f.StringSliceVar(&c.keys, "get", nil, "Keys to print")
}

func (c *ConfigCommand) PreRun(ctx context.Context, env *Env) error {
	c.env = env
	if len(c.keys) == 0 {
		return errors.New("config requires --get")
	}
	return nil
}

func (c *ConfigCommand) Run(ctx context.Context) error {
	for _, key := range c.keys {
		v, err := c.env.Config.Value(key)
		if err != nil {
			return err
		}
		if len(c.keys) == 1 {
			fmt.Fprintln(os.Stdout, v)
			continue
		}
		fmt.Fprintf(os.Stdout, "%s=%s\n", strings.TrimSpace(key), v)
	}
	return nil
}

func (c *ConfigCommand) PostRun(ctx context.Context) error { return nil }

func init() {
	RegisterRunner("config", func() IRunner { return NewConfigCommand() })
}
