package cli

import (
	"context"

	"github.com/xxxsen/cen64-launcher/internal/app"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "cen64-launcher",
	Short:         "Scan, browse and launch Nintendo 64 ROMs with CEN64",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Error("exec cmd failed", zap.Error(err))
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.json")
	for _, r := range app.RunnerList() {
		runner := app.MustResolveRunner(r)
		subcmd := &cobra.Command{
			Use:   runner.Name(),
			Short: runner.Desc(),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := LoadConfig(configPath)
				if err != nil {
					return err
				}
				if cfg.Log.File != "" || cfg.Log.Level != "info" {
					logger.Init(cfg.Log.File, cfg.Log.Level, 0, 0, 0, true)
				}
				ctx, cancel := commandContext(cmd)
				defer cancel()

				env := app.NewEnv(cfg)
				defer func() {
					if err := env.Close(); err != nil {
						logutil.GetLogger(ctx).Error("close env failed", zap.Error(err))
					}
				}()
				if err := runner.PreRun(ctx, env); err != nil {
					return err
				}
				if err := runner.Run(ctx); err != nil {
					return err
				}
				if err := runner.PostRun(ctx); err != nil {
					return err
				}
				return nil
			},
		}
		runner.Init(subcmd.Flags())
		rootCmd.AddCommand(subcmd)
	}
}
