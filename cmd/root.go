// Package cmd defines the chargeplan command line interface.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/chargeplan/app"
	"github.com/kilianp07/chargeplan/config"
	"github.com/kilianp07/chargeplan/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "chargeplan",
	Short: "Trip-aware EV charging plan service",
	RunE:  run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return svc.Run(ctx)
}

// loadConfigOrDefault loads the configured file, falling back to defaults
// when the file does not exist so one-shot commands work out of the box.
func loadConfigOrDefault() (*config.Config, error) {
	if _, err := os.Stat(cfgPath); err != nil {
		if os.IsNotExist(err) {
			return config.Default(), nil
		}
		return nil, err
	}
	return config.Load(cfgPath)
}
