package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/chargeplan/core/forecast"
	"github.com/kilianp07/chargeplan/infra/logger"
	"github.com/kilianp07/chargeplan/infra/store"
)

var (
	forecastSite  string
	forecastHours int
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Print the hourly demand forecast for a site",
	RunE:  printForecast,
}

func init() {
	forecastCmd.Flags().StringVarP(&forecastSite, "site", "s", "", "site identifier")
	forecastCmd.Flags().IntVarP(&forecastHours, "hours", "H", 24, "hours ahead")
	_ = forecastCmd.MarkFlagRequired("site")
	rootCmd.AddCommand(forecastCmd)
}

func printForecast(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg, err := loadConfigOrDefault()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = st.Close() }()

	history, err := st.History(ctx)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	handle := forecast.NewHandle(cfg.Forecast, logger.New("forecast"))
	if _, err := handle.Train(ctx, history); err != nil {
		return fmt.Errorf("train: %w", err)
	}

	hz, err := handle.Forecast(forecastSite, time.Now(), forecastHours)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(hz.Collect(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
