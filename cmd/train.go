package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/chargeplan/core/forecast"
	"github.com/kilianp07/chargeplan/infra/logger"
	"github.com/kilianp07/chargeplan/infra/store"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the demand model on the stored session history",
	RunE:  trainModel,
}

func init() {
	rootCmd.AddCommand(trainCmd)
}

func trainModel(cmd *cobra.Command, args []string) error {
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
	m, err := handle.Train(ctx, history)
	if err != nil {
		return err
	}
	fmt.Printf("trained on %d sessions across %d sites\n", m.Rows, m.Sites)
	fmt.Printf("train R2 %.3f, test R2 %.3f, MAE %.2f kWh, RMSE %.2f kWh\n",
		m.TrainR2, m.TestR2, m.MAE, m.RMSE)
	return nil
}
