package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/chargeplan/core/forecast"
	"github.com/kilianp07/chargeplan/core/incentive"
	"github.com/kilianp07/chargeplan/core/model"
	"github.com/kilianp07/chargeplan/core/planner"
	"github.com/kilianp07/chargeplan/infra/logger"
	"github.com/kilianp07/chargeplan/infra/store"
)

var planRequestPath string

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compute a charging plan from a JSON request file",
	RunE:  computePlan,
}

func init() {
	planCmd.Flags().StringVarP(&planRequestPath, "request", "r", "", "plan request JSON file")
	_ = planCmd.MarkFlagRequired("request")
	rootCmd.AddCommand(planCmd)
}

func computePlan(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg, err := loadConfigOrDefault()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	raw, err := os.ReadFile(planRequestPath)
	if err != nil {
		return fmt.Errorf("read request: %w", err)
	}
	var req model.PlanRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}

	// Best effort: train on stored history so the plan can carry
	// demand-based offers. A cold store just skips them.
	handle := forecast.NewHandle(cfg.Forecast, logger.NopLogger{})
	if st, err := store.NewSQLiteStore(cfg.Store.Path); err == nil {
		if history, err := st.History(ctx); err == nil {
			if _, err := handle.Train(ctx, history); err != nil {
				logger.New("plan-command").Warnf("training skipped: %v", err)
			}
		}
		_ = st.Close()
	}

	pl := planner.New(cfg.Planner, incentive.New(cfg.Incentive), &horizonSource{handle: handle}, logger.New("planner"))
	plan, err := pl.Plan(req)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// horizonSource adapts the forecast handle for one-shot commands.
type horizonSource struct {
	handle *forecast.Handle
}

func (s *horizonSource) Forecast(siteID string, start time.Time, hours int) ([]model.DemandForecastPoint, error) {
	hz, err := s.handle.Forecast(siteID, start, hours)
	if err != nil {
		return nil, err
	}
	return hz.Collect(), nil
}
