package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/chargeplan/core/model"
	"github.com/kilianp07/chargeplan/core/planner"
	"github.com/kilianp07/chargeplan/infra/store"
)

var (
	completeSession string
	completeEnergy  float64
)

var completeCmd = &cobra.Command{
	Use:   "complete",
	Short: "Mark a session completed and recompute its final cost",
	RunE:  completeSessionRun,
}

func init() {
	completeCmd.Flags().StringVarP(&completeSession, "session", "s", "", "session identifier")
	completeCmd.Flags().Float64VarP(&completeEnergy, "energy", "e", 0, "energy actually delivered in kWh")
	_ = completeCmd.MarkFlagRequired("session")
	_ = completeCmd.MarkFlagRequired("energy")
	rootCmd.AddCommand(completeCmd)
}

func completeSessionRun(cmd *cobra.Command, args []string) error {
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

	_, plan, err := st.Session(ctx, completeSession)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	// The largest accepted discount applies to the final price.
	var discountPct float64
	for _, offer := range plan.Offers {
		if offer.Type == model.OfferDiscount && offer.Value > discountPct {
			discountPct = offer.Value
		}
	}
	finalCost := planner.CompletionCost(plan.PlannedCost, completeEnergy, plan.ExtraEnergyKWh, discountPct)
	if err := st.Complete(ctx, completeSession, completeEnergy, finalCost); err != nil {
		return err
	}
	fmt.Printf("session %s completed: %.2f kWh delivered, final cost %.2f\n",
		completeSession, completeEnergy, finalCost)
	return nil
}
