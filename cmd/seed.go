package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/chargeplan/infra/store"
	"github.com/kilianp07/chargeplan/simulator"
)

var (
	seedDays int
	seedSeed int64
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the store with synthetic session history",
	RunE:  seedHistory,
}

func init() {
	seedCmd.Flags().IntVarP(&seedDays, "days", "d", 28, "days of history to generate")
	seedCmd.Flags().Int64Var(&seedSeed, "seed", 42, "random seed")
	rootCmd.AddCommand(seedCmd)
}

func seedHistory(cmd *cobra.Command, args []string) error {
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

	recs := simulator.Generate(simulator.Config{Days: seedDays, Seed: seedSeed}, time.Now())
	if err := st.Insert(ctx, recs); err != nil {
		return fmt.Errorf("insert sessions: %w", err)
	}
	fmt.Printf("seeded %d sessions into %s\n", len(recs), cfg.Store.Path)
	return nil
}
