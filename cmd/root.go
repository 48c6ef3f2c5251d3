package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/civic-analytics/streetmatch/internal/config"
	"github.com/civic-analytics/streetmatch/internal/store"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "streetmatch",
	Short: "Census address-to-street-segment matching pipeline",
	Long: "Loads TIGER/Line street topology, resolves MAF addresses to street segments\n" +
		"via a block crosswalk and nearest-vertex disambiguation, and walks the street\n" +
		"network to test whether household attributes cluster by street.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// openStore opens the configured backend and migrates it.
func openStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
