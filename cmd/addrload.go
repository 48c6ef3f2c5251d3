package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/civic-analytics/streetmatch/internal/report"
)

var addrloadCmd = &cobra.Command{
	Use:   "addrload",
	Short: "Load a MAF address extract into the store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		file, _ := cmd.Flags().GetString("file")
		if file == "" {
			return eris.New("addrload: --file is required")
		}

		f, err := os.Open(file)
		if err != nil {
			return eris.Wrap(err, "addrload: open extract")
		}
		defer f.Close() //nolint:errcheck

		addresses, err := report.ReadAddresses(ctx, f)
		if err != nil {
			return eris.Wrap(err, "addrload")
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.InsertAddresses(ctx, addresses); err != nil {
			return eris.Wrap(err, "addrload: store addresses")
		}

		fmt.Printf("Loaded %d addresses\n", len(addresses))
		return nil
	},
}

func init() {
	addrloadCmd.Flags().String("file", "", "path to the address extract CSV (required)")
	rootCmd.AddCommand(addrloadCmd)
}
