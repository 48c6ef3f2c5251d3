package main

import (
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/civic-analytics/streetmatch/internal/report"
	"github.com/civic-analytics/streetmatch/internal/synth"
)

var synthCmd = &cobra.Command{
	Use:   "synth",
	Short: "Generate synthetic attributes and addresses from loaded segments",
	Long: `Draws a standard-normal attribute vector per loaded segment and fabricates
addresses on segment geometry, so the full pipeline can be exercised without
Census microdata. Attributes go to a CSV file; addresses go straight into
the store.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		attrsOut, _ := cmd.Flags().GetString("attrs-out")
		dim, _ := cmd.Flags().GetInt("dim")
		perSegment, _ := cmd.Flags().GetInt("addresses-per-segment")
		seed, _ := cmd.Flags().GetInt64("seed")

		var rng *rand.Rand
		if cmd.Flags().Changed("seed") {
			rng = rand.New(rand.NewPCG(uint64(seed), uint64(seed)+1))
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		segments, err := st.ListSegments(ctx, true)
		if err != nil {
			return eris.Wrap(err, "synth: load segments")
		}
		if len(segments) == 0 {
			return eris.New("synth: no road segments loaded; run tigerload first")
		}
		faces, err := st.ListFaces(ctx)
		if err != nil {
			return eris.Wrap(err, "synth: load faces")
		}

		if attrsOut != "" {
			attrs, err := synth.Attributes(segments, dim, rng)
			if err != nil {
				return err
			}
			f, err := os.Create(attrsOut)
			if err != nil {
				return eris.Wrap(err, "synth: create attribute file")
			}
			defer f.Close() //nolint:errcheck
			if err := report.WriteAttributes(f, attrs); err != nil {
				return err
			}
			fmt.Printf("Wrote %d attribute vectors to %s\n", len(attrs), attrsOut)
		}

		if perSegment > 0 {
			addresses, err := synth.Addresses(segments, faces, perSegment, rng)
			if err != nil {
				return err
			}
			if err := st.InsertAddresses(ctx, addresses); err != nil {
				return eris.Wrap(err, "synth: store addresses")
			}
			fmt.Printf("Generated %d synthetic addresses\n", len(addresses))
		}

		if attrsOut == "" && perSegment <= 0 {
			return eris.New("synth: nothing to do; pass --attrs-out and/or --addresses-per-segment")
		}
		return nil
	},
}

func init() {
	synthCmd.Flags().String("attrs-out", "", "write per-segment attribute vectors to this CSV file")
	synthCmd.Flags().Int("dim", 3, "attribute vector dimension")
	synthCmd.Flags().Int("addresses-per-segment", 0, "synthetic addresses to place on each segment")
	synthCmd.Flags().Int64("seed", 0, "RNG seed for reproducible generation")
	rootCmd.AddCommand(synthCmd)
}
