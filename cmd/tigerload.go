package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/civic-analytics/streetmatch/internal/fetcher"
	"github.com/civic-analytics/streetmatch/internal/tiger"
)

var tigerloadCmd = &cobra.Command{
	Use:   "tigerload",
	Short: "Download and ingest TIGER/Line county shapefiles",
	Long: `Downloads the EDGES and FACES products for the given counties from the
Census Bureau mirrors and loads street segments and block faces into the store.
Required before the crosswalk and matching steps.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		countiesStr, _ := cmd.Flags().GetString("counties")
		year, _ := cmd.Flags().GetInt("year")
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		useFTP, _ := cmd.Flags().GetBool("ftp")

		opts := tiger.LoadOptions{
			Year:        year,
			TempDir:     cfg.Tiger.TempDir,
			Concurrency: concurrency,
		}
		if countiesStr != "" {
			opts.Counties = tiger.CountiesFromList(countiesStr)
		} else {
			opts.Counties = cfg.Tiger.Counties
		}
		if opts.Year == 0 {
			opts.Year = cfg.Tiger.Year
		}
		if opts.Concurrency == 0 {
			opts.Concurrency = cfg.Tiger.Concurrency
		}

		httpFetcher := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			RequestsPerSec: cfg.Tiger.RequestsPerSec,
		})
		var ftpFetcher fetcher.Fetcher
		if useFTP || cfg.Tiger.UseFTP {
			ftpFetcher = fetcher.NewFTPFetcher(fetcher.FTPOptions{})
		}
		dl := tiger.NewDownloader(httpFetcher, ftpFetcher)

		zap.L().Info("starting TIGER ingest",
			zap.Int("year", opts.Year),
			zap.Strings("counties", opts.Counties),
			zap.Int("concurrency", opts.Concurrency),
		)

		result, err := tiger.Load(ctx, st, dl, opts)
		if err != nil {
			return eris.Wrap(err, "tigerload")
		}

		fmt.Printf("Loaded %d segments and %d faces from %d counties in %s\n",
			result.Segments, result.Faces, result.Counties, result.Duration.Round(time.Second))
		return nil
	},
}

func init() {
	tigerloadCmd.Flags().String("counties", "", "comma-separated 5-digit county FIPS codes (default: from config)")
	tigerloadCmd.Flags().Int("year", 0, "TIGER/Line year (default: from config or 2017)")
	tigerloadCmd.Flags().Int("concurrency", 0, "parallel county downloads (default: from config or 3)")
	tigerloadCmd.Flags().Bool("ftp", false, "fall back to the FTP mirror when HTTP fails")
	rootCmd.AddCommand(tigerloadCmd)
}
