package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/civic-analytics/streetmatch/internal/graph"
	"github.com/civic-analytics/streetmatch/internal/model"
	"github.com/civic-analytics/streetmatch/internal/report"
	"github.com/civic-analytics/streetmatch/internal/walk"
)

var walkCmd = &cobra.Command{
	Use:   "walk",
	Short: "Run the similarity-guided walk over the street network",
	Long: `Builds the intersection graph from loaded segments and walks it, at each
node continuing onto the most similar remaining segment by attribute distance.
The per-node same-street decisions are persisted as a walk run for later
permutation testing.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		attrsFile, _ := cmd.Flags().GetString("attrs")
		if attrsFile == "" {
			return eris.New("walk: --attrs is required")
		}
		metricStr, _ := cmd.Flags().GetString("metric")
		if metricStr == "" {
			metricStr = cfg.Walk.Metric
		}
		metric, err := walk.ParseMetric(metricStr)
		if err != nil {
			return err
		}
		seed, _ := cmd.Flags().GetInt64("seed")
		if !cmd.Flags().Changed("seed") {
			seed = cfg.Walk.Seed
		}
		out, _ := cmd.Flags().GetString("out")

		f, err := os.Open(attrsFile)
		if err != nil {
			return eris.Wrap(err, "walk: open attribute file")
		}
		defer f.Close() //nolint:errcheck

		attrs, err := report.ReadAttributes(ctx, f)
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		segments, err := st.ListSegments(ctx, true)
		if err != nil {
			return eris.Wrap(err, "walk: load segments")
		}
		if len(segments) == 0 {
			return eris.New("walk: no road segments loaded; run tigerload first")
		}

		net := graph.Build(segments)
		result, err := walk.Run(net, attrs, walk.Options{Metric: metric, Seed: seed})
		if err != nil {
			return err
		}

		run := &model.WalkRun{
			Metric:    string(metric),
			Seed:      seed,
			Restarts:  result.Restarts,
			Segments:  result.Segments,
			Decisions: result.Decisions,
		}
		if err := st.CreateWalkRun(ctx, run); err != nil {
			return eris.Wrap(err, "walk: save run")
		}

		if out != "" {
			of, err := os.Create(out)
			if err != nil {
				return eris.Wrap(err, "walk: create output file")
			}
			defer of.Close() //nolint:errcheck
			if err := report.WriteDecisions(of, run); err != nil {
				return err
			}
		}

		same := 0
		for _, d := range run.Decisions {
			same += d
		}

		format, _ := cmd.Flags().GetString("format")
		switch format {
		case "yaml":
			summary := struct {
				ID         string `yaml:"id"`
				Metric     string `yaml:"metric"`
				Seed       int64  `yaml:"seed"`
				Segments   int    `yaml:"segments"`
				Restarts   int    `yaml:"restarts"`
				Decisions  int    `yaml:"decisions"`
				SameStreet int    `yaml:"same_street"`
			}{run.ID, run.Metric, run.Seed, run.Segments, run.Restarts, len(run.Decisions), same}
			data, err := yaml.Marshal(summary)
			if err != nil {
				return eris.Wrap(err, "walk: marshal summary")
			}
			fmt.Print(string(data))
		case "text", "":
			fmt.Printf("Walk %s traversed %d segments with %d restarts; %d/%d same-street decisions\n",
				run.ID, run.Segments, run.Restarts, same, len(run.Decisions))
		default:
			return eris.Errorf("walk: unknown format %q", format)
		}
		return nil
	},
}

func init() {
	walkCmd.Flags().String("attrs", "", "per-segment attribute CSV (required)")
	walkCmd.Flags().String("metric", "", "distance metric: euclidean or mahalanobis (default: from config)")
	walkCmd.Flags().Int64("seed", 0, "restart RNG seed (default: from config)")
	walkCmd.Flags().String("out", "", "also write per-node decisions to this CSV file")
	walkCmd.Flags().String("format", "text", "run summary format: text or yaml")
	rootCmd.AddCommand(walkCmd)
}
