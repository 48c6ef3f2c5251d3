// Package report reads and writes the pipeline's CSV surfaces: MAF
// address extracts in, resolved matches and walk decisions out.
package report

import (
	"context"
	"io"
	"sort"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/civic-analytics/streetmatch/internal/fetcher"
	"github.com/civic-analytics/streetmatch/internal/model"
)

// WriteMatches emits the resolved address-to-segment mapping as CSV.
func WriteMatches(w io.Writer, matches []model.ResolvedMatch) error {
	data, err := csvutil.Marshal(matches)
	if err != nil {
		return eris.Wrap(err, "report: marshal matches")
	}
	if _, err := w.Write(data); err != nil {
		return eris.Wrap(err, "report: write matches")
	}
	return nil
}

// DecisionRow is one walk decision in the exported CSV.
type DecisionRow struct {
	TNID     string `csv:"TNID"`
	Decision int    `csv:"DECISION"`
}

// WriteDecisions emits a walk run's per-node decisions sorted by node
// ID so diffs between runs are stable.
func WriteDecisions(w io.Writer, run *model.WalkRun) error {
	rows := make([]DecisionRow, 0, len(run.Decisions))
	for tnid, d := range run.Decisions {
		rows = append(rows, DecisionRow{TNID: tnid, Decision: d})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].TNID < rows[j].TNID })

	data, err := csvutil.Marshal(rows)
	if err != nil {
		return eris.Wrap(err, "report: marshal decisions")
	}
	if _, err := w.Write(data); err != nil {
		return eris.Wrap(err, "report: write decisions")
	}
	return nil
}

// ReadAddresses streams a MAF extract, validating each row. Malformed
// rows are counted and skipped, not fatal; a wrong header is.
func ReadAddresses(ctx context.Context, r io.Reader) ([]model.Address, error) {
	headerCh := make(chan []string, 1)
	rows, errs := fetcher.StreamCSV(ctx, r, fetcher.CSVOptions{
		HasHeader: true,
		HeaderCh:  headerCh,
		TrimSpace: true,
	})

	var (
		cols      map[string]int
		addresses []model.Address
		malformed int
	)
	for row := range rows {
		if cols == nil {
			header := <-headerCh
			cols = make(map[string]int, len(header))
			for i, name := range header {
				cols[name] = i
			}
		}
		addr, err := model.AddressFromRecord(cols, row)
		if err != nil {
			malformed++
			zap.L().Debug("report: skipping malformed address row", zap.Error(err))
			continue
		}
		addresses = append(addresses, addr)
	}
	if err := <-errs; err != nil {
		return nil, eris.Wrap(err, "report: read addresses")
	}
	if len(addresses) == 0 {
		return nil, eris.New("report: no valid address rows")
	}
	if malformed > 0 {
		zap.L().Warn("report: skipped malformed address rows",
			zap.Int("skipped", malformed),
			zap.Int("loaded", len(addresses)),
		)
	}
	return addresses, nil
}
