package report

import (
	"context"
	"encoding/csv"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/civic-analytics/streetmatch/internal/fetcher"
	"github.com/civic-analytics/streetmatch/internal/model"
)

// ReadAttributes loads a per-segment attribute CSV. The first column
// must be TLID; an optional FULLNAME column carries the street name;
// every remaining column is parsed as one numeric attribute dimension.
// A value that fails to parse leaves a NaN-free vector by erroring out:
// attribute files are small and curated, so unlike address extracts a
// bad row is treated as a broken file.
func ReadAttributes(ctx context.Context, r io.Reader) (map[string]model.Attributes, error) {
	headerCh := make(chan []string, 1)
	rows, errs := fetcher.StreamCSV(ctx, r, fetcher.CSVOptions{
		HasHeader: true,
		HeaderCh:  headerCh,
		TrimSpace: true,
	})

	var (
		header   []string
		nameCol  = -1
		valueIdx []int
		out      = make(map[string]model.Attributes)
	)
	for row := range rows {
		if header == nil {
			header = <-headerCh
			if len(header) < 2 || !strings.EqualFold(header[0], "TLID") {
				return nil, eris.New("report: attribute header must start with TLID and carry at least one value column")
			}
			for i := 1; i < len(header); i++ {
				if strings.EqualFold(header[i], "FULLNAME") {
					nameCol = i
					continue
				}
				valueIdx = append(valueIdx, i)
			}
			if len(valueIdx) == 0 {
				return nil, eris.New("report: attribute file has no value columns")
			}
		}
		if len(row) != len(header) {
			return nil, eris.Errorf("report: attribute row for %q has %d fields, header has %d", row[0], len(row), len(header))
		}

		attr := model.Attributes{TLID: row[0], Values: make([]float64, 0, len(valueIdx))}
		if nameCol >= 0 {
			attr.FullName = row[nameCol]
		}
		for _, i := range valueIdx {
			v, err := strconv.ParseFloat(row[i], 64)
			if err != nil {
				return nil, eris.Wrapf(err, "report: attribute %s column %s", row[0], header[i])
			}
			attr.Values = append(attr.Values, v)
		}
		out[attr.TLID] = attr
	}
	if err := <-errs; err != nil {
		return nil, eris.Wrap(err, "report: read attributes")
	}
	if len(out) == 0 {
		return nil, eris.New("report: no attribute rows")
	}
	return out, nil
}

// WriteAttributes emits attribute vectors with generated column names
// (V1..Vn), suitable for round-tripping through ReadAttributes.
func WriteAttributes(w io.Writer, attrs map[string]model.Attributes) error {
	var dim int
	tlids := make([]string, 0, len(attrs))
	for tlid, a := range attrs {
		tlids = append(tlids, tlid)
		if len(a.Values) > dim {
			dim = len(a.Values)
		}
	}
	if dim == 0 {
		return eris.New("report: no attribute values to write")
	}
	sort.Strings(tlids)

	header := []string{"TLID", "FULLNAME"}
	for i := 1; i <= dim; i++ {
		header = append(header, "V"+strconv.Itoa(i))
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "report: write attribute header")
	}
	for _, tlid := range tlids {
		a := attrs[tlid]
		fields := []string{a.TLID, a.FullName}
		for _, v := range a.Values {
			fields = append(fields, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := cw.Write(fields); err != nil {
			return eris.Wrapf(err, "report: write attributes for %s", tlid)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "report: flush attributes")
}

// ReadValues loads a per-address value CSV (MAFID,VALUE) for the
// permutation test.
func ReadValues(ctx context.Context, r io.Reader) (map[string]float64, error) {
	headerCh := make(chan []string, 1)
	rows, errs := fetcher.StreamCSV(ctx, r, fetcher.CSVOptions{
		HasHeader: true,
		HeaderCh:  headerCh,
		TrimSpace: true,
	})

	var (
		cols map[string]int
		out  = make(map[string]float64)
	)
	for row := range rows {
		if cols == nil {
			header := <-headerCh
			cols = make(map[string]int, len(header))
			for i, name := range header {
				cols[strings.ToUpper(name)] = i
			}
			if _, ok := cols["MAFID"]; !ok {
				return nil, eris.New("report: value file missing MAFID column")
			}
			if _, ok := cols["VALUE"]; !ok {
				return nil, eris.New("report: value file missing VALUE column")
			}
		}
		mafid := row[cols["MAFID"]]
		v, err := strconv.ParseFloat(row[cols["VALUE"]], 64)
		if err != nil {
			return nil, eris.Wrapf(err, "report: value for %s", mafid)
		}
		out[mafid] = v
	}
	if err := <-errs; err != nil {
		return nil, eris.Wrap(err, "report: read values")
	}
	if len(out) == 0 {
		return nil, eris.New("report: no value rows")
	}
	return out, nil
}
