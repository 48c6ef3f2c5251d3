package tiger

import (
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkt"
)

// PolyLineWKT converts a shapefile polyline to WKT text. Single-part
// lines become LINESTRING, multi-part become MULTILINESTRING, so the
// downstream geometry cache can parse either.
func PolyLineWKT(pl *shp.PolyLine) (string, error) {
	if pl == nil || pl.NumParts == 0 || len(pl.Points) == 0 {
		return "", eris.New("tiger: empty polyline")
	}

	parts := make([][]float64, 0, pl.NumParts)
	for i := int32(0); i < pl.NumParts; i++ {
		start := pl.Parts[i]
		end := int32(len(pl.Points))
		if i+1 < pl.NumParts {
			end = pl.Parts[i+1]
		}
		if end-start < 2 {
			continue
		}
		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, pl.Points[j].X, pl.Points[j].Y)
		}
		parts = append(parts, flat)
	}
	if len(parts) == 0 {
		return "", eris.New("tiger: polyline has no part with two or more points")
	}

	var g geom.T
	if len(parts) == 1 {
		g = geom.NewLineStringFlat(geom.XY, parts[0])
	} else {
		mls := geom.NewMultiLineString(geom.XY)
		for _, flat := range parts {
			if err := mls.Push(geom.NewLineStringFlat(geom.XY, flat)); err != nil {
				return "", eris.Wrap(err, "tiger: assemble multilinestring")
			}
		}
		g = mls
	}

	out, err := wkt.Marshal(g)
	if err != nil {
		return "", eris.Wrap(err, "tiger: encode WKT")
	}
	return out, nil
}
