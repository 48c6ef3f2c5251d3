// Package tiger downloads county-level Census TIGER/Line shapefiles and
// turns them into street segments and block faces. Only the EDGES and
// FACES products are needed: edges carry the street topology and
// geometry, faces carry the census-block linkage.
package tiger

import (
	"fmt"
	"regexp"

	"github.com/rotisserie/eris"
)

// Product describes a county-level TIGER/Line shapefile product.
type Product struct {
	Name  string // directory name on the Census mirrors, e.g. "EDGES"
	Table string // file-name component, e.g. "edges"
}

// Products lists the TIGER/Line products the pipeline consumes.
var Products = []Product{
	{Name: "EDGES", Table: "edges"},
	{Name: "FACES", Table: "faces"},
}

// ProductByName looks up a product by its directory name.
func ProductByName(name string) (Product, bool) {
	for _, p := range Products {
		if p.Name == name {
			return p, true
		}
	}
	return Product{}, false
}

var countyFIPSRe = regexp.MustCompile(`^\d{5}$`)

// ValidateCounty checks that a county code is a 5-digit FIPS code
// (2-digit state + 3-digit county).
func ValidateCounty(county string) error {
	if !countyFIPSRe.MatchString(county) {
		return eris.Errorf("tiger: invalid county FIPS %q (want 5 digits)", county)
	}
	return nil
}

// DownloadURL builds the HTTPS URL for a county product archive, e.g.
// https://www2.census.gov/geo/tiger/TIGER2017/EDGES/tl_2017_08031_edges.zip
func DownloadURL(product Product, year int, county string) string {
	return fmt.Sprintf(
		"https://www2.census.gov/geo/tiger/TIGER%d/%s/tl_%d_%s_%s.zip",
		year, product.Name, year, county, product.Table,
	)
}

// FTPURL builds the anonymous-FTP mirror URL for the same archive.
func FTPURL(product Product, year int, county string) string {
	return fmt.Sprintf(
		"ftp://ftp2.census.gov/geo/tiger/TIGER%d/%s/tl_%d_%s_%s.zip",
		year, product.Name, year, county, product.Table,
	)
}

// ArchiveName returns the local file name for a county product archive.
func ArchiveName(product Product, year int, county string) string {
	return fmt.Sprintf("tl_%d_%s_%s.zip", year, county, product.Table)
}
