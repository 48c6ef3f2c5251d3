// Package model defines the typed records shared across the matching
// pipeline: MAF address points, TIGER street segments, and the candidate
// sets that link them. Rows are validated once at ingestion; everything
// downstream can assume well-formed values.
package model

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Address is a single MAF household record. Immutable once loaded.
type Address struct {
	MAFID      string  `json:"mafid" csv:"MAFID"`
	Latitude   float64 `json:"latitude" csv:"LATITUDE"`
	Longitude  float64 `json:"longitude" csv:"LONGITUDE"`
	StreetName string  `json:"street_name" csv:"MAF_NAME"`
	BlockID    string  `json:"block_id" csv:"BLKID"`
}

// Point returns the address location as (lat, lon).
func (a Address) Point() [2]float64 {
	return [2]float64{a.Latitude, a.Longitude}
}

// AddressFromRecord builds an Address from a CSV record using a
// header-name → column-index map. Malformed rows are rejected here so the
// matching core never sees ambiguous values.
func AddressFromRecord(cols map[string]int, record []string) (Address, error) {
	get := func(name string) (string, error) {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return "", eris.Errorf("model: address record missing column %q", name)
		}
		return strings.TrimSpace(record[idx]), nil
	}

	var a Address
	var err error
	if a.MAFID, err = get("MAFID"); err != nil {
		return Address{}, err
	}
	if a.MAFID == "" {
		return Address{}, eris.New("model: address record has empty MAFID")
	}
	if a.StreetName, err = get("MAF_NAME"); err != nil {
		return Address{}, err
	}
	if a.BlockID, err = get("BLKID"); err != nil {
		return Address{}, err
	}

	latStr, err := get("LATITUDE")
	if err != nil {
		return Address{}, err
	}
	lonStr, err := get("LONGITUDE")
	if err != nil {
		return Address{}, err
	}
	if a.Latitude, err = strconv.ParseFloat(latStr, 64); err != nil {
		return Address{}, eris.Wrapf(err, "model: address %s: parse latitude %q", a.MAFID, latStr)
	}
	if a.Longitude, err = strconv.ParseFloat(lonStr, 64); err != nil {
		return Address{}, eris.Wrapf(err, "model: address %s: parse longitude %q", a.MAFID, lonStr)
	}

	return a, nil
}
