package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addressCols() map[string]int {
	return map[string]int{
		"MAFID": 0, "LATITUDE": 1, "LONGITUDE": 2, "MAF_NAME": 3, "BLKID": 4,
	}
}

func TestAddressFromRecord(t *testing.T) {
	a, err := AddressFromRecord(addressCols(),
		[]string{"101", "39.7392", "-104.9903", "E Colfax Ave", "080310041002003"})
	require.NoError(t, err)

	assert.Equal(t, "101", a.MAFID)
	assert.InDelta(t, 39.7392, a.Latitude, 1e-9)
	assert.InDelta(t, -104.9903, a.Longitude, 1e-9)
	assert.Equal(t, "E Colfax Ave", a.StreetName)
	assert.Equal(t, "080310041002003", a.BlockID)
}

func TestAddressFromRecord_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		record []string
	}{
		{"empty mafid", []string{"", "39.7", "-104.9", "Main St", "blk"}},
		{"bad latitude", []string{"1", "not-a-float", "-104.9", "Main St", "blk"}},
		{"bad longitude", []string{"1", "39.7", "", "Main St", "blk"}},
		{"short record", []string{"1", "39.7"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AddressFromRecord(addressCols(), tt.record)
			assert.Error(t, err)
		})
	}
}

func TestSegmentIsRoad(t *testing.T) {
	assert.True(t, Segment{RoadFlag: "Y"}.IsRoad())
	assert.True(t, Segment{RoadFlag: " Y "}.IsRoad())
	assert.False(t, Segment{RoadFlag: "N"}.IsRoad())
	assert.False(t, Segment{}.IsRoad())
}

func TestBlockIDFromParts(t *testing.T) {
	assert.Equal(t, "080310041002003", BlockIDFromParts("08", "031", "004100", "2003"))
}

func TestParseCandidateList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"[1234, 5678]", []string{"1234", "5678"}},
		{"['1234']", []string{"1234"}},
		{"[]", nil},
		{"[ ]", nil},
		{"[1234,,5678]", []string{"1234", "5678"}},
		{"", nil},
	}
	for _, tt := range tests {
		got := ParseCandidateList(tt.in)
		if tt.want == nil {
			assert.Empty(t, got, "input %q", tt.in)
		} else {
			assert.Equal(t, tt.want, got, "input %q", tt.in)
		}
	}
}

func TestCleanCandidates(t *testing.T) {
	got := CleanCandidates([]string{" 1 ", "", "2", "   "})
	assert.Equal(t, []string{"1", "2"}, got)
}
