package report

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civic-analytics/streetmatch/internal/model"
)

func TestWriteMatches(t *testing.T) {
	var buf bytes.Buffer
	err := WriteMatches(&buf, []model.ResolvedMatch{
		{MAFID: "A1", TLID: "1001", Method: model.MethodSingle},
		{MAFID: "A2", TLID: model.NoMatch, Method: model.MethodNone},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "MAFID,TLID,METHOD", lines[0])
	assert.Equal(t, "A1,1001,single", lines[1])
	assert.Equal(t, "A2,None,none", lines[2])
}

func TestWriteDecisions(t *testing.T) {
	var buf bytes.Buffer
	run := &model.WalkRun{Decisions: map[string]int{"N2": 0, "N1": 1}}
	require.NoError(t, WriteDecisions(&buf, run))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "TNID,DECISION", lines[0])
	assert.Equal(t, "N1,1", lines[1])
	assert.Equal(t, "N2,0", lines[2])
}

func TestReadAddresses(t *testing.T) {
	input := strings.Join([]string{
		"MAFID,LATITUDE,LONGITUDE,MAF_NAME,BLKID",
		"100,39.7392,-104.9903,Main St,080310041001234",
		"101,not-a-number,-104.99,Elm St,080310041001234", // malformed, skipped
		"102,39.7400,-104.9900,Elm St,080310041001235",
	}, "\n")

	addrs, err := ReadAddresses(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, addrs, 2)

	assert.Equal(t, "100", addrs[0].MAFID)
	assert.Equal(t, 39.7392, addrs[0].Latitude)
	assert.Equal(t, "Main St", addrs[0].StreetName)
	assert.Equal(t, "080310041001234", addrs[0].BlockID)
}

func TestReadAddresses_MissingColumns(t *testing.T) {
	input := "MAFID,LATITUDE\n100,39.7\n"
	_, err := ReadAddresses(context.Background(), strings.NewReader(input))
	assert.Error(t, err)
}
