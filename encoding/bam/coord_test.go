package bam

import (
	"testing"

	"github.com/grailbio/hts/sam"
	"github.com/stretchr/testify/assert"
)

func TestCoordOrder(t *testing.T) {
	chr1, _ := sam.NewReference("chr1", "", "", 1000, nil, nil)
	chr2, _ := sam.NewReference("chr2", "", "", 1000, nil, nil)
	_, err := sam.NewHeader(nil, []*sam.Reference{chr1, chr2})
	assert.NoError(t, err)

	a := CoordFromRecord(&sam.Record{Ref: chr1, Pos: 10})
	b := CoordFromRecord(&sam.Record{Ref: chr1, Pos: 11})
	c := CoordFromRecord(&sam.Record{Ref: chr2, Pos: 0})
	u := CoordFromRecord(&sam.Record{Ref: nil, Pos: -1})

	assert.True(t, StartOfFile.LT(a))
	assert.True(t, a.LT(b))
	assert.True(t, b.LT(c))
	assert.True(t, c.LT(u))
	assert.False(t, u.LT(c))
	assert.True(t, u.GE(UnmappedStart))
	assert.True(t, a.GE(StartOfFile))
	assert.False(t, u.LT(UnmappedStart))
	assert.Equal(t, "unmapped", u.String())
	assert.Equal(t, "1:0", c.String())
}
