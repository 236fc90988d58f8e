package bam

import (
	"fmt"

	"github.com/grailbio/hts/sam"
)

// UnmappedRefID is the RefID of records that have no reference.  Such
// records are stored after all mapped records.
const UnmappedRefID = -1

// Coord is a position in a coordinate-sorted alignment stream.
type Coord struct {
	RefID int
	Pos   int
}

var (
	// StartOfFile addresses the first record of the stream, mapped or not.
	StartOfFile = Coord{RefID: 0, Pos: 0}
	// UnmappedStart addresses the first record without a reference.
	UnmappedStart = Coord{RefID: UnmappedRefID, Pos: 0}
)

// CoordFromRecord returns the coordinate of r.
func CoordFromRecord(r *sam.Record) Coord {
	if r.Ref == nil {
		return Coord{RefID: UnmappedRefID, Pos: r.Pos}
	}
	return Coord{RefID: r.Ref.ID(), Pos: r.Pos}
}

// Unmapped returns true if c addresses the unmapped section.
func (c Coord) Unmapped() bool {
	return c.RefID < 0
}

// LT returns true if c sorts before o.  Unmapped coordinates sort after all
// mapped ones.
func (c Coord) LT(o Coord) bool {
	if c.Unmapped() != o.Unmapped() {
		return !c.Unmapped()
	}
	if c.Unmapped() {
		return false
	}
	if c.RefID != o.RefID {
		return c.RefID < o.RefID
	}
	return c.Pos < o.Pos
}

// GE returns true if c does not sort before o.
func (c Coord) GE(o Coord) bool {
	return !c.LT(o)
}

func (c Coord) String() string {
	if c.Unmapped() {
		return "unmapped"
	}
	return fmt.Sprintf("%d:%d", c.RefID, c.Pos)
}
