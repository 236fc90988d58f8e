package dedup

import (
	gbam "github.com/grailbio/doopa/encoding/bam"
	"github.com/grailbio/hts/sam"
)

// minFragmentMapQ is the mapping quality a proper pair must exceed for its
// insert size to enter the fragment histogram.
const minFragmentMapQ = 30

// Category is the role a record plays in deduplication.  Both passes decide
// what to do with a record from its Category alone.
type Category uint8

const (
	// PassThrough records are unmapped.  They are never deduplicated and are
	// always written.  This includes records placed at their mate's position,
	// which have a reference but carry the Unmapped flag.
	PassThrough Category = iota
	// Excluded records are secondary, supplementary or QC-failed.  They are
	// neither dedup candidates nor written.
	Excluded
	// Dedupable records compete for their signature.
	Dedupable
	// DedupableFragment records are Dedupable, and their insert size is
	// added to the fragment histogram.
	DedupableFragment
)

var categoryNames = [...]string{"passthrough", "excluded", "dedupable", "dedupable-fragment"}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "invalid"
}

// Dedupable returns true for Dedupable and DedupableFragment.
func (c Category) Dedupable() bool {
	return c == Dedupable || c == DedupableFragment
}

// Categorize returns the Category of r.
func Categorize(r *sam.Record) Category {
	switch {
	case gbam.IsUnmapped(r):
		return PassThrough
	case gbam.IsSecondaryOrSupplementary(r), gbam.IsQCFailed(r):
		return Excluded
	case gbam.IsProperPair(r) && r.TempLen > 0 && r.MapQ > minFragmentMapQ:
		return DedupableFragment
	}
	return Dedupable
}
