package dedup

import (
	"github.com/grailbio/base/simd"
	"github.com/grailbio/hts/sam"
)

// q30 is the minimum base quality counted as a Q30 base.
const q30 = 30

// BaseCounts accumulates base counts across records.
type BaseCounts struct {
	// Total is the number of bases seen.
	Total uint64
	// Q30 is the number of bases with quality >= 30.
	Q30 uint64
}

// Score returns the sum of the record's base qualities.  If acc is non-nil,
// the record's bases are also added to acc.  A record without qualities
// (0xff fill) scores 0.
func Score(r *sam.Record, acc *BaseCounts) int {
	if acc != nil {
		acc.Total += uint64(len(r.Qual))
	}
	if len(r.Qual) == 0 || r.Qual[0] == 0xff {
		return 0
	}
	if acc != nil {
		for _, q := range r.Qual {
			if q >= q30 {
				acc.Q30++
			}
		}
	}
	return simd.Accumulate8(r.Qual)
}
