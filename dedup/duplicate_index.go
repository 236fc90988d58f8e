package dedup

// numIndexShards is the number of maps a DuplicateIndex spreads its entries
// over.  It must be a power of two.
const numIndexShards = 64

// Entry is the winning occurrence of a signature.
type Entry struct {
	// Ordinal is the record's position in the input, counting from zero.
	Ordinal uint64
	// QualSum is the record's base quality score.
	QualSum int
}

// DuplicateIndex maps each signature to its winning occurrence: the one
// with the highest quality sum, the earliest one among ties.  Signatures
// are compared by value.  The farmhash of a signature only selects the
// shard that holds it.
//
// DuplicateIndex is not thread-safe.
type DuplicateIndex struct {
	shards [numIndexShards]map[Signature]Entry
	n      int
}

// NewDuplicateIndex creates an empty index.
func NewDuplicateIndex() *DuplicateIndex {
	idx := &DuplicateIndex{}
	for i := range idx.shards {
		idx.shards[i] = make(map[Signature]Entry)
	}
	return idx
}

func (idx *DuplicateIndex) shard(sig Signature) map[Signature]Entry {
	return idx.shards[sig.hash()&(numIndexShards-1)]
}

// Insert records an occurrence of sig.  It returns false if sig was not in
// the index.  Otherwise the stored entry is replaced iff qualSum is strictly
// greater, and Insert returns true.
func (idx *DuplicateIndex) Insert(sig Signature, ordinal uint64, qualSum int) bool {
	m := idx.shard(sig)
	e, ok := m[sig]
	if !ok {
		m[sig] = Entry{Ordinal: ordinal, QualSum: qualSum}
		idx.n++
		return false
	}
	if qualSum > e.QualSum {
		m[sig] = Entry{Ordinal: ordinal, QualSum: qualSum}
	}
	return true
}

// Winner returns the winning occurrence of sig.
func (idx *DuplicateIndex) Winner(sig Signature) (Entry, bool) {
	e, ok := idx.shard(sig)[sig]
	return e, ok
}

// Len returns the number of distinct signatures.
func (idx *DuplicateIndex) Len() int { return idx.n }

// Equal returns true if both indexes hold the same winners.
func (idx *DuplicateIndex) Equal(other *DuplicateIndex) bool {
	if idx.n != other.n {
		return false
	}
	for i, m := range idx.shards {
		o := other.shards[i]
		for sig, e := range m {
			if oe, ok := o[sig]; !ok || oe != e {
				return false
			}
		}
	}
	return true
}
