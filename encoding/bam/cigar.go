package bam

import (
	"github.com/grailbio/hts/sam"
	"github.com/pkg/errors"
)

var mcTag = sam.Tag{'M', 'C'}

func isClip(t sam.CigarOpType) bool {
	return t == sam.CigarSoftClipped || t == sam.CigarHardClipped
}

// LeadingClip returns the total length of the soft and hard clips at the head
// of cigar.
func LeadingClip(cigar sam.Cigar) int {
	n := 0
	for _, op := range cigar {
		if !isClip(op.Type()) {
			break
		}
		n += op.Len()
	}
	return n
}

// TrailingClip returns the total length of the soft and hard clips at the tail
// of cigar.
func TrailingClip(cigar sam.Cigar) int {
	n := 0
	for i := len(cigar) - 1; i >= 0; i-- {
		if !isClip(cigar[i].Type()) {
			break
		}
		n += cigar[i].Len()
	}
	return n
}

// HasAlignedOps returns true if cigar contains at least one operation other
// than a clip or padding.  A cigar without aligned operations has no
// meaningful alignment end.
func HasAlignedOps(cigar sam.Cigar) bool {
	for _, op := range cigar {
		switch op.Type() {
		case sam.CigarMatch, sam.CigarInsertion, sam.CigarDeletion, sam.CigarSkipped,
			sam.CigarEqual, sam.CigarMismatch:
			return true
		}
	}
	return false
}

// AlignedEnd returns the exclusive end of an alignment starting at pos with
// the given cigar.
func AlignedEnd(pos int, cigar sam.Cigar) int {
	ref, _ := cigar.Lengths()
	return pos + ref
}

// UnclippedSpan returns the [start, end) span of an alignment at pos,
// extended over its leading and trailing clips.
func UnclippedSpan(pos int, cigar sam.Cigar) (start, end int) {
	return pos - LeadingClip(cigar), AlignedEnd(pos, cigar) + TrailingClip(cigar)
}

// UnclippedStart returns the record's leftmost position, including clipped
// bases.
func UnclippedStart(r *sam.Record) int {
	return r.Pos - LeadingClip(r.Cigar)
}

// UnclippedEnd returns the record's exclusive rightmost position, including
// clipped bases.
func UnclippedEnd(r *sam.Record) int {
	return AlignedEnd(r.Pos, r.Cigar) + TrailingClip(r.Cigar)
}

// MateCigar returns the mate's cigar, parsed from the record's MC:Z tag.  It
// returns false if the tag is absent or holds "*".  A tag that is present but
// malformed yields an error.
func MateCigar(r *sam.Record) (sam.Cigar, bool, error) {
	aux := r.AuxFields.Get(mcTag)
	if aux == nil {
		return nil, false, nil
	}
	s, ok := aux.Value().(string)
	if !ok {
		return nil, false, errors.Errorf("MC tag of %s is not a string: %v", r.Name, aux)
	}
	cigar, err := sam.ParseCigar([]byte(s))
	if err != nil {
		return nil, false, errors.Wrapf(err, "parse MC tag %q of %s", s, r.Name)
	}
	if len(cigar) == 0 {
		return nil, false, nil
	}
	return cigar, true, nil
}
