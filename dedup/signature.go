package dedup

import (
	"encoding/binary"
	"fmt"

	farm "github.com/dgryski/go-farm"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	gbam "github.com/grailbio/doopa/encoding/bam"
	"github.com/grailbio/hts/sam"
)

// MateCigarFallback selects how a signature is built when the mate is mapped
// but the record carries no usable MC tag.
type MateCigarFallback int

const (
	// RawAligned builds both the self and the mate key from raw aligned
	// coordinates, ignoring clips on both sides.
	RawAligned MateCigarFallback = iota
	// SelfClipped keeps the self key clip-aware and uses the mate's raw
	// aligned position.
	SelfClipped
)

// ParseMateCigarFallback parses the flag value of a MateCigarFallback.
func ParseMateCigarFallback(name string) (MateCigarFallback, error) {
	switch name {
	case "raw":
		return RawAligned, nil
	case "self-clipped":
		return SelfClipped, nil
	}
	return RawAligned, errors.E(errors.Invalid, fmt.Sprintf("unknown missing-mate-cigar mode %q, want raw or self-clipped", name))
}

func (f MateCigarFallback) String() string {
	if f == SelfClipped {
		return "self-clipped"
	}
	return "raw"
}

// SignatureFlags reports the quality of a signature.
type SignatureFlags uint8

const (
	// MissingMateCigar is set when the mate is mapped but its CIGAR was
	// unavailable, so the MateCigarFallback applied.
	MissingMateCigar SignatureFlags = 1 << iota
	// DegenerateCigar is set when the record's CIGAR has no aligned
	// operation, so its unclipped end is unreliable.
	DegenerateCigar
)

// Signature identifies a physical fragment by the packed position of a
// record and its mate.  Two signatures are the same fragment iff all 128 bits
// are equal.
type Signature struct {
	Self Key
	Mate Key
}

func (s Signature) String() string {
	return s.Self.String() + s.Mate.String()
}

// hash returns a 64-bit hash of s. It is used only to pick a shard of the
// DuplicateIndex, never to compare signatures.
func (s Signature) hash() uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(s.Self))
	binary.LittleEndian.PutUint64(buf[8:], uint64(s.Mate))
	return farm.Hash64(buf[:])
}

// unclippedKey returns the key of r's unclipped span.
func unclippedKey(r *sam.Record) Key {
	start := gbam.UnclippedStart(r)
	return Pack(r.Ref.ID(), start, gbam.UnclippedEnd(r)-start)
}

// SignatureBuilder computes signatures.
type SignatureBuilder struct {
	Fallback MateCigarFallback
}

// Build returns the signature of r.  Build never fails: malformed or
// missing mate CIGARs and all-clip CIGARs are reported in the returned
// flags.
func (b SignatureBuilder) Build(r *sam.Record) (Signature, SignatureFlags) {
	var flags SignatureFlags
	if !gbam.HasAlignedOps(r.Cigar) {
		flags |= DegenerateCigar
	}
	refID := r.Ref.ID()
	if gbam.HasNoMappedMate(r) {
		return Signature{Self: unclippedKey(r)}, flags
	}

	mateCigar, ok, err := gbam.MateCigar(r)
	if err != nil {
		log.Debug.Printf("%v", err)
	}
	if !ok {
		flags |= MissingMateCigar
		var self Key
		if b.Fallback == SelfClipped {
			self = unclippedKey(r)
		} else {
			self = Pack(refID, r.Pos, gbam.AlignedEnd(r.Pos, r.Cigar)-r.Pos)
		}
		return Signature{Self: self, Mate: Pack(r.MateRef.ID(), r.MatePos, 0)}, flags
	}

	mateStart, mateEnd := gbam.UnclippedSpan(r.MatePos, mateCigar)
	mateLen := mateEnd - mateStart
	if mateLen < 0 {
		mateLen = -mateLen
	}
	return Signature{
		Self: unclippedKey(r),
		Mate: Pack(r.MateRef.ID(), mateStart, mateLen),
	}, flags
}
