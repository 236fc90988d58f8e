package dedup

import (
	"bytes"
	"io"
	"testing"

	"github.com/grailbio/hts/sam"
	"github.com/stretchr/testify/require"
)

var (
	chr1, _   = sam.NewReference("chr1", "", "", 1000, nil, nil)
	chr2, _   = sam.NewReference("chr2", "", "", 2000, nil, nil)
	header, _ = sam.NewHeader(nil, []*sam.Reference{chr1, chr2})

	r1F  = sam.Paired | sam.ProperPair | sam.Read1
	r2R  = sam.Paired | sam.ProperPair | sam.Read2 | sam.Reverse
	s1F  = sam.Paired | sam.Read1 | sam.MateUnmapped
	unpF = sam.Flags(0)
)

func mustCigar(s string) sam.Cigar {
	cigar, err := sam.ParseCigar([]byte(s))
	if err != nil {
		panic(err)
	}
	return cigar
}

// newRecord creates a mapped record whose bases all have quality qual.
func newRecord(name string, ref *sam.Reference, pos int, flags sam.Flags, cigar string,
	mateRef *sam.Reference, matePos int, qual byte) *sam.Record {
	r := sam.GetFromFreePool()
	r.Name = name
	r.Ref = ref
	r.Pos = pos
	r.Flags = flags
	r.Cigar = mustCigar(cigar)
	r.MateRef = mateRef
	r.MatePos = matePos
	r.MapQ = 60
	_, n := r.Cigar.Lengths()
	r.Seq = sam.NewSeq(bytes.Repeat([]byte{'A'}, n))
	r.Qual = bytes.Repeat([]byte{qual}, n)
	return r
}

// newUnmapped creates an unmapped record.  A nil ref makes it unplaced.
func newUnmapped(name string, ref *sam.Reference, pos int, flags sam.Flags) *sam.Record {
	r := sam.GetFromFreePool()
	r.Name = name
	r.Ref = ref
	r.Pos = pos
	r.Flags = flags | sam.Unmapped
	r.MateRef = ref
	r.MatePos = pos
	r.Seq = sam.NewSeq([]byte("ACGTACGTAC"))
	r.Qual = bytes.Repeat([]byte{30}, 10)
	return r
}

func withMC(r *sam.Record, cigar string) *sam.Record {
	aux, err := sam.NewAux(mcTag, cigar)
	if err != nil {
		panic(err)
	}
	r.AuxFields = append(r.AuxFields, aux)
	return r
}

func withTempLen(r *sam.Record, tlen int) *sam.Record {
	r.TempLen = tlen
	return r
}

var mcTag = sam.NewTag("MC")

// readSAMNames parses a SAM stream and returns the record names in order.
func readSAMNames(t *testing.T, in io.Reader) []string {
	reader, err := sam.NewReader(in)
	require.NoError(t, err)
	names := []string{}
	for {
		r, err := reader.Read()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		names = append(names, r.Name)
	}
	return names
}
