package bamprovider_test

import (
	"bytes"
	"io"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/grailbio/base/errors"
	gbam "github.com/grailbio/doopa/encoding/bam"
	"github.com/grailbio/doopa/encoding/bamprovider"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	chr1, _   = sam.NewReference("chr1", "", "", 100000, nil, nil)
	chr2, _   = sam.NewReference("chr2", "", "", 100000, nil, nil)
	header, _ = sam.NewHeader(nil, []*sam.Reference{chr1, chr2})
)

func newRecord(t *testing.T, name string, ref *sam.Reference, pos int, flags sam.Flags) *sam.Record {
	const seq = "ACGTACGTAC"
	var cigar []sam.CigarOp
	if ref != nil {
		cigar = []sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, len(seq))}
	}
	qual := bytes.Repeat([]byte{30}, len(seq))
	r, err := sam.NewRecord(name, ref, nil, pos, -1, 0, 60, cigar, []byte(seq), qual, nil)
	require.NoError(t, err)
	r.Flags = flags
	return r
}

func testRecords(t *testing.T) []*sam.Record {
	return []*sam.Record{
		newRecord(t, "a", chr1, 100, 0),
		newRecord(t, "b", chr1, 200, 0),
		newRecord(t, "c", chr1, 50000, 0),
		newRecord(t, "d", chr2, 10, 0),
		newRecord(t, "e", chr2, 99000, 0),
		newRecord(t, "u1", nil, -1, sam.Unmapped),
		newRecord(t, "u2", nil, -1, sam.Unmapped),
	}
}

func readNames(t *testing.T, p bamprovider.Provider, start gbam.Coord) []string {
	iter := p.NewIterator(start)
	names := []string{}
	for iter.Scan() {
		names = append(names, iter.Record().Name)
	}
	require.NoError(t, iter.Err())
	require.NoError(t, iter.Close())
	return names
}

func writeTestBAM(t *testing.T, dir string) string {
	path := filepath.Join(dir, "test.bam")
	require.NoError(t, bamprovider.WriteIndexedBAM(path, header, testRecords(t)))
	return path
}

func TestBAMProviderIterate(t *testing.T) {
	tmpDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	path := writeTestBAM(t, tmpDir)

	p, err := bamprovider.NewProvider(path, bamprovider.ProviderOpts{Parallelism: 2})
	require.NoError(t, err)
	h, err := p.GetHeader()
	require.NoError(t, err)
	assert.Equal(t, 2, len(h.Refs()))

	all := []string{"a", "b", "c", "d", "e", "u1", "u2"}
	// Each iterator is independent and restarts from the beginning.
	for i := 0; i < 3; i++ {
		assert.Equal(t, all, readNames(t, p, gbam.StartOfFile))
	}
	assert.Equal(t, []string{"b", "c", "d", "e", "u1", "u2"}, readNames(t, p, gbam.Coord{RefID: 0, Pos: 150}))
	assert.Equal(t, []string{"d", "e", "u1", "u2"}, readNames(t, p, gbam.Coord{RefID: 1, Pos: 0}))
	assert.Equal(t, []string{"u1", "u2"}, readNames(t, p, gbam.Coord{RefID: 1, Pos: 99500}))
	assert.Equal(t, []string{"u1", "u2"}, readNames(t, p, gbam.UnmappedStart))
	require.NoError(t, p.Close())
}

func TestBAMProviderExplicitIndex(t *testing.T) {
	tmpDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	path := writeTestBAM(t, tmpDir)

	index, err := ioutil.ReadFile(path + ".bai")
	require.NoError(t, err)
	indexPath := filepath.Join(tmpDir, "other.bai")
	require.NoError(t, ioutil.WriteFile(indexPath, index, 0600))

	p, err := bamprovider.NewProvider(path, bamprovider.ProviderOpts{Index: indexPath})
	require.NoError(t, err)
	assert.Equal(t, 7, len(readNames(t, p, gbam.StartOfFile)))
	require.NoError(t, p.Close())
}

func TestBAMProviderErrors(t *testing.T) {
	tmpDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	_, err := bamprovider.NewProvider(filepath.Join(tmpDir, "missing.bam"))
	assert.Error(t, err)

	// Not a BAM file.
	textPath := filepath.Join(tmpDir, "text.bam")
	require.NoError(t, ioutil.WriteFile(textPath, []byte("@HD\tVN:1.0\n"), 0600))
	_, err = bamprovider.NewProvider(textPath)
	require.Error(t, err)
	assert.True(t, errors.Is(errors.NotSupported, err), "%v", err)

	// Valid BAM, missing index.
	path := writeTestBAM(t, tmpDir)
	_, err = bamprovider.NewProvider(path, bamprovider.ProviderOpts{Index: filepath.Join(tmpDir, "none.bai")})
	require.Error(t, err)
	assert.True(t, errors.Is(errors.Integrity, err), "%v", err)

	// Corrupt index.
	badIndex := filepath.Join(tmpDir, "bad.bai")
	require.NoError(t, ioutil.WriteFile(badIndex, []byte("not an index"), 0600))
	_, err = bamprovider.NewProvider(path, bamprovider.ProviderOpts{Index: badIndex})
	require.Error(t, err)
	assert.True(t, errors.Is(errors.Integrity, err), "%v", err)
}

func TestFakeProvider(t *testing.T) {
	recs := testRecords(t)
	p := bamprovider.NewFakeProvider(header, recs)
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "u1", "u2"}, readNames(t, p, gbam.StartOfFile))
	assert.Equal(t, []string{"u1", "u2"}, readNames(t, p, gbam.UnmappedStart))

	// Records handed out are copies.
	iter := p.NewIterator(gbam.StartOfFile)
	require.True(t, iter.Scan())
	iter.Record().Name = "changed"
	require.NoError(t, iter.Close())
	assert.Equal(t, "a", recs[0].Name)
	assert.NoError(t, p.Close())
}

func TestWriter(t *testing.T) {
	recs := testRecords(t)
	for _, format := range []bamprovider.FileType{bamprovider.SAM, bamprovider.BAM} {
		var buf bytes.Buffer
		w, err := bamprovider.NewWriter(&buf, header, bamprovider.WriterOpts{Format: format, Parallelism: 2})
		require.NoError(t, err)
		for _, r := range recs {
			require.NoError(t, w.Write(r))
		}
		require.NoError(t, w.Close())

		var names []string
		switch format {
		case bamprovider.SAM:
			r, err := sam.NewReader(&buf)
			require.NoError(t, err)
			assert.Equal(t, 2, len(r.Header().Refs()))
			for {
				rec, err := r.Read()
				if err == io.EOF {
					break
				}
				require.NoError(t, err)
				names = append(names, rec.Name)
			}
		case bamprovider.BAM:
			r, err := bam.NewReader(&buf, 1)
			require.NoError(t, err)
			for {
				rec, err := r.Read()
				if err == io.EOF {
					break
				}
				require.NoError(t, err)
				names = append(names, rec.Name)
			}
			require.NoError(t, r.Close())
		}
		assert.Equal(t, []string{"a", "b", "c", "d", "e", "u1", "u2"}, names, format.String())
	}

	_, err := bamprovider.NewWriter(&bytes.Buffer{}, header, bamprovider.WriterOpts{Format: bamprovider.Unknown})
	assert.True(t, errors.Is(errors.Invalid, err))
}

func TestParseFileType(t *testing.T) {
	assert.Equal(t, bamprovider.BAM, bamprovider.ParseFileType("bam"))
	assert.Equal(t, bamprovider.SAM, bamprovider.ParseFileType("sam"))
	assert.Equal(t, bamprovider.Unknown, bamprovider.ParseFileType("pam"))
	assert.Equal(t, "sam", bamprovider.SAM.String())
}
