package bamprovider

import (
	"fmt"
	"io"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/vcontext"
	gbam "github.com/grailbio/doopa/encoding/bam"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/bgzf"
	"github.com/grailbio/hts/bgzf/index"
	"github.com/grailbio/hts/sam"
	"v.io/x/lib/vlog"
)

// BAMProvider implements Provider for indexed BAM files.  Both filenames are
// opened through github.com/grailbio/base/file.
type BAMProvider struct {
	// Path of the *.bam file. Must be nonempty.
	Path string
	// Index is the pathname of *.bam.bai file. If "", Path + ".bai"
	Index string
	// Parallelism is the number of bgzf decompressors per iterator.
	Parallelism int

	err errors.Once

	mu      sync.Mutex
	nActive int
	header  *sam.Header
	index   *bam.Index
}

type bamIterator struct {
	provider *BAMProvider
	in       file.File
	reader   *bam.Reader
	// Offset of the first record in the file.
	firstRecord bgzf.Offset
	// Records before start are skipped.
	start gbam.Coord

	active bool
	err    error
	next   *sam.Record
}

func (b *BAMProvider) indexPath() string {
	index := b.Index
	if index == "" {
		index = b.Path + ".bai"
	}
	return index
}

// open reads the header and the index.
func (b *BAMProvider) open() error {
	ctx := vcontext.Background()
	in, err := file.Open(ctx, b.Path)
	if err != nil {
		return errors.E(err, fmt.Sprintf("can't open %q", b.Path))
	}
	defer in.Close(ctx) // nolint: errcheck
	reader, err := bam.NewReader(in.Reader(ctx), 1)
	if err != nil {
		return errors.E(errors.NotSupported, err, fmt.Sprintf("can't open bam file %q: unknown format", b.Path))
	}
	b.header = reader.Header()
	if err := reader.Close(); err != nil {
		return errors.E(err, fmt.Sprintf("closing %q failed", b.Path))
	}

	indexIn, err := file.Open(ctx, b.indexPath())
	if err != nil {
		return errors.E(errors.Integrity, err, fmt.Sprintf("cannot open bam index %q", b.indexPath()))
	}
	defer indexIn.Close(ctx) // nolint: errcheck
	if b.index, err = bam.ReadIndex(indexIn.Reader(ctx)); err != nil {
		return errors.E(errors.Integrity, err, fmt.Sprintf("cannot read bam index %q", b.indexPath()))
	}
	vlog.VI(1).Infof("%v: opened with index %v, %d references", b.Path, b.indexPath(), len(b.header.Refs()))
	return nil
}

// GetHeader implements the Provider interface.
func (b *BAMProvider) GetHeader() (*sam.Header, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.header == nil {
		return nil, errors.E(errors.Invalid, "bamprovider: header requested before open")
	}
	return b.header, nil
}

// Close implements the Provider interface.
func (b *BAMProvider) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.nActive > 0 {
		vlog.Fatalf("%d iterators still active for %+v", b.nActive, b)
	}
	return b.err.Err()
}

// NewIterator implements the Provider interface.
func (b *BAMProvider) NewIterator(start gbam.Coord) Iterator {
	b.mu.Lock()
	b.nActive++
	b.mu.Unlock()

	iter := &bamIterator{
		provider: b,
		start:    start,
		active:   true,
	}
	ctx := vcontext.Background()
	if iter.in, iter.err = file.Open(ctx, b.Path); iter.err != nil {
		return iter
	}
	if iter.reader, iter.err = bam.NewReader(iter.in.Reader(ctx), b.Parallelism); iter.err != nil {
		return iter
	}
	iter.firstRecord = iter.reader.LastChunk().End
	if start != gbam.StartOfFile {
		iter.seek()
	}
	return iter
}

// seek positions the reader at or before the first record at i.start.
func (i *bamIterator) seek() {
	var (
		offset bgzf.Offset
		found  bool
		err    error
	)
	refs := i.reader.Header().Refs()
	if !i.start.Unmapped() {
		for id := i.start.RefID; id < len(refs); id++ {
			ref := refs[id]
			start := 0
			if id == i.start.RefID {
				start = i.start.Pos
			}
			if found, offset, err = i.findRecordOffset(ref, start, ref.Len()); err != nil || found {
				break
			}
		}
	}
	if err == nil && !found {
		offset, err = i.findUnmappedOffset()
	}
	if err != nil {
		i.err = err
		return
	}
	i.err = i.reader.Seek(offset)
}

// Err implements the Iterator interface.
func (i *bamIterator) Err() error {
	if i.err == io.EOF {
		return nil
	}
	return i.err
}

// Close implements the Iterator interface.
func (i *bamIterator) Close() error {
	if !i.active {
		vlog.Fatal("bamprovider: iterator closed twice")
	}
	i.active = false
	if i.reader != nil {
		if err := i.reader.Close(); err != nil && i.Err() == nil {
			i.err = err
		}
		i.reader = nil
	}
	if i.in != nil {
		if err := i.in.Close(vcontext.Background()); err != nil && i.Err() == nil {
			i.err = err
		}
		i.in = nil
	}
	err := i.Err()
	i.provider.err.Set(err)
	i.provider.mu.Lock()
	i.provider.nActive--
	if i.provider.nActive < 0 {
		vlog.Fatalf("Negative active count for %+v", i.provider)
	}
	i.provider.mu.Unlock()
	return err
}

// Find the the file offset at which the first unmapped sequence is
// stored. This function is conservative; it may return an offset that's smaller
// than absolutely necessary.
func (i *bamIterator) findUnmappedOffset() (bgzf.Offset, error) {
	// Iterate through the endpoint of each reference to find the
	// largest offset.
	var lastOffset bgzf.Offset
	foundRefs := false
	for _, r := range i.reader.Header().Refs() {
		chunks, err := i.provider.index.Chunks(r, 0, r.Len())
		if err == index.ErrInvalid {
			// There are no reads on this reference, but don't worry about it.
			continue
		}
		if err != nil {
			return lastOffset, err
		}
		if len(chunks) == 0 {
			continue
		}
		foundRefs = true
		c := chunks[len(chunks)-1]
		if c.End.File > lastOffset.File ||
			(c.End.File == lastOffset.File && c.End.Block > lastOffset.Block) {
			lastOffset = c.End
		}
	}
	if !foundRefs {
		return i.firstRecord, nil
	}
	return lastOffset, nil
}

// Find the the file offset at which the first record at coordinate <ref,pos> is
// stored. This function is conservative; it may return an offset that's smaller
// than absolutely necessary.
func (i *bamIterator) findRecordOffset(ref *sam.Reference, startPos, endPos int) (bool, bgzf.Offset, error) {
	chunks, err := i.provider.index.Chunks(ref, startPos, endPos)
	if err == index.ErrInvalid || len(chunks) == 0 {
		// No reads for this interval.
		return false, bgzf.Offset{}, nil
	}
	if err != nil {
		return false, bgzf.Offset{}, err
	}
	return true, chunks[0].Begin, nil
}

// Scan implements the Iterator interface.
func (i *bamIterator) Scan() bool {
	if !i.active {
		vlog.Fatal("Reusing iterator")
	}
	if i.err != nil {
		return false
	}
	for {
		i.next, i.err = i.reader.Read()
		if i.err != nil {
			return false
		}
		if gbam.CoordFromRecord(i.next).LT(i.start) {
			continue
		}
		return true
	}
}

// Record implements the Iterator interface.
func (i *bamIterator) Record() *sam.Record {
	return i.next
}
