package bamprovider

import (
	gbam "github.com/grailbio/doopa/encoding/bam"
	"github.com/grailbio/hts/sam"
)

// ProviderOpts defines options for NewProvider.
type ProviderOpts struct {
	// Index specifies the name of the BAM index file. If Index=="", it
	// defaults to path + ".bai".
	Index string

	// Parallelism is the number of concurrent bgzf decompressors used by
	// each iterator. Values <= 0 mean 1.
	Parallelism int
}

// Provider gives access to the records of an indexed alignment file.
type Provider interface {
	// GetHeader returns the header for the provided BAM data.  The callee
	// must not modify the returned header object.
	//
	// REQUIRES: Close has not been called.
	GetHeader() (*sam.Header, error)

	// NewIterator returns an iterator over the records at or after start,
	// in file order. Each call returns an independent iterator; iterating
	// from gbam.StartOfFile visits every record of the file, including the
	// unmapped ones at the end.
	//
	// REQUIRES: Close has not been called.
	NewIterator(start gbam.Coord) Iterator

	// Close must be called exactly once. It returns any error encountered
	// by the provider, or any iterator created by the provider.
	//
	// REQUIRES: All the iterators created by NewIterator have been closed.
	Close() error
}

// Iterator iterates over sam.Records in coordinate order. Thread compatible.
type Iterator interface {
	// Scan returns where there are any records remaining in the iterator,
	// and if so, advances the iterator to the next record. If the iterator
	// reaches the end of the file, Scan() returns false.  If an error
	// occurs, Scan() returns false and the error can be retrieved by
	// calling Err().
	//
	// REQUIRES: Close has not been called.
	Scan() bool

	// Record returns the current record in the iterator. This must be
	// called only after a call to Scan() returns true.  The record is owned
	// by the caller only until the next call to Scan.
	//
	// REQUIRES: Close has not been called.
	Record() *sam.Record

	// Err returns the error encoutered during iteration, or nil if no error
	// occurred.  An io.EOF error will be translated to nil.
	Err() error

	// Close must be called exactly once. It returns the value of Err().
	Close() error
}

// FileType represents the type of an alignment stream.
type FileType int

const (
	// Unknown is a sentinel.
	Unknown FileType = iota
	// BAM file
	BAM
	// SAM text
	SAM
)

// ParseFileType parses the file type string. "bam" returns bamprovider.BAM, for
// example. On error, it returns Unknown.
func ParseFileType(name string) FileType {
	switch name {
	case "bam":
		return BAM
	case "sam":
		return SAM
	default:
		return Unknown
	}
}

func (t FileType) String() string {
	switch t {
	case BAM:
		return "bam"
	case SAM:
		return "sam"
	default:
		return "unknown"
	}
}

func mergeOpts(optList []ProviderOpts) ProviderOpts {
	opts := ProviderOpts{}
	for _, o := range optList {
		if o.Index != "" {
			opts.Index = o.Index
		}
		if o.Parallelism > 0 {
			opts.Parallelism = o.Parallelism
		}
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = 1
	}
	return opts
}

// NewProvider opens the BAM file at path, reads its header, and loads its
// index. Path and index may be any URL understood by
// github.com/grailbio/base/file.
//
// The returned error has kind errors.NotSupported if the file is not a BAM
// file, and errors.Integrity if the index can't be loaded.
func NewProvider(path string, optList ...ProviderOpts) (Provider, error) {
	opts := mergeOpts(optList)
	p := &BAMProvider{Path: path, Index: opts.Index, Parallelism: opts.Parallelism}
	if err := p.open(); err != nil {
		return nil, err
	}
	return p, nil
}
