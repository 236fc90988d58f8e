package bamprovider

import (
	"bufio"
	"fmt"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	"github.com/klauspost/compress/gzip"
)

// WriterOpts defines options for NewWriter.
type WriterOpts struct {
	// Format of the output stream, SAM or BAM.
	Format FileType
	// Parallelism is the number of concurrent bgzf compressors. It is
	// consulted only for BAM output. Values <= 0 mean 1.
	Parallelism int
}

// Writer writes an alignment stream.  The header is written by NewWriter;
// records are written in the order of the Write calls. Thread compatible.
type Writer interface {
	// Write appends one record to the stream.
	Write(r *sam.Record) error
	// Close flushes buffered data. It does not close the underlying
	// io.Writer.
	Close() error
}

type samWriter struct {
	buf *bufio.Writer
	w   *sam.Writer
}

func (w *samWriter) Write(r *sam.Record) error { return w.w.Write(r) }
func (w *samWriter) Close() error              { return w.buf.Flush() }

type bamWriter struct {
	w *bam.Writer
}

func (w *bamWriter) Write(r *sam.Record) error { return w.w.Write(r) }
func (w *bamWriter) Close() error              { return w.w.Close() }

// NewWriter creates a Writer for out and writes header to it.
func NewWriter(out io.Writer, header *sam.Header, opts WriterOpts) (Writer, error) {
	switch opts.Format {
	case SAM:
		buf := bufio.NewWriter(out)
		w, err := sam.NewWriter(buf, header, sam.FlagDecimal)
		if err != nil {
			return nil, errors.E(err, "writing headers failed")
		}
		return &samWriter{buf: buf, w: w}, nil
	case BAM:
		parallelism := opts.Parallelism
		if parallelism <= 0 {
			parallelism = 1
		}
		w, err := bam.NewWriterLevel(out, header, gzip.DefaultCompression, parallelism)
		if err != nil {
			return nil, errors.E(err, "writing headers failed")
		}
		return &bamWriter{w: w}, nil
	}
	return nil, errors.E(errors.Invalid, fmt.Sprintf("unknown output format %v", opts.Format))
}
