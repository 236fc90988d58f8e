package bamprovider

import (
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
)

// WriteIndexedBAM writes recs to a BAM file at path, and a BAI index for it at
// path + ".bai".  The records must be coordinate sorted.  It is meant for
// tests that need a real indexed file.
func WriteIndexedBAM(path string, header *sam.Header, recs []*sam.Record) (err error) {
	ctx := vcontext.Background()
	out, err := file.Create(ctx, path)
	if err != nil {
		return err
	}
	w, err := bam.NewWriter(out.Writer(ctx), header, 1)
	if err != nil {
		out.Close(ctx) // nolint: errcheck
		return err
	}
	for _, r := range recs {
		if err = w.Write(r); err != nil {
			out.Close(ctx) // nolint: errcheck
			return errors.E(err, "write", r.Name)
		}
	}
	if err = w.Close(); err != nil {
		out.Close(ctx) // nolint: errcheck
		return err
	}
	if err = out.Close(ctx); err != nil {
		return err
	}
	return writeIndex(path)
}

func writeIndex(path string) (err error) {
	ctx := vcontext.Background()
	in, err := file.Open(ctx, path)
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, in, &err)
	reader, err := bam.NewReader(in.Reader(ctx), 1)
	if err != nil {
		return err
	}
	defer reader.Close() // nolint: errcheck

	var idx bam.Index
	for {
		r, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if err := idx.Add(r, reader.LastChunk()); err != nil {
			return errors.E(err, "index", r.Name)
		}
	}
	out, err := file.Create(ctx, path+".bai")
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, out, &err)
	return bam.WriteIndex(out.Writer(ctx), &idx)
}
