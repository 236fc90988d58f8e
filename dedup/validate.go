package dedup

import (
	"github.com/grailbio/base/errors"
	"github.com/grailbio/doopa/encoding/bamprovider"
)

func validate(opts *Opts) error {
	if opts.Fallback != RawAligned && opts.Fallback != SelfClipped {
		return errors.E(errors.Invalid, "unknown missing-mate-cigar mode", opts.Fallback.String())
	}
	if opts.StatsOnly {
		return nil
	}
	if opts.Output == nil {
		return errors.E(errors.Invalid, "an output stream is required unless running stats-only")
	}
	if opts.Format == "" {
		opts.Format = "sam"
	}
	if bamprovider.ParseFileType(opts.Format) == bamprovider.Unknown {
		return errors.E(errors.Invalid, "unknown output format", opts.Format)
	}
	return nil
}
