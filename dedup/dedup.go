package dedup

import (
	"context"
	"fmt"
	"io"

	"blainsmith.com/go/seahash"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	gbam "github.com/grailbio/doopa/encoding/bam"
	"github.com/grailbio/doopa/encoding/bamprovider"
	"github.com/grailbio/hts/sam"
)

// Opts for a dedup run.
type Opts struct {
	// StatsOnly skips the second pass: statistics are reported, but no
	// header or record is written.
	StatsOnly bool
	// Fallback selects the signature used for records whose mate CIGAR is
	// unknown.
	Fallback MateCigarFallback
	// Format of the output stream, "sam" or "bam".  Defaults to "sam".
	Format string
	// Parallelism is passed to the BAM writer.
	Parallelism int
	// Output receives the deduplicated stream.  Required unless StatsOnly.
	Output io.Writer
	// Report receives the statistics.  Nil disables the report.
	Report io.Writer
	// Tag prefixes every report line.
	Tag string
	// MetricsFile, if set, receives the statistics as TSV.
	MetricsFile string
}

// State of a run.
type State int

const (
	// Init is the state before Run.
	Init State = iota
	// Scanning1 builds the duplicate index and the statistics.
	Scanning1
	// Reporting writes the statistics.
	Reporting
	// Scanning2 writes the winning records.
	Scanning2
	// Done is the state after a successful run.
	Done
	// Failed is the state after an error.
	Failed
)

var stateNames = [...]string{"init", "scanning1", "reporting", "scanning2", "done", "failed"}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Dedup removes positional duplicates from the records of Provider.
//
// The first pass computes the signature and quality score of every
// dedupable record and keeps, per signature, the ordinal of its best
// occurrence.  The second pass rereads the input from the start and writes
// unmapped records and the recorded winners, in input order.
type Dedup struct {
	Provider bamprovider.Provider
	Opts     *Opts

	state State
}

// State returns the current state of the run.
func (d *Dedup) State() State { return d.state }

func (d *Dedup) setState(s State) {
	log.Debug.Printf("dedup: %v -> %v", d.state, s)
	d.state = s
}

// firstPass holds what the first pass learns about the input.
type firstPass struct {
	index   *DuplicateIndex
	hist    FragmentHistogram
	metrics Metrics
}

// Run executes both passes and returns the metrics.  On error, the run
// enters the Failed state; output written so far is not retracted.
func (d *Dedup) Run(ctx context.Context) (m *Metrics, err error) {
	if d.state != Init {
		return nil, errors.E(errors.Invalid, "dedup: Run called twice")
	}
	defer func() {
		if err != nil {
			d.setState(Failed)
		}
	}()
	if err = validate(d.Opts); err != nil {
		return nil, err
	}
	header, err := d.Provider.GetHeader()
	if err != nil {
		return nil, err
	}

	d.setState(Scanning1)
	first, err := d.scan1()
	if err != nil {
		return nil, err
	}
	m = &first.metrics

	d.setState(Reporting)
	if m.MissingMateCigar > 0 {
		log.Printf("%d records with a mapped mate have no usable MC tag; their signatures use %v coordinates",
			m.MissingMateCigar, d.Opts.Fallback)
	}
	if m.DegenerateCigar > 0 {
		log.Printf("%d records have a CIGAR without aligned operations", m.DegenerateCigar)
	}
	if d.Opts.Report != nil {
		if err = m.WriteReport(d.Opts.Report, d.Opts.Tag); err != nil {
			return nil, errors.E(err, "writing statistics failed")
		}
	}
	if d.Opts.MetricsFile != "" {
		if err = WriteMetricsFile(ctx, d.Opts.MetricsFile, m); err != nil {
			return nil, err
		}
	}

	if !d.Opts.StatsOnly {
		d.setState(Scanning2)
		if err = d.scan2(header, first); err != nil {
			return nil, err
		}
		log.Printf("wrote %d of %d records, output checksum %016x", m.Emitted, m.Records, m.OutputDigest)
	}
	d.setState(Done)
	return m, nil
}

func (d *Dedup) scan1() (*firstPass, error) {
	p := &firstPass{index: NewDuplicateIndex()}
	m := &p.metrics
	builder := SignatureBuilder{Fallback: d.Opts.Fallback}

	iter := d.Provider.NewIterator(gbam.StartOfFile)
	var ordinal uint64
	for ; iter.Scan(); ordinal++ {
		r := iter.Record()
		cat := Categorize(r)
		switch cat {
		case PassThrough:
			m.PassThrough++
			continue
		case Excluded:
			m.Mapped++
			m.Excluded++
			continue
		}
		m.Mapped++
		m.Dedupable++
		sig, flags := builder.Build(r)
		if flags&MissingMateCigar != 0 {
			m.MissingMateCigar++
		}
		if flags&DegenerateCigar != 0 {
			m.DegenerateCigar++
		}
		qual := Score(r, &m.Bases)
		if cat == DedupableFragment {
			p.hist.Add(r.TempLen)
			m.PairedEligible++
		}
		if p.index.Insert(sig, ordinal, qual) {
			m.Duplicates++
		}
	}
	if err := iter.Close(); err != nil {
		return nil, errors.E(err, fmt.Sprintf("reading record %d failed", ordinal))
	}
	m.Records = ordinal
	m.Signatures = uint64(p.index.Len())
	m.Fragments = p.hist.Summarize(p.hist.Total())
	m.Histogram = p.hist.Bins()
	log.Debug.Printf("first pass: %d records, %d signatures", m.Records, m.Signatures)
	return p, nil
}

func (d *Dedup) scan2(header *sam.Header, first *firstPass) (err error) {
	m := &first.metrics
	digest := seahash.New()
	w, err := bamprovider.NewWriter(io.MultiWriter(d.Opts.Output, digest), header, bamprovider.WriterOpts{
		Format:      bamprovider.ParseFileType(d.Opts.Format),
		Parallelism: d.Opts.Parallelism,
	})
	if err != nil {
		return err
	}
	defer func() {
		if e := w.Close(); e != nil && err == nil {
			err = errors.E(e, "writing to output failed")
		}
		if err == nil {
			m.OutputDigest = digest.Sum64()
		}
	}()

	builder := SignatureBuilder{Fallback: d.Opts.Fallback}
	iter := d.Provider.NewIterator(gbam.StartOfFile)
	var ordinal uint64
	for ; iter.Scan(); ordinal++ {
		if ordinal >= m.Records {
			iter.Close()
			return errors.E(errors.Integrity,
				fmt.Sprintf("second pass read more than the %d records of the first pass", m.Records))
		}
		r := iter.Record()
		switch cat := Categorize(r); {
		case cat == Excluded:
			continue
		case cat.Dedupable():
			sig, _ := builder.Build(r)
			e, ok := first.index.Winner(sig)
			if !ok || e != (Entry{Ordinal: ordinal, QualSum: Score(r, nil)}) {
				continue
			}
		}
		if err := w.Write(r); err != nil {
			iter.Close()
			return errors.E(err, "writing to output failed")
		}
		m.Emitted++
	}
	if err := iter.Close(); err != nil {
		return errors.E(err, fmt.Sprintf("reading record %d failed", ordinal))
	}
	if ordinal != m.Records {
		return errors.E(errors.Integrity,
			fmt.Sprintf("second pass read %d records, first pass read %d", ordinal, m.Records))
	}
	log.Debug.Printf("second pass: %d of %d records written", m.Emitted, m.Records)
	return nil
}

// SetupAndRun deduplicates the records of provider according to opts, and
// closes provider.
func SetupAndRun(ctx context.Context, provider bamprovider.Provider, opts *Opts) (err error) {
	defer func() {
		if e := provider.Close(); e != nil && err == nil {
			err = e
		}
	}()
	d := &Dedup{Provider: provider, Opts: opts}
	if _, err = d.Run(ctx); err != nil {
		log.Debug.Printf("dedup failed: %v", err)
		return err
	}
	return nil
}
