package dedup

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
	"github.com/klauspost/compress/gzip"
)

// Metrics contains the counters computed by a run.
type Metrics struct {
	// Records is the number of records read in the first pass.
	Records uint64
	// Mapped is the number of records with an alignment.
	Mapped uint64
	// PassThrough is the number of unmapped records.
	PassThrough uint64
	// Excluded is the number of secondary, supplementary or QC-failed
	// records.
	Excluded uint64
	// Dedupable is the number of records that entered the duplicate index.
	Dedupable uint64
	// PairedEligible is the number of proper pairs whose insert size went
	// into the fragment histogram.
	PairedEligible uint64
	// Duplicates is the number of dedupable records whose signature had
	// already been seen.
	Duplicates uint64
	// Signatures is the number of distinct signatures.
	Signatures uint64
	// MissingMateCigar counts records whose mate is mapped but whose MC tag
	// was absent or malformed.
	MissingMateCigar uint64
	// DegenerateCigar counts records whose CIGAR has only clips.
	DegenerateCigar uint64
	// Bases counts the bases of dedupable records.
	Bases BaseCounts

	// Fragments summarizes the fragment histogram.
	Fragments FragmentSummary
	// Histogram lists the non-empty fragment bins, ascending.
	Histogram []Bin

	// Emitted is the number of records written in the second pass.
	Emitted uint64
	// OutputDigest is the seahash of the bytes written to the output,
	// header included.
	OutputDigest uint64
}

// DuplicateRate returns the fraction of dedupable records that were
// duplicates.
func (m *Metrics) DuplicateRate() float64 {
	if m.Dedupable == 0 {
		return 0
	}
	return float64(m.Duplicates) / float64(m.Dedupable)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func (m *Metrics) counters() []struct {
	name  string
	value uint64
} {
	return []struct {
		name  string
		value uint64
	}{
		{"total records", m.Records},
		{"mapped records", m.Mapped},
		{"unmapped records", m.PassThrough},
		{"excluded records", m.Excluded},
		{"dedupable records", m.Dedupable},
		{"paired-eligible records", m.PairedEligible},
		{"duplicate records", m.Duplicates},
		{"distinct signatures", m.Signatures},
		{"missing mate cigar", m.MissingMateCigar},
		{"degenerate cigar", m.DegenerateCigar},
		{"total bases", m.Bases.Total},
		{"q30 bases", m.Bases.Q30},
	}
}

// WriteReport writes the statistics as text lines, each prefixed with tag.
// The output depends only on the first-pass counters, so a stats-only run
// and a full run print the same report.
func (m *Metrics) WriteReport(w io.Writer, tag string) error {
	var b strings.Builder
	for _, c := range m.counters() {
		fmt.Fprintf(&b, "%s%s: %d\n", tag, c.name, c.value)
	}
	fmt.Fprintf(&b, "%sduplicate rate: %s\n", tag, formatFloat(m.DuplicateRate()))
	if m.PairedEligible == 0 {
		fmt.Fprintf(&b, "%sfragment size: undefined\n", tag)
	} else {
		fmt.Fprintf(&b, "%sfragment size mean: %s\n", tag, formatFloat(m.Fragments.Mean))
		fmt.Fprintf(&b, "%sfragment size median: %s\n", tag, formatFloat(m.Fragments.Median))
		if m.Fragments.StdevDefined {
			fmt.Fprintf(&b, "%sfragment size stdev: %s\n", tag, formatFloat(m.Fragments.Stdev))
		} else {
			fmt.Fprintf(&b, "%sfragment size stdev: undefined\n", tag)
		}
	}
	for _, bin := range m.Histogram {
		fmt.Fprintf(&b, "%sfragment bin %d-%d: %d\n", tag,
			bin.Lower(), bin.Lower()+fragmentBinWidth-1, bin.Count)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeMetricsTSV(w *tsv.Writer, m *Metrics) error {
	w.WriteString("#METRIC")
	w.WriteString("VALUE")
	if err := w.EndLine(); err != nil {
		return err
	}
	for _, c := range m.counters() {
		w.WriteString(strings.Replace(strings.ToUpper(c.name), " ", "_", -1))
		w.WriteString(strconv.FormatUint(c.value, 10))
		if err := w.EndLine(); err != nil {
			return err
		}
	}
	summary := []struct {
		name    string
		value   float64
		defined bool
	}{
		{"DUPLICATE_RATE", m.DuplicateRate(), true},
		{"FRAGMENT_MEAN", m.Fragments.Mean, m.PairedEligible > 0},
		{"FRAGMENT_MEDIAN", m.Fragments.Median, m.PairedEligible > 0},
		{"FRAGMENT_STDEV", m.Fragments.Stdev, m.Fragments.StdevDefined},
	}
	for _, s := range summary {
		w.WriteString(s.name)
		if s.defined {
			w.WriteString(formatFloat(s.value))
		} else {
			w.WriteByte('.')
		}
		if err := w.EndLine(); err != nil {
			return err
		}
	}
	for _, bin := range m.Histogram {
		w.WriteString("FRAGMENT_BIN")
		w.WriteUint32(uint32(bin.Lower()))
		w.WriteString(strconv.FormatUint(bin.Count, 10))
		if err := w.EndLine(); err != nil {
			return err
		}
	}
	return w.Flush()
}

// WriteMetricsFile writes the metrics to path as TSV.  The file is gzipped
// if path ends in ".gz".
func WriteMetricsFile(ctx context.Context, path string, m *Metrics) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "couldn't create metrics file:", path)
	}
	defer file.CloseAndReport(ctx, out, &err)

	var w io.Writer = out.Writer(ctx)
	if strings.HasSuffix(path, ".gz") {
		gz := gzip.NewWriter(w)
		defer func() {
			if e := gz.Close(); e != nil && err == nil {
				err = errors.E(e, "close metrics file:", path)
			}
		}()
		w = gz
	}
	if err := writeMetricsTSV(tsv.NewWriter(w), m); err != nil {
		return errors.E(err, "error writing to metrics file:", path)
	}
	return nil
}
