package dedup

import "math"

const (
	fragmentBinWidth = 5
	maxFragmentSize  = 2000
	maxFragmentBin   = maxFragmentSize / fragmentBinWidth
)

// Bin is one non-empty bucket of a FragmentHistogram.
type Bin struct {
	Index int
	Count uint64
}

// Lower returns the smallest insert size that falls into the bin.
func (b Bin) Lower() int { return b.Index * fragmentBinWidth }

// Midpoint returns the value used to represent the bin in summaries.
func (b Bin) Midpoint() float64 {
	return float64(b.Index*fragmentBinWidth) + fragmentBinWidth/2.0
}

// FragmentSummary holds the estimates computed from a FragmentHistogram.
type FragmentSummary struct {
	Mean   float64
	Median float64
	Stdev  float64
	// StdevDefined is false when fewer than two fragments were seen.
	StdevDefined bool
}

// FragmentHistogram counts insert sizes in bins of width 5.  Sizes of 2000
// and above share the last bin.
type FragmentHistogram struct {
	counts [maxFragmentBin + 1]uint64
	total  uint64
}

// Add records one fragment.  Callers only pass positive insert sizes.
func (h *FragmentHistogram) Add(insertSize int) {
	bin := insertSize / fragmentBinWidth
	if bin > maxFragmentBin {
		bin = maxFragmentBin
	}
	h.counts[bin]++
	h.total++
}

// Total returns the number of fragments added.
func (h *FragmentHistogram) Total() uint64 { return h.total }

// Bins returns the non-empty bins in ascending order.
func (h *FragmentHistogram) Bins() []Bin {
	var bins []Bin
	for i, c := range h.counts {
		if c > 0 {
			bins = append(bins, Bin{Index: i, Count: c})
		}
	}
	return bins
}

// Summarize estimates the mean, median and sample standard deviation of the
// insert size, over total fragments, by representing each fragment by the
// midpoint of its bin.  The median is interpolated linearly inside the bin
// where the cumulative count reaches total/2.
func (h *FragmentHistogram) Summarize(total uint64) FragmentSummary {
	var s FragmentSummary
	if total == 0 {
		return s
	}
	n := float64(total)
	bins := h.Bins()

	var sum float64
	for _, b := range bins {
		sum += b.Midpoint() * float64(b.Count)
	}
	s.Mean = sum / n

	half := n / 2
	var cum float64
	for _, b := range bins {
		if cum+float64(b.Count) >= half {
			s.Median = float64(b.Lower()) + (half-cum)/float64(b.Count)*fragmentBinWidth
			break
		}
		cum += float64(b.Count)
	}

	if total > 1 {
		var ss float64
		for _, b := range bins {
			d := b.Midpoint() - s.Mean
			ss += d * d * float64(b.Count)
		}
		s.Stdev = math.Sqrt(ss / (n - 1))
		s.StdevDefined = true
	}
	return s
}
