// Package bamprovider implements the alignment store used by doopa: it opens
// an indexed BAM file, validates its format, loads its index, and hands out
// independent, coordinate-ordered iterators that each start from a given
// coordinate.  It also provides the SAM/BAM writers for the output stream
// and a fake in-memory provider for unittests.
package bamprovider
