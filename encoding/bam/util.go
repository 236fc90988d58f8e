package bam

import "github.com/grailbio/hts/sam"

// HasNoMappedMate returns true if record is unpaired or has an unmapped mate.
func HasNoMappedMate(record *sam.Record) bool {
	return (record.Flags&sam.Paired) == 0 || (record.Flags&sam.MateUnmapped) != 0
}

// IsUnmapped returns true if the record has no reference, or is flagged as
// unmapped.  Unmapped reads placed next to their mate carry the mate's
// reference but no alignment of their own.
func IsUnmapped(record *sam.Record) bool {
	return record.Ref == nil || (record.Flags&sam.Unmapped) != 0
}

// IsSecondaryOrSupplementary returns true if the record is not the primary
// alignment of its read.
func IsSecondaryOrSupplementary(record *sam.Record) bool {
	return (record.Flags & (sam.Secondary | sam.Supplementary)) != 0
}

// IsQCFailed returns true if the record failed vendor quality checks.
func IsQCFailed(record *sam.Record) bool {
	return (record.Flags & sam.QCFail) != 0
}

// IsProperPair returns true if the aligner flagged the record as part of a
// properly oriented and spaced pair.
func IsProperPair(record *sam.Record) bool {
	return (record.Flags & sam.ProperPair) != 0
}
