/*Package dedup removes positional duplicates from a coordinate-sorted,
  indexed BAM file.

  Two records are duplicates if their signatures are equal.  A signature
  packs, for the record and for its mate, the reference id, the unclipped
  start and the unclipped length.  The mate's unclipped span is taken from
  the MC tag; when a mapped mate has no MC tag the signature degrades to
  aligned coordinates, as selected by MateCigarFallback.

  Among the records sharing a signature, the one with the highest sum of
  base qualities wins; ties go to the first one in file order.  Finding the
  winner requires the whole file, so Dedup reads the input twice: the first
  pass fills a DuplicateIndex and the statistics, the second pass writes
  the winners and all unmapped records, in input order.

  Secondary, supplementary and QC-failed records are not dedup candidates
  and are dropped from the output.

  The statistics contain record and base counts, the number of Q30 bases,
  and a fragment size histogram of the properly paired records with
  MAPQ > 30, in bins of 5 bases.
*/
package dedup
