package main

/*
  doopa removes positional duplicates from an indexed BAM file and writes
  the remaining records to standard output.  Statistics go to standard
  error.  For more information, see
  github.com/grailbio/doopa/dedup/doc.go

  Usage: doopa [flags] <bam>
*/

import (
	"flag"
	golog "log"
	"os"
	"runtime"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/doopa/dedup"
	"github.com/grailbio/doopa/encoding/bamprovider"
)

const tag = "doopa: "

var (
	statsOnly        = flag.Bool("statsonly", false, "Report statistics only, do not write records")
	indexFile        = flag.String("index", "", "Input BAM index filename. By default, set to input BAM filename + .bai")
	format           = flag.String("format", "sam", "Output format. Value is either 'sam' or 'bam'.")
	metricsFile      = flag.String("metrics", "", "Also write the statistics to this TSV file, gzipped if it ends in .gz")
	missingMateCigar = flag.String("missing-mate-cigar", "raw", "Signature of records with a mapped mate and no MC tag: 'raw' uses aligned coordinates for both reads, 'self-clipped' keeps the record's own clips")
	parallelism      = flag.Int("parallelism", runtime.NumCPU(), "Number of bgzf workers for reading and writing")
)

func main() {
	shutdown := grail.Init()
	defer shutdown()
	golog.SetPrefix(tag)
	golog.SetFlags(0)
	golog.SetOutput(os.Stderr)

	if flag.NArg() != 1 {
		log.Fatalf("need bam file path and bai to exist")
	}
	bamPath := flag.Arg(0)
	fallback, err := dedup.ParseMateCigarFallback(*missingMateCigar)
	if err != nil {
		log.Fatalf("%v", err)
	}
	opts := dedup.Opts{
		StatsOnly:   *statsOnly,
		Fallback:    fallback,
		Format:      *format,
		Parallelism: *parallelism,
		Output:      os.Stdout,
		Report:      os.Stderr,
		Tag:         tag,
		MetricsFile: *metricsFile,
	}

	provider, err := bamprovider.NewProvider(bamPath, bamprovider.ProviderOpts{
		Index:       *indexFile,
		Parallelism: *parallelism,
	})
	if err != nil {
		log.Fatalf("%v", err)
	}
	ctx := vcontext.Background()
	if err := dedup.SetupAndRun(ctx, provider, &opts); err != nil {
		log.Fatalf("%v", err)
	}
	log.Debug.Printf("exiting")
}
