package main

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seq"
	"github.com/spf13/cobra"

	"github.com/jxshi/kmerdb"
)

const version = "1.0.0"

func buildCommand() *cobra.Command {
	var (
		kmerSize     int
		singleStrand bool
		minOccs      uint64
		maxOccs      uint64
		counterCap   uint64
		memLimitGb   float64
		threads      int
	)
	cmd := &cobra.Command{
		Use:   "build <input>... <db>",
		Short: "Build a k-mer count database from FASTA/FASTQ input",
		Long: `Build a database of canonical k-mer counts from one or more
FASTA/FASTQ files (gzip-compressed input is detected automatically).

Counts are accumulated across all inputs combined, thresholded with
--minOccs/--maxOccs and capped with --counterCap. Unless --singleStrand
is given, each k-mer and its reverse complement count toward the same
entry.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, dbPath := args[:len(args)-1], args[len(args)-1]
			return runBuild(inputs, dbPath, kmerdb.BuildOptions{
				K:            kmerSize,
				SingleStrand: singleStrand,
				MinOccs:      minOccs,
				MaxOccs:      maxOccs,
				CounterCap:   counterCap,
				Threads:      threads,
				MemLimitGB:   memLimitGb,
			})
		},
	}
	cmd.Flags().IntVarP(&kmerSize, "kmerSize", "k", 0, "K-mer size (required)")
	cmd.Flags().BoolVar(&singleStrand, "singleStrand", false, "Do not canonicalize k-mers (keep strand orientation)")
	cmd.Flags().Uint64Var(&minOccs, "minOccs", 0, "Drop k-mers occurring fewer than this many times")
	cmd.Flags().Uint64Var(&maxOccs, "maxOccs", 0, "Drop k-mers occurring more than this many times")
	cmd.Flags().Uint64Var(&counterCap, "counterCap", 0, "Cap stored counts at this value")
	cmd.Flags().Float64Var(&memLimitGb, "memLimitGb", 0, "Memory limit hint for the counting pass (GB)")
	cmd.Flags().IntVarP(&threads, "threads", "t", 0, fmt.Sprintf("Number of counting workers (max %d; 0 = auto)", kmerdb.MaxThreads))
	cmd.MarkFlagRequired("kmerSize")
	return cmd
}

func runBuild(inputs []string, dbPath string, opt kmerdb.BuildOptions) error {
	if err := opt.Validate(); err != nil {
		return err
	}
	log.Printf("Building k-mer database from %d input(s) (k=%d)...", len(inputs), opt.K)
	sources := kmerdb.Files(inputs...)

	totalSeqs, err := kmerdb.CountRecords(sources)
	if err != nil {
		return err
	}

	var bar *pb.ProgressBar
	if totalSeqs > 0 {
		bar = pb.Full.Start64(totalSeqs)
		bar.Set(pb.Bytes, false)
		opt.OnSequence = func() { bar.Increment() }
	}

	start := time.Now()
	db, err := kmerdb.BuildKmerDB(sources, dbPath, opt)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}
	if db.Len() == 0 {
		log.Printf("Warning: no k-mers passed the thresholds; wrote an empty database")
	}
	log.Printf("Stored %d k-mers in %s (%.2fs)", db.Len(), dbPath, time.Since(start).Seconds())
	return nil
}

func dumpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <db> <out.txt>",
		Short: "Dump all (kmer, count) pairs as tab-separated text",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(args[0], args[1])
		},
	}
}

func runDump(dbPath, outPath string) error {
	if err := kmerdb.DumpKmerCounts(dbPath, outPath); err != nil {
		return err
	}
	log.Printf("Dumped k-mer counts to %s", outPath)
	return nil
}

func filterCommand() *cobra.Command {
	var (
		readMinOccs string
		readMaxOccs string
	)
	cmd := &cobra.Command{
		Use:   "filter <db> <reads_in> <reads_out>",
		Short: "Filter reads by database k-mer content",
		Long: `Filter reads by the total database-registered occurrence count of
their k-mers. For each read, every valid k-mer window is looked up in
the database and the stored counts are summed (with multiplicity); the
read is kept iff the sum lies within --readMinOccs/--readMaxOccs.

A threshold is either an absolute count ("80") or a fraction of the
read's window count ("0.7", resolved per read by truncation). Kept
reads are written with identifier and sequence unchanged, in input
order.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilter(args[0], args[1], args[2], readMinOccs, readMaxOccs)
		},
	}
	cmd.Flags().StringVar(&readMinOccs, "readMinOccs", "", "Minimum occurrence sum (absolute count or fraction in (0,1])")
	cmd.Flags().StringVar(&readMaxOccs, "readMaxOccs", "", "Maximum occurrence sum (absolute count or fraction in (0,1])")
	return cmd
}

func runFilter(dbPath, readsIn, readsOut, minStr, maxStr string) error {
	min, err := kmerdb.ParseThreshold(minStr)
	if err != nil {
		return errors.WithMessage(err, "--readMinOccs")
	}
	max, err := kmerdb.ParseThreshold(maxStr)
	if err != nil {
		return errors.WithMessage(err, "--readMaxOccs")
	}

	totalReads, err := kmerdb.CountRecords(kmerdb.Files(readsIn))
	if err != nil {
		return err
	}

	var bar *pb.ProgressBar
	var onRead func()
	if totalReads > 0 {
		bar = pb.Full.Start64(totalReads)
		bar.Set(pb.Bytes, false)
		onRead = func() { bar.Increment() }
	}

	start := time.Now()
	kept, total, err := kmerdb.FilterByKmers(dbPath, readsIn, readsOut, min, max, onRead)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}

	log.Printf("Filtering complete!")
	log.Printf("Total reads: %d", total)
	if total > 0 {
		log.Printf("Kept reads: %d (%.2f%%)", kept, float64(kept)*100.0/float64(total))
		log.Printf("Elapsed time: %.2fs", time.Since(start).Seconds())
	} else {
		log.Printf("Kept reads: %d", kept)
	}
	return nil
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("kmerdb version %s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func main() {
	seq.ValidateSeq = false

	rootCmd := &cobra.Command{
		Use:   "kmerdb",
		Short: "K-mer count databases and k-mer based read filtering",
		Long: `kmerdb: build databases of canonical k-mer counts and filter reads
against them.

Workflow:
  1. build   count canonical k-mers from FASTA/FASTQ into a database
  2. dump    export the database as <kmer><TAB><count> text
  3. filter  keep reads whose k-mer content is sufficiently (or at most
             so much) represented in the database`,
		SilenceUsage: true,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(buildCommand())
	rootCmd.AddCommand(dumpCommand())
	rootCmd.AddCommand(filterCommand())
	rootCmd.AddCommand(versionCommand())
	if err := rootCmd.Execute(); err != nil {
		switch {
		case errors.Is(err, kmerdb.ErrConfig):
			os.Exit(2)
		case errors.Is(err, kmerdb.ErrInput):
			os.Exit(3)
		default:
			os.Exit(1)
		}
	}
}
