package kmerdb

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seqio/fastx"
)

// A Source produces plain uppercase nucleotide strings, one per
// underlying record. Iteration is lazy and restarts on every Each call;
// the shape of the input (raw string, in-memory record, sequence file)
// is resolved here once so downstream code only ever sees strings.
type Source interface {
	Each(fn func(seq string) error) error
}

// Seq is a raw in-memory sequence.
type Seq string

func (s Seq) Each(fn func(seq string) error) error {
	return fn(strings.ToUpper(string(s)))
}

// Record is an in-memory sequence record with an identifier.
type Record struct {
	ID  string
	Seq string
}

func (r Record) Each(fn func(seq string) error) error {
	return fn(strings.ToUpper(r.Seq))
}

// File references a FASTA or FASTQ file, optionally gzip-compressed.
// Each record in the file yields one sequence string.
type File string

func (f File) Each(fn func(seq string) error) error {
	reader, err := fastx.NewDefaultReader(string(f))
	if err != nil {
		return inputError(err, string(f))
	}
	defer reader.Close()
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return inputError(err, string(f))
		}
		if err := fn(strings.ToUpper(string(record.Seq.Seq))); err != nil {
			return err
		}
	}
}

// Files is a convenience for turning file paths into Sources.
func Files(paths ...string) []Source {
	sources := make([]Source, len(paths))
	for i, p := range paths {
		sources[i] = File(p)
	}
	return sources
}

// CountRecords walks all sources once, returning the total number of
// sequences. Used to size progress bars and to surface unreadable
// inputs before real work starts.
func CountRecords(sources []Source) (int64, error) {
	var n int64
	for _, src := range sources {
		if err := src.Each(func(string) error {
			n++
			return nil
		}); err != nil {
			return 0, errors.WithMessage(err, "counting input records")
		}
	}
	return n, nil
}
