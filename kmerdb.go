package kmerdb

import (
	"io"
	"os"
	"strings"

	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/shenwei356/xopen"
)

// tmpName derives the temporary name outputs are written to before the
// rename into place. The compression-relevant suffix is preserved so
// xopen still picks the gzip writer for a .gz destination.
func tmpName(path string) string {
	if strings.HasSuffix(path, ".gz") {
		return path + ".tmp.gz"
	}
	return path + ".tmp"
}

// BuildKmerDB runs the counting pass over sources and persists the
// result at dbPath. On any error nothing is written.
func BuildKmerDB(sources []Source, dbPath string, opt BuildOptions) (*DB, error) {
	db, err := Count(sources, opt)
	if err != nil {
		return nil, err
	}
	if err := db.Save(dbPath); err != nil {
		return nil, err
	}
	return db, nil
}

// DumpKmerCounts writes every (kmer, count) pair of the database at
// dbPath to outPath as tab-separated text, gzip-compressed when outPath
// ends in .gz. The output appears atomically or not at all.
func DumpKmerCounts(dbPath, outPath string) error {
	db, err := LoadDB(dbPath)
	if err != nil {
		return err
	}
	tmp := tmpName(outPath)
	outfh, err := xopen.Wopen(tmp)
	if err != nil {
		return err
	}
	if err := db.WriteCounts(outfh); err != nil {
		outfh.Close()
		os.Remove(tmp)
		return err
	}
	if err := outfh.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, outPath)
}

// FilterByKmers streams reads from readsIn, keeps those whose
// occurrence sum against the database at dbPath satisfies the
// thresholds, and writes them to readsOut with identifier and sequence
// content unchanged, preserving input order. A failed filter leaves any
// previous readsOut untouched.
//
// onRead, when non-nil, is called once per input read (progress only).
func FilterByKmers(dbPath, readsIn, readsOut string, min, max Threshold, onRead func()) (kept, total int64, err error) {
	db, err := LoadDB(dbPath)
	if err != nil {
		return 0, 0, err
	}

	reader, err := fastx.NewDefaultReader(readsIn)
	if err != nil {
		return 0, 0, inputError(err, readsIn)
	}
	defer reader.Close()

	tmp := tmpName(readsOut)
	outfh, err := xopen.Wopen(tmp)
	if err != nil {
		return 0, 0, err
	}
	fail := func(e error) (int64, int64, error) {
		outfh.Close()
		os.Remove(tmp)
		return 0, 0, e
	}

	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return fail(inputError(err, readsIn))
		}
		total++
		if onRead != nil {
			onRead()
		}
		if Keep(db, string(record.Seq.Seq), min, max) {
			record.FormatToWriter(outfh, 0)
			kept++
		}
	}

	if err := outfh.Close(); err != nil {
		return fail(err)
	}
	if err := os.Rename(tmp, readsOut); err != nil {
		return fail(err)
	}
	return kept, total, nil
}
