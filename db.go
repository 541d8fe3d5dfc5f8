package kmerdb

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/twotwotwo/sorts/sortutil"
)

// DB is a k-mer count database: canonical k-mer -> occurrence count,
// together with the build parameters needed to query it consistently.
// A DB is immutable once built; rebuilding means a fresh Count pass.
type DB struct {
	K            int
	SingleStrand bool
	Counts       map[string]uint64
}

// Lookup returns the stored count for a k-mer, 0 if absent.
func (db *DB) Lookup(kmer string) uint64 {
	return db.Counts[kmer]
}

// Len returns the number of stored k-mers.
func (db *DB) Len() int {
	return len(db.Counts)
}

// Save writes the database to filename as gzip-compressed gob. The file
// is written to a temporary name and renamed into place, so a failed
// save leaves no artifact behind.
func (db *DB) Save(filename string) error {
	tmp := filename + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return err
	}
	gzWriter := gzip.NewWriter(file)
	encoder := gob.NewEncoder(gzWriter)
	if err := encoder.Encode(db); err != nil {
		file.Close()
		os.Remove(tmp)
		return err
	}
	if err := gzWriter.Close(); err != nil {
		file.Close()
		os.Remove(tmp)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, filename)
}

// LoadDB reads a database written by Save.
func LoadDB(filename string) (*DB, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, inputError(err, filename)
	}
	defer file.Close()
	gzReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, inputError(err, filename)
	}
	defer gzReader.Close()
	var db DB
	decoder := gob.NewDecoder(gzReader)
	if err := decoder.Decode(&db); err != nil {
		return nil, errors.Wrapf(ErrInput, "%s: not a kmer database: %v", filename, err)
	}
	if db.K < 1 {
		return nil, errors.Wrapf(ErrInput, "%s: corrupt kmer database: k=%d", filename, db.K)
	}
	if db.Counts == nil {
		db.Counts = make(map[string]uint64)
	}
	return &db, nil
}

// WriteCounts writes every stored (kmer, count) pair as one
// tab-separated line. Pairs are sorted by k-mer so dumps of the same
// database are byte-identical.
func (db *DB) WriteCounts(w io.Writer) error {
	kmers := make([]string, 0, len(db.Counts))
	for kmer := range db.Counts {
		kmers = append(kmers, kmer)
	}
	sortutil.Strings(kmers)
	for _, kmer := range kmers {
		if _, err := fmt.Fprintf(w, "%s\t%d\n", kmer, db.Counts[kmer]); err != nil {
			return err
		}
	}
	return nil
}
