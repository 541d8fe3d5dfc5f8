package kmerdb

import (
	"strconv"
	"strings"
)

// A Threshold bounds a read's occurrence sum from one side. It is
// either unset (that side of the comparison always passes), an absolute
// count, or a fraction of the read's window count resolved per read.
type Threshold struct {
	kind thresholdKind
	abs  uint64
	frac float64
}

type thresholdKind int

const (
	thresholdUnset thresholdKind = iota
	thresholdAbs
	thresholdFrac
)

// Abs returns an absolute-count threshold.
func Abs(n uint64) Threshold {
	return Threshold{kind: thresholdAbs, abs: n}
}

// Frac returns a threshold relative to a read's window count; f must
// lie in (0, 1].
func Frac(f float64) (Threshold, error) {
	if f <= 0 || f > 1 {
		return Threshold{}, configErrorf("fractional threshold must be in (0,1], got %g", f)
	}
	return Threshold{kind: thresholdFrac, frac: f}, nil
}

// IsSet reports whether the threshold constrains anything.
func (t Threshold) IsSet() bool {
	return t.kind != thresholdUnset
}

// ParseThreshold reads a threshold from its command-line form. An empty
// string is unset; a token containing '.' or an exponent is a fraction
// in (0,1]; anything else is a non-negative absolute count. So "1" is
// one occurrence, "1.0" is the whole read.
func ParseThreshold(s string) (Threshold, error) {
	if s == "" {
		return Threshold{}, nil
	}
	if strings.ContainsAny(s, ".eE") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Threshold{}, configErrorf("bad threshold %q", s)
		}
		return Frac(f)
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return Threshold{}, configErrorf("bad threshold %q", s)
	}
	return Abs(n), nil
}

// resolve turns the threshold into the absolute bound used for one
// read. Fractions truncate: floor(f * nWindows). An unset threshold
// resolves to the read's own occurrence sum, trivially satisfying its
// side of the comparison.
func (t Threshold) resolve(nWindows int, readOccs uint64) uint64 {
	switch t.kind {
	case thresholdAbs:
		return t.abs
	case thresholdFrac:
		return uint64(t.frac * float64(nWindows))
	default:
		return readOccs
	}
}

// ReadOccs recomputes a read's valid k-mer windows with the database's
// own k and strand setting and sums the stored count of each window,
// with multiplicity. It also returns the read's total window count
// (valid or not), which fractional thresholds resolve against.
func ReadOccs(db *DB, read string) (occs uint64, nWindows int) {
	scanKmers(read, db.K, func(kmer string) {
		if !db.SingleStrand {
			kmer = Canonical(kmer)
		}
		occs += db.Lookup(kmer)
	})
	return occs, numWindows(len(read), db.K)
}

// Keep reports whether a read passes the filter:
// resolvedMin <= readOccs <= resolvedMax. A read shorter than the
// database's k has zero windows and a zero occurrence sum, so it is
// kept only when both bounds permit 0.
func Keep(db *DB, read string, min, max Threshold) bool {
	occs, nWindows := ReadOccs(db, strings.ToUpper(read))
	return min.resolve(nWindows, occs) <= occs && occs <= max.resolve(nWindows, occs)
}
