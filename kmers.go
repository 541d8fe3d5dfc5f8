// Package kmerdb builds databases of canonical k-mer counts from DNA
// sequences and filters reads by how strongly their k-mer content is
// represented in such a database.
package kmerdb

var complementTable = [256]byte{
	'A': 'T', 'T': 'A', 'G': 'C', 'C': 'G',
	'a': 't', 't': 'a', 'g': 'c', 'c': 'g',
}

// ReverseComplement returns the reverse complement of a DNA sequence
// over the alphabet {A,C,G,T}.
func ReverseComplement(seq string) string {
	rc := make([]byte, len(seq))
	for i := 0; i < len(seq); i++ {
		rc[len(seq)-1-i] = complementTable[seq[i]]
	}
	return string(rc)
}

// Canonical returns the strand-independent representative of a k-mer:
// the lexicographically smaller of the k-mer and its reverse complement.
func Canonical(kmer string) string {
	rc := ReverseComplement(kmer)
	if rc < kmer {
		return rc
	}
	return kmer
}

func validBase(b byte) bool {
	return b == 'A' || b == 'C' || b == 'G' || b == 'T'
}

// scanKmers calls fn for every k-mer window of seq, left to right,
// skipping any window that overlaps a non-ACGT base. A base at position i
// invalidates every window start in [max(0,i-k+1), min(nWindows,i+1)).
// A sequence shorter than k yields no windows. Duplicate windows are all
// emitted; counting happens downstream.
func scanKmers(seq string, k int, fn func(kmer string)) {
	nWindows := len(seq) - k + 1
	if nWindows <= 0 {
		return
	}

	// next start position whose window is known bad-base free
	validFrom := 0
	for i := 0; i < len(seq); i++ {
		if !validBase(seq[i]) {
			lo := i - k + 1
			if lo < 0 {
				lo = 0
			}
			for s := validFrom; s < lo; s++ {
				if s < nWindows {
					fn(seq[s : s+k])
				}
			}
			if validFrom < i+1 {
				validFrom = i + 1
			}
		}
	}
	for s := validFrom; s < nWindows; s++ {
		fn(seq[s : s+k])
	}
}

// numWindows returns the number of candidate k-mer windows in a sequence
// of length l, valid or not.
func numWindows(l, k int) int {
	if l < k {
		return 0
	}
	return l - k + 1
}
