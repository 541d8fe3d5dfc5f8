package kmerdb

import (
	"testing"

	"github.com/pkg/errors"
)

func mustFrac(t *testing.T, f float64) Threshold {
	t.Helper()
	th, err := Frac(f)
	if err != nil {
		t.Fatalf("Frac(%g): %v", f, err)
	}
	return th
}

func TestParseThreshold(t *testing.T) {
	cases := []struct {
		in   string
		want Threshold
		err  bool
	}{
		{in: "", want: Threshold{}},
		{in: "0", want: Abs(0)},
		{in: "80", want: Abs(80)},
		{in: "1", want: Abs(1)},
		{in: "0.7", want: Threshold{kind: thresholdFrac, frac: 0.7}},
		{in: "1.0", want: Threshold{kind: thresholdFrac, frac: 1}},
		{in: "1.5", err: true},
		{in: "0.0", err: true},
		{in: "-1", err: true},
		{in: "abc", err: true},
	}
	for _, c := range cases {
		got, err := ParseThreshold(c.in)
		if c.err {
			if !errors.Is(err, ErrConfig) {
				t.Errorf("ParseThreshold(%q): want ErrConfig, got %v", c.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseThreshold(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseThreshold(%q) = %+v, want %+v", c.in, got, c.want)
		}
	}
}

// A fraction resolves to floor(f * nWindows) for that read's window count.
func TestFractionalResolution(t *testing.T) {
	cases := []struct {
		f        float64
		nWindows int
		want     uint64
	}{
		{0.7, 5, 3}, // read of length 11 with k=7
		{0.5, 5, 2},
		{1.0, 5, 5},
		{0.9, 10, 9},
		{0.3, 0, 0},
	}
	for _, c := range cases {
		th := mustFrac(t, c.f)
		if got := th.resolve(c.nWindows, 12345); got != c.want {
			t.Errorf("Frac(%g).resolve(nWindows=%d) = %d, want %d", c.f, c.nWindows, got, c.want)
		}
	}
}

func TestUnsetThresholdAlwaysPasses(t *testing.T) {
	var th Threshold
	for _, occs := range []uint64{0, 1, 999} {
		if got := th.resolve(5, occs); got != occs {
			t.Errorf("unset threshold must resolve to readOccs (%d), got %d", occs, got)
		}
	}
}

func buildTestDB(t *testing.T, seqs []string, opt BuildOptions) *DB {
	t.Helper()
	db, err := Count(sourcesOf(seqs...), opt)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	return db
}

func TestReadOccs(t *testing.T) {
	// db from "ACGTACGT" k=3 singleStrand: ACG:2, CGT:2, GTA:1, TAC:1
	db := buildTestDB(t, []string{"ACGTACGT"}, BuildOptions{K: 3, SingleStrand: true})

	occs, nWindows := ReadOccs(db, "ACGT")
	// windows ACG, CGT -> 2 + 2
	if occs != 4 || nWindows != 2 {
		t.Fatalf("got occs=%d nWindows=%d, want 4, 2", occs, nWindows)
	}

	// absent kmers contribute 0
	occs, _ = ReadOccs(db, "GGGG")
	if occs != 0 {
		t.Fatalf("absent kmers must contribute 0, got %d", occs)
	}

	// occurrence sum carries multiplicity
	occs, _ = ReadOccs(db, "ACGACG")
	// windows ACG, CGA, GAC, ACG -> 2 + 0 + 0 + 2
	if occs != 4 {
		t.Fatalf("multiplicity: got %d, want 4", occs)
	}
}

func TestReadOccsUsesDBStrandSetting(t *testing.T) {
	canon := buildTestDB(t, []string{"AAAA"}, BuildOptions{K: 4})
	single := buildTestDB(t, []string{"AAAA"}, BuildOptions{K: 4, SingleStrand: true})

	// reverse-complement read hits the canonical db but not the single-strand one
	if occs, _ := ReadOccs(canon, "TTTT"); occs != 1 {
		t.Fatalf("canonical db: got %d, want 1", occs)
	}
	if occs, _ := ReadOccs(single, "TTTT"); occs != 0 {
		t.Fatalf("single-strand db: got %d, want 0", occs)
	}
}

func TestKeep(t *testing.T) {
	db := buildTestDB(t, []string{"TCGATCGATCGA", "ATTTATTTATTTATTTATTT"}, BuildOptions{K: 7})

	// a read equal to the first input must have read_occs > 0
	if !Keep(db, "TCGATCGATCGA", Abs(1), Threshold{}) {
		t.Fatal("read equal to an input sequence must pass readMinOccs=1")
	}
	if !Keep(db, "TCGATCGATCGA", Threshold{}, Threshold{}) {
		t.Fatal("unset thresholds keep everything")
	}
	if Keep(db, "GGGGGGGGGGGG", Abs(1), Threshold{}) {
		t.Fatal("read with no database kmers must fail readMinOccs=1")
	}
	if !Keep(db, "GGGGGGGGGGGG", Threshold{}, Abs(0)) {
		t.Fatal("readMaxOccs=0 keeps reads with zero occurrences")
	}

	occs, _ := ReadOccs(db, "TCGATCGATCGA")
	if Keep(db, "TCGATCGATCGA", Threshold{}, Abs(occs-1)) {
		t.Fatal("readMaxOccs below the occurrence sum must drop the read")
	}
	if !Keep(db, "TCGATCGATCGA", Abs(occs), Abs(occs)) {
		t.Fatal("bounds are inclusive")
	}
}

func TestKeepShortRead(t *testing.T) {
	db := buildTestDB(t, []string{"TCGATCGATCGA"}, BuildOptions{K: 7})

	// shorter than k: zero windows, zero occurrences
	if !Keep(db, "ACG", Threshold{}, Threshold{}) {
		t.Fatal("short read with unset bounds must be kept")
	}
	if !Keep(db, "ACG", Abs(0), Threshold{}) {
		t.Fatal("short read passes readMinOccs=0")
	}
	if Keep(db, "ACG", Abs(1), Threshold{}) {
		t.Fatal("short read must fail readMinOccs=1")
	}
	// a fraction of zero windows resolves to 0
	if !Keep(db, "ACG", mustFrac(t, 0.7), Threshold{}) {
		t.Fatal("fractional bound over zero windows resolves to 0")
	}
}

func TestKeepFractionalAgainstEmptyDB(t *testing.T) {
	db := buildTestDB(t, nil, BuildOptions{K: 7})

	if !Keep(db, "TCGATCGATCGA", Threshold{}, Threshold{}) {
		t.Fatal("empty db, unset bounds: keep")
	}
	if !Keep(db, "TCGATCGATCGA", Abs(0), Threshold{}) {
		t.Fatal("empty db, readMinOccs=0: keep")
	}
	if Keep(db, "TCGATCGATCGA", Abs(1), Threshold{}) {
		t.Fatal("empty db, readMinOccs=1: drop")
	}
}

func TestKeepLowercaseRead(t *testing.T) {
	db := buildTestDB(t, []string{"TCGATCGATCGA"}, BuildOptions{K: 7})
	if !Keep(db, "tcgatcgatcga", Abs(1), Threshold{}) {
		t.Fatal("reads are uppercased before scanning")
	}
}
