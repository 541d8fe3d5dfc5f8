package kmerdb

import (
	"runtime"
	"sync"
)

// MaxThreads is the largest worker count the counting pass supports.
// Asking for more is a configuration error, never a silent clamp.
const MaxThreads = 10

// BuildOptions parameterize one counting pass. K is required; the zero
// value of every other field means "unset".
type BuildOptions struct {
	K            int
	SingleStrand bool // keep strand orientation, skip canonicalization
	MinOccs      uint64
	MaxOccs      uint64
	CounterCap   uint64
	Threads      int
	MemLimitGB   float64

	// OnSequence, when non-nil, is called once per input sequence.
	// Progress reporting only; it must not block.
	OnSequence func()
}

// Validate checks the option combination; it runs before any input is
// touched so bad configurations fail fast.
func (opt *BuildOptions) Validate() error {
	if opt.K < 1 {
		return configErrorf("kmer size must be >= 1, got %d", opt.K)
	}
	if opt.Threads < 0 {
		return configErrorf("threads must be >= 0, got %d", opt.Threads)
	}
	if opt.Threads > MaxThreads {
		return configErrorf("threads must be <= %d, got %d", MaxThreads, opt.Threads)
	}
	if opt.MinOccs > 0 && opt.MaxOccs > 0 && opt.MinOccs > opt.MaxOccs {
		return configErrorf("minOccs (%d) exceeds maxOccs (%d)", opt.MinOccs, opt.MaxOccs)
	}
	return nil
}

func (opt *BuildOptions) threads() int {
	if opt.Threads > 0 {
		return opt.Threads
	}
	n := runtime.NumCPU()
	if n > MaxThreads {
		n = MaxThreads
	}
	if n < 1 {
		n = 1
	}
	return n
}

// mapSizeHint converts the memory limit into an initial capacity for the
// per-worker count maps. Purely a preallocation hint: the limit never
// changes what gets counted.
func (opt *BuildOptions) mapSizeHint() int {
	if opt.MemLimitGB <= 0 {
		return 1 << 16
	}
	hint := int(opt.MemLimitGB * float64(1<<20))
	if hint > 1<<24 {
		hint = 1 << 24
	}
	return hint
}

// Count runs the counting pass: every sequence from every source is
// scanned for valid k-mer windows, each window is canonicalized (unless
// single-strand mode is on), and occurrences are accumulated across all
// sources combined. K-mers whose total falls outside [MinOccs, MaxOccs]
// are dropped; survivors are clamped to CounterCap. The result is
// all-or-nothing: any source error fails the whole pass.
//
// Workers keep private count maps that are merged by per-key summation
// once the input is drained, so the result is identical for every valid
// thread count.
func Count(sources []Source, opt BuildOptions) (*DB, error) {
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	nWorkers := opt.threads()

	seqChan := make(chan string, nWorkers*4)
	partials := make([]map[string]uint64, nWorkers)

	var wg sync.WaitGroup
	for w := 0; w < nWorkers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			counts := make(map[string]uint64, opt.mapSizeHint()/nWorkers)
			for seq := range seqChan {
				scanKmers(seq, opt.K, func(kmer string) {
					if !opt.SingleStrand {
						kmer = Canonical(kmer)
					}
					counts[kmer]++
				})
			}
			partials[w] = counts
		}(w)
	}

	var feedErr error
	for _, src := range sources {
		if err := src.Each(func(seq string) error {
			seqChan <- seq
			if opt.OnSequence != nil {
				opt.OnSequence()
			}
			return nil
		}); err != nil {
			feedErr = err
			break
		}
	}
	close(seqChan)
	wg.Wait()
	if feedErr != nil {
		return nil, feedErr
	}

	total := partials[0]
	for _, p := range partials[1:] {
		for kmer, n := range p {
			total[kmer] += n
		}
	}

	for kmer, n := range total {
		if (opt.MinOccs > 0 && n < opt.MinOccs) || (opt.MaxOccs > 0 && n > opt.MaxOccs) {
			delete(total, kmer)
			continue
		}
		if opt.CounterCap > 0 && n > opt.CounterCap {
			total[kmer] = opt.CounterCap
		}
	}

	return &DB{K: opt.K, SingleStrand: opt.SingleStrand, Counts: total}, nil
}
