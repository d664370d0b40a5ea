// Package bandsplit provides the two-band frequency splitter used when
// baking ambisonic HRIR decoders. It wraps a second-order Linkwitz-Riley
// crossover so the low and high bands stay phase-matched, and exposes the
// matching all-pass so other signals can be aligned with the split bands.
package bandsplit

import (
	"fmt"

	"github.com/cwbudde/algo-dsp/dsp/filter/crossover"
)

// internalRate is the sample rate the crossover is designed against.
// Callers pass normalized frequencies (cycles per sample), so the design
// rate is 1 and the Nyquist limit is 0.5.
const internalRate = 1.0

// Splitter splits a signal into a low and a high band around a normalized
// crossover frequency. The two bands sum to an all-pass filtered copy of
// the input, and ApplyAllpass runs that same all-pass on its own state so
// a full-band signal can be phase-matched to the split bands.
type Splitter struct {
	split   *crossover.Crossover
	allpass *crossover.Crossover
	lo, hi  []float64
}

// New creates a splitter with its crossover at f0norm cycles per sample.
// f0norm must lie in (0, 0.5).
func New(f0norm float64) (*Splitter, error) {
	split, err := crossover.New(f0norm, 2, internalRate)
	if err != nil {
		return nil, fmt.Errorf("bandsplit: %w", err)
	}
	allpass, err := crossover.New(f0norm, 2, internalRate)
	if err != nil {
		return nil, fmt.Errorf("bandsplit: %w", err)
	}
	return &Splitter{split: split, allpass: allpass}, nil
}

// Process splits input into its low and high bands. The low and high
// slices must be the same length as input. The filter state carries over
// between calls until Clear is called.
func (s *Splitter) Process(low, high, input []float64) {
	s.split.ProcessBlock(input, low, high)
}

// ApplyAllpass filters buf in place with the all-pass that the split
// bands share, leaving the magnitude untouched. The all-pass keeps its
// own state, separate from the splitting filters.
func (s *Splitter) ApplyAllpass(buf []float64) {
	if len(s.lo) < len(buf) {
		s.lo = make([]float64, len(buf))
		s.hi = make([]float64, len(buf))
	}
	lo := s.lo[:len(buf)]
	hi := s.hi[:len(buf)]
	s.allpass.ProcessBlock(buf, lo, hi)
	for i := range buf {
		buf[i] = lo[i] + hi[i]
	}
}

// Clear resets all filter state, both the band filters and the all-pass.
func (s *Splitter) Clear() {
	s.split.Reset()
	s.allpass.Reset()
}
