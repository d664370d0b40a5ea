package hrtf

import "github.com/tphakala/go-hrtf/internal/mhr"

// Filter geometry. Every stored impulse response occupies HrirLength
// samples per ear; shorter measured responses are zero-padded on load.
const (
	// HrirLength is the fixed per-ear filter length, in samples.
	HrirLength = 1024

	// HistoryLength is the input history a renderer must retain to
	// honour the largest representable onset delay.
	HistoryLength = mhr.HistoryLength

	// MaxHrirDelay is the largest whole-sample onset delay.
	MaxHrirDelay = mhr.MaxHrirDelay

	// MinIRSize and ModIRSize bound the effective filter length: it is
	// never shortened below MinIRSize and is kept a ModIRSize multiple.
	MinIRSize = mhr.MinIRSize
	ModIRSize = mhr.ModIRSize
)

// Fixed-point delay representation shared with the on-disk format.
const (
	delayFracBits = mhr.DelayFracBits
	delayFracOne  = mhr.DelayFracOne
	delayFracHalf = mhr.DelayFracHalf
)

// PassthruCoeff is the gain of the direct pass-through term mixed in as
// a query's spread widens toward omnidirectional. Equal to sqrt(0.5),
// -3dB per ear.
const PassthruCoeff = 0.70710678118654752440084436210485

// Ambisonic channel layout for decoder baking. Channels are indexed in
// ACN order; ambiOrderFromChannel gives each channel's ambisonic order.
const (
	MaxAmbiOrder    = 3
	MaxAmbiChannels = (MaxAmbiOrder + 1) * (MaxAmbiOrder + 1)
)

var ambiOrderFromChannel = [MaxAmbiChannels]uint8{
	0,
	1, 1, 1,
	2, 2, 2, 2, 2,
	3, 3, 3, 3, 3, 3, 3,
}

// xoverFreq is the crossover frequency in Hz separating the low and
// high bands of a dual-band decoder bake.
const xoverFreq = 400
