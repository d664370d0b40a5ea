// Package mhr parses MinPHR binary HRTF data sets (the ".mhr" format,
// versions 0 through 2) into a validated in-memory representation.
//
// The format begins with an 8-byte ASCII magic ("MinPHR00", "MinPHR01" or
// "MinPHR02") followed by a version-specific layout. All integers are
// little-endian. Coefficients are signed 16- or 24-bit samples normalized
// to [-1, 1) on load.
package mhr

// Data set limits. These must be the same as or more flexible than the
// limits used by the tools that author .mhr files.
const (
	// MinIRSize and MaxIRSize bound the impulse response length in
	// samples; the length must also be a multiple of ModIRSize.
	MinIRSize = 8
	MaxIRSize = 512
	ModIRSize = 2

	// MinFdCount and MaxFdCount bound the number of field depths.
	MinFdCount = 1
	MaxFdCount = 16

	// MinFdDistance and MaxFdDistance bound a field's measurement
	// distance in millimeters.
	MinFdDistance = 50
	MaxFdDistance = 2500

	// MinEvCount and MaxEvCount bound the elevations per field.
	MinEvCount = 5
	MaxEvCount = 181

	// MinAzCount and MaxAzCount bound the azimuths per elevation.
	MinAzCount = 1
	MaxAzCount = 255
)

// Delay representation. Stored delays are fixed-point sample counts with
// DelayFracBits fractional bits.
const (
	HistoryLength = 64
	MaxHrirDelay  = HistoryLength - 1

	DelayFracBits = 2
	DelayFracOne  = 1 << DelayFracBits
	DelayFracHalf = DelayFracOne >> 1
)

// Delays are stored in a byte per ear; the fixed-point form must fit.
const _ uint8 = MaxHrirDelay * DelayFracOne

// Sample and channel type tags used by the version-2 layout.
const (
	sampleTypeS16 = 0
	sampleTypeS24 = 1

	chanTypeLeftOnly  = 0
	chanTypeLeftRight = 1
)

// Field describes one field depth of a data set.
type Field struct {
	// DistanceMM is the measurement distance in millimeters; zero for
	// the single implicit field of version-0 and version-1 sets.
	DistanceMM uint16

	// EvCount is the number of elevations measured at this distance.
	EvCount uint8
}

// Data is a fully validated data set as read from a .mhr stream.
//
// Elevations of all fields are concatenated: AzCounts and EvOffsets have
// one entry per elevation, ordered field by field. EvOffsets[e] is the
// index of elevation e's first impulse response. Coeffs holds stereo tap
// pairs packed with a stride of IRSize per response; Delays holds the
// fixed-point per-ear delay of each response.
type Data struct {
	Rate      uint32
	IRSize    uint16
	Fields    []Field
	AzCounts  []uint16
	EvOffsets []uint16
	Coeffs    [][2]float32
	Delays    [][2]uint8
}

// IRCount returns the total number of impulse responses in the set.
func (d *Data) IRCount() int { return len(d.Delays) }
