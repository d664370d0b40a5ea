package hrtf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bakeStore builds a single-column store with a unit impulse at the
// horizon response, tap zero on both ears.
func bakeStore(delays [2]uint8) *Store {
	d := testData(44100, 8, []uint16{1, 1, 1, 1, 1})
	d.Coeffs[2*8] = [2]float32{1, 1}
	d.Delays[2] = delays
	return newStore(d, testLogger)
}

var (
	horizonPoint = []AngularPoint{{Elev: 0, Azim: 0}}
	unityGains   = [MaxAmbiOrder + 1]float32{1, 1, 1, 1}
)

func TestBuildBFormatSingleBand(t *testing.T) {
	t.Run("copies impulse at zero delay", func(t *testing.T) {
		s := bakeStore([2]uint8{0, 0})
		state := NewDirectState(1)
		matrix := [][MaxAmbiChannels]float64{{1}}

		require.NoError(t, s.buildBFormat(state, horizonPoint, matrix, unityGains, false))
		assert.Equal(t, uint32(8), state.IrSize)
		assert.Equal(t, [2]float32{1, 1}, state.Coeffs[0][0])
		for j := 1; j < HrirLength; j++ {
			assert.Equal(t, [2]float32{}, state.Coeffs[0][j], "tap %d", j)
		}
	})

	t.Run("hf gain scales the whole response", func(t *testing.T) {
		s := bakeStore([2]uint8{0, 0})
		state := NewDirectState(1)
		matrix := [][MaxAmbiChannels]float64{{1}}
		gains := [MaxAmbiOrder + 1]float32{0.5, 1, 1, 1}

		require.NoError(t, s.buildBFormat(state, horizonPoint, matrix, gains, false))
		assert.Equal(t, [2]float32{0.5, 0.5}, state.Coeffs[0][0])
	})

	t.Run("matrix weights each channel", func(t *testing.T) {
		s := bakeStore([2]uint8{0, 0})
		state := NewDirectState(2)
		matrix := [][MaxAmbiChannels]float64{{1, 0.25}}

		require.NoError(t, s.buildBFormat(state, horizonPoint, matrix, unityGains, false))
		assert.Equal(t, [2]float32{1, 1}, state.Coeffs[0][0])
		assert.Equal(t, [2]float32{0.25, 0.25}, state.Coeffs[1][0])
	})

	t.Run("aligns ears by relative delay", func(t *testing.T) {
		// Fixed-point delays 8 and 16: the smaller is subtracted from
		// both, leaving the right ear two whole samples behind.
		s := bakeStore([2]uint8{8, 16})
		state := NewDirectState(1)
		matrix := [][MaxAmbiChannels]float64{{1}}

		require.NoError(t, s.buildBFormat(state, horizonPoint, matrix, unityGains, false))
		assert.Equal(t, float32(1), state.Coeffs[0][0][0])
		assert.Equal(t, float32(0), state.Coeffs[0][0][1])
		assert.Equal(t, float32(1), state.Coeffs[0][2][1])
		assert.Equal(t, uint32(10), state.IrSize)
	})
}

func TestBuildBFormatDualBand(t *testing.T) {
	s := bakeStore([2]uint8{0, 0})
	state := NewDirectState(1)
	matrix := [][MaxAmbiChannels]float64{{1}}

	require.NoError(t, s.BuildBFormat(state, horizonPoint, matrix, unityGains))

	// The dual-band bake pads the filter for the splitter's pre-ring.
	assert.Equal(t, uint32(8+2*bakeBaseDelay), state.IrSize)

	// With unity gains both bands sum back to an all-pass of the
	// impulse, so the energy survives and the peak sits at the base
	// delay.
	var energy float64
	peak := 0
	for j := 0; j < HrirLength; j++ {
		v := float64(state.Coeffs[0][j][0])
		energy += v * v
		if math.Abs(v) > math.Abs(float64(state.Coeffs[0][peak][0])) {
			peak = j
		}
	}
	assert.InEpsilon(t, 1.0, energy, 0.1)
	assert.InDelta(t, bakeBaseDelay, peak, 2)
}

func TestBuildBFormatAccumulatesPoints(t *testing.T) {
	// Two identical points with half weight each reproduce the single
	// point's response.
	s := bakeStore([2]uint8{0, 0})
	state := NewDirectState(1)
	points := []AngularPoint{{Elev: 0, Azim: 0}, {Elev: 0, Azim: 0}}
	matrix := [][MaxAmbiChannels]float64{{0.5}, {0.5}}

	require.NoError(t, s.buildBFormat(state, points, matrix, unityGains, false))
	assert.Equal(t, [2]float32{1, 1}, state.Coeffs[0][0])
}
