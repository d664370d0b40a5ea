package hrtf

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-hrtf/internal/mhr"
)

func TestNewStore(t *testing.T) {
	t.Run("copies layout", func(t *testing.T) {
		d := grid14(44100)
		d.Fields[0].DistanceMM = 1400
		d.Coeffs[8*8+7][0] = 0.75 // last tap of response 8
		d.Delays[8] = [2]uint8{12, 16}

		s := newStore(d, testLogger)
		assert.Equal(t, uint32(44100), s.SampleRate())
		assert.Equal(t, uint32(8), s.IRSize())
		require.Len(t, s.Fields(), 1)
		assert.InDelta(t, 1.4, s.Fields()[0].Distance, 1e-6)
		assert.Equal(t, uint8(5), s.Fields()[0].EvCount)
		require.Len(t, s.coeffs, 14)
		require.Len(t, s.elev, 5)
		assert.Equal(t, Elevation{AzCount: 4, IrOffset: 5}, s.elev[2])
		assert.Equal(t, [2]uint8{12, 16}, s.delays[8])
	})

	t.Run("zero pads tails", func(t *testing.T) {
		d := grid14(44100)
		for i := range d.Coeffs {
			d.Coeffs[i][0] = 1
			d.Coeffs[i][1] = -1
		}
		s := newStore(d, testLogger)
		assert.Equal(t, [2]float32{1, -1}, s.coeffs[3][7])
		for j := 8; j < HrirLength; j++ {
			assert.Equal(t, [2]float32{}, s.coeffs[3][j])
		}
	})

	t.Run("starts with one reference", func(t *testing.T) {
		s := newStore(grid14(44100), testLogger)
		assert.Equal(t, uint32(1), s.ref.Load())
		assert.Equal(t, uint32(2), s.IncRef())
		assert.Equal(t, uint32(1), s.DecRef())
		assert.Equal(t, uint32(0), s.DecRef())
	})
}

func TestNewDirectState(t *testing.T) {
	st := NewDirectState(4)
	assert.Equal(t, uint32(0), st.IrSize)
	assert.Len(t, st.Coeffs, 4)
}

func TestNormalize(t *testing.T) {
	t.Run("same rate is a no-op", func(t *testing.T) {
		d := grid14(48000)
		d.Delays[0] = [2]uint8{40, 40}
		s := newStore(d, testLogger)
		require.NoError(t, s.normalize(48000))
		assert.Equal(t, uint32(48000), s.SampleRate())
		assert.Equal(t, uint32(8), s.IRSize())
		assert.Equal(t, [2]uint8{40, 40}, s.delays[0])
	})

	t.Run("rescales delays and length", func(t *testing.T) {
		d := grid14(44100)
		d.Delays[0] = [2]uint8{8, 9}
		d.Delays[1] = [2]uint8{250, 0}
		s := newStore(d, testLogger)
		require.NoError(t, s.normalize(88200))

		assert.Equal(t, uint32(88200), s.SampleRate())
		assert.Equal(t, uint32(16), s.IRSize())
		assert.Equal(t, [2]uint8{16, 18}, s.delays[0])
		// Doubling 250 exceeds the representable range and saturates.
		assert.Equal(t, uint8(MaxHrirDelay*delayFracOne), s.delays[1][0])
	})
}

func TestStoreBuiltFromLoader(t *testing.T) {
	// A store built from loader output takes its response count and
	// sample rate from the parsed data set.
	raw := buildTestMHR(48000, 8, []uint8{1, 1, 1, 1, 1})
	d, err := mhr.Load(bytes.NewReader(raw))
	require.NoError(t, err)
	s := newStore(d, testLogger)
	assert.Equal(t, 5, len(s.coeffs))
	assert.Equal(t, uint32(48000), s.SampleRate())
}
