package hrtf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tphakala/go-hrtf/internal/mhr"
)

func TestCalcEvIndex(t *testing.T) {
	tests := []struct {
		name    string
		evcount uint32
		ev      float64
		idx     uint32
		blend   float64
	}{
		{"bottom", 5, -math.Pi / 2, 0, 0},
		{"horizon", 5, 0, 2, 0},
		{"top clamps", 5, math.Pi / 2, 4, 0},
		{"between rows", 5, math.Pi / 8, 2, 0.5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			idx, blend := calcEvIndex(tc.evcount, tc.ev)
			assert.Equal(t, tc.idx, idx)
			assert.InDelta(t, tc.blend, blend, 1e-5)
		})
	}
}

func TestCalcAzIndex(t *testing.T) {
	tests := []struct {
		name    string
		azcount uint32
		az      float64
		idx     uint32
		blend   float64
	}{
		{"front", 4, 0, 0, 0},
		{"quarter turn", 4, math.Pi / 2, 1, 0},
		{"wraps negative", 4, -math.Pi / 2, 3, 0},
		{"between columns", 4, math.Pi / 4, 0, 0.5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			idx, blend := calcAzIndex(tc.azcount, tc.az)
			assert.Equal(t, tc.idx, idx)
			assert.InDelta(t, tc.blend, blend, 1e-5)
		})
	}
}

func TestGetCoeffsDirectional(t *testing.T) {
	// A data set that is zero except for one measured direction. A
	// fully directional query on a different direction returns silence.
	d := grid14(44100)
	d.Coeffs[8*8][0] = 1 // elevation 2, azimuth 3
	d.Coeffs[6*8][1] = 1 // its mirror
	s := newStore(d, testLogger)

	var coeffs HrirArray
	var delays [2]uint32
	s.GetCoeffs(0, 0, 1.0, 0, &coeffs, &delays)

	assert.Equal(t, [2]float32{}, coeffs[0])
	for j := range coeffs {
		assert.Equal(t, [2]float32{}, coeffs[j], "tap %d", j)
	}
	assert.Equal(t, [2]uint32{}, delays)
}

func TestGetCoeffsOmni(t *testing.T) {
	d := grid14(44100)
	for i := range d.Coeffs {
		d.Coeffs[i] = [2]float32{0.3, -0.3}
	}
	for i := range d.Delays {
		d.Delays[i] = [2]uint8{40, 40}
	}
	s := newStore(d, testLogger)

	var coeffs HrirArray
	var delays [2]uint32
	s.GetCoeffs(0, 0, 1.0, 2*math.Pi, &coeffs, &delays)

	assert.InDelta(t, PassthruCoeff, coeffs[0][0], 1e-6)
	assert.InDelta(t, PassthruCoeff, coeffs[0][1], 1e-6)
	for j := 1; j < HrirLength; j++ {
		assert.Equal(t, [2]float32{}, coeffs[j], "tap %d", j)
	}
	assert.Equal(t, [2]uint32{0, 0}, delays)
}

func TestGetCoeffsBilinearBlend(t *testing.T) {
	// Horizon row, halfway between azimuth columns 0 and 1.
	d := grid14(44100)
	d.Coeffs[5*8][0] = 0.4
	d.Coeffs[6*8][0] = 0.8
	s := newStore(d, testLogger)

	var coeffs HrirArray
	var delays [2]uint32
	s.GetCoeffs(0, math.Pi/4, 1.0, 0, &coeffs, &delays)

	assert.InDelta(t, 0.6, coeffs[0][0], 1e-6)
}

func TestGetCoeffsSpreadScalesDirection(t *testing.T) {
	d := grid14(44100)
	d.Coeffs[5*8][0] = 1
	s := newStore(d, testLogger)

	var coeffs HrirArray
	var delays [2]uint32
	s.GetCoeffs(0, 0, 1.0, math.Pi, &coeffs, &delays)

	// Half spread: half pass-through, half directional.
	assert.InDelta(t, 0.5+PassthruCoeff*0.5, coeffs[0][0], 1e-6)
	assert.InDelta(t, PassthruCoeff*0.5, coeffs[0][1], 1e-6)
}

func TestGetCoeffsDelayFloor(t *testing.T) {
	d := grid14(44100)
	for i := range d.Delays {
		d.Delays[i] = [2]uint8{7, 13}
	}
	s := newStore(d, testLogger)

	var coeffs HrirArray
	var delays [2]uint32
	s.GetCoeffs(0, 0, 1.0, 0, &coeffs, &delays)

	assert.Equal(t, uint32(1), delays[0]) // 7/4 floors to 1
	assert.Equal(t, uint32(3), delays[1]) // 13/4 floors to 3
}

func TestGetCoeffsRightDelayUsesFourthCorner(t *testing.T) {
	// Weighted between all four corners, with distinct right-ear
	// delays so every corner's weight must land on its own delay.
	d := grid14(44100)
	d.Delays[6] = [2]uint8{0, 52}   // elevation 2, column 1
	d.Delays[10] = [2]uint8{0, 104} // elevation 3, column 1
	s := newStore(d, testLogger)

	var coeffs HrirArray
	var delays [2]uint32
	// Elevation blend 0.25, azimuth blend 1/3.
	s.GetCoeffs(math.Pi/16, math.Pi/6, 1.0, 0, &coeffs, &delays)

	// 0.75*(1/3)*52 + 0.25*(1/3)*104 = 21.67 fixed point, 5 samples.
	assert.Equal(t, uint32(5), delays[1])
	assert.Equal(t, uint32(0), delays[0])
}

func TestGetCoeffsFieldWalk(t *testing.T) {
	// Two fields, farthest first as stored. The near query lands in
	// the second field's elevation group.
	d := grid14(44100)
	d.Fields = []mhr.Field{
		{DistanceMM: 1400, EvCount: 5},
		{DistanceMM: 300, EvCount: 5},
	}
	d.AzCounts = append(d.AzCounts, d.AzCounts...)
	d.EvOffsets = []uint16{0, 1, 5, 9, 13, 14, 15, 19, 23, 27}
	double := make([][2]float32, 2*len(d.Coeffs))
	copy(double, d.Coeffs)
	d.Coeffs = double
	d.Delays = make([][2]uint8, 28)

	// Mark the horizon response of each field.
	d.Coeffs[5*8][0] = 0.25  // far field
	d.Coeffs[19*8][0] = 0.75 // near field
	s := newStore(d, testLogger)

	var coeffs HrirArray
	var delays [2]uint32

	s.GetCoeffs(0, 0, 2.0, 0, &coeffs, &delays)
	assert.InDelta(t, 0.25, coeffs[0][0], 1e-6, "beyond farthest field")

	s.GetCoeffs(0, 0, 0.2, 0, &coeffs, &delays)
	assert.InDelta(t, 0.75, coeffs[0][0], 1e-6, "inside nearest field")
}
