package hrtf

import "math"

// calcEvIndex maps an elevation in radians to a grid index and the
// blend toward the next elevation. Elevations run from -pi/2 at the
// bottom of the grid to +pi/2 at the top.
func calcEvIndex(evcount uint32, ev float64) (uint32, float32) {
	x := (math.Pi/2 + ev) * float64(evcount-1) / math.Pi
	fl := math.Floor(x)
	idx := uint32(fl)
	if idx > evcount-1 {
		idx = evcount - 1
	}
	return idx, float32(x - fl)
}

// calcAzIndex maps an azimuth in radians to a grid index and the blend
// toward the next azimuth. The grid wraps; the bias keeps the value
// non-negative before the wrap for azimuths down to -2pi.
func calcAzIndex(azcount uint32, az float64) (uint32, float32) {
	x := (2*math.Pi + az) * float64(azcount) / (2 * math.Pi)
	fl := math.Floor(x)
	idx := uint32(fl) % azcount
	return idx, float32(x - fl)
}

// cornerBlend computes the four surrounding response indices and
// bilinear weights for a direction within one field's grid. ebase is
// the index of the field's first elevation.
func (s *Store) cornerBlend(ebase uint32, evcount uint8, elevation, azimuth float32) (idx [4]uint32, blend [4]float32) {
	evIdx, evBlend := calcEvIndex(uint32(evcount), float64(elevation))
	ev1Idx := evIdx + 1
	if ev1Idx > uint32(evcount)-1 {
		ev1Idx = uint32(evcount) - 1
	}
	elev0 := s.elev[ebase+evIdx]
	elev1 := s.elev[ebase+ev1Idx]

	az0Idx, az0Blend := calcAzIndex(uint32(elev0.AzCount), float64(azimuth))
	az1Idx, az1Blend := calcAzIndex(uint32(elev1.AzCount), float64(azimuth))

	idx = [4]uint32{
		uint32(elev0.IrOffset) + az0Idx,
		uint32(elev0.IrOffset) + (az0Idx+1)%uint32(elev0.AzCount),
		uint32(elev1.IrOffset) + az1Idx,
		uint32(elev1.IrOffset) + (az1Idx+1)%uint32(elev1.AzCount),
	}
	blend = [4]float32{
		(1 - evBlend) * (1 - az0Blend),
		(1 - evBlend) * az0Blend,
		evBlend * (1 - az1Blend),
		evBlend * az1Blend,
	}
	return idx, blend
}

// GetCoeffs computes the impulse response pair and whole-sample onset
// delays for a point source. Elevation and azimuth are in radians,
// distance in meters. Spread widens the source from fully directional
// at 0 to omnidirectional at 2*pi, where only the pass-through term
// remains. The full coeffs array is written; samples at or beyond
// IRSize are zero apart from the pass-through term.
func (s *Store) GetCoeffs(elevation, azimuth, distance, spread float32, coeffs *HrirArray, delays *[2]uint32) {
	dirfact := 1 - spread/(2*math.Pi)

	var ebase uint32
	f := 0
	for f < len(s.fields)-1 && distance < s.fields[f].Distance {
		ebase += uint32(s.fields[f].EvCount)
		f++
	}

	idx, blend := s.cornerBlend(ebase, s.fields[f].EvCount, elevation, azimuth)
	for k := range blend {
		blend[k] *= dirfact
	}

	for c := 0; c < 2; c++ {
		d := float32(s.delays[idx[0]][c])*blend[0] +
			float32(s.delays[idx[1]][c])*blend[1] +
			float32(s.delays[idx[2]][c])*blend[2] +
			float32(s.delays[idx[3]][c])*blend[3]
		delays[c] = uint32(d) >> delayFracBits
	}

	coeffs[0][0] = PassthruCoeff * (1 - dirfact)
	coeffs[0][1] = PassthruCoeff * (1 - dirfact)
	for i := 1; i < HrirLength; i++ {
		coeffs[i] = [2]float32{}
	}
	irSize := int(s.irSize)
	for k, w := range blend {
		ir := &s.coeffs[idx[k]]
		for j := 0; j < irSize; j++ {
			coeffs[j][0] += ir[j][0] * w
			coeffs[j][1] += ir[j][1] * w
		}
	}
}
