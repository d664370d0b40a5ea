package hrtf

import (
	"github.com/tphakala/go-hrtf/internal/bandsplit"
)

// AngularPoint is one sample direction of a decoder bake, in radians.
type AngularPoint struct {
	Elev float32
	Azim float32
}

// bakeBaseDelay is the extra onset delay, in samples, inserted by a
// dual-band bake so the band splitter's pre-ring has room before each
// response.
const bakeBaseDelay = 16

// delayRound converts a fixed-point delay to the nearest whole sample.
func delayRound(d uint32) uint32 {
	return (d + delayFracHalf) >> delayFracBits
}

// pointResponse is one sample direction's blended response pair and
// fixed-point onset delays.
type pointResponse struct {
	hrir   [HrirLength][2]float64
	ldelay uint32
	rdelay uint32
}

// BuildBFormat bakes the store into one FIR filter pair per ambisonic
// channel of state. Each sample direction's response is blended from
// the store's nearest field, delay-aligned, weighted by the decoder
// matrix and accumulated into every channel. The response is split at
// 400 Hz and the high band scaled by the channel order's HF gain from
// hfGains; channels follow ACN ordering. matrix must hold one row of
// per-channel gains for every point, and len(state.Coeffs) must not
// exceed MaxAmbiChannels.
func (s *Store) BuildBFormat(state *DirectState, points []AngularPoint, matrix [][MaxAmbiChannels]float64, hfGains [MaxAmbiOrder + 1]float32) error {
	return s.buildBFormat(state, points, matrix, hfGains, true)
}

func (s *Store) buildBFormat(state *DirectState, points []AngularPoint, matrix [][MaxAmbiChannels]float64, hfGains [MaxAmbiOrder + 1]float32, dualBand bool) error {
	channels := len(state.Coeffs)

	impres := make([]pointResponse, len(points))
	minDelay := uint32(HistoryLength * delayFracOne)
	maxDelay := uint32(0)
	for p, pt := range points {
		res := &impres[p]
		idx, blend := s.cornerBlend(0, s.fields[0].EvCount, pt.Elev, pt.Azim)

		irSize := int(s.irSize)
		for k, w := range blend {
			ir := &s.coeffs[idx[k]]
			w64 := float64(w)
			for j := 0; j < irSize; j++ {
				res.hrir[j][0] += float64(ir[j][0]) * w64
				res.hrir[j][1] += float64(ir[j][1]) * w64
			}
		}
		var ldelay, rdelay float64
		for k, w := range blend {
			ldelay += float64(s.delays[idx[k]][0]) * float64(w)
			rdelay += float64(s.delays[idx[k]][1]) * float64(w)
		}
		res.ldelay = uint32(ldelay)
		res.rdelay = uint32(rdelay)

		minDelay = min(minDelay, min(res.ldelay, res.rdelay))
		maxDelay = max(maxDelay, max(res.ldelay, res.rdelay))
	}

	var splitter *bandsplit.Splitter
	baseDelay := uint32(0)
	if dualBand {
		sp, err := bandsplit.New(xoverFreq / float64(s.sampleRate))
		if err != nil {
			return err
		}
		splitter = sp
		baseDelay = bakeBaseDelay
	}

	tmpres := make([][HrirLength][2]float64, channels)
	var tmpflt [3][]float64
	if dualBand {
		for i := range tmpflt {
			tmpflt[i] = make([]float64, HrirLength*4)
		}
	}

	for p := range impres {
		res := &impres[p]
		ldelay := delayRound(res.ldelay-minDelay) + baseDelay
		rdelay := delayRound(res.rdelay-minDelay) + baseDelay

		if !dualBand {
			numirs := HrirLength - max(ldelay, rdelay)
			for i := 0; i < channels; i++ {
				mult := float64(hfGains[ambiOrderFromChannel[i]]) * matrix[p][i]
				lidx, ridx := ldelay, rdelay
				for j := uint32(0); j < numirs; j++ {
					tmpres[i][lidx][0] += res.hrir[j][0] * mult
					tmpres[i][ridx][1] += res.hrir[j][1] * mult
					lidx++
					ridx++
				}
			}
			continue
		}

		for ear := 0; ear < 2; ear++ {
			// Load the response backwards into the head of a padded
			// buffer, run the splitter's all-pass over it and reverse
			// the result. The forward response then carries a negated
			// phase shift that the later band split cancels, leaving
			// both bands phase-matched to the original response.
			tempir := tmpflt[2]
			clear(tempir)
			for j := 0; j < HrirLength; j++ {
				tempir[j] = res.hrir[HrirLength-1-j][ear]
			}
			splitter.ApplyAllpass(tempir)
			for i, j := 0, len(tempir)-1; i < j; i, j = i+1, j-1 {
				tempir[i], tempir[j] = tempir[j], tempir[i]
			}

			splitter.Clear()
			splitter.Process(tmpflt[1], tmpflt[0], tempir)

			delay := ldelay
			if ear == 1 {
				delay = rdelay
			}
			for i := 0; i < channels; i++ {
				mult := matrix[p][i]
				hfgain := float64(hfGains[ambiOrderFromChannel[i]])
				j := HrirLength*3 - delay
				for oidx := 0; oidx < HrirLength; oidx, j = oidx+1, j+1 {
					tmpres[i][oidx][ear] += (tmpflt[0][j]*hfgain + tmpflt[1][j]) * mult
				}
			}
		}
	}

	for i := 0; i < channels; i++ {
		for j := 0; j < HrirLength; j++ {
			state.Coeffs[i][j][0] = float32(tmpres[i][j][0])
			state.Coeffs[i][j][1] = float32(tmpres[i][j][1])
		}
	}

	maxDelay -= minDelay
	irsize := min(s.irSize+baseDelay*2, HrirLength)
	maxLength := min(delayRound(maxDelay)+irsize, HrirLength)
	maxLength += (ModIRSize - maxLength%ModIRSize) % ModIRSize
	state.IrSize = maxLength
	return nil
}
