package hrtf

import (
	"fmt"

	resampler "github.com/tphakala/go-audio-resampler"
)

// normalize retunes the store from its file rate to devrate: every
// response pair is resampled through a polyphase engine, onset delays
// are rescaled with saturation and the effective filter length is
// stretched to cover the same duration at the new rate. No-op when the
// rates already match.
func (s *Store) normalize(devrate uint32) error {
	srate := s.sampleRate
	if srate == devrate {
		return nil
	}

	eng, err := resampler.NewEngine(float64(srate), float64(devrate), resampler.QualityHigh)
	if err != nil {
		return fmt.Errorf("hrtf: resampler setup: %w", err)
	}

	in := make([]float64, HrirLength)
	for i := range s.coeffs {
		for c := 0; c < 2; c++ {
			for j := 0; j < HrirLength; j++ {
				in[j] = float64(s.coeffs[i][j][c])
			}
			out, err := eng.Process(in)
			if err != nil {
				return fmt.Errorf("hrtf: resample: %w", err)
			}
			tail, err := eng.Flush()
			if err != nil {
				return fmt.Errorf("hrtf: resample: %w", err)
			}
			out = append(out, tail...)
			for j := 0; j < HrirLength; j++ {
				if j < len(out) {
					s.coeffs[i][j][c] = float32(out[j])
				} else {
					s.coeffs[i][j][c] = 0
				}
			}
			eng.Reset()
		}
	}

	for i := range s.delays {
		for c := 0; c < 2; c++ {
			d := (uint64(s.delays[i][c])*uint64(devrate) + uint64(srate)/2) / uint64(srate)
			if d > MaxHrirDelay*delayFracOne {
				d = MaxHrirDelay * delayFracOne
			}
			s.delays[i][c] = uint8(d)
		}
	}

	irSize := (uint64(s.irSize)*uint64(devrate) + uint64(srate) - 1) / uint64(srate)
	if irSize > HrirLength {
		irSize = HrirLength
	}
	irSize = (irSize + ModIRSize - 1) / ModIRSize * ModIRSize
	s.irSize = uint32(irSize)
	s.sampleRate = devrate
	return nil
}
