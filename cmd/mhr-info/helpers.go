package main

import (
	"fmt"
	"math"
	"math/cmplx"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/tphakala/go-hrtf/internal/mhr"
)

// selectResponse returns the index of the measured response nearest the
// requested direction within one field.
func selectResponse(data *mhr.Data, field int, elevDeg, azimDeg float64) int {
	ebase := 0
	for i := 0; i < field; i++ {
		ebase += int(data.Fields[i].EvCount)
	}
	evCount := int(data.Fields[field].EvCount)

	ev := int(math.Round((elevDeg + degPerHalfTurn/2) / degPerHalfTurn * float64(evCount-1)))
	ev = min(max(ev, 0), evCount-1)

	azCount := int(data.AzCounts[ebase+ev])
	az := int(math.Round(azimDeg/degPerCircle*float64(azCount))) % azCount
	if az < 0 {
		az += azCount
	}
	return int(data.EvOffsets[ebase+ev]) + az
}

// response extracts one measured response pair at the data set's native
// length.
func response(data *mhr.Data, ir int) [][2]float32 {
	irSize := int(data.IRSize)
	return data.Coeffs[ir*irSize : (ir+1)*irSize]
}

// exportWAV writes the response as a 16-bit stereo WAV file at the data
// set's sample rate.
func exportWAV(path string, data *mhr.Data, ir int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	taps := response(data, ir)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: wavChannels,
			SampleRate:  int(data.Rate),
		},
		SourceBitDepth: wavBitDepth,
		Data:           make([]int, len(taps)*wavChannels),
	}
	for i, tap := range taps {
		buf.Data[i*wavChannels] = int(tap[0] * math.MaxInt16)
		buf.Data[i*wavChannels+1] = int(tap[1] * math.MaxInt16)
	}

	enc := wav.NewEncoder(f, int(data.Rate), wavBitDepth, wavChannels, 1)
	if err := enc.Write(buf); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// printSpectrum prints a coarse per-ear magnitude response of the
// selected response in dB.
func printSpectrum(data *mhr.Data, ir int) {
	taps := response(data, ir)

	nfft := 1
	for nfft < len(taps) {
		nfft <<= 1
	}
	fft := fourier.NewFFT(nfft)
	in := make([]float64, nfft)

	var mags [2][]complex128
	for c := 0; c < 2; c++ {
		for i := range in {
			in[i] = 0
		}
		for i, tap := range taps {
			in[i] = float64(tap[c])
		}
		mags[c] = fft.Coefficients(nil, in)
	}

	bins := len(mags[0])
	step := max(bins/spectrumBins, 1)
	fmt.Println("Frequency response (dB):")
	for b := 0; b < bins; b += step {
		freq := fft.Freq(b) * float64(data.Rate)
		fmt.Printf("  %7.0f hz  L %7.2f  R %7.2f\n", freq,
			db(mags[0][b]), db(mags[1][b]))
	}
}

func db(v complex128) float64 {
	return dbFactor * math.Log10(math.Max(cmplx.Abs(v), minMagnitude))
}
