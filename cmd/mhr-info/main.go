// Command mhr-info inspects MinPHR (.mhr) HRTF data sets.
//
// Usage:
//
//	mhr-info dataset.mhr                          # print layout
//	mhr-info -elev 0 -azim 90 dataset.mhr         # show one response
//	mhr-info -elev 0 -azim 90 -wav ir.wav f.mhr   # export it as WAV
//	mhr-info -elev 0 -azim 90 -spectrum f.mhr     # print its magnitude response
//
// Directions are given in degrees; the nearest measured response of the
// selected field is reported.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/tphakala/go-hrtf/internal/mhr"
)

const (
	degPerCircle   = 360.0
	degPerHalfTurn = 180.0

	// WAV export format
	wavBitDepth = 16
	wavChannels = 2

	// Spectrum display
	spectrumBins = 32
	minMagnitude = 1e-10
	dbFactor     = 20.0
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	elev := flag.Float64("elev", 0, "Elevation in degrees, -90 (below) to 90 (above)")
	azim := flag.Float64("azim", 0, "Azimuth in degrees, counter-clockwise from the front")
	field := flag.Int("field", 0, "Field index, farthest distance first as stored")
	wavOut := flag.String("wav", "", "Export the selected response to a stereo WAV file")
	spectrum := flag.Bool("spectrum", false, "Print the selected response's magnitude spectrum")
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] dataset.mhr\n\nOptions:\n", os.Args[0])
		flag.PrintDefaults()
		return fmt.Errorf("expected exactly one input file")
	}

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	version := -1
	if len(raw) >= mhr.MagicLen {
		version = mhr.Version(raw[:mhr.MagicLen])
	}
	data, err := mhr.Load(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	printLayout(args[0], version, data)

	if *wavOut == "" && !*spectrum {
		return nil
	}

	if *field < 0 || *field >= len(data.Fields) {
		return fmt.Errorf("field %d out of range, data set has %d", *field, len(data.Fields))
	}
	ir := selectResponse(data, *field, *elev, *azim)
	printResponse(data, ir)

	if *wavOut != "" {
		if err := exportWAV(*wavOut, data, ir); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", *wavOut)
	}
	if *spectrum {
		printSpectrum(data, ir)
	}
	return nil
}

func printLayout(path string, version int, data *mhr.Data) {
	fmt.Printf("%s: MinPHR v%d\n", path, version)
	fmt.Printf("Sample rate: %d hz\n", data.Rate)
	fmt.Printf("IR length:   %d samples\n", data.IRSize)
	fmt.Printf("Responses:   %d\n", data.IRCount())
	fmt.Printf("Fields:      %d\n", len(data.Fields))

	ebase := 0
	for i, f := range data.Fields {
		fmt.Printf("  field %d: distance %d mm, %d elevations\n", i, f.DistanceMM, f.EvCount)
		for e := 0; e < int(f.EvCount); e++ {
			fmt.Printf("    elevation %3d: %3d azimuths at offset %d\n",
				e, data.AzCounts[ebase+e], data.EvOffsets[ebase+e])
		}
		ebase += int(f.EvCount)
	}
}

func printResponse(data *mhr.Data, ir int) {
	fmt.Printf("Response %d: delay left %.2f, right %.2f samples\n", ir,
		float64(data.Delays[ir][0])/mhr.DelayFracOne,
		float64(data.Delays[ir][1])/mhr.DelayFracOne)
}
