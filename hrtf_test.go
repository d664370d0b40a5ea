package hrtf

import (
	"log/slog"

	"github.com/tphakala/go-hrtf/internal/mhr"
)

// testLogger discards all log output to keep test runs quiet.
var testLogger = slog.New(slog.DiscardHandler)

// testData builds a validated single-field data set for store tests.
// Delays are in fixed-point form, as the loaders produce them.
func testData(rate uint32, irSize int, azCounts []uint16) *mhr.Data {
	evOffsets := make([]uint16, len(azCounts))
	irCount := int(azCounts[0])
	for i := 1; i < len(azCounts); i++ {
		evOffsets[i] = evOffsets[i-1] + azCounts[i-1]
		irCount += int(azCounts[i])
	}
	return &mhr.Data{
		Rate:      rate,
		IRSize:    uint16(irSize),
		Fields:    []mhr.Field{{DistanceMM: 0, EvCount: uint8(len(azCounts))}},
		AzCounts:  azCounts,
		EvOffsets: evOffsets,
		Coeffs:    make([][2]float32, irCount*irSize),
		Delays:    make([][2]uint8, irCount),
	}
}

// grid14 is the canonical five-elevation test layout with fourteen
// responses.
func grid14(rate uint32) *mhr.Data {
	return testData(rate, 8, []uint16{1, 4, 4, 4, 1})
}

// buildTestMHR serializes a minimal version-1 file with the given
// layout and all-zero payload.
func buildTestMHR(rate uint32, irSize uint8, azCounts []uint8) []byte {
	buf := []byte("MinPHR01")
	buf = append(buf, byte(rate), byte(rate>>8), byte(rate>>16), byte(rate>>24))
	buf = append(buf, irSize, uint8(len(azCounts)))
	irCount := 0
	for _, az := range azCounts {
		buf = append(buf, az)
		irCount += int(az)
	}
	buf = append(buf, make([]byte, irCount*int(irSize)*2)...) // samples
	buf = append(buf, make([]byte, irCount)...)               // delays
	return buf
}
