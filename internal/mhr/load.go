package mhr

import (
	"errors"
	"fmt"
	"io"
)

// Magic markers identifying the supported format versions.
const (
	MagicLen = 8

	magicV0 = "MinPHR00"
	magicV1 = "MinPHR01"
	magicV2 = "MinPHR02"
)

var (
	// ErrInvalidHeader reports a magic marker that matches no known
	// format version.
	ErrInvalidHeader = errors.New("invalid header")

	// ErrInvalidData reports a data set that violates the format limits.
	ErrInvalidData = errors.New("invalid data set")
)

// Load reads a complete .mhr stream, including the magic marker, and
// returns the parsed data set. Bound violations found within one parsing
// stage are aggregated so that a single pass reports them all.
func Load(r io.Reader) (*Data, error) {
	br := newByteReader(r)
	magic := make([]byte, MagicLen)
	if _, err := io.ReadFull(br.r, magic); err != nil {
		return nil, fmt.Errorf("reading magic: %w", ErrShortRead)
	}

	switch string(magic) {
	case magicV2:
		return loadV2(br)
	case magicV1:
		return loadV1(br)
	case magicV0:
		return loadV0(br)
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidHeader, magic)
}

// Version returns the format version number for a magic marker, or -1 if
// the marker is unknown.
func Version(magic []byte) int {
	switch string(magic) {
	case magicV0:
		return 0
	case magicV1:
		return 1
	case magicV2:
		return 2
	}
	return -1
}

func loadV0(br *byteReader) (*Data, error) {
	rate := br.u32()
	irCount := br.u16()
	irSize := br.u16()
	evCount := br.u8()
	if !br.ok() {
		return nil, fmt.Errorf("reading header: %w", br.take())
	}

	var errs []error
	if irSize < MinIRSize || irSize > MaxIRSize || irSize%ModIRSize != 0 {
		errs = append(errs, fmt.Errorf("%w: unsupported HRIR size %d (%d to %d by %d)",
			ErrInvalidData, irSize, MinIRSize, MaxIRSize, ModIRSize))
	}
	if evCount < MinEvCount || evCount > MaxEvCount {
		errs = append(errs, fmt.Errorf("%w: unsupported elevation count %d (%d to %d)",
			ErrInvalidData, evCount, MinEvCount, MaxEvCount))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	evOffsets := make([]uint16, evCount)
	for i := range evOffsets {
		evOffsets[i] = br.u16()
	}
	if !br.ok() {
		return nil, fmt.Errorf("reading elevation offsets: %w", br.take())
	}
	for i := 1; i < int(evCount); i++ {
		if evOffsets[i] <= evOffsets[i-1] {
			errs = append(errs, fmt.Errorf("%w: evOffset[%d]=%d not after %d",
				ErrInvalidData, i, evOffsets[i], evOffsets[i-1]))
		}
	}
	if last := evOffsets[evCount-1]; irCount <= last {
		errs = append(errs, fmt.Errorf("%w: evOffset[%d]=%d exceeds irCount %d",
			ErrInvalidData, evCount-1, last, irCount))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	azCounts := make([]uint16, evCount)
	for i := 1; i < int(evCount); i++ {
		azCounts[i-1] = evOffsets[i] - evOffsets[i-1]
	}
	azCounts[evCount-1] = irCount - evOffsets[evCount-1]
	for i, az := range azCounts {
		if az < MinAzCount || az > MaxAzCount {
			errs = append(errs, fmt.Errorf("%w: unsupported azimuth count azCount[%d]=%d (%d to %d)",
				ErrInvalidData, i, az, MinAzCount, MaxAzCount))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	coeffs := make([][2]float32, int(irCount)*int(irSize))
	delays := make([][2]uint8, irCount)
	for i := range coeffs {
		coeffs[i][0] = float32(br.i16()) / 32768
	}
	for i := range delays {
		delays[i][0] = br.u8()
	}
	if !br.ok() {
		return nil, fmt.Errorf("reading coefficients: %w", br.take())
	}
	if err := shiftDelays(delays, false); err != nil {
		return nil, err
	}

	mirrorLeftToRight(coeffs, delays, azCounts, evOffsets, int(irSize))

	return &Data{
		Rate:      rate,
		IRSize:    irSize,
		Fields:    []Field{{DistanceMM: 0, EvCount: evCount}},
		AzCounts:  azCounts,
		EvOffsets: evOffsets,
		Coeffs:    coeffs,
		Delays:    delays,
	}, nil
}

func loadV1(br *byteReader) (*Data, error) {
	rate := br.u32()
	irSize := uint16(br.u8())
	evCount := br.u8()
	if !br.ok() {
		return nil, fmt.Errorf("reading header: %w", br.take())
	}

	var errs []error
	if irSize < MinIRSize || irSize > MaxIRSize || irSize%ModIRSize != 0 {
		errs = append(errs, fmt.Errorf("%w: unsupported HRIR size %d (%d to %d by %d)",
			ErrInvalidData, irSize, MinIRSize, MaxIRSize, ModIRSize))
	}
	if evCount < MinEvCount || evCount > MaxEvCount {
		errs = append(errs, fmt.Errorf("%w: unsupported elevation count %d (%d to %d)",
			ErrInvalidData, evCount, MinEvCount, MaxEvCount))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	azCounts := make([]uint16, evCount)
	for i := range azCounts {
		azCounts[i] = uint16(br.u8())
	}
	if !br.ok() {
		return nil, fmt.Errorf("reading azimuth counts: %w", br.take())
	}
	for i, az := range azCounts {
		if az < MinAzCount || az > MaxAzCount {
			errs = append(errs, fmt.Errorf("%w: unsupported azimuth count azCount[%d]=%d (%d to %d)",
				ErrInvalidData, i, az, MinAzCount, MaxAzCount))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	evOffsets := make([]uint16, evCount)
	irCount := azCounts[0]
	for i := 1; i < int(evCount); i++ {
		evOffsets[i] = evOffsets[i-1] + azCounts[i-1]
		irCount += azCounts[i]
	}

	coeffs := make([][2]float32, int(irCount)*int(irSize))
	delays := make([][2]uint8, irCount)
	for i := range coeffs {
		coeffs[i][0] = float32(br.i16()) / 32768
	}
	for i := range delays {
		delays[i][0] = br.u8()
	}
	if !br.ok() {
		return nil, fmt.Errorf("reading coefficients: %w", br.take())
	}
	if err := shiftDelays(delays, false); err != nil {
		return nil, err
	}

	mirrorLeftToRight(coeffs, delays, azCounts, evOffsets, int(irSize))

	return &Data{
		Rate:      rate,
		IRSize:    irSize,
		Fields:    []Field{{DistanceMM: 0, EvCount: evCount}},
		AzCounts:  azCounts,
		EvOffsets: evOffsets,
		Coeffs:    coeffs,
		Delays:    delays,
	}, nil
}

func loadV2(br *byteReader) (*Data, error) {
	rate := br.u32()
	sampleType := br.u8()
	channelType := br.u8()
	irSize := uint16(br.u8())
	fdCount := br.u8()
	if !br.ok() {
		return nil, fmt.Errorf("reading header: %w", br.take())
	}

	var errs []error
	if sampleType > sampleTypeS24 {
		errs = append(errs, fmt.Errorf("%w: unsupported sample type %d", ErrInvalidData, sampleType))
	}
	if channelType > chanTypeLeftRight {
		errs = append(errs, fmt.Errorf("%w: unsupported channel type %d", ErrInvalidData, channelType))
	}
	if irSize < MinIRSize || irSize > MaxIRSize || irSize%ModIRSize != 0 {
		errs = append(errs, fmt.Errorf("%w: unsupported HRIR size %d (%d to %d by %d)",
			ErrInvalidData, irSize, MinIRSize, MaxIRSize, ModIRSize))
	}
	if fdCount < MinFdCount || fdCount > MaxFdCount {
		errs = append(errs, fmt.Errorf("%w: unsupported field count %d (%d to %d)",
			ErrInvalidData, fdCount, MinFdCount, MaxFdCount))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	fields := make([]Field, fdCount)
	var azCounts []uint16
	for f := range fields {
		fields[f].DistanceMM = br.u16()
		fields[f].EvCount = br.u8()
		if !br.ok() {
			return nil, fmt.Errorf("reading field %d: %w", f, br.take())
		}

		if d := fields[f].DistanceMM; d < MinFdDistance || d > MaxFdDistance {
			errs = append(errs, fmt.Errorf("%w: unsupported field distance[%d]=%d (%d to %d millimeters)",
				ErrInvalidData, f, d, MinFdDistance, MaxFdDistance))
		}
		if f > 0 && fields[f].DistanceMM <= fields[f-1].DistanceMM {
			errs = append(errs, fmt.Errorf("%w: field distance[%d]=%d not after %d",
				ErrInvalidData, f, fields[f].DistanceMM, fields[f-1].DistanceMM))
		}
		if ev := fields[f].EvCount; ev < MinEvCount || ev > MaxEvCount {
			errs = append(errs, fmt.Errorf("%w: unsupported elevation count evCount[%d]=%d (%d to %d)",
				ErrInvalidData, f, ev, MinEvCount, MaxEvCount))
		}
		if len(errs) > 0 {
			return nil, errors.Join(errs...)
		}

		ebase := len(azCounts)
		for e := 0; e < int(fields[f].EvCount); e++ {
			azCounts = append(azCounts, uint16(br.u8()))
		}
		if !br.ok() {
			return nil, fmt.Errorf("reading field %d azimuth counts: %w", f, br.take())
		}
		for e, az := range azCounts[ebase:] {
			if az < MinAzCount || az > MaxAzCount {
				errs = append(errs, fmt.Errorf("%w: unsupported azimuth count azCount[%d][%d]=%d (%d to %d)",
					ErrInvalidData, f, e, az, MinAzCount, MaxAzCount))
			}
		}
		if len(errs) > 0 {
			return nil, errors.Join(errs...)
		}
	}

	evOffsets := make([]uint16, len(azCounts))
	for i := 1; i < len(azCounts); i++ {
		evOffsets[i] = evOffsets[i-1] + azCounts[i-1]
	}
	irTotal := int(evOffsets[len(evOffsets)-1]) + int(azCounts[len(azCounts)-1])

	coeffs := make([][2]float32, irTotal*int(irSize))
	delays := make([][2]uint8, irTotal)
	stereo := channelType == chanTypeLeftRight
	for i := range coeffs {
		switch sampleType {
		case sampleTypeS16:
			coeffs[i][0] = float32(br.i16()) / 32768
			if stereo {
				coeffs[i][1] = float32(br.i16()) / 32768
			}
		case sampleTypeS24:
			coeffs[i][0] = float32(br.i24()) / 8388608
			if stereo {
				coeffs[i][1] = float32(br.i24()) / 8388608
			}
		}
	}
	for i := range delays {
		delays[i][0] = br.u8()
		if stereo {
			delays[i][1] = br.u8()
		}
	}
	if !br.ok() {
		return nil, fmt.Errorf("reading coefficients: %w", br.take())
	}
	if err := shiftDelays(delays, stereo); err != nil {
		return nil, err
	}

	if !stereo {
		mirrorLeftToRight(coeffs, delays, azCounts, evOffsets, int(irSize))
	}

	data := &Data{
		Rate:      rate,
		IRSize:    irSize,
		Fields:    fields,
		AzCounts:  azCounts,
		EvOffsets: evOffsets,
		Coeffs:    coeffs,
		Delays:    delays,
	}
	if fdCount > 1 {
		reverseFields(data)
	}
	return data, nil
}

// shiftDelays validates the integer-sample delays read from the file and
// converts them to the fixed-point form.
func shiftDelays(delays [][2]uint8, stereo bool) error {
	var errs []error
	chans := 1
	if stereo {
		chans = 2
	}
	for i := range delays {
		for c := 0; c < chans; c++ {
			if delays[i][c] > MaxHrirDelay {
				errs = append(errs, fmt.Errorf("%w: invalid delay[%d][%d]=%d (max %d)",
					ErrInvalidData, i, c, delays[i][c], MaxHrirDelay))
			}
			delays[i][c] <<= DelayFracBits
		}
	}
	return errors.Join(errs...)
}

// mirrorLeftToRight fills the right-ear responses of a left-only data set
// from the left-ear responses, reflecting each elevation's azimuths across
// the median plane.
func mirrorLeftToRight(coeffs [][2]float32, delays [][2]uint8, azCounts, evOffsets []uint16, irSize int) {
	for e := range azCounts {
		evoffset := int(evOffsets[e])
		azcount := int(azCounts[e])
		for j := 0; j < azcount; j++ {
			lidx := evoffset + j
			ridx := evoffset + (azcount-j)%azcount

			for k := 0; k < irSize; k++ {
				coeffs[ridx*irSize+k][1] = coeffs[lidx*irSize+k][0]
			}
			delays[ridx][1] = delays[lidx][0]
		}
	}
}

// reverseFields reorders a multi-field data set so that fields run from
// farthest to nearest, which is the order the distance walk in the query
// path expects. The relative order of elevations and impulse responses
// within each field is preserved.
func reverseFields(d *Data) {
	irSize := int(d.IRSize)

	fields := make([]Field, 0, len(d.Fields))
	azCounts := make([]uint16, 0, len(d.AzCounts))
	coeffs := make([][2]float32, 0, len(d.Coeffs))
	delays := make([][2]uint8, 0, len(d.Delays))

	// Per-field elevation and IR group bases in the original order.
	ebases := make([]int, len(d.Fields))
	ibases := make([]int, len(d.Fields))
	ebase, ibase := 0, 0
	for f, fld := range d.Fields {
		ebases[f], ibases[f] = ebase, ibase
		for e := 0; e < int(fld.EvCount); e++ {
			ibase += int(d.AzCounts[ebase+e])
		}
		ebase += int(fld.EvCount)
	}

	for f := len(d.Fields) - 1; f >= 0; f-- {
		fld := d.Fields[f]
		fields = append(fields, fld)

		numAzs := 0
		for e := 0; e < int(fld.EvCount); e++ {
			az := d.AzCounts[ebases[f]+e]
			azCounts = append(azCounts, az)
			numAzs += int(az)
		}
		coeffs = append(coeffs, d.Coeffs[ibases[f]*irSize:(ibases[f]+numAzs)*irSize]...)
		delays = append(delays, d.Delays[ibases[f]:ibases[f]+numAzs]...)
	}

	evOffsets := make([]uint16, len(azCounts))
	for i := 1; i < len(azCounts); i++ {
		evOffsets[i] = evOffsets[i-1] + azCounts[i-1]
	}

	d.Fields = fields
	d.AzCounts = azCounts
	d.EvOffsets = evOffsets
	d.Coeffs = coeffs
	d.Delays = delays
}
