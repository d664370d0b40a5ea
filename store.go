package hrtf

import (
	"log/slog"
	"sync/atomic"

	"github.com/tphakala/go-hrtf/internal/mhr"
)

// HrirArray is one impulse response pair: HrirLength samples for the
// left and right ears.
type HrirArray [HrirLength][2]float32

// Field is one measurement distance of a data set.
type Field struct {
	// Distance is the measurement distance in meters; zero when the
	// data set has a single unspecified field.
	Distance float32

	// EvCount is the number of elevations measured at this distance.
	EvCount uint8
}

// Elevation locates one elevation's span of impulse responses.
type Elevation struct {
	AzCount  uint16
	IrOffset uint16
}

// Store is a loaded, immutable HRTF data set. Stores are shared by
// reference count; a store obtained from Manager.GetLoaded arrives with
// one reference owned by the caller.
type Store struct {
	sampleRate uint32
	irSize     uint32

	fields []Field
	elev   []Elevation
	coeffs []HrirArray
	delays [][2]uint8

	ref atomic.Uint32
	mgr *Manager
	log *slog.Logger
}

// newStore builds a store from a validated data set. Measured responses
// are copied into fixed-length rows with zero-padded tails; the new
// store carries one reference for the caller.
func newStore(d *mhr.Data, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		sampleRate: d.Rate,
		irSize:     uint32(d.IRSize),
		fields:     make([]Field, len(d.Fields)),
		elev:       make([]Elevation, len(d.AzCounts)),
		coeffs:     make([]HrirArray, d.IRCount()),
		delays:     make([][2]uint8, d.IRCount()),
		log:        logger,
	}
	for i, f := range d.Fields {
		s.fields[i] = Field{
			Distance: float32(f.DistanceMM) / 1000,
			EvCount:  f.EvCount,
		}
	}
	for i := range d.AzCounts {
		s.elev[i] = Elevation{
			AzCount:  d.AzCounts[i],
			IrOffset: d.EvOffsets[i],
		}
	}
	irSize := int(d.IRSize)
	for i := range s.coeffs {
		copy(s.coeffs[i][:irSize], d.Coeffs[i*irSize:(i+1)*irSize])
	}
	copy(s.delays, d.Delays)
	s.ref.Store(1)
	return s
}

// SampleRate returns the sample rate the store's responses are tuned
// for.
func (s *Store) SampleRate() uint32 { return s.sampleRate }

// IRSize returns the effective filter length in samples. Samples beyond
// it are zero.
func (s *Store) IRSize() uint32 { return s.irSize }

// Fields returns the measurement distances, ordered farthest first.
// The returned slice must not be modified.
func (s *Store) Fields() []Field { return s.fields }

// IncRef adds a reference to the store and returns the new count.
func (s *Store) IncRef() uint32 {
	ref := s.ref.Add(1)
	s.log.Debug("HRTF store reference added", "refs", ref)
	return ref
}

// DecRef drops a reference. When the last reference is released, any
// unused entries are swept from the owning manager's cache.
func (s *Store) DecRef() uint32 {
	ref := s.ref.Add(^uint32(0))
	s.log.Debug("HRTF store reference removed", "refs", ref)
	if ref == 0 && s.mgr != nil {
		s.mgr.sweepLoaded()
	}
	return ref
}

// DirectState holds the per-channel FIR filters produced by a B-format
// bake, sized for the renderer that owns it.
type DirectState struct {
	// IrSize is the usable filter length after baking; samples beyond
	// it are zero.
	IrSize uint32

	// Coeffs holds one filter pair per ambisonic channel.
	Coeffs []HrirArray
}

// NewDirectState allocates a bake target for the given number of
// ambisonic channels.
func NewDirectState(channels int) *DirectState {
	return &DirectState{Coeffs: make([]HrirArray, channels)}
}
