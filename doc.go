// Package hrtf loads, caches and queries head-related transfer function
// data sets in the MinPHR (".mhr") binary format, for use by spatial
// audio renderers.
//
// A data set holds measured head-related impulse responses (HRIRs) on a
// grid of elevations and azimuths, optionally at several measurement
// distances ("fields"), together with per-ear onset delays. The package
// parses all three MinPHR format revisions, validates them against the
// format's structural limits, and exposes two query engines over the
// loaded data:
//
//   - a point-source query that bilinearly blends the four HRIRs
//     surrounding a direction, with a spread control that fades toward
//     an omnidirectional pass-through response
//   - a B-format bake that folds a set of sample directions through an
//     ambisonic decoder matrix into one FIR filter per ambisonic
//     channel, in single-band or phase-matched dual-band form
//
// # Quick Start
//
//	mgr := hrtf.NewManager(hrtf.ManagerConfig{})
//	names := mgr.Enumerate("")
//	if len(names) == 0 {
//	    log.Fatal("no HRTF data sets found")
//	}
//	store, err := mgr.GetLoaded(names[0], "", 48000)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.DecRef()
//
//	var coeffs hrtf.HrirArray
//	var delays [2]uint32
//	store.GetCoeffs(0, -math.Pi/2, 1.0, 0, &coeffs, &delays)
//
// # Enumeration and Caching
//
// The Manager discovers data sets from configured search paths (the
// "hrtf-paths" option), from the default data directories, and from an
// optional embedded resource. Display names are deduplicated with a
// " #N" suffix. Loaded stores are cached per filename and sample rate
// and shared by reference count; DecRef on the last reference sweeps
// unused entries from the cache.
//
// Data sets whose file rate differs from the device rate are resampled
// on load through a polyphase resampler, and their onset delays and
// filter lengths are rescaled to match.
//
// # Concurrency
//
// A loaded store is immutable. Queries may run concurrently with each
// other and with Manager calls; reference counts are atomic.
package hrtf
