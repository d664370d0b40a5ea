package hrtf

import "errors"

var (
	// ErrUnknownName reports a GetLoaded name that was not returned by
	// the last enumeration.
	ErrUnknownName = errors.New("hrtf: data set not enumerated")

	// ErrResourceMissing reports an enumerated embedded resource that
	// the resource provider could not supply on load.
	ErrResourceMissing = errors.New("hrtf: embedded resource missing")
)
