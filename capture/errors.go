package capture

import "errors"

// ErrNotFound is returned when no capture with the requested ID exists.
var ErrNotFound = errors.New("capture: not found")

// ErrNoRenderer is returned by operations that need a live browser when
// the service was built without one.
var ErrNoRenderer = errors.New("capture: no renderer configured")

// ErrUnknownFormat is returned when a requested output format is not
// one of png, jpeg, pdf or md.
var ErrUnknownFormat = errors.New("capture: unknown format")

// ErrUnknownPlacement is returned when a requested placement is not
// one of offscreen, visible or unset.
var ErrUnknownPlacement = errors.New("capture: unknown placement")
