package cpu

import "errors"

var (
	ErrNotInitialized = errors.New("cpu tracer: not initialized")
	ErrMissingScene   = errors.New("cpu tracer: no scene data uploaded")
	ErrMissingAccel   = errors.New("cpu tracer: no acceleration structure uploaded")
	ErrMissingCamera  = errors.New("cpu tracer: no camera data uploaded")
	ErrInvalidBlock   = errors.New("cpu tracer: block request out of frame bounds")
)
