package protocol

import "errors"

var (
	ErrFrameTooLarge = errors.New("protocol: frame exceeds buffer")
	ErrNoSink        = errors.New("protocol: no lower layer or sink")
)
