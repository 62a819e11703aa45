//go:build !cgo

// Package magick_reader reads pyramid geometry through ImageMagick's
// ping interface. This is the stub for builds without cgo.
package magick_reader

import (
	"errors"

	"slidemeta/contracts"
)

var errUnavailable = errors.New("magick backend requires a cgo build")

type Reader struct{}

func New() *Reader {
	return &Reader{}
}

// Available reports whether this build carries the ImageMagick backend.
func Available() bool {
	return false
}

func (r *Reader) Open(_ string) (contracts.Slide, error) {
	return nil, errUnavailable
}
