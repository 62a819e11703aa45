//go:build !cgo

// Package vips_reader reads pyramid geometry through libvips. This is
// the stub for builds without cgo.
package vips_reader

import (
	"errors"

	"slidemeta/contracts"
)

var errUnavailable = errors.New("vips backend requires a cgo build")

type Reader struct{}

func New() *Reader {
	return &Reader{}
}

// Available reports whether this build carries the libvips backend.
func Available() bool {
	return false
}

func (r *Reader) Open(_ string) (contracts.Slide, error) {
	return nil, errUnavailable
}
