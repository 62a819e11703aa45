// Package slide_reader selects a metadata backend per slide file.
package slide_reader

import (
	"fmt"
	"path/filepath"
	"strings"

	"slidemeta/contracts"
	"slidemeta/magick_reader"
	"slidemeta/tiff_reader"
	"slidemeta/vips_reader"
)

// New returns the named backend: "tiff", "vips", "magick", or "auto".
// The cgo backends error here when the build does not carry them.
func New(name string) (contracts.SlideReader, error) {
	switch name {
	case "tiff":
		return tiff_reader.New(), nil
	case "vips":
		if !vips_reader.Available() {
			return nil, fmt.Errorf("vips backend requires a cgo build")
		}
		return vips_reader.New(), nil
	case "magick":
		if !magick_reader.Available() {
			return nil, fmt.Errorf("magick backend requires a cgo build")
		}
		return magick_reader.New(), nil
	case "auto":
		return NewAuto(), nil
	}
	return nil, fmt.Errorf("unknown backend %q, want tiff, vips, magick or auto", name)
}

// NewAuto builds the extension-dispatching reader with the default
// backend pairing: the pure-Go tiff reader for the TIFF family and
// libvips (falling back to ImageMagick) for vendor formats.
func NewAuto() contracts.SlideReader {
	auto := &AutoReader{TIFF: tiff_reader.New()}
	if vips_reader.Available() {
		auto.Vendor = vips_reader.New()
	} else if magick_reader.Available() {
		auto.Vendor = magick_reader.New()
	}
	return auto
}

// AutoReader routes each file by extension: TIFF-family containers go
// to the TIFF reader, everything else to the vendor reader.
type AutoReader struct {
	TIFF   contracts.SlideReader
	Vendor contracts.SlideReader
}

// tiffFamily lists the recognized extensions that are plain or BigTIFF
// containers underneath the vendor suffix.
var tiffFamily = map[string]bool{
	"svs":  true,
	"tif":  true,
	"tiff": true,
	"ndpi": true,
	"scn":  true,
	"bif":  true,
}

// IsTIFFFamily reports whether the file's extension marks a
// TIFF-family container.
func IsTIFFFamily(path string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return tiffFamily[ext]
}

func (a *AutoReader) Open(path string) (contracts.Slide, error) {
	if IsTIFFFamily(path) {
		slide, err := a.TIFF.Open(path)
		if err == nil {
			return slide, nil
		}
		// BigTIFF and exotic TIFF variants fall through to the vendor
		// reader when one is built in.
		if a.Vendor == nil {
			return nil, err
		}
	}
	if a.Vendor == nil {
		return nil, fmt.Errorf("no backend for %q in this build", filepath.Ext(path))
	}
	return a.Vendor.Open(path)
}
