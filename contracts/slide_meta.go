package contracts

import (
	"path/filepath"
	"strings"
)

// SlideMeta is the single row emitted for one slide file. Field names
// follow the downstream tiling pipeline's schema, so the JSON tags are
// part of the contract.
type SlideMeta struct {
	Path        string  `json:"path"`
	ExtentX     int     `json:"extent_x"`
	ExtentY     int     `json:"extent_y"`
	TileExtentX int     `json:"tile_extent_x"`
	TileExtentY int     `json:"tile_extent_y"`
	StrideX     int     `json:"stride_x"`
	StrideY     int     `json:"stride_y"`
	MPPX        float64 `json:"mpp_x"`
	MPPY        float64 `json:"mpp_y"`
	Level       int     `json:"level"`
}

// FileExtensions lists the slide formats the discovery step accepts.
var FileExtensions = []string{
	"svs",
	"tif",
	"dcm",
	"ndpi",
	"vms",
	"vmu",
	"scn",
	"mrxs",
	"tiff",
	"svslide",
	"bif",
	"czi",
}

// IsSlideFile reports whether the file name carries a recognized slide
// extension.
func IsSlideFile(name string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	for _, e := range FileExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
