// Package metasource derives per-slide tiling metadata without decoding
// pixel data. For each input file it resolves a pyramid level, reads
// that level's dimensions and resolution from a backend, and emits one
// SlideMeta row combining the slide geometry with the configured tile
// extent and stride.
package metasource

import (
	"fmt"

	"slidemeta/contracts"
)

type selectorKind int

const (
	selectorUnset selectorKind = iota
	selectorMPP
	selectorLevel
)

// ResolutionSelector picks the pyramid level to read: either the level
// whose resolution is closest to a target microns-per-pixel value, or an
// explicit level index. The zero value selects nothing and is rejected
// at construction.
type ResolutionSelector struct {
	kind  selectorKind
	mpp   float64
	level int
}

// ByPhysicalResolution selects the level closest to mpp microns per pixel.
func ByPhysicalResolution(mpp float64) ResolutionSelector {
	return ResolutionSelector{kind: selectorMPP, mpp: mpp}
}

// ByLevelIndex selects a pyramid level directly.
func ByLevelIndex(level int) ResolutionSelector {
	return ResolutionSelector{kind: selectorLevel, level: level}
}

// MPP returns the target resolution, if that is what the selector holds.
func (s ResolutionSelector) MPP() (float64, bool) {
	return s.mpp, s.kind == selectorMPP
}

// Level returns the explicit level index, if that is what the selector holds.
func (s ResolutionSelector) Level() (int, bool) {
	return s.level, s.kind == selectorLevel
}

// SelectorFromOptions builds a selector from a pair of optional inputs,
// enforcing that exactly one is supplied.
func SelectorFromOptions(mpp *float64, level *int) (ResolutionSelector, error) {
	if (mpp != nil) == (level != nil) {
		return ResolutionSelector{}, &contracts.ConfigError{
			Reason: "exactly one of mpp or level must be provided, not both or neither",
		}
	}
	if mpp != nil {
		if *mpp <= 0 {
			return ResolutionSelector{}, &contracts.ConfigError{Reason: "mpp must be positive"}
		}
		return ByPhysicalResolution(*mpp), nil
	}
	if *level < 0 {
		return ResolutionSelector{}, &contracts.ConfigError{Reason: "level must be non-negative"}
	}
	return ByLevelIndex(*level), nil
}

// Config holds the construction-time inputs for a MetaDatasource.
// TileExtent and Stride take one element (broadcast to both axes) or
// two elements (width, height).
type Config struct {
	Paths      []string
	Selector   ResolutionSelector
	TileExtent []int
	Stride     []int
	Reader     contracts.SlideReader
}

// MetaDatasource reads tiling metadata for a fixed set of slide files.
// It is immutable after construction and safe for concurrent ReadFile
// calls; each call opens and releases its own backend session.
type MetaDatasource struct {
	paths      []string
	selector   ResolutionSelector
	tileExtent [2]int
	stride     [2]int
	reader     contracts.SlideReader
}

// New validates cfg and returns the datasource. Any violation of the
// selector or vector-shape rules yields a *contracts.ConfigError.
func New(cfg Config) (*MetaDatasource, error) {
	if cfg.Selector.kind == selectorUnset {
		return nil, &contracts.ConfigError{
			Reason: "exactly one of mpp or level must be provided, not both or neither",
		}
	}
	if cfg.Reader == nil {
		return nil, &contracts.ConfigError{Reason: "slide reader is required"}
	}
	tile, err := broadcast2("tile_extent", cfg.TileExtent)
	if err != nil {
		return nil, err
	}
	stride, err := broadcast2("stride", cfg.Stride)
	if err != nil {
		return nil, err
	}

	paths := make([]string, len(cfg.Paths))
	copy(paths, cfg.Paths)

	return &MetaDatasource{
		paths:      paths,
		selector:   cfg.Selector,
		tileExtent: tile,
		stride:     stride,
		reader:     cfg.Reader,
	}, nil
}

// broadcast2 normalizes a scalar-or-pair input into a fixed 2-vector.
func broadcast2(name string, v []int) ([2]int, error) {
	switch len(v) {
	case 1:
		return [2]int{v[0], v[0]}, nil
	case 2:
		return [2]int{v[0], v[1]}, nil
	}
	return [2]int{}, &contracts.ConfigError{
		Reason: fmt.Sprintf("%s must have 1 or 2 elements, got %d", name, len(v)),
	}
}

// Paths returns the configured input files.
func (d *MetaDatasource) Paths() []string {
	paths := make([]string, len(d.paths))
	copy(paths, d.paths)
	return paths
}

// RowsPerFile declares the fixed output cardinality: one row per file.
func (d *MetaDatasource) RowsPerFile() int {
	return 1
}

// ReadFile produces the metadata row for one slide file. Backend
// failures come back as a *contracts.DecodeError carrying the path;
// other files are unaffected.
func (d *MetaDatasource) ReadFile(path string) (contracts.SlideMeta, error) {
	slide, err := d.reader.Open(path)
	if err != nil {
		return contracts.SlideMeta{}, &contracts.DecodeError{Path: path, Err: err}
	}
	defer slide.Close()

	level, ok := d.selector.Level()
	if !ok {
		// An explicit level is used as-is, even out of range; the
		// backend owns that error. Only the mpp path needs a lookup.
		mpp, _ := d.selector.MPP()
		level, err = slide.ClosestLevel(mpp)
		if err != nil {
			return contracts.SlideMeta{}, &contracts.DecodeError{Path: path, Err: err}
		}
	}

	mppX, mppY, err := slide.LevelResolution(level)
	if err != nil {
		return contracts.SlideMeta{}, &contracts.DecodeError{Path: path, Err: err}
	}
	width, height, err := slide.LevelDimensions(level)
	if err != nil {
		return contracts.SlideMeta{}, &contracts.DecodeError{Path: path, Err: err}
	}

	return contracts.SlideMeta{
		Path:        path,
		ExtentX:     width,
		ExtentY:     height,
		TileExtentX: d.tileExtent[0],
		TileExtentY: d.tileExtent[1],
		StrideX:     d.stride[0],
		StrideY:     d.stride[1],
		MPPX:        mppX,
		MPPY:        mppY,
		Level:       level,
	}, nil
}
