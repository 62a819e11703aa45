// Package tiff_reader reads pyramid geometry from TIFF-family slide
// containers (svs, tif, tiff, ndpi, scn, bif) by walking the IFD chain.
// No pixel data is decoded; only directory tags are touched.
package tiff_reader

import (
	"fmt"
	"os"
	"sync"

	gtiff "github.com/google/tiff"

	"slidemeta/contracts"
	"slidemeta/utils"
)

// TIFF tag ids used for level geometry and resolution.
const (
	tagImageWidth       = 256
	tagImageLength      = 257
	tagImageDescription = 270
	tagXResolution      = 282
	tagYResolution      = 283
	tagResolutionUnit   = 296
	tagTileWidth        = 322
)

const (
	resUnitInch       = 2
	resUnitCentimeter = 3
)

// Reader opens TIFF containers. The zero value is ready to use.
type Reader struct{}

func New() *Reader {
	return &Reader{}
}

type level struct {
	width  int
	height int
}

type tiffSlide struct {
	f      *os.File
	path   string
	levels []level
	ifd0   gtiff.IFD

	resOnce  sync.Once
	baseMPPX float64
	baseMPPY float64
	resErr   error
}

// Open parses the file's directory chain and returns a metadata session.
// The underlying file stays open until Close so lazy fallbacks can still
// read it.
func (r *Reader) Open(path string) (contracts.Slide, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	if err := checkClassicTIFF(f); err != nil {
		f.Close()
		return nil, err
	}

	t, err := gtiff.Parse(f, nil, nil)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("parsing TIFF directories: %v", err)
	}

	ifds := t.IFDs()
	if len(ifds) == 0 {
		f.Close()
		return nil, fmt.Errorf("no image directories found")
	}

	// The first directory is the base level. Later directories count as
	// pyramid levels only when tiled; stripped ones are label/macro
	// images in vendor containers.
	var levels []level
	for i, ifd := range ifds {
		if i > 0 && !ifd.HasField(tagTileWidth) {
			continue
		}
		w, okW := fieldUint(ifd, tagImageWidth)
		h, okH := fieldUint(ifd, tagImageLength)
		if !okW || !okH {
			if i == 0 {
				f.Close()
				return nil, fmt.Errorf("base directory missing dimensions")
			}
			continue
		}
		levels = append(levels, level{width: int(w), height: int(h)})
	}

	return &tiffSlide{
		f:      f,
		path:   path,
		levels: levels,
		ifd0:   ifds[0],
	}, nil
}

// checkClassicTIFF rejects non-TIFF files early and BigTIFF explicitly,
// since the directory layout differs there.
func checkClassicTIFF(f *os.File) error {
	var header [4]byte
	if _, err := f.ReadAt(header[:], 0); err != nil {
		return fmt.Errorf("reading TIFF header: %v", err)
	}
	switch string(header[:]) {
	case "II\x2A\x00", "MM\x00\x2A":
		return nil
	case "II\x2B\x00", "MM\x00\x2B":
		return fmt.Errorf("BigTIFF container not supported by the tiff backend, use the vips backend")
	}
	return fmt.Errorf("not a TIFF file")
}

func (s *tiffSlide) LevelCount() int {
	return len(s.levels)
}

func (s *tiffSlide) LevelDimensions(lv int) (int, int, error) {
	if lv < 0 || lv >= len(s.levels) {
		return 0, 0, fmt.Errorf("level %d out of range, slide has %d levels", lv, len(s.levels))
	}
	return s.levels[lv].width, s.levels[lv].height, nil
}

func (s *tiffSlide) LevelResolution(lv int) (float64, float64, error) {
	if lv < 0 || lv >= len(s.levels) {
		return 0, 0, fmt.Errorf("level %d out of range, slide has %d levels", lv, len(s.levels))
	}
	if err := s.resolveBaseMPP(); err != nil {
		return 0, 0, err
	}
	ds := s.downsample(lv)
	return s.baseMPPX * ds, s.baseMPPY * ds, nil
}

func (s *tiffSlide) ClosestLevel(mpp float64) (int, error) {
	if err := s.resolveBaseMPP(); err != nil {
		return 0, err
	}
	downsamples := make([]float64, len(s.levels))
	for i := range s.levels {
		downsamples[i] = s.downsample(i)
	}
	return utils.ClosestLevel(downsamples, s.baseMPPX, s.baseMPPY, mpp), nil
}

func (s *tiffSlide) Close() error {
	return s.f.Close()
}

// downsample is the mean of the per-axis shrink factors relative to the
// base level.
func (s *tiffSlide) downsample(lv int) float64 {
	base := s.levels[0]
	l := s.levels[lv]
	dsX := float64(base.width) / float64(l.width)
	dsY := float64(base.height) / float64(l.height)
	return (dsX + dsY) / 2
}

// resolveBaseMPP determines the base level's microns-per-pixel value.
// Preference order: Aperio's MPP entry in ImageDescription, then the
// directory's resolution tags, then an EXIF scan of the file.
func (s *tiffSlide) resolveBaseMPP() error {
	s.resOnce.Do(func() {
		if desc, ok := fieldASCII(s.ifd0, tagImageDescription); ok {
			if mpp, ok := utils.ParseAperioMPP(desc); ok {
				s.baseMPPX, s.baseMPPY = mpp, mpp
				return
			}
		}

		if x, y, ok := resolutionTags(s.ifd0); ok {
			s.baseMPPX, s.baseMPPY = x, y
			return
		}

		x, y, err := utils.MPPFromEXIF(s.path)
		if err != nil {
			s.resErr = fmt.Errorf("no resolution metadata found: %v", err)
			return
		}
		s.baseMPPX, s.baseMPPY = x, y
	})
	return s.resErr
}

// resolutionTags converts XResolution/YResolution into microns per
// pixel, honoring ResolutionUnit (inch by default, centimeter when 3).
func resolutionTags(ifd gtiff.IFD) (float64, float64, bool) {
	resX, okX := fieldRational(ifd, tagXResolution)
	resY, okY := fieldRational(ifd, tagYResolution)
	if !okX || !okY || resX <= 0 || resY <= 0 {
		return 0, 0, false
	}

	unit := uint64(resUnitInch)
	if u, ok := fieldUint(ifd, tagResolutionUnit); ok {
		unit = u
	}
	switch unit {
	case resUnitCentimeter:
		return utils.MPPFromPixelsPerCM(resX), utils.MPPFromPixelsPerCM(resY), true
	case resUnitInch:
		return utils.MPPFromDPI(resX), utils.MPPFromDPI(resY), true
	}
	return 0, 0, false
}

// fieldUint reads the first element of a SHORT or LONG field.
func fieldUint(ifd gtiff.IFD, tag uint16) (uint64, bool) {
	if !ifd.HasField(tag) {
		return 0, false
	}
	f := ifd.GetField(tag)
	count := int(f.Count())
	if count == 0 {
		return 0, false
	}
	v := f.Value()
	b := v.Bytes()
	order := v.Order()
	switch {
	case len(b) == 2*count:
		return uint64(order.Uint16(b[:2])), true
	case len(b) == 4*count:
		return uint64(order.Uint32(b[:4])), true
	case len(b) == 8*count:
		return order.Uint64(b[:8]), true
	}
	return 0, false
}

// fieldRational reads the first element of a RATIONAL field.
func fieldRational(ifd gtiff.IFD, tag uint16) (float64, bool) {
	if !ifd.HasField(tag) {
		return 0, false
	}
	f := ifd.GetField(tag)
	count := int(f.Count())
	v := f.Value()
	b := v.Bytes()
	if count == 0 || len(b) != 8*count {
		return 0, false
	}
	order := v.Order()
	num := order.Uint32(b[:4])
	den := order.Uint32(b[4:8])
	if den == 0 {
		return 0, false
	}
	return float64(num) / float64(den), true
}

// fieldASCII reads an ASCII field, trimming the trailing NUL.
func fieldASCII(ifd gtiff.IFD, tag uint16) (string, bool) {
	if !ifd.HasField(tag) {
		return "", false
	}
	b := ifd.GetField(tag).Value().Bytes()
	for len(b) > 0 && b[len(b)-1] == 0 {
		b = b[:len(b)-1]
	}
	if len(b) == 0 {
		return "", false
	}
	return string(b), true
}
