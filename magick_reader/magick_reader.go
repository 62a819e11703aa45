//go:build cgo

// Package magick_reader reads pyramid geometry through ImageMagick's
// ping interface, which parses headers without decoding pixel data. It
// is an alternative to the vips backend on hosts that ship ImageMagick
// instead of libvips.
package magick_reader

import (
	"fmt"
	"sync"

	"gopkg.in/gographics/imagick.v2/imagick"

	"slidemeta/contracts"
	"slidemeta/utils"
)

var initOnce sync.Once

// Reader opens slides through ImageMagick.
type Reader struct{}

func New() *Reader {
	initOnce.Do(func() {
		imagick.Initialize()
	})
	return &Reader{}
}

// Available reports whether this build carries the ImageMagick backend.
func Available() bool {
	return true
}

type level struct {
	width  int
	height int
}

type magickSlide struct {
	levels   []level
	baseMPPX float64
	baseMPPY float64
	resErr   error
}

// Open pings the file once and walks its frames. Frames sharing the
// base frame's aspect ratio count as pyramid levels; label and macro
// frames do not.
func (r *Reader) Open(path string) (contracts.Slide, error) {
	mw := imagick.NewMagickWand()
	defer mw.Destroy()

	if err := mw.PingImage(path); err != nil {
		return nil, fmt.Errorf("magick ping: %v", err)
	}

	frames := int(mw.GetNumberImages())
	if frames == 0 {
		return nil, fmt.Errorf("no image frames found")
	}

	mw.SetIteratorIndex(0)
	s := &magickSlide{
		levels: []level{{width: int(mw.GetImageWidth()), height: int(mw.GetImageHeight())}},
	}
	s.resolveBaseMPP(mw)

	for i := 1; i < frames; i++ {
		mw.SetIteratorIndex(i)
		w, h := int(mw.GetImageWidth()), int(mw.GetImageHeight())
		if !utils.SameAspect(s.levels[0].width, s.levels[0].height, w, h) {
			continue
		}
		s.levels = append(s.levels, level{width: w, height: h})
	}

	return s, nil
}

func (s *magickSlide) resolveBaseMPP(mw *imagick.MagickWand) {
	resX, resY, err := mw.GetImageResolution()
	if err != nil || resX <= 0 || resY <= 0 {
		s.resErr = fmt.Errorf("no resolution metadata found")
		return
	}

	switch mw.GetImageUnits() {
	case imagick.RESOLUTION_PIXELS_PER_CENTIMETER:
		s.baseMPPX = utils.MPPFromPixelsPerCM(resX)
		s.baseMPPY = utils.MPPFromPixelsPerCM(resY)
	case imagick.RESOLUTION_PIXELS_PER_INCH:
		s.baseMPPX = utils.MPPFromDPI(resX)
		s.baseMPPY = utils.MPPFromDPI(resY)
	default:
		s.resErr = fmt.Errorf("resolution unit unknown")
	}
}

func (s *magickSlide) LevelCount() int {
	return len(s.levels)
}

func (s *magickSlide) LevelDimensions(lv int) (int, int, error) {
	if lv < 0 || lv >= len(s.levels) {
		return 0, 0, fmt.Errorf("level %d out of range, slide has %d levels", lv, len(s.levels))
	}
	return s.levels[lv].width, s.levels[lv].height, nil
}

func (s *magickSlide) LevelResolution(lv int) (float64, float64, error) {
	if lv < 0 || lv >= len(s.levels) {
		return 0, 0, fmt.Errorf("level %d out of range, slide has %d levels", lv, len(s.levels))
	}
	if s.resErr != nil {
		return 0, 0, s.resErr
	}
	ds := s.downsample(lv)
	return s.baseMPPX * ds, s.baseMPPY * ds, nil
}

func (s *magickSlide) ClosestLevel(mpp float64) (int, error) {
	if s.resErr != nil {
		return 0, s.resErr
	}
	downsamples := make([]float64, len(s.levels))
	for i := range s.levels {
		downsamples[i] = s.downsample(i)
	}
	return utils.ClosestLevel(downsamples, s.baseMPPX, s.baseMPPY, mpp), nil
}

func (s *magickSlide) Close() error {
	return nil
}

func (s *magickSlide) downsample(lv int) float64 {
	base := s.levels[0]
	l := s.levels[lv]
	dsX := float64(base.width) / float64(l.width)
	dsY := float64(base.height) / float64(l.height)
	return (dsX + dsY) / 2
}
