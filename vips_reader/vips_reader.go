//go:build cgo

// Package vips_reader reads pyramid geometry through libvips. It covers
// the vendor formats the pure-Go tiff backend cannot parse (mrxs, vms,
// vmu, czi, dcm, svslide) when libvips is built with the matching
// loaders, and BigTIFF containers.
package vips_reader

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"

	"slidemeta/contracts"
	"slidemeta/utils"
)

var startupOnce sync.Once

// Reader opens slides through libvips.
type Reader struct{}

func New() *Reader {
	startupOnce.Do(func() {
		vips.Startup(nil)
	})
	return &Reader{}
}

// Available reports whether this build carries the libvips backend.
func Available() bool {
	return true
}

type level struct {
	width  int
	height int
}

type vipsSlide struct {
	levels   []level
	baseMPPX float64
	baseMPPY float64
	resErr   error
}

// Open pings every page of the file, keeping the pages that share the
// base page's aspect ratio as pyramid levels. Each page load reads
// header metadata only.
func (r *Reader) Open(path string) (contracts.Slide, error) {
	base, err := loadPage(path, 0)
	if err != nil {
		return nil, err
	}
	defer base.Close()

	pages := base.Pages()
	if n, err := base.GetInt("n-pages"); err == nil && n > 0 {
		pages = n
	}

	s := &vipsSlide{
		levels: []level{{width: base.Width(), height: base.Height()}},
	}
	s.resolveBaseMPP(base)

	for i := 1; i < pages; i++ {
		img, err := loadPage(path, i)
		if err != nil {
			// Pages past the pyramid may use loaders this libvips
			// lacks; they are not levels either way.
			continue
		}
		w, h := img.Width(), img.Height()
		img.Close()
		if !utils.SameAspect(s.levels[0].width, s.levels[0].height, w, h) {
			continue
		}
		s.levels = append(s.levels, level{width: w, height: h})
	}

	return s, nil
}

func loadPage(path string, page int) (*vips.ImageRef, error) {
	params := vips.NewImportParams()
	params.Page.Set(page)
	img, err := vips.LoadImageFromFile(path, params)
	if err != nil {
		return nil, fmt.Errorf("vips load page %d: %v", page, err)
	}
	return img, nil
}

// resolveBaseMPP prefers the OpenSlide properties libvips exposes for
// slide formats, then the scanner description, then the vips header
// resolution (pixels per millimeter).
func (s *vipsSlide) resolveBaseMPP(base *vips.ImageRef) {
	x, okX := mppProperty(base, "openslide.mpp-x")
	y, okY := mppProperty(base, "openslide.mpp-y")
	if okX && okY {
		s.baseMPPX, s.baseMPPY = x, y
		return
	}

	if desc, err := base.GetString("image-description"); err == nil {
		if mpp, ok := utils.ParseAperioMPP(desc); ok {
			s.baseMPPX, s.baseMPPY = mpp, mpp
			return
		}
	}

	resX, resY := base.ResX(), base.ResY()
	if resX > 0 && resY > 0 {
		s.baseMPPX = 1000.0 / float64(resX)
		s.baseMPPY = 1000.0 / float64(resY)
		return
	}

	s.resErr = fmt.Errorf("no resolution metadata found")
}

func mppProperty(img *vips.ImageRef, name string) (float64, bool) {
	v, err := img.GetString(name)
	if err != nil {
		return 0, false
	}
	mpp, err := strconv.ParseFloat(v, 64)
	if err != nil || mpp <= 0 {
		return 0, false
	}
	return mpp, true
}

func (s *vipsSlide) LevelCount() int {
	return len(s.levels)
}

func (s *vipsSlide) LevelDimensions(lv int) (int, int, error) {
	if lv < 0 || lv >= len(s.levels) {
		return 0, 0, fmt.Errorf("level %d out of range, slide has %d levels", lv, len(s.levels))
	}
	return s.levels[lv].width, s.levels[lv].height, nil
}

func (s *vipsSlide) LevelResolution(lv int) (float64, float64, error) {
	if lv < 0 || lv >= len(s.levels) {
		return 0, 0, fmt.Errorf("level %d out of range, slide has %d levels", lv, len(s.levels))
	}
	if s.resErr != nil {
		return 0, 0, s.resErr
	}
	ds := s.downsample(lv)
	return s.baseMPPX * ds, s.baseMPPY * ds, nil
}

func (s *vipsSlide) ClosestLevel(mpp float64) (int, error) {
	if s.resErr != nil {
		return 0, s.resErr
	}
	downsamples := make([]float64, len(s.levels))
	for i := range s.levels {
		downsamples[i] = s.downsample(i)
	}
	return utils.ClosestLevel(downsamples, s.baseMPPX, s.baseMPPY, mpp), nil
}

func (s *vipsSlide) Close() error {
	return nil
}

func (s *vipsSlide) downsample(lv int) float64 {
	base := s.levels[0]
	l := s.levels[lv]
	dsX := float64(base.width) / float64(l.width)
	dsY := float64(base.height) / float64(l.height)
	return (dsX + dsY) / 2
}
