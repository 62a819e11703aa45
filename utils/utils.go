package utils

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
)

const (
	micronsPerInch       = 25400.0
	micronsPerCentimeter = 10000.0
)

// MPPFromDPI converts a dots-per-inch resolution to microns per pixel.
func MPPFromDPI(dpi float64) float64 {
	return micronsPerInch / dpi
}

// MPPFromPixelsPerCM converts a pixels-per-centimeter resolution to
// microns per pixel.
func MPPFromPixelsPerCM(ppcm float64) float64 {
	return micronsPerCentimeter / ppcm
}

// MPPFromEXIF reads XResolution/YResolution from a file's EXIF block and
// converts them to microns per pixel. Used as a fallback when the
// container's own directory lacks resolution tags.
func MPPFromEXIF(filePath string) (float64, float64, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return 0, 0, err
	}

	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil {
		return 0, 0, fmt.Errorf("EXIF not found: %v", err)
	}

	im := exifcommon.NewIfdMapping()
	ti := exif.NewTagIndex()
	if err := exifcommon.LoadStandardIfds(im); err != nil {
		return 0, 0, err
	}

	_, index, err := exif.Collect(im, ti, rawExif)
	if err != nil {
		return 0, 0, err
	}

	resX, okX := rationalTag(index, "XResolution")
	resY, okY := rationalTag(index, "YResolution")
	if !okX || !okY {
		return 0, 0, fmt.Errorf("EXIF resolution tags missing")
	}

	// ResolutionUnit: 2 = inch (default), 3 = centimeter.
	unit := uint16(2)
	if tag, err := index.RootIfd.FindTagWithName("ResolutionUnit"); err == nil {
		if val, err := tag[0].Value(); err == nil {
			if u, ok := val.(uint16); ok {
				unit = u
			}
		}
	}

	if unit == 3 {
		return MPPFromPixelsPerCM(resX), MPPFromPixelsPerCM(resY), nil
	}
	return MPPFromDPI(resX), MPPFromDPI(resY), nil
}

func rationalTag(index exif.IfdIndex, name string) (float64, bool) {
	tag, err := index.RootIfd.FindTagWithName(name)
	if err != nil {
		return 0, false
	}
	val, err := tag[0].Value()
	if err != nil {
		return 0, false
	}
	rats, ok := val.([]exifcommon.Rational)
	if !ok || len(rats) == 0 || rats[0].Denominator == 0 {
		return 0, false
	}
	return float64(rats[0].Numerator) / float64(rats[0].Denominator), true
}

// ParseAperioMPP extracts the scanner-reported microns-per-pixel value
// from an Aperio-style ImageDescription, which packs key/value pairs
// between '|' separators, e.g. "Aperio ...|AppMag = 40|MPP = 0.2498|...".
func ParseAperioMPP(desc string) (float64, bool) {
	for _, part := range strings.Split(desc, "|") {
		key, value, found := strings.Cut(part, "=")
		if !found {
			continue
		}
		if strings.TrimSpace(key) != "MPP" {
			continue
		}
		mpp, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || mpp <= 0 {
			return 0, false
		}
		return mpp, true
	}
	return 0, false
}

// SameAspect reports whether a page's aspect ratio matches the base
// level's within 2%. Vendor containers interleave label and macro
// images with the pyramid; those almost never share the slide's aspect.
func SameAspect(baseW, baseH, w, h int) bool {
	if baseW <= 0 || baseH <= 0 || w <= 0 || h <= 0 {
		return false
	}
	baseRatio := float64(baseW) / float64(baseH)
	ratio := float64(w) / float64(h)
	return math.Abs(ratio-baseRatio)/baseRatio < 0.02
}

// ClosestLevel picks the pyramid level whose downsample factor is
// nearest to the scale implied by the target resolution. The scale
// factor is the mean of the per-axis ratios between the target and the
// base level's resolution. Ties keep the lower level index.
func ClosestLevel(downsamples []float64, baseMPPX, baseMPPY, targetMPP float64) int {
	scale := (targetMPP/baseMPPX + targetMPP/baseMPPY) / 2

	best := 0
	bestDist := math.Inf(1)
	for i, ds := range downsamples {
		dist := math.Abs(ds - scale)
		if dist < bestDist {
			best = i
			bestDist = dist
		}
	}
	return best
}
