package utils

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestMPPConversions(t *testing.T) {
	if got := MPPFromDPI(25400); !almostEqual(got, 1.0) {
		t.Errorf("MPPFromDPI(25400) = %v, want 1.0", got)
	}
	if got := MPPFromDPI(40000); !almostEqual(got, 0.635) {
		t.Errorf("MPPFromDPI(40000) = %v, want 0.635", got)
	}
	if got := MPPFromPixelsPerCM(10000); !almostEqual(got, 1.0) {
		t.Errorf("MPPFromPixelsPerCM(10000) = %v, want 1.0", got)
	}
	if got := MPPFromPixelsPerCM(40000); !almostEqual(got, 0.25) {
		t.Errorf("MPPFromPixelsPerCM(40000) = %v, want 0.25", got)
	}
}

func TestParseAperioMPP(t *testing.T) {
	t.Run("typical SVS description", func(t *testing.T) {
		desc := "Aperio Image Library v10.0.51\r\n46000x32914 [0,0 46000x32893] (256x256) JPEG/RGB Q=30|AppMag = 20|StripeWidth = 2032|ScanScope ID = CPAPERIOCS|Date = 12/29/09|MPP = 0.4990|Left = 25.691574|Top = 23.449873"
		mpp, ok := ParseAperioMPP(desc)
		if !ok {
			t.Fatal("Expected MPP to be found")
		}
		if !almostEqual(mpp, 0.499) {
			t.Errorf("MPP = %v, want 0.4990", mpp)
		}
	})

	t.Run("no MPP entry", func(t *testing.T) {
		if _, ok := ParseAperioMPP("plain tiff description"); ok {
			t.Error("Expected no MPP in a plain description")
		}
	})

	t.Run("malformed value", func(t *testing.T) {
		if _, ok := ParseAperioMPP("x|MPP = abc|y"); ok {
			t.Error("Expected malformed MPP to be rejected")
		}
	})

	t.Run("non-positive value", func(t *testing.T) {
		if _, ok := ParseAperioMPP("x|MPP = 0|y"); ok {
			t.Error("Expected zero MPP to be rejected")
		}
	})

	t.Run("tight spacing", func(t *testing.T) {
		mpp, ok := ParseAperioMPP("a|MPP=0.25|b")
		if !ok || !almostEqual(mpp, 0.25) {
			t.Errorf("MPP = %v ok=%v, want 0.25", mpp, ok)
		}
	})
}

func TestSameAspect(t *testing.T) {
	if !SameAspect(4096, 2048, 1024, 512) {
		t.Error("Downsampled level should match the base aspect")
	}
	if SameAspect(4096, 2048, 400, 300) {
		t.Error("A 4:3 label should not match a 2:1 slide")
	}
	if SameAspect(4096, 2048, 0, 512) {
		t.Error("Zero dimensions never match")
	}
}

func TestClosestLevel(t *testing.T) {
	downsamples := []float64{1, 4, 16}

	t.Run("exact match", func(t *testing.T) {
		if got := ClosestLevel(downsamples, 0.25, 0.25, 1.0); got != 1 {
			t.Errorf("ClosestLevel = %d, want 1", got)
		}
	})

	t.Run("base level wins for target at base resolution", func(t *testing.T) {
		if got := ClosestLevel(downsamples, 0.25, 0.25, 0.25); got != 0 {
			t.Errorf("ClosestLevel = %d, want 0", got)
		}
	})

	t.Run("nearest above", func(t *testing.T) {
		if got := ClosestLevel(downsamples, 0.25, 0.25, 3.0); got != 2 {
			t.Errorf("ClosestLevel = %d, want 2", got)
		}
	})

	t.Run("tie keeps the lower index", func(t *testing.T) {
		// Scale factor 4 sits exactly between downsamples 2 and 6.
		if got := ClosestLevel([]float64{2, 6}, 0.25, 0.25, 1.0); got != 0 {
			t.Errorf("ClosestLevel = %d, want 0 on a tie", got)
		}
	})

	t.Run("anisotropic base resolution averages the axes", func(t *testing.T) {
		// Ratios 2 and 4 average to scale 3, nearest downsample is 4.
		if got := ClosestLevel([]float64{1, 4}, 0.5, 0.25, 1.0); got != 1 {
			t.Errorf("ClosestLevel = %d, want 1", got)
		}
	})
}
