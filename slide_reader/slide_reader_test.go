package slide_reader

import (
	"fmt"
	"testing"

	"slidemeta/contracts"
)

type stubSlide struct{ name string }

func (s *stubSlide) LevelCount() int { return 1 }

func (s *stubSlide) ClosestLevel(float64) (int, error) { return 0, nil }

func (s *stubSlide) LevelDimensions(int) (int, int, error) { return 1, 1, nil }

func (s *stubSlide) LevelResolution(int) (float64, float64, error) { return 1, 1, nil }

func (s *stubSlide) Close() error { return nil }

type stubReader struct {
	name string
	err  error
}

func (r *stubReader) Open(path string) (contracts.Slide, error) {
	if r.err != nil {
		return nil, r.err
	}
	return &stubSlide{name: r.name}, nil
}

func TestNewNamedBackends(t *testing.T) {
	if _, err := New("tiff"); err != nil {
		t.Errorf("tiff backend should always be available: %v", err)
	}
	if _, err := New("auto"); err != nil {
		t.Errorf("auto backend should always be available: %v", err)
	}
	if _, err := New("bogus"); err == nil {
		t.Error("Expected an error for an unknown backend name")
	}
}

func TestIsTIFFFamily(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"slide.svs", true},
		{"SLIDE.SVS", true},
		{"a/b/c.tiff", true},
		{"scan.ndpi", true},
		{"scan.scn", true},
		{"scan.bif", true},
		{"scan.mrxs", false},
		{"scan.czi", false},
		{"scan.dcm", false},
		{"scan.svslide", false},
		{"noext", false},
	}
	for _, c := range cases {
		if got := IsTIFFFamily(c.path); got != c.want {
			t.Errorf("IsTIFFFamily(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}

func TestAutoReaderRouting(t *testing.T) {
	t.Run("tiff family goes to the tiff reader", func(t *testing.T) {
		auto := &AutoReader{
			TIFF:   &stubReader{name: "tiff"},
			Vendor: &stubReader{name: "vendor"},
		}
		slide, err := auto.Open("a.svs")
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		if slide.(*stubSlide).name != "tiff" {
			t.Errorf("Routed to %q, want tiff", slide.(*stubSlide).name)
		}
	})

	t.Run("vendor format goes to the vendor reader", func(t *testing.T) {
		auto := &AutoReader{
			TIFF:   &stubReader{name: "tiff"},
			Vendor: &stubReader{name: "vendor"},
		}
		slide, err := auto.Open("a.mrxs")
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		if slide.(*stubSlide).name != "vendor" {
			t.Errorf("Routed to %q, want vendor", slide.(*stubSlide).name)
		}
	})

	t.Run("tiff failure falls back to the vendor reader", func(t *testing.T) {
		auto := &AutoReader{
			TIFF:   &stubReader{name: "tiff", err: fmt.Errorf("BigTIFF container not supported")},
			Vendor: &stubReader{name: "vendor"},
		}
		slide, err := auto.Open("a.svs")
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		if slide.(*stubSlide).name != "vendor" {
			t.Errorf("Routed to %q, want vendor fallback", slide.(*stubSlide).name)
		}
	})

	t.Run("tiff failure without vendor reader surfaces", func(t *testing.T) {
		auto := &AutoReader{
			TIFF: &stubReader{name: "tiff", err: fmt.Errorf("parse failed")},
		}
		if _, err := auto.Open("a.svs"); err == nil {
			t.Error("Expected the tiff error to surface")
		}
	})

	t.Run("vendor format without vendor reader errors", func(t *testing.T) {
		auto := &AutoReader{TIFF: &stubReader{name: "tiff"}}
		if _, err := auto.Open("a.czi"); err == nil {
			t.Error("Expected an error when no vendor backend is built in")
		}
	})
}
