package services

import (
	"image"
	"strings"
	"testing"
)

func TestCropFraction(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 400, 560))

	crop, err := cropFraction(img, 0.55, 0.88, 1, 1)
	if err != nil {
		t.Fatalf("cropFraction: %v", err)
	}
	b := crop.Bounds()
	if b.Dx() != 180 || b.Dy() != 68 {
		t.Errorf("crop = %dx%d, want 180x68", b.Dx(), b.Dy())
	}

	// collapsed boxes are an error the pass plan swallows, not a panic
	tiny := image.NewRGBA(image.Rect(0, 0, 40, 56))
	if _, err := cropFraction(tiny, 0, 0, 0.15, 0.15); err == nil {
		t.Error("sub-minimum crop should be rejected")
	}
}

func TestCardRegionPassPlan(t *testing.T) {
	inverted := map[string]bool{}
	whitelisted := map[string]string{}
	full := 0
	for _, pass := range cardRegionPasses {
		if pass.invert {
			inverted[pass.name] = true
		}
		if pass.whitelist != "" {
			whitelisted[pass.name] = pass.whitelist
		}
		if pass.x0 == 0 && pass.y0 == 0 && pass.x1 == 1 && pass.y1 == 1 {
			full++
		}
	}

	if full != 1 {
		t.Errorf("full-image passes = %d, want exactly 1", full)
	}
	// both card-number corners carry a light-on-dark retry
	for _, name := range []string{"bottom_right_inv", "top_right_inv"} {
		if !inverted[name] {
			t.Errorf("missing inverted pass %s", name)
		}
	}
	// numeric attribute boxes only accept digits
	for _, name := range []string{"cost_box", "power_box"} {
		wl, ok := whitelisted[name]
		if !ok || strings.ContainsFunc(wl, func(r rune) bool { return r < '0' || r > '9' }) {
			t.Errorf("pass %s whitelist = %q, want digits only", name, wl)
		}
	}
}

func TestDegradedExtractorProducesEmptySignals(t *testing.T) {
	e := &TextSignalExtractor{registry: testRegistry(t)}

	signals := e.Extract(image.NewRGBA(image.Rect(0, 0, 200, 280)))
	if signals.Available {
		t.Error("unprobed extractor must report unavailable")
	}
	if len(signals.CardNumbers) != 0 || len(signals.Characters) != 0 || signals.RawText != "" {
		t.Errorf("degraded signals should be empty, got %+v", signals)
	}
}
