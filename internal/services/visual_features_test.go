package services

import (
	"image"
	"image/color"
	"testing"
)

// borderImage builds a card-shaped image with a uniform border color and a
// neutral gray interior that matches no palette range.
func borderImage(w, h, margin int, border color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	interior := color.RGBA{R: 128, G: 128, B: 128, A: 255}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < margin || y < margin || x >= w-margin || y >= h-margin {
				img.SetRGBA(x, y, border)
			} else {
				img.SetRGBA(x, y, interior)
			}
		}
	}
	return img
}

func TestDominantColorRoundTrip(t *testing.T) {
	reg := testRegistry(t)

	// paint the border with each palette color's sample RGB and expect that
	// color back, with at least 90% of border pixels counted
	for _, c := range reg.Palette() {
		t.Run(c.Name, func(t *testing.T) {
			border := color.RGBA{R: c.SampleRGB[0], G: c.SampleRGB[1], B: c.SampleRGB[2], A: 255}
			w, h := 200, 280
			margin := int(borderMaskFraction * float64(w))
			img := borderImage(w, h, margin, border)

			f := AnalyzeVisualFeatures(reg, img)
			if f.DominantColor != c.Name {
				t.Fatalf("dominant color = %q, want %q (ranking %v)", f.DominantColor, c.Name, f.ColorRanking)
			}
			borderPixels := w*h - (w-2*margin)*(h-2*margin)
			if counted := f.ColorRanking[0].Pixels; counted < borderPixels*9/10 {
				t.Errorf("counted %d of %d border pixels, want >= 90%%", counted, borderPixels)
			}
		})
	}
}

func TestAspectRatioFormat(t *testing.T) {
	reg := testRegistry(t)

	tests := []struct {
		name string
		w, h int
		want string
	}{
		{"standard card", 200, 280, "standard_tcg"},
		{"square scan", 200, 200, "non_standard"},
		{"landscape", 280, 200, "non_standard"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := image.NewRGBA(image.Rect(0, 0, tt.w, tt.h))
			if f := AnalyzeVisualFeatures(reg, img); f.Format != tt.want {
				t.Errorf("format for %dx%d = %q, want %q", tt.w, tt.h, f.Format, tt.want)
			}
		})
	}
}

func TestUnmatchedPixelsCountNowhere(t *testing.T) {
	reg := testRegistry(t)

	// mid-gray is outside every defined HSV range
	img := image.NewRGBA(image.Rect(0, 0, 100, 140))
	gray := color.RGBA{R: 128, G: 128, B: 128, A: 255}
	for y := 0; y < 140; y++ {
		for x := 0; x < 100; x++ {
			img.SetRGBA(x, y, gray)
		}
	}

	f := AnalyzeVisualFeatures(reg, img)
	if f.DominantColor != "" {
		t.Errorf("dominant color = %q, want none", f.DominantColor)
	}
	if len(f.ColorRanking) != 0 {
		t.Errorf("color ranking = %v, want empty", f.ColorRanking)
	}
}

func TestContrastFlagsSpecialPrints(t *testing.T) {
	reg := testRegistry(t)

	flat := image.NewRGBA(image.Rect(0, 0, 100, 140))
	for i := range flat.Pix {
		flat.Pix[i] = 128
	}
	if f := AnalyzeVisualFeatures(reg, flat); f.LikelySpecialPrint {
		t.Errorf("flat image flagged as special print (contrast %.1f)", f.Contrast)
	}

	// checkerboard has maximal global contrast
	board := image.NewRGBA(image.Rect(0, 0, 100, 140))
	for y := 0; y < 140; y++ {
		for x := 0; x < 100; x++ {
			v := uint8(0)
			if (x+y)%2 == 0 {
				v = 255
			}
			board.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	f := AnalyzeVisualFeatures(reg, board)
	if !f.LikelySpecialPrint {
		t.Errorf("checkerboard not flagged as special print (contrast %.1f)", f.Contrast)
	}
}

func TestCornerColors(t *testing.T) {
	reg := testRegistry(t)

	w, h := 200, 280
	img := borderImage(w, h, 1, color.RGBA{R: 128, G: 128, B: 128, A: 255})
	red := color.RGBA{R: 220, G: 50, B: 50, A: 255}
	blue := color.RGBA{R: 50, G: 100, B: 220, A: 255}
	cw, ch := int(cornerFraction*float64(w)), int(cornerFraction*float64(h))
	for y := 0; y < ch; y++ {
		for x := 0; x < cw; x++ {
			img.SetRGBA(x, y, red)
			img.SetRGBA(w-1-x, y, blue)
		}
	}

	f := AnalyzeVisualFeatures(reg, img)
	if f.TopLeftColor != "赤" {
		t.Errorf("top-left color = %q, want 赤", f.TopLeftColor)
	}
	if f.TopRightColor != "青" {
		t.Errorf("top-right color = %q, want 青", f.TopRightColor)
	}
}
