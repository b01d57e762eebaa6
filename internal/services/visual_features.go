package services

import (
	"image"
	"math"
	"sort"

	"github.com/tcge/card-intel/backend/internal/knowledge"
)

const (
	// standard TCG aspect ratio bounds (width / height)
	standardAspectMin = 0.65
	standardAspectMax = 0.80

	// border mask width as a fraction of the shorter image edge
	borderMaskFraction = 0.08

	// global contrast above this suggests a foil or parallel print
	specialPrintContrastThreshold = 65.0

	// corner sub-regions sampled for cost/attribute icon colors
	cornerFraction = 0.12
)

// ColorCount pairs a palette color name with its matching pixel count.
type ColorCount struct {
	Name   string `json:"name"`
	Pixels int    `json:"pixels"`
}

// VisualFeatures summarizes the color and geometry signals of one card
// image. It lives for a single recognition request.
type VisualFeatures struct {
	AspectRatio        float64      `json:"aspect_ratio"`
	Format             string       `json:"format"` // standard_tcg or non_standard
	ColorRanking       []ColorCount `json:"color_ranking"`
	DominantColor      string       `json:"dominant_color"`
	Brightness         float64      `json:"brightness"`
	Contrast           float64      `json:"contrast"`
	LikelySpecialPrint bool         `json:"likely_special_print"`
	TopLeftColor       string       `json:"top_left_color,omitempty"`
	TopRightColor      string       `json:"top_right_color,omitempty"`
}

// AnalyzeVisualFeatures computes aspect ratio, border-dominant color,
// brightness/contrast and corner colors for img against the merged palette.
func AnalyzeVisualFeatures(reg *knowledge.Registry, img image.Image) *VisualFeatures {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	f := &VisualFeatures{}
	if w == 0 || h == 0 {
		return f
	}

	f.AspectRatio = float64(w) / float64(h)
	if f.AspectRatio > standardAspectMin && f.AspectRatio < standardAspectMax {
		f.Format = "standard_tcg"
	} else {
		f.Format = "non_standard"
	}

	palette := reg.Palette()
	counts := make([]int, len(palette))
	margin := int(borderMaskFraction * float64(min(w, h)))
	if margin < 1 {
		margin = 1
	}

	var sum, sumSq float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			r8, g8, b8 := int(r>>8), int(g>>8), int(bl>>8)

			gray := 0.299*float64(r8) + 0.587*float64(g8) + 0.114*float64(b8)
			sum += gray
			sumSq += gray * gray

			if !inBorder(x-b.Min.X, y-b.Min.Y, w, h, margin) {
				continue
			}
			hue, sat, val := rgbToHSV(r8, g8, b8)
			for i, c := range palette {
				if c.Matches(hue, sat, val) {
					counts[i]++
					break
				}
			}
		}
	}

	total := float64(w * h)
	f.Brightness = sum / total
	variance := sumSq/total - f.Brightness*f.Brightness
	if variance > 0 {
		f.Contrast = math.Sqrt(variance)
	}
	f.LikelySpecialPrint = f.Contrast > specialPrintContrastThreshold

	for i, c := range palette {
		if counts[i] > 0 {
			f.ColorRanking = append(f.ColorRanking, ColorCount{Name: c.Name, Pixels: counts[i]})
		}
	}
	sort.SliceStable(f.ColorRanking, func(i, j int) bool {
		return f.ColorRanking[i].Pixels > f.ColorRanking[j].Pixels
	})
	if len(f.ColorRanking) > 0 {
		f.DominantColor = f.ColorRanking[0].Name
	}

	cw := int(cornerFraction * float64(w))
	ch := int(cornerFraction * float64(h))
	f.TopLeftColor = dominantColorIn(reg, img, image.Rect(b.Min.X, b.Min.Y, b.Min.X+cw, b.Min.Y+ch))
	f.TopRightColor = dominantColorIn(reg, img, image.Rect(b.Max.X-cw, b.Min.Y, b.Max.X, b.Min.Y+ch))
	return f
}

// dominantColorIn counts palette matches inside rect only. Returns "" when no
// pixel falls in any defined range.
func dominantColorIn(reg *knowledge.Registry, img image.Image, rect image.Rectangle) string {
	rect = rect.Intersect(img.Bounds())
	if rect.Empty() {
		return ""
	}
	palette := reg.Palette()
	counts := make([]int, len(palette))
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			hue, sat, val := rgbToHSV(int(r>>8), int(g>>8), int(bl>>8))
			for i, c := range palette {
				if c.Matches(hue, sat, val) {
					counts[i]++
					break
				}
			}
		}
	}
	best, bestCount := "", 0
	for i, c := range palette {
		if counts[i] > bestCount {
			best, bestCount = c.Name, counts[i]
		}
	}
	return best
}

func inBorder(x, y, w, h, margin int) bool {
	return x < margin || y < margin || x >= w-margin || y >= h-margin
}

// rgbToHSV converts 8-bit RGB to HSV on the same scale the knowledge-base
// thresholds use: H in [0,180), S and V in [0,255].
func rgbToHSV(r, g, b int) (int, int, int) {
	rf := float64(r) / 255
	gf := float64(g) / 255
	bf := float64(b) / 255
	maxC := math.Max(rf, math.Max(gf, bf))
	minC := math.Min(rf, math.Min(gf, bf))
	delta := maxC - minC

	var hue float64
	switch {
	case delta == 0:
		hue = 0
	case maxC == rf:
		hue = 60 * math.Mod((gf-bf)/delta, 6)
	case maxC == gf:
		hue = 60 * ((bf-rf)/delta + 2)
	default:
		hue = 60 * ((rf-gf)/delta + 4)
	}
	if hue < 0 {
		hue += 360
	}

	var sat float64
	if maxC > 0 {
		sat = delta / maxC
	}
	return int(hue / 2), int(sat * 255), int(maxC * 255)
}
