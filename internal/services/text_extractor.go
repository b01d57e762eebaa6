package services

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"log"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	"github.com/tcge/card-intel/backend/internal/knowledge"
	"github.com/tcge/card-intel/backend/internal/metrics"
)

// minOCRCropSize is the smallest crop edge worth handing to Tesseract.
const minOCRCropSize = 20

// regionPass describes one OCR pass over a normalized sub-region of the card.
type regionPass struct {
	name      string
	x0, y0    float64 // fractional crop box, zero box means full image
	x1, y1    float64
	invert    bool
	whitelist string
	psm       gosseract.PageSegMode
}

// regionResult carries the outcome of a single pass. Failed passes keep their
// error so the fold can log and drop them without aborting the extractor.
type regionResult struct {
	name string
	text string
	err  error
}

// cardRegionPasses is the fixed pass plan. The two card-number corners get an
// extra inverted pass because number print color varies between light-on-dark
// and dark-on-light across sets.
var cardRegionPasses = []regionPass{
	{name: "full", x1: 1, y1: 1, psm: gosseract.PSM_AUTO},
	{name: "bottom_strip", x0: 0, y0: 0.85, x1: 1, y1: 1, psm: gosseract.PSM_SINGLE_BLOCK},
	{name: "bottom_right", x0: 0.55, y0: 0.88, x1: 1, y1: 1, psm: gosseract.PSM_SINGLE_LINE},
	{name: "bottom_right_inv", x0: 0.55, y0: 0.88, x1: 1, y1: 1, invert: true, psm: gosseract.PSM_SINGLE_LINE},
	{name: "top_right", x0: 0.55, y0: 0, x1: 1, y1: 0.12, psm: gosseract.PSM_SINGLE_LINE},
	{name: "top_right_inv", x0: 0.55, y0: 0, x1: 1, y1: 0.12, invert: true, psm: gosseract.PSM_SINGLE_LINE},
	{name: "cost_box", x0: 0, y0: 0, x1: 0.15, y1: 0.15, whitelist: "0123456789", psm: gosseract.PSM_SINGLE_CHAR},
	{name: "power_box", x0: 0.45, y0: 0, x1: 0.75, y1: 0.12, whitelist: "0123456789", psm: gosseract.PSM_SINGLE_LINE},
}

// TextSignalExtractor runs Tesseract over a card image and distills the raw
// text into card numbers, character names and numeric attributes.
type TextSignalExtractor struct {
	registry  *knowledge.Registry
	language  string
	available bool
}

// NewTextSignalExtractor probes the OCR engine once. A failed probe is not an
// error; the extractor then produces degraded (empty, Available=false)
// signals for every request.
func NewTextSignalExtractor(registry *knowledge.Registry, language string) *TextSignalExtractor {
	e := &TextSignalExtractor{registry: registry, language: language}
	if err := e.probe(); err != nil {
		log.Printf("OCR engine unavailable, recognition will run without text signals: %v", err)
	} else {
		e.available = true
	}
	return e
}

// probe runs a throwaway OCR call on a tiny generated image to verify the
// Tesseract runtime and language data are actually usable.
func (e *TextSignalExtractor) probe() error {
	img := image.NewGray(image.Rect(0, 0, 32, 32))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}
	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(e.language); err != nil {
		return err
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return err
	}
	_, err := client.Text()
	return err
}

// Available reports whether the OCR engine passed its startup probe.
func (e *TextSignalExtractor) Available() bool {
	return e.available
}

// Extract runs the full pass plan against img and folds the results into
// ExtractedSignals. Individual pass failures are logged and dropped; the
// method itself never fails.
func (e *TextSignalExtractor) Extract(img image.Image) *ExtractedSignals {
	signals := &ExtractedSignals{Available: e.available}
	if !e.available {
		return signals
	}

	results := make([]regionResult, len(cardRegionPasses))
	var wg sync.WaitGroup
	for i, pass := range cardRegionPasses {
		wg.Add(1)
		go func(i int, pass regionPass) {
			defer wg.Done()
			text, err := e.runPass(img, pass)
			results[i] = regionResult{name: pass.name, text: text, err: err}
		}(i, pass)
	}
	wg.Wait()

	var fragments []string
	byRegion := make(map[string]string, len(results))
	for _, res := range results {
		if res.err != nil {
			log.Printf("OCR pass %s failed: %v", res.name, res.err)
			metrics.OCRRegionPassesTotal.WithLabelValues(res.name, "error").Inc()
			continue
		}
		metrics.OCRRegionPassesTotal.WithLabelValues(res.name, "success").Inc()
		byRegion[res.name] = res.text
		if res.text != "" {
			fragments = append(fragments, res.text)
		}
	}

	raw := truncate(strings.ToUpper(strings.Join(fragments, "\n")), maxRawTextLength)
	signals.RawText = raw
	signals.CardNumbers = extractCardNumbers(e.registry, raw)
	signals.Characters = extractCharacters(e.registry, raw)
	signals.Cost = parseCost(e.registry, byRegion["cost_box"])
	signals.Power = parsePower(e.registry, byRegion["power_box"])
	return signals
}

// runPass crops, enhances and OCRs one region. Each pass owns its own
// Tesseract client; gosseract clients are not safe for concurrent use.
func (e *TextSignalExtractor) runPass(img image.Image, pass regionPass) (string, error) {
	crop, err := cropFraction(img, pass.x0, pass.y0, pass.x1, pass.y1)
	if err != nil {
		return "", err
	}
	prepared := imaging.Sharpen(imaging.AdjustContrast(imaging.Grayscale(crop), 40), 0.8)
	if pass.invert {
		prepared = imaging.Invert(prepared)
	}
	if prepared.Bounds().Dy() < 60 {
		prepared = imaging.Resize(prepared, 0, 120, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, prepared); err != nil {
		return "", fmt.Errorf("encode %s crop: %w", pass.name, err)
	}

	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(e.language); err != nil {
		return "", err
	}
	if pass.whitelist != "" {
		if err := client.SetWhitelist(pass.whitelist); err != nil {
			return "", err
		}
	}
	if err := client.SetPageSegMode(pass.psm); err != nil {
		return "", err
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", err
	}
	text, err := client.Text()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// cropFraction cuts the fractional box (x0,y0)-(x1,y1) out of img. Boxes that
// collapse below the minimum OCR size are reported as errors so the caller
// can skip the pass.
func cropFraction(img image.Image, x0, y0, x1, y1 float64) (image.Image, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	rect := image.Rect(
		b.Min.X+int(x0*float64(w)),
		b.Min.Y+int(y0*float64(h)),
		b.Min.X+int(x1*float64(w)),
		b.Min.Y+int(y1*float64(h)),
	)
	if rect.Dx() < minOCRCropSize || rect.Dy() < minOCRCropSize {
		return nil, fmt.Errorf("crop %dx%d below minimum size", rect.Dx(), rect.Dy())
	}
	return imaging.Crop(img, rect), nil
}
