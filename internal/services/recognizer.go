package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"time"
	"unicode/utf8"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"

	"github.com/tcge/card-intel/backend/internal/knowledge"
	"github.com/tcge/card-intel/backend/internal/metrics"
)

// ocrTextPreviewLength bounds the raw text echoed back in diagnostics.
const ocrTextPreviewLength = 200

// ErrImageDecode marks input bytes that are not a decodable image. This is
// the only fatal extraction failure.
var ErrImageDecode = errors.New("unable to decode image")

// RecognitionResult is the shared output contract of the local pipeline and
// the remote similarity path.
type RecognitionResult struct {
	Success bool             `json:"success"`
	Matches []MatchCandidate `json:"matches"`
	Message string           `json:"message"`

	GameCode           string          `json:"game_type,omitempty"`
	ExtractedNumbers   []string        `json:"extracted_numbers"`
	DetectedCharacters []string        `json:"detected_characters"`
	Features           *VisualFeatures `json:"features,omitempty"`
	OCRText            string          `json:"ocr_text,omitempty"`
	OCRAvailable       bool            `json:"ocr_available"`
	TimeMs             float64         `json:"time_ms"`
}

// Recognizer wires the local pipeline together: text signals and visual
// features feed the classifier, and all three feed retrieval.
type Recognizer struct {
	registry   *knowledge.Registry
	text       *TextSignalExtractor
	classifier *GameClassifier
	retrieval  *RetrievalEngine
}

func NewRecognizer(registry *knowledge.Registry, text *TextSignalExtractor, classifier *GameClassifier, retrieval *RetrievalEngine) *Recognizer {
	return &Recognizer{registry: registry, text: text, classifier: classifier, retrieval: retrieval}
}

// Recognize runs the local pipeline over raw image bytes. Undecodable input
// is the only fatal extraction failure; everything downstream degrades into a
// (possibly empty) candidate list.
func (r *Recognizer) Recognize(ctx context.Context, imageBytes []byte) (*RecognitionResult, error) {
	start := time.Now()
	reqID := uuid.NewString()[:8]

	img, format, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		metrics.RecognitionRequestsTotal.WithLabelValues("local", "decode_error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	log.Printf("[recognize %s] %s image %dx%d, %d bytes", reqID, format,
		img.Bounds().Dx(), img.Bounds().Dy(), len(imageBytes))

	signals := r.text.Extract(img)
	features := AnalyzeVisualFeatures(r.registry, img)
	gameCode := r.classifier.Classify(signals, features)
	log.Printf("[recognize %s] game=%q numbers=%v characters=%v color=%q ocr=%t",
		reqID, gameCode, signals.CardNumbers, signals.Characters,
		features.DominantColor, signals.Available)

	matches, err := r.retrieval.Retrieve(ctx, signals, features, gameCode)
	if err != nil {
		metrics.RecognitionRequestsTotal.WithLabelValues("local", "error").Inc()
		return nil, fmt.Errorf("candidate retrieval: %w", err)
	}

	result := &RecognitionResult{
		Matches:            matches,
		GameCode:           gameCode,
		ExtractedNumbers:   signals.CardNumbers,
		DetectedCharacters: signals.Characters,
		Features:           features,
		OCRText:            truncate(signals.RawText, ocrTextPreviewLength),
		OCRAvailable:       signals.Available,
		TimeMs:             float64(time.Since(start).Milliseconds()),
	}
	switch {
	case len(matches) > 0:
		result.Success = true
		result.Message = fmt.Sprintf("Found %d possible matches", len(matches))
		metrics.RecognitionRequestsTotal.WithLabelValues("local", "matched").Inc()
	case !signals.Available:
		result.Message = "No match found and text recognition is unavailable. Please search manually."
		metrics.RecognitionRequestsTotal.WithLabelValues("local", "no_match").Inc()
	default:
		result.Message = "No match found. Please try searching manually."
		metrics.RecognitionRequestsTotal.WithLabelValues("local", "no_match").Inc()
	}
	metrics.RecognitionDuration.WithLabelValues("local").Observe(time.Since(start).Seconds())
	log.Printf("[recognize %s] %d matches in %.0fms", reqID, len(matches), result.TimeMs)
	return result, nil
}

// truncate clips s to at most n bytes without splitting a multi-byte rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
