package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"
	"unicode/utf8"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func newDegradedRecognizer(t *testing.T) *Recognizer {
	t.Helper()
	reg := testRegistry(t)
	db := newTestDB(t)
	seedCatalog(t, db)
	// extractor without a probed engine stays in degraded mode
	text := &TextSignalExtractor{registry: reg}
	retrieval := newTestEngine(t, db, DefaultRetrievalConfig())
	return NewRecognizer(reg, text, NewGameClassifier(reg), retrieval)
}

func TestTruncatePreservesRuneBoundaries(t *testing.T) {
	tests := []struct {
		s    string
		n    int
		want string
	}{
		{"OP01-001", 4, "OP01"},
		{"OP01", 10, "OP01"},
		{"ルフィ", 9, "ルフィ"}, // exactly three 3-byte runes
		{"ルフィ", 8, "ルフ"},  // cut mid-rune, backs up to a boundary
		{"ルフィ", 4, "ル"},
		{"ルフィ", 2, ""},
		{"", 5, ""},
	}
	for _, tt := range tests {
		got := truncate(tt.s, tt.n)
		if got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.s, tt.n, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) produced invalid UTF-8 %q", tt.s, tt.n, got)
		}
	}
}

func TestRecognizeRejectsUndecodableInput(t *testing.T) {
	r := newDegradedRecognizer(t)

	_, err := r.Recognize(context.Background(), []byte("definitely not an image"))
	if !errors.Is(err, ErrImageDecode) {
		t.Fatalf("err = %v, want ErrImageDecode", err)
	}
}

func TestRecognizeDegradesToPopularityFallback(t *testing.T) {
	r := newDegradedRecognizer(t)

	// OCR down, no text signals: the pipeline must still answer with the
	// popularity fallback instead of failing
	result, err := r.Recognize(context.Background(), pngBytes(t, 200, 280))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}

	if result.OCRAvailable {
		t.Error("diagnostics should report OCR as unavailable")
	}
	if result.GameCode != "" {
		t.Errorf("game = %q, want unknown", result.GameCode)
	}
	if len(result.Matches) == 0 {
		t.Fatal("expected popularity fallback matches")
	}
	for _, m := range result.Matches {
		if m.Confidence != 30 || m.MatchType != "popular" {
			t.Errorf("match = conf %d type %q, want the popularity fallback", m.Confidence, m.MatchType)
		}
	}
	if !result.Success {
		t.Error("a non-empty candidate list is a success")
	}
	if result.Features == nil || result.Features.Format != "standard_tcg" {
		t.Errorf("features = %+v, want standard_tcg aspect", result.Features)
	}
}
