package services

import (
	"strings"

	"github.com/tcge/card-intel/backend/internal/knowledge"
)

// GameClassifier decides which supported game a card belongs to. Pure
// lookups against the knowledge registry, no I/O.
type GameClassifier struct {
	registry *knowledge.Registry
}

func NewGameClassifier(registry *knowledge.Registry) *GameClassifier {
	return &GameClassifier{registry: registry}
}

// Classify returns the game code for the extracted signals, or "" when the
// card cannot be identified. Card-number prefixes are checked first, then
// game-specific text markers in the raw OCR output. Aspect ratio is never
// used; all supported games share the same physical card size.
func (c *GameClassifier) Classify(signals *ExtractedSignals, features *VisualFeatures) string {
	if signals != nil {
		for _, num := range signals.CardNumbers {
			if code := c.registry.GameForNumber(num); code != "" {
				return code
			}
		}
		if signals.RawText != "" {
			raw := strings.ToUpper(signals.RawText)
			for _, profile := range c.registry.Profiles() {
				for _, marker := range profile.TextMarkers {
					if strings.Contains(raw, marker) {
						return profile.Code
					}
				}
			}
		}
	}
	return ""
}
