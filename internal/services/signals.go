package services

import (
	"strings"

	"github.com/tcge/card-intel/backend/internal/knowledge"
)

// maxRawTextLength bounds the concatenated OCR text kept on a request.
const maxRawTextLength = 10000

// ExtractedSignals holds everything the text extractor pulled out of one
// image. It lives for a single recognition request.
type ExtractedSignals struct {
	CardNumbers []string `json:"card_numbers"`
	Characters  []string `json:"characters"`
	Cost        *int     `json:"cost,omitempty"`
	Power       *int     `json:"power,omitempty"`
	RawText     string   `json:"-"`
	Available   bool     `json:"ocr_available"`
}

// extractCardNumbers applies every game's number patterns against text and
// returns the canonical matches, deduplicated in first-seen order.
func extractCardNumbers(reg *knowledge.Registry, text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, ref := range reg.AllNumberPatterns() {
		for _, num := range ref.Pattern.FindAll(text) {
			if !seen[num] {
				seen[num] = true
				out = append(out, num)
			}
		}
	}
	return out
}

// extractCharacters finds known character names in text by plain substring
// search over each alias and its transliterations. Matches report the native
// printed name, deduplicated in first-seen order.
func extractCharacters(reg *knowledge.Registry, text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, profile := range reg.Profiles() {
		for _, alias := range profile.Aliases {
			if seen[alias.Native] {
				continue
			}
			if containsAlias(text, alias) {
				seen[alias.Native] = true
				out = append(out, alias.Native)
			}
		}
	}
	return out
}

func containsAlias(text string, alias knowledge.NameAlias) bool {
	if strings.Contains(text, alias.Native) {
		return true
	}
	for _, v := range alias.Variants {
		if strings.Contains(text, strings.ToUpper(v)) {
			return true
		}
	}
	return false
}

// parseCost scans the digit-only OCR output of the cost box and returns the
// first run of digits that is a valid cost for any supported game.
func parseCost(reg *knowledge.Registry, digitText string) *int {
	for _, v := range digitRuns(digitText) {
		for _, profile := range reg.Profiles() {
			if profile.ValidCost(v) {
				return &v
			}
		}
	}
	return nil
}

// parsePower returns the first digit run that is a printed power value for
// any game. OCR frequently drops the trailing zeros of large power values,
// so runs between 100 and 1200 are rescaled by 10 as a fallback.
func parsePower(reg *knowledge.Registry, digitText string) *int {
	runs := digitRuns(digitText)
	for _, v := range runs {
		for _, profile := range reg.Profiles() {
			if profile.ValidPower(v) {
				return &v
			}
		}
	}
	for _, v := range runs {
		if v >= 100 && v <= 1200 {
			scaled := v * 10
			return &scaled
		}
	}
	return nil
}

// digitRuns splits text into maximal runs of ASCII digits and parses each,
// preserving order. Runs longer than six digits are OCR noise and skipped.
func digitRuns(text string) []int {
	var out []int
	run := 0
	length := 0
	flush := func() {
		if length > 0 && length <= 6 {
			out = append(out, run)
		}
		run, length = 0, 0
	}
	for _, r := range text {
		if r >= '0' && r <= '9' {
			run = run*10 + int(r-'0')
			length++
		} else {
			flush()
		}
	}
	flush()
	return out
}
