// Package knowledge holds the static per-game card taxonomy used by the
// recognition pipeline: card-number formats, border color palettes, layout
// regions, and known character aliases. Profiles are built once at startup,
// validated, and shared read-only across all requests.
package knowledge

import (
	"fmt"
	"regexp"
	"strings"
)

// HSVRange is a closed range in OpenCV-scaled HSV space (H 0-180, S/V 0-255).
type HSVRange struct {
	HMin, HMax int
	SMin, SMax int
	VMin, VMax int
}

// Contains reports whether the pixel falls inside the range.
func (r HSVRange) Contains(h, s, v int) bool {
	return h >= r.HMin && h <= r.HMax &&
		s >= r.SMin && s <= r.SMax &&
		v >= r.VMin && v <= r.VMax
}

// ColorDefinition is one named border color. Red wraps the hue circle and
// therefore carries two disjoint ranges.
type ColorDefinition struct {
	Name      string // native name, e.g. "赤"
	NameCN    string
	Ranges    []HSVRange
	SampleRGB [3]uint8
}

// Matches reports whether an HSV pixel belongs to any of the color's ranges.
func (c ColorDefinition) Matches(h, s, v int) bool {
	for _, r := range c.Ranges {
		if r.Contains(h, s, v) {
			return true
		}
	}
	return false
}

// LayoutRegion is a fractional bounding box relative to the card image.
type LayoutRegion struct {
	X, Y, W, H float64
}

// CardNumberPattern pairs a tolerant OCR-side regex with a formatter that
// rebuilds the canonical card number from the submatches.
type CardNumberPattern struct {
	re     *regexp.Regexp
	format func(groups []string) string
}

// FindAll returns every canonical card number the pattern finds in text.
func (p CardNumberPattern) FindAll(text string) []string {
	var out []string
	for _, m := range p.re.FindAllStringSubmatch(text, -1) {
		if num := p.format(m); num != "" {
			out = append(out, num)
		}
	}
	return out
}

// NameAlias maps a character's native printed name to the transliterations it
// is known by in OCR output and catalog entries.
type NameAlias struct {
	Native   string
	Variants []string
}

// GameProfile is the complete knowledge record for one supported game.
// Immutable after construction.
type GameProfile struct {
	Code           string
	Name           string
	Manufacturer   string
	NumberPatterns []CardNumberPattern
	NumberPrefixes []string // card-number prefixes unique to this game
	TextMarkers    []string // literal OCR substrings that identify this game
	Colors         []ColorDefinition
	Layout         map[string]LayoutRegion
	CostValues     []int
	PowerValues    []int
	Aliases        []NameAlias

	// native display-name color tokens, keyed by palette color name
	colorTokens map[string]string
}

// NativeColorToken translates a palette color name into the token this game
// embeds in card display names (e.g. 赤 -> 火 for Duel Masters). Falls back to
// the palette name itself.
func (p *GameProfile) NativeColorToken(color string) string {
	if p.colorTokens != nil {
		if tok, ok := p.colorTokens[color]; ok {
			return tok
		}
	}
	return color
}

// ValidCost reports whether v is a plausible cost/level value for this game.
func (p *GameProfile) ValidCost(v int) bool {
	for _, c := range p.CostValues {
		if c == v {
			return true
		}
	}
	return false
}

// ValidPower reports whether v is a printed power/BP value for this game.
func (p *GameProfile) ValidPower(v int) bool {
	for _, c := range p.PowerValues {
		if c == v {
			return true
		}
	}
	return false
}

// PatternRef ties a card-number pattern back to its owning game.
type PatternRef struct {
	GameCode string
	Pattern  CardNumberPattern
}

// Registry is the loaded, immutable set of game profiles.
type Registry struct {
	profiles []*GameProfile
	byCode   map[string]*GameProfile
	palette  []ColorDefinition
}

// NewRegistry builds and validates the built-in game profiles. Construction
// errors indicate malformed static data and are fatal at startup.
func NewRegistry() (*Registry, error) {
	profiles := []*GameProfile{
		onePieceProfile(),
		unionArenaProfile(),
		vanguardProfile(),
		duelMastersProfile(),
	}

	r := &Registry{byCode: make(map[string]*GameProfile)}
	for _, p := range profiles {
		if err := validateProfile(p); err != nil {
			return nil, fmt.Errorf("profile %s: %w", p.Code, err)
		}
		if _, dup := r.byCode[p.Code]; dup {
			return nil, fmt.Errorf("duplicate game code %s", p.Code)
		}
		r.profiles = append(r.profiles, p)
		r.byCode[p.Code] = p
	}
	r.palette = mergePalette(profiles)
	return r, nil
}

func validateProfile(p *GameProfile) error {
	if p.Code == "" || p.Name == "" {
		return fmt.Errorf("missing code or name")
	}
	if len(p.NumberPatterns) == 0 {
		return fmt.Errorf("no card number patterns")
	}
	for _, c := range p.Colors {
		if c.Name == "" {
			return fmt.Errorf("unnamed color definition")
		}
		if len(c.Ranges) == 0 {
			return fmt.Errorf("color %s has no HSV ranges", c.Name)
		}
		for _, hr := range c.Ranges {
			if hr.HMin > hr.HMax || hr.SMin > hr.SMax || hr.VMin > hr.VMax {
				return fmt.Errorf("color %s has an inverted HSV range", c.Name)
			}
		}
	}
	for name, region := range p.Layout {
		if region.W <= 0 || region.H <= 0 || region.X < 0 || region.Y < 0 {
			return fmt.Errorf("layout region %s is degenerate", name)
		}
	}
	return nil
}

// mergePalette unions all profiles' color definitions by name, preserving
// first-seen order. Ranges accumulate so a name shared across games matches
// any game's thresholds.
func mergePalette(profiles []*GameProfile) []ColorDefinition {
	var order []string
	merged := make(map[string]*ColorDefinition)
	for _, p := range profiles {
		for _, c := range p.Colors {
			existing, ok := merged[c.Name]
			if !ok {
				cp := c
				merged[c.Name] = &cp
				order = append(order, c.Name)
				continue
			}
			for _, r := range c.Ranges {
				seen := false
				for _, have := range existing.Ranges {
					if have == r {
						seen = true
						break
					}
				}
				if !seen {
					existing.Ranges = append(existing.Ranges, r)
				}
			}
		}
	}
	out := make([]ColorDefinition, 0, len(order))
	for _, name := range order {
		out = append(out, *merged[name])
	}
	return out
}

// Profile returns the profile for a game code. Unknown codes yield an empty
// profile and false, never an error; callers must handle the empty case.
func (r *Registry) Profile(code string) (*GameProfile, bool) {
	p, ok := r.byCode[strings.ToUpper(code)]
	if !ok {
		return &GameProfile{}, false
	}
	return p, true
}

// Profiles returns every loaded profile in registration order.
func (r *Registry) Profiles() []*GameProfile {
	return r.profiles
}

// AllNumberPatterns returns every game's card-number patterns in priority
// order (profile order, then pattern order within the profile).
func (r *Registry) AllNumberPatterns() []PatternRef {
	var refs []PatternRef
	for _, p := range r.profiles {
		for _, pat := range p.NumberPatterns {
			refs = append(refs, PatternRef{GameCode: p.Code, Pattern: pat})
		}
	}
	return refs
}

// Palette returns the union of all profiles' color definitions.
func (r *Registry) Palette() []ColorDefinition {
	return r.palette
}

// ClassifyColorPixel maps an HSV pixel to a color name using the given game's
// definitions, or the merged palette when the game is unknown or carries no
// palette of its own. Pixels outside every range belong to no color.
func (r *Registry) ClassifyColorPixel(gameCode string, h, s, v int) (string, bool) {
	colors := r.palette
	if p, ok := r.byCode[strings.ToUpper(gameCode)]; ok && len(p.Colors) > 0 {
		colors = p.Colors
	}
	for _, c := range colors {
		if c.Matches(h, s, v) {
			return c.Name, true
		}
	}
	return "", false
}

// GameForNumber identifies the owning game of a canonical card number by its
// prefix. Longer prefixes are registered first per profile, so the most
// specific prefix wins. Returns "" when nothing matches.
func (r *Registry) GameForNumber(cardNumber string) string {
	num := strings.ToUpper(strings.TrimSpace(cardNumber))
	if num == "" {
		return ""
	}
	for _, p := range r.profiles {
		for _, prefix := range p.NumberPrefixes {
			if strings.HasPrefix(num, prefix) {
				return p.Code
			}
		}
	}
	// Union Arena numbers embed a BT marker rather than leading it
	if strings.Contains(num, "BT/") {
		return "UA"
	}
	return ""
}
