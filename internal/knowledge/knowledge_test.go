package knowledge

import (
	"testing"
)

func mustRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg
}

func TestRegistryLoadsAllProfiles(t *testing.T) {
	reg := mustRegistry(t)

	if got := len(reg.Profiles()); got != 4 {
		t.Fatalf("expected 4 game profiles, got %d", got)
	}
	for _, code := range []string{"OP", "UA", "VG", "DM"} {
		if _, ok := reg.Profile(code); !ok {
			t.Errorf("missing profile %s", code)
		}
	}

	// lookups are case-insensitive
	if _, ok := reg.Profile("op"); !ok {
		t.Error("lowercase lookup should resolve")
	}

	// unknown codes yield an empty profile, not an error
	p, ok := reg.Profile("YUGIOH")
	if ok {
		t.Error("unknown game should not resolve")
	}
	if p == nil || p.Code != "" {
		t.Errorf("unknown game should yield an empty profile, got %+v", p)
	}
}

func TestCardNumberPatterns(t *testing.T) {
	reg := mustRegistry(t)

	tests := []struct {
		name string
		text string
		want string
	}{
		{"one piece booster", "OP01-001", "OP01-001"},
		{"ocr zero for O", "0P01-001", "OP01-001"},
		{"spaced digits", "OP 05 119", "OP05-119"},
		{"starter deck", "ST01-001", "ST01-001"},
		{"extra booster", "EB01-061", "EB01-061"},
		{"one piece promo", "P-001", "P-001"},
		{"union arena", "UA01BT", "UA01BT"},
		{"union arena spaced", "UA 03 BT", "UA03BT"},
		{"vanguard standard", "D-BT05", "D-BT05"},
		{"vanguard dz era", "DZ-BT12", "DZ-BT12"},
		{"duel masters modern", "DMRP-22/110", "DMRP-22/110"},
		{"duel masters classic", "DM22-110", "DM22-110"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, ref := range reg.AllNumberPatterns() {
				got = append(got, ref.Pattern.FindAll(tt.text)...)
			}
			if len(got) == 0 {
				t.Fatalf("no pattern matched %q", tt.text)
			}
			if got[0] != tt.want {
				t.Errorf("first match = %q, want %q (all: %v)", got[0], tt.want, got)
			}
		})
	}
}

func TestGameForNumber(t *testing.T) {
	reg := mustRegistry(t)

	tests := []struct {
		num  string
		want string
	}{
		{"OP01-001", "OP"},
		{"ST01-001", "OP"},
		{"POP01-001", "OP"},
		{"P-025", "OP"},
		{"UA01BT", "UA"},
		{"01BT/UA01BT-001", "UA"}, // embedded BT marker fallback
		{"DZ-BT12", "VG"},
		{"D-SS05", "VG"},
		{"DMRP-22/110", "DM"},
		{"RP01", "DM"},
		{"op01-001", "OP"}, // case-insensitive
		{"XYZ-99", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := reg.GameForNumber(tt.num); got != tt.want {
			t.Errorf("GameForNumber(%q) = %q, want %q", tt.num, got, tt.want)
		}
	}
}

func TestClassifyColorPixel(t *testing.T) {
	reg := mustRegistry(t)

	tests := []struct {
		name     string
		game     string
		h, s, v  int
		want     string
		wantFind bool
	}{
		{"red low hue", "OP", 5, 200, 200, "赤", true},
		{"red wraps high hue", "OP", 175, 200, 200, "赤", true},
		{"red wraps high hue for duel masters", "DM", 175, 200, 200, "赤", true},
		{"blue", "OP", 110, 200, 200, "青", true},
		{"green", "OP", 60, 150, 150, "緑", true},
		{"black low value", "OP", 90, 40, 30, "黒", true},
		{"white via merged palette", "", 90, 10, 250, "白", true},
		{"desaturated midtone matches nothing", "OP", 12, 90, 90, "", false},
		{"vanguard has no palette, falls back to merged", "VG", 110, 200, 200, "青", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := reg.ClassifyColorPixel(tt.game, tt.h, tt.s, tt.v)
			if ok != tt.wantFind || got != tt.want {
				t.Errorf("ClassifyColorPixel(%q, %d,%d,%d) = %q,%t want %q,%t",
					tt.game, tt.h, tt.s, tt.v, got, ok, tt.want, tt.wantFind)
			}
		})
	}
}

func TestMergedPaletteCoversAllGames(t *testing.T) {
	reg := mustRegistry(t)

	want := map[string]bool{"赤": false, "青": false, "緑": false, "紫": false, "黄": false, "黒": false, "白": false}
	for _, c := range reg.Palette() {
		if _, ok := want[c.Name]; !ok {
			t.Errorf("unexpected palette color %q", c.Name)
		}
		want[c.Name] = true
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("palette missing %q", name)
		}
	}
}

func TestNativeColorToken(t *testing.T) {
	reg := mustRegistry(t)

	dm, _ := reg.Profile("DM")
	if got := dm.NativeColorToken("赤"); got != "火" {
		t.Errorf("DM 赤 = %q, want 火", got)
	}
	if got := dm.NativeColorToken("白"); got != "ゼロ" {
		t.Errorf("DM 白 = %q, want ゼロ", got)
	}

	// games without a translation table pass names through
	op, _ := reg.Profile("OP")
	if got := op.NativeColorToken("赤"); got != "赤" {
		t.Errorf("OP 赤 = %q, want 赤", got)
	}
}

func TestNumericAttributeSets(t *testing.T) {
	reg := mustRegistry(t)

	op, _ := reg.Profile("OP")
	if !op.ValidCost(0) || !op.ValidCost(10) || op.ValidCost(11) {
		t.Error("OP cost range should be 0..10")
	}
	if !op.ValidPower(5000) || op.ValidPower(5500) {
		t.Error("OP power values step by 1000")
	}

	ua, _ := reg.Profile("UA")
	if !ua.ValidPower(3500) {
		t.Error("UA power values step by 500")
	}

	vg, _ := reg.Profile("VG")
	if vg.ValidCost(6) {
		t.Error("VG grades stop at 5")
	}
}

func TestNormalizeCardNumber(t *testing.T) {
	if got := NormalizeCardNumber("  op01-001 "); got != "OP01-001" {
		t.Errorf("NormalizeCardNumber = %q", got)
	}
}
