package services

import (
	"reflect"
	"testing"

	"github.com/tcge/card-intel/backend/internal/knowledge"
)

func testRegistry(t *testing.T) *knowledge.Registry {
	t.Helper()
	reg, err := knowledge.NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg
}

func TestExtractCardNumbers(t *testing.T) {
	reg := testRegistry(t)

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "single number",
			text: "MONKEY D LUFFY\nOP01-001\nLEADER",
			want: []string{"OP01-001"},
		},
		{
			name: "duplicates collapse to first-seen",
			text: "OP01-001 NOISE ST01 001 OP01-001",
			want: []string{"OP01-001", "ST01-001"},
		},
		{
			name: "ocr reads O as zero",
			text: "0P05-119",
			want: []string{"OP05-119"},
		},
		{
			name: "mixed games",
			text: "UA01BT SOMETHING DMRP-22/110",
			want: []string{"UA01BT", "DMRP-22/110"},
		},
		{
			name: "no numbers",
			text: "JUST FLAVOR TEXT",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractCardNumbers(reg, tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("extractCardNumbers(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractCharacters(t *testing.T) {
	reg := testRegistry(t)

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"native name", "リーダー ルフィ 5000", []string{"ルフィ"}},
		{"transliteration", "MONKEY D LUFFY", []string{"ルフィ", "モンキー"}},
		{"traditional chinese alias", "路飛 LEADER", []string{"ルフィ"}},
		{"duplicate sources report once", "LUFFY ルフィ", []string{"ルフィ"}},
		{"nothing known", "UNRELATED TEXT", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractCharacters(reg, tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("extractCharacters(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseCost(t *testing.T) {
	reg := testRegistry(t)

	tests := []struct {
		name string
		text string
		want int
		ok   bool
	}{
		{"plain digit", "7", 7, true},
		{"first valid run wins", "99 4", 4, true},
		{"dm mana reaches fifteen", "15", 15, true},
		{"out of every range", "99", 0, false},
		{"empty", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseCost(reg, tt.text)
			if (got != nil) != tt.ok {
				t.Fatalf("parseCost(%q) presence = %v, want %v", tt.text, got != nil, tt.ok)
			}
			if got != nil && *got != tt.want {
				t.Errorf("parseCost(%q) = %d, want %d", tt.text, *got, tt.want)
			}
		})
	}
}

func TestParsePower(t *testing.T) {
	reg := testRegistry(t)

	tests := []struct {
		name string
		text string
		want int
		ok   bool
	}{
		{"exact power value", "5000", 5000, true},
		{"half step value", "3500", 3500, true},
		{"magnitude dropped by ocr", "500", 5000, true},
		{"garbage run too long", "1234567", 0, false},
		{"nothing numeric", "POWER", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parsePower(reg, tt.text)
			if (got != nil) != tt.ok {
				t.Fatalf("parsePower(%q) presence = %v, want %v", tt.text, got != nil, tt.ok)
			}
			if got != nil && *got != tt.want {
				t.Errorf("parsePower(%q) = %d, want %d", tt.text, *got, tt.want)
			}
		})
	}
}

func TestDigitRuns(t *testing.T) {
	got := digitRuns("AB12CD3400 7")
	want := []int{12, 3400, 7}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("digitRuns = %v, want %v", got, want)
	}
}
