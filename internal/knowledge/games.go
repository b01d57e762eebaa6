package knowledge

import (
	"regexp"
	"strings"
)

func pad(s string, width int) string {
	for len(s) < width {
		s = "0" + s
	}
	return s
}

func intRange(lo, hi, step int) []int {
	var out []int
	for v := lo; v <= hi; v += step {
		out = append(out, v)
	}
	return out
}

// mustPattern compiles a tolerant OCR-side card number regex. The static
// patterns are covered by tests; a bad one is a programming error.
func mustPattern(expr string, format func(groups []string) string) CardNumberPattern {
	return CardNumberPattern{re: regexp.MustCompile(expr), format: format}
}

// prefixDashFormat renders "<prefix><g1 padded>-<g2 padded>" numbers like
// OP01-001 or ST01-001.
func prefixDashFormat(prefix string, w1, w2 int) func([]string) string {
	return func(g []string) string {
		if len(g) < 3 {
			return ""
		}
		return prefix + pad(g[1], w1) + "-" + pad(g[2], w2)
	}
}

// onePieceProfile encodes the One Piece Card Game (Bandai).
func onePieceProfile() *GameProfile {
	return &GameProfile{
		Code:         "OP",
		Name:         "One Piece Card Game",
		Manufacturer: "Bandai",
		NumberPatterns: []CardNumberPattern{
			mustPattern(`OP\s*(\d{1,2})[-_\s]*(\d{2,3})`, prefixDashFormat("OP", 2, 3)),
			mustPattern(`0P\s*(\d{1,2})[-_\s]*(\d{2,3})`, prefixDashFormat("OP", 2, 3)),
			mustPattern(`ST\s*(\d{2})[-_\s]*(\d{2,3})`, prefixDashFormat("ST", 2, 3)),
			mustPattern(`EB\s*(\d{2})[-_\s]*(\d{2,3})`, prefixDashFormat("EB", 2, 3)),
			mustPattern(`POP\s*(\d{2})[-_\s]*(\d{2,3})`, prefixDashFormat("POP", 2, 3)),
			mustPattern(`P-(\d{3})`, func(g []string) string {
				if len(g) < 2 {
					return ""
				}
				return "P-" + pad(g[1], 3)
			}),
		},
		NumberPrefixes: []string{"POP", "OP", "ST", "EB", "P-"},
		TextMarkers:    []string{"OP14", "OP13", "OP12", "CHARACTER", "キャラクター"},
		Colors: []ColorDefinition{
			{
				Name: "赤", NameCN: "紅", SampleRGB: [3]uint8{220, 50, 50},
				Ranges: []HSVRange{
					{HMin: 0, HMax: 10, SMin: 100, SMax: 255, VMin: 100, VMax: 255},
					{HMin: 160, HMax: 180, SMin: 100, SMax: 255, VMin: 100, VMax: 255},
				},
			},
			{
				Name: "青", NameCN: "藍", SampleRGB: [3]uint8{50, 100, 220},
				Ranges: []HSVRange{
					{HMin: 100, HMax: 130, SMin: 100, SMax: 255, VMin: 100, VMax: 255},
				},
			},
			{
				Name: "緑", NameCN: "綠", SampleRGB: [3]uint8{50, 180, 120},
				Ranges: []HSVRange{
					{HMin: 35, HMax: 85, SMin: 80, SMax: 255, VMin: 80, VMax: 255},
					{HMin: 75, HMax: 100, SMin: 80, SMax: 255, VMin: 80, VMax: 255}, // turquoise frames
				},
			},
			{
				Name: "紫", NameCN: "紫", SampleRGB: [3]uint8{150, 50, 180},
				Ranges: []HSVRange{
					{HMin: 125, HMax: 160, SMin: 80, SMax: 255, VMin: 60, VMax: 255},
				},
			},
			{
				Name: "黄", NameCN: "黃", SampleRGB: [3]uint8{230, 200, 50},
				Ranges: []HSVRange{
					{HMin: 15, HMax: 35, SMin: 100, SMax: 255, VMin: 150, VMax: 255},
				},
			},
			{
				Name: "黒", NameCN: "黑", SampleRGB: [3]uint8{40, 40, 40},
				Ranges: []HSVRange{
					{HMin: 0, HMax: 180, SMin: 0, SMax: 80, VMin: 0, VMax: 60},
				},
			},
		},
		Layout: map[string]LayoutRegion{
			"cost":        {X: 0.05, Y: 0.02, W: 0.12, H: 0.10},
			"power":       {X: 0.60, Y: 0.02, W: 0.35, H: 0.10},
			"name":        {X: 0.10, Y: 0.78, W: 0.80, H: 0.08},
			"card_number": {X: 0.70, Y: 0.92, W: 0.25, H: 0.06},
			"attribute":   {X: 0.80, Y: 0.02, W: 0.15, H: 0.10},
		},
		CostValues:  intRange(0, 10, 1),
		PowerValues: intRange(1000, 12000, 1000),
		Aliases: []NameAlias{
			{Native: "ルフィ", Variants: []string{"LUFFY", "路飛", "魯夫"}},
			{Native: "ゾロ", Variants: []string{"ZORO", "索隆", "索羅"}},
			{Native: "ナミ", Variants: []string{"NAMI", "娜美"}},
			{Native: "ウソップ", Variants: []string{"USOPP", "騙人布", "烏索普"}},
			{Native: "サンジ", Variants: []string{"SANJI", "山治", "香吉士"}},
			{Native: "チョッパー", Variants: []string{"CHOPPER", "喬巴"}},
			{Native: "ロビン", Variants: []string{"ROBIN", "羅賓"}},
			{Native: "フランキー", Variants: []string{"FRANKY", "弗蘭奇"}},
			{Native: "ブルック", Variants: []string{"BROOK", "布魯克"}},
			{Native: "ジンベエ", Variants: []string{"JINBE", "甚平"}},
			{Native: "ミホーク", Variants: []string{"MIHAWK", "鷹眼"}},
			{Native: "ジュラキュール", Variants: []string{"DRACULE", "JURAQUILLE"}},
			{Native: "クロコダイル", Variants: []string{"CROCODILE", "克洛克達爾"}},
			{Native: "ハンコック", Variants: []string{"HANCOCK", "女帝", "漢考克"}},
			{Native: "ドフラミンゴ", Variants: []string{"DOFLAMINGO", "多佛朗明哥"}},
			{Native: "ロー", Variants: []string{"LAW", "特拉法爾加·羅"}},
			{Native: "シャンクス", Variants: []string{"SHANKS", "紅髮", "香克斯"}},
			{Native: "カイドウ", Variants: []string{"KAIDO", "凱多"}},
			{Native: "ビッグ・マム", Variants: []string{"BIG MOM", "大媽"}},
			{Native: "黒ひげ", Variants: []string{"BLACKBEARD", "黑鬍子"}},
			{Native: "白ひげ", Variants: []string{"WHITEBEARD", "白鬍子"}},
			{Native: "エース", Variants: []string{"ACE", "艾斯"}},
			{Native: "サボ", Variants: []string{"SABO", "薩波"}},
			{Native: "ヤマト", Variants: []string{"YAMATO", "大和"}},
			{Native: "ロジャー", Variants: []string{"ROGER", "羅傑"}},
			{Native: "モンキー", Variants: []string{"MONKEY"}},
			{Native: "ロロノア", Variants: []string{"RORONOA"}},
			{Native: "トラファルガー", Variants: []string{"TRAFALGAR"}},
			{Native: "ボア", Variants: []string{"BOA"}},
		},
	}
}

// unionArenaProfile encodes Union Arena (Bandai crossover sets).
func unionArenaProfile() *GameProfile {
	uaFormat := func(prefix string) func([]string) string {
		return func(g []string) string {
			if len(g) < 2 {
				return ""
			}
			return prefix + pad(g[1], 2) + "BT"
		}
	}
	return &GameProfile{
		Code:         "UA",
		Name:         "Union Arena",
		Manufacturer: "Bandai",
		NumberPatterns: []CardNumberPattern{
			mustPattern(`UA\s*(\d{2})\s*BT`, uaFormat("UA")),
			mustPattern(`EX\s*(\d{2})\s*BT`, uaFormat("EX")),
		},
		NumberPrefixes: []string{"UA", "EX"},
		Colors: []ColorDefinition{
			{
				Name: "赤", NameCN: "紅", SampleRGB: [3]uint8{220, 50, 50},
				Ranges: []HSVRange{
					{HMin: 0, HMax: 10, SMin: 100, SMax: 255, VMin: 100, VMax: 255},
					{HMin: 160, HMax: 180, SMin: 100, SMax: 255, VMin: 100, VMax: 255},
				},
			},
			{
				Name: "青", NameCN: "藍", SampleRGB: [3]uint8{50, 100, 220},
				Ranges: []HSVRange{
					{HMin: 100, HMax: 130, SMin: 100, SMax: 255, VMin: 100, VMax: 255},
				},
			},
			{
				Name: "緑", NameCN: "綠", SampleRGB: [3]uint8{50, 180, 120},
				Ranges: []HSVRange{
					{HMin: 35, HMax: 85, SMin: 80, SMax: 255, VMin: 80, VMax: 255},
				},
			},
			{
				Name: "黄", NameCN: "黃", SampleRGB: [3]uint8{230, 200, 50},
				Ranges: []HSVRange{
					{HMin: 15, HMax: 35, SMin: 100, SMax: 255, VMin: 150, VMax: 255},
				},
			},
			{
				Name: "紫", NameCN: "紫", SampleRGB: [3]uint8{150, 50, 180},
				Ranges: []HSVRange{
					{HMin: 125, HMax: 160, SMin: 80, SMax: 255, VMin: 60, VMax: 255},
				},
			},
			{
				Name: "白", NameCN: "白", SampleRGB: [3]uint8{245, 245, 245},
				Ranges: []HSVRange{
					{HMin: 0, HMax: 180, SMin: 0, SMax: 30, VMin: 200, VMax: 255},
				},
			},
		},
		Layout: map[string]LayoutRegion{
			"power":       {X: 0.05, Y: 0.02, W: 0.15, H: 0.10},
			"cost":        {X: 0.05, Y: 0.12, W: 0.10, H: 0.08},
			"name":        {X: 0.10, Y: 0.75, W: 0.80, H: 0.10},
			"card_number": {X: 0.60, Y: 0.92, W: 0.35, H: 0.06},
		},
		CostValues:  intRange(0, 7, 1),
		PowerValues: intRange(1000, 10000, 500),
	}
}

// vanguardProfile encodes Cardfight!! Vanguard (Bushiroad). Frame color does
// not encode a deck color in this game, so it carries no palette entries.
func vanguardProfile() *GameProfile {
	vgFormat := func(prefix string) func([]string) string {
		return func(g []string) string {
			if len(g) < 3 {
				return ""
			}
			return prefix + "-" + g[1] + pad(g[2], 2)
		}
	}
	return &GameProfile{
		Code:         "VG",
		Name:         "Cardfight!! Vanguard",
		Manufacturer: "Bushiroad",
		NumberPatterns: []CardNumberPattern{
			mustPattern(`DZ[-\s]*([A-Z]{2,3})\s*(\d{2})`, vgFormat("DZ")),
			mustPattern(`D[-\s]+([A-Z]{2,3})\s*(\d{2})`, vgFormat("D")),
			mustPattern(`V[-\s]+([A-Z]{2,3})\s*(\d{2})`, vgFormat("V")),
			mustPattern(`G[-\s]+([A-Z]{2,3})\s*(\d{2})`, vgFormat("G")),
		},
		NumberPrefixes: []string{"DZ-", "D-", "V-", "G-"},
		Layout: map[string]LayoutRegion{
			"cost":        {X: 0.03, Y: 0.02, W: 0.12, H: 0.12}, // grade circle
			"power":       {X: 0.03, Y: 0.85, W: 0.20, H: 0.10},
			"shield":      {X: 0.80, Y: 0.85, W: 0.15, H: 0.10},
			"name":        {X: 0.15, Y: 0.75, W: 0.70, H: 0.08},
			"card_number": {X: 0.60, Y: 0.02, W: 0.35, H: 0.06},
			"trigger":     {X: 0.85, Y: 0.02, W: 0.12, H: 0.12},
		},
		CostValues:  intRange(0, 5, 1), // grades
		PowerValues: intRange(3000, 15000, 1000),
	}
}

// duelMastersProfile encodes Duel Masters (Takara Tomy). Civilizations are
// expressed through the shared palette names so border classification stays
// uniform; NativeColorToken translates back to the civilization glyph used in
// catalog display names.
func duelMastersProfile() *GameProfile {
	return &GameProfile{
		Code:         "DM",
		Name:         "Duel Masters",
		Manufacturer: "Takara Tomy",
		NumberPatterns: []CardNumberPattern{
			mustPattern(`DMRP[-\s]*(\d{2})/(\d{1,3})`, func(g []string) string {
				if len(g) < 3 {
					return ""
				}
				return "DMRP-" + pad(g[1], 2) + "/" + g[2]
			}),
			mustPattern(`DMR[-\s]*(\d{2})/(\d{1,3})`, func(g []string) string {
				if len(g) < 3 {
					return ""
				}
				return "DMR-" + pad(g[1], 2) + "/" + g[2]
			}),
			mustPattern(`DM\s*(\d{2})[-\s]*(\d{1,3})`, prefixDashFormat("DM", 2, 3)),
			mustPattern(`RP\s*(\d{2})`, func(g []string) string {
				if len(g) < 2 {
					return ""
				}
				return "RP" + pad(g[1], 2)
			}),
		},
		NumberPrefixes: []string{"DMRP", "DMR", "DM", "RP", "BD"},
		Colors: []ColorDefinition{
			{
				Name: "黄", NameCN: "黃", SampleRGB: [3]uint8{235, 210, 70}, // 光 Light
				Ranges: []HSVRange{
					{HMin: 20, HMax: 40, SMin: 100, SMax: 255, VMin: 200, VMax: 255},
				},
			},
			{
				Name: "青", NameCN: "藍", SampleRGB: [3]uint8{50, 100, 220}, // 水 Water
				Ranges: []HSVRange{
					{HMin: 100, HMax: 130, SMin: 100, SMax: 255, VMin: 100, VMax: 255},
				},
			},
			{
				Name: "黒", NameCN: "黑", SampleRGB: [3]uint8{40, 40, 40}, // 闇 Darkness
				Ranges: []HSVRange{
					{HMin: 0, HMax: 180, SMin: 0, SMax: 80, VMin: 0, VMax: 60},
				},
			},
			{
				Name: "赤", NameCN: "紅", SampleRGB: [3]uint8{220, 50, 50}, // 火 Fire
				Ranges: []HSVRange{
					{HMin: 0, HMax: 15, SMin: 150, SMax: 255, VMin: 150, VMax: 255},
					{HMin: 165, HMax: 180, SMin: 150, SMax: 255, VMin: 150, VMax: 255},
				},
			},
			{
				Name: "緑", NameCN: "綠", SampleRGB: [3]uint8{50, 180, 120}, // 自然 Nature
				Ranges: []HSVRange{
					{HMin: 35, HMax: 85, SMin: 80, SMax: 255, VMin: 80, VMax: 255},
				},
			},
			{
				Name: "白", NameCN: "白", SampleRGB: [3]uint8{245, 245, 245}, // ゼロ Zero
				Ranges: []HSVRange{
					{HMin: 0, HMax: 180, SMin: 0, SMax: 30, VMin: 150, VMax: 255},
				},
			},
		},
		Layout: map[string]LayoutRegion{
			"cost":  {X: 0.03, Y: 0.02, W: 0.15, H: 0.12}, // mana number
			"power": {X: 0.03, Y: 0.85, W: 0.25, H: 0.10},
			"name":  {X: 0.10, Y: 0.70, W: 0.80, H: 0.10},
		},
		CostValues:  intRange(1, 15, 1),
		PowerValues: intRange(1000, 20000, 500),
		colorTokens: map[string]string{
			"黄": "光",
			"青": "水",
			"黒": "闇",
			"赤": "火",
			"緑": "自然",
			"白": "ゼロ",
		},
	}
}

// NormalizeCardNumber upper-cases and trims a card number for comparisons.
func NormalizeCardNumber(num string) string {
	return strings.ToUpper(strings.TrimSpace(num))
}
