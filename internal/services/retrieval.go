package services

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"sort"

	"gorm.io/gorm"

	"github.com/tcge/card-intel/backend/internal/knowledge"
	"github.com/tcge/card-intel/backend/internal/metrics"
	"github.com/tcge/card-intel/backend/internal/models"
)

// RetrievalConfig collects the empirically tuned strategy constants. The
// defaults mirror production behavior; changing them is a product decision.
type RetrievalConfig struct {
	NumberMatchConfidence int
	NameMatchConfidence   int
	ColorMatchConfidence  int
	PopularityConfidence  int

	// color strategy runs only while fewer candidates than this exist
	ColorStrategyThreshold int
	// popularity fallback runs only while fewer candidates than this exist
	PopularityStrategyThreshold int

	MaxMatches         int
	NumberLimit        int
	NameLimit          int
	ColorLimit         int
	PopularityLimit    int
	NameCandidateLimit int

	// minimum recent sale price (JPY) for the popularity fallback
	PopularityMinPriceJPY int
}

func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		NumberMatchConfidence:       95,
		NameMatchConfidence:         75,
		ColorMatchConfidence:        50,
		PopularityConfidence:        30,
		ColorStrategyThreshold:      10,
		PopularityStrategyThreshold: 5,
		MaxMatches:                  30,
		NumberLimit:                 10,
		NameLimit:                   15,
		ColorLimit:                  20,
		PopularityLimit:             15,
		NameCandidateLimit:          3,
		PopularityMinPriceJPY:       500,
	}
}

// MatchCandidate is one ranked catalog entry proposed as the identity of the
// photographed card.
type MatchCandidate struct {
	CardID     uint   `json:"card_id"`
	CardNumber string `json:"card_number"`
	Name       string `json:"name"`
	Version    string `json:"version,omitempty"`
	Rarity     string `json:"rarity,omitempty"`
	CardType   string `json:"card_type,omitempty"`
	ImageURL   string `json:"image_url,omitempty"`
	GameCode   string `json:"game_code"`
	GameName   string `json:"game_name"`
	SetCode    string `json:"set_code"`

	Confidence    int    `json:"confidence"`
	MatchType     string `json:"match_type"`
	DetectedColor string `json:"detected_color,omitempty"`

	LatestSellPrice *PricePoint `json:"latest_sell_price,omitempty"`
	LatestBuyPrice  *PricePoint `json:"latest_buy_price,omitempty"`
}

// cardRow is the flat shape scanned out of the card/set/game join.
type cardRow struct {
	ID         uint
	CardNumber string
	Name       string
	Version    string
	Rarity     string
	CardType   string
	ImageURL   string
	GameCode   string
	GameName   string
	SetCode    string
}

const cardRowSelect = "cards.id, cards.card_number, cards.name, cards.version, " +
	"cards.rarity, cards.card_type, cards.image_url, " +
	"games.code AS game_code, games.name AS game_name, card_sets.code AS set_code"

// display names embed the card's color in 《...》 or 【...】 brackets
var colorBracketRe = regexp.MustCompile(`《([^》]+)》|【([^】]+)】`)

// latestSellPrice is the card's most recent sale observation, used to order
// the color and popularity strategies by current market value.
const latestSellPrice = "(SELECT mp.price_jpy FROM market_prices mp " +
	"WHERE mp.card_id = cards.id AND mp.price_type = 'sell' " +
	"ORDER BY mp.timestamp DESC, mp.id DESC LIMIT 1)"

// RetrievalEngine runs the strategy cascade against the catalog and merges
// the results into one ranked candidate list.
type RetrievalEngine struct {
	db       *gorm.DB
	registry *knowledge.Registry
	prices   *PriceService
	cfg      RetrievalConfig
}

func NewRetrievalEngine(db *gorm.DB, registry *knowledge.Registry, prices *PriceService, cfg RetrievalConfig) *RetrievalEngine {
	return &RetrievalEngine{db: db, registry: registry, prices: prices, cfg: cfg}
}

// Retrieve runs the four strategies in order, each adding only catalog
// identities no earlier strategy claimed, then sorts by confidence and caps
// the result. An empty list is a valid outcome, not an error.
func (e *RetrievalEngine) Retrieve(ctx context.Context, signals *ExtractedSignals, features *VisualFeatures, gameCode string) ([]MatchCandidate, error) {
	var candidates []MatchCandidate
	seen := make(map[uint]bool)

	add := func(rows []cardRow, confidence int, matchType, strategy string) {
		added := 0
		for _, row := range rows {
			if seen[row.ID] {
				continue
			}
			seen[row.ID] = true
			candidates = append(candidates, e.buildCandidate(ctx, row, confidence, matchType))
			added++
		}
		if added > 0 {
			metrics.RetrievalStrategyHitsTotal.WithLabelValues(strategy).Add(float64(added))
		}
	}

	// 1. exact card number
	if signals != nil {
		for _, num := range signals.CardNumbers {
			var rows []cardRow
			err := e.cardQuery(ctx).
				Where("cards.card_number LIKE ?", "%"+num+"%").
				Limit(e.cfg.NumberLimit).
				Scan(&rows).Error
			if err != nil {
				return nil, fmt.Errorf("card number lookup %q: %w", num, err)
			}
			add(rows, e.cfg.NumberMatchConfidence, "card number match: "+num, "number")
		}

		// 2. character name
		names := signals.Characters
		if len(names) > e.cfg.NameCandidateLimit {
			names = names[:e.cfg.NameCandidateLimit]
		}
		for _, name := range names {
			var rows []cardRow
			err := e.cardQuery(ctx).
				Where("cards.name LIKE ?", "%"+name+"%").
				Limit(e.cfg.NameLimit).
				Scan(&rows).Error
			if err != nil {
				return nil, fmt.Errorf("character lookup %q: %w", name, err)
			}
			add(rows, e.cfg.NameMatchConfidence, "character: "+name, "name")
		}
	}

	// 3. dominant color scoped to the classified game
	if len(candidates) < e.cfg.ColorStrategyThreshold && gameCode != "" &&
		features != nil && features.DominantColor != "" {
		profile, _ := e.registry.Profile(gameCode)
		token := profile.NativeColorToken(features.DominantColor)
		var rows []cardRow
		err := e.cardQuery(ctx).
			Where("games.code = ?", gameCode).
			Where("cards.name LIKE ? OR cards.name LIKE ?", "%《"+token+"》%", "%【"+token+"】%").
			Order(latestSellPrice + " DESC").
			Limit(e.cfg.ColorLimit).
			Scan(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("color lookup %q: %w", token, err)
		}
		add(rows, e.cfg.ColorMatchConfidence, "color guess: "+features.DominantColor, "color")
	}

	// 4. popularity fallback
	if len(candidates) < e.cfg.PopularityStrategyThreshold {
		q := e.cardQuery(ctx).
			Where(latestSellPrice+" > ?", e.cfg.PopularityMinPriceJPY).
			Order(latestSellPrice + " DESC").
			Limit(e.cfg.PopularityLimit)
		if gameCode != "" {
			q = q.Where("games.code = ?", gameCode)
		}
		var rows []cardRow
		if err := q.Scan(&rows).Error; err != nil {
			return nil, fmt.Errorf("popularity lookup: %w", err)
		}
		add(rows, e.cfg.PopularityConfidence, "popular", "popularity")
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})
	if len(candidates) > e.cfg.MaxMatches {
		candidates = candidates[:e.cfg.MaxMatches]
	}
	return candidates, nil
}

// CandidateForCard looks up a single catalog entry by identity and wraps it
// as a candidate with the given confidence. Used by the remote similarity
// path, which returns card identities without display fields.
func (e *RetrievalEngine) CandidateForCard(ctx context.Context, cardID uint, confidence int, matchType string) (*MatchCandidate, error) {
	var rows []cardRow
	err := e.cardQuery(ctx).Where("cards.id = ?", cardID).Limit(1).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	c := e.buildCandidate(ctx, rows[0], confidence, matchType)
	return &c, nil
}

func (e *RetrievalEngine) cardQuery(ctx context.Context) *gorm.DB {
	return e.db.WithContext(ctx).
		Table("cards").
		Select(cardRowSelect).
		Joins("JOIN card_sets ON card_sets.id = cards.card_set_id").
		Joins("JOIN games ON games.id = card_sets.game_id")
}

// buildCandidate enriches one catalog row with its latest buy/sell prices and
// the color token embedded in the display name. Price lookup failures only
// lose the enrichment, never the candidate.
func (e *RetrievalEngine) buildCandidate(ctx context.Context, row cardRow, confidence int, matchType string) MatchCandidate {
	c := MatchCandidate{
		CardID:     row.ID,
		CardNumber: row.CardNumber,
		Name:       row.Name,
		Version:    row.Version,
		Rarity:     row.Rarity,
		CardType:   row.CardType,
		ImageURL:   row.ImageURL,
		GameCode:   row.GameCode,
		GameName:   row.GameName,
		SetCode:    row.SetCode,
		Confidence: confidence,
		MatchType:  matchType,
	}
	if m := colorBracketRe.FindStringSubmatch(row.Name); m != nil {
		if m[1] != "" {
			c.DetectedColor = m[1]
		} else {
			c.DetectedColor = m[2]
		}
	}
	var err error
	if c.LatestSellPrice, err = e.prices.LatestPrice(ctx, row.ID, models.PriceTypeSell); err != nil {
		log.Printf("latest sell price for card %d: %v", row.ID, err)
	}
	if c.LatestBuyPrice, err = e.prices.LatestPrice(ctx, row.ID, models.PriceTypeBuy); err != nil {
		log.Printf("latest buy price for card %d: %v", row.ID, err)
	}
	return c
}
