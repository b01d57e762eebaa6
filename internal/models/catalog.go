package models

import (
	"time"
)

// Game is one supported trading card game (e.g. "OP" = One Piece Card Game).
type Game struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Code string `json:"code" gorm:"size:10;uniqueIndex"`
	Name string `json:"name" gorm:"size:100"`

	Sets []CardSet `json:"-" gorm:"foreignKey:GameID"`
}

// CardSet is one expansion/booster series within a game (e.g. "OP01").
type CardSet struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	GameID      uint       `json:"game_id" gorm:"index"`
	Code        string     `json:"code" gorm:"size:20;index"`
	Name        string     `json:"name" gorm:"size:200"`
	ReleaseDate *time.Time `json:"release_date"`

	Game  *Game  `json:"-" gorm:"foreignKey:GameID"`
	Cards []Card `json:"-" gorm:"foreignKey:CardSetID"`
}

// Card is the static catalog record for one printed card. Scrapers create these;
// the recognition pipeline only ever reads them.
type Card struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	CardSetID uint `json:"card_set_id" gorm:"index"`

	CardNumber string `json:"card_number" gorm:"size:50;index;uniqueIndex:idx_card_number_version"`
	Name       string `json:"name" gorm:"size:200;index"`
	Version    string `json:"version" gorm:"size:100;uniqueIndex:idx_card_number_version"` // e.g. "Parallel", "Promo"
	Rarity     string `json:"rarity" gorm:"size:20"`
	CardType   string `json:"card_type" gorm:"size:50"`
	ImageURL   string `json:"image_url" gorm:"type:text"`

	CardSet *CardSet `json:"-" gorm:"foreignKey:CardSetID"`
}

// Price types recorded in MarketPrice.PriceType.
const (
	PriceTypeSell = "sell"
	PriceTypeBuy  = "buy"
)

// MarketPrice is one scraped price observation. History is append-only; the
// most recent row per (card, type) is the current market price.
type MarketPrice struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	CardID uint `json:"card_id" gorm:"index"`

	Source      string    `json:"source" gorm:"size:50"`
	PriceType   string    `json:"price_type" gorm:"size:20"`
	PriceJPY    int       `json:"price_jpy"`
	StockStatus string    `json:"stock_status" gorm:"size:50"`
	Timestamp   time.Time `json:"timestamp" gorm:"index;autoCreateTime"`
	DataHash    string    `json:"-" gorm:"size:64;index"` // incremental-update fingerprint

	Card *Card `json:"-" gorm:"foreignKey:CardID"`
}

// InternalPrice is the shop's own sell/buy pricing for a card. Maintained by
// the admin surface, read-only here.
type InternalPrice struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	CardID uint `json:"card_id" gorm:"uniqueIndex"`

	SellHKD         float64    `json:"sell_hkd"`
	BuyHKD          float64    `json:"buy_hkd"`
	RefExchangeRate float64    `json:"ref_exchange_rate" gorm:"default:0.05"`
	UpdatedAt       *time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Card *Card `json:"-" gorm:"foreignKey:CardID"`
}
