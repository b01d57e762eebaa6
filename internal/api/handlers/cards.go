package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tcge/card-intel/backend/internal/database"
	"github.com/tcge/card-intel/backend/internal/metrics"
	"github.com/tcge/card-intel/backend/internal/models"
	"github.com/tcge/card-intel/backend/internal/services"
)

const (
	searchResultLimit       = 50
	defaultPriceHistoryDays = 30
)

// CardHandler serves the read-only catalog endpoints the admin surface uses.
type CardHandler struct {
	prices *services.PriceService
}

func NewCardHandler(prices *services.PriceService) *CardHandler {
	return &CardHandler{prices: prices}
}

// SearchCards matches q against card numbers and display names, optionally
// scoped to one game code.
func (h *CardHandler) SearchCards(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'q' is required"})
		return
	}

	db := database.GetDB().WithContext(c.Request.Context()).
		Preload("CardSet").Preload("CardSet.Game").
		Where("cards.card_number LIKE ? OR cards.name LIKE ?", "%"+query+"%", "%"+query+"%")
	if game := c.Query("game"); game != "" {
		db = db.Joins("JOIN card_sets ON card_sets.id = cards.card_set_id").
			Joins("JOIN games ON games.id = card_sets.game_id").
			Where("games.code = ?", game)
	}

	var cards []models.Card
	if err := db.Limit(searchResultLimit).Find(&cards).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cards": cards, "count": len(cards)})
}

// GetCard returns one catalog entry with its set, game and current prices.
func (h *CardHandler) GetCard(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid card id"})
		return
	}

	var card models.Card
	result := database.GetDB().WithContext(c.Request.Context()).
		Preload("CardSet").Preload("CardSet.Game").
		First(&card, uint(id))
	if result.Error != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "card not found"})
		return
	}

	sell, _ := h.prices.LatestPrice(c.Request.Context(), card.ID, models.PriceTypeSell)
	buy, _ := h.prices.LatestPrice(c.Request.Context(), card.ID, models.PriceTypeBuy)
	c.JSON(http.StatusOK, gin.H{
		"card":              card,
		"set":               card.CardSet,
		"latest_sell_price": sell,
		"latest_buy_price":  buy,
	})
}

// GetPriceHistory returns the card's market price observations for the last
// N days (default 30).
func (h *CardHandler) GetPriceHistory(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid card id"})
		return
	}
	days := defaultPriceHistoryDays
	if v, err := strconv.Atoi(c.Query("days")); err == nil && v > 0 {
		days = v
	}

	history, err := h.prices.PriceHistory(c.Request.Context(), uint(id), days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"card_id": id, "days": days, "prices": history})
}

// GetGames lists the supported games with their set and card counts.
func (h *CardHandler) GetGames(c *gin.Context) {
	db := database.GetDB().WithContext(c.Request.Context())
	var games []models.Game
	if err := db.Order("id").Find(&games).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	type gameStats struct {
		models.Game
		SetCount  int64 `json:"set_count"`
		CardCount int64 `json:"card_count"`
	}
	out := make([]gameStats, 0, len(games))
	for _, g := range games {
		gs := gameStats{Game: g}
		db.Model(&models.CardSet{}).Where("game_id = ?", g.ID).Count(&gs.SetCount)
		db.Model(&models.Card{}).
			Joins("JOIN card_sets ON card_sets.id = cards.card_set_id").
			Where("card_sets.game_id = ?", g.ID).
			Count(&gs.CardCount)
		out = append(out, gs)
	}
	c.JSON(http.StatusOK, gin.H{"games": out})
}

// GetStats reports catalog totals and refreshes the corresponding gauges.
func (h *CardHandler) GetStats(c *gin.Context) {
	db := database.GetDB().WithContext(c.Request.Context())
	var games, sets, cards, prices int64
	db.Model(&models.Game{}).Count(&games)
	db.Model(&models.CardSet{}).Count(&sets)
	db.Model(&models.Card{}).Count(&cards)
	db.Model(&models.MarketPrice{}).Count(&prices)

	metrics.CardDatabaseSize.Set(float64(cards))
	metrics.PriceObservationsTotal.Set(float64(prices))

	c.JSON(http.StatusOK, gin.H{
		"games":        games,
		"card_sets":    sets,
		"cards":        cards,
		"market_price": prices,
	})
}
