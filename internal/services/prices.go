package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tcge/card-intel/backend/internal/models"
)

// PricePoint is the trimmed view of one market price observation attached to
// a match candidate or returned in price history.
type PricePoint struct {
	PriceJPY    int       `json:"price_jpy"`
	Source      string    `json:"source"`
	StockStatus string    `json:"stock_status,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// PriceService answers read-only price questions against the market price
// history. Scrapers own the writes.
type PriceService struct {
	db *gorm.DB
}

func NewPriceService(db *gorm.DB) *PriceService {
	return &PriceService{db: db}
}

// LatestPrice returns the most recent price of the given type for a card, or
// nil when no observation exists.
func (s *PriceService) LatestPrice(ctx context.Context, cardID uint, priceType string) (*PricePoint, error) {
	var row models.MarketPrice
	err := s.db.WithContext(ctx).
		Where("card_id = ? AND price_type = ?", cardID, priceType).
		Order("timestamp DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &PricePoint{
		PriceJPY:    row.PriceJPY,
		Source:      row.Source,
		StockStatus: row.StockStatus,
		Timestamp:   row.Timestamp,
	}, nil
}

// PriceHistory returns all observations for a card within the last `days`
// days, newest first.
func (s *PriceService) PriceHistory(ctx context.Context, cardID uint, days int) ([]models.MarketPrice, error) {
	since := time.Now().AddDate(0, 0, -days)
	var rows []models.MarketPrice
	err := s.db.WithContext(ctx).
		Where("card_id = ? AND timestamp >= ?", cardID, since).
		Order("timestamp DESC").
		Find(&rows).Error
	return rows, err
}
