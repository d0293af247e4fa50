package models

import "github.com/shopspring/decimal"

// UnifiedStockItem is a single portfolio holding as reported by the backend.
type UnifiedStockItem struct {
	Ticker       string          `json:"ticker"`
	Name         string          `json:"name"`
	Quantity     decimal.Decimal `json:"quantity"`
	AveragePrice decimal.Decimal `json:"averagePrice"`
	CurrentPrice decimal.Decimal `json:"currentPrice"`
	ProfitAmount decimal.Decimal `json:"profitAmount"`
	ProfitRate   decimal.Decimal `json:"profitRate"`
}

// MarketValue returns quantity × current price.
func (s UnifiedStockItem) MarketValue() decimal.Decimal {
	return s.Quantity.Mul(s.CurrentPrice)
}

// CostBasis returns quantity × average price.
func (s UnifiedStockItem) CostBasis() decimal.Decimal {
	return s.Quantity.Mul(s.AveragePrice)
}
