package models

// EarningCall is a scheduled corporate earnings announcement event.
type EarningCall struct {
	ID        int64  `json:"id"`
	Date      string `json:"date"` // YYYY-MM-DD
	StockID   string `json:"stockId"`
	StockName string `json:"stockName"`
	Time      string `json:"time,omitempty"` // e.g. "after-market"
	Quarter   string `json:"quarter,omitempty"`
}

// Disclosure is a regulatory filing/announcement event for a stock.
type Disclosure struct {
	ID        int64  `json:"id"`
	Date      string `json:"date"` // YYYY-MM-DD
	StockID   string `json:"stockId"`
	StockName string `json:"stockName"`
	Title     string `json:"title"`
	URL       string `json:"url,omitempty"`
}
