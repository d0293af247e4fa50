package models

import (
	"sort"
	"time"
)

// DateKeyFormat is the calendar-date form used to partition snapshots.
const DateKeyFormat = "2006-01-02"

// SnapshotCard is one news item personalized to a stock holding.
// Cards are grouped by calendar date for the card-browsing views.
type SnapshotCard struct {
	SnapshotID int64     `json:"snapshotId"`
	CreatedAt  time.Time `json:"createdAt"`
	StockCode  string    `json:"stockCode"`
	StockName  string    `json:"stockName"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	ImageURL   string    `json:"imageUrl,omitempty"`
	AIComment  string    `json:"aiComment,omitempty"`
	Scrapped   bool      `json:"scrapped"`
}

// DateKey returns the YYYY-MM-DD partition key for the card.
func (c SnapshotCard) DateKey() string {
	return c.CreatedAt.Format(DateKeyFormat)
}

// GroupSnapshotsByDate partitions cards by calendar date. Within a date,
// cards are ordered by creation time, then snapshot ID, so the per-date
// index addressing is stable regardless of fetch order.
func GroupSnapshotsByDate(cards []SnapshotCard) map[string][]SnapshotCard {
	grouped := make(map[string][]SnapshotCard)
	for _, c := range cards {
		key := c.DateKey()
		grouped[key] = append(grouped[key], c)
	}
	for key := range grouped {
		sortSnapshots(grouped[key])
	}
	return grouped
}

// SnapshotDates returns the grouped dates in ascending order.
func SnapshotDates(grouped map[string][]SnapshotCard) []string {
	dates := make([]string, 0, len(grouped))
	for d := range grouped {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// FlattenSnapshots produces the total ordering of a grouped card set:
// date-ascending, then index-ascending within each date.
func FlattenSnapshots(grouped map[string][]SnapshotCard) []SnapshotCard {
	var out []SnapshotCard
	for _, d := range SnapshotDates(grouped) {
		out = append(out, grouped[d]...)
	}
	return out
}

func sortSnapshots(cards []SnapshotCard) {
	sort.SliceStable(cards, func(i, j int) bool {
		if !cards[i].CreatedAt.Equal(cards[j].CreatedAt) {
			return cards[i].CreatedAt.Before(cards[j].CreatedAt)
		}
		return cards[i].SnapshotID < cards[j].SnapshotID
	})
}
