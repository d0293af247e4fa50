// Package schedule merges earning-call and disclosure event lists into the
// unified per-day calendar the app renders.
package schedule

import (
	"sort"

	"github.com/snapfolio/snapfolio-portal/internal/models"
)

// EntryType tags a merged entry by which sources contributed to it.
type EntryType string

const (
	TypeEarning    EntryType = "earning"
	TypeDisclosure EntryType = "disclosure"
	TypeBoth       EntryType = "both"
)

// Entry is the merged schedule for one (date, stock) pair. A stock with both
// an earning call and disclosures on the same day yields a single "both"
// entry carrying fields from both sources. All disclosures for the pair are
// retained.
type Entry struct {
	Date        string              `json:"date"`
	StockID     string              `json:"stockId"`
	StockName   string              `json:"stockName"`
	Type        EntryType           `json:"type"`
	Earning     *models.EarningCall `json:"earning,omitempty"`
	Disclosures []models.Disclosure `json:"disclosures,omitempty"`
}

// Merge combines the two independently-fetched lists into a per-date map with
// exactly one entry per (date, stock) pair. Within a date, entries keep
// insertion order: stocks from the earnings list first, then stocks that
// appear only in the disclosure list, each in source order.
func Merge(earnings []models.EarningCall, disclosures []models.Disclosure) map[string][]Entry {
	merged := make(map[string][]Entry)
	// index[date][stockID] -> position in merged[date]
	index := make(map[string]map[string]int)

	at := func(date, stockID string) (int, bool) {
		byStock, ok := index[date]
		if !ok {
			return 0, false
		}
		i, ok := byStock[stockID]
		return i, ok
	}
	put := func(date, stockID string, e Entry) {
		if index[date] == nil {
			index[date] = make(map[string]int)
		}
		index[date][stockID] = len(merged[date])
		merged[date] = append(merged[date], e)
	}

	for _, ec := range earnings {
		ec := ec
		if _, ok := at(ec.Date, ec.StockID); ok {
			// Duplicate earning rows for the same pair: keep the first.
			continue
		}
		put(ec.Date, ec.StockID, Entry{
			Date:      ec.Date,
			StockID:   ec.StockID,
			StockName: ec.StockName,
			Type:      TypeEarning,
			Earning:   &ec,
		})
	}

	for _, d := range disclosures {
		if i, ok := at(d.Date, d.StockID); ok {
			e := merged[d.Date][i]
			e.Disclosures = append(e.Disclosures, d)
			if e.Earning != nil {
				e.Type = TypeBoth
			}
			merged[d.Date][i] = e
			continue
		}
		put(d.Date, d.StockID, Entry{
			Date:        d.Date,
			StockID:     d.StockID,
			StockName:   d.StockName,
			Type:        TypeDisclosure,
			Disclosures: []models.Disclosure{d},
		})
	}

	return merged
}

// Dates returns the merged dates in ascending order.
func Dates(merged map[string][]Entry) []string {
	dates := make([]string, 0, len(merged))
	for d := range merged {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}
