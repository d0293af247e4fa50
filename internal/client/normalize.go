package client

import (
	"encoding/json"
	"fmt"

	"github.com/snapfolio/snapfolio-portal/internal/models"
)

// The backend's list payloads have drifted across versions: the stock list
// has been seen under "stocks", under "stockList", and as a bare array.
// Each resource gets ONE normalizer here so the variance is tolerated in a
// single place instead of at every call site. "stocks" is the authoritative
// shape; the others are accepted for compatibility.

// UnmarshalStockList decodes a portfolio holdings payload in any of its
// observed shapes.
func UnmarshalStockList(data json.RawMessage) ([]models.UnifiedStockItem, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}

	var wrapped struct {
		Stocks    []models.UnifiedStockItem `json:"stocks"`
		StockList []models.UnifiedStockItem `json:"stockList"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil {
		if wrapped.Stocks != nil {
			return wrapped.Stocks, nil
		}
		if wrapped.StockList != nil {
			return wrapped.StockList, nil
		}
	}

	var bare []models.UnifiedStockItem
	if err := json.Unmarshal(data, &bare); err == nil {
		return bare, nil
	}

	return nil, fmt.Errorf("unrecognized stock list payload")
}

// UnmarshalSnapshotList decodes a snapshot card payload, wrapped under
// "snapshots" or as a bare array.
func UnmarshalSnapshotList(data json.RawMessage) ([]models.SnapshotCard, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}

	var wrapped struct {
		Snapshots []models.SnapshotCard `json:"snapshots"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Snapshots != nil {
		return wrapped.Snapshots, nil
	}

	var bare []models.SnapshotCard
	if err := json.Unmarshal(data, &bare); err == nil {
		return bare, nil
	}

	return nil, fmt.Errorf("unrecognized snapshot list payload")
}
