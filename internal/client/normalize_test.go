package client

import (
	"encoding/json"
	"testing"
)

func TestUnmarshalStockListShapes(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		want    int
	}{
		{"wrapped stocks", `{"stocks":[{"ticker":"AAPL"},{"ticker":"MSFT"}]}`, 2},
		{"legacy stockList", `{"stockList":[{"ticker":"AAPL"}]}`, 1},
		{"bare array", `[{"ticker":"AAPL"},{"ticker":"MSFT"},{"ticker":"GOOG"}]`, 3},
		{"empty wrapped", `{"stocks":[]}`, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			items, err := UnmarshalStockList(json.RawMessage(tc.payload))
			if err != nil {
				t.Fatalf("UnmarshalStockList failed: %v", err)
			}
			if len(items) != tc.want {
				t.Errorf("got %d items, want %d", len(items), tc.want)
			}
		})
	}
}

func TestUnmarshalStockListPrefersStocksKey(t *testing.T) {
	payload := `{"stocks":[{"ticker":"AAPL"}],"stockList":[{"ticker":"X"},{"ticker":"Y"}]}`
	items, err := UnmarshalStockList(json.RawMessage(payload))
	if err != nil {
		t.Fatalf("UnmarshalStockList failed: %v", err)
	}
	if len(items) != 1 || items[0].Ticker != "AAPL" {
		t.Errorf(`"stocks" should win over "stockList": %+v`, items)
	}
}

func TestUnmarshalStockListNullAndEmpty(t *testing.T) {
	for _, payload := range []string{"", "null"} {
		items, err := UnmarshalStockList(json.RawMessage(payload))
		if err != nil {
			t.Errorf("payload %q: unexpected error %v", payload, err)
		}
		if items != nil {
			t.Errorf("payload %q: expected nil, got %v", payload, items)
		}
	}
}

func TestUnmarshalStockListUnrecognized(t *testing.T) {
	if _, err := UnmarshalStockList(json.RawMessage(`"what"`)); err == nil {
		t.Error("expected error for unrecognized payload")
	}
}

func TestUnmarshalSnapshotListShapes(t *testing.T) {
	wrapped := `{"snapshots":[{"snapshotId":1},{"snapshotId":2}]}`
	items, err := UnmarshalSnapshotList(json.RawMessage(wrapped))
	if err != nil || len(items) != 2 {
		t.Errorf("wrapped: got %d items, err=%v", len(items), err)
	}

	bare := `[{"snapshotId":1}]`
	items, err = UnmarshalSnapshotList(json.RawMessage(bare))
	if err != nil || len(items) != 1 {
		t.Errorf("bare: got %d items, err=%v", len(items), err)
	}
}
