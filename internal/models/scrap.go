package models

// ScrapGroup is a user-defined named bucket for organizing saved snapshots.
type ScrapGroup struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}
