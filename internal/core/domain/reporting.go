package domain

import "time"

// MarketCapitalization is the current balance of a market's points account.
type MarketCapitalization struct {
	MarketID       int64  `json:"marketID"`
	AccountID      int64  `json:"accountID"`
	Capitalization Amount `json:"capitalization"`
}

// TradingVolume is the sum of the credited legs of a market's trades in a window.
// A nil bound is open. Start is inclusive, End exclusive.
type TradingVolume struct {
	MarketID int64      `json:"marketID"`
	Start    *time.Time `json:"start,omitempty"`
	End      *time.Time `json:"end,omitempty"`
	Volume   Amount     `json:"volume"`
}

// InWindow reports whether t lies in [start, end). Nil bounds are open.
func InWindow(t time.Time, start, end *time.Time) bool {
	if start != nil && t.Before(*start) {
		return false
	}
	if end != nil && !t.Before(*end) {
		return false
	}
	return true
}
