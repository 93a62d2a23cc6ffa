package dto

import (
	"time"

	"github.com/SscSPs/points_ledger/internal/core/domain"
)

// TradingVolumeParams is the optional [start, end) window of a volume query, in RFC 3339.
type TradingVolumeParams struct {
	Start *time.Time `form:"start" time_format:"2006-01-02T15:04:05Z07:00"`
	End   *time.Time `form:"end" time_format:"2006-01-02T15:04:05Z07:00"`
}

// TradingVolumeResponse defines the data returned for a market trading volume.
type TradingVolumeResponse struct {
	MarketID int64         `json:"marketID"`
	Start    *time.Time    `json:"start,omitempty"`
	End      *time.Time    `json:"end,omitempty"`
	Volume   domain.Amount `json:"volume"`
}

// ToTradingVolumeResponse converts a domain.TradingVolume to a TradingVolumeResponse
func ToTradingVolumeResponse(v *domain.TradingVolume) TradingVolumeResponse {
	return TradingVolumeResponse{
		MarketID: v.MarketID,
		Start:    v.Start,
		End:      v.End,
		Volume:   v.Volume,
	}
}

// MarketCapitalizationResponse is one ranked market.
type MarketCapitalizationResponse struct {
	MarketID       int64         `json:"marketID"`
	AccountID      int64         `json:"accountID"`
	Capitalization domain.Amount `json:"capitalization"`
}

// ListMarketCapitalizationsResponse wraps the ranking, highest capitalization first.
type ListMarketCapitalizationsResponse struct {
	Markets []MarketCapitalizationResponse `json:"markets"`
}

// ToListMarketCapitalizationsResponse converts the domain ranking to its response
func ToListMarketCapitalizationsResponse(caps []domain.MarketCapitalization) ListMarketCapitalizationsResponse {
	out := make([]MarketCapitalizationResponse, len(caps))
	for i, c := range caps {
		out[i] = MarketCapitalizationResponse{MarketID: c.MarketID, AccountID: c.AccountID, Capitalization: c.Capitalization}
	}
	return ListMarketCapitalizationsResponse{Markets: out}
}
