package dto

import "github.com/shopspring/decimal"

// SentimentEntry is one captured observation as returned by GET /api/v1/sentiment.
//
// LongShare and ShortShare are the percentages as fractions of one; they are
// omitted when the stored text is not numeric.
type SentimentEntry struct {
	Timestamp      string           `json:"timestamp" example:"2025-09-17 14:00:00"`
	LongPercent    string           `json:"long_percent" example:"61 %"`
	ShortPercent   string           `json:"short_percent" example:"39 %"`
	LongShare      *decimal.Decimal `json:"long_share,omitempty" swaggertype:"string" example:"0.61"`
	ShortShare     *decimal.Decimal `json:"short_share,omitempty" swaggertype:"string" example:"0.39"`
	LotsLong       string           `json:"lots_long" example:"15999"`
	LotsShort      string           `json:"lots_short" example:"10240"`
	PositionsLong  string           `json:"positions_long" example:"8123"`
	PositionsShort string           `json:"positions_short" example:"5876"`
}

// SentimentResponse is the body of GET /api/v1/sentiment, newest entry first.
type SentimentResponse struct {
	Pair    string           `json:"pair" example:"EURUSD"`
	Count   int              `json:"count" example:"1"`
	Entries []SentimentEntry `json:"entries"`
}
