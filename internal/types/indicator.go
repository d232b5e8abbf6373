package types

import "time"

// IndicatorSnapshot is the derived view of a symbol's trailing window at one
// evaluation tick. It is recomputed per tick and never persisted on its own.
type IndicatorSnapshot struct {
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
	Close     float64   `json:"close"`
	ShortMA   float64   `json:"short_ma"`
	LongMA    float64   `json:"long_ma"`
	RSI       float64   `json:"rsi"`
	MACD      float64   `json:"macd"`
	MACDSignal float64  `json:"macd_signal"`
	MACDHist  float64   `json:"macd_hist"`
	BBUpper   float64   `json:"bb_upper"`
	BBLower   float64   `json:"bb_lower"`
	// VolumeRatio is current volume over its rolling mean. 1.0 when unknown.
	VolumeRatio float64 `json:"volume_ratio"`
	// Warmup is true when the window held fewer bars than the longest
	// configured lookback. A warmup snapshot is neutral: the composer
	// treats it as HOLD rather than an error.
	Warmup bool `json:"warmup"`
}
