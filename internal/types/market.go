package types

import "time"

// PriceBar is one OHLCV bar for a symbol. Bars are immutable once recorded
// and ordered by timestamp per symbol.
type PriceBar struct {
	Symbol    string    `yaml:"symbol" json:"symbol" csv:"symbol"`
	Timestamp time.Time `yaml:"timestamp" json:"timestamp" csv:"timestamp"`
	Open      float64   `yaml:"open" json:"open" csv:"open"`
	High      float64   `yaml:"high" json:"high" csv:"high"`
	Low       float64   `yaml:"low" json:"low" csv:"low"`
	Close     float64   `yaml:"close" json:"close" csv:"close"`
	Volume    float64   `yaml:"volume" json:"volume" csv:"volume"`
}

// Mode selects between simulated and real order routing.
type Mode string

const (
	ModeMock Mode = "mock"
	ModeLive Mode = "live"
)
