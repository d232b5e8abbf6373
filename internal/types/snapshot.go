package types

import "time"

// Holding is the per-symbol slice of a portfolio snapshot.
type Holding struct {
	Code             string  `json:"code"`
	Quantity         float64 `json:"quantity"`
	AverageCost      float64 `json:"avg_price"`
	CurrentPrice     float64 `json:"current_price"`
	MarketValue      float64 `json:"market_value"`
	UnrealizedPnL    float64 `json:"unrealized_pnl"`
	UnrealizedPnLPct float64 `json:"unrealized_pnl_pct"`
	StopPrice        float64 `json:"stop_price"`
	TargetPrice      float64 `json:"target_price"`
}

// PortfolioSnapshot is produced once per evaluation cycle and appended to the
// snapshot time series. It is the only portfolio view exposed outward.
type PortfolioSnapshot struct {
	Timestamp      time.Time `json:"timestamp"`
	PortfolioValue float64   `json:"portfolio_value"`
	Cash           float64   `json:"cash"`
	PositionValue  float64   `json:"position_value"`
	TotalPnL       float64   `json:"total_pnl"`
	TotalPnLPct    float64   `json:"total_pnl_pct"`
	DailyPnL       float64   `json:"daily_pnl"`
	PositionCount  int       `json:"position_count"`
	WinRate        float64   `json:"win_rate"`
	Mode           Mode      `json:"mode"`
	Holdings       []Holding `json:"holdings"`
	// Halted is true when the drawdown kill-switch has fired and new
	// entries are blocked pending manual reset.
	Halted bool `json:"halted"`
}
