package types

import (
	"sort"
	"time"
)

// SignalAction is the discrete trading decision for one symbol at one tick.
type SignalAction string

const (
	SignalActionBuy  SignalAction = "BUY"
	SignalActionSell SignalAction = "SELL"
	SignalActionHold SignalAction = "HOLD"
)

// Signal is produced once per symbol per evaluation and consumed immediately
// by the risk gate. It is not retained beyond the evaluation cycle.
type Signal struct {
	Symbol    string       `json:"symbol"`
	Timestamp time.Time    `json:"timestamp"`
	Action    SignalAction `json:"action"`
	// Strength is a normalized score in [0,1] used only for ranking
	// candidates when more symbols qualify than available position slots.
	Strength float64 `json:"strength"`
	// Reason records which conditions fired, for the audit trail.
	Reason string `json:"reason"`
}

// RankSignals orders buy candidates for slot allocation: higher strength
// first, ties broken by lexical symbol order so that live and replay runs
// allocate slots identically.
func RankSignals(signals []Signal) []Signal {
	ranked := make([]Signal, len(signals))
	copy(ranked, signals)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Strength != ranked[j].Strength {
			return ranked[i].Strength > ranked[j].Strength
		}

		return ranked[i].Symbol < ranked[j].Symbol
	})

	return ranked
}
