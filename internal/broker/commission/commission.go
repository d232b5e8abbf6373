// Package commission models per-fill trading costs. Fees are charged on the
// executed notional amount and differ by side because Korean equity trades
// pay transaction tax on sells only.
package commission

import "github.com/sentra-lab/sentra-trading/internal/types"

// CommissionFee calculates the fee for a fill of the given notional amount.
type CommissionFee interface {
	// Calculate returns the fee in account currency for an executed amount.
	Calculate(amount float64, side types.Side) float64
}

type Broker string

const (
	BrokerKiwoom Broker = "kiwoom"
	BrokerZero   Broker = "zero"
)

// GetCommissionFeeHandler resolves a configured broker name to its fee
// schedule. Unknown names fall back to zero commission.
func GetCommissionFeeHandler(broker Broker) CommissionFee {
	switch broker {
	case BrokerKiwoom:
		return NewKiwoomCommissionFee()
	case BrokerZero:
		return NewZeroCommissionFee()
	default:
		return NewZeroCommissionFee()
	}
}
