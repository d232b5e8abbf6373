package commission

import "github.com/sentra-lab/sentra-trading/internal/types"

const (
	// kiwoomCommissionRate is the brokerage commission per side.
	kiwoomCommissionRate = 0.00015
	// kiwoomSellTaxRate is the securities transaction tax, charged on sells.
	kiwoomSellTaxRate = 0.0018
)

// KiwoomCommissionFee implements the Kiwoom Securities fee schedule for KRX
// equities: a flat commission both ways plus transaction tax on sells.
type KiwoomCommissionFee struct{}

// NewKiwoomCommissionFee creates the Kiwoom fee schedule.
func NewKiwoomCommissionFee() CommissionFee {
	return &KiwoomCommissionFee{}
}

// Calculate returns commission plus, for sells, transaction tax.
func (c *KiwoomCommissionFee) Calculate(amount float64, side types.Side) float64 {
	fee := amount * kiwoomCommissionRate

	if side == types.SideSell {
		fee += amount * kiwoomSellTaxRate
	}

	return fee
}
