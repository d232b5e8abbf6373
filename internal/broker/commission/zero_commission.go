package commission

import "github.com/sentra-lab/sentra-trading/internal/types"

// ZeroCommissionFee implements CommissionFee with zero commission.
type ZeroCommissionFee struct{}

// NewZeroCommissionFee creates a new zero commission fee.
func NewZeroCommissionFee() CommissionFee {
	return &ZeroCommissionFee{}
}

// Calculate returns 0 for any amount.
func (c *ZeroCommissionFee) Calculate(amount float64, side types.Side) float64 {
	return 0.0
}
