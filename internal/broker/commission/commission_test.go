package commission

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sentra-lab/sentra-trading/internal/types"
)

func TestKiwoomCommissionFee(t *testing.T) {
	fee := NewKiwoomCommissionFee()

	t.Run("buy pays commission only", func(t *testing.T) {
		assert.InDelta(t, 150, fee.Calculate(1_000_000, types.SideBuy), 1e-6)
	})

	t.Run("sell pays commission plus transaction tax", func(t *testing.T) {
		assert.InDelta(t, 150+1_800, fee.Calculate(1_000_000, types.SideSell), 1e-6)
	})
}

func TestZeroCommissionFee(t *testing.T) {
	fee := NewZeroCommissionFee()

	assert.Zero(t, fee.Calculate(1_000_000, types.SideBuy))
	assert.Zero(t, fee.Calculate(1_000_000, types.SideSell))
}

func TestGetCommissionFeeHandler(t *testing.T) {
	assert.IsType(t, &KiwoomCommissionFee{}, GetCommissionFeeHandler(BrokerKiwoom))
	assert.IsType(t, &ZeroCommissionFee{}, GetCommissionFeeHandler(BrokerZero))
	// Unknown brokers fall back to zero commission.
	assert.IsType(t, &ZeroCommissionFee{}, GetCommissionFeeHandler("unknown"))
}
