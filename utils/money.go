package utils

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ToMinorUnits converts a major-unit amount (rupees) into the gateway's integer
// minor units (paise), rounding half away from zero at two decimals.
func ToMinorUnits(amount float64) (int64, error) {
	d := decimal.NewFromFloat(amount).Round(2)
	if !d.IsPositive() {
		return 0, fmt.Errorf("amount must be positive, got %s", d.String())
	}
	return d.Shift(2).IntPart(), nil
}

// FromMinorUnits converts gateway minor units back to a major-unit amount
func FromMinorUnits(minor int64) float64 {
	f, _ := decimal.New(minor, -2).Float64()
	return f
}
