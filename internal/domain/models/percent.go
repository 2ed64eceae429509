package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParsePercent converts scraped percent text such as "61 %" or "38.5%" into a
// fraction of one (0.61, 0.385).
func ParsePercent(s string) (decimal.Decimal, error) {
	t := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if t == "" {
		return decimal.Zero, fmt.Errorf("empty percent %q", s)
	}
	d, err := decimal.NewFromString(t)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse percent %q: %w", s, err)
	}
	return d.Div(decimal.NewFromInt(100)), nil
}
