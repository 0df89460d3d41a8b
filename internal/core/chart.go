package core

import (
	"errors"
	"fmt"
	"time"
)

// ChartMode is the filter mode of the charts view.
type ChartMode string

const (
	ChartMonthly ChartMode = "monthly"
	ChartYearly  ChartMode = "yearly"
	ChartCustom  ChartMode = "custom"
)

var ErrInvalidChartMode = errors.New("invalid chart mode")

// ParseChartMode accepts "monthly", "yearly" or "custom"; empty means monthly.
func ParseChartMode(s string) (ChartMode, error) {
	switch ChartMode(s) {
	case "", ChartMonthly:
		return ChartMonthly, nil
	case ChartYearly, ChartCustom:
		return ChartMode(s), nil
	}
	return "", Invalid("mode", fmt.Errorf("%w: %q", ErrInvalidChartMode, s))
}

// ChartRange resolves the month range of a chart mode: monthly is the
// current month alone, yearly runs from January to the current month and
// custom uses start..end as given.
func ChartRange(mode ChartMode, now time.Time, start, end int) (int, int, error) {
	current := int(now.Month())
	switch mode {
	case ChartMonthly:
		return current, current, nil
	case ChartYearly:
		return 1, current, nil
	case ChartCustom:
		if err := ValidateMonthRange(start, end); err != nil {
			return 0, 0, err
		}
		return start, end, nil
	}
	return 0, 0, Invalid("mode", fmt.Errorf("%w: %q", ErrInvalidChartMode, mode))
}
