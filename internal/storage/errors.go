package storage

import (
	"errors"
	"fmt"
	"time"

	"chitieu/internal/core"
)

var (
	ErrNotFound        = errors.New("transaction not found")
	ErrMonthMismatch   = errors.New("transaction is not in the given month")
	ErrUnknownCategory = errors.New("category does not exist")
	ErrUnknownKeyword  = errors.New("keyword does not exist in category")
)

// CheckWriteMonth fails with ErrMonthMismatch when day, the date being
// written for id, is outside month. Zero skips the check.
func CheckWriteMonth(id core.ID, day time.Time, month int) error {
	if month != 0 && int(day.Month()) != month {
		return fmt.Errorf("%w: %s dated %s, not month %02d", ErrMonthMismatch, id, core.FormatDisplay(day), month)
	}
	return nil
}
