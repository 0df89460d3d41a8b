package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DisplayLayout = "02/01/2006"
	ISOLayout     = "2006-01-02"
)

// ParseISODate parses the YYYY-MM-DD form used by date inputs.
func ParseISODate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(ISOLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, Invalid("date", fmt.Errorf("%w: %q", ErrInvalidDate, s))
	}
	return t, nil
}

// ParseDisplayDate parses DD/MM/YYYY. Single-digit day or month parts are
// accepted and padded first.
func ParseDisplayDate(s string) (time.Time, error) {
	day, month, year, err := splitDisplayDate(s)
	if err != nil {
		return time.Time{}, err
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, Invalid("date", fmt.Errorf("%w: %q", ErrInvalidDate, s))
	}
	return t, nil
}

// FormatDisplay renders t as DD/MM/YYYY.
func FormatDisplay(t time.Time) string { return t.Format(DisplayLayout) }

// FormatISO renders t as YYYY-MM-DD.
func FormatISO(t time.Time) string { return t.Format(ISOLayout) }

// NormalizeDisplayDate pads day and month of a D/M/YYYY string. Anything
// that is not three slash-separated parts is returned unchanged.
func NormalizeDisplayDate(s string) string {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return s
	}
	return fmt.Sprintf("%s/%s/%s", padTwo(parts[0]), padTwo(parts[1]), parts[2])
}

// ISOToDisplay converts YYYY-MM-DD to DD/MM/YYYY.
func ISOToDisplay(s string) (string, error) {
	t, err := ParseISODate(s)
	if err != nil {
		return "", err
	}
	return FormatDisplay(t), nil
}

// DisplayToISO converts DD/MM/YYYY to YYYY-MM-DD.
func DisplayToISO(s string) (string, error) {
	t, err := ParseDisplayDate(s)
	if err != nil {
		return "", err
	}
	return FormatISO(t), nil
}

// MonthOf returns the zero-padded month ("04") of a DD/MM/YYYY date. The
// remote store partitions updates and deletes by this value.
func MonthOf(display string) (string, error) {
	_, month, _, err := splitDisplayDate(display)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%02d", month), nil
}

// ValidateNotFuture rejects zero dates and dates after the calendar day of now.
func ValidateNotFuture(d, now time.Time) error {
	if d.IsZero() {
		return Invalid("date", ErrMissingDate)
	}
	y, m, day := now.Date()
	endOfToday := time.Date(y, m, day, 23, 59, 59, int(time.Second-1), now.Location())
	if d.After(endOfToday) {
		return Invalid("date", ErrFutureDate)
	}
	return nil
}

// ValidateMonth checks 1 <= m <= 12.
func ValidateMonth(m int) error {
	if m < 1 || m > 12 {
		return Invalid("month", fmt.Errorf("%w: %d", ErrInvalidMonth, m))
	}
	return nil
}

// ValidateMonthRange checks both bounds and start <= end.
func ValidateMonthRange(start, end int) error {
	if err := ValidateMonth(start); err != nil {
		return err
	}
	if err := ValidateMonth(end); err != nil {
		return err
	}
	if start > end {
		return Invalid("month", ErrInvalidRange)
	}
	return nil
}

func splitDisplayDate(s string) (day, month, year int, err error) {
	bad := Invalid("date", fmt.Errorf("%w: %q", ErrInvalidDate, s))
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 || len(parts[2]) != 4 {
		return 0, 0, 0, bad
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, convErr := strconv.Atoi(p)
		if convErr != nil || p == "" || strings.HasPrefix(p, "-") || strings.HasPrefix(p, "+") {
			return 0, 0, 0, bad
		}
		nums[i] = n
	}
	if nums[0] < 1 || nums[0] > 31 || nums[1] < 1 || nums[1] > 12 {
		return 0, 0, 0, bad
	}
	return nums[0], nums[1], nums[2], nil
}

func padTwo(s string) string {
	if len(s) >= 2 {
		return s
	}
	return strings.Repeat("0", 2-len(s)) + s
}
