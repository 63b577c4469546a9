package transform

import (
	"fmt"
	"strings"
	"time"
)

// Precision of a parsed date.
type Precision int

// Date precisions, coarsest first.
const (
	PrecisionYear Precision = iota
	PrecisionMonth
	PrecisionDay
)

// Date is a calendar date known to some precision.
type Date struct {
	Year      int
	Month     int
	Day       int
	Precision Precision
}

var dateLayouts = []struct {
	layout    string
	precision Precision
}{
	{"2006-01-02", PrecisionDay},
	{"2006/01/02", PrecisionDay},
	{"2006.01.02", PrecisionDay},
	{"01/02/2006", PrecisionDay},
	{"January 2, 2006", PrecisionDay},
	{"Jan 2, 2006", PrecisionDay},
	{"2006-01", PrecisionMonth},
	{"2006-1", PrecisionMonth},
	{"2006/01", PrecisionMonth},
	{"2006.01", PrecisionMonth},
	{"01/2006", PrecisionMonth},
	{"1/2006", PrecisionMonth},
	{"January 2006", PrecisionMonth},
	{"Jan 2006", PrecisionMonth},
	{"2006", PrecisionYear},
}

// ParseDate parses the common résumé date shapes.
func ParseDate(value string) (Date, bool) {
	s := strings.TrimSpace(value)
	s = strings.NewReplacer("年", "-", "月", "", "日", "").Replace(s)
	s = strings.TrimSuffix(s, "-")
	for _, l := range dateLayouts {
		t, err := time.Parse(l.layout, s)
		if err != nil {
			continue
		}
		d := Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day(), Precision: l.precision}
		if l.precision < PrecisionDay {
			d.Day = 1
		}
		if l.precision < PrecisionMonth {
			d.Month = 1
		}
		return d, true
	}
	return Date{}, false
}

// Format renders the date at precision p, defaulting missing parts to 01.
func (d Date) Format(p Precision) string {
	switch p {
	case PrecisionYear:
		return d.YearString()
	case PrecisionMonth:
		return fmt.Sprintf("%04d-%02d", d.Year, d.Month)
	default:
		return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
	}
}

// YearString returns the four-digit year.
func (d Date) YearString() string {
	return fmt.Sprintf("%04d", d.Year)
}

// MonthString returns the two-digit month.
func (d Date) MonthString() string {
	return fmt.Sprintf("%02d", d.Month)
}
