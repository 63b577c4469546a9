// Package transform adapts stored answer values to related taxonomy types and
// to the concrete control they will be written into.
package transform

import (
	"regexp"
	"strings"

	"github.com/jonathan/form-autofill/internal/types"
)

var (
	yearPattern        = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	countryCodePattern = regexp.MustCompile(`^\s*(\+\d{1,3})\b`)
	codeWithSeparator  = regexp.MustCompile(`^\s*(?:\+|00)\d{1,3}[\s.\-]+`)
	codeBeforeParen    = regexp.MustCompile(`^\s*(?:\+|00)\d{1,3}\(`)
)

// Convert recomputes value, stored as type from, for a field of type to.
// Unsupported pairs return value unchanged.
func Convert(value string, from, to types.Taxonomy) string {
	if from == to {
		return value
	}

	switch {
	case from == types.FullName && to == types.FirstName:
		if parts := strings.Fields(value); len(parts) > 0 {
			return parts[0]
		}
	case from == types.FullName && to == types.LastName:
		if parts := strings.Fields(value); len(parts) > 0 {
			return parts[len(parts)-1]
		}
	case from == types.GradDate && to == types.GradYear:
		if d, ok := ParseDate(value); ok {
			return d.YearString()
		}
		if y := yearPattern.FindString(value); y != "" {
			return y
		}
	case from == types.GradDate && to == types.GradMonth:
		if d, ok := ParseDate(value); ok && d.Precision >= PrecisionMonth {
			return d.MonthString()
		}
	case from == types.Phone && to == types.CountryCode:
		if m := countryCodePattern.FindStringSubmatch(value); m != nil {
			return m[1]
		}
	}
	return value
}

// StripCountryCode removes a leading "+NN" or "00NN" calling code and the
// separators after it. Numbers without a separable code are unchanged.
func StripCountryCode(phone string) string {
	if loc := codeWithSeparator.FindStringIndex(phone); loc != nil {
		return phone[loc[1]:]
	}
	if loc := codeBeforeParen.FindStringIndex(phone); loc != nil {
		return phone[loc[1]-1:]
	}
	return phone
}

// IsPartialValue reports whether full strictly extends partial, ignoring case
// and surrounding whitespace.
func IsPartialValue(partial, full string) bool {
	p := strings.ToLower(strings.TrimSpace(partial))
	f := strings.ToLower(strings.TrimSpace(full))
	return p != "" && len(f) > len(p) && strings.HasPrefix(f, p)
}

// ForField adapts a value to the control it will be written into: choice
// controls get their best matching option, date and month inputs get the
// formats browsers accept.
func ForField(value string, typ types.Taxonomy, field types.FieldDescriptor) string {
	if value == "" {
		return value
	}
	if len(field.Options) > 0 {
		if opt, ok := MatchOption(value, field.Options); ok {
			return opt
		}
		return value
	}

	switch strings.ToLower(field.Kind) {
	case "date":
		if d, ok := ParseDate(value); ok {
			return d.Format(PrecisionDay)
		}
	case "month":
		if d, ok := ParseDate(value); ok {
			return d.Format(PrecisionMonth)
		}
	case "number":
		if typ == types.GradYear {
			if d, ok := ParseDate(value); ok {
				return d.YearString()
			}
		}
	}
	return value
}
