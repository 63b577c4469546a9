package transform

import (
	"strconv"
	"strings"
	"time"
)

var (
	yesWords = map[string]bool{"yes": true, "y": true, "true": true, "1": true, "是": true, "有": true}
	noWords  = map[string]bool{"no": true, "n": true, "false": true, "0": true, "否": true, "无": true, "没有": true}
)

// MatchOption picks the option that best represents value. It tries, in
// order: exact case-insensitive match, yes/no synonyms, month name/number
// equivalence, an option containing the value and finally the value
// containing an option (longest wins).
func MatchOption(value string, options []string) (string, bool) {
	v := normalize(value)
	if v == "" {
		return "", false
	}

	for _, opt := range options {
		if normalize(opt) == v {
			return opt, true
		}
	}

	if want, ok := boolValue(v); ok {
		for _, opt := range options {
			if got, ok := boolValue(firstWord(normalize(opt))); ok && got == want {
				return opt, true
			}
		}
	}

	if month, ok := monthValue(v); ok {
		for _, opt := range options {
			if m, ok := monthValue(normalize(opt)); ok && m == month {
				return opt, true
			}
		}
	}

	if len([]rune(v)) < 2 {
		return "", false
	}
	for _, opt := range options {
		if o := normalize(opt); o != "" && strings.Contains(o, v) {
			return opt, true
		}
	}

	best, bestLen := "", 0
	for _, opt := range options {
		if o := normalize(opt); len([]rune(o)) >= 2 && strings.Contains(v, o) && len(o) > bestLen {
			best, bestLen = opt, len(o)
		}
	}
	return best, bestLen > 0
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func firstWord(s string) string {
	s = strings.TrimLeft(s, " ")
	if i := strings.IndexAny(s, " ,.;:-/"); i >= 0 {
		return s[:i]
	}
	return s
}

func boolValue(s string) (bool, bool) {
	switch {
	case yesWords[s]:
		return true, true
	case noWords[s]:
		return false, true
	}
	return false, false
}

// monthValue accepts "9", "09", "sep", "september" and "9月".
func monthValue(s string) (int, bool) {
	s = strings.TrimSuffix(s, "月")
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 1 && n <= 12 {
			return n, true
		}
		return 0, false
	}
	if len(s) < 3 {
		return 0, false
	}
	for m := time.January; m <= time.December; m++ {
		name := strings.ToLower(m.String())
		if strings.HasPrefix(name, s) {
			return int(m), true
		}
	}
	return 0, false
}
