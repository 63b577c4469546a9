package classify

import (
	"regexp"
	"strings"

	"github.com/jonathan/form-autofill/internal/types"
)

// Replacement tokens for scrubbed substrings.
const (
	EmailToken = "[EMAIL]"
	PhoneToken = "[PHONE]"
	SSNToken   = "[SSN]"
)

// scrubPatterns run in order: SSNs are replaced before the broader phone
// pattern can claim their digits.
var scrubPatterns = []struct {
	re    *regexp.Regexp
	token string
}{
	{regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`), EmailToken},
	{regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), SSNToken},
	{regexp.MustCompile(`(\+\d{1,3}[\s.\-]?)?\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4}\b`), PhoneToken},
}

// Scrub replaces email-like, phone-like and government-ID-like substrings
// with fixed tokens.
func Scrub(s string) string {
	if s == "" {
		return s
	}
	for _, p := range scrubPatterns {
		s = p.re.ReplaceAllString(s, p.token)
	}
	return s
}

func scrubAll(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = Scrub(s)
	}
	return out
}

// ToBackendField converts a descriptor to its scrubbed wire form. Every free
// text attribute is scrubbed; structural identifiers are sent unchanged.
func ToBackendField(f types.FieldDescriptor) types.BackendField {
	return types.BackendField{
		Index:              f.Index,
		TagName:            strings.ToLower(f.Tag),
		Type:               f.Kind,
		Name:               f.Name,
		ID:                 f.ID,
		Placeholder:        Scrub(f.Placeholder),
		LabelText:          Scrub(f.Label),
		SectionTitle:       Scrub(f.SectionTitle),
		Options:            scrubAll(f.Options),
		AriaLabel:          Scrub(f.AriaLabel),
		SurroundingText:    Scrub(f.SurroundingText),
		AncestorCandidates: scrubAll(f.AncestorCandidates),
	}
}

// DisplayLabel is the best human-readable label for a field.
func DisplayLabel(f types.FieldDescriptor) string {
	for _, s := range []string{f.Label, f.AriaLabel, f.Placeholder, f.Name, f.ID} {
		if t := strings.TrimSpace(s); t != "" {
			return t
		}
	}
	return ""
}
