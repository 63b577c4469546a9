// Package scanner extracts field descriptors from static or rendered HTML.
package scanner

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/form-autofill/internal/fetch"
	"github.com/jonathan/form-autofill/internal/types"
)

const (
	maxSurroundingText = 200
	maxAncestorTexts   = 3
	maxKeywords        = 10
)

const (
	controlSelector = "input, select, textarea"
	headingSelector = "h1, h2, h3, h4, h5, h6, legend, [role='heading']"
	blockSelector   = "fieldset, [role='group'], li, section, article"
)

// skippedKinds are input types that never take a stored answer.
var skippedKinds = map[string]bool{
	"hidden":   true,
	"submit":   true,
	"button":   true,
	"reset":    true,
	"image":    true,
	"file":     true,
	"password": true,
}

// Options configures a scan.
type Options struct {
	// URL of the page; drives platform-specific container selection and
	// fills the page context path.
	URL string
}

// Result is one scan of a page.
type Result struct {
	Fields []types.FieldDescriptor `json:"fields"`
	Page   types.PageContext       `json:"page"`
}

// ScanHTML parses a document and returns one descriptor per fillable control,
// in document order. Radio buttons sharing a name collapse into one field.
func ScanHTML(r io.Reader, opts Options) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	platform := fetch.DetectPlatform(opts.URL)
	doc.Find(strings.Join(fetch.NoiseSelectors(platform), ", ")).Remove()

	res := &Result{Page: pageContext(doc, opts.URL, platform)}
	root := formRoot(doc, platform)
	radios := make(map[string]int)

	root.Find(controlSelector).Each(func(_ int, s *goquery.Selection) {
		kind := strings.ToLower(strings.TrimSpace(s.AttrOr("type", "")))
		if goquery.NodeName(s) == "input" && kind == "" {
			kind = "text"
		}
		if skippedKinds[kind] || disabled(s) {
			return
		}

		if kind == "radio" {
			name := s.AttrOr("name", "")
			if pos, ok := radios[name]; ok && name != "" {
				f := &res.Fields[pos]
				f.Options = appendOption(f.Options, optionLabel(doc, s))
				return
			}
			radios[name] = len(res.Fields)
		}

		res.Fields = append(res.Fields, describe(doc, s, len(res.Fields), kind))
	})

	return res, nil
}

// ScanString scans an HTML string.
func ScanString(html string, opts Options) (*Result, error) {
	return ScanHTML(strings.NewReader(html), opts)
}

func describe(doc *goquery.Document, s *goquery.Selection, index int, kind string) types.FieldDescriptor {
	tag := goquery.NodeName(s)
	f := types.FieldDescriptor{
		Index:        index,
		Tag:          tag,
		Kind:         kind,
		Name:         s.AttrOr("name", ""),
		ID:           s.AttrOr("id", ""),
		Placeholder:  clean(s.AttrOr("placeholder", "")),
		Autocomplete: s.AttrOr("autocomplete", ""),
		AriaLabel:    clean(s.AttrOr("aria-label", "")),
	}
	if tag == "textarea" {
		f.Kind = ""
	}

	switch kind {
	case "radio":
		f.Label = groupLabel(s)
		f.Options = appendOption(nil, optionLabel(doc, s))
	default:
		f.Label = label(doc, s)
	}
	if f.Label == "" {
		f.Label = labelledBy(doc, s)
	}

	if tag == "select" {
		s.Find("option").Each(func(_ int, o *goquery.Selection) {
			if v, ok := o.Attr("value"); ok && strings.TrimSpace(v) == "" {
				return
			}
			f.Options = appendOption(f.Options, clean(o.Text()))
		})
	}

	f.SectionTitle, f.SectionAnchor = section(s)
	f.SurroundingText = truncate(clean(s.Parent().Text()), maxSurroundingText)
	f.AncestorCandidates = ancestorTexts(s)
	return f
}

// label resolves label[for=id], then an enclosing label.
func label(doc *goquery.Document, s *goquery.Selection) string {
	if id := s.AttrOr("id", ""); id != "" {
		if l := doc.Find(`label[for="` + cssEscape(id) + `"]`).First(); l.Length() > 0 {
			return clean(l.Text())
		}
	}
	if l := s.Closest("label"); l.Length() > 0 {
		c := l.Clone()
		c.Find("select, textarea").Remove()
		return clean(c.Text())
	}
	return ""
}

func labelledBy(doc *goquery.Document, s *goquery.Selection) string {
	ids := strings.Fields(s.AttrOr("aria-labelledby", ""))
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		if t := clean(doc.Find(`[id="` + cssEscape(id) + `"]`).First().Text()); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// groupLabel is the question a radio group answers: its legend or heading.
func groupLabel(s *goquery.Selection) string {
	if g := s.Closest("fieldset, [role='radiogroup']"); g.Length() > 0 {
		if l := g.ChildrenFiltered("legend").First(); l.Length() > 0 {
			return clean(l.Text())
		}
		if l := g.AttrOr("aria-label", ""); l != "" {
			return clean(l)
		}
	}
	return ""
}

func optionLabel(doc *goquery.Document, s *goquery.Selection) string {
	if l := label(doc, s); l != "" {
		return l
	}
	return clean(s.AttrOr("value", ""))
}

// section walks up from the control and returns the nearest heading and the
// path of the closest repeated-block container.
func section(s *goquery.Selection) (title, anchor string) {
	for cur := s; cur.Length() > 0 && !cur.Is("body"); cur = cur.Parent() {
		if title == "" {
			if h := cur.ChildrenFiltered(headingSelector).First(); h.Length() > 0 && cur != s {
				title = clean(h.Text())
			} else if h := cur.PrevAllFiltered(headingSelector).First(); h.Length() > 0 {
				title = clean(h.Text())
			}
		}
		if anchor == "" && cur != s && cur.Is(blockSelector) {
			anchor = nodePath(cur)
		}
		if title != "" && anchor != "" {
			break
		}
	}
	return title, anchor
}

// nodePath identifies an element by tag and sibling position up to body.
func nodePath(s *goquery.Selection) string {
	var parts []string
	for cur := s; cur.Length() > 0 && !cur.Is("body, html"); cur = cur.Parent() {
		parts = append(parts, goquery.NodeName(cur)+"["+strconv.Itoa(cur.Index())+"]")
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

// ancestorTexts collects text of preceding siblings at increasing depth.
func ancestorTexts(s *goquery.Selection) []string {
	var out []string
	for cur, depth := s, 0; cur.Length() > 0 && depth < maxAncestorTexts && !cur.Is("body"); cur, depth = cur.Parent(), depth+1 {
		prev := cur.PrevFiltered(":not(input):not(select):not(textarea)")
		if t := truncate(clean(prev.Text()), maxSurroundingText); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func formRoot(doc *goquery.Document, platform fetch.Platform) *goquery.Selection {
	for _, sel := range fetch.FormSelectors(platform) {
		if root := doc.Find(sel); root.Length() > 0 {
			return root
		}
	}
	return doc.Find("body")
}

func pageContext(doc *goquery.Document, rawURL string, platform fetch.Platform) types.PageContext {
	pc := types.PageContext{Title: clean(doc.Find("title").First().Text())}
	if u, err := url.Parse(rawURL); err == nil {
		pc.URLPath = u.Path
	}
	if platform != fetch.PlatformUnknown {
		pc.Keywords = append(pc.Keywords, string(platform))
	}
	for _, k := range strings.Split(doc.Find(`meta[name="keywords"]`).AttrOr("content", ""), ",") {
		if k = clean(k); k != "" && len(pc.Keywords) < maxKeywords {
			pc.Keywords = append(pc.Keywords, k)
		}
	}
	return pc
}

func disabled(s *goquery.Selection) bool {
	_, ok := s.Attr("disabled")
	return ok
}

func appendOption(opts []string, o string) []string {
	if o == "" {
		return opts
	}
	return append(opts, o)
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func cssEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
