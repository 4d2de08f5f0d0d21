package fields

import (
	"html"
	"regexp"
	"strings"
)

const highlightOpen, highlightClose = `<span class="search-highlight">`, `</span>`

// Highlight wraps every case-insensitive occurrence of the whitespace
// separated keywords in text with a search-highlight span. Matching runs on
// the raw text; each segment is HTML escaped on its own so a term never
// matches inside an entity.
func Highlight(text, keywords string) string {
	keywords = strings.ReplaceAll(keywords, "\u3000", " ")
	terms := uniqueTerms(strings.Fields(keywords))
	if len(terms) == 0 {
		return html.EscapeString(text)
	}

	alts := make([]string, len(terms))
	for i, term := range terms {
		alts[i] = regexp.QuoteMeta(term)
	}
	re := regexp.MustCompile(`(?i)(?:` + strings.Join(alts, "|") + `)`)

	var b strings.Builder
	last := 0
	for _, m := range re.FindAllStringIndex(text, -1) {
		b.WriteString(html.EscapeString(text[last:m[0]]))
		b.WriteString(highlightOpen)
		b.WriteString(html.EscapeString(text[m[0]:m[1]]))
		b.WriteString(highlightClose)
		last = m[1]
	}
	b.WriteString(html.EscapeString(text[last:]))
	return b.String()
}

func uniqueTerms(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := terms[:0:0]
	for _, t := range terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
