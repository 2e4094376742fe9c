package analysis

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cloudflare/ahocorasick"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	whitespace   = regexp.MustCompile(`\s+`)
	pricePattern = regexp.MustCompile(`\$?\d+\.\d{2}`)

	// dollarPricePattern only counts amounts with a currency sign
	dollarPricePattern = regexp.MustCompile(`\$\d+\.\d{2}`)
)

// keywordSet matches a fixed list of lower-case keywords as substrings in a
// single pass. The matcher is immutable after construction and safe for
// concurrent use through MatchThreadSafe.
type keywordSet struct {
	keywords []string
	matcher  *ahocorasick.Matcher
}

func newKeywordSet(keywords ...string) *keywordSet {
	return &keywordSet{
		keywords: keywords,
		matcher:  ahocorasick.NewStringMatcher(keywords),
	}
}

// find returns the indexes of keywords contained in folded text
func (k *keywordSet) find(folded string) []int {
	return k.matcher.MatchThreadSafe([]byte(folded))
}

// matched returns the keywords contained in folded text, in list order
func (k *keywordSet) matched(folded string) []string {
	hits := k.find(folded)
	if len(hits) == 0 {
		return nil
	}
	seen := make(map[int]bool, len(hits))
	for _, idx := range hits {
		seen[idx] = true
	}
	out := make([]string, 0, len(hits))
	for idx, kw := range k.keywords {
		if seen[idx] {
			out = append(out, kw)
		}
	}
	return out
}

func (k *keywordSet) containsAny(folded string) bool {
	return len(k.find(folded)) > 0
}

// foldText lower-cases text and strips combining marks so that OCR output like
// "TOTÁL" still hits the "total" keyword. Casers and transform chains carry
// state, so a fresh chain is built per call.
func foldText(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC, cases.Lower(language.Und))
	folded, _, err := transform.String(t, text)
	if err != nil {
		return strings.ToLower(text)
	}
	return folded
}

// titleCase renders an upper-case receipt name like "WHOLE MILK" as "Whole Milk"
func titleCase(s string) string {
	return cases.Title(language.English).String(strings.ToLower(s))
}

func countPrices(text string) int {
	return len(pricePattern.FindAllStringIndex(text, -1))
}

func stripSpace(s string) string {
	return whitespace.ReplaceAllString(s, "")
}

func collapseSpace(s string) string {
	return whitespace.ReplaceAllString(s, " ")
}

// splitLines returns the trimmed lines of text
func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return lines
}

// preview shortens text for log lines
func preview(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	return string([]rune(text)[:limit]) + "..."
}
