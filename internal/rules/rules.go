// Package rules holds the priority-ordered pattern tables used to classify
// driver answers and to extract structured fields. Within a table the first
// matching rule wins; later rules are never consulted.
package rules

import (
	"regexp"
	"strings"
)

// Rule is one entry of a Table. When Format is nil the rule yields Value, or
// the first capture group when Value is empty.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Value   string
	Format  func(m []string, text string) string
	// PendingOnly rules only apply to the topic the dispatcher just asked
	// about (bare "yes"/"fine" answers).
	PendingOnly bool
}

type Table []Rule

// Match is the result of a table lookup.
type Match struct {
	Rule  string
	Value string
}

// First evaluates the table in order. pending reports whether the text is an
// answer to a question about this table's topic.
func (t Table) First(text string, pending bool) (Match, bool) {
	text = Normalize(text)
	for _, r := range t {
		if r.PendingOnly && !pending {
			continue
		}
		m := r.Pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		var v string
		switch {
		case r.Format != nil:
			v = r.Format(m, text)
		case r.Value != "":
			v = r.Value
		case len(m) > 1:
			v = m[1]
		default:
			v = m[0]
		}
		return Match{Rule: r.Name, Value: strings.TrimSpace(v)}, true
	}
	return Match{}, false
}

// Value is First without the rule name, falling back to def.
func (t Table) Value(text string, pending bool, def string) string {
	if m, ok := t.First(text, pending); ok && m.Value != "" {
		return m.Value
	}
	return def
}

var (
	curlyApostrophe = strings.NewReplacer("’", "'", "‘", "'", "“", `"`, "”", `"`)
	spaces          = regexp.MustCompile(`\s+`)
)

// Normalize straightens quotes and collapses whitespace. Case is preserved
// because the city rule relies on capitalisation.
func Normalize(text string) string {
	text = curlyApostrophe.Replace(text)
	return strings.TrimSpace(spaces.ReplaceAllString(text, " "))
}

// WordCount counts whitespace-separated tokens that contain a letter or digit.
func WordCount(text string) int {
	n := 0
	for _, f := range strings.Fields(text) {
		if strings.IndexFunc(f, isWordRune) >= 0 {
			n++
		}
	}
	return n
}

func isWordRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func re(expr string) *regexp.Regexp { return regexp.MustCompile(expr) }
