// Package experience infers a seniority scalar from job or profile text.
package experience

import (
	"math"
	"regexp"
	"strings"
)

// DefaultLevel is used when no seniority keyword is present.
const DefaultLevel = 0.7

type keyword struct {
	word  string
	level float64
	re    *regexp.Regexp
}

// levels is ordered. The first keyword in this table that appears anywhere in
// the text wins, regardless of where it appears.
var levels = compile([]keyword{
	{word: "intern", level: 0.2},
	{word: "junior", level: 0.5},
	{word: "associate", level: 0.6},
	{word: "mid", level: 0.7},
	{word: "senior", level: 0.9},
	{word: "lead", level: 1.0},
})

func compile(table []keyword) []keyword {
	for i := range table {
		table[i].re = regexp.MustCompile(`\b` + regexp.QuoteMeta(table[i].word) + `\b`)
	}
	return table
}

// InferLevel maps text onto [0,1] using the keyword table.
func InferLevel(text string) float64 {
	lowered := strings.ToLower(text)
	for _, kw := range levels {
		if kw.re.MatchString(lowered) {
			return kw.level
		}
	}
	return DefaultLevel
}

// Match compares two levels: 1 for equal, falling linearly with distance.
func Match(a, b float64) float64 {
	return 1 - math.Abs(a-b)
}
