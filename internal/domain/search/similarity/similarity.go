// Package similarity provides edit-distance based fuzzy string scores on a 0-100 scale.
package similarity

import "github.com/hbollon/go-edlib"

// Measure scores how alike two strings are.
type Measure interface {
	// Ratio compares whole strings.
	Ratio(a, b string) int
	// PartialRatio scores the best alignment of the shorter string
	// against a window of the longer one.
	PartialRatio(a, b string) int
}

// Indel is the Levenshtein measure with insertions and deletions only
// (a substitution costs two edits). The zero value is ready to use.
type Indel struct{}

var _ Measure = Indel{}

// Ratio returns round(100 * (|a|+|b| - dist) / (|a|+|b|)) over runes, halves to even.
// Either string empty gives 0.
func (Indel) Ratio(a, b string) int {
	return ratio([]rune(a), []rune(b))
}

// PartialRatio aligns the shorter string against every window of the longer
// one and keeps the best Ratio. Windows that run past either end of the
// longer string are cut short there, so "libraryx" still lines up with the
// "library" that ends "central library".
func (Indel) PartialRatio(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	short, long := ra, rb
	if len(short) > len(long) {
		short, long = long, short
	}
	n := len(short)
	best := 0
	for i := 1 - n; i < len(long); i++ {
		lo, hi := max(i, 0), min(i+n, len(long))
		if s := ratio(short, long[lo:hi]); s > best {
			best = s
			if best == 100 {
				break
			}
		}
	}
	return best
}

func ratio(a, b []rune) int {
	total := len(a) + len(b)
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	dist := edlib.LCSEditDistance(string(a), string(b))
	return roundHalfEven(100*(total-dist), total)
}

// roundHalfEven divides num by den (both non-negative) rounding ties to even.
func roundHalfEven(num, den int) int {
	q, r := num/den, num%den
	switch {
	case 2*r > den:
		q++
	case 2*r == den && q%2 == 1:
		q++
	}
	return q
}
