package classifier

import (
	"fmt"
	"sort"
)

// Range maps the closed code interval [Lo, Hi] onto code points starting at Base.
type Range struct {
	Lo   uint32
	Hi   uint32
	Base rune
}

// Contains reports whether code falls inside the interval.
func (r Range) Contains(code uint32) bool { return code >= r.Lo && code <= r.Hi }

// Hiragana and Katakana are the JIS X 0208 rows 4 and 5 of the ETL9G corpus.
var (
	Hiragana = Range{Lo: 0x2421, Hi: 0x2473, Base: 0x3041}
	Katakana = Range{Lo: 0x2521, Hi: 0x2576, Base: 0x30A1}
)

// RangeClassifier classifies codes by a set of disjoint ranges.
type RangeClassifier struct {
	ranges []Range
}

// NewKanaClassifier returns a classifier for hiragana and katakana.
func NewKanaClassifier() *RangeClassifier {
	c, _ := NewRangeClassifier(Hiragana, Katakana)
	return c
}

// NewRangeClassifier validates the ranges and builds a classifier.
func NewRangeClassifier(ranges ...Range) (*RangeClassifier, error) {
	if len(ranges) == 0 {
		return nil, fmt.Errorf("no ranges configured")
	}
	sorted := append([]Range(nil), ranges...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Lo < sorted[j].Lo })
	for i, r := range sorted {
		if r.Hi < r.Lo {
			return nil, fmt.Errorf("range %#x-%#x is inverted", r.Lo, r.Hi)
		}
		if r.Base < 0 || int64(r.Base)+int64(r.Hi-r.Lo) > 0x10FFFF {
			return nil, fmt.Errorf("range %#x-%#x maps outside unicode", r.Lo, r.Hi)
		}
		if i > 0 && r.Lo <= sorted[i-1].Hi {
			return nil, fmt.Errorf("range %#x-%#x overlaps %#x-%#x", r.Lo, r.Hi, sorted[i-1].Lo, sorted[i-1].Hi)
		}
	}
	return &RangeClassifier{ranges: sorted}, nil
}

// Classify returns the character for code, or false when no range holds it.
func (c *RangeClassifier) Classify(code uint32) (rune, bool) {
	for _, r := range c.ranges {
		if r.Contains(code) {
			return r.Base + rune(code-r.Lo), true
		}
	}
	return 0, false
}

// Ranges returns a copy of the configured ranges in ascending order.
func (c *RangeClassifier) Ranges() []Range {
	return append([]Range(nil), c.ranges...)
}
