package position

import (
	"fmt"
)

// Place is a zero-based line/character location in the source text.
type Place struct {
	Line      int
	Character int
}

// Range is a line/character range derived from a Span.
type Range struct {
	Start Place
	End   Place
}

// Span is a half-open [Start, End) byte-offset range into the source text.
type Span struct {
	// Start is the byte offset of the first character of the span
	Start int
	// End is the byte offset just past the last character of the span
	End int
}

func NewSpan(start, end int) Span {
	return Span{Start: start, End: end}
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d-%d", s.Start, s.End)
}

// Contains reports whether the byte offset falls inside the span.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset < s.End
}

// OverlapsWith reports whether two spans share at least one byte. Zero-length
// spans overlap when they fall within the other span's bounds.
func (s Span) OverlapsWith(other Span) bool {
	if s.Len() == 0 {
		return s.Start >= other.Start && s.Start <= other.End
	}
	if other.Len() == 0 {
		return other.Start >= s.Start && other.Start <= s.End
	}
	return other.Start < s.End && other.End > s.Start
}

// PlaceOf calculates the zero-based line and character for a byte offset in
// text.
func PlaceOf(offset int, text string) Place {
	if offset <= 0 {
		return Place{}
	}
	if offset > len(text) {
		offset = len(text)
	}

	line := 0
	lastNewline := -1
	for i := 0; i < offset; i++ {
		if text[i] == '\n' {
			line++
			lastNewline = i
		}
	}

	return Place{Line: line, Character: offset - lastNewline - 1}
}

// RangeIn converts the span's byte offsets into a line/character range for
// the given source text.
func (s Span) RangeIn(text string) Range {
	return Range{
		Start: PlaceOf(s.Start, text),
		End:   PlaceOf(s.End, text),
	}
}
