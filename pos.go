package idlc

import (
	"fmt"
	"sort"
	"unicode/utf8"
)

const eof = -1

// Range is a half-open byte-offset interval within the input text.
type Range struct{ Start, End int }

func NewRange(start, end int) Range {
	return Range{Start: start, End: end}
}

func (r Range) String() string {
	if r.Start == r.End {
		return fmt.Sprintf("%d", r.Start)
	}
	return fmt.Sprintf("%d..%d", r.Start, r.End)
}

func (r Range) Str(input []byte) string {
	return string(input[r.Start:r.End])
}

func (r Range) Contains(other Range) bool {
	return other.Start >= r.Start && other.End <= r.End
}

// Location is a human-facing position: 1-based line, 1-based rune
// column, and the underlying byte cursor.
type Location struct {
	Line   int32
	Column int32
	Cursor int
	File   string
}

// Span is a pair of Locations delimiting a diagnostic-worthy range.
type Span struct {
	Start Location
	End   Location
}

func NewSpan(start, end Location) Span {
	return Span{Start: start, End: end}
}

func (s Span) String() string {
	startLine, startCol := s.Start.Line, s.Start.Column
	endLine, endCol := s.End.Line, s.End.Column
	if s.Start.File != "" {
		if startLine == endLine && startCol == endCol {
			return fmt.Sprintf("%s:%d:%d", s.Start.File, startLine, startCol)
		}
		return fmt.Sprintf("%s:%d:%d..%d:%d", s.Start.File, startLine, startCol, endLine, endCol)
	}
	if startLine == endLine && startCol == endCol {
		return fmt.Sprintf("%d:%d", startLine, startCol)
	}
	return fmt.Sprintf("%d:%d..%d:%d", startLine, startCol, endLine, endCol)
}

// LineIndex converts byte cursor offsets into Locations in O(log lines)
// after an O(n) build, by recording the byte offset at which each line
// begins.
type LineIndex struct {
	input     []byte
	lineStart []int
	file      string
}

func NewLineIndex(input []byte, file string) *LineIndex {
	lineStart := make([]int, 1, 64)
	lineStart[0] = 0
	for i, b := range input {
		if b == '\n' {
			lineStart = append(lineStart, i+1)
		}
	}
	return &LineIndex{input: input, lineStart: lineStart, file: file}
}

func (li *LineIndex) LocationAt(cursor int) Location {
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(li.input) {
		cursor = len(li.input)
	}

	lineIdx := sort.Search(len(li.lineStart), func(i int) bool {
		return li.lineStart[i] > cursor
	}) - 1
	if lineIdx < 0 {
		lineIdx = 0
	}

	lineStart := li.lineStart[lineIdx]
	col := int32(utf8.RuneCount(li.input[lineStart:cursor])) + 1

	return Location{
		Line:   int32(lineIdx + 1),
		Column: col,
		Cursor: cursor,
		File:   li.file,
	}
}

func (li *LineIndex) Span(r Range) Span {
	return Span{Start: li.LocationAt(r.Start), End: li.LocationAt(r.End)}
}
