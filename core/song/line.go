package song

import "strings"

// SegmentType represents the type of a line segment.
type SegmentType string

// Segment type constants.
const (
	SegmentText  SegmentType = "text"
	SegmentChord SegmentType = "chord"
)

// Segment is a unit of a lyric line: either a run of plain lyric text or a
// chord/annotation marker anchored at a character offset within the line's
// rendered text.
type Segment struct {
	// Type is the segment type (text or chord).
	Type SegmentType `json:"type"`

	// Text is the literal lyric text (text segments only).
	Text string `json:"text,omitempty"`

	// Chord is the chord or annotation symbol (chord segments only).
	Chord string `json:"chord,omitempty"`

	// Offset is the character offset of this segment within the line's
	// rendered text. Offsets are monotonically non-decreasing across the
	// segment sequence and never exceed the rendered text length.
	Offset int `json:"offset"`
}

// IsChord returns true if this segment carries a chord or annotation.
func (s *Segment) IsChord() bool {
	return s.Type == SegmentChord
}

// LyricLine is one line of a part: an ordered segment sequence plus the
// source line it came from.
type LyricLine struct {
	// Segments contains the line's text and chord segments in order.
	Segments []Segment `json:"segments,omitempty"`

	// SourceLine is the 1-indexed line number in the original input,
	// 0 for synthesized lines.
	SourceLine int `json:"source_line,omitempty"`
}

// Text returns the rendered lyric text of the line: the concatenation of all
// text segments, chord anchors ignored.
func (l *LyricLine) Text() string {
	var sb strings.Builder
	for i := range l.Segments {
		if l.Segments[i].Type == SegmentText {
			sb.WriteString(l.Segments[i].Text)
		}
	}
	return sb.String()
}

// Chords returns the chord segments of the line in anchor order.
func (l *LyricLine) Chords() []Segment {
	var chords []Segment
	for i := range l.Segments {
		if l.Segments[i].Type == SegmentChord {
			chords = append(chords, l.Segments[i])
		}
	}
	return chords
}

// HasChords returns true if the line carries at least one chord anchor.
func (l *LyricLine) HasChords() bool {
	for i := range l.Segments {
		if l.Segments[i].Type == SegmentChord {
			return true
		}
	}
	return false
}

// TextLine builds a plain lyric line with a single text segment.
// An empty text yields a line with no segments.
func TextLine(text string, sourceLine int) LyricLine {
	line := LyricLine{SourceLine: sourceLine}
	if text != "" {
		line.Segments = []Segment{{Type: SegmentText, Text: text}}
	}
	return line
}
