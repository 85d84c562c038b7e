package song

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Chord represents a parsed chord symbol (e.g., "Am7", "F#", "G/B").
type Chord struct {
	// Root is the root note including accidental (e.g., "A", "F#", "Bb").
	Root string `json:"root"`

	// Quality is the quality and extension suffix (e.g., "m7", "maj7", "sus4").
	Quality string `json:"quality,omitempty"`

	// Bass is the slash-bass note, empty when the root is the bass.
	Bass string `json:"bass,omitempty"`
}

// chordGrammar is the participle grammar for chord symbols.
// Examples: "C", "Am", "F#m7", "Bbmaj7", "Dsus4", "G/B", "E7/G#"
//
//nolint:govet // participle grammar tags are not standard struct tags
type chordGrammar struct {
	Root    string  `parser:"@Root"`
	Quality string  `parser:"@Name?"`
	Bass    *string `parser:"( \"/\" @Root )?"`
}

// chordLexer defines the lexer for chord symbols.
// Note: Root must come before Name so "Bb" lexes as one root token rather
// than a root "B" followed by a quality "b".
var chordLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Root", Pattern: `[A-G][#b]?`},
	{Name: "Name", Pattern: `[a-z0-9()+#-]+`},
	{Name: "Slash", Pattern: `/`},
})

// chordParser is the participle parser for chord symbols.
var chordParser = participle.MustBuild[chordGrammar](
	participle.Lexer(chordLexer),
)

// qualityRegex constrains the quality suffix to known chord vocabulary.
// Without it any capitalized word starting with A-G ("Amazing") would lex as
// a chord, which would wreck chord-line detection.
var qualityRegex = regexp.MustCompile(`^(?:m|mi|min|maj|dim|aug|sus\d?|add\d+|no\d+|\d+|[#b]\d+|\(|\)|\+|-)*$`)

// ParseChord parses a chord symbol string.
func ParseChord(s string) (*Chord, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty chord string")
	}

	parsed, err := chordParser.ParseString("", s)
	if err != nil {
		return nil, fmt.Errorf("invalid chord symbol: %q: %w", s, err)
	}
	if !qualityRegex.MatchString(parsed.Quality) {
		return nil, fmt.Errorf("invalid chord quality: %q", parsed.Quality)
	}

	chord := &Chord{
		Root:    parsed.Root,
		Quality: parsed.Quality,
	}
	if parsed.Bass != nil {
		chord.Bass = *parsed.Bass
	}
	return chord, nil
}

// IsChordSymbol reports whether s parses as a chord symbol. Bar separators
// ("|", "%") and the no-chord marker "N.C." also count; they appear on chord
// lines without being chords themselves.
func IsChordSymbol(s string) bool {
	switch s {
	case "|", "%", "N.C.", "NC":
		return true
	}
	_, err := ParseChord(s)
	return err == nil
}

// String returns the chord symbol notation.
func (c *Chord) String() string {
	var sb strings.Builder
	sb.WriteString(c.Root)
	sb.WriteString(c.Quality)
	if c.Bass != "" {
		sb.WriteString("/")
		sb.WriteString(c.Bass)
	}
	return sb.String()
}

// noteIndex maps note names to semitone offsets from C.
var noteIndex = map[string]int{
	"C": 0, "C#": 1, "Db": 1,
	"D": 2, "D#": 3, "Eb": 3,
	"E": 4, "Fb": 4, "E#": 5,
	"F": 5, "F#": 6, "Gb": 6,
	"G": 7, "G#": 8, "Ab": 8,
	"A": 9, "A#": 10, "Bb": 10,
	"B": 11, "Cb": 11, "B#": 0,
}

// sharpNames and flatNames give the semitone-to-note spelling per direction.
var (
	sharpNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
	flatNames  = [12]string{"C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab", "A", "Bb", "B"}
)

// Transpose returns a new Chord shifted by the given number of semitones.
// Spelling follows the original accidental: chords written with flats stay
// flat-spelled, everything else is sharp-spelled.
func (c *Chord) Transpose(semitones int) *Chord {
	useFlats := strings.Contains(c.Root, "b") || strings.Contains(c.Bass, "b")
	out := &Chord{
		Root:    transposeNote(c.Root, semitones, useFlats),
		Quality: c.Quality,
	}
	if c.Bass != "" {
		out.Bass = transposeNote(c.Bass, semitones, useFlats)
	}
	return out
}

func transposeNote(note string, semitones int, useFlats bool) string {
	idx, ok := noteIndex[note]
	if !ok {
		return note
	}
	idx = ((idx+semitones)%12 + 12) % 12
	if useFlats {
		return flatNames[idx]
	}
	return sharpNames[idx]
}
