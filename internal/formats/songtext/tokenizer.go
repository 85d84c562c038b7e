// Package songtext provides the handler for the classic plain-text song
// dialect: blank-line separated blocks, optional part markers, #key: value
// metadata lines, and chord lines above lyric lines.
package songtext

import (
	"strings"

	"github.com/strophe/strophe/core/song"
	"github.com/strophe/strophe/internal/formats/base"
)

// TabWidth is the fixed column width tabs are expanded to before
// chord-alignment detection. Chord anchors are resolved back to columns with
// the same value by the sheet planner.
const TabWidth = 8

// TokenType represents the type of an input line.
type TokenType string

// Token type constants.
const (
	TokenMarker    TokenType = "marker"
	TokenChordLine TokenType = "chords"
	TokenLyricLine TokenType = "lyrics"
	TokenDirective TokenType = "directive"
	TokenBlank     TokenType = "blank"
)

// Token is one classified input line. Line numbers are 1-indexed and carried
// through to diagnostics.
type Token struct {
	// Type is the line classification.
	Type TokenType

	// Line is the 1-indexed source line number.
	Line int

	// Text is the trimmed line text (lyric lines).
	Text string

	// Raw is the tab-expanded line with trailing whitespace removed but
	// leading columns intact. Chord alignment reads columns from Raw.
	Raw string

	// Kind and Name are set for marker tokens.
	Kind song.PartKind
	Name string

	// Key and Value are set for directive tokens. Metadata lines carry their
	// lowercased tag as Key; control directives carry "repeat" or "goto";
	// unrecognized marker syntax is downgraded to Key "unrecognized".
	Key   string
	Value string
}

// control words that start a flow directive line.
var controlWords = map[string]string{
	"repeat": "repeat",
	"goto":   "goto",
	"go":     "goto", // "go to verse 1"
}

// Tokenize splits raw song text into a flat sequence of classified lines.
// It never fails: malformed input degrades to lyric tokens, and unrecognized
// marker syntax is downgraded to a directive token the parser reports as a
// warning. Splitting works on the whole normalized buffer, so no line length
// limit can truncate the input.
func Tokenize(raw string) []Token {
	lines := strings.Split(base.NormalizeContent([]byte(raw)), "\n")
	// A trailing newline terminates the last line rather than opening a new
	// blank one.
	if n := len(lines); n > 1 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	tokens := make([]Token, 0, len(lines))
	for i, line := range lines {
		expanded := base.ExpandTabs(line, TabWidth)
		rawLine := strings.TrimRight(expanded, " ")
		trimmed := strings.TrimSpace(rawLine)

		tokens = append(tokens, classify(i+1, rawLine, trimmed))
	}
	return tokens
}

func classify(lineNo int, rawLine, trimmed string) Token {
	tok := Token{Line: lineNo, Text: trimmed, Raw: rawLine}

	switch {
	case trimmed == "":
		tok.Type = TokenBlank

	case strings.HasPrefix(trimmed, "#"):
		// Metadata line: "#key: value". A hash line without a colon is not
		// metadata we understand, so it degrades to an unrecognized directive.
		key, value, ok := splitMetadata(trimmed)
		tok.Type = TokenDirective
		if ok {
			tok.Key, tok.Value = key, value
		} else {
			tok.Key, tok.Value = "unrecognized", trimmed
		}

	case strings.HasPrefix(trimmed, "["):
		// Bracket marker: "[Verse 1]". An unterminated bracket is
		// unrecognized marker syntax.
		end := strings.Index(trimmed, "]")
		if end < 0 || strings.TrimSpace(trimmed[1:end]) == "" {
			tok.Type = TokenDirective
			tok.Key, tok.Value = "unrecognized", trimmed
			break
		}
		name := strings.TrimSpace(trimmed[1:end])
		tok.Type = TokenMarker
		tok.Name = name
		tok.Kind = song.KindFromString(firstField(name))

	case isColonMarker(trimmed):
		name := strings.TrimSpace(strings.TrimSuffix(trimmed, ":"))
		tok.Type = TokenMarker
		tok.Name = name
		tok.Kind = song.KindFromString(firstField(name))

	case isControlDirective(trimmed):
		key, value := splitControl(trimmed)
		tok.Type = TokenDirective
		tok.Key, tok.Value = key, value

	case isChordLine(trimmed):
		tok.Type = TokenChordLine

	default:
		tok.Type = TokenLyricLine
	}

	return tok
}

// splitMetadata parses "#key: value" into a lowercased key and trimmed value.
func splitMetadata(line string) (key, value string, ok bool) {
	body := strings.TrimPrefix(line, "#")
	idx := strings.Index(body, ":")
	if idx <= 0 {
		return "", "", false
	}
	key = strings.ToLower(strings.TrimSpace(body[:idx]))
	value = strings.TrimSpace(body[idx+1:])
	if key == "" || strings.ContainsAny(key, " \t") {
		return "", "", false
	}
	return key, value, true
}

// isColonMarker reports whether the line is a part header of the form
// "Verse 1:" or "Chorus:". The word before the colon must be a known part
// kind so ordinary lyric lines ending in a colon stay lyrics.
func isColonMarker(trimmed string) bool {
	if !strings.HasSuffix(trimmed, ":") {
		return false
	}
	name := strings.TrimSpace(strings.TrimSuffix(trimmed, ":"))
	if name == "" || strings.Contains(name, ":") {
		return false
	}
	fields := strings.Fields(name)
	if len(fields) > 3 {
		return false
	}
	return song.KindFromString(fields[0]) != song.KindOther ||
		strings.EqualFold(fields[0], "part")
}

// isControlDirective reports whether the line is a flow directive like
// "repeat chorus", "(repeat chorus x2)" or "go to verse 1".
func isControlDirective(trimmed string) bool {
	body := stripParens(trimmed)
	fields := strings.Fields(strings.ToLower(body))
	if len(fields) < 2 {
		return false
	}
	_, ok := controlWords[fields[0]]
	return ok
}

func splitControl(trimmed string) (key, value string) {
	body := stripParens(trimmed)
	fields := strings.Fields(body)
	key = controlWords[strings.ToLower(fields[0])]
	rest := fields[1:]
	// "go to verse 1" keeps "to" out of the reference.
	if key == "goto" && len(rest) > 0 && strings.EqualFold(rest[0], "to") {
		rest = rest[1:]
	}
	return key, strings.Join(rest, " ")
}

func stripParens(s string) string {
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		return strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

// isChordLine reports whether every whitespace-separated token on the line
// parses as a chord symbol. A single token is enough; empty lines never
// reach here.
func isChordLine(trimmed string) bool {
	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return false
	}
	for _, f := range fields {
		if !song.IsChordSymbol(f) {
			return false
		}
	}
	return true
}

func firstField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
