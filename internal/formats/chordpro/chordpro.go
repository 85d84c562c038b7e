// Package chordpro provides the handler for ChordPro-style markup: inline
// [C]bracket chords inside lyric lines and {directive: value} lines for
// metadata and section structure.
package chordpro

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/strophe/strophe/core/song"
	"github.com/strophe/strophe/internal/formats/base"
	"github.com/strophe/strophe/internal/logging"
)

func init() {
	base.Register(&dialect{})
}

type dialect struct{}

func (d *dialect) Name() string { return "chordpro" }

// Detect accepts content with {directive} lines or inline bracket chords.
// A bracket alone is not enough since plain-text part markers use brackets
// too: the bracket has to sit inside a line with surrounding text, or its
// body has to parse as a chord symbol.
func (d *dialect) Detect(content []byte) base.DetectResult {
	text := base.NormalizeContent(content)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "{") && strings.HasSuffix(line, "}") {
			return base.DetectResult{Detected: true, Dialect: d.Name(), Reason: "brace directive found"}
		}
		if hasInlineChord(line) {
			return base.DetectResult{Detected: true, Dialect: d.Name(), Reason: "inline chord found"}
		}
	}
	return base.DetectResult{Dialect: d.Name(), Reason: "no chordpro markup found"}
}

func hasInlineChord(line string) bool {
	start := strings.Index(line, "[")
	if start < 0 {
		return false
	}
	end := strings.Index(line[start:], "]")
	if end < 0 {
		return false
	}
	body := line[start+1 : start+end]
	if !song.IsChordSymbol(body) {
		return false
	}
	// A line that is nothing but the bracket is a part marker, not a chord.
	return strings.TrimSpace(line) != line[start:start+end+1]
}

func (d *dialect) Parse(content []byte) (*song.Song, []song.Diagnostic) {
	p := newParser()
	lineNo := 0
	for _, raw := range strings.Split(base.NormalizeContent(content), "\n") {
		lineNo++
		p.line(lineNo, strings.TrimRight(raw, " \t"))
	}
	s, diags := p.finish()
	logging.ParseEvent(d.Name(), song.CountSeverity(diags, song.SeverityWarning), song.CountSeverity(diags, song.SeverityError))
	return s, diags
}

type parser struct {
	title string
	meta  song.Metadata
	diags []song.Diagnostic

	defs     []*song.PartDefinition
	defIndex map[string]*song.PartDefinition
	order    []song.PartInstance

	current  *song.PartDefinition
	explicit bool // current part was opened by a start_of directive
	verses   int
	choruses int
}

func newParser() *parser {
	return &parser{
		defIndex: make(map[string]*song.PartDefinition),
		meta:     song.Metadata{Tags: make(map[string]string)},
	}
}

func (p *parser) finish() (*song.Song, []song.Diagnostic) {
	return song.New(p.title, p.meta, p.defs, p.order), p.diags
}

// directive aliases per the ChordPro convention.
var directiveAliases = map[string]string{
	"t":   "title",
	"st":  "subtitle",
	"soc": "start_of_chorus",
	"eoc": "end_of_chorus",
	"sov": "start_of_verse",
	"eov": "end_of_verse",
	"sob": "start_of_bridge",
	"eob": "end_of_bridge",
	"c":   "comment",
}

func (p *parser) line(lineNo int, raw string) {
	trimmed := strings.TrimSpace(raw)
	switch {
	case trimmed == "":
		p.closeImplicit()
	case strings.HasPrefix(trimmed, "#"):
		// Hash lines are comments in ChordPro.
	case strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}"):
		p.directive(lineNo, trimmed[1:len(trimmed)-1])
	default:
		p.lyric(lineNo, trimmed)
	}
}

func (p *parser) directive(lineNo int, body string) {
	name, value := body, ""
	if idx := strings.Index(body, ":"); idx >= 0 {
		name, value = body[:idx], strings.TrimSpace(body[idx+1:])
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if full, ok := directiveAliases[name]; ok {
		name = full
	}

	switch name {
	case "title":
		p.title = value
		p.meta.Tags["title"] = value
	case "subtitle", "artist", "author", "composer":
		if p.meta.Author == "" {
			p.meta.Author = value
		}
		p.meta.Tags[name] = value
	case "key":
		p.meta.Key = value
		p.meta.Tags["key"] = value
	case "tempo":
		p.meta.Tempo = value
		p.meta.Tags["tempo"] = value
	case "language":
		p.meta.Language = value
		p.meta.Tags["language"] = value
	case "comment":
		// Comments do not enter the song model.

	case "start_of_chorus":
		p.open(lineNo, song.KindChorus, value)
	case "start_of_verse":
		p.open(lineNo, song.KindVerse, value)
	case "start_of_bridge":
		p.open(lineNo, song.KindBridge, value)
	case "end_of_chorus", "end_of_verse", "end_of_bridge":
		p.current = nil
		p.explicit = false

	case "chorus":
		if !p.replay(lineNo, song.KindChorus, value) {
			p.diags = append(p.diags, song.Errorf(lineNo,
				"chorus directive before any chorus was defined, dropped from the performance order"))
		}

	default:
		p.meta.Tags[name] = value
	}
}

// open starts an explicit part. A start_of directive can carry a label
// ("{start_of_verse: Verse 2}") which becomes the part name.
func (p *parser) open(lineNo int, kind song.PartKind, label string) {
	p.closeImplicit()
	name := label
	if name == "" {
		name = p.autoName(kind)
	}
	p.begin(lineNo, kind, name)
	p.explicit = true
}

func (p *parser) autoName(kind song.PartKind) string {
	switch kind {
	case song.KindChorus:
		p.choruses++
		if p.choruses == 1 {
			return "Chorus"
		}
		return fmt.Sprintf("Chorus %d", p.choruses)
	case song.KindBridge:
		return "Bridge"
	default:
		p.verses++
		return fmt.Sprintf("Verse %d", p.verses)
	}
}

// begin adds a definition (first-wins on duplicates) and one instance of it.
func (p *parser) begin(lineNo int, kind song.PartKind, name string) {
	key := strings.ToLower(name)
	if existing, ok := p.defIndex[key]; ok {
		p.diags = append(p.diags, song.Errorf(lineNo,
			"duplicate part definition %q, keeping the first (line %d)",
			name, existing.SourceLine))
		p.current = &song.PartDefinition{Name: name, Kind: kind, SourceLine: lineNo}
		p.order = append(p.order, song.PartInstance{Part: existing.Name, SourceLine: lineNo})
		return
	}
	def := &song.PartDefinition{Name: name, Kind: kind, SourceLine: lineNo}
	p.defs = append(p.defs, def)
	p.defIndex[key] = def
	p.order = append(p.order, song.PartInstance{Part: name, SourceLine: lineNo})
	p.current = def
}

// replay appends an instance of the first part of the given kind.
func (p *parser) replay(lineNo int, kind song.PartKind, label string) bool {
	if label != "" {
		if def, ok := p.defIndex[strings.ToLower(label)]; ok {
			p.order = append(p.order, song.PartInstance{Part: def.Name, SourceLine: lineNo})
			return true
		}
	}
	for _, def := range p.defs {
		if def.Kind == kind {
			p.order = append(p.order, song.PartInstance{Part: def.Name, SourceLine: lineNo})
			return true
		}
	}
	return false
}

// closeImplicit ends a blank-line delimited part. Explicit environments stay
// open across blank lines until their end_of directive.
func (p *parser) closeImplicit() {
	if !p.explicit {
		p.current = nil
	}
}

func (p *parser) lyric(lineNo int, text string) {
	if p.current == nil {
		p.begin(lineNo, song.KindVerse, p.autoName(song.KindVerse))
	}
	line, warns := splitInline(lineNo, text)
	p.diags = append(p.diags, warns...)
	p.current.Lines = append(p.current.Lines, line)
}

// splitInline converts "A[C]mazing [G]grace" into interleaved text and chord
// segments. Chord offsets count rendered runes, with the bracket markup
// removed.
func splitInline(lineNo int, text string) (song.LyricLine, []song.Diagnostic) {
	var warns []song.Diagnostic
	line := song.LyricLine{SourceLine: lineNo}

	offset := 0
	flushText := func(s string) {
		if s == "" {
			return
		}
		line.Segments = append(line.Segments, song.Segment{
			Type:   song.SegmentText,
			Text:   s,
			Offset: offset,
		})
		offset += utf8.RuneCountInString(s)
	}

	rest := text
	for {
		start := strings.Index(rest, "[")
		if start < 0 {
			flushText(rest)
			break
		}
		end := strings.Index(rest[start:], "]")
		if end < 0 {
			warns = append(warns, song.Warningf(lineNo,
				"unterminated chord bracket, treated as literal text"))
			flushText(rest)
			break
		}
		flushText(rest[:start])
		body := rest[start+1 : start+end]
		if song.IsChordSymbol(body) {
			line.Segments = append(line.Segments, song.Segment{
				Type:   song.SegmentChord,
				Chord:  body,
				Offset: offset,
			})
		} else {
			warns = append(warns, song.Warningf(lineNo,
				"bracket content %q is not a chord symbol, treated as literal text", body))
			flushText(rest[start : start+end+1])
		}
		rest = rest[start+end+1:]
	}

	return line, warns
}
