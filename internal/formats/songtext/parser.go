package songtext

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/strophe/strophe/core/song"
)

// ChordAlignTolerance is the number of columns a chord anchor may overshoot
// the end of its lyric line before the clamp produces a warning. The exact
// threshold is a heuristic; it is exposed here rather than buried in the
// pairing code so callers reading diagnostics can reason about it.
const ChordAlignTolerance = 2

// implicitPartName is the name given to content preceding the first marker.
const implicitPartName = "Intro"

// metadata tags that map onto typed Song fields.
const (
	tagTitle    = "title"
	tagAuthor   = "author"
	tagLanguage = "language"
	tagKey      = "key"
	tagTempo    = "tempo"
)

// Parse consumes a token stream and builds a normalized Song. It never
// aborts: malformed structure degrades with diagnostics and the best-effort
// Song is always returned.
//
// Files that contain part markers are parsed in marked mode: each marker
// starts a part definition and appends one instance at its position, and
// repeat/goto directives append further instances. Files without any marker
// fall back to classic mode: blank-line separated blocks become parts, and a
// block repeating an earlier block's text becomes a repeat instance of that
// part, upgrading it to a chorus.
func Parse(tokens []Token) (*song.Song, []song.Diagnostic) {
	p := &parser{defIndex: make(map[string]*song.PartDefinition)}

	marked := false
	for _, tok := range tokens {
		if tok.Type == TokenMarker {
			marked = true
			break
		}
	}

	if marked {
		p.parseMarked(tokens)
	} else {
		p.parseClassic(tokens)
	}

	p.resolvePending()
	p.warnUnused()

	s := song.New(p.title, p.meta, p.defs, p.order)
	return s, p.diags
}

// pending is one entry of the performance order before reference resolution.
// Either inst is final (ref nil), or ref awaits resolution in pass two.
type pending struct {
	inst song.PartInstance
	ref  *PartRef
	verb string // directive verb for diagnostics ("repeat", "goto")
	line int
}

type parser struct {
	title string
	meta  song.Metadata
	diags []song.Diagnostic

	defs     []*song.PartDefinition
	defIndex map[string]*song.PartDefinition // keyed by lowercase name
	queue    []pending
	order    []song.PartInstance
}

// defined appends a new part definition, enforcing first-wins on duplicate
// names. It returns the definition content should be added to, which is the
// original on duplicates, plus whether the name was a duplicate.
func (p *parser) define(def *song.PartDefinition) (*song.PartDefinition, bool) {
	key := strings.ToLower(def.Name)
	if existing, ok := p.defIndex[key]; ok {
		p.diags = append(p.diags, song.Errorf(def.SourceLine,
			"duplicate part definition %q, keeping the first (line %d)",
			def.Name, existing.SourceLine))
		return existing, true
	}
	p.defs = append(p.defs, def)
	p.defIndex[key] = def
	return def, false
}

func (p *parser) instance(name string, repeat, line int) {
	p.queue = append(p.queue, pending{
		inst: song.PartInstance{Part: name, Repeat: repeat, SourceLine: line},
	})
}

func (p *parser) reference(verb, value string, line int) {
	ref, err := ParsePartRef(value)
	if err != nil {
		p.diags = append(p.diags, song.Errorf(line,
			"%s directive has no usable part reference: %v", verb, err))
		return
	}
	p.queue = append(p.queue, pending{ref: ref, verb: verb, line: line})
}

func (p *parser) metadata(key, value string, line int) {
	switch key {
	case tagTitle:
		p.title = value
	case tagAuthor:
		p.meta.Author = value
	case tagLanguage:
		p.meta.Language = value
	case tagKey:
		p.meta.Key = value
	case tagTempo:
		p.meta.Tempo = value
	}
	if p.meta.Tags == nil {
		p.meta.Tags = make(map[string]string)
	}
	if _, exists := p.meta.Tags[key]; exists {
		p.diags = append(p.diags, song.Warningf(line,
			"metadata tag %q set more than once, keeping the last value", key))
	}
	p.meta.Tags[key] = value
}

func (p *parser) directive(tok Token) {
	switch tok.Key {
	case "repeat", "goto":
		p.reference(tok.Key, tok.Value, tok.Line)
	case "unrecognized":
		p.diags = append(p.diags, song.Warningf(tok.Line,
			"unrecognized marker syntax %q ignored", tok.Value))
	default:
		p.metadata(tok.Key, tok.Value, tok.Line)
	}
}

// parseMarked handles files with explicit part markers.
func (p *parser) parseMarked(tokens []Token) {
	var current *song.PartDefinition
	var chordTok *Token

	flushChords := func() {
		if chordTok == nil {
			return
		}
		line := chordsOnlyLine(*chordTok)
		current = p.ensureCurrent(current, chordTok.Line)
		current.Lines = append(current.Lines, line)
		chordTok = nil
	}

	for i := range tokens {
		tok := tokens[i]
		switch tok.Type {
		case TokenBlank:
			flushChords()

		case TokenDirective:
			flushChords()
			p.directive(tok)

		case TokenMarker:
			flushChords()
			def := &song.PartDefinition{Name: tok.Name, Kind: tok.Kind, SourceLine: tok.Line}
			kept, dup := p.define(def)
			if dup {
				// Content under a duplicate marker is discarded; the marker
				// still marks one performance of the first definition.
				current = &song.PartDefinition{Name: tok.Name, Kind: tok.Kind, SourceLine: tok.Line}
			} else {
				current = kept
			}
			p.instance(kept.Name, 0, tok.Line)

		case TokenChordLine:
			flushChords()
			chordTok = &tokens[i]

		case TokenLyricLine:
			current = p.ensureCurrent(current, tok.Line)
			if chordTok != nil {
				merged, warns := pairChordLyric(*chordTok, tok)
				p.diags = append(p.diags, warns...)
				current.Lines = append(current.Lines, merged)
				chordTok = nil
			} else {
				current.Lines = append(current.Lines, song.TextLine(tok.Text, tok.Line))
			}
		}
	}
	flushChords()
}

// ensureCurrent lazily creates the implicit leading part for content that
// appears before the first marker.
func (p *parser) ensureCurrent(current *song.PartDefinition, line int) *song.PartDefinition {
	if current != nil {
		return current
	}
	def := &song.PartDefinition{Name: implicitPartName, Kind: song.KindOther, SourceLine: line}
	kept, _ := p.define(def)
	p.instance(kept.Name, 0, line)
	return kept
}

// classicBlock is one blank-line separated block in marker-less input.
type classicBlock struct {
	lines []song.LyricLine
	first int // source line of the first content line
	queue int // index in p.queue of this block's placeholder instance
}

// parseClassic handles marker-less files in the classic format: every block
// is a part, and a block whose text repeats an earlier block becomes a
// repeat of that part (which is thereby recognized as the chorus).
func (p *parser) parseClassic(tokens []Token) {
	var blocks []*classicBlock
	var cur *classicBlock
	var chordTok *Token

	flushChords := func() {
		if chordTok == nil {
			return
		}
		if cur == nil {
			cur = &classicBlock{first: chordTok.Line}
		}
		cur.lines = append(cur.lines, chordsOnlyLine(*chordTok))
		chordTok = nil
	}
	endBlock := func() {
		flushChords()
		if cur == nil {
			return
		}
		// Placeholder instance; the part name is assigned once all blocks
		// are known and choruses are identified.
		cur.queue = len(p.queue)
		p.queue = append(p.queue, pending{})
		blocks = append(blocks, cur)
		cur = nil
	}

	for i := range tokens {
		tok := tokens[i]
		switch tok.Type {
		case TokenBlank:
			endBlock()

		case TokenDirective:
			endBlock()
			p.directive(tok)

		case TokenChordLine:
			flushChords()
			chordTok = &tokens[i]

		case TokenLyricLine:
			if chordTok != nil {
				merged, warns := pairChordLyric(*chordTok, tok)
				p.diags = append(p.diags, warns...)
				if cur == nil {
					cur = &classicBlock{first: chordTok.Line}
				}
				cur.lines = append(cur.lines, merged)
				chordTok = nil
			} else {
				if cur == nil {
					cur = &classicBlock{first: tok.Line}
				}
				cur.lines = append(cur.lines, song.TextLine(tok.Text, tok.Line))
			}
		}
	}
	endBlock()

	p.nameClassicBlocks(blocks)
}

// nameClassicBlocks assigns kinds and names to classic blocks. A block text
// that occurs more than once makes its first occurrence a chorus; later
// occurrences reference it instead of duplicating content.
func (p *parser) nameClassicBlocks(blocks []*classicBlock) {
	counts := make(map[string]int, len(blocks))
	for _, b := range blocks {
		counts[song.LinesHash(b.lines)]++
	}

	firstByHash := make(map[string]*song.PartDefinition, len(blocks))
	verses, choruses := 0, 0

	for _, b := range blocks {
		hash := song.LinesHash(b.lines)
		if def, ok := firstByHash[hash]; ok {
			p.queue[b.queue] = pending{
				inst: song.PartInstance{Part: def.Name, SourceLine: b.first},
			}
			continue
		}

		var def *song.PartDefinition
		if counts[hash] > 1 {
			choruses++
			name := "Chorus"
			if choruses > 1 {
				name = fmt.Sprintf("Chorus %d", choruses)
			}
			def = &song.PartDefinition{Name: name, Kind: song.KindChorus, SourceLine: b.first}
		} else {
			verses++
			def = &song.PartDefinition{
				Name:       fmt.Sprintf("Verse %d", verses),
				Kind:       song.KindVerse,
				SourceLine: b.first,
			}
		}
		def.Lines = b.lines
		kept, _ := p.define(def)
		firstByHash[hash] = kept
		p.queue[b.queue] = pending{
			inst: song.PartInstance{Part: kept.Name, SourceLine: b.first},
		}
	}
}

// resolvePending is the second pass: directive references are resolved
// against the collected definitions, which makes forward references work.
// An unresolvable reference is dropped from the instance sequence with an
// error diagnostic; the parse still succeeds.
func (p *parser) resolvePending() {
	for _, pend := range p.queue {
		if pend.ref == nil {
			if pend.inst.Part != "" {
				p.order = append(p.order, pend.inst)
			}
			continue
		}
		def := p.lookupRef(pend.ref)
		if def == nil {
			p.diags = append(p.diags, song.Errorf(pend.line,
				"%s directive references undefined part %q, dropped from the performance order",
				pend.verb, pend.ref.Name))
			continue
		}
		repeat := 0
		if pend.ref.Times > 1 {
			repeat = pend.ref.Times
		}
		p.order = append(p.order, song.PartInstance{
			Part:       def.Name,
			Repeat:     repeat,
			SourceLine: pend.line,
		})
	}
}

// lookupRef finds the definition a directive reference means: an exact
// case-insensitive name match first, then the unique part of the referenced
// kind ("repeat chorus" finds the one part of kind chorus whatever its name).
func (p *parser) lookupRef(ref *PartRef) *song.PartDefinition {
	if def, ok := p.defIndex[strings.ToLower(ref.Name)]; ok {
		return def
	}
	kind := song.KindFromString(ref.Name)
	if kind == song.KindOther {
		return nil
	}
	var match *song.PartDefinition
	for _, def := range p.defs {
		if def.Kind != kind {
			continue
		}
		if match != nil {
			return nil // ambiguous
		}
		match = def
	}
	return match
}

func (p *parser) warnUnused() {
	used := make(map[string]bool, len(p.order))
	for _, inst := range p.order {
		used[inst.Part] = true
	}
	for _, def := range p.defs {
		if !used[def.Name] {
			p.diags = append(p.diags, song.Warningf(def.SourceLine,
				"part %q is defined but never used", def.Name))
		}
	}
}

// chordsOnlyLine converts an unpaired chord line into a zero-text lyric line
// whose chord anchors keep their original columns.
func chordsOnlyLine(tok Token) song.LyricLine {
	line := song.LyricLine{SourceLine: tok.Line}
	for _, c := range chordColumns(tok.Raw) {
		line.Segments = append(line.Segments, song.Segment{
			Type:   song.SegmentChord,
			Chord:  c.symbol,
			Offset: c.col,
		})
	}
	return line
}

type chordAt struct {
	symbol string
	col    int
}

// chordColumns extracts the chord symbols of a tab-expanded chord line with
// the column each one starts at.
func chordColumns(raw string) []chordAt {
	var out []chordAt
	col := 0
	start := -1
	var sb strings.Builder
	flush := func() {
		if start >= 0 {
			out = append(out, chordAt{symbol: sb.String(), col: start})
			sb.Reset()
			start = -1
		}
	}
	for _, r := range raw {
		if r == ' ' {
			flush()
		} else {
			if start < 0 {
				start = col
			}
			sb.WriteRune(r)
		}
		col++
	}
	flush()
	return out
}

// pairChordLyric merges a chord line with the lyric line directly beneath it
// into one LyricLine whose chord segments are anchored at the column offsets
// where the chord symbols begin, adjusted for the lyric line's indentation.
// Anchors past the end of the lyric clamp to the line end; an overshoot
// beyond ChordAlignTolerance columns is reported as an alignment warning.
func pairChordLyric(chordTok, lyricTok Token) (song.LyricLine, []song.Diagnostic) {
	var warns []song.Diagnostic

	text := lyricTok.Text
	indent := len(lyricTok.Raw) - len(strings.TrimLeft(lyricTok.Raw, " "))
	textLen := utf8.RuneCountInString(text)

	type anchor struct {
		chord  string
		offset int
	}
	var anchors []anchor
	for _, c := range chordColumns(chordTok.Raw) {
		offset := c.col - indent
		if offset < 0 {
			offset = 0
		}
		if offset > textLen {
			if offset-textLen > ChordAlignTolerance {
				warns = append(warns, song.Warningf(chordTok.Line,
					"chord %q at column %d reaches past the lyric line below, anchored at its end",
					c.symbol, c.col))
			}
			offset = textLen
		}
		anchors = append(anchors, anchor{chord: c.symbol, offset: offset})
	}

	line := song.LyricLine{SourceLine: lyricTok.Line}
	runes := []rune(text)
	pos := 0
	emitText := func(upto int) {
		if upto > pos {
			line.Segments = append(line.Segments, song.Segment{
				Type:   song.SegmentText,
				Text:   string(runes[pos:upto]),
				Offset: pos,
			})
			pos = upto
		}
	}
	for _, a := range anchors {
		emitText(a.offset)
		line.Segments = append(line.Segments, song.Segment{
			Type:   song.SegmentChord,
			Chord:  a.chord,
			Offset: a.offset,
		})
	}
	emitText(textLen)

	return line, warns
}
