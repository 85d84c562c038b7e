package plan

import (
	"fmt"
	"strings"

	"github.com/strophe/strophe/core/errors"
	"github.com/strophe/strophe/core/song"
	"github.com/strophe/strophe/internal/formats/base"
)

// SheetRow is one aligned chord-over-lyric row of a sheet block.
type SheetRow struct {
	// Chords is the column-aligned chord row. Empty when the line carries
	// no chords.
	Chords string `json:"chords,omitempty"`

	// Lyrics is the rendered lyric text.
	Lyrics string `json:"lyrics"`
}

// SheetBlock is one unique part of the sheet with its aligned rows.
type SheetBlock struct {
	// Part is the part name shown as the block label.
	Part string `json:"part"`

	// PartKind is the structural kind of the part.
	PartKind song.PartKind `json:"part_kind"`

	// Rows is the aligned chord/lyric content.
	Rows []SheetRow `json:"rows"`

	// RepeatedAt lists the 1-indexed performance positions that play this
	// part again after its first occurrence. Repeats become this footnote
	// list, never duplicate blocks.
	RepeatedAt []int `json:"repeated_at,omitempty"`
}

// SheetPlan is the print-oriented rendering plan for one song: one block per
// part definition in definition order, shown once regardless of how often
// performance repeats it.
type SheetPlan struct {
	// Title is the song title.
	Title string `json:"title"`

	// Key is the song key after transposition.
	Key string `json:"key,omitempty"`

	// Blocks is the block sequence in definition order.
	Blocks []SheetBlock `json:"blocks"`
}

// SheetConfig controls sheet layout.
type SheetConfig struct {
	// TabWidth is the column width chord anchors expand back to. It has to
	// match the width the tokenizer expanded tabs with so sheet output
	// round-trips visually to the source alignment.
	TabWidth int `json:"tab_width"`

	// Transpose shifts every chord symbol by this many semitones.
	Transpose int `json:"transpose"`
}

// DefaultSheetConfig returns a config aligned with the tokenizer defaults.
func DefaultSheetConfig() SheetConfig {
	return SheetConfig{TabWidth: 8}
}

// Sheet builds the print plan for a song. Like the presentation planner it
// fails only on invalid configuration.
func Sheet(s *song.Song, cfg SheetConfig) (*SheetPlan, error) {
	if cfg.TabWidth <= 0 {
		return nil, errors.NewConfig("tab_width",
			fmt.Sprintf("%d", cfg.TabWidth), "must be a positive integer")
	}

	p := &SheetPlan{
		Title: s.Title,
		Key:   transposeSymbol(s.Meta.Key, cfg.Transpose),
	}

	repeats := repeatPositions(s)
	for _, name := range s.DefinitionOrder() {
		def, ok := s.Definition(name)
		if !ok {
			continue
		}
		block := SheetBlock{
			Part:       def.Name,
			PartKind:   def.Kind,
			RepeatedAt: repeats[def.Name],
		}
		for i := range def.Lines {
			block.Rows = append(block.Rows, buildRow(&def.Lines[i], cfg))
		}
		p.Blocks = append(p.Blocks, block)
	}

	// Occurrences with override text are variants, not repeats: each one
	// renders as its own block after the definitions instead of a footnote.
	pos := 0
	for _, inst := range s.Order {
		first := pos + 1
		pos += inst.Repeats()
		if len(inst.Override) == 0 {
			continue
		}
		def, ok := s.Definition(inst.Part)
		if !ok {
			continue
		}
		block := SheetBlock{
			Part:     fmt.Sprintf("%s (variant at %d)", def.Name, first),
			PartKind: def.Kind,
		}
		for i := range inst.Override {
			block.Rows = append(block.Rows, buildRow(&inst.Override[i], cfg))
		}
		p.Blocks = append(p.Blocks, block)
	}
	return p, nil
}

// repeatPositions maps each part name to the performance positions past its
// first occurrence, counting expanded repeat counts as positions too.
func repeatPositions(s *song.Song) map[string][]int {
	out := make(map[string][]int)
	seen := make(map[string]bool)
	pos := 0
	for _, inst := range s.Order {
		for rep := 0; rep < inst.Repeats(); rep++ {
			pos++
			// Variant occurrences get their own block, not a footnote.
			if seen[inst.Part] && len(inst.Override) == 0 {
				out[inst.Part] = append(out[inst.Part], pos)
			}
		}
		seen[inst.Part] = true
	}
	return out
}

// buildRow reconstructs one aligned chord/lyric row from a line's segments.
// Lyric text is tab-expanded at the configured width so rows read at the
// same columns the tokenizer measured. Every chord is placed at the column
// of its anchor offset; when two chords would collide, the later one shifts
// right by one space so no symbol is ever swallowed.
func buildRow(line *song.LyricLine, cfg SheetConfig) SheetRow {
	row := SheetRow{Lyrics: base.ExpandTabs(line.Text(), cfg.TabWidth)}

	chords := line.Chords()
	if len(chords) == 0 {
		return row
	}
	var sb strings.Builder
	col := 0
	for _, seg := range chords {
		target := seg.Offset
		if target < col {
			target = col + 1
		}
		sb.WriteString(strings.Repeat(" ", target-col))
		symbol := transposeSymbol(seg.Chord, cfg.Transpose)
		sb.WriteString(symbol)
		col = target + len(symbol)
	}
	row.Chords = sb.String()
	return row
}

// transposeSymbol shifts a chord symbol, leaving anything that does not
// parse as a chord untouched.
func transposeSymbol(symbol string, semitones int) string {
	if symbol == "" || semitones == 0 {
		return symbol
	}
	c, err := song.ParseChord(symbol)
	if err != nil {
		return symbol
	}
	return c.Transpose(semitones).String()
}
