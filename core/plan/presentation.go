// Package plan turns a normalized song into the two render plans consumed by
// downstream output layers: an ordered slide sequence for projection and a
// block layout for print sheets. Plans are derived, read-only views: building
// one never mutates the song, and identical song plus config always yields an
// identical plan.
package plan

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/strophe/strophe/core/errors"
	"github.com/strophe/strophe/core/song"
)

// SlideKind classifies what a slide shows.
type SlideKind string

// Slide kind constants.
const (
	SlideTitle  SlideKind = "title"
	SlideLyrics SlideKind = "lyrics"
	SlideEmpty  SlideKind = "empty"
)

// Slide is one unit of presentation output.
type Slide struct {
	// Kind classifies the slide.
	Kind SlideKind `json:"kind"`

	// Part is the part name for lyric slides.
	Part string `json:"part,omitempty"`

	// PartKind is the structural kind of the part.
	PartKind song.PartKind `json:"part_kind,omitempty"`

	// Lines is the lyric text shown on the slide. A zero-line part yields
	// one slide with an empty line list so it stays visible in sequence.
	Lines []string `json:"lines"`

	// IsRepeat is true when the part already produced slides earlier in
	// the plan.
	IsRepeat bool `json:"is_repeat,omitempty"`

	// Spoiler previews the first line of the next lyric slide.
	Spoiler string `json:"spoiler,omitempty"`

	// Meta carries rendered metadata text (title slide, or the first/last
	// lyric slide when configured).
	Meta string `json:"meta,omitempty"`
}

// SlidePlan is the full presentation for one song.
type SlidePlan struct {
	// Title is the song title.
	Title string `json:"title"`

	// Slides is the ordered slide sequence.
	Slides []Slide `json:"slides"`
}

// PresentationConfig controls slide pagination and decoration.
type PresentationConfig struct {
	// MaxLinesPerSlide bounds the lines on one slide. Must be positive.
	MaxLinesPerSlide int `json:"max_lines_per_slide"`

	// KeepPartTogether keeps a part that would need splitting on a single
	// oversized slide instead. Readability wins over the size bound.
	KeepPartTogether bool `json:"keep_part_together"`

	// ExpandRepeats turns a repeat count into separate slide groups per
	// repetition instead of a single pass.
	ExpandRepeats bool `json:"expand_repeats"`

	// ShowTitleSlide prepends a title slide.
	ShowTitleSlide bool `json:"show_title_slide"`

	// MetaTemplate renders metadata text (e.g. "{{.title}} ({{.author}})").
	// Empty means no meta text anywhere.
	MetaTemplate string `json:"meta_template,omitempty"`

	// MetaOnFirstSlide and MetaOnLastSlide attach the rendered meta text to
	// the first and last lyric slide.
	MetaOnFirstSlide bool `json:"meta_on_first_slide"`
	MetaOnLastSlide  bool `json:"meta_on_last_slide"`

	// EmptyLastSlide appends a trailing empty slide to close the show.
	EmptyLastSlide bool `json:"empty_last_slide"`

	// ShowSpoiler sets each lyric slide's Spoiler to the first line of the
	// next lyric slide.
	ShowSpoiler bool `json:"show_spoiler"`
}

// DefaultPresentationConfig returns the settings used when the caller does
// not override anything.
func DefaultPresentationConfig() PresentationConfig {
	return PresentationConfig{
		MaxLinesPerSlide: 4,
		ExpandRepeats:    true,
		ShowTitleSlide:   true,
		EmptyLastSlide:   true,
	}
}

// Presentation builds the slide plan for a song. It fails only on invalid
// configuration; valid but unusual songs (zero-line parts, single parts,
// empty songs) always plan cleanly.
func Presentation(s *song.Song, cfg PresentationConfig) (*SlidePlan, error) {
	if cfg.MaxLinesPerSlide <= 0 {
		return nil, errors.NewConfig("max_lines_per_slide",
			fmt.Sprintf("%d", cfg.MaxLinesPerSlide), "must be a positive integer")
	}
	metaText, err := renderMeta(s, cfg.MetaTemplate)
	if err != nil {
		return nil, err
	}

	p := &SlidePlan{Title: s.Title}
	if cfg.ShowTitleSlide {
		p.Slides = append(p.Slides, Slide{Kind: SlideTitle, Meta: metaText})
	}

	firstLyric, lastLyric := -1, -1
	seen := make(map[string]bool, len(s.Parts))
	for _, inst := range s.Order {
		def, ok := s.Definition(inst.Part)
		if !ok {
			// Validate reports this; the planner just skips it.
			continue
		}
		passes := 1
		if cfg.ExpandRepeats {
			passes = inst.Repeats()
		}
		partLines := def.Lines
		if len(inst.Override) > 0 {
			partLines = inst.Override
		}
		for pass := 0; pass < passes; pass++ {
			repeat := seen[def.Name]
			for _, chunk := range chunkLines(partLines, cfg) {
				slide := Slide{
					Kind:     SlideLyrics,
					Part:     def.Name,
					PartKind: def.Kind,
					Lines:    chunk,
					IsRepeat: repeat,
				}
				p.Slides = append(p.Slides, slide)
				if firstLyric < 0 {
					firstLyric = len(p.Slides) - 1
				}
				lastLyric = len(p.Slides) - 1
			}
			seen[def.Name] = true
		}
	}

	if metaText != "" {
		if cfg.MetaOnFirstSlide && firstLyric >= 0 {
			p.Slides[firstLyric].Meta = metaText
		}
		if cfg.MetaOnLastSlide && lastLyric >= 0 {
			p.Slides[lastLyric].Meta = metaText
		}
	}
	if cfg.ShowSpoiler {
		applySpoilers(p.Slides)
	}
	if cfg.EmptyLastSlide {
		p.Slides = append(p.Slides, Slide{Kind: SlideEmpty})
	}
	return p, nil
}

// chunkLines splits a part occurrence's lines into slide-sized chunks. Lines
// are never split internally. A zero-line part yields one chunk with an
// empty line list, and KeepPartTogether collapses everything onto one chunk.
func chunkLines(src []song.LyricLine, cfg PresentationConfig) [][]string {
	lines := make([]string, len(src))
	for i := range src {
		lines[i] = src[i].Text()
	}
	if len(lines) == 0 {
		return [][]string{{}}
	}
	if cfg.KeepPartTogether && len(lines) > cfg.MaxLinesPerSlide {
		return [][]string{lines}
	}
	var chunks [][]string
	for start := 0; start < len(lines); start += cfg.MaxLinesPerSlide {
		end := start + cfg.MaxLinesPerSlide
		if end > len(lines) {
			end = len(lines)
		}
		chunks = append(chunks, lines[start:end])
	}
	return chunks
}

// applySpoilers sets each lyric slide's spoiler to the first line of the
// next lyric slide that has one.
func applySpoilers(slides []Slide) {
	for i := range slides {
		if slides[i].Kind != SlideLyrics {
			continue
		}
		for j := i + 1; j < len(slides); j++ {
			if slides[j].Kind == SlideLyrics && len(slides[j].Lines) > 0 {
				slides[i].Spoiler = slides[j].Lines[0]
				break
			}
		}
	}
}

// renderMeta renders the meta template against the song's metadata tags plus
// the title. Missing keys render empty; a malformed template is a
// configuration error.
func renderMeta(s *song.Song, tmpl string) (string, error) {
	if tmpl == "" {
		return "", nil
	}
	t, err := template.New("meta").Option("missingkey=zero").Parse(tmpl)
	if err != nil {
		return "", errors.NewConfig("meta_template", tmpl, err.Error())
	}
	data := make(map[string]string, len(s.Meta.Tags)+1)
	for k, v := range s.Meta.Tags {
		data[k] = v
	}
	if s.Title != "" {
		data["title"] = s.Title
	}
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", errors.NewConfig("meta_template", tmpl, err.Error())
	}
	return strings.TrimSpace(sb.String()), nil
}
