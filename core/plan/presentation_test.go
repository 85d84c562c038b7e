package plan

import (
	"reflect"
	"testing"

	"github.com/strophe/strophe/core/errors"
	"github.com/strophe/strophe/core/song"
)

func twoPartSong() *song.Song {
	return song.New("Test Song",
		song.Metadata{Author: "J. Doe", Tags: map[string]string{"author": "J. Doe"}},
		[]*song.PartDefinition{
			{Name: "Verse 1", Kind: song.KindVerse, Lines: []song.LyricLine{
				song.TextLine("line1", 1),
				song.TextLine("line2", 2),
			}},
			{Name: "Chorus", Kind: song.KindChorus, Lines: []song.LyricLine{
				song.TextLine("chorus line", 4),
			}},
		},
		[]song.PartInstance{
			{Part: "Verse 1"},
			{Part: "Chorus"},
			{Part: "Verse 1"},
			{Part: "Chorus"},
		})
}

func bareConfig(max int) PresentationConfig {
	return PresentationConfig{MaxLinesPerSlide: max, ExpandRepeats: true}
}

func TestPresentationRepeatTagging(t *testing.T) {
	s := twoPartSong()
	p, err := Presentation(s, bareConfig(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Slides) != 4 {
		t.Fatalf("got %d slides, want 4", len(p.Slides))
	}
	wantRepeat := []bool{false, false, true, true}
	for i, slide := range p.Slides {
		if slide.Kind != SlideLyrics {
			t.Errorf("slide %d kind = %q", i, slide.Kind)
		}
		if slide.IsRepeat != wantRepeat[i] {
			t.Errorf("slide %d IsRepeat = %v, want %v", i, slide.IsRepeat, wantRepeat[i])
		}
	}
}

func TestPresentationInvalidConfig(t *testing.T) {
	s := twoPartSong()
	_, err := Presentation(s, bareConfig(0))
	if err == nil {
		t.Fatal("expected a config error for max_lines_per_slide=0")
	}
	var cfgErr *errors.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error type = %T", err)
	}
	if !errors.Is(err, errors.ErrInvalidInput) {
		t.Error("config error does not unwrap to ErrInvalidInput")
	}

	// The song stays usable after the failed call.
	if p, err := Presentation(s, bareConfig(2)); err != nil || len(p.Slides) != 4 {
		t.Errorf("song unusable after config error: %v", err)
	}
}

func TestPresentationIdempotence(t *testing.T) {
	s := twoPartSong()
	cfg := DefaultPresentationConfig()
	cfg.MetaTemplate = "{{.title}} ({{.author}})"
	cfg.MetaOnLastSlide = true
	cfg.ShowSpoiler = true

	first, err := Presentation(s, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Presentation(s, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("two plans from identical inputs differ")
	}
}

func TestPresentationZeroLinePart(t *testing.T) {
	s := song.New("Instrumental", song.Metadata{},
		[]*song.PartDefinition{{Name: "Solo", Kind: song.KindOther}},
		[]song.PartInstance{{Part: "Solo"}})
	p, err := Presentation(s, bareConfig(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Slides) != 1 {
		t.Fatalf("got %d slides, want 1", len(p.Slides))
	}
	slide := p.Slides[0]
	if slide.Part != "Solo" || len(slide.Lines) != 0 {
		t.Errorf("slide = %+v", slide)
	}
}

func TestPresentationChunking(t *testing.T) {
	lines := []song.LyricLine{
		song.TextLine("a", 1), song.TextLine("b", 2),
		song.TextLine("c", 3), song.TextLine("d", 4), song.TextLine("e", 5),
	}
	s := song.New("T", song.Metadata{},
		[]*song.PartDefinition{{Name: "Verse 1", Kind: song.KindVerse, Lines: lines}},
		[]song.PartInstance{{Part: "Verse 1"}})

	tests := []struct {
		name       string
		cfg        PresentationConfig
		wantSlides int
		wantFirst  []string
	}{
		{
			name:       "split at limit",
			cfg:        bareConfig(2),
			wantSlides: 3,
			wantFirst:  []string{"a", "b"},
		},
		{
			name: "keep part together overrides the limit",
			cfg: PresentationConfig{
				MaxLinesPerSlide: 2,
				KeepPartTogether: true,
				ExpandRepeats:    true,
			},
			wantSlides: 1,
			wantFirst:  []string{"a", "b", "c", "d", "e"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Presentation(s, tt.cfg)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(p.Slides) != tt.wantSlides {
				t.Fatalf("got %d slides, want %d", len(p.Slides), tt.wantSlides)
			}
			if !reflect.DeepEqual(p.Slides[0].Lines, tt.wantFirst) {
				t.Errorf("first slide lines = %v, want %v", p.Slides[0].Lines, tt.wantFirst)
			}
		})
	}
}

func TestPresentationRepeatCountExpansion(t *testing.T) {
	s := song.New("T", song.Metadata{},
		[]*song.PartDefinition{{Name: "Chorus", Kind: song.KindChorus, Lines: []song.LyricLine{
			song.TextLine("again", 1),
		}}},
		[]song.PartInstance{{Part: "Chorus", Repeat: 3}})

	p, err := Presentation(s, bareConfig(4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Slides) != 3 {
		t.Fatalf("got %d slides, want 3", len(p.Slides))
	}
	if p.Slides[0].IsRepeat || !p.Slides[1].IsRepeat || !p.Slides[2].IsRepeat {
		t.Errorf("repeat tags = %v %v %v",
			p.Slides[0].IsRepeat, p.Slides[1].IsRepeat, p.Slides[2].IsRepeat)
	}

	// Without expansion the repeat count collapses to one pass.
	cfg := bareConfig(4)
	cfg.ExpandRepeats = false
	p, err = Presentation(s, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Slides) != 1 {
		t.Errorf("got %d slides without expansion, want 1", len(p.Slides))
	}
}

func TestPresentationTitleAndClosingSlides(t *testing.T) {
	s := twoPartSong()
	cfg := DefaultPresentationConfig()
	cfg.MaxLinesPerSlide = 2
	cfg.MetaTemplate = "{{.title}} ({{.author}})"

	p, err := Presentation(s, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Slides[0].Kind != SlideTitle {
		t.Errorf("first slide kind = %q", p.Slides[0].Kind)
	}
	if p.Slides[0].Meta != "Test Song (J. Doe)" {
		t.Errorf("title meta = %q", p.Slides[0].Meta)
	}
	last := p.Slides[len(p.Slides)-1]
	if last.Kind != SlideEmpty {
		t.Errorf("last slide kind = %q", last.Kind)
	}
}

func TestPresentationMetaPlacement(t *testing.T) {
	s := twoPartSong()
	cfg := bareConfig(2)
	cfg.MetaTemplate = "{{.author}}"
	cfg.MetaOnFirstSlide = true
	cfg.MetaOnLastSlide = true

	p, err := Presentation(s, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Slides[0].Meta != "J. Doe" {
		t.Errorf("first lyric slide meta = %q", p.Slides[0].Meta)
	}
	if p.Slides[len(p.Slides)-1].Meta != "J. Doe" {
		t.Errorf("last lyric slide meta = %q", p.Slides[len(p.Slides)-1].Meta)
	}
	for _, mid := range p.Slides[1 : len(p.Slides)-1] {
		if mid.Meta != "" {
			t.Errorf("middle slide carries meta %q", mid.Meta)
		}
	}
}

func TestPresentationMetaTemplateError(t *testing.T) {
	s := twoPartSong()
	cfg := bareConfig(2)
	cfg.MetaTemplate = "{{.title"
	if _, err := Presentation(s, cfg); err == nil {
		t.Fatal("expected a config error for the malformed template")
	}
}

func TestPresentationSpoiler(t *testing.T) {
	s := twoPartSong()
	cfg := bareConfig(2)
	cfg.ShowSpoiler = true

	p, err := Presentation(s, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Slides[0].Spoiler != "chorus line" {
		t.Errorf("slide 0 spoiler = %q", p.Slides[0].Spoiler)
	}
	if p.Slides[len(p.Slides)-1].Spoiler != "" {
		t.Error("final slide has a spoiler")
	}
}

func TestPresentationEmptySong(t *testing.T) {
	s := song.New("", song.Metadata{}, nil, nil)
	p, err := Presentation(s, bareConfig(4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Slides) != 0 {
		t.Errorf("empty song produced %d slides", len(p.Slides))
	}
}

func TestPresentationOverrideLines(t *testing.T) {
	s := song.New("Variant Song", song.Metadata{},
		[]*song.PartDefinition{
			{Name: "Verse 1", Kind: song.KindVerse, Lines: []song.LyricLine{
				song.TextLine("original line", 1),
			}},
		},
		[]song.PartInstance{
			{Part: "Verse 1"},
			{Part: "Verse 1", Override: []song.LyricLine{
				song.TextLine("variant line", 0),
			}},
		})
	p, err := Presentation(s, bareConfig(4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Slides) != 2 {
		t.Fatalf("got %d slides, want 2", len(p.Slides))
	}
	if got := p.Slides[0].Lines[0]; got != "original line" {
		t.Errorf("first slide line = %q, want original text", got)
	}
	if got := p.Slides[1].Lines[0]; got != "variant line" {
		t.Errorf("override slide line = %q, want override text", got)
	}
	if !p.Slides[1].IsRepeat {
		t.Error("override occurrence of a seen part should still be a repeat")
	}
}
