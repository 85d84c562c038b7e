package main

import (
	"strings"
	"testing"

	"github.com/strophe/strophe/core/plan"
	"github.com/strophe/strophe/core/song"
)

func TestRenderSlidesText(t *testing.T) {
	p := &plan.SlidePlan{
		Title: "Morning Light",
		Slides: []plan.Slide{
			{Kind: plan.SlideTitle, Meta: "Morning Light (J. Doe)"},
			{Kind: plan.SlideLyrics, Part: "Verse 1", Lines: []string{"line one", "line two"}},
			{Kind: plan.SlideLyrics, Part: "Chorus", Lines: []string{"sing"}, IsRepeat: true},
			{Kind: plan.SlideEmpty},
		},
	}
	out := renderSlidesText(p)
	for _, want := range []string{
		"slide 1: Morning Light",
		"Morning Light (J. Doe)",
		"slide 2: Verse 1",
		"line one",
		"Chorus (repeat)",
		"(blank)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderSheetText(t *testing.T) {
	p := &plan.SheetPlan{
		Title: "Aligned",
		Key:   "G",
		Blocks: []plan.SheetBlock{
			{
				Part:     "Verse 1",
				PartKind: song.KindVerse,
				Rows: []plan.SheetRow{
					{Chords: "C       G", Lyrics: "Amazing grace"},
					{Lyrics: "no chords on this line"},
				},
				RepeatedAt: []int{3},
			},
		},
	}
	out := renderSheetText(p)
	for _, want := range []string{
		"Aligned",
		"Key: G",
		"[Verse 1]",
		"C       G\nAmazing grace",
		"(also played at position 3)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\n\nno chords") {
		t.Error("chordless row should not get an empty chord line")
	}
}
