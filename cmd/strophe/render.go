package main

import (
	"fmt"
	"strings"

	"github.com/strophe/strophe/core/plan"
)

// renderSlidesText formats a slide plan for terminal preview.
func renderSlidesText(p *plan.SlidePlan) string {
	var sb strings.Builder
	for i, slide := range p.Slides {
		switch slide.Kind {
		case plan.SlideTitle:
			fmt.Fprintf(&sb, "--- slide %d: %s ---\n", i+1, p.Title)
			if slide.Meta != "" {
				fmt.Fprintln(&sb, slide.Meta)
			}
		case plan.SlideEmpty:
			fmt.Fprintf(&sb, "--- slide %d: (blank) ---\n", i+1)
		default:
			label := slide.Part
			if slide.IsRepeat {
				label += " (repeat)"
			}
			fmt.Fprintf(&sb, "--- slide %d: %s ---\n", i+1, label)
			for _, line := range slide.Lines {
				fmt.Fprintln(&sb, line)
			}
			if slide.Meta != "" {
				fmt.Fprintln(&sb, slide.Meta)
			}
			if slide.Spoiler != "" {
				fmt.Fprintf(&sb, "> %s\n", slide.Spoiler)
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// renderSheetText formats a sheet plan with chords aligned above lyrics.
func renderSheetText(p *plan.SheetPlan) string {
	var sb strings.Builder
	if p.Title != "" {
		fmt.Fprintln(&sb, p.Title)
		if p.Key != "" {
			fmt.Fprintf(&sb, "Key: %s\n", p.Key)
		}
		sb.WriteByte('\n')
	}
	for _, block := range p.Blocks {
		fmt.Fprintf(&sb, "[%s]\n", block.Part)
		for _, row := range block.Rows {
			if row.Chords != "" {
				fmt.Fprintln(&sb, row.Chords)
			}
			fmt.Fprintln(&sb, row.Lyrics)
		}
		if len(block.RepeatedAt) > 0 {
			positions := make([]string, len(block.RepeatedAt))
			for i, pos := range block.RepeatedAt {
				positions[i] = fmt.Sprintf("%d", pos)
			}
			fmt.Fprintf(&sb, "(also played at position %s)\n", strings.Join(positions, ", "))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
