package song

import "unicode/utf8"

// Validate checks the structural invariants of a constructed Song and returns
// diagnostics for every violation. A nil-diagnostic result means the Song is
// structurally sound. Validate never mutates the Song.
//
// Checked invariants:
//   - every PartInstance references an existing PartDefinition
//   - every PartInstance repeat count is positive (zero means "unset" and
//     passes; negative counts are rejected)
//   - part kinds are from the known set
//   - segment offsets are monotonically non-decreasing and, on lines with
//     lyric text, within the bounds of the rendered text length
func (s *Song) Validate() []Diagnostic {
	var diags []Diagnostic

	for _, inst := range s.Order {
		if _, ok := s.Parts[inst.Part]; !ok {
			diags = append(diags, Errorf(inst.SourceLine,
				"part instance references undefined part %q", inst.Part))
		}
		if inst.Repeat < 0 {
			diags = append(diags, Errorf(inst.SourceLine,
				"part instance %q has negative repeat count %d", inst.Part, inst.Repeat))
		}
		diags = append(diags, validateLines(inst.Override)...)
	}

	for _, name := range s.DefinitionOrder() {
		def := s.Parts[name]
		if !def.Kind.IsValid() {
			diags = append(diags, Errorf(def.SourceLine,
				"part %q has invalid kind %q", def.Name, def.Kind))
		}
		diags = append(diags, validateLines(def.Lines)...)
	}

	return diags
}

func validateLines(lines []LyricLine) []Diagnostic {
	var diags []Diagnostic
	for i := range lines {
		line := &lines[i]
		text := line.Text()
		textLen := utf8.RuneCountInString(text)
		// A zero-text line (chords-only) keeps its original chord columns in
		// the offsets so sheet output can reproduce the spacing; the length
		// bound only applies once there is lyric text to anchor into.
		chordsOnly := text == ""
		prev := 0
		for j := range line.Segments {
			seg := &line.Segments[j]
			if seg.Offset < prev {
				diags = append(diags, Errorf(line.SourceLine,
					"segment offset %d decreases (previous %d)", seg.Offset, prev))
			}
			if !chordsOnly && seg.Offset > textLen {
				diags = append(diags, Errorf(line.SourceLine,
					"segment offset %d exceeds line length %d", seg.Offset, textLen))
			}
			prev = seg.Offset
		}
	}
	return diags
}
