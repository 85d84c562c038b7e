package song

// New constructs a Song from parsed parts and performance order. The inputs
// are deep-copied so the caller cannot alias into the constructed Song, which
// is what makes the construct-once, read-only contract hold structurally.
//
// New does not reject structurally odd input: an empty part sequence is a
// valid Song. Callers run Validate to obtain diagnostics for the invariants
// the parser could not guarantee.
func New(title string, meta Metadata, defs []*PartDefinition, order []PartInstance) *Song {
	s := &Song{
		Title: title,
		Meta:  copyMetadata(meta),
		Parts: make(map[string]*PartDefinition, len(defs)),
		Order: make([]PartInstance, 0, len(order)),
	}

	for _, def := range defs {
		if def == nil {
			continue
		}
		if _, exists := s.Parts[def.Name]; exists {
			// First definition wins; the parser reports the duplicate.
			continue
		}
		s.Parts[def.Name] = copyDefinition(def)
		s.defOrder = append(s.defOrder, def.Name)
	}

	for _, inst := range order {
		s.Order = append(s.Order, copyInstance(inst))
	}

	return s
}

func copyMetadata(meta Metadata) Metadata {
	out := meta
	if meta.Tags != nil {
		out.Tags = make(map[string]string, len(meta.Tags))
		for k, v := range meta.Tags {
			out.Tags[k] = v
		}
	}
	return out
}

func copyDefinition(def *PartDefinition) *PartDefinition {
	out := &PartDefinition{
		Name:       def.Name,
		Kind:       def.Kind,
		SourceLine: def.SourceLine,
	}
	out.Lines = copyLines(def.Lines)
	return out
}

func copyInstance(inst PartInstance) PartInstance {
	out := inst
	out.Override = copyLines(inst.Override)
	return out
}

func copyLines(lines []LyricLine) []LyricLine {
	if lines == nil {
		return nil
	}
	out := make([]LyricLine, len(lines))
	for i, line := range lines {
		out[i] = LyricLine{SourceLine: line.SourceLine}
		if line.Segments != nil {
			out[i].Segments = make([]Segment, len(line.Segments))
			copy(out[i].Segments, line.Segments)
		}
	}
	return out
}
