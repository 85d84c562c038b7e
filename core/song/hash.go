package song

import (
	"encoding/hex"
	"strings"

	"github.com/zeebo/blake3"
)

// ContentHash returns the BLAKE3 hash of the song's normalized lyric content.
// The hash covers part definitions (in definition order) and the performance
// order, but not the title or metadata, so two sources of the same song text
// dedup to the same hash regardless of tagging.
func (s *Song) ContentHash() string {
	var sb strings.Builder
	for _, name := range s.DefinitionOrder() {
		def := s.Parts[name]
		sb.WriteString(def.Name)
		sb.WriteByte('\x1f')
		sb.WriteString(string(def.Kind))
		sb.WriteByte('\x1f')
		sb.WriteString(partText(def.Lines))
		sb.WriteByte('\x1e')
	}
	for _, inst := range s.Order {
		sb.WriteString(inst.Part)
		if inst.Repeats() > 1 {
			sb.WriteByte('\x1f')
			sb.WriteString(strings.Repeat("+", inst.Repeats()-1))
		}
		sb.WriteByte('\x1e')
	}
	sum := blake3.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

// LinesHash returns the BLAKE3 hash of a line sequence's rendered text, chord
// anchors ignored. Dialects use it to detect that a block repeats an earlier
// part's content.
func LinesHash(lines []LyricLine) string {
	sum := blake3.Sum256([]byte(strings.ToLower(partText(lines))))
	return hex.EncodeToString(sum[:])
}

func partText(lines []LyricLine) string {
	texts := make([]string, len(lines))
	for i := range lines {
		texts[i] = strings.TrimSpace(lines[i].Text())
	}
	return strings.Join(texts, "\n")
}
