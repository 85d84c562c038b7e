// Package song defines the normalized song model produced by the format
// parsers and consumed by the planners. All dialect handlers should import
// these types from core/song rather than defining their own.
package song

import "strings"

// PartKind represents the structural role of a song part.
type PartKind string

// Part kind constants.
const (
	KindVerse  PartKind = "VERSE"
	KindChorus PartKind = "CHORUS"
	KindBridge PartKind = "BRIDGE"
	KindIntro  PartKind = "INTRO"
	KindOutro  PartKind = "OUTRO"
	KindOther  PartKind = "OTHER"
)

// validPartKinds is the set of valid part kinds.
var validPartKinds = map[PartKind]bool{
	KindVerse:  true,
	KindChorus: true,
	KindBridge: true,
	KindIntro:  true,
	KindOutro:  true,
	KindOther:  true,
}

// IsValid returns true if the part kind is valid.
func (k PartKind) IsValid() bool {
	return validPartKinds[k]
}

// IsRepeatable returns true if parts of this kind are conventionally sung
// again with identical content (choruses and refrains).
func (k PartKind) IsRepeatable() bool {
	return k == KindChorus
}

// kindAliases maps lowercase marker words to part kinds. Dialects with richer
// vocabularies (refrain, pre-chorus, instrumental) collapse onto these six.
var kindAliases = map[string]PartKind{
	"verse":        KindVerse,
	"strophe":      KindVerse,
	"stanza":       KindVerse,
	"chorus":       KindChorus,
	"refrain":      KindChorus,
	"bridge":       KindBridge,
	"intro":        KindIntro,
	"outro":        KindOutro,
	"ending":       KindOutro,
	"prechorus":    KindOther,
	"pre-chorus":   KindOther,
	"interlude":    KindOther,
	"instrumental": KindOther,
	"solo":         KindOther,
	"tag":          KindOther,
}

// KindFromString maps a marker word to a PartKind (case-insensitive).
// Unknown words map to KindOther.
func KindFromString(s string) PartKind {
	if k, ok := kindAliases[strings.ToLower(s)]; ok {
		return k
	}
	return KindOther
}

// Metadata carries the optional descriptive fields of a song. Recognized
// metadata tags map onto the typed fields; everything else stays in Tags.
type Metadata struct {
	// Author is the author or composer attribution.
	Author string `json:"author,omitempty"`

	// Language is the BCP-47 language tag (e.g., "en", "de").
	Language string `json:"language,omitempty"`

	// Key is the musical key or tonality (e.g., "G", "Em").
	Key string `json:"key,omitempty"`

	// Tempo is a free-form tempo hint (e.g., "72 bpm", "slowly").
	Tempo string `json:"tempo,omitempty"`

	// Tags contains all remaining metadata as lowercase key-value pairs.
	Tags map[string]string `json:"tags,omitempty"`
}

// Tag returns the value of a metadata tag (lowercase key) and whether it is set.
func (m *Metadata) Tag(key string) (string, bool) {
	v, ok := m.Tags[key]
	return v, ok
}

// Song is the top-level container for one parsed song. It owns all part
// definitions and the performance order. A Song is immutable once constructed:
// the parser builds it through New, and planners and exporters only read it,
// which makes concurrent planning over the same Song safe without locking.
type Song struct {
	// Title is the human-readable song title.
	Title string `json:"title"`

	// Meta contains the optional descriptive metadata.
	Meta Metadata `json:"meta,omitempty"`

	// Parts maps each part name to its unique definition.
	Parts map[string]*PartDefinition `json:"parts"`

	// Order is the performance order: each entry references a definition in
	// Parts by name. Repeats reference, never duplicate, content.
	Order []PartInstance `json:"order"`

	// defOrder preserves source definition order; Parts is a lookup map and
	// maps do not iterate deterministically. Populated by New, not serialized:
	// the interchange layer rebuilds it from first occurrences if needed.
	defOrder []string
}

// Definition returns the part definition referenced by name.
func (s *Song) Definition(name string) (*PartDefinition, bool) {
	def, ok := s.Parts[name]
	return def, ok
}

// DefinitionOrder returns the part names in the order the parts were defined
// in the source. Sheets render in this order.
func (s *Song) DefinitionOrder() []string {
	names := make([]string, 0, len(s.defOrder))
	seen := make(map[string]bool, len(s.defOrder))
	for _, name := range s.defOrder {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// PartDefinition is the unique content of a named part.
type PartDefinition struct {
	// Name is the unique part name (e.g., "Verse 1", "Chorus").
	Name string `json:"name"`

	// Kind is the structural role of the part.
	Kind PartKind `json:"kind"`

	// Lines contains the part's lyric lines in order. A definition with zero
	// lines is valid (instrumental parts).
	Lines []LyricLine `json:"lines,omitempty"`

	// SourceLine is the 1-indexed source line where the part was declared,
	// 0 for synthesized parts.
	SourceLine int `json:"source_line,omitempty"`
}

// IsEmpty returns true if the part has no lyric lines.
func (d *PartDefinition) IsEmpty() bool {
	return len(d.Lines) == 0
}

// PartInstance is one occurrence of a part in performance order. It references
// a PartDefinition by name; the name-keyed lookup keeps the Song free of
// internal pointers so the whole graph can be serialized and torn down as a unit.
type PartInstance struct {
	// Part is the name of the referenced part definition.
	Part string `json:"part"`

	// Repeat is how many times the part is sung in a row at this position.
	// Always >= 1.
	Repeat int `json:"repeat,omitempty"`

	// Override optionally replaces the definition's lyric text for this
	// occurrence (minor variant verses sharing a chorus slot). Empty means
	// the definition's own lines are used.
	Override []LyricLine `json:"override,omitempty"`

	// SourceLine is the 1-indexed source line that produced this instance,
	// 0 when implied by definition order.
	SourceLine int `json:"source_line,omitempty"`
}

// Repeats returns the effective repeat count (at least 1).
func (p *PartInstance) Repeats() int {
	if p.Repeat < 1 {
		return 1
	}
	return p.Repeat
}
