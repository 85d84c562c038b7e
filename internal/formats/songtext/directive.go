package songtext

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// PartRef is a parsed reference to a named part with an optional repeat count.
// Examples: "chorus", "verse 1", "chorus x2".
type PartRef struct {
	// Name is the referenced part name as written (e.g., "verse 1").
	Name string

	// Times is the repeat count, at least 1.
	Times int
}

// refGrammar is the participle grammar for directive part references.
//
//nolint:govet // participle grammar tags are not standard struct tags
type refGrammar struct {
	Words []string `parser:"@Ident+"`
	Num   *int     `parser:"@Int?"`
	Times *string  `parser:"@Times?"`
}

// refLexer defines the lexer for part references.
// Note: Times must come before Ident so "x2" lexes as one repeat token
// rather than an identifier followed by a number.
var refLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Times", Pattern: `[xX][0-9]+`},
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Ident", Pattern: `[\p{L}][\p{L}'-]*`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// refParser is the participle parser for part references.
var refParser = participle.MustBuild[refGrammar](
	participle.Lexer(refLexer),
	participle.Elide("Whitespace"),
)

// ParsePartRef parses the value of a repeat/goto directive.
// Supported forms:
//   - "chorus" (name only)
//   - "verse 1" (name with number)
//   - "chorus x2" (name with repeat count)
//   - "verse 2 x3" (both)
func ParsePartRef(s string) (*PartRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty part reference")
	}

	parsed, err := refParser.ParseString("", s)
	if err != nil {
		return nil, fmt.Errorf("invalid part reference: %q: %w", s, err)
	}

	ref := &PartRef{
		Name:  strings.Join(parsed.Words, " "),
		Times: 1,
	}
	if parsed.Num != nil {
		ref.Name = fmt.Sprintf("%s %d", ref.Name, *parsed.Num)
	}
	if parsed.Times != nil {
		n, convErr := strconv.Atoi((*parsed.Times)[1:])
		if convErr != nil || n < 1 {
			return nil, fmt.Errorf("invalid repeat count in %q", s)
		}
		ref.Times = n
	}
	return ref, nil
}
