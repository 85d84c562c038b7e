package songtext

import (
	"strings"

	"github.com/strophe/strophe/core/song"
	"github.com/strophe/strophe/internal/formats/base"
	"github.com/strophe/strophe/internal/logging"
)

func init() {
	base.Register(&dialect{})
}

type dialect struct{}

func (d *dialect) Name() string { return "songtext" }

// Detect accepts content carrying #key: value metadata lines or bracket part
// markers. Plain text without either still parses (classic mode), but is
// only claimed through the registry fallback so more specific dialects get
// probed first.
func (d *dialect) Detect(content []byte) base.DetectResult {
	text := base.NormalizeContent(content)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "#") && strings.Contains(line, ":"):
			return base.DetectResult{Detected: true, Dialect: d.Name(), Reason: "metadata line found"}
		case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
			if name := strings.TrimSpace(line[1 : len(line)-1]); name != "" {
				return base.DetectResult{Detected: true, Dialect: d.Name(), Reason: "part marker found"}
			}
		}
	}
	return base.DetectResult{Dialect: d.Name(), Reason: "no songtext structure found"}
}

func (d *dialect) Parse(content []byte) (*song.Song, []song.Diagnostic) {
	tokens := Tokenize(string(content))
	s, diags := Parse(tokens)
	logging.ParseEvent(d.Name(), song.CountSeverity(diags, song.SeverityWarning), song.CountSeverity(diags, song.SeverityError))
	return s, diags
}
