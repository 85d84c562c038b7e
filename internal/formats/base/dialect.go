// Package base provides the dialect registry and shared helpers for song
// markup dialect handlers. It keeps one Tokenizer/Parser core per dialect
// behind a common capability interface, rather than one ad hoc parser per
// file format.
package base

import (
	"sort"
	"strings"
	"sync"

	"github.com/strophe/strophe/core/errors"
	"github.com/strophe/strophe/core/song"
)

// DetectResult is the outcome of dialect detection over a content buffer.
type DetectResult struct {
	// Detected is true when the content looks like this dialect.
	Detected bool
	// Dialect is the matching dialect name.
	Dialect string
	// Reason explains the decision for logs and diagnostics.
	Reason string
}

// Dialect is one song markup dialect. Implementations parse a raw UTF-8
// buffer into the normalized song model. Parse never aborts on malformed
// content: it returns a best-effort Song plus diagnostics and lets the
// caller decide whether errors are fatal.
type Dialect interface {
	// Name returns the dialect identifier (e.g., "songtext", "chordpro").
	Name() string

	// Detect reports whether the content looks like this dialect.
	Detect(content []byte) DetectResult

	// Parse converts content into a Song plus parse diagnostics.
	Parse(content []byte) (*song.Song, []song.Diagnostic)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Dialect)
	// detectOrder fixes the probe order for Detect: more specific dialects
	// (XML, bracket markup) are probed before the tolerant plain-text
	// fallback, which would otherwise claim everything.
	detectOrder []string
)

// Register adds a dialect to the registry. Later registrations of the same
// name replace the earlier one. Dialect packages call this from init.
func Register(d Dialect) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[d.Name()]; !exists {
		detectOrder = append(detectOrder, d.Name())
	}
	registry[d.Name()] = d
}

// Get returns the dialect registered under name.
func Get(name string) (Dialect, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	d, ok := registry[name]
	if !ok {
		return nil, errors.NewNotFound("dialect", name)
	}
	return d, nil
}

// Names returns the registered dialect names, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Detect probes registered dialects in registration order and returns the
// first match. When nothing matches it falls back to the plain-text dialect
// if one is registered, since the tokenizer there degrades rather than fails.
func Detect(content []byte) (Dialect, DetectResult) {
	registryMu.RLock()
	order := make([]string, len(detectOrder))
	copy(order, detectOrder)
	registryMu.RUnlock()

	var fallback Dialect
	for _, name := range order {
		d, err := Get(name)
		if err != nil {
			continue
		}
		res := d.Detect(content)
		if res.Detected {
			return d, res
		}
		if name == "songtext" {
			fallback = d
		}
	}
	if fallback != nil {
		return fallback, DetectResult{
			Detected: true,
			Dialect:  fallback.Name(),
			Reason:   "no dialect matched, falling back to plain songtext",
		}
	}
	return nil, DetectResult{Reason: "no dialect matched"}
}

// Parse detects the dialect (or uses the named one when dialect is non-empty)
// and parses the content.
func Parse(content []byte, dialect string) (*song.Song, []song.Diagnostic, error) {
	var d Dialect
	if dialect != "" {
		var err error
		d, err = Get(dialect)
		if err != nil {
			return nil, nil, err
		}
	} else {
		var res DetectResult
		d, res = Detect(content)
		if d == nil {
			return nil, nil, errors.NewUnsupported("content", res.Reason)
		}
	}
	s, diags := d.Parse(content)
	return s, diags, nil
}

// NormalizeContent decodes a raw buffer into line-feed separated text:
// UTF-8 BOM stripped, CRLF and lone CR folded to LF. Dialect tokenizers call
// this before splitting lines so line numbers stay consistent across
// platforms.
func NormalizeContent(content []byte) string {
	s := string(content)
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return s
}

// ExpandTabs replaces tab characters with spaces up to the next multiple of
// width. Chord-to-lyric column alignment depends on a fixed tab width, so all
// dialects expand with the same value.
func ExpandTabs(s string, width int) string {
	if !strings.ContainsRune(s, '\t') {
		return s
	}
	var sb strings.Builder
	col := 0
	for _, r := range s {
		if r == '\t' {
			pad := width - col%width
			sb.WriteString(strings.Repeat(" ", pad))
			col += pad
			continue
		}
		sb.WriteRune(r)
		col++
	}
	return sb.String()
}
