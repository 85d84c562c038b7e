// Package openlyrics provides the handler for the OpenLyrics XML format.
// Verse content lives in <lines> elements with <br/> line breaks and inline
// <chord name="..."/> elements; the verseOrder property gives the
// performance order.
package openlyrics

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/strophe/strophe/core/song"
	"github.com/strophe/strophe/internal/formats/base"
	"github.com/strophe/strophe/internal/logging"
)

func init() {
	base.Register(&dialect{})
}

type dialect struct{}

func (d *dialect) Name() string { return "openlyrics" }

// Precompiled selectors. OpenLyrics files may or may not carry the default
// namespace, so the expressions match on local names.
var (
	verseExpr = xpath.MustCompile(`//*[local-name()='lyrics']/*[local-name()='verse']`)
	titleExpr = xpath.MustCompile(`//*[local-name()='properties']/*[local-name()='titles']/*[local-name()='title']`)
)

func (d *dialect) Detect(content []byte) base.DetectResult {
	trimmed := bytes.TrimSpace(content)
	if !bytes.HasPrefix(trimmed, []byte("<")) {
		return base.DetectResult{Dialect: d.Name(), Reason: "not XML"}
	}
	if bytes.Contains(trimmed, []byte("openlyrics")) ||
		(bytes.Contains(trimmed, []byte("<song")) && bytes.Contains(trimmed, []byte("<lyrics"))) {
		return base.DetectResult{Detected: true, Dialect: d.Name(), Reason: "openlyrics document structure found"}
	}
	return base.DetectResult{Dialect: d.Name(), Reason: "XML without openlyrics structure"}
}

func (d *dialect) Parse(content []byte) (*song.Song, []song.Diagnostic) {
	var diags []song.Diagnostic

	doc, err := xmlquery.Parse(bytes.NewReader(content))
	if err != nil {
		diags = append(diags, song.Errorf(0, "malformed XML: %v", err))
		return song.New("", song.Metadata{}, nil, nil), diags
	}

	title := firstText(doc, titleExpr)
	meta := parseProperties(doc)

	var defs []*song.PartDefinition
	defByName := make(map[string]*song.PartDefinition)
	for _, verse := range xmlquery.QuerySelectorAll(doc, verseExpr) {
		name := verse.SelectAttr("name")
		if name == "" {
			diags = append(diags, song.Warningf(0, "verse without a name attribute skipped"))
			continue
		}
		if _, exists := defByName[name]; exists {
			diags = append(diags, song.Errorf(0,
				"duplicate verse %q, keeping the first", name))
			continue
		}
		def := &song.PartDefinition{Name: name, Kind: kindFromVerseName(name)}
		def.Lines = parseLines(verse)
		defs = append(defs, def)
		defByName[name] = def
	}

	order, orderDiags := buildOrder(doc, defs, defByName)
	diags = append(diags, orderDiags...)

	s := song.New(title, meta, defs, order)
	logging.ParseEvent(d.Name(), song.CountSeverity(diags, song.SeverityWarning), song.CountSeverity(diags, song.SeverityError))
	return s, diags
}

func firstText(doc *xmlquery.Node, expr *xpath.Expr) string {
	if n := xmlquery.QuerySelector(doc, expr); n != nil {
		return strings.TrimSpace(n.InnerText())
	}
	return ""
}

func propertyText(doc *xmlquery.Node, path string) string {
	if n, err := xmlquery.Query(doc, path); err == nil && n != nil {
		return strings.TrimSpace(n.InnerText())
	}
	return ""
}

func parseProperties(doc *xmlquery.Node) song.Metadata {
	meta := song.Metadata{Tags: make(map[string]string)}
	meta.Author = propertyText(doc, "//*[local-name()='authors']/*[local-name()='author']")
	meta.Key = propertyText(doc, "//*[local-name()='properties']/*[local-name()='key']")
	meta.Tempo = propertyText(doc, "//*[local-name()='properties']/*[local-name()='tempo']")

	for key, path := range map[string]string{
		"copyright": "//*[local-name()='properties']/*[local-name()='copyright']",
		"ccli":      "//*[local-name()='properties']/*[local-name()='ccliNo']",
		"themes":    "//*[local-name()='themes']/*[local-name()='theme']",
	} {
		if v := propertyText(doc, path); v != "" {
			meta.Tags[key] = v
		}
	}
	if meta.Author != "" {
		meta.Tags["author"] = meta.Author
	}
	if meta.Key != "" {
		meta.Tags["key"] = meta.Key
	}
	if meta.Tempo != "" {
		meta.Tags["tempo"] = meta.Tempo
	}
	return meta
}

// kindFromVerseName maps OpenLyrics verse names (v1, c, b, p, i, e) onto
// part kinds.
func kindFromVerseName(name string) song.PartKind {
	switch {
	case name == "":
		return song.KindOther
	case name[0] == 'v':
		return song.KindVerse
	case name[0] == 'c':
		return song.KindChorus
	case name[0] == 'b':
		return song.KindBridge
	case name[0] == 'i':
		return song.KindIntro
	case name[0] == 'e' || name[0] == 'o':
		return song.KindOutro
	default:
		return song.KindOther
	}
}

// parseLines flattens a verse's <lines> children into lyric lines. Text and
// <chord> elements interleave; <br/> ends a line.
func parseLines(verse *xmlquery.Node) []song.LyricLine {
	var out []song.LyricLine

	for lines := verse.FirstChild; lines != nil; lines = lines.NextSibling {
		if lines.Type != xmlquery.ElementNode || lines.Data != "lines" {
			continue
		}
		var cur song.LyricLine
		offset := 0
		flush := func() {
			if len(cur.Segments) > 0 {
				out = append(out, cur)
			}
			cur = song.LyricLine{}
			offset = 0
		}
		for child := lines.FirstChild; child != nil; child = child.NextSibling {
			switch {
			case child.Type == xmlquery.TextNode:
				text := strings.TrimRight(child.Data, "\n\t")
				text = strings.TrimLeft(text, "\n\t")
				if text == "" {
					continue
				}
				cur.Segments = append(cur.Segments, song.Segment{
					Type:   song.SegmentText,
					Text:   text,
					Offset: offset,
				})
				offset += utf8.RuneCountInString(text)
			case child.Type == xmlquery.ElementNode && child.Data == "chord":
				symbol := child.SelectAttr("name")
				if symbol == "" {
					symbol = child.SelectAttr("root")
				}
				if symbol == "" {
					continue
				}
				cur.Segments = append(cur.Segments, song.Segment{
					Type:   song.SegmentChord,
					Chord:  symbol,
					Offset: offset,
				})
			case child.Type == xmlquery.ElementNode && child.Data == "br":
				flush()
			}
		}
		flush()
	}
	return out
}

// buildOrder turns the verseOrder property into part instances. Verse names
// in the order that were never defined are dropped with an error; defined
// verses missing from the order get a warning. Without a verseOrder the
// definition order is performed once through.
func buildOrder(doc *xmlquery.Node, defs []*song.PartDefinition, defByName map[string]*song.PartDefinition) ([]song.PartInstance, []song.Diagnostic) {
	var diags []song.Diagnostic

	raw := propertyText(doc, "//*[local-name()='properties']/*[local-name()='verseOrder']")
	if raw == "" {
		order := make([]song.PartInstance, 0, len(defs))
		for _, def := range defs {
			order = append(order, song.PartInstance{Part: def.Name})
		}
		return order, diags
	}

	var order []song.PartInstance
	used := make(map[string]bool, len(defs))
	for _, name := range strings.Fields(raw) {
		def, ok := defByName[name]
		if !ok {
			diags = append(diags, song.Errorf(0,
				"verseOrder references undefined verse %q, dropped from the performance order", name))
			continue
		}
		used[name] = true
		order = append(order, song.PartInstance{Part: def.Name})
	}
	for _, def := range defs {
		if !used[def.Name] {
			diags = append(diags, song.Warningf(0,
				"verse %q is defined but absent from verseOrder", def.Name))
		}
	}
	return order, diags
}
