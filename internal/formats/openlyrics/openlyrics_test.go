package openlyrics

import (
	"testing"

	"github.com/strophe/strophe/core/song"
)

const sampleDoc = `<?xml version="1.0" encoding="UTF-8"?>
<song xmlns="http://openlyrics.info/namespace/2009/song" version="0.8">
  <properties>
    <titles><title>Morning Light</title></titles>
    <authors><author>J. Doe</author></authors>
    <key>G</key>
    <verseOrder>v1 c v2 c</verseOrder>
  </properties>
  <lyrics>
    <verse name="v1">
      <lines>When the morning breaks<br/>Over silent hills</lines>
    </verse>
    <verse name="c">
      <lines><chord name="G"/>Sing it <chord name="C"/>out</lines>
    </verse>
    <verse name="v2">
      <lines>When the evening falls</lines>
    </verse>
  </lyrics>
</song>`

func TestParseDocument(t *testing.T) {
	d := &dialect{}
	s, diags := d.Parse([]byte(sampleDoc))
	if song.HasErrors(diags) {
		t.Fatalf("unexpected errors: %v", diags)
	}
	if s.Title != "Morning Light" {
		t.Errorf("title = %q", s.Title)
	}
	if s.Meta.Author != "J. Doe" || s.Meta.Key != "G" {
		t.Errorf("meta = %+v", s.Meta)
	}

	var order []string
	for _, inst := range s.Order {
		order = append(order, inst.Part)
	}
	want := []string{"v1", "c", "v2", "c"}
	for i := range want {
		if i >= len(order) || order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}

	v1, ok := s.Definition("v1")
	if !ok || v1.Kind != song.KindVerse || len(v1.Lines) != 2 {
		t.Fatalf("v1 = %+v", v1)
	}
	if v1.Lines[0].Text() != "When the morning breaks" {
		t.Errorf("line = %q", v1.Lines[0].Text())
	}

	c, _ := s.Definition("c")
	if c.Kind != song.KindChorus {
		t.Errorf("chorus kind = %q", c.Kind)
	}
	chords := c.Lines[0].Chords()
	if len(chords) != 2 || chords[0].Chord != "G" || chords[1].Chord != "C" {
		t.Fatalf("chords = %v", chords)
	}
	if chords[0].Offset != 0 || chords[1].Offset != len("Sing it ") {
		t.Errorf("chord offsets = %d, %d", chords[0].Offset, chords[1].Offset)
	}
}

func TestVerseOrderUndefinedReference(t *testing.T) {
	doc := `<song><properties><verseOrder>v1 v9</verseOrder></properties>
<lyrics><verse name="v1"><lines>Only verse</lines></verse></lyrics></song>`
	d := &dialect{}
	s, diags := d.Parse([]byte(doc))
	if !song.HasErrors(diags) {
		t.Fatal("expected an error for the undefined verse reference")
	}
	if len(s.Order) != 1 || s.Order[0].Part != "v1" {
		t.Errorf("order = %v", s.Order)
	}
}

func TestVerseAbsentFromOrderWarns(t *testing.T) {
	doc := `<song><properties><verseOrder>v1</verseOrder></properties>
<lyrics>
<verse name="v1"><lines>Used</lines></verse>
<verse name="b1"><lines>Never played</lines></verse>
</lyrics></song>`
	d := &dialect{}
	s, diags := d.Parse([]byte(doc))
	if song.CountSeverity(diags, song.SeverityWarning) != 1 {
		t.Fatalf("want one unused-verse warning, got %v", diags)
	}
	if len(s.Order) != 1 {
		t.Errorf("order = %v", s.Order)
	}
	b1, ok := s.Definition("b1")
	if !ok || b1.Kind != song.KindBridge {
		t.Errorf("b1 = %+v", b1)
	}
}

func TestNoVerseOrderUsesDefinitionOrder(t *testing.T) {
	doc := `<song><lyrics>
<verse name="v1"><lines>One</lines></verse>
<verse name="c"><lines>Two</lines></verse>
</lyrics></song>`
	d := &dialect{}
	s, diags := d.Parse([]byte(doc))
	if song.HasErrors(diags) {
		t.Fatalf("unexpected errors: %v", diags)
	}
	if len(s.Order) != 2 || s.Order[0].Part != "v1" || s.Order[1].Part != "c" {
		t.Errorf("order = %v", s.Order)
	}
}

func TestMalformedXML(t *testing.T) {
	d := &dialect{}
	s, diags := d.Parse([]byte("<song><lyrics>"))
	if s == nil {
		t.Fatal("nil song for malformed input")
	}
	// xmlquery tolerates unclosed tags, so either a parse error or an empty
	// song is acceptable; what matters is that Parse does not panic and the
	// result validates.
	if errs := s.Validate(); song.HasErrors(errs) {
		t.Errorf("result failed validation: %v (parse diags %v)", errs, diags)
	}
}

func TestDetect(t *testing.T) {
	d := &dialect{}
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"namespaced document", sampleDoc, true},
		{"bare song with lyrics", "<song><lyrics/></song>", true},
		{"plain text", "#title: Song\nwords", false},
		{"unrelated XML", "<html><body/></html>", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := d.Detect([]byte(tt.content))
			if res.Detected != tt.want {
				t.Errorf("Detect = %v (%s), want %v", res.Detected, res.Reason, tt.want)
			}
		})
	}
}
