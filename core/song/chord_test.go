package song

import "testing"

func TestParseChord(t *testing.T) {
	tests := []struct {
		in      string
		root    string
		quality string
		bass    string
		wantErr bool
	}{
		{in: "C", root: "C"},
		{in: "Am", root: "A", quality: "m"},
		{in: "F#m7", root: "F#", quality: "m7"},
		{in: "Bbmaj7", root: "Bb", quality: "maj7"},
		{in: "Dsus4", root: "D", quality: "sus4"},
		{in: "G/B", root: "G", bass: "B"},
		{in: "E7/G#", root: "E", quality: "7", bass: "G#"},
		{in: "Cadd9", root: "C", quality: "add9"},
		{in: "Adim", root: "A", quality: "dim"},
		{in: "", wantErr: true},
		{in: "H", wantErr: true},
		{in: "hello", wantErr: true},
		{in: "Amazing", wantErr: true},
		{in: "Grace", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			chord, err := ParseChord(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseChord(%q) succeeded, want error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseChord(%q) failed: %v", tt.in, err)
			}
			if chord.Root != tt.root {
				t.Errorf("Root = %q, want %q", chord.Root, tt.root)
			}
			if chord.Quality != tt.quality {
				t.Errorf("Quality = %q, want %q", chord.Quality, tt.quality)
			}
			if chord.Bass != tt.bass {
				t.Errorf("Bass = %q, want %q", chord.Bass, tt.bass)
			}
			if chord.String() != tt.in {
				t.Errorf("String() = %q, want round-trip to %q", chord.String(), tt.in)
			}
		})
	}
}

func TestIsChordSymbol(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"C", true},
		{"Am7", true},
		{"G/B", true},
		{"|", true},
		{"N.C.", true},
		{"Amazing", false},
		{"grace", false},
		{"x2", false},
	}
	for _, tt := range tests {
		if got := IsChordSymbol(tt.in); got != tt.want {
			t.Errorf("IsChordSymbol(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestChordTranspose(t *testing.T) {
	tests := []struct {
		in        string
		semitones int
		want      string
	}{
		{"C", 2, "D"},
		{"C", -1, "B"},
		{"Am", 3, "Cm"},
		{"G/B", 2, "A/C#"},
		{"Bb", 2, "C"},
		{"Eb", -2, "Db"},
		{"F#m7", 1, "Gm7"},
		{"C", 12, "C"},
		{"C", 0, "C"},
	}

	for _, tt := range tests {
		chord, err := ParseChord(tt.in)
		if err != nil {
			t.Fatalf("ParseChord(%q) failed: %v", tt.in, err)
		}
		if got := chord.Transpose(tt.semitones).String(); got != tt.want {
			t.Errorf("%q transposed by %d = %q, want %q", tt.in, tt.semitones, got, tt.want)
		}
	}
}
