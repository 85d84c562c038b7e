package bundle

import (
	"archive/tar"
	"compress/gzip"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/strophe/strophe/core/errors"
	_ "github.com/strophe/strophe/internal/formats/songtext"
)

var testSongs = []SongFile{
	{Name: "morning.song", Content: []byte("#title: Morning Light\n\n[Verse 1]\nWhen the morning breaks\n")},
	{Name: "evening.song", Content: []byte("#title: Evening Calm\n\n[Verse 1]\nWhen the evening falls\n")},
}

func TestPackUnpackRoundTrip(t *testing.T) {
	for _, compression := range []CompressionType{CompressionXZ, CompressionGzip} {
		t.Run(string(compression), func(t *testing.T) {
			archive := filepath.Join(t.TempDir(), "book.songbook")
			manifest, err := Pack(archive, "Test Book", testSongs, &PackOptions{Compression: compression})
			if err != nil {
				t.Fatalf("Pack: %v", err)
			}
			if len(manifest.Songs) != 2 {
				t.Fatalf("manifest songs = %d", len(manifest.Songs))
			}
			if manifest.Songs[0].Title != "Morning Light" || manifest.Songs[0].Dialect != "songtext" {
				t.Errorf("entry = %+v", manifest.Songs[0])
			}

			detected, err := DetectCompression(archive)
			if err != nil {
				t.Fatalf("DetectCompression: %v", err)
			}
			if detected != compression {
				t.Errorf("detected %q, want %q", detected, compression)
			}

			got, songs, err := Unpack(archive)
			if err != nil {
				t.Fatalf("Unpack: %v", err)
			}
			if got.Name != "Test Book" {
				t.Errorf("name = %q", got.Name)
			}
			if len(songs) != 2 {
				t.Fatalf("got %d songs", len(songs))
			}
			if string(songs[0].Content) != string(testSongs[0].Content) {
				t.Error("unpacked content differs from input")
			}
		})
	}
}

func TestUnpackDetectsHashMismatch(t *testing.T) {
	// Hand-build an archive whose manifest hash does not match the content.
	archive := filepath.Join(t.TempDir(), "tampered.songbook")
	manifest := Manifest{
		Version: 1,
		Name:    "Tampered",
		Songs: []Entry{{
			Name:    "morning.song",
			Title:   "Morning Light",
			Dialect: "songtext",
			Hash:    "0000000000000000000000000000000000000000000000000000000000000000",
			Size:    5,
		}},
	}
	manifestData, err := json.Marshal(manifest)
	if err != nil {
		t.Fatal(err)
	}

	f, err := os.Create(archive)
	if err != nil {
		t.Fatal(err)
	}
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	for _, member := range []struct {
		name string
		data []byte
	}{
		{"manifest.json", manifestData},
		{"songs/morning.song", []byte("words")},
	} {
		if err := tw.WriteHeader(&tar.Header{Name: member.name, Mode: 0644, Size: int64(len(member.data))}); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write(member.data); err != nil {
			t.Fatal(err)
		}
	}
	tw.Close()
	gz.Close()
	f.Close()

	_, _, err = Unpack(archive)
	if err == nil {
		t.Fatal("expected a hash mismatch error")
	}
	if !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("error = %v, want validation", err)
	}
}

func TestUnpackMissingManifest(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "empty.songbook")
	f, err := os.Create(archive)
	if err != nil {
		t.Fatal(err)
	}
	f.Write([]byte{0x1f, 0x8b})
	f.Close()
	if _, _, err := Unpack(archive); err == nil {
		t.Fatal("expected an error for the bogus archive")
	}
}

func TestPackRejectsUnparseableSong(t *testing.T) {
	// Songtext accepts almost anything, so only registered-dialect detection
	// failures can reject here; the pack still has to record a dialect for
	// every entry.
	archive := filepath.Join(t.TempDir(), "book.songbook")
	manifest, err := Pack(archive, "Book", []SongFile{
		{Name: "plain.song", Content: []byte("free text without structure\n")},
	}, nil)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if manifest.Songs[0].Dialect == "" {
		t.Error("entry has no dialect")
	}
}

func TestDetectCompressionUnknown(t *testing.T) {
	p := filepath.Join(t.TempDir(), "junk")
	if err := os.WriteFile(p, []byte("not an archive at all"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := DetectCompression(p)
	if err == nil {
		t.Fatal("expected an error for unknown magic bytes")
	}
	if !errors.Is(err, errors.ErrUnsupported) {
		t.Errorf("error = %v, want unsupported", err)
	}
}

func TestVerifyShortManifestHash(t *testing.T) {
	// A malformed manifest hash must produce a validation error, never a
	// panic when the message abbreviates it.
	manifest := &Manifest{
		Version: 1,
		Songs:   []Entry{{Name: "x.song", Hash: "bad"}},
	}
	songs := []SongFile{{Name: "x.song", Content: []byte("words")}}

	err := verify(manifest, songs)
	if err == nil {
		t.Fatal("expected a hash mismatch error")
	}
	if !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("error = %v, want validation", err)
	}
}
