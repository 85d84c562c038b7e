// Package bundle packs and unpacks songbook archives: a set of song sources
// plus a JSON manifest in a compressed tar stream. XZ is the default
// compression; gzip is accepted for interoperability and both are
// auto-detected on unpack. Every manifest entry carries a blake3 hash of its
// source so a tampered or truncated archive is caught at unpack time.
package bundle

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"time"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	"github.com/strophe/strophe/core/errors"
	"github.com/strophe/strophe/internal/formats/base"
	"github.com/strophe/strophe/internal/logging"
)

// manifestName is the archive member holding the manifest. It is always the
// first entry in the tar stream.
const manifestName = "manifest.json"

// songDir is the archive directory song sources live under.
const songDir = "songs"

// CompressionType specifies the compression algorithm for bundle archives.
type CompressionType string

const (
	// CompressionXZ uses XZ/LZMA2 compression (default, best ratio).
	CompressionXZ CompressionType = "xz"
	// CompressionGzip uses gzip compression (stdlib, faster).
	CompressionGzip CompressionType = "gzip"
)

// PackOptions configures bundle packing behavior.
type PackOptions struct {
	// Compression specifies the compression algorithm. Defaults to XZ.
	Compression CompressionType
}

// DefaultPackOptions returns the default packing options (XZ compression).
func DefaultPackOptions() *PackOptions {
	return &PackOptions{Compression: CompressionXZ}
}

// Entry describes one song in the bundle manifest.
type Entry struct {
	// Name is the archive member name relative to songs/.
	Name string `json:"name"`
	// Title is the parsed song title.
	Title string `json:"title"`
	// Dialect is the detected markup dialect of the source.
	Dialect string `json:"dialect"`
	// Hash is the hex blake3 hash of the source bytes.
	Hash string `json:"hash"`
	// Size is the source length in bytes.
	Size int64 `json:"size"`
}

// Manifest describes a songbook bundle.
type Manifest struct {
	Version   int       `json:"version"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Songs     []Entry   `json:"songs"`
}

// SongFile is one song source going into or coming out of a bundle.
type SongFile struct {
	// Name is the file name within the bundle.
	Name string `json:"name"`
	// Content is the raw song source.
	Content []byte `json:"-"`
}

func hashBytes(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Pack writes a songbook archive. Each song is dialect-detected and parsed
// so the manifest can carry titles; content that no dialect accepts fails
// the pack.
func Pack(archivePath, name string, songs []SongFile, opts *PackOptions) (*Manifest, error) {
	if opts == nil {
		opts = DefaultPackOptions()
	}

	manifest := &Manifest{
		Version:   1,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	for _, sf := range songs {
		d, res := base.Detect(sf.Content)
		if d == nil {
			return nil, errors.NewUnsupported("song "+sf.Name, res.Reason)
		}
		parsed, _ := d.Parse(sf.Content)
		manifest.Songs = append(manifest.Songs, Entry{
			Name:    sf.Name,
			Title:   parsed.Title,
			Dialect: d.Name(),
			Hash:    hashBytes(sf.Content),
			Size:    int64(len(sf.Content)),
		})
	}

	file, err := os.Create(archivePath)
	if err != nil {
		return nil, errors.NewIO("create", archivePath, err)
	}
	defer file.Close()

	var compressWriter io.WriteCloser
	switch opts.Compression {
	case CompressionGzip:
		compressWriter, err = gzip.NewWriterLevel(file, gzip.BestCompression)
	case CompressionXZ:
		fallthrough
	default:
		compressWriter, err = xz.NewWriter(file)
	}
	if err != nil {
		return nil, errors.Wrap(err, "creating compression writer")
	}

	tw := tar.NewWriter(compressWriter)

	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "serializing manifest")
	}
	if err := writeToTar(tw, manifestName, manifestData); err != nil {
		return nil, err
	}
	for _, sf := range songs {
		if err := writeToTar(tw, path.Join(songDir, sf.Name), sf.Content); err != nil {
			return nil, err
		}
	}

	if err := tw.Close(); err != nil {
		return nil, errors.Wrap(err, "finalizing archive")
	}
	if err := compressWriter.Close(); err != nil {
		return nil, errors.Wrap(err, "finalizing compression")
	}
	logging.Info("bundle packed", "path", archivePath, "songs", len(songs))
	return manifest, nil
}

func writeToTar(tw *tar.Writer, name string, data []byte) error {
	hdr := &tar.Header{
		Name: name,
		Mode: 0644,
		Size: int64(len(data)),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return errors.Wrap(err, "writing tar header")
	}
	if _, err := tw.Write(data); err != nil {
		return errors.Wrap(err, "writing tar data")
	}
	return nil
}

// DetectCompression detects the compression type of a bundle archive from
// its magic bytes.
func DetectCompression(archivePath string) (CompressionType, error) {
	file, err := os.Open(archivePath)
	if err != nil {
		return "", errors.NewIO("open", archivePath, err)
	}
	defer file.Close()

	magic := make([]byte, 6)
	n, err := file.Read(magic)
	if err != nil {
		return "", errors.NewIO("read magic bytes", archivePath, err)
	}
	if n >= 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		return CompressionGzip, nil
	}
	if n >= 6 && bytes.Equal(magic, []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}) {
		return CompressionXZ, nil
	}
	return "", errors.NewUnsupported("compression format", "unknown magic bytes")
}

// Unpack reads a songbook archive, verifying every entry against its
// manifest hash. The compression format is auto-detected.
func Unpack(archivePath string) (*Manifest, []SongFile, error) {
	compression, err := DetectCompression(archivePath)
	if err != nil {
		return nil, nil, err
	}

	file, err := os.Open(archivePath)
	if err != nil {
		return nil, nil, errors.NewIO("open", archivePath, err)
	}
	defer file.Close()

	var decompressReader io.Reader
	switch compression {
	case CompressionGzip:
		gzReader, err := gzip.NewReader(file)
		if err != nil {
			return nil, nil, errors.Wrap(err, "opening gzip stream")
		}
		defer gzReader.Close()
		decompressReader = gzReader
	default:
		xzReader, err := xz.NewReader(file)
		if err != nil {
			return nil, nil, errors.Wrap(err, "opening xz stream")
		}
		decompressReader = xzReader
	}

	var manifest *Manifest
	var songs []SongFile
	tr := tar.NewReader(decompressReader)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, errors.Wrap(err, "reading archive")
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, nil, errors.Wrap(err, "reading archive member "+hdr.Name)
		}
		switch {
		case hdr.Name == manifestName:
			manifest = &Manifest{}
			if err := json.Unmarshal(data, manifest); err != nil {
				return nil, nil, errors.Wrap(err, "decoding manifest")
			}
		case path.Dir(hdr.Name) == songDir:
			songs = append(songs, SongFile{Name: path.Base(hdr.Name), Content: data})
		}
	}
	if manifest == nil {
		return nil, nil, errors.NewValidation("archive", "missing manifest.json")
	}

	if err := verify(manifest, songs); err != nil {
		return nil, nil, err
	}
	logging.Info("bundle unpacked", "path", archivePath, "songs", len(songs))
	return manifest, songs, nil
}

// verify checks every manifest entry against the unpacked content.
func verify(manifest *Manifest, songs []SongFile) error {
	byName := make(map[string][]byte, len(songs))
	for _, sf := range songs {
		byName[sf.Name] = sf.Content
	}
	for _, entry := range manifest.Songs {
		content, ok := byName[entry.Name]
		if !ok {
			return errors.NewValidation(entry.Name, "listed in manifest but missing from archive")
		}
		if got := hashBytes(content); got != entry.Hash {
			return errors.NewValidation(entry.Name,
				fmt.Sprintf("content hash mismatch: manifest %s, archive %s",
					shortHash(entry.Hash), shortHash(got)))
		}
	}
	return nil
}

// shortHash abbreviates a hash for error messages. Malformed manifests can
// carry arbitrarily short hash strings, so the slice is length-guarded.
func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
