// Command strophe is the CLI for the strophe song toolkit.
// It parses song markup, plans presentations and sheets, manages the song
// library, and runs live presentation sessions.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/strophe/strophe/core/plan"
	"github.com/strophe/strophe/core/song"
	"github.com/strophe/strophe/core/sqlite"
	"github.com/strophe/strophe/internal/bundle"
	"github.com/strophe/strophe/internal/formats/base"
	"github.com/strophe/strophe/internal/library"
	"github.com/strophe/strophe/internal/live"
	"github.com/strophe/strophe/internal/logging"

	// Register the built-in dialects.
	_ "github.com/strophe/strophe/internal/formats/chordpro"
	_ "github.com/strophe/strophe/internal/formats/openlyrics"
	_ "github.com/strophe/strophe/internal/formats/songtext"
)

const version = "0.1.0"

// CLI defines the command-line interface for strophe.
var CLI struct {
	// Global flags
	Verbose bool `short:"v" help:"Enable debug logging"`

	Parse   ParseCmd     `cmd:"" help:"Parse a song file and print the normalized model"`
	Slides  SlidesCmd    `cmd:"" help:"Plan presentation slides for a song file"`
	Sheet   SheetCmd     `cmd:"" help:"Plan a print sheet for a song file"`
	Library LibraryGroup `cmd:"" help:"Song library operations (add, list, search, show, remove)"`
	Bundle  BundleGroup  `cmd:"" help:"Songbook bundle operations (pack, unpack)"`
	Present PresentCmd   `cmd:"" help:"Run a live presentation session"`
	Version VersionCmd   `cmd:"" help:"Print version information"`
}

// LibraryGroup contains library lifecycle operations.
type LibraryGroup struct {
	DB string `help:"Library database path" default:"strophe.db" type:"path"`

	Add    LibraryAddCmd    `cmd:"" help:"Add a song file to the library"`
	List   LibraryListCmd   `cmd:"" help:"List all songs in the library"`
	Search LibrarySearchCmd `cmd:"" help:"Search songs by title or text"`
	Show   LibraryShowCmd   `cmd:"" help:"Print a stored song source"`
	Remove LibraryRemoveCmd `cmd:"" help:"Remove a song from the library"`
}

// BundleGroup contains songbook bundle operations.
type BundleGroup struct {
	Pack   BundlePackCmd   `cmd:"" help:"Pack song files into a songbook archive"`
	Unpack BundleUnpackCmd `cmd:"" help:"Unpack a songbook archive"`
}

// readSong reads and parses a song file, printing diagnostics to stderr.
func readSong(path, dialect string) (*song.Song, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	s, diags, err := base.Parse(content, dialect)
	if err != nil {
		return nil, err
	}
	for _, d := range diags {
		fmt.Fprintln(os.Stderr, d.String())
	}
	return s, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ParseCmd parses a song file and prints the normalized model as JSON.
type ParseCmd struct {
	Path    string `arg:"" help:"Song file to parse" type:"existingfile"`
	Dialect string `help:"Force a dialect instead of auto-detecting" enum:",songtext,chordpro,openlyrics" default:""`
}

func (c *ParseCmd) Run() error {
	s, err := readSong(c.Path, c.Dialect)
	if err != nil {
		return err
	}
	return printJSON(s)
}

// SlidesCmd plans presentation slides for a song file.
type SlidesCmd struct {
	Path    string `arg:"" help:"Song file to plan" type:"existingfile"`
	Dialect string `help:"Force a dialect instead of auto-detecting" default:""`

	MaxLines     int    `help:"Maximum lines per slide" default:"4"`
	KeepTogether bool   `help:"Keep each part on a single slide"`
	NoRepeats    bool   `help:"Do not expand repeat counts into separate slides"`
	NoTitle      bool   `help:"Skip the title slide"`
	Meta         string `help:"Meta text template, e.g. '{{.title}} ({{.author}})'"`
	Spoiler      bool   `help:"Show the next slide's first line as a spoiler"`
	Text         bool   `help:"Print slides as text instead of JSON"`
}

func (c *SlidesCmd) Run() error {
	s, err := readSong(c.Path, c.Dialect)
	if err != nil {
		return err
	}
	cfg := plan.DefaultPresentationConfig()
	cfg.MaxLinesPerSlide = c.MaxLines
	cfg.KeepPartTogether = c.KeepTogether
	cfg.ExpandRepeats = !c.NoRepeats
	cfg.ShowTitleSlide = !c.NoTitle
	cfg.MetaTemplate = c.Meta
	cfg.ShowSpoiler = c.Spoiler

	p, err := plan.Presentation(s, cfg)
	if err != nil {
		return err
	}
	if c.Text {
		fmt.Print(renderSlidesText(p))
		return nil
	}
	return printJSON(p)
}

// SheetCmd plans a print sheet for a song file.
type SheetCmd struct {
	Path      string `arg:"" help:"Song file to plan" type:"existingfile"`
	Dialect   string `help:"Force a dialect instead of auto-detecting" default:""`
	Transpose int    `help:"Transpose chords by this many semitones" default:"0"`
	Text      bool   `help:"Print the sheet as text instead of JSON"`
}

func (c *SheetCmd) Run() error {
	s, err := readSong(c.Path, c.Dialect)
	if err != nil {
		return err
	}
	cfg := plan.DefaultSheetConfig()
	cfg.Transpose = c.Transpose

	p, err := plan.Sheet(s, cfg)
	if err != nil {
		return err
	}
	if c.Text {
		fmt.Print(renderSheetText(p))
		return nil
	}
	return printJSON(p)
}

// LibraryAddCmd adds a song file to the library.
type LibraryAddCmd struct {
	Path    string `arg:"" help:"Song file to add" type:"existingfile"`
	Dialect string `help:"Force a dialect instead of auto-detecting" default:""`
}

func (c *LibraryAddCmd) Run(g *LibraryGroup) error {
	store, err := library.Open(g.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	content, err := os.ReadFile(c.Path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", c.Path, err)
	}
	entry, err := store.Add(content, c.Dialect)
	if err != nil {
		return err
	}
	fmt.Printf("%s  %s (%s)\n", entry.ID, entry.Title, entry.Dialect)
	return nil
}

// LibraryListCmd lists all songs in the library.
type LibraryListCmd struct{}

func (c *LibraryListCmd) Run(g *LibraryGroup) error {
	store, err := library.Open(g.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List()
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Printf("%s  %s (%s)\n", e.ID, e.Title, e.Dialect)
	}
	return nil
}

// LibrarySearchCmd searches songs by title or text.
type LibrarySearchCmd struct {
	Query string `arg:"" help:"Search text"`
}

func (c *LibrarySearchCmd) Run(g *LibraryGroup) error {
	store, err := library.Open(g.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Search(c.Query)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Printf("%s  %s (%s)\n", e.ID, e.Title, e.Dialect)
	}
	return nil
}

// LibraryShowCmd prints a stored song source.
type LibraryShowCmd struct {
	ID string `arg:"" help:"Song ID"`
}

func (c *LibraryShowCmd) Run(g *LibraryGroup) error {
	store, err := library.Open(g.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	entry, err := store.Get(c.ID)
	if err != nil {
		return err
	}
	fmt.Print(entry.Source)
	return nil
}

// LibraryRemoveCmd removes a song from the library.
type LibraryRemoveCmd struct {
	ID string `arg:"" help:"Song ID"`
}

func (c *LibraryRemoveCmd) Run(g *LibraryGroup) error {
	store, err := library.Open(g.DB)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Delete(c.ID)
}

// BundlePackCmd packs song files into a songbook archive.
type BundlePackCmd struct {
	Out   string   `required:"" help:"Output archive path" type:"path"`
	Name  string   `help:"Songbook name" default:"Songbook"`
	Gzip  bool     `help:"Use gzip compression instead of xz"`
	Paths []string `arg:"" help:"Song files to pack" type:"existingfile"`
}

func (c *BundlePackCmd) Run() error {
	var songs []bundle.SongFile
	for _, path := range c.Paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		name := path
		if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
			name = path[idx+1:]
		}
		songs = append(songs, bundle.SongFile{Name: name, Content: content})
	}
	opts := bundle.DefaultPackOptions()
	if c.Gzip {
		opts.Compression = bundle.CompressionGzip
	}
	manifest, err := bundle.Pack(c.Out, c.Name, songs, opts)
	if err != nil {
		return err
	}
	fmt.Printf("packed %d songs into %s\n", len(manifest.Songs), c.Out)
	return nil
}

// BundleUnpackCmd unpacks a songbook archive.
type BundleUnpackCmd struct {
	Path string `arg:"" help:"Songbook archive" type:"existingfile"`
	Out  string `help:"Output directory" default:"." type:"path"`
}

func (c *BundleUnpackCmd) Run() error {
	manifest, songs, err := bundle.Unpack(c.Path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.Out, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", c.Out, err)
	}
	for _, sf := range songs {
		dest := c.Out + "/" + sf.Name
		if err := os.WriteFile(dest, sf.Content, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", dest, err)
		}
	}
	fmt.Printf("unpacked %q: %d songs into %s\n", manifest.Name, len(songs), c.Out)
	return nil
}

// PresentCmd runs a live presentation session over WebSocket.
type PresentCmd struct {
	Path    string `arg:"" optional:"" help:"Song file to present" type:"existingfile"`
	ID      string `help:"Present a library song by ID instead of a file"`
	DB      string `help:"Library database path" default:"strophe.db" type:"path"`
	Dialect string `help:"Force a dialect instead of auto-detecting" default:""`
	Addr    string `help:"Listen address" default:":8080"`

	MaxLines int    `help:"Maximum lines per slide" default:"4"`
	Meta     string `help:"Meta text template"`
}

func (c *PresentCmd) song() (*song.Song, error) {
	if c.ID != "" {
		store, err := library.Open(c.DB)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		s, diags, err := store.Song(c.ID)
		if err != nil {
			return nil, err
		}
		for _, d := range diags {
			fmt.Fprintln(os.Stderr, d.String())
		}
		return s, nil
	}
	if c.Path == "" {
		return nil, fmt.Errorf("either a song file or --id is required")
	}
	return readSong(c.Path, c.Dialect)
}

func (c *PresentCmd) Run() error {
	s, err := c.song()
	if err != nil {
		return err
	}
	cfg := plan.DefaultPresentationConfig()
	cfg.MaxLinesPerSlide = c.MaxLines
	cfg.MetaTemplate = c.Meta

	p, err := plan.Presentation(s, cfg)
	if err != nil {
		return err
	}

	hub := live.NewHub()
	go hub.Run()
	session := live.NewSession(hub)
	if err := session.Load(p); err != nil {
		return err
	}
	return live.Serve(c.Addr, session)
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("strophe %s (sqlite driver: %s)\n", version, sqlite.DriverType())
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("strophe"),
		kong.Description("strophe - song markup parsing, slide and sheet planning"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	if CLI.Verbose {
		logging.InitLogger(logging.LevelDebug, logging.FormatText)
	}
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
