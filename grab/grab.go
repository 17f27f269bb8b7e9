// Package grab runs one download from page URL to file on disk.
package grab

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/muesli/reflow/wordwrap"
	"github.com/rpdl/rpdl/color"
	"github.com/rpdl/rpdl/download"
	"github.com/rpdl/rpdl/filesystem"
	"github.com/rpdl/rpdl/history"
	"github.com/rpdl/rpdl/hls"
	"github.com/rpdl/rpdl/icon"
	"github.com/rpdl/rpdl/log"
	"github.com/rpdl/rpdl/network"
	"github.com/rpdl/rpdl/progress"
	"github.com/rpdl/rpdl/prompt"
	"github.com/rpdl/rpdl/raiplay"
	"github.com/rpdl/rpdl/style"
	"github.com/rpdl/rpdl/util"
	"github.com/samber/lo"
)

// ErrNoVariants is returned when a variant has to be chosen but the master
// playlist lists none with a resolution.
var ErrNoVariants = errors.New("no variants with a resolution")

// Mode selects the artifact to produce.
type Mode int

const (
	// ModeStream assembles the segments of the chosen variant into a .ts file.
	ModeStream Mode = iota
	// ModeDirect copies the direct media URL into a .mp4 file.
	ModeDirect
	// ModeManifest saves the master playlist of the chosen variant.
	ModeManifest
	// ModeInfos writes the JSON sidecar.
	ModeInfos
)

func (m Mode) extension() string {
	switch m {
	case ModeDirect:
		return ".mp4"
	case ModeManifest:
		return ".m3u8"
	case ModeInfos:
		return ".json"
	default:
		return ".ts"
	}
}

func (m Mode) kind() history.Kind {
	switch m {
	case ModeDirect:
		return history.KindDirect
	case ModeManifest:
		return history.KindManifest
	case ModeInfos:
		return history.KindInfos
	default:
		return history.KindStream
	}
}

// Options configures Run.
type Options struct {
	URL   string
	Mode  Mode
	Quiet bool

	// Dir is where the artifact is written, the working directory when empty.
	Dir string

	Client    network.Client
	UserAgent string
	Parallel  int

	// Select picks a variant label. Defaults to a numbered prompt on In/Out.
	Select func(labels []string) (int, error)

	// Sink overrides the progress bar drawn on Out.
	Sink progress.Sink

	SaveHistory bool

	In  io.Reader
	Out io.Writer
}

func (o *Options) defaults() {
	if o.Client == nil {
		o.Client = network.New(network.OptionsFromConfig())
	}

	if o.In == nil {
		o.In = os.Stdin
	}

	if o.Out == nil {
		o.Out = os.Stdout
	}

	if o.Select == nil {
		o.Select = func(labels []string) (int, error) {
			return prompt.SelectIndex(o.In, o.Out, labels)
		}
	}
}

func (o *Options) sink(bytes bool) progress.Sink {
	if o.Sink != nil {
		return o.Sink
	}
	return progress.NewBar(o.Out, bytes)
}

func (o *Options) printf(format string, args ...any) {
	if !o.Quiet {
		fmt.Fprintf(o.Out, format, args...)
	}
}

// Run resolves options.URL and writes the artifact selected by options.Mode.
// It returns the path of the written file.
func Run(ctx context.Context, options Options) (string, error) {
	options.defaults()

	options.printf("%s Fetching video metadata... ", icon.Get(icon.Progress))
	infos, err := raiplay.Extract(ctx, options.Client, options.URL, raiplay.Options{UserAgent: options.UserAgent})
	if err != nil {
		options.printf("\n")
		return "", err
	}
	options.printf("%s\n", style.Fg(color.Green)("done"))

	if !options.Quiet {
		describe(options.Out, infos)
	}

	if options.Dir != "" {
		if err := filesystem.API().MkdirAll(options.Dir, os.ModePerm); err != nil {
			return "", fmt.Errorf("%w: create %s: %w", download.ErrIO, options.Dir, err)
		}
	}

	path := filepath.Join(options.Dir, infos.Filename()+options.Mode.extension())

	var variant *hls.Variant
	switch options.Mode {
	case ModeInfos:
		if err := infos.WriteSidecar(path); err != nil {
			return "", fmt.Errorf("%w: write %s: %w", download.ErrIO, path, err)
		}

	case ModeDirect:
		options.printf("%s Downloading %s\n", icon.Get(icon.Download), style.Faint(infos.DirectURL))
		if err := download.Direct(ctx, options.Client, infos.DirectURL, path, options.sink(true)); err != nil {
			return path, err
		}

	default:
		variant, err = choose(infos, options.Select)
		if err != nil {
			return "", err
		}

		if options.Mode == ModeManifest {
			if err := variant.SaveMaster(path); err != nil {
				return "", fmt.Errorf("%w: write %s: %w", download.ErrIO, path, err)
			}
			break
		}

		options.printf("%s Downloading %s\n", icon.Get(icon.Download), variant)
		err = download.Assemble(ctx, options.Client, variant, path, options.sink(false), download.Options{Parallel: options.Parallel})
		if err != nil {
			return path, err
		}
	}

	options.printf("%s Saved %s\n", icon.Get(icon.Success), style.Bold(path))

	if options.SaveHistory {
		record(options, infos, variant, path)
	}

	return path, nil
}

func choose(infos *raiplay.VideoInfos, selectFn func([]string) (int, error)) (*hls.Variant, error) {
	if len(infos.Variants) == 0 {
		return nil, ErrNoVariants
	}

	labels := lo.Map(infos.Variants, func(v *hls.Variant, _ int) string {
		return v.String()
	})

	index, err := selectFn(labels)
	if err != nil {
		return nil, err
	}

	if index < 0 || index >= len(infos.Variants) {
		return nil, fmt.Errorf("%w: index %d out of range", prompt.ErrNoSelection, index)
	}

	return infos.Variants[index], nil
}

func describe(out io.Writer, infos *raiplay.VideoInfos) {
	fmt.Fprintf(out, "\n%s %s\n", icon.Get(icon.Video), style.Bold(infos.Title()))

	if subtitle := infos.Metadata.Subtitle(); subtitle != "" && subtitle != infos.Title() {
		fmt.Fprintln(out, style.Italic(subtitle))
	}

	facts := lo.Compact([]string{
		infos.Metadata.Channel(),
		infos.Metadata.DatePublished(),
		infos.Metadata.Duration(),
	})
	if len(facts) > 0 {
		fmt.Fprintln(out, style.Faint(strings.Join(facts, " · ")))
	}

	if description := infos.Metadata.Description(); description != "" {
		width := util.Min(util.TerminalWidth(80), 100)
		fmt.Fprintln(out, style.Faint(wordwrap.String(description, width)))
	}

	fmt.Fprintln(out)
}

// record stores the download in the history. Failures only end up in the log.
func record(options Options, infos *raiplay.VideoInfos, variant *hls.Variant, path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	size, err := filesystem.Size(path)
	if err != nil {
		log.Warnf("stat %s: %v", path, err)
	}

	entry := &history.Record{
		Title:     infos.Title(),
		ContentID: infos.Metadata.ID(),
		PageURL:   infos.PageURL,
		Path:      abs,
		Kind:      options.Mode.kind(),
		Size:      size,
	}
	if variant != nil {
		entry.Resolution = variant.Resolution
	}

	if err := history.Save(entry); err != nil {
		log.Warnf("save history: %v", err)
	}
}
