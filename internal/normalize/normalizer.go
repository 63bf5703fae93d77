package normalize

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/image-harvest/internal/fsutil"
	"github.com/image-harvest/internal/logger"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
)

const JPEGQuality = 95

// AspectGate rejects candidates whose width/height ratio is more than
// Tolerance (a fraction of Aspect) away from Aspect. It runs before any
// resizing.
type AspectGate struct {
	Enabled   bool
	Aspect    float64
	Tolerance float64
}

// Allows returns the candidate's aspect ratio and whether it passes.
func (g AspectGate) Allows(width, height int) (float64, bool) {
	ratio := float64(width) / float64(height)
	if !g.Enabled {
		return ratio, true
	}
	aspect := g.Aspect
	if aspect <= 0 {
		aspect = 1
	}
	return ratio, math.Abs(ratio-aspect)/aspect <= g.Tolerance
}

type Options struct {
	Policy Policy
	// Width and Height are the stretch target.
	Width  int
	Height int
	// PadSize resizes the padded square canvas; 0 keeps its natural side.
	PadSize    int
	Background color.Color
	// MinSide rejects candidates whose shorter side is below it.
	MinSide int
	Gate    AspectGate
}

type Result struct {
	Considered       int
	Kept             int
	Rejected         int
	DecodeErrors     int
	FilesystemErrors int
	// Pending holds the written outputs in the order they were produced.
	Pending []string
}

// Normalizer turns candidate files into pending outputs of one fixed
// shape. It is not safe to run two normalizers on the same directory.
type Normalizer struct {
	opts     Options
	prefix   string
	log      zerolog.Logger
	progress io.Writer
}

type Option func(*Normalizer)

func WithLogger(l zerolog.Logger) Option {
	return func(n *Normalizer) { n.log = l }
}

// WithProgress draws a progress bar on w.
func WithProgress(w io.Writer) Option {
	return func(n *Normalizer) { n.progress = w }
}

// New returns a normalizer that leaves files named for prefix alone.
func New(opts Options, prefix string, options ...Option) *Normalizer {
	if opts.Background == nil {
		opts.Background = color.White
	}
	n := &Normalizer{
		opts:     opts,
		prefix:   prefix,
		log:      logger.New("normalize"),
		progress: io.Discard,
	}
	for _, option := range options {
		option(n)
	}
	return n
}

// Run normalizes candidates in dir, in name order, until budget pending
// outputs exist. Pending outputs left over from an earlier run count
// against the budget. Every candidate that is looked at is deleted,
// whatever the outcome; the rest stay for the finalizer.
func (n *Normalizer) Run(dir string, budget int) (*Result, error) {
	names, err := fsutil.ListImages(dir)
	if err != nil {
		return nil, fmt.Errorf("normalize: list %s: %w", dir, err)
	}

	var candidates []string
	nextPending, existing := 1, 0
	for _, name := range names {
		if seq, ok := fsutil.ParsePending(name); ok {
			existing++
			nextPending = max(nextPending, seq+1)
			continue
		}
		if _, ok := fsutil.ParseFinal(n.prefix, name); ok {
			continue
		}
		candidates = append(candidates, name)
	}

	result := &Result{}
	bar := progressbar.NewOptions(len(candidates),
		progressbar.OptionSetWriter(n.progress),
		progressbar.OptionSetDescription("normalizing"),
		progressbar.OptionClearOnFinish(),
	)
	defer func() { _ = bar.Finish() }()

	for _, name := range candidates {
		if existing+result.Kept >= budget {
			n.log.Debug().Int("kept", result.Kept).Msg("target reached")
			break
		}
		result.Considered++

		source := filepath.Join(dir, name)
		output := fsutil.PendingName(nextPending)
		err := n.process(source, filepath.Join(dir, output))

		var decodeErr *DecodeError
		var rejection *Rejection
		var fsErr *fsutil.FilesystemError
		switch {
		case err == nil:
			result.Kept++
			result.Pending = append(result.Pending, output)
			nextPending++
		case errors.As(err, &rejection):
			result.Rejected++
			n.log.Info().Str("file", name).Str("reason", rejection.Reason).Msg("skipped")
		case errors.As(err, &decodeErr):
			result.DecodeErrors++
			n.log.Warn().Err(decodeErr.Err).Str("file", name).Msg("could not decode")
		case errors.As(err, &fsErr):
			result.FilesystemErrors++
			n.log.Warn().Err(err).Str("file", name).Msg("could not write output")
		default:
			result.DecodeErrors++
			n.log.Warn().Err(err).Str("file", name).Msg("could not process")
		}

		if err := fsutil.Remove(source); err != nil {
			result.FilesystemErrors++
			n.log.Warn().Err(err).Msg("could not delete candidate")
		}
		_ = bar.Add(1)
	}

	return result, nil
}

func (n *Normalizer) process(source, output string) error {
	img, err := decode(source)
	if err != nil {
		return err
	}

	name := filepath.Base(source)
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return &DecodeError{File: name, Err: errors.New("empty image")}
	}

	if ratio, ok := n.opts.Gate.Allows(width, height); !ok {
		return &Rejection{
			File:   name,
			Reason: fmt.Sprintf("aspect ratio %.2f too different from %.2f", ratio, n.opts.Gate.Aspect),
		}
	}
	if n.opts.MinSide > 0 && min(width, height) < n.opts.MinSide {
		return &Rejection{File: name, Reason: fmt.Sprintf("too small (%dx%d)", width, height)}
	}

	out := n.Apply(img)
	if err := encode(output, out, n.opts.Background); err != nil {
		return err
	}

	size := out.Bounds().Size()
	n.log.Info().
		Str("file", name).
		Str("from", fmt.Sprintf("%dx%d", width, height)).
		Str("to", fmt.Sprintf("%dx%d", size.X, size.Y)).
		Str("policy", n.opts.Policy.String()).
		Msg("processed")
	return nil
}

// Apply runs the configured policy on img without any gating.
func (n *Normalizer) Apply(img image.Image) image.Image {
	switch n.opts.Policy {
	case Pad:
		canvas := PadSquare(img, n.opts.Background)
		if n.opts.PadSize > 0 {
			return imaging.Resize(canvas, n.opts.PadSize, n.opts.PadSize, imaging.Lanczos)
		}
		return canvas
	case Crop:
		return CropSquare(img)
	default:
		return StretchResize(img, n.opts.Width, n.opts.Height)
	}
}

func decode(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{File: filepath.Base(path), Err: err}
	}
	defer func() { _ = file.Close() }()

	img, err := imaging.Decode(file, imaging.AutoOrientation(true))
	if err != nil {
		return nil, &DecodeError{File: filepath.Base(path), Err: err}
	}
	return img, nil
}

// encode writes img as JPEG. Transparent areas are flattened onto
// background first. A partial file is removed on failure.
func encode(path string, img image.Image, background color.Color) error {
	if opaque, ok := img.(interface{ Opaque() bool }); !ok || !opaque.Opaque() {
		bounds := img.Bounds()
		flat := imaging.New(bounds.Dx(), bounds.Dy(), background)
		img = imaging.Overlay(flat, img, image.Pt(0, 0), 1.0)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return &fsutil.FilesystemError{Op: "create", Path: path, Err: err}
	}

	encodeErr := imaging.Encode(file, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality))
	closeErr := file.Close()
	if err := errors.Join(encodeErr, closeErr); err != nil {
		_ = os.Remove(path)
		return &fsutil.FilesystemError{Op: "write", Path: path, Err: err}
	}
	return nil
}
