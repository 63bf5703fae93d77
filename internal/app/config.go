package app

import (
	"fmt"
	"image/color"
	"path/filepath"
	"strings"
	"time"

	"github.com/image-harvest/internal/normalize"
	"github.com/image-harvest/internal/provider"
	"github.com/image-harvest/internal/query"
)

const (
	DefaultTarget          = 30
	DefaultPerQuery        = 15
	DefaultProvider        = "bing"
	DefaultPolicy          = "stretch"
	DefaultWidth           = 1280
	DefaultHeight          = 720
	DefaultAspectTolerance = 0.2
	DefaultBackground      = "#ffffff"
	DefaultQueryDelay      = 1 * time.Second
	DefaultOutputRoot      = "images"
)

type Config struct {
	DatabaseUrl string
	OutputRoot  string
	ConfigPath  string
	ReportPath  string
	WebEndpoint string
	Verbose     bool
}

// Job describes one harvest: what to search for, how many images to keep
// and which shape they end up in.
type Job struct {
	Name     string   `yaml:"name"`
	Subject  string   `yaml:"subject"`
	Phrases  []string `yaml:"phrases"`
	Variants []string `yaml:"variants"`
	Prefix   string   `yaml:"prefix"`
	Dir      string   `yaml:"dir"`

	Provider    string        `yaml:"provider"`
	URLs        []string      `yaml:"urls"`
	PerQuery    int           `yaml:"per_query"`
	FetchBudget int           `yaml:"fetch_budget"`
	MinSize     Size          `yaml:"min_size"`
	MaxSize     Size          `yaml:"max_size"`
	QueryDelay  time.Duration `yaml:"query_delay"`

	Target          int     `yaml:"target"`
	Policy          string  `yaml:"policy"`
	Width           int     `yaml:"width"`
	Height          int     `yaml:"height"`
	PadSize         int     `yaml:"pad_size"`
	Background      string  `yaml:"background"`
	MinSide         int     `yaml:"min_side"`
	AspectGate      bool    `yaml:"aspect_gate"`
	Aspect          float64 `yaml:"aspect"`
	AspectTolerance float64 `yaml:"aspect_tolerance"`
}

func NewJob() *Job {
	return &Job{
		Provider:        DefaultProvider,
		PerQuery:        DefaultPerQuery,
		QueryDelay:      DefaultQueryDelay,
		Target:          DefaultTarget,
		Policy:          DefaultPolicy,
		Width:           DefaultWidth,
		Height:          DefaultHeight,
		Background:      DefaultBackground,
		AspectTolerance: DefaultAspectTolerance,
	}
}

// Resolve fills the fields derived from other fields: the file prefix,
// the working directory under outputRoot and the fetch budget.
func (j *Job) Resolve(outputRoot string) {
	if j.Prefix == "" {
		j.Prefix = query.Slug(j.Subject)
		if j.Prefix == "" && j.Name != "" {
			j.Prefix = query.Slug(j.Name)
		}
		if j.Prefix == "" && j.searches() {
			j.Prefix = "image"
		}
	}
	if j.Dir == "" && j.Prefix != "" {
		if outputRoot == "" {
			outputRoot = DefaultOutputRoot
		}
		j.Dir = filepath.Join(outputRoot, j.Prefix)
	}
	if j.FetchBudget == 0 {
		j.FetchBudget = 2 * j.Target
	}
}

// Validate checks a job that searches before it normalizes.
func (j *Job) Validate() error {
	if strings.TrimSpace(j.Subject) == "" && len(j.Phrases) == 0 && j.Provider != "urls" {
		return ErrNoSubject
	}
	if j.PerQuery <= 0 {
		return ErrInvalidPerQuery
	}
	if j.QueryDelay < 0 {
		return ErrInvalidQueryDelay
	}
	if !provider.Known(j.Provider) {
		return fmt.Errorf("%w: %q", ErrUnknownProvider, j.Provider)
	}
	if j.Provider == "urls" && len(j.URLs) == 0 {
		return ErrNoURLs
	}
	if !j.MaxSize.IsZero() && (j.MinSize.Width > j.MaxSize.Width || j.MinSize.Height > j.MaxSize.Height) {
		return ErrInvalidSizeRange
	}
	return j.validateOutput()
}

// ValidateOffline checks a job that only reprocesses its directory. It
// needs a prefix, given directly or derived from the subject or name,
// but nothing to search for.
func (j *Job) ValidateOffline() error {
	if j.Prefix == "" {
		return ErrNoPrefix
	}
	return j.validateOutput()
}

func (j *Job) validateOutput() error {
	if err := ValidatePrefix(j.Prefix); err != nil {
		return err
	}
	if j.Target <= 0 {
		return ErrInvalidTarget
	}
	policy, err := normalize.ParsePolicy(j.Policy)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}
	if policy == normalize.Stretch && (j.Width <= 0 || j.Height <= 0) {
		return ErrInvalidStretchSize
	}
	if j.PadSize < 0 || j.MinSide < 0 {
		return ErrNegativeSize
	}
	if j.AspectGate && (j.AspectTolerance <= 0 || j.AspectTolerance >= 1) {
		return ErrInvalidTolerance
	}
	if _, err := ParseColor(j.Background); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBackground, err)
	}
	return nil
}

// ValidatePrefix rejects prefixes that could be mistaken for pending
// outputs or that leave the job directory. An empty prefix passes.
func ValidatePrefix(prefix string) error {
	switch {
	case prefix == "":
		return nil
	case strings.HasPrefix(prefix, "_"), strings.HasPrefix(prefix, "."):
		return fmt.Errorf("%w: %q starts with %q", ErrInvalidPrefix, prefix, prefix[:1])
	case strings.ContainsAny(prefix, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidPrefix, prefix)
	}
	return nil
}

func (j *Job) searches() bool {
	return strings.TrimSpace(j.Subject) != "" || len(j.Phrases) > 0 || len(j.URLs) > 0
}

// Queries expands the job into the ordered search phrases. Explicit
// phrases win over subject variants.
func (j *Job) Queries() []query.SearchQuery {
	if len(j.Phrases) > 0 {
		return query.FromPhrases(j.Phrases, j.PerQuery)
	}
	if j.Provider == "urls" && strings.TrimSpace(j.Subject) == "" {
		return query.FromPhrases([]string{"urls"}, j.PerQuery)
	}
	return query.Build(j.Subject, j.Variants, j.PerQuery)
}

func (j *Job) Constraints() provider.SizeConstraints {
	return provider.SizeConstraints{
		MinWidth:  j.MinSize.Width,
		MinHeight: j.MinSize.Height,
		MaxWidth:  j.MaxSize.Width,
		MaxHeight: j.MaxSize.Height,
	}
}

// NormalizeOptions must only be called on a validated job.
func (j *Job) NormalizeOptions() normalize.Options {
	policy, _ := normalize.ParsePolicy(j.Policy)
	background, _ := ParseColor(j.Background)

	aspect := j.Aspect
	if aspect == 0 {
		aspect = 1
		if policy == normalize.Stretch {
			aspect = float64(j.Width) / float64(j.Height)
		}
	}

	return normalize.Options{
		Policy:     policy,
		Width:      j.Width,
		Height:     j.Height,
		PadSize:    j.PadSize,
		Background: background,
		MinSide:    j.MinSide,
		Gate: normalize.AspectGate{
			Enabled:   j.AspectGate,
			Aspect:    aspect,
			Tolerance: j.AspectTolerance,
		},
	}
}

// ParseColor accepts "#rrggbb" or one of a few names.
func ParseColor(s string) (color.Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "white":
		return color.White, nil
	case "black":
		return color.Black, nil
	case "gray", "grey":
		return color.Gray{Y: 128}, nil
	}

	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return nil, fmt.Errorf("invalid color %q", s)
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		return nil, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}
