package app

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/image-harvest/internal/normalize"
)

func validJob() *Job {
	job := NewJob()
	job.Subject = "Micah Parsons"
	return job
}

func TestResolve(t *testing.T) {
	t.Parallel()

	job := validJob()
	job.Resolve("out")

	if job.Prefix != "micah_parsons" {
		t.Errorf("expected prefix micah_parsons, got %q", job.Prefix)
	}
	if job.Dir != filepath.Join("out", "micah_parsons") {
		t.Errorf("unexpected dir %q", job.Dir)
	}
	if job.FetchBudget != 2*DefaultTarget {
		t.Errorf("expected fetch budget %d, got %d", 2*DefaultTarget, job.FetchBudget)
	}

	named := NewJob()
	named.Name = "Set One"
	named.Phrases = []string{"a b"}
	named.Resolve("")
	if named.Prefix != "set_one" || named.Dir != filepath.Join(DefaultOutputRoot, "set_one") {
		t.Errorf("expected name based prefix, got %q in %q", named.Prefix, named.Dir)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(j *Job)
		want   error
	}{
		{name: "valid", modify: func(j *Job) {}},
		{name: "no subject", modify: func(j *Job) { j.Subject = "  " }, want: ErrNoSubject},
		{name: "phrases replace subject", modify: func(j *Job) { j.Subject = ""; j.Phrases = []string{"x"} }},
		{name: "zero target", modify: func(j *Job) { j.Target = 0 }, want: ErrInvalidTarget},
		{name: "zero per query", modify: func(j *Job) { j.PerQuery = 0 }, want: ErrInvalidPerQuery},
		{name: "negative delay", modify: func(j *Job) { j.QueryDelay = -time.Second }, want: ErrInvalidQueryDelay},
		{name: "unknown provider", modify: func(j *Job) { j.Provider = "altavista" }, want: ErrUnknownProvider},
		{name: "urls without urls", modify: func(j *Job) { j.Provider = "urls" }, want: ErrNoURLs},
		{name: "bad policy", modify: func(j *Job) { j.Policy = "smear" }, want: ErrInvalidPolicy},
		{name: "stretch without size", modify: func(j *Job) { j.Width = 0 }, want: ErrInvalidStretchSize},
		{name: "crop ignores stretch size", modify: func(j *Job) { j.Policy = "crop"; j.Width = 0 }},
		{name: "negative min side", modify: func(j *Job) { j.MinSide = -1 }, want: ErrNegativeSize},
		{name: "tolerance out of range", modify: func(j *Job) { j.AspectGate = true; j.AspectTolerance = 1.5 }, want: ErrInvalidTolerance},
		{name: "size range", modify: func(j *Job) { j.MinSize = Size{800, 600}; j.MaxSize = Size{640, 480} }, want: ErrInvalidSizeRange},
		{name: "bad background", modify: func(j *Job) { j.Background = "#12" }, want: ErrInvalidBackground},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			job := validJob()
			test.modify(job)
			err := job.Validate()
			if test.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, test.want) {
				t.Fatalf("expected %v, got %v", test.want, err)
			}
		})
	}
}

func TestNormalizeOptions(t *testing.T) {
	t.Parallel()

	stretch := validJob()
	stretch.AspectGate = true
	opts := stretch.NormalizeOptions()
	if opts.Policy != normalize.Stretch || opts.Width != 1280 || opts.Height != 720 {
		t.Errorf("unexpected stretch options %+v", opts)
	}
	if want := 1280.0 / 720.0; opts.Gate.Aspect != want || !opts.Gate.Enabled {
		t.Errorf("expected gate aspect %f, got %+v", want, opts.Gate)
	}

	pad := validJob()
	pad.Policy = "pad"
	pad.Background = "#000000"
	opts = pad.NormalizeOptions()
	if opts.Policy != normalize.Pad || opts.Gate.Aspect != 1 {
		t.Errorf("unexpected pad options %+v", opts)
	}
	if r, g, b, _ := opts.Background.RGBA(); r != 0 || g != 0 || b != 0 {
		t.Errorf("expected black background, got %v", opts.Background)
	}
}

func TestParseColor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want color.Color
		err  bool
	}{
		{in: "", want: color.White},
		{in: "White", want: color.White},
		{in: "#ff8000", want: color.RGBA{R: 0xff, G: 0x80, A: 0xff}},
		{in: "00ff00", want: color.RGBA{G: 0xff, A: 0xff}},
		{in: "#zzzzzz", err: true},
		{in: "teal", err: true},
	}
	for _, test := range tests {
		got, err := ParseColor(test.in)
		if test.err {
			if err == nil {
				t.Errorf("ParseColor(%q): expected an error", test.in)
			}
			continue
		}
		if err != nil || got != test.want {
			t.Errorf("ParseColor(%q) = %v, %v; want %v", test.in, got, err, test.want)
		}
	}
}

func TestParseSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Size
		err  bool
	}{
		{in: "1280x720", want: Size{1280, 720}},
		{in: " 640 X 480 ", want: Size{640, 480}},
		{in: "", want: Size{}},
		{in: "1280", err: true},
		{in: "ax1", err: true},
		{in: "-1x5", err: true},
	}
	for _, test := range tests {
		got, err := ParseSize(test.in)
		if (err != nil) != test.err || got != test.want {
			t.Errorf("ParseSize(%q) = %v, %v", test.in, got, err)
		}
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "harvest.yaml")
	data := `
output_root: /data/images
jobs:
  - name: parsons
    subject: Micah Parsons
    variants: ["", "cowboys"]
    target: 12
    policy: pad
    pad_size: 512
    min_size: 400x300
    max_size: [4000, 3000]
    query_delay: 2s
  - name: urls
    provider: urls
    urls: [https://example.com/a.jpg]
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	file, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if file.OutputRoot != "/data/images" || len(file.Jobs) != 2 {
		t.Fatalf("unexpected file %+v", file)
	}

	job, err := file.Job("parsons")
	if err != nil {
		t.Fatal(err)
	}
	if job.Target != 12 || job.PadSize != 512 || job.QueryDelay != 2*time.Second {
		t.Errorf("unexpected job %+v", job)
	}
	if job.MinSize != (Size{400, 300}) || job.MaxSize != (Size{4000, 3000}) {
		t.Errorf("unexpected sizes %v %v", job.MinSize, job.MaxSize)
	}
	if job.PerQuery != DefaultPerQuery || job.Width != DefaultWidth {
		t.Errorf("expected defaults for unset fields, got %+v", job)
	}
	if len(job.Queries()) != 2 {
		t.Errorf("expected two queries, got %v", job.Queries())
	}

	urls, err := file.Job("urls")
	if err != nil {
		t.Fatal(err)
	}
	if err := urls.Validate(); err != nil {
		t.Errorf("expected urls job without subject to be valid: %v", err)
	}

	if _, err := file.Job("missing"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestLoadFileMissing(t *testing.T) {
	t.Parallel()

	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("expected ErrConfigNotFound, got %v", err)
	}
	if got := FindFile(filepath.Join(t.TempDir(), "nope.yaml")); got != "" {
		t.Errorf("expected no file, got %q", got)
	}
}

func TestValidateOffline(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		job  func() *Job
		want error
	}{
		{
			name: "prefix only",
			job: func() *Job {
				j := NewJob()
				j.Prefix = "local"
				j.Policy = "crop"
				return j
			},
		},
		{
			name: "name gives the prefix",
			job: func() *Job {
				j := NewJob()
				j.Name = "Local Set"
				return j
			},
		},
		{
			name: "nothing to name files after",
			job:  NewJob,
			want: ErrNoPrefix,
		},
		{
			name: "pending lookalike prefix",
			job: func() *Job {
				j := NewJob()
				j.Prefix = "_pending"
				return j
			},
			want: ErrInvalidPrefix,
		},
		{
			name: "shape errors still apply",
			job: func() *Job {
				j := NewJob()
				j.Prefix = "local"
				j.Target = 0
				return j
			},
			want: ErrInvalidTarget,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			job := test.job()
			job.Resolve(t.TempDir())
			err := job.ValidateOffline()
			if test.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, test.want) {
				t.Fatalf("expected %v, got %v", test.want, err)
			}
		})
	}
}

func TestValidatePrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		prefix string
		ok     bool
	}{
		{prefix: "", ok: true},
		{prefix: "micah_parsons", ok: true},
		{prefix: "Set-2", ok: true},
		{prefix: "_pending", ok: false},
		{prefix: "_x", ok: false},
		{prefix: "..", ok: false},
		{prefix: "../escape", ok: false},
		{prefix: "a/b", ok: false},
		{prefix: `a\b`, ok: false},
	}
	for _, test := range tests {
		err := ValidatePrefix(test.prefix)
		if (err == nil) != test.ok {
			t.Errorf("ValidatePrefix(%q) = %v, want ok=%v", test.prefix, err, test.ok)
		}
		if err != nil && !errors.Is(err, ErrInvalidPrefix) {
			t.Errorf("ValidatePrefix(%q): expected ErrInvalidPrefix, got %v", test.prefix, err)
		}
	}

	job := validJob()
	job.Prefix = "_pending"
	if err := job.Validate(); !errors.Is(err, ErrInvalidPrefix) {
		t.Errorf("expected Validate to reject the prefix, got %v", err)
	}
}
