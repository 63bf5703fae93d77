package main

import (
	"github.com/image-harvest/internal/app"
	"github.com/spf13/cobra"
)

// jobFlags holds the job fields set on the command line. Only flags the
// user actually passed override the job loaded from file.
type jobFlags struct {
	values  *app.Job
	setters map[string]func(dst *app.Job)
}

func bindJobFlags(cmd *cobra.Command) *jobFlags {
	f := &jobFlags{values: app.NewJob(), setters: map[string]func(*app.Job){}}
	v := f.values
	flags := cmd.Flags()

	flags.StringVar(&v.Subject, "subject", "", "Subject to search for")
	f.on("subject", func(j *app.Job) { j.Subject = v.Subject })
	flags.StringArrayVar(&v.Variants, "variant", nil, "Phrase appended to the subject, one query each (repeatable; \"\" for the bare subject)")
	f.on("variant", func(j *app.Job) { j.Variants = v.Variants })
	flags.StringArrayVar(&v.Phrases, "phrase", nil, "Explicit search phrase (repeatable; replaces subject variants)")
	f.on("phrase", func(j *app.Job) { j.Phrases = v.Phrases })
	flags.StringVar(&v.Prefix, "prefix", "", "Output file prefix (default: slug of the subject)")
	f.on("prefix", func(j *app.Job) { j.Prefix = v.Prefix })
	flags.StringVar(&v.Dir, "dir", "", "Output directory (default: <output-root>/<prefix>)")
	f.on("dir", func(j *app.Job) { j.Dir = v.Dir })

	flags.StringVar(&v.Provider, "provider", v.Provider, "Image source: bing, duckduckgo or urls")
	f.on("provider", func(j *app.Job) { j.Provider = v.Provider })
	flags.StringArrayVar(&v.URLs, "url", nil, "Image URL for the urls provider (repeatable)")
	f.on("url", func(j *app.Job) { j.URLs = v.URLs })
	flags.IntVar(&v.PerQuery, "per-query", v.PerQuery, "Images requested per search phrase")
	f.on("per-query", func(j *app.Job) { j.PerQuery = v.PerQuery })
	flags.IntVar(&v.FetchBudget, "fetch-budget", 0, "Maximum candidates downloaded per run (default: twice the target)")
	f.on("fetch-budget", func(j *app.Job) { j.FetchBudget = v.FetchBudget })
	flags.Var(&v.MinSize, "min-size", "Smallest accepted download, WIDTHxHEIGHT")
	f.on("min-size", func(j *app.Job) { j.MinSize = v.MinSize })
	flags.Var(&v.MaxSize, "max-size", "Largest accepted download, WIDTHxHEIGHT")
	f.on("max-size", func(j *app.Job) { j.MaxSize = v.MaxSize })
	flags.DurationVar(&v.QueryDelay, "delay", v.QueryDelay, "Pause between search phrases")
	f.on("delay", func(j *app.Job) { j.QueryDelay = v.QueryDelay })

	flags.IntVar(&v.Target, "target", v.Target, "Number of images to keep")
	f.on("target", func(j *app.Job) { j.Target = v.Target })
	flags.StringVar(&v.Policy, "policy", v.Policy, "Normalization policy: stretch, pad or crop")
	f.on("policy", func(j *app.Job) { j.Policy = v.Policy })
	flags.IntVar(&v.Width, "width", v.Width, "Stretch target width")
	f.on("width", func(j *app.Job) { j.Width = v.Width })
	flags.IntVar(&v.Height, "height", v.Height, "Stretch target height")
	f.on("height", func(j *app.Job) { j.Height = v.Height })
	flags.IntVar(&v.PadSize, "pad-size", 0, "Resize padded squares to this side (0 keeps the natural side)")
	f.on("pad-size", func(j *app.Job) { j.PadSize = v.PadSize })
	flags.StringVar(&v.Background, "background", v.Background, "Pad and transparency fill color")
	f.on("background", func(j *app.Job) { j.Background = v.Background })
	flags.IntVar(&v.MinSide, "min-side", 0, "Reject candidates whose shorter side is below this")
	f.on("min-side", func(j *app.Job) { j.MinSide = v.MinSide })
	flags.BoolVar(&v.AspectGate, "aspect-gate", false, "Reject candidates far from the target aspect ratio")
	f.on("aspect-gate", func(j *app.Job) { j.AspectGate = v.AspectGate })
	flags.Float64Var(&v.Aspect, "aspect", 0, "Target aspect ratio for the gate (default: width/height for stretch, 1 otherwise)")
	f.on("aspect", func(j *app.Job) { j.Aspect = v.Aspect })
	flags.Float64Var(&v.AspectTolerance, "aspect-tolerance", v.AspectTolerance, "Allowed relative aspect ratio deviation")
	f.on("aspect-tolerance", func(j *app.Job) { j.AspectTolerance = v.AspectTolerance })

	return f
}

func (f *jobFlags) on(name string, set func(dst *app.Job)) {
	f.setters[name] = set
}

func (f *jobFlags) apply(cmd *cobra.Command, job *app.Job) {
	for name, set := range f.setters {
		if cmd.Flags().Changed(name) {
			set(job)
		}
	}
}
