// Package report describes a finished harvest run and renders it as
// Markdown.
package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
)

type File struct {
	Name   string
	Width  int
	Height int
}

// Summary holds the per-stage counts of one run.
type Summary struct {
	RunID     string
	Subject   string
	Prefix    string
	Dir       string
	Provider  string
	Policy    string
	Target    int
	StartedAt time.Time
	Duration  time.Duration

	Queries        int
	ProviderErrors int
	Written        int
	FetchSkipped   int

	Considered   int
	Kept         int
	Rejected     int
	DecodeErrors int

	Renamed          int
	Deleted          int
	FilesystemErrors int

	Files []File
}

// Short is the one line summary logged at the end of a run.
func (s *Summary) Short() string {
	return fmt.Sprintf("%d/%d images in %s (%d fetched, %d rejected, %d undecodable)",
		len(s.Files), s.Target, s.Dir, s.Written, s.Rejected, s.DecodeErrors)
}

// WriteMarkdown renders s to w.
func WriteMarkdown(w io.Writer, s *Summary) error {
	md := markdown.NewMarkdown(w)

	md.H1("Harvest Report: " + s.Subject)
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run", "`" + s.RunID + "`"},
			{"Started", s.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", s.Duration.Round(time.Millisecond).String()},
			{"Directory", "`" + s.Dir + "`"},
			{"Prefix", "`" + s.Prefix + "`"},
			{"Provider", s.Provider},
			{"Policy", s.Policy},
			{"Target", strconv.Itoa(s.Target)},
		},
	})
	md.PlainText("")

	md.H2("Stages")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Stage", "Metric", "Count"},
		Rows: [][]string{
			{"fetch", "queries", strconv.Itoa(s.Queries)},
			{"fetch", "provider errors", strconv.Itoa(s.ProviderErrors)},
			{"fetch", "candidates written", strconv.Itoa(s.Written)},
			{"fetch", "skipped", strconv.Itoa(s.FetchSkipped)},
			{"normalize", "considered", strconv.Itoa(s.Considered)},
			{"normalize", "kept", strconv.Itoa(s.Kept)},
			{"normalize", "rejected", strconv.Itoa(s.Rejected)},
			{"normalize", "decode errors", strconv.Itoa(s.DecodeErrors)},
			{"finalize", "renamed", strconv.Itoa(s.Renamed)},
			{"finalize", "deleted", strconv.Itoa(s.Deleted)},
			{"all", "filesystem errors", strconv.Itoa(s.FilesystemErrors)},
		},
	})
	md.PlainText("")

	md.H2("Files")
	md.PlainText("")
	if len(s.Files) == 0 {
		md.PlainText("No images were kept.")
	} else {
		items := make([]string, len(s.Files))
		for i, f := range s.Files {
			items[i] = fmt.Sprintf("`%s` %dx%d", f.Name, f.Width, f.Height)
		}
		md.BulletList(items...)
	}
	md.PlainText("")

	return md.Build()
}
