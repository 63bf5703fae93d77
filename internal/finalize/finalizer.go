// Package finalize gives normalized images their stable names.
package finalize

import (
	"cmp"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/image-harvest/internal/fsutil"
	"github.com/image-harvest/internal/logger"
	"github.com/rs/zerolog"
)

type Result struct {
	Renamed          int
	Deleted          int
	FilesystemErrors int
	// Files are the final names left in the directory, in sequence order.
	Files []string
}

type Finalizer struct {
	log zerolog.Logger
}

func New() *Finalizer {
	return &Finalizer{log: logger.New("finalize")}
}

func (f *Finalizer) WithLogger(l zerolog.Logger) *Finalizer {
	f.log = l
	return f
}

type entry struct {
	name string
	seq  int
}

// Finalize names the kept images in dir prefix_001.jpg .. prefix_NNN.jpg
// with no gaps. Existing finals keep their relative order and come before
// pending outputs. Finals beyond limit and every other image file are
// deleted. Non-image files are left alone. Running it twice changes
// nothing the second time.
func (f *Finalizer) Finalize(dir, prefix string, limit int) (*Result, error) {
	names, err := fsutil.ListImages(dir)
	if err != nil {
		return nil, fmt.Errorf("finalize: list %s: %w", dir, err)
	}

	var finals, pending []entry
	var strays []string
	for _, name := range names {
		if seq, ok := fsutil.ParseFinal(prefix, name); ok {
			finals = append(finals, entry{name: name, seq: seq})
			continue
		}
		if seq, ok := fsutil.ParsePending(name); ok {
			pending = append(pending, entry{name: name, seq: seq})
			continue
		}
		strays = append(strays, name)
	}

	bySeq := func(a, b entry) int {
		return cmp.Or(cmp.Compare(a.seq, b.seq), cmp.Compare(a.name, b.name))
	}
	slices.SortFunc(finals, bySeq)
	slices.SortFunc(pending, bySeq)
	ordered := append(finals, pending...)

	result := &Result{}
	remove := func(name, reason string) {
		if err := fsutil.Remove(filepath.Join(dir, name)); err != nil {
			result.FilesystemErrors++
			f.log.Warn().Err(err).Msg("could not delete")
			return
		}
		result.Deleted++
		f.log.Debug().Str("file", name).Str("reason", reason).Msg("deleted")
	}

	if limit >= 0 && len(ordered) > limit {
		for _, e := range ordered[limit:] {
			remove(e.name, "over target")
		}
		ordered = ordered[:limit]
	}

	// Targets are handed out in ascending order, so a target can only be
	// held by a later entry when a name is not in its canonical form
	// (prefix_0001.jpg). That entry is parked under a fresh pending name.
	index := make(map[string]int, len(ordered))
	nextPending := 1
	for i, e := range ordered {
		index[e.name] = i
	}
	for _, e := range pending {
		nextPending = max(nextPending, e.seq+1)
	}

	for i, e := range ordered {
		target := fsutil.FinalName(prefix, i+1)
		if e.name == target {
			result.Files = append(result.Files, target)
			continue
		}
		if j, ok := index[target]; ok && j > i {
			parked := fsutil.PendingName(nextPending)
			nextPending++
			if err := fsutil.Rename(filepath.Join(dir, target), filepath.Join(dir, parked)); err != nil {
				result.FilesystemErrors++
				f.log.Warn().Err(err).Msg("could not move aside")
				continue
			}
			delete(index, target)
			ordered[j].name = parked
			index[parked] = j
		}
		if err := fsutil.Rename(filepath.Join(dir, e.name), filepath.Join(dir, target)); err != nil {
			result.FilesystemErrors++
			f.log.Warn().Err(err).Msg("could not rename")
			continue
		}
		delete(index, e.name)
		result.Renamed++
		result.Files = append(result.Files, target)
		f.log.Debug().Str("from", e.name).Str("to", target).Msg("renamed")
	}

	for _, name := range strays {
		remove(name, "stray")
	}

	f.log.Info().
		Str("dir", dir).
		Int("files", len(result.Files)).
		Int("renamed", result.Renamed).
		Int("deleted", result.Deleted).
		Msg("finalized")
	return result, nil
}
