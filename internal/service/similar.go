package service

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/image-harvest/internal/hash"
	"github.com/image-harvest/internal/store"
)

const DefaultSimilarLimit = 10

type imageSearcher interface {
	Similar(ctx context.Context, fingerprint []float32, limit int) ([]store.ImageMatch, error)
}

type SimilarService struct {
	images imageSearcher
}

type SimilarResult struct {
	ID     int64   `json:"id"`
	Prefix string  `json:"prefix"`
	Path   string  `json:"path"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Bits   int     `json:"distance"`
	Score  float32 `json:"score"`
}

func NewSimilarService(images imageSearcher) *SimilarService {
	return &SimilarService{images: images}
}

// Similar fingerprints the image read from r and returns the closest
// catalogued images, best first.
func (s *SimilarService) Similar(ctx context.Context, r io.Reader, limit int) ([]SimilarResult, error) {
	if limit <= 0 {
		limit = DefaultSimilarLimit
	}

	h, err := hash.DHash64(r)
	if err != nil {
		return nil, fmt.Errorf("service: fingerprint: %w", err)
	}

	matches, err := s.images.Similar(ctx, hash.Vector(h), limit)
	if err != nil {
		return nil, fmt.Errorf("service: similar: %w", err)
	}
	if len(matches) == 0 {
		return []SimilarResult{}, nil
	}

	out := make([]SimilarResult, 0, len(matches))
	for _, m := range matches {
		bits := hash.Distance(h, m.Hash)
		out = append(out, SimilarResult{
			ID:     m.ID,
			Prefix: m.Prefix,
			Path:   m.Path,
			Width:  m.Width,
			Height: m.Height,
			Bits:   bits,
			Score:  1 - float32(bits)/hash.Bits,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Bits == out[j].Bits {
			return out[i].ID < out[j].ID
		}
		return out[i].Bits < out[j].Bits
	})
	return out, nil
}
