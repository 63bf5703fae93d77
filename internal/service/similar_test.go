package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/image-harvest/internal/hash"
	"github.com/image-harvest/internal/store"
	"github.com/image-harvest/internal/testimage"
)

type fakeSearcher struct {
	matches []store.ImageMatch
	limit   int
}

func (f *fakeSearcher) Similar(_ context.Context, fingerprint []float32, limit int) ([]store.ImageMatch, error) {
	f.limit = limit
	return f.matches, nil
}

func TestSimilar(t *testing.T) {
	t.Parallel()

	h := hash.DHash64FromImage(testimage.New(90, 80))
	searcher := &fakeSearcher{matches: []store.ImageMatch{
		{Image: store.Image{ID: 3, Prefix: "far", Hash: ^h}},
		{Image: store.Image{ID: 2, Prefix: "same", Hash: h}},
		{Image: store.Image{ID: 1, Prefix: "near", Hash: h ^ 0b11}},
	}}

	results, err := NewSimilarService(searcher).Similar(context.Background(), bytes.NewReader(testimage.PNG(t, 90, 80)), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if searcher.limit != DefaultSimilarLimit {
		t.Errorf("expected default limit %d, got %d", DefaultSimilarLimit, searcher.limit)
	}
	order := []string{"same", "near", "far"}
	for i, r := range results {
		if r.Prefix != order[i] {
			t.Errorf("result %d: expected %s, got %s", i, order[i], r.Prefix)
		}
	}
	if results[0].Score != 1 || results[1].Bits != 2 || results[2].Bits != 64 {
		t.Errorf("unexpected scores %+v", results)
	}
}

func TestSimilarRejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, err := NewSimilarService(&fakeSearcher{}).Similar(context.Background(), bytes.NewReader([]byte("x")), 5); err == nil {
		t.Fatal("expected an error")
	}
}
