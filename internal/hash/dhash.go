// Package hash computes perceptual fingerprints for catalogued images.
package hash

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math/bits"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// Bits is the length of a dHash fingerprint.
const Bits = 64

func DHashFile(path string) (uint64, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return 0, fmt.Errorf("dhash: open %s: %w", path, err)
	}
	return DHash64FromImage(img), nil
}

func DHash64(r io.Reader) (uint64, error) {
	img, err := imaging.Decode(r)
	if err != nil {
		return 0, fmt.Errorf("dhash: decode: %w", err)
	}
	return DHash64FromImage(img), nil
}

// DHash64FromImage shrinks img to 9x8 and sets one bit per horizontal
// neighbour pair whose left pixel is brighter.
func DHash64FromImage(img image.Image) uint64 {
	dst := image.NewRGBA(image.Rect(0, 0, 9, 8))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)

	var h uint64
	var bit uint
	for y := 0; y < 8; y++ {
		var row [9]uint8
		for x := 0; x < 9; x++ {
			row[x] = luma8(dst.At(x, y))
		}
		for x := 0; x < 8; x++ {
			if row[x] > row[x+1] {
				h |= 1 << bit
			}
			bit++
		}
	}
	return h
}

// Vector spreads the hash bits into a 0/1 vector so Euclidean distance in
// pgvector matches the square root of the Hamming distance.
func Vector(h uint64) []float32 {
	out := make([]float32, Bits)
	for i := range out {
		if h&(1<<uint(i)) != 0 {
			out[i] = 1
		}
	}
	return out
}

func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

func luma8(c color.Color) uint8 {
	r, g, b, _ := c.RGBA()
	R := uint32(r >> 8)
	G := uint32(g >> 8)
	B := uint32(b >> 8)
	Y := (299*R + 587*G + 114*B + 500) / 1000
	return uint8(Y)
}
