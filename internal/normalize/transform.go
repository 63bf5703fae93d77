package normalize

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// StretchResize resizes img to exactly w x h with a Lanczos filter.
func StretchResize(img image.Image, w, h int) *image.NRGBA {
	return imaging.Resize(img, w, h, imaging.Lanczos)
}

// PadSquare places img unscaled in the middle of a square canvas whose
// side is the longer of its two dimensions. Odd differences put the extra
// pixel on the right or bottom.
func PadSquare(img image.Image, background color.Color) *image.NRGBA {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	side := max(w, h)

	canvas := imaging.New(side, side, background)
	return imaging.Paste(canvas, img, image.Pt((side-w)/2, (side-h)/2))
}

// CropSquare cuts the largest centered square out of img.
func CropSquare(img image.Image) *image.NRGBA {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	side := min(w, h)

	left := bounds.Min.X + (w-side)/2
	top := bounds.Min.Y + (h-side)/2
	return imaging.Crop(img, image.Rect(left, top, left+side, top+side))
}
