package normalize

import (
	"image"
	"image/color"
	"testing"

	"github.com/image-harvest/internal/testimage"
)

func TestParsePolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{in: "stretch", want: Stretch},
		{in: "PAD", want: Pad},
		{in: " crop ", want: Crop},
		{in: "square", want: Pad},
		{in: "letterbox", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParsePolicy(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParsePolicy(%q): expected %v, got %v (err %v)", tt.in, tt.want, got, err)
		}
		if back, _ := ParsePolicy(got.String()); back != got {
			t.Errorf("String round trip failed for %v", got)
		}
	}
}

func TestStretchResize(t *testing.T) {
	t.Parallel()

	for _, size := range [][2]int{{1920, 1080}, {300, 900}, {64, 64}, {7, 3}} {
		out := StretchResize(testimage.New(size[0], size[1]), 128, 72)
		if got := out.Bounds().Size(); got != image.Pt(128, 72) {
			t.Errorf("stretch %dx%d: expected 128x72, got %v", size[0], size[1], got)
		}
	}
}

func sameColor(a, b color.Color) bool {
	r1, g1, b1, a1 := a.RGBA()
	r2, g2, b2, a2 := b.RGBA()
	return r1 == r2 && g1 == g2 && b1 == b2 && a1 == a2
}

func TestPadSquare(t *testing.T) {
	t.Parallel()

	t.Run("landscape is padded top and bottom", func(t *testing.T) {
		t.Parallel()

		src := testimage.New(30, 20)
		out := PadSquare(src, color.White)

		if got := out.Bounds().Size(); got != image.Pt(30, 30) {
			t.Fatalf("expected 30x30, got %v", got)
		}
		if !sameColor(out.At(0, 4), color.White) {
			t.Errorf("expected padding at row 4, got %v", out.At(0, 4))
		}
		if !sameColor(out.At(0, 5), src.At(0, 0)) {
			t.Errorf("expected source pixel at row 5, got %v", out.At(0, 5))
		}
		if !sameColor(out.At(29, 24), src.At(29, 19)) {
			t.Errorf("expected last source row at 24, got %v", out.At(29, 24))
		}
		if !sameColor(out.At(29, 25), color.White) {
			t.Errorf("expected padding at row 25, got %v", out.At(29, 25))
		}
	})

	t.Run("odd difference differs by one pixel", func(t *testing.T) {
		t.Parallel()

		src := testimage.New(20, 31)
		out := PadSquare(src, color.Black)

		if got := out.Bounds().Size(); got != image.Pt(31, 31) {
			t.Fatalf("expected 31x31, got %v", got)
		}
		// 11 columns of padding: 5 on the left, 6 on the right.
		if !sameColor(out.At(4, 0), color.Black) || !sameColor(out.At(5, 0), src.At(0, 0)) {
			t.Error("expected 5 columns of padding on the left")
		}
		if !sameColor(out.At(24, 0), src.At(19, 0)) || !sameColor(out.At(25, 0), color.Black) {
			t.Error("expected 6 columns of padding on the right")
		}
	})

	t.Run("square input is unchanged in size", func(t *testing.T) {
		t.Parallel()

		out := PadSquare(testimage.New(16, 16), color.White)
		if got := out.Bounds().Size(); got != image.Pt(16, 16) {
			t.Errorf("expected 16x16, got %v", got)
		}
	})
}

func TestCropSquare(t *testing.T) {
	t.Parallel()

	t.Run("landscape keeps the center columns", func(t *testing.T) {
		t.Parallel()

		src := testimage.New(40, 20)
		out := CropSquare(src)

		if got := out.Bounds().Size(); got != image.Pt(20, 20) {
			t.Fatalf("expected 20x20, got %v", got)
		}
		if !sameColor(out.At(0, 0), src.At(10, 0)) {
			t.Errorf("expected crop to start at column 10")
		}
	})

	t.Run("portrait keeps the center rows", func(t *testing.T) {
		t.Parallel()

		src := testimage.New(21, 50)
		out := CropSquare(src)

		if got := out.Bounds().Size(); got != image.Pt(21, 21) {
			t.Fatalf("expected 21x21, got %v", got)
		}
		if !sameColor(out.At(0, 0), src.At(0, 14)) {
			t.Errorf("expected crop to start at row 14")
		}
	})

	t.Run("sub image with offset bounds", func(t *testing.T) {
		t.Parallel()

		src := testimage.New(60, 40).SubImage(image.Rect(10, 10, 50, 30))
		out := CropSquare(src)

		if got := out.Bounds().Size(); got != image.Pt(20, 20) {
			t.Fatalf("expected 20x20, got %v", got)
		}
		if !sameColor(out.At(0, 0), src.At(20, 10)) {
			t.Errorf("expected crop to start at absolute column 20")
		}
	})
}

func TestAspectGate(t *testing.T) {
	t.Parallel()

	hd := AspectGate{Enabled: true, Aspect: 1280.0 / 720.0, Tolerance: 0.2}

	tests := []struct {
		name   string
		gate   AspectGate
		width  int
		height int
		want   bool
	}{
		{name: "exact match", gate: hd, width: 1920, height: 1080, want: true},
		{name: "within tolerance", gate: hd, width: 1280, height: 800, want: true},
		{name: "square is too far from 16:9", gate: hd, width: 800, height: 800, want: false},
		{name: "4:3 is outside 20 percent", gate: hd, width: 640, height: 480, want: false},
		{name: "4:3 passes at 30 percent", gate: AspectGate{Enabled: true, Aspect: 16.0 / 9.0, Tolerance: 0.3}, width: 640, height: 480, want: true},
		{name: "disabled gate accepts anything", gate: AspectGate{Aspect: 16.0 / 9.0, Tolerance: 0.2}, width: 100, height: 1000, want: true},
		{name: "zero aspect means square", gate: AspectGate{Enabled: true, Tolerance: 0.1}, width: 105, height: 100, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, got := tt.gate.Allows(tt.width, tt.height); got != tt.want {
				t.Errorf("Allows(%d, %d): expected %v, got %v", tt.width, tt.height, tt.want, got)
			}
		})
	}
}
