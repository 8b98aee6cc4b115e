package ioutils

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func solid(size int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func sameRGB(a, b color.Color) bool {
	ar, ag, ab, _ := a.RGBA()
	br, bg, bb, _ := b.RGBA()
	return ar == br && ag == bg && ab == bb
}

func TestImageService_WindowShift(t *testing.T) {
	svc := NewImageService()

	src := solid(4, color.Black)
	src.Set(1, 1, color.White)

	// Window starting one pixel up-left of the origin moves content by (+1, +1).
	got := svc.Window(src, image.Rect(-1, -1, 3, 3), 4)

	if !sameRGB(got.At(2, 2), color.White) {
		t.Errorf("pixel (2,2) = %v, want white", got.At(2, 2))
	}
	if !sameRGB(got.At(1, 1), color.Black) {
		t.Errorf("pixel (1,1) = %v, want black", got.At(1, 1))
	}
	if !sameRGB(got.At(0, 0), color.Black) {
		t.Errorf("out-of-bounds pixel (0,0) = %v, want black", got.At(0, 0))
	}
}

func TestImageService_WindowOutside(t *testing.T) {
	svc := NewImageService()
	src := solid(4, color.White)

	got := svc.Window(src, image.Rect(100, 100, 104, 104), 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if !sameRGB(got.At(x, y), color.Black) {
				t.Fatalf("pixel (%d,%d) = %v, want black", x, y, got.At(x, y))
			}
		}
	}
}

func TestImageService_WindowResample(t *testing.T) {
	svc := NewImageService()
	red := color.RGBA{R: 255, A: 255}
	src := solid(8, red)

	got := svc.Window(src, image.Rect(0, 0, 8, 8), 4)
	if got.Bounds().Dx() != 4 || got.Bounds().Dy() != 4 {
		t.Fatalf("Window() bounds = %v", got.Bounds())
	}
	if !sameRGB(got.At(2, 2), red) {
		t.Errorf("pixel (2,2) = %v, want red", got.At(2, 2))
	}
}

func TestImageService_Stitch(t *testing.T) {
	svc := NewImageService()
	white := solid(2, color.White)

	canvas := svc.Stitch([][]image.Image{{nil, white}, {white, nil}}, 2)

	if canvas.Bounds() != image.Rect(0, 0, 4, 4) {
		t.Fatalf("Stitch() bounds = %v", canvas.Bounds())
	}
	if !sameRGB(canvas.At(3, 0), color.White) {
		t.Error("top-right tile should be white")
	}
	if !sameRGB(canvas.At(0, 0), color.Black) {
		t.Error("missing top-left tile should be black")
	}
	if !sameRGB(canvas.At(1, 3), color.White) {
		t.Error("bottom-left tile should be white")
	}
}

func TestImageService_EncodeDecode(t *testing.T) {
	svc := NewImageService()
	img := solid(4, color.White)

	for _, ext := range []string{".png", ".jpg", "jpeg", ".PNG"} {
		t.Run(ext, func(t *testing.T) {
			data, err := svc.Encode(img, ext)
			if err != nil {
				t.Fatalf("Encode(%q) error = %v", ext, err)
			}
			back, err := svc.Decode(data)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if back.Bounds().Dx() != 4 {
				t.Errorf("decoded width = %d, want 4", back.Bounds().Dx())
			}
		})
	}

	if _, err := svc.Encode(img, ".bmp"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Encode(.bmp) error = %v, want ErrUnsupportedFormat", err)
	}
}
