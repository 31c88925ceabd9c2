package placeholder

import (
	"image/color"
	"testing"
)

func TestCreatePlaceholder(t *testing.T) {
	img, err := CreatePlaceholder(
		640, 360,
		color.RGBA{A: 255},
		color.RGBA{R: 255, G: 255, B: 255, A: 255},
		"Hello, World!",
		true,
	)
	if err != nil {
		t.Fatal(err)
	}

	size := img.Bounds().Size()
	if size.X != 640 || size.Y != 360 {
		t.Fatalf("Expected 640x360, got %v", size)
	}

	r, g, b, _ := img.At(0, 0).RGBA()
	if r != 0 || g != 0 || b != 0 {
		t.Fatalf("Expected black background, got %d %d %d", r, g, b)
	}
}
