package helper

import (
	"image"
	"testing"
)

func TestClampRect(t *testing.T) {
	bounds := image.Rect(0, 0, 640, 480)

	r := ClampRect(image.Rect(-10, -10, 50, 50), bounds)
	if r != image.Rect(0, 0, 50, 50) {
		t.Fatalf("Expected (0,0)-(50,50), got %v", r)
	}

	r = ClampRect(image.Rect(600, 400, 700, 500), bounds)
	if r != image.Rect(600, 400, 640, 480) {
		t.Fatalf("Expected (600,400)-(640,480), got %v", r)
	}

	r = ClampRect(image.Rect(700, 500, 800, 600), bounds)
	if !r.Empty() {
		t.Fatalf("Expected empty, got %v", r)
	}
}

func TestPadRect(t *testing.T) {
	r := PadRect(image.Rect(100, 100, 200, 200), 0.1)
	if r != image.Rect(90, 90, 210, 210) {
		t.Fatalf("Expected (90,90)-(210,210), got %v", r)
	}

	r = PadRect(image.Rect(100, 100, 200, 200), 0)
	if r != image.Rect(100, 100, 200, 200) {
		t.Fatalf("Expected unchanged, got %v", r)
	}
}

func TestMergeOverlapping(t *testing.T) {
	rects := []image.Rectangle{
		image.Rect(0, 0, 10, 10),
		image.Rect(100, 100, 110, 110),
		image.Rect(5, 5, 20, 20),
		image.Rect(18, 18, 30, 30),
	}

	merged := MergeOverlapping(rects)
	if len(merged) != 2 {
		t.Fatalf("Expected 2 rects, got %v", merged)
	}
	if merged[0] != image.Rect(0, 0, 30, 30) {
		t.Fatalf("Expected (0,0)-(30,30), got %v", merged[0])
	}
	if merged[1] != image.Rect(100, 100, 110, 110) {
		t.Fatalf("Expected (100,100)-(110,110), got %v", merged[1])
	}

	// input stays untouched
	if rects[0] != image.Rect(0, 0, 10, 10) || len(rects) != 4 {
		t.Fatalf("Input modified: %v", rects)
	}
}

func TestPrepareRegions(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 100)

	regions := PrepareRegions([]image.Rectangle{
		image.Rect(90, 90, 110, 110),
		image.Rect(200, 200, 210, 210),
	}, bounds, 0.5)

	if len(regions) != 1 {
		t.Fatalf("Expected 1 region, got %v", regions)
	}
	if regions[0] != image.Rect(80, 80, 100, 100) {
		t.Fatalf("Expected (80,80)-(100,100), got %v", regions[0])
	}
}
