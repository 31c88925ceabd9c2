package helper

import (
	"image"
	"slices"
)

// ClampRect cuts r down to bounds, an empty rectangle means nothing is left
func ClampRect(r image.Rectangle, bounds image.Rectangle) image.Rectangle {
	return r.Canon().Intersect(bounds)
}

// PadRect grows r by ratio of its own width and height on every side.
//
//	a 100x100 face with 0.1 padding becomes 120x120
func PadRect(r image.Rectangle, ratio float64) image.Rectangle {
	if ratio <= 0 {
		return r
	}
	dx := int(float64(r.Dx()) * ratio)
	dy := int(float64(r.Dy()) * ratio)
	return image.Rect(r.Min.X-dx, r.Min.Y-dy, r.Max.X+dx, r.Max.Y+dy)
}

// MergeOverlapping joins rectangles that overlap into their union until none overlap
func MergeOverlapping(rects []image.Rectangle) []image.Rectangle {
	merged := slices.Clone(rects)

	for changed := true; changed; {
		changed = false
		for i := 0; i < len(merged); i++ {
			for j := i + 1; j < len(merged); j++ {
				if !merged[i].Overlaps(merged[j]) {
					continue
				}
				merged[i] = merged[i].Union(merged[j])
				merged = slices.Delete(merged, j, j+1)
				changed = true
				j--
			}
		}
	}

	return merged
}

// PrepareRegions pads, clamps and merges detections, dropping whatever ends up empty
func PrepareRegions(rects []image.Rectangle, bounds image.Rectangle, padding float64) []image.Rectangle {
	regions := make([]image.Rectangle, 0, len(rects))
	for _, r := range rects {
		r = ClampRect(PadRect(r, padding), bounds)
		if r.Empty() {
			continue
		}
		regions = append(regions, r)
	}
	return MergeOverlapping(regions)
}
