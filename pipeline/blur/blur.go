package blur

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Driver overwrites regions of frame in place with filtered pixels.
// Regions must lie inside the frame.
type Driver interface {
	Blur(frame *gocv.Mat, regions []image.Rectangle) error
}

type Gaussian struct {
	Driver

	Kernel int
	Sigma  float64
}

func (g *Gaussian) Blur(frame *gocv.Mat, regions []image.Rectangle) error {
	for _, r := range regions {
		if err := checkRegion(frame, r); err != nil {
			return err
		}

		face := frame.Region(r)
		gocv.GaussianBlur(face, &face, image.Point{X: g.Kernel, Y: g.Kernel}, g.Sigma, g.Sigma, gocv.BorderDefault)
		_ = face.Close()
	}
	return nil
}

// Pixelate replaces each PixelSize block of a region with its average color
type Pixelate struct {
	Driver

	PixelSize int
}

func (p *Pixelate) Blur(frame *gocv.Mat, regions []image.Rectangle) error {
	small := gocv.NewMat()
	defer func() {
		_ = small.Close()
	}()

	for _, r := range regions {
		if err := checkRegion(frame, r); err != nil {
			return err
		}

		size := image.Point{
			X: max(1, r.Dx()/p.PixelSize),
			Y: max(1, r.Dy()/p.PixelSize),
		}

		face := frame.Region(r)
		gocv.Resize(face, &small, size, 0, 0, gocv.InterpolationArea)
		gocv.Resize(small, &face, r.Size(), 0, 0, gocv.InterpolationNearestNeighbor)
		_ = face.Close()
	}
	return nil
}

func checkRegion(frame *gocv.Mat, r image.Rectangle) error {
	bounds := image.Rect(0, 0, frame.Cols(), frame.Rows())
	if r.Empty() || !r.In(bounds) {
		return fmt.Errorf("region %v is outside of frame %v", r, bounds)
	}
	return nil
}

func NewGaussian(kernel int, sigma float64) Driver {
	if kernel <= 0 {
		kernel = 99
	}
	if kernel%2 == 0 {
		kernel++
	}
	return &Gaussian{
		Kernel: kernel,
		Sigma:  sigma,
	}
}

func NewPixelate(pixelSize int) Driver {
	if pixelSize <= 0 {
		pixelSize = 16
	}
	return &Pixelate{
		PixelSize: pixelSize,
	}
}
