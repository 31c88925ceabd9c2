package detector

import (
	"image"

	"gocv.io/x/gocv"
)

// Driver finds faces in a single channel frame
type Driver interface {
	Detect(gray gocv.Mat) ([]image.Rectangle, error)
	Close() error
}
