package sink

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

var ErrNotOpened = errors.New("sink is not opened")

// Driver encodes frames into an output.
// Flush pushes out whatever the encoder still holds, Close releases the output afterwards.
type Driver interface {
	Name() string
	Open() error
	Write(frame gocv.Mat) error
	Flush() error
	Close() error
}

type Options struct {
	Width     int
	Height    int
	FrameRate float64
}

// CheckFrame makes sure frame is a BGR frame of the given size
func CheckFrame(frame gocv.Mat, width, height int) error {
	if frame.Empty() {
		return errors.New("empty frame")
	}
	if frame.Channels() != 3 {
		return fmt.Errorf("expected 3 channels, got %d", frame.Channels())
	}
	if width > 0 && height > 0 && (frame.Cols() != width || frame.Rows() != height) {
		return fmt.Errorf("expected %dx%d, got %dx%d", width, height, frame.Cols(), frame.Rows())
	}
	return nil
}
