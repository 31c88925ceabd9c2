package source

import (
	"context"
	"errors"

	"github.com/allape/faceblur/config"
	"gocv.io/x/gocv"
)

var (
	ErrNotOpened  = errors.New("source is not opened")
	ErrClosed     = errors.New("source is closed")
	ErrReadFailed = errors.New("failed to read frame")
	ErrEmptyFrame = errors.New("empty frame")
)

// Driver
// A frame producer, Read decodes the next frame into dst, reusing its buffer.
// ErrClosed means no more frames will come.
type Driver interface {
	Open() error
	Close() error

	GetFrameRate() float64
	Read(ctx context.Context, dst *gocv.Mat) error
}

type Options struct {
	Width         int
	Height        int
	FrameRate     float64
	FlipCode      config.FlipCode
	SetupCommands []config.ShellCommand
}
