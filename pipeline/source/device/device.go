package device

import (
	"context"
	"fmt"
	"sync"

	"github.com/allape/faceblur/config"
	"github.com/allape/faceblur/helper"
	"github.com/allape/faceblur/pipeline/source"
	"github.com/allape/gogger"
	"gocv.io/x/gocv"
)

var l = gogger.New("source.device")

type Device struct {
	source.Driver

	locker sync.Locker

	WebCam *gocv.VideoCapture

	Src           string
	Width         int
	Height        int
	FrameRate     float64
	FlipCode      config.FlipCode
	SetupCommands []config.ShellCommand
}

func (d *Device) Open() error {
	d.locker.Lock()
	defer d.locker.Unlock()

	if d.WebCam != nil {
		return nil
	}

	outputs, err := helper.RunSetupCommands(d.SetupCommands)
	for _, output := range outputs {
		l.Verbose().Println("setup command:", output)
	}
	if err != nil {
		return fmt.Errorf("setup command: %w", err)
	}

	// numeric src is a device index, anything else a path or an url
	webcam, err := gocv.OpenVideoCapture(d.Src)
	if err != nil {
		return err
	}
	if !webcam.IsOpened() {
		_ = webcam.Close()
		return fmt.Errorf("unable to open video source %s", d.Src)
	}

	if d.Width > 0 && d.Height > 0 {
		webcam.Set(gocv.VideoCaptureFrameWidth, float64(d.Width))
		webcam.Set(gocv.VideoCaptureFrameHeight, float64(d.Height))
	}
	if d.FrameRate > 0 {
		webcam.Set(gocv.VideoCaptureFPS, d.FrameRate)
	}

	l.Info().Printf(
		"opened video source %s: %.0fx%.0f@%.2f",
		d.Src,
		webcam.Get(gocv.VideoCaptureFrameWidth),
		webcam.Get(gocv.VideoCaptureFrameHeight),
		webcam.Get(gocv.VideoCaptureFPS),
	)

	d.WebCam = webcam

	return nil
}

func (d *Device) Close() error {
	d.locker.Lock()
	defer d.locker.Unlock()

	if d.WebCam == nil {
		return nil
	}

	err := d.WebCam.Close()
	d.WebCam = nil
	return err
}

// GetFrameRate returns the configured rate, or what the camera reports once opened
func (d *Device) GetFrameRate() float64 {
	if d.FrameRate > 0 {
		return d.FrameRate
	}

	d.locker.Lock()
	defer d.locker.Unlock()

	if d.WebCam == nil {
		return 0
	}
	return d.WebCam.Get(gocv.VideoCaptureFPS)
}

func (d *Device) Read(_ context.Context, dst *gocv.Mat) error {
	d.locker.Lock()
	defer d.locker.Unlock()

	if d.WebCam == nil {
		return source.ErrNotOpened
	}

	if ok := d.WebCam.Read(dst); !ok {
		return source.ErrReadFailed
	}
	if dst.Empty() {
		return source.ErrEmptyFrame
	}

	if d.FlipCode != config.NoFlip {
		gocv.Flip(*dst, dst, int(d.FlipCode))
	}

	return nil
}

type Options struct {
	source.Options
}

func NewDevice(src string, options *Options) source.Driver {
	if options == nil {
		options = &Options{
			Options: source.Options{
				FlipCode: config.NoFlip,
			},
		}
	}

	return &Device{
		locker: &sync.Mutex{},

		Src:           src,
		Width:         options.Width,
		Height:        options.Height,
		FrameRate:     options.FrameRate,
		FlipCode:      options.FlipCode,
		SetupCommands: options.SetupCommands,
	}
}
