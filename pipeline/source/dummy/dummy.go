package dummy

import (
	"context"
	"fmt"
	"image/color"
	"sync"

	"github.com/allape/faceblur/helper/placeholder"
	"github.com/allape/faceblur/pipeline/source"
	"gocv.io/x/gocv"
)

// Driver renders a test pattern, useful to check the virtual camera without a real one
type Driver struct {
	source.Driver

	locker sync.Locker
	opened bool
	count  uint64

	Text      string
	Width     int
	Height    int
	FrameRate float64
	Limit     uint64 // frames before ErrClosed, 0 for endless
}

func (d *Driver) Open() error {
	d.locker.Lock()
	defer d.locker.Unlock()
	d.opened = true
	d.count = 0
	return nil
}

func (d *Driver) Close() error {
	d.locker.Lock()
	defer d.locker.Unlock()
	d.opened = false
	return nil
}

func (d *Driver) GetFrameRate() float64 {
	return d.FrameRate
}

func (d *Driver) Read(_ context.Context, dst *gocv.Mat) error {
	d.locker.Lock()
	defer d.locker.Unlock()

	if !d.opened {
		return source.ErrNotOpened
	}
	if d.Limit > 0 && d.count >= d.Limit {
		return source.ErrClosed
	}
	d.count++

	img, err := placeholder.CreatePlaceholder(
		d.Width, d.Height,
		color.RGBA{A: 255},
		color.RGBA{R: 255, G: 255, B: 255, A: 255},
		fmt.Sprintf("%s #%d", d.Text, d.count),
		true,
	)
	if err != nil {
		return err
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return err
	}
	defer func() {
		_ = mat.Close()
	}()

	mat.CopyTo(dst)

	return nil
}

type Options struct {
	source.Options
	Limit uint64
}

func NewDriver(text string, options *Options) source.Driver {
	if options == nil {
		options = &Options{}
	}

	if options.Width == 0 {
		options.Width = 1920
	}
	if options.Height == 0 {
		options.Height = 1080
	}
	if options.FrameRate == 0 {
		options.FrameRate = 30
	}
	if text == "" {
		text = "faceblur"
	}

	return &Driver{
		locker: &sync.Mutex{},

		Text:      text,
		Width:     options.Width,
		Height:    options.Height,
		FrameRate: options.FrameRate,
		Limit:     options.Limit,
	}
}
