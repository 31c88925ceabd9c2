package preview

import (
	"errors"
	"sync/atomic"

	"github.com/allape/faceblur/pipeline/sink"
	"gocv.io/x/gocv"
)

// Driver JPEG encodes every Every-th frame into a Hub
type Driver struct {
	sink.Driver

	count atomic.Uint64

	Hub     *Hub
	Quality int
	Every   int
}

func (d *Driver) Name() string {
	return "preview"
}

func (d *Driver) Open() error {
	if d.Hub == nil {
		return errors.New("hub is nil")
	}
	return nil
}

func (d *Driver) Write(frame gocv.Mat) error {
	n := d.count.Add(1)
	if d.Every > 1 && (n-1)%uint64(d.Every) != 0 {
		return nil
	}

	err := sink.CheckFrame(frame, 0, 0)
	if err != nil {
		return err
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, frame, []int{gocv.IMWriteJpegQuality, d.Quality})
	if err != nil {
		return err
	}
	defer buf.Close()

	// the native buffer is released on return
	jpeg := make([]byte, buf.Len())
	copy(jpeg, buf.GetBytes())

	d.Hub.Publish(jpeg)

	return nil
}

func (d *Driver) Flush() error {
	return nil
}

func (d *Driver) Close() error {
	return nil
}

type Options struct {
	Quality int
	Every   int
}

func NewDriver(hub *Hub, options *Options) sink.Driver {
	if options == nil {
		options = &Options{}
	}

	if options.Quality == 0 {
		options.Quality = 75
	}
	if options.Every == 0 {
		options.Every = 1
	}

	return &Driver{
		Hub:     hub,
		Quality: options.Quality,
		Every:   options.Every,
	}
}
