package file

import (
	"fmt"
	"strings"
	"sync"

	"github.com/allape/faceblur/pipeline/sink"
	"github.com/allape/gogger"
	"gocv.io/x/gocv"
)

var l = gogger.New("sink.file")

var fourccs = map[string]string{
	"mjpeg": "MJPG",
	"mjpg":  "MJPG",
	"h264":  "avc1",
	"mp4v":  "mp4v",
	"xvid":  "XVID",
}

// FourCC maps an ffmpeg style codec name to the fourcc OpenCV expects, 4 letter names pass through
func FourCC(codec string) (string, error) {
	if fourcc, ok := fourccs[strings.ToLower(codec)]; ok {
		return fourcc, nil
	}
	if len(codec) == 4 {
		return codec, nil
	}
	return "", fmt.Errorf("unknown codec: %s", codec)
}

// Driver records frames into a video file through OpenCV's VideoWriter
type Driver struct {
	sink.Driver

	locker sync.Locker
	writer *gocv.VideoWriter

	Dst       string
	Codec     string
	Width     int
	Height    int
	FrameRate float64
}

func (d *Driver) Name() string {
	return "file:" + d.Dst
}

func (d *Driver) Open() error {
	d.locker.Lock()
	defer d.locker.Unlock()

	if d.writer != nil {
		return nil
	}

	fourcc, err := FourCC(d.Codec)
	if err != nil {
		return err
	}

	writer, err := gocv.VideoWriterFile(d.Dst, fourcc, d.FrameRate, d.Width, d.Height, true)
	if err != nil {
		return err
	}
	if !writer.IsOpened() {
		_ = writer.Close()
		return fmt.Errorf("unable to open video writer %s", d.Dst)
	}

	l.Info().Printf("recording to %s: %s %dx%d@%.2f", d.Dst, fourcc, d.Width, d.Height, d.FrameRate)

	d.writer = writer

	return nil
}

func (d *Driver) Write(frame gocv.Mat) error {
	d.locker.Lock()
	defer d.locker.Unlock()

	if d.writer == nil {
		return sink.ErrNotOpened
	}

	err := sink.CheckFrame(frame, d.Width, d.Height)
	if err != nil {
		return err
	}

	return d.writer.Write(frame)
}

// Flush is a no-op, VideoWriter finalizes the container on Close
func (d *Driver) Flush() error {
	return nil
}

func (d *Driver) Close() error {
	d.locker.Lock()
	defer d.locker.Unlock()

	if d.writer == nil {
		return nil
	}

	err := d.writer.Close()
	d.writer = nil
	return err
}

type Options struct {
	sink.Options
	Codec string
}

func NewDriver(dst string, options *Options) sink.Driver {
	if options == nil {
		options = &Options{}
	}

	if options.Codec == "" {
		options.Codec = "mjpeg"
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

	return &Driver{
		locker: &sync.Mutex{},

		Dst:       dst,
		Codec:     options.Codec,
		Width:     options.Width,
		Height:    options.Height,
		FrameRate: options.FrameRate,
	}
}
