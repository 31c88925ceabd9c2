package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/allape/faceblur/config"
	"github.com/allape/faceblur/helper"
	"github.com/allape/faceblur/pipeline/source"
	"github.com/allape/gogger"
	"gocv.io/x/gocv"
)

var l = gogger.New("source.shell")

const DefaultReadTimeout = 5 * time.Second

var ErrReadTimeout = errors.New("timeout waiting for frame")

// Driver
// Reads a MJPEG stream from the stdout of a command, e.g. ffmpeg -f v4l2 -i /dev/video0 -f mjpeg -
type Driver struct {
	source.Driver

	src           config.ShellCommand
	setupCommands []config.ShellCommand

	cmd    *exec.Cmd
	locker sync.Locker

	// newest jpeg wins, a slow consumer never sees stale frames
	frames chan []byte
	done   chan struct{}

	FrameRate   float64
	FlipCode    config.FlipCode
	ReadTimeout time.Duration
}

func (d *Driver) Open() error {
	d.locker.Lock()
	defer d.locker.Unlock()

	if d.cmd != nil {
		return nil
	}

	cmd := d.src.ToCommand()
	if cmd == nil {
		return errors.New("command is nil")
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}

	outputs, err := helper.RunSetupCommands(d.setupCommands)
	for _, output := range outputs {
		l.Verbose().Print("setup output:", output)
	}
	if err != nil {
		return fmt.Errorf("setup command: %w", err)
	}

	l.Verbose().Println(cmd.Path, cmd.Args)

	err = cmd.Start()
	if err != nil {
		return err
	}

	d.cmd = cmd
	d.frames = make(chan []byte, 1)
	d.done = make(chan struct{})

	go d.readStdout(stdout, d.frames, d.done)

	go func() {
		buf := make([]byte, 1024)
		for {
			n, err := stderr.Read(buf)
			if err != nil {
				if !errors.Is(err, io.EOF) {
					l.Error().Println(err)
				}
				return
			}
			l.Verbose().Print(string(buf[:n]))
		}
	}()

	return nil
}

func (d *Driver) readStdout(stdout io.Reader, frames chan []byte, done chan struct{}) {
	defer close(done)

	splitter := helper.NewMJPEGSplitter()
	buf := make([]byte, 64*1024)

	for {
		n, err := stdout.Read(buf)
		for _, frame := range splitter.Write(buf[:n]) {
			select {
			case frames <- frame:
			default:
				select {
				case <-frames:
				default:
				}
				frames <- frame
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				l.Verbose().Println(err)
			}
			return
		}
	}
}

func (d *Driver) Close() error {
	d.locker.Lock()
	defer d.locker.Unlock()

	if d.cmd == nil {
		return nil
	}

	cmd := d.cmd
	d.cmd = nil

	err := cmd.Process.Kill()
	_ = cmd.Wait()
	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}

	return nil
}

func (d *Driver) GetFrameRate() float64 {
	return d.FrameRate
}

func (d *Driver) Read(ctx context.Context, dst *gocv.Mat) error {
	d.locker.Lock()
	frames, done := d.frames, d.done
	d.locker.Unlock()

	if frames == nil {
		return source.ErrNotOpened
	}

	timer := time.NewTimer(d.ReadTimeout)
	defer timer.Stop()

	var buf []byte
	select {
	case buf = <-frames:
	case <-done:
		// drain what was split right before the process exited
		select {
		case buf = <-frames:
		default:
			return source.ErrClosed
		}
	case <-timer.C:
		return ErrReadTimeout
	case <-ctx.Done():
		return ctx.Err()
	}

	mat, err := gocv.IMDecode(buf, gocv.IMReadColor)
	if err != nil {
		return err
	}
	defer func() {
		_ = mat.Close()
	}()
	if mat.Empty() {
		return source.ErrEmptyFrame
	}

	if d.FlipCode != config.NoFlip {
		gocv.Flip(mat, dst, int(d.FlipCode))
	} else {
		mat.CopyTo(dst)
	}

	return nil
}

type Options struct {
	source.Options
	ReadTimeout time.Duration
}

func NewDriver(src config.ShellCommand, options *Options) source.Driver {
	if options == nil {
		options = &Options{
			Options: source.Options{
				FlipCode: config.NoFlip,
			},
		}
	}

	if options.FrameRate == 0 {
		options.FrameRate = 30
	}
	if options.ReadTimeout == 0 {
		options.ReadTimeout = DefaultReadTimeout
	}

	return &Driver{
		src:           src,
		setupCommands: options.SetupCommands,

		locker: &sync.Mutex{},

		FrameRate:   options.FrameRate,
		FlipCode:    options.FlipCode,
		ReadTimeout: options.ReadTimeout,
	}
}
