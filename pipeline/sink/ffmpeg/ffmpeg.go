package ffmpeg

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/allape/faceblur/pipeline/sink"
	"github.com/allape/gogger"
	"gocv.io/x/gocv"
)

var l = gogger.New("sink.ffmpeg")

const DefaultFlushTimeout = 5 * time.Second

// Driver
// Pipes raw bgr24 frames into ffmpeg, which encodes and muxes them into Dst,
// by default a v4l2loopback device with mjpeg in yuvj422p.
type Driver struct {
	sink.Driver

	locker sync.Locker

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	exited chan struct{}
	err    error

	FFmpeg       string
	Dst          string
	Format       string
	Codec        string
	PixFmt       string
	Width        int
	Height       int
	FrameRate    float64
	ExtraArgs    []string
	FlushTimeout time.Duration
}

func (d *Driver) Name() string {
	return "ffmpeg:" + d.Dst
}

// Args builds the ffmpeg command line
func (d *Driver) Args() []string {
	args := []string{
		"-hide_banner", "-loglevel", "warning",
		"-f", "rawvideo",
		"-pix_fmt", "bgr24",
		"-s", fmt.Sprintf("%dx%d", d.Width, d.Height),
		"-r", strconv.FormatFloat(d.FrameRate, 'f', -1, 64),
		"-i", "pipe:0",
	}
	if d.Codec != "" {
		args = append(args, "-c:v", d.Codec)
	}
	if d.PixFmt != "" {
		args = append(args, "-pix_fmt", d.PixFmt)
	}
	args = append(args, d.ExtraArgs...)
	if d.Format != "" {
		args = append(args, "-f", d.Format)
	}
	return append(args, d.Dst)
}

func (d *Driver) Open() error {
	d.locker.Lock()
	defer d.locker.Unlock()

	if d.cmd != nil {
		return nil
	}

	if d.Format == "v4l2" {
		stat, err := os.Stat(d.Dst)
		if err != nil {
			return fmt.Errorf("virtual camera output: %w", err)
		}
		if stat.Mode()&os.ModeCharDevice == 0 {
			return fmt.Errorf("virtual camera output %s is not a character device", d.Dst)
		}
	}

	cmd := exec.Command(d.FFmpeg, d.Args()...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}

	l.Verbose().Println(cmd.Path, cmd.Args)

	err = cmd.Start()
	if err != nil {
		return err
	}

	stderrDone := make(chan struct{})
	go func() {
		defer close(stderrDone)
		buf := make([]byte, 1024)
		for {
			n, err := stderr.Read(buf)
			if err != nil {
				if !errors.Is(err, io.EOF) {
					l.Error().Println(err)
				}
				return
			}
			l.Warn().Print(string(buf[:n]))
		}
	}()

	exited := make(chan struct{})
	go func() {
		<-stderrDone
		err := cmd.Wait()
		d.locker.Lock()
		d.err = err
		d.locker.Unlock()
		close(exited)
	}()

	d.cmd = cmd
	d.stdin = stdin
	d.exited = exited
	d.err = nil

	l.Info().Printf("opened output %s: %s %dx%d@%.2f %s", d.Dst, d.Codec, d.Width, d.Height, d.FrameRate, d.PixFmt)

	return nil
}

func (d *Driver) Write(frame gocv.Mat) error {
	d.locker.Lock()
	stdin, exited := d.stdin, d.exited
	d.locker.Unlock()

	if stdin == nil {
		return sink.ErrNotOpened
	}

	select {
	case <-exited:
		if err := d.exitError(); err != nil {
			return err
		}
		return errors.New("ffmpeg exited")
	default:
	}

	err := sink.CheckFrame(frame, d.Width, d.Height)
	if err != nil {
		return err
	}

	_, err = stdin.Write(frame.ToBytes())
	return err
}

// Flush closes stdin so ffmpeg drains its encoder and finalizes the output, then waits for it
func (d *Driver) Flush() error {
	d.locker.Lock()
	stdin, exited := d.stdin, d.exited
	d.stdin = nil
	d.locker.Unlock()

	if stdin == nil {
		return nil
	}

	err := stdin.Close()
	if err != nil && !errors.Is(err, os.ErrClosed) {
		return err
	}

	timer := time.NewTimer(d.FlushTimeout)
	defer timer.Stop()

	select {
	case <-exited:
		return d.exitError()
	case <-timer.C:
		return fmt.Errorf("ffmpeg did not exit within %s", d.FlushTimeout)
	}
}

func (d *Driver) Close() error {
	d.locker.Lock()
	cmd, stdin, exited := d.cmd, d.stdin, d.exited
	d.cmd = nil
	d.stdin = nil
	d.locker.Unlock()

	if cmd == nil {
		return nil
	}

	if stdin != nil {
		_ = stdin.Close()
	}

	select {
	case <-exited:
		return nil
	default:
	}

	err := cmd.Process.Kill()
	<-exited
	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

func (d *Driver) exitError() error {
	d.locker.Lock()
	defer d.locker.Unlock()
	if d.err != nil {
		return fmt.Errorf("ffmpeg exited: %w", d.err)
	}
	return nil
}

type Options struct {
	sink.Options
	FFmpeg       string
	Format       string
	Codec        string
	PixFmt       string
	ExtraArgs    []string
	FlushTimeout time.Duration
}

func NewDriver(dst string, options *Options) sink.Driver {
	if options == nil {
		options = &Options{}
	}

	if options.FFmpeg == "" {
		options.FFmpeg = "ffmpeg"
	}
	if options.Width == 0 {
		options.Width = 1920
	}
	if options.Height == 0 {
		options.Height = 1080
	}
	if options.FrameRate == 0 {
		options.FrameRate = 60
	}
	if options.FlushTimeout == 0 {
		options.FlushTimeout = DefaultFlushTimeout
	}

	return &Driver{
		locker: &sync.Mutex{},

		FFmpeg:       options.FFmpeg,
		Dst:          dst,
		Format:       options.Format,
		Codec:        options.Codec,
		PixFmt:       options.PixFmt,
		Width:        options.Width,
		Height:       options.Height,
		FrameRate:    options.FrameRate,
		ExtraArgs:    options.ExtraArgs,
		FlushTimeout: options.FlushTimeout,
	}
}
