package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/allape/faceblur/helper"
	"github.com/allape/faceblur/pipeline/blur"
	"github.com/allape/faceblur/pipeline/detector"
	"github.com/allape/faceblur/pipeline/indicator"
	"github.com/allape/faceblur/pipeline/sink"
	"github.com/allape/faceblur/pipeline/source"
	"github.com/allape/gogger"
	"gocv.io/x/gocv"
)

var l = gogger.New("pipeline")

type Options struct {
	// Width and Height of the frames handed to the sinks, 0 keeps the input size
	Width  int
	Height int
	// FrameRate the loop is paced to, 0 for the source frame rate, below 0 for no pacing
	FrameRate float64
	// Padding grows every detected face by this fraction of its size before blurring
	Padding float64
	// MaxReadFailures consecutive read failures end the loop, 0 for never
	MaxReadFailures int
}

// Pipeline
// Reads a frame, blurs the faces in it and writes it to every sink, one frame at a time.
// A failing step skips the current frame only.
type Pipeline struct {
	Source    source.Driver
	Detector  detector.Driver // nil disables detection
	Blur      blur.Driver
	Sinks     []sink.Driver
	Indicator indicator.Driver // nil for none

	Options Options

	stats *Stats

	// reused across frames, only one frame is in flight
	frame gocv.Mat
	bgr   gocv.Mat
	gray  gocv.Mat
	out   gocv.Mat

	faceShown bool
	closeOnce sync.Once
	closeErr  error
}

func New(src source.Driver, det detector.Driver, blr blur.Driver, sinks []sink.Driver, ind indicator.Driver, options Options) (*Pipeline, error) {
	if src == nil {
		return nil, errors.New("source is nil")
	}
	if blr == nil {
		return nil, errors.New("blur is nil")
	}
	if (options.Width > 0) != (options.Height > 0) {
		return nil, fmt.Errorf("invalid output size: %dx%d", options.Width, options.Height)
	}

	return &Pipeline{
		Source:    src,
		Detector:  det,
		Blur:      blr,
		Sinks:     sinks,
		Indicator: ind,
		Options:   options,

		stats: NewStats(),

		frame: gocv.NewMat(),
		bgr:   gocv.NewMat(),
		gray:  gocv.NewMat(),
		out:   gocv.NewMat(),
	}, nil
}

func (p *Pipeline) Stats() Snapshot {
	return p.stats.Snapshot()
}

// Open opens the input, then every output. Any failure here is fatal, except for the indicator.
func (p *Pipeline) Open() error {
	err := p.Source.Open()
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	l.Info().Println("opened input")

	for _, s := range p.Sinks {
		err = s.Open()
		if err != nil {
			return fmt.Errorf("open output %s: %w", s.Name(), err)
		}
		l.Info().Println("opened output", s.Name())
	}

	if p.Indicator != nil {
		err = p.Indicator.Open()
		if err != nil {
			l.Error().Println("open indicator, continue without it:", err)
			p.Indicator = nil
		} else if err = p.Indicator.Set(false); err != nil {
			l.Warn().Println("reset indicator:", err)
		}
	}

	return nil
}

// Run loops until ctx is done, the input ends or keeps failing
func (p *Pipeline) Run(ctx context.Context) error {
	frameRate := p.Options.FrameRate
	if frameRate == 0 {
		frameRate = p.Source.GetFrameRate()
	}

	var interval time.Duration
	if frameRate > 0 {
		interval = time.Duration(float64(time.Second) / frameRate)
	}

	l.Info().Printf("starting video processing loop at %.2f fps", frameRate)

	failures := 0
	lastFrameTime := time.Now()

	for {
		if ctx.Err() != nil {
			l.Info().Println("exiting video processing loop:", ctx.Err())
			return nil
		}

		err := p.ProcessFrame(ctx)
		if err != nil {
			var stepErr *StepError
			if errors.As(err, &stepErr) && stepErr.Step == StepRead {
				if ctx.Err() != nil {
					continue
				}
				if errors.Is(err, source.ErrClosed) {
					l.Info().Println("input ended")
					return nil
				}
				failures++
				if p.Options.MaxReadFailures > 0 && failures >= p.Options.MaxReadFailures {
					return fmt.Errorf("%d consecutive read failures: %w", failures, err)
				}
			} else {
				failures = 0
			}
			l.Error().Println(err)
		} else {
			failures = 0
		}

		if interval > 0 {
			elapsed := time.Since(lastFrameTime)
			if elapsed < interval {
				sleep(ctx, interval-elapsed)
			}
			lastFrameTime = time.Now()
		}
	}
}

// ProcessFrame runs every step once for the next frame
func (p *Pipeline) ProcessFrame(ctx context.Context) error {
	n := p.stats.frameRead()

	err := p.process(ctx, n)
	if err != nil {
		var stepErr *StepError
		if errors.As(err, &stepErr) {
			p.stats.frameSkipped(stepErr)
		}
		return err
	}

	l.Verbose().Printf("frame %d processed successfully", n)

	return nil
}

func (p *Pipeline) process(ctx context.Context, n uint64) error {
	var (
		img   *gocv.Mat
		faces []image.Rectangle
	)

	err := guard(StepRead, n, func() error {
		return p.Source.Read(ctx, &p.frame)
	})
	if err != nil {
		return err
	}

	err = guard(StepConvert, n, func() error {
		img, err = toBGR(&p.frame, &p.bgr)
		return err
	})
	if err != nil {
		return err
	}
	l.Verbose().Printf("converted frame %d to BGR format", n)

	err = guard(StepGrayscale, n, func() error {
		gocv.CvtColor(*img, &p.gray, gocv.ColorBGRToGray)
		if p.gray.Empty() {
			return errors.New("empty grayscale frame")
		}
		return nil
	})
	if err != nil {
		return err
	}

	err = guard(StepDetect, n, func() error {
		if p.Detector == nil {
			return nil
		}
		faces, err = p.Detector.Detect(p.gray)
		return err
	})
	if err != nil {
		return err
	}
	l.Verbose().Printf("detected %d faces in frame %d", len(faces), n)

	err = guard(StepBlur, n, func() error {
		regions := helper.PrepareRegions(faces, image.Rect(0, 0, img.Cols(), img.Rows()), p.Options.Padding)
		return p.Blur.Blur(img, regions)
	})
	if err != nil {
		return err
	}

	err = guard(StepResize, n, func() error {
		size := image.Point{X: p.Options.Width, Y: p.Options.Height}
		if size.X == 0 || (img.Cols() == size.X && img.Rows() == size.Y) {
			return nil
		}
		gocv.Resize(*img, &p.out, size, 0, 0, gocv.InterpolationLinear)
		if p.out.Empty() {
			return errors.New("empty resized frame")
		}
		img = &p.out
		return nil
	})
	if err != nil {
		return err
	}

	var encodeErrs []error
	for _, s := range p.Sinks {
		err = guard(StepEncode, n, func() error {
			return s.Write(*img)
		})
		if err != nil {
			encodeErrs = append(encodeErrs, fmt.Errorf("%s: %w", s.Name(), errors.Unwrap(err)))
		}
	}
	if len(encodeErrs) > 0 {
		return &StepError{Step: StepEncode, Frame: n, Err: errors.Join(encodeErrs...)}
	}
	l.Verbose().Printf("encoded and muxed frame %d", n)

	err = guard(StepIndicate, n, func() error {
		shown := len(faces) > 0
		if p.Indicator == nil || shown == p.faceShown {
			return nil
		}
		// a failed edge is retried with the next frame
		err := p.Indicator.Set(shown)
		if err != nil {
			return err
		}
		p.faceShown = shown
		return nil
	})
	if err != nil {
		return err
	}

	p.stats.frameProcessed(len(faces))

	return nil
}

// toBGR returns frame itself when it is BGR already, otherwise the converted bgr
func toBGR(frame, bgr *gocv.Mat) (*gocv.Mat, error) {
	if frame.Empty() {
		return nil, source.ErrEmptyFrame
	}

	switch frame.Channels() {
	case 3:
		return frame, nil
	case 4:
		gocv.CvtColor(*frame, bgr, gocv.ColorBGRAToBGR)
	case 1:
		gocv.CvtColor(*frame, bgr, gocv.ColorGrayToBGR)
	default:
		return nil, fmt.Errorf("unsupported channel count: %d", frame.Channels())
	}

	if bgr.Empty() {
		return nil, errors.New("empty BGR frame")
	}

	return bgr, nil
}

// Close flushes and closes every output, then the input and the rest.
// Errors are logged and joined, Close never stops halfway.
func (p *Pipeline) Close() error {
	p.closeOnce.Do(func() {
		l.Info().Println("finalizing: closing all resources")

		var errs []error
		try := func(what string, fn func() error) {
			err := guard(Step(what), 0, fn)
			if err != nil {
				l.Error().Println("failed to", what+":", err)
				errs = append(errs, err)
			}
		}

		for _, s := range p.Sinks {
			try("flush "+s.Name(), s.Flush)
		}
		for _, s := range p.Sinks {
			try("close "+s.Name(), s.Close)
		}

		try("close input", p.Source.Close)

		if p.Detector != nil {
			try("close detector", p.Detector.Close)
		}

		if p.Indicator != nil {
			if p.faceShown {
				try("reset indicator", func() error {
					return p.Indicator.Set(false)
				})
			}
			try("close indicator", p.Indicator.Close)
		}

		for _, mat := range []*gocv.Mat{&p.frame, &p.bgr, &p.gray, &p.out} {
			_ = mat.Close()
		}

		l.Info().Println("closed all resources")

		p.closeErr = errors.Join(errs...)
	})

	return p.closeErr
}

func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
