package haar

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"github.com/allape/faceblur/pipeline/detector"
	"github.com/allape/gogger"
	"gocv.io/x/gocv"
)

var l = gogger.New("detector.haar")

const DefaultCascadeName = "haarcascade_frontalface_default.xml"

// CascadeDirs where distributions and source builds put OpenCV's pretrained cascades
var CascadeDirs = []string{
	"/usr/share/opencv4/haarcascades",
	"/usr/local/share/opencv4/haarcascades",
	"/usr/share/opencv/haarcascades",
	"/usr/local/share/opencv/haarcascades",
	"/opt/homebrew/share/opencv4/haarcascades",
	"data",
}

var ErrCascadeNotFound = errors.New("cascade file not found")

// Locate returns file if it is set, otherwise the first default cascade found in CascadeDirs
func Locate(file string) (string, error) {
	if file != "" {
		if _, err := os.Stat(file); err != nil {
			return "", fmt.Errorf("%w: %w", ErrCascadeNotFound, err)
		}
		return file, nil
	}

	for _, dir := range CascadeDirs {
		candidate := filepath.Join(dir, DefaultCascadeName)
		if stat, err := os.Stat(candidate); err == nil && !stat.IsDir() {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: %s not in %v", ErrCascadeNotFound, DefaultCascadeName, CascadeDirs)
}

type Detector struct {
	detector.Driver

	locker     sync.Locker
	classifier *gocv.CascadeClassifier

	Cascade      string
	ScaleFactor  float64
	MinNeighbors int
	MinSize      image.Point
	MaxSize      image.Point
}

func (d *Detector) Detect(gray gocv.Mat) ([]image.Rectangle, error) {
	d.locker.Lock()
	defer d.locker.Unlock()

	if d.classifier == nil {
		return nil, errors.New("classifier is closed")
	}
	if gray.Empty() {
		return nil, errors.New("empty frame")
	}
	if gray.Channels() != 1 {
		return nil, fmt.Errorf("expected a single channel frame, got %d channels", gray.Channels())
	}

	return d.classifier.DetectMultiScaleWithParams(
		gray,
		d.ScaleFactor,
		d.MinNeighbors,
		0,
		d.MinSize,
		d.MaxSize,
	), nil
}

func (d *Detector) Close() error {
	d.locker.Lock()
	defer d.locker.Unlock()

	if d.classifier == nil {
		return nil
	}

	err := d.classifier.Close()
	d.classifier = nil
	return err
}

const (
	DefaultScaleFactor  = 1.1
	DefaultMinNeighbors = 4
)

type Options struct {
	// ScaleFactor must be above 1
	ScaleFactor float64
	// MinNeighbors 0 keeps every raw candidate
	MinNeighbors int
	MinSize      int
	MaxSize      int
}

// New loads the cascade, an empty file searches CascadeDirs for the frontal face model
func New(file string, options *Options) (detector.Driver, error) {
	if options == nil {
		options = &Options{
			ScaleFactor:  DefaultScaleFactor,
			MinNeighbors: DefaultMinNeighbors,
		}
	}

	if options.ScaleFactor <= 1 {
		return nil, fmt.Errorf("scale factor should be greater than 1: %v", options.ScaleFactor)
	}
	if options.MinNeighbors < 0 {
		return nil, fmt.Errorf("min neighbors should not be negative: %d", options.MinNeighbors)
	}

	cascade, err := Locate(file)
	if err != nil {
		return nil, err
	}

	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(cascade) {
		_ = classifier.Close()
		return nil, fmt.Errorf("error reading cascade file: %s", cascade)
	}

	l.Info().Println("loaded cascade:", cascade)

	return &Detector{
		locker:     &sync.Mutex{},
		classifier: &classifier,

		Cascade:      cascade,
		ScaleFactor:  options.ScaleFactor,
		MinNeighbors: options.MinNeighbors,
		MinSize:      image.Point{X: options.MinSize, Y: options.MinSize},
		MaxSize:      image.Point{X: options.MaxSize, Y: options.MaxSize},
	}, nil
}
