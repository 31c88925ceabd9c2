package factory

import (
	"fmt"

	"github.com/allape/faceblur/config"
	"github.com/allape/faceblur/pipeline/blur"
	"github.com/allape/faceblur/pipeline/detector"
	"github.com/allape/faceblur/pipeline/detector/haar"
)

// DetectorFromConfig returns nil for config.DetectorNone
func DetectorFromConfig(conf config.Config) (detector.Driver, error) {
	switch conf.Detector.Type {
	case config.DetectorNone:
		return nil, nil
	case config.DetectorHaar:
		return haar.New(conf.Detector.Cascade, &haar.Options{
			ScaleFactor:  conf.Detector.ScaleFactor,
			MinNeighbors: conf.Detector.MinNeighbors,
			MinSize:      conf.Detector.MinSize,
			MaxSize:      conf.Detector.MaxSize,
		})
	default:
		return nil, fmt.Errorf("unknown detector driver: %s", conf.Detector.Type)
	}
}

func BlurFromConfig(conf config.Config) (blur.Driver, error) {
	switch conf.Blur.Type {
	case config.BlurGaussian:
		return blur.NewGaussian(conf.Blur.Kernel, conf.Blur.Sigma), nil
	case config.BlurPixelate:
		return blur.NewPixelate(conf.Blur.PixelSize), nil
	default:
		return nil, fmt.Errorf("unknown blur driver: %s", conf.Blur.Type)
	}
}
