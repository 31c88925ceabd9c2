package factory

import (
	"fmt"

	"github.com/allape/faceblur/config"
	"github.com/allape/faceblur/pipeline"
	"github.com/allape/faceblur/pipeline/sink/preview"
)

// PipelineFromConfig builds every driver, nothing is opened yet
func PipelineFromConfig(conf config.Config, hub *preview.Hub) (*pipeline.Pipeline, error) {
	src, err := SourceFromConfig(conf)
	if err != nil {
		return nil, fmt.Errorf("source from config: %w", err)
	}

	sinks, err := SinksFromConfig(conf, hub)
	if err != nil {
		return nil, fmt.Errorf("sinks from config: %w", err)
	}

	blr, err := BlurFromConfig(conf)
	if err != nil {
		return nil, fmt.Errorf("blur from config: %w", err)
	}

	ind, err := IndicatorFromConfig(conf)
	if err != nil {
		return nil, fmt.Errorf("indicator from config: %w", err)
	}

	det, err := DetectorFromConfig(conf)
	if err != nil {
		return nil, fmt.Errorf("detector from config: %w", err)
	}

	options := pipeline.Options{
		FrameRate:       conf.Pacing.FrameRate,
		Padding:         conf.Blur.Padding,
		MaxReadFailures: conf.Input.MaxReadFailures,
	}
	if conf.Output.Type != config.OutputNone {
		options.Width = conf.Output.Width
		options.Height = conf.Output.Height
	}

	p, err := pipeline.New(src, det, blr, sinks, ind, options)
	if err != nil {
		if det != nil {
			_ = det.Close()
		}
		return nil, err
	}

	return p, nil
}
