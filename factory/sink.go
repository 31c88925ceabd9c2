package factory

import (
	"fmt"

	"github.com/allape/faceblur/config"
	"github.com/allape/faceblur/pipeline/sink"
	"github.com/allape/faceblur/pipeline/sink/ffmpeg"
	"github.com/allape/faceblur/pipeline/sink/file"
	"github.com/allape/faceblur/pipeline/sink/preview"
)

// SinksFromConfig returns the configured output, followed by the preview sink when hub is not nil
func SinksFromConfig(conf config.Config, hub *preview.Hub) ([]sink.Driver, error) {
	var sinks []sink.Driver

	sos := sink.Options{
		Width:     conf.Output.Width,
		Height:    conf.Output.Height,
		FrameRate: conf.Output.FrameRate,
	}

	switch conf.Output.Type {
	case config.OutputNone:
	case config.OutputV4L2:
		sinks = append(sinks, ffmpeg.NewDriver(conf.Output.Dst, &ffmpeg.Options{
			Options:   sos,
			FFmpeg:    conf.Output.FFmpeg,
			Format:    conf.Output.Format,
			Codec:     conf.Output.Codec,
			PixFmt:    conf.Output.PixFmt,
			ExtraArgs: conf.Output.ExtraArgs,
		}))
	case config.OutputFile:
		sinks = append(sinks, file.NewDriver(conf.Output.Dst, &file.Options{
			Options: sos,
			Codec:   conf.Output.Codec,
		}))
	default:
		return nil, fmt.Errorf("unknown output driver: %s", conf.Output.Type)
	}

	if hub != nil {
		sinks = append(sinks, preview.NewDriver(hub, &preview.Options{
			Quality: conf.Preview.Quality,
			Every:   conf.Preview.Every,
		}))
	}

	return sinks, nil
}
