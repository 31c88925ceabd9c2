package factory

import (
	"fmt"

	"github.com/allape/faceblur/config"
	"github.com/allape/faceblur/pipeline/source"
	"github.com/allape/faceblur/pipeline/source/device"
	"github.com/allape/faceblur/pipeline/source/dummy"
	"github.com/allape/faceblur/pipeline/source/shell"
)

func SourceFromConfig(conf config.Config) (source.Driver, error) {
	sos := source.Options{
		Width:         conf.Input.Width,
		Height:        conf.Input.Height,
		FrameRate:     conf.Input.FrameRate,
		FlipCode:      conf.Input.FlipCode,
		SetupCommands: conf.Input.SetupCommands,
	}

	switch conf.Input.Type {
	case config.InputDevice:
		if conf.Input.Src.Empty() {
			return nil, fmt.Errorf("input source is empty")
		}
		return device.NewDevice(conf.Input.Src.First(), &device.Options{
			Options: sos,
		}), nil
	case config.InputShell:
		if conf.Input.Src.Empty() {
			return nil, fmt.Errorf("input source is empty")
		}
		return shell.NewDriver(conf.Input.Src, &shell.Options{
			Options: sos,
		}), nil
	case config.InputDummy:
		return dummy.NewDriver(conf.Input.Src.First(), &dummy.Options{
			Options: sos,
		}), nil
	default:
		return nil, fmt.Errorf("unknown input driver: %s", conf.Input.Type)
	}
}
