package factory

import (
	"fmt"

	"github.com/allape/faceblur/config"
	"github.com/allape/faceblur/helper"
	"github.com/allape/faceblur/pipeline/indicator"
	"github.com/allape/faceblur/pipeline/indicator/serialport"
)

// IndicatorFromConfig returns nil for config.IndicatorNone
func IndicatorFromConfig(conf config.Config) (indicator.Driver, error) {
	switch conf.Indicator.Type {
	case config.IndicatorNone, "":
		return nil, nil
	case config.IndicatorSerialPort:
		if conf.Indicator.Src == "" {
			return nil, fmt.Errorf("indicator source is empty")
		}
		on, err := helper.ParsePayload(conf.Indicator.On)
		if err != nil {
			return nil, fmt.Errorf("indicator on payload: %w", err)
		}
		off, err := helper.ParsePayload(conf.Indicator.Off)
		if err != nil {
			return nil, fmt.Errorf("indicator off payload: %w", err)
		}
		return serialport.New(conf.Indicator.Src, &serialport.Options{
			Baud: conf.Indicator.Baud,
			On:   on,
			Off:  off,
		}), nil
	default:
		return nil, fmt.Errorf("unknown indicator driver: %s", conf.Indicator.Type)
	}
}
