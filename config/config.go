package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/allape/faceblur/envar"
	"github.com/allape/gogger"
	"github.com/pelletier/go-toml/v2"
)

var l = gogger.New("config")

const DefaultConfigPath = "faceblur.toml"

type InputDriverType string

const (
	InputDevice InputDriverType = "device"
	InputShell  InputDriverType = "shell"
	InputDummy  InputDriverType = "dummy"
)

type OutputDriverType string

const (
	OutputNone OutputDriverType = "none"
	OutputV4L2 OutputDriverType = "v4l2"
	OutputFile OutputDriverType = "file"
)

type DetectorDriverType string

const (
	DetectorNone DetectorDriverType = "none"
	DetectorHaar DetectorDriverType = "haar"
)

type BlurDriverType string

const (
	BlurGaussian BlurDriverType = "gaussian"
	BlurPixelate BlurDriverType = "pixelate"
)

type IndicatorDriverType string

const (
	IndicatorNone       IndicatorDriverType = "none"
	IndicatorSerialPort IndicatorDriverType = "serialport"
)

type Input struct {
	Type InputDriverType `toml:"type"`
	// Src is filled from SrcValue by Parse
	Src ShellCommand `toml:"-"`
	// SrcValue is what the file holds: a device path, a device index or an argv list
	SrcValue        any            `toml:"src"`
	Width           int            `toml:"width"`
	Height          int            `toml:"height"`
	FrameRate       float64        `toml:"frame_rate"`
	FlipCode        FlipCode       `toml:"flip_code"`
	SetupCommands   []ShellCommand `toml:"setup_commands"`
	MaxReadFailures int            `toml:"max_read_failures"`
}

type Output struct {
	Type      OutputDriverType `toml:"type"`
	Dst       string           `toml:"dst"`
	Format    string           `toml:"format"`
	Codec     string           `toml:"codec"`
	FrameRate float64          `toml:"frame_rate"`
	Width     int              `toml:"width"`
	Height    int              `toml:"height"`
	PixFmt    string           `toml:"pix_fmt"`
	FFmpeg    string           `toml:"ffmpeg"`
	ExtraArgs []string         `toml:"extra_args"`
}

type Detector struct {
	Type         DetectorDriverType `toml:"type"`
	Cascade      string             `toml:"cascade"`
	ScaleFactor  float64            `toml:"scale_factor"`
	MinNeighbors int                `toml:"min_neighbors"`
	MinSize      int                `toml:"min_size"`
	MaxSize      int                `toml:"max_size"`
}

type Blur struct {
	Type      BlurDriverType `toml:"type"`
	Kernel    int            `toml:"kernel"`
	Sigma     float64        `toml:"sigma"`
	Padding   float64        `toml:"padding"`
	PixelSize int            `toml:"pixel_size"`
}

type Pacing struct {
	// FrameRate the loop is held to, 0 follows the input frame rate, below 0 runs as fast as frames arrive
	FrameRate float64 `toml:"frame_rate"`
}

type Preview struct {
	Enabled bool `toml:"enabled"`
	Quality int  `toml:"quality"`
	Every   int  `toml:"every"`
}

type Server struct {
	Addr string `toml:"addr"`
	Cors bool   `toml:"cors"`
}

type Indicator struct {
	Type IndicatorDriverType `toml:"type"`
	Src  string              `toml:"src"`
	Baud int                 `toml:"baud"`
	On   string              `toml:"on"`
	Off  string              `toml:"off"`
}

type Config struct {
	Input     Input     `toml:"input"`
	Output    Output    `toml:"output"`
	Detector  Detector  `toml:"detector"`
	Blur      Blur      `toml:"blur"`
	Pacing    Pacing    `toml:"pacing"`
	Preview   Preview   `toml:"preview"`
	Server    Server    `toml:"server"`
	Indicator Indicator `toml:"indicator"`
}

func Default() Config {
	return Config{
		Input: Input{
			Type:            InputDevice,
			Src:             ShellCommand{"/dev/video0"},
			FlipCode:        NoFlip,
			MaxReadFailures: 30,
		},
		Output: Output{
			Type:      OutputV4L2,
			Dst:       "/dev/video15",
			Format:    "v4l2",
			Codec:     "mjpeg",
			FrameRate: 60,
			Width:     1920,
			Height:    1080,
			PixFmt:    "yuvj422p",
			FFmpeg:    envar.Getenv(envar.FaceblurFFmpeg, "ffmpeg"),
		},
		Detector: Detector{
			Type:         DetectorHaar,
			Cascade:      envar.Getenv(envar.FaceblurCascade, ""),
			ScaleFactor:  1.1,
			MinNeighbors: 4,
		},
		Blur: Blur{
			Type:      BlurGaussian,
			Kernel:    99,
			Sigma:     30,
			PixelSize: 16,
		},
		Pacing: Pacing{
			FrameRate: 30,
		},
		Preview: Preview{
			Quality: 75,
			Every:   1,
		},
		Indicator: Indicator{
			Type: IndicatorNone,
			Baud: 9600,
			On:   "a1",
			Off:  "a0",
		},
	}
}

// GetConfig reads the file named by the first argument, FACEBLUR_CONFIG or faceblur.toml, in that order.
// Only an explicitly named file has to exist.
func GetConfig() (Config, error) {
	configFile := envar.Getenv(envar.FaceblurConfig, "")
	if len(os.Args) > 1 {
		configFile = os.Args[1]
	}

	if configFile == "" {
		return Load(DefaultConfigPath, false)
	}

	return Load(configFile, true)
}

func Load(configFile string, explicit bool) (Config, error) {
	config := Default()

	l.Info().Println("reading config file:", configFile)

	configData, err := os.ReadFile(configFile)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			l.Warn().Println("config file not found, use defaults")
			return config, config.Validate()
		}
		return config, err
	}

	config, err = Parse(configData)
	if err != nil {
		return config, fmt.Errorf("parse %s: %w", configFile, err)
	}

	l.Verbose().Printf("use config: %+v", config)

	return config, nil
}

func Parse(data []byte) (Config, error) {
	config := Default()

	err := toml.Unmarshal(data, &config)
	if err != nil {
		return config, err
	}

	if config.Input.SrcValue != nil {
		config.Input.Src, err = ToShellCommand(config.Input.SrcValue)
		if err != nil {
			return config, fmt.Errorf("input src: %w", err)
		}
		config.Input.SrcValue = nil
	}

	return config, config.Validate()
}

func (c Config) Validate() error {
	if c.Input.Src.Empty() && c.Input.Type != InputDummy {
		return errors.New("input src is empty")
	}
	if c.Input.Width < 0 || c.Input.Height < 0 {
		return fmt.Errorf("invalid input size: %dx%d", c.Input.Width, c.Input.Height)
	}
	if !c.Input.FlipCode.Valid() {
		return fmt.Errorf("invalid flip code: %d", c.Input.FlipCode)
	}

	if c.Output.Type != OutputNone {
		if c.Output.Dst == "" {
			return errors.New("output dst is empty")
		}
		if c.Output.Width <= 0 || c.Output.Height <= 0 {
			return fmt.Errorf("invalid output size: %dx%d", c.Output.Width, c.Output.Height)
		}
		if c.Output.FrameRate <= 0 {
			return fmt.Errorf("invalid output frame rate: %f", c.Output.FrameRate)
		}
	}

	if c.Detector.Type == DetectorHaar {
		if c.Detector.ScaleFactor <= 1 {
			return fmt.Errorf("scale factor should be greater than 1: %f", c.Detector.ScaleFactor)
		}
		if c.Detector.MinNeighbors < 0 {
			return fmt.Errorf("invalid min neighbors: %d", c.Detector.MinNeighbors)
		}
	}

	switch c.Blur.Type {
	case BlurGaussian:
		if c.Blur.Kernel <= 0 || c.Blur.Kernel%2 == 0 {
			return fmt.Errorf("blur kernel should be a positive odd number: %d", c.Blur.Kernel)
		}
	case BlurPixelate:
		if c.Blur.PixelSize <= 0 {
			return fmt.Errorf("invalid pixel size: %d", c.Blur.PixelSize)
		}
	}
	if c.Blur.Padding < 0 {
		return fmt.Errorf("invalid blur padding: %f", c.Blur.Padding)
	}

	if c.Preview.Quality < 0 || c.Preview.Quality > 100 {
		return fmt.Errorf("invalid preview quality: %d", c.Preview.Quality)
	}

	return nil
}
