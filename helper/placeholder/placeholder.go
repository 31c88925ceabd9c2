package placeholder

import (
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	font     *truetype.Font
	fontErr  error
	fontOnce sync.Once
)

func Font() (*truetype.Font, error) {
	fontOnce.Do(func() {
		font, fontErr = truetype.Parse(goregular.TTF)
	})
	return font, fontErr
}

// CreatePlaceholder
// create a frame with text in the middle, used as a test pattern when there is no camera
func CreatePlaceholder(
	width, height int,
	backgroundColor, color color.Color,
	text string,
	timestamp bool, // put current time in YYYY-MM-dd HH:mm:ss pattern at the right bottom corner
) (image.Image, error) {
	f, err := Font()
	if err != nil {
		return nil, err
	}

	dc := gg.NewContext(width, height)
	dc.SetColor(backgroundColor)
	dc.DrawRectangle(0, 0, float64(width), float64(height))
	dc.Fill()

	dc.SetFontFace(truetype.NewFace(f, &truetype.Options{Size: float64(height) / 9}))
	dc.SetColor(color)
	dc.DrawStringAnchored(text, float64(width/2), float64(height/2), 0.5, 0.5)

	if timestamp {
		nowStr := time.Now().Format(time.DateTime)
		dc.SetFontFace(truetype.NewFace(f, &truetype.Options{Size: float64(height) / 34}))
		dc.DrawStringAnchored(nowStr, float64(width-50), float64(height-50), 1, 0)
	}

	return dc.Image(), nil
}
