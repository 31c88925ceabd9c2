package envar

import "os"

const (
	FaceblurConfig  = "FACEBLUR_CONFIG"
	FaceblurCascade = "FACEBLUR_CASCADE"
	FaceblurFFmpeg  = "FACEBLUR_FFMPEG"
)

func Getenv(key, defaultValue string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	return val
}
