package ffmpeg

import (
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"testing"

	"github.com/allape/faceblur/pipeline/sink"
	"gocv.io/x/gocv"
)

func TestArgs(t *testing.T) {
	d := NewDriver("/dev/video15", &Options{
		Format: "v4l2",
		Codec:  "mjpeg",
		PixFmt: "yuvj422p",
	}).(*Driver)

	expected := []string{
		"-hide_banner", "-loglevel", "warning",
		"-f", "rawvideo",
		"-pix_fmt", "bgr24",
		"-s", "1920x1080",
		"-r", "60",
		"-i", "pipe:0",
		"-c:v", "mjpeg",
		"-pix_fmt", "yuvj422p",
		"-f", "v4l2",
		"/dev/video15",
	}

	args := d.Args()
	if !slices.Equal(args, expected) {
		t.Fatalf("Expected %v, got %v", expected, args)
	}
}

func TestOpenMissingDevice(t *testing.T) {
	d := NewDriver(filepath.Join(t.TempDir(), "video15"), &Options{
		Format: "v4l2",
	})

	err := d.Open()
	if err == nil {
		_ = d.Close()
		t.Fatal("Expected error for missing device")
	}
}

// a stand-in for ffmpeg that copies stdin to the last argument
const fakeFFmpeg = `#!/bin/sh
for arg; do out="$arg"; done
cat > "$out"
`

func TestDriver(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not found")
	}

	dir := t.TempDir()
	bin := filepath.Join(dir, "ffmpeg")
	err := os.WriteFile(bin, []byte(fakeFFmpeg), 0755)
	if err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(dir, "out.raw")

	d := NewDriver(dst, &Options{
		Options: sink.Options{
			Width:     32,
			Height:    24,
			FrameRate: 30,
		},
		FFmpeg: bin,
	})

	err = d.Open()
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = d.Close()
	}()

	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(1, 2, 3, 0), 24, 32, gocv.MatTypeCV8UC3)
	defer func() {
		_ = frame.Close()
	}()

	for i := 0; i < 3; i++ {
		err = d.Write(frame)
		if err != nil {
			t.Fatal(err)
		}
	}

	wrongSize := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(1, 2, 3, 0), 10, 10, gocv.MatTypeCV8UC3)
	defer func() {
		_ = wrongSize.Close()
	}()
	err = d.Write(wrongSize)
	if err == nil {
		t.Fatal("Expected error for wrong frame size")
	}

	err = d.Flush()
	if err != nil {
		t.Fatal(err)
	}

	stat, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if stat.Size() != 3*32*24*3 {
		t.Fatalf("Expected %d bytes, got %d", 3*32*24*3, stat.Size())
	}

	err = d.Write(frame)
	if err == nil {
		t.Fatal("Expected error after flush")
	}

	err = d.Close()
	if err != nil {
		t.Fatal(err)
	}
}
