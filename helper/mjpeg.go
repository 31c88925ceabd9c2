package helper

import (
	"bytes"
)

var (
	JPEGStartMarker = []byte{0xff, 0xd8}
	JPEGEndMarker   = []byte{0xff, 0xd9}
)

const DefaultMaxFrameSize = 16 << 20

// MJPEGSplitter cuts a concatenated JPEG stream, like the stdout of `ffmpeg -f mjpeg -`, into single images
type MJPEGSplitter struct {
	started bool
	scanned int
	buffer  []byte

	StartMarker []byte
	EndMarker   []byte
	// MaxFrameSize drops an image that grows past it without an end marker, 0 for no limit
	MaxFrameSize int
}

// Write consumes a chunk of the stream and returns every image completed by it
func (s *MJPEGSplitter) Write(chunk []byte) [][]byte {
	var frames [][]byte

	s.buffer = append(s.buffer, chunk...)

	for {
		if !s.started {
			index := bytes.Index(s.buffer, s.StartMarker)
			if index == -1 {
				// keep the tail, a marker may be split across two chunks
				if n := len(s.buffer); n > 0 {
					s.buffer = append(s.buffer[:0], s.buffer[n-1])
				}
				return frames
			}
			s.buffer = s.buffer[index:]
			s.started = true
			s.scanned = len(s.StartMarker)
		}

		index := bytes.Index(s.buffer[s.scanned:], s.EndMarker)
		if index == -1 {
			if s.MaxFrameSize > 0 && len(s.buffer) > s.MaxFrameSize {
				// resync on the next start marker
				s.buffer = s.buffer[len(s.StartMarker):]
				s.started = false
				continue
			}
			s.scanned = max(len(s.StartMarker), len(s.buffer)-len(s.EndMarker)+1)
			return frames
		}

		end := s.scanned + index + len(s.EndMarker)
		frame := make([]byte, end)
		copy(frame, s.buffer[:end])
		frames = append(frames, frame)

		s.buffer = s.buffer[end:]
		s.started = false
	}
}

func NewMJPEGSplitter() *MJPEGSplitter {
	return &MJPEGSplitter{
		StartMarker:  JPEGStartMarker,
		EndMarker:    JPEGEndMarker,
		MaxFrameSize: DefaultMaxFrameSize,
	}
}
