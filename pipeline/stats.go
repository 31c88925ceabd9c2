package pipeline

import (
	"sync"
	"sync/atomic"
	"time"
)

// Stats is written by the frame loop and read by anyone else
type Stats struct {
	startedAt time.Time

	read      atomic.Uint64
	processed atomic.Uint64
	faces     atomic.Uint64
	current   atomic.Int64
	skipped   map[Step]*atomic.Uint64

	locker    sync.Mutex
	lastError string
	lastAt    time.Time
}

type Snapshot struct {
	StartedAt       time.Time       `json:"started_at"`
	Uptime          string          `json:"uptime"`
	FramesRead      uint64          `json:"frames_read"`
	FramesProcessed uint64          `json:"frames_processed"`
	FramesSkipped   map[Step]uint64 `json:"frames_skipped"`
	FacesDetected   uint64          `json:"faces_detected"`
	FacesInFrame    int64           `json:"faces_in_frame"`
	FPS             float64         `json:"fps"`
	LastError       string          `json:"last_error,omitempty"`
	LastErrorAt     *time.Time      `json:"last_error_at,omitempty"`
}

func NewStats() *Stats {
	skipped := make(map[Step]*atomic.Uint64, len(Steps))
	for _, step := range Steps {
		skipped[step] = &atomic.Uint64{}
	}
	return &Stats{
		startedAt: time.Now(),
		skipped:   skipped,
	}
}

func (s *Stats) frameRead() uint64 {
	return s.read.Add(1)
}

func (s *Stats) frameProcessed(faces int) {
	s.processed.Add(1)
	s.faces.Add(uint64(faces))
	s.current.Store(int64(faces))
}

func (s *Stats) frameSkipped(err *StepError) {
	if counter, ok := s.skipped[err.Step]; ok {
		counter.Add(1)
	}

	s.locker.Lock()
	defer s.locker.Unlock()
	s.lastError = err.Error()
	s.lastAt = time.Now()
}

func (s *Stats) Snapshot() Snapshot {
	uptime := time.Since(s.startedAt)
	processed := s.processed.Load()

	snapshot := Snapshot{
		StartedAt:       s.startedAt,
		Uptime:          uptime.Truncate(time.Second).String(),
		FramesRead:      s.read.Load(),
		FramesProcessed: processed,
		FramesSkipped:   make(map[Step]uint64, len(s.skipped)),
		FacesDetected:   s.faces.Load(),
		FacesInFrame:    s.current.Load(),
	}
	if seconds := uptime.Seconds(); seconds > 0 {
		snapshot.FPS = float64(processed) / seconds
	}
	for step, counter := range s.skipped {
		snapshot.FramesSkipped[step] = counter.Load()
	}

	s.locker.Lock()
	defer s.locker.Unlock()
	if s.lastError != "" {
		at := s.lastAt
		snapshot.LastError = s.lastError
		snapshot.LastErrorAt = &at
	}

	return snapshot
}
