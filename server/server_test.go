package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/allape/faceblur/pipeline"
	"github.com/allape/faceblur/pipeline/sink/preview"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeStats struct {
	snapshot pipeline.Snapshot
}

func (f *fakeStats) Stats() pipeline.Snapshot {
	return f.snapshot
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestStatus(t *testing.T) {
	stats := &fakeStats{snapshot: pipeline.Snapshot{FramesRead: 42, FramesProcessed: 40, FacesDetected: 3}}
	s := New("", stats, nil, nil)

	rec := get(t, s, "/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var snapshot pipeline.Snapshot
	err := json.Unmarshal(rec.Body.Bytes(), &snapshot)
	if err != nil {
		t.Fatal(err)
	}
	if snapshot.FramesRead != 42 || snapshot.FramesProcessed != 40 || snapshot.FacesDetected != 3 {
		t.Fatalf("Unexpected snapshot: %+v", snapshot)
	}
}

func TestIndex(t *testing.T) {
	s := New("", &fakeStats{}, nil, nil)

	rec := get(t, s, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/preview") {
		t.Fatal("Expected the preview page")
	}
}

func TestSnapshot(t *testing.T) {
	hub := preview.NewHub()
	s := New("", &fakeStats{}, hub, nil)

	rec := get(t, s, "/snapshot.jpg")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 before the first frame, got %d", rec.Code)
	}

	frame := []byte{0xFF, 0xD8, 0x01, 0xFF, 0xD9}
	hub.Publish(frame)

	rec = get(t, s, "/snapshot.jpg")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "image/jpeg" {
		t.Fatalf("Expected image/jpeg, got %s", rec.Header().Get("Content-Type"))
	}
	if !bytes.Equal(rec.Body.Bytes(), frame) {
		t.Fatalf("Expected %v, got %v", frame, rec.Body.Bytes())
	}
}

func TestPreviewDisabled(t *testing.T) {
	s := New("", &fakeStats{}, nil, nil)

	for _, path := range []string{"/snapshot.jpg", "/stream.mjpeg", "/preview"} {
		rec := get(t, s, path)
		if rec.Code != http.StatusNotImplemented {
			t.Fatalf("%s: expected 501, got %d", path, rec.Code)
		}
	}
}

func TestCors(t *testing.T) {
	s := New("", &fakeStats{}, nil, &Options{Cors: true})

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatal("Expected CORS header")
	}
}

func TestPreview(t *testing.T) {
	hub := preview.NewHub()
	hub.Publish([]byte("first"))

	s := New("", &fakeStats{}, hub, nil)

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/preview", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = conn.Close()
	}()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	typ, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if typ != websocket.BinaryMessage || string(data) != "first" {
		t.Fatalf("Expected binary first, got %d %s", typ, data)
	}

	hub.Publish([]byte("second"))

	_, data, err = conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "second" {
		t.Fatalf("Expected second, got %s", data)
	}
}

func TestStream(t *testing.T) {
	hub := preview.NewHub()
	hub.Publish([]byte("jpeg"))

	s := New("", &fakeStats{}, hub, nil)

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	res, err := http.Get(ts.URL + "/stream.mjpeg")
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = res.Body.Close()
	}()

	if !strings.HasPrefix(res.Header.Get("Content-Type"), "multipart/x-mixed-replace") {
		t.Fatalf("Unexpected content type: %s", res.Header.Get("Content-Type"))
	}

	expected := "--frame\r\nContent-Type: image/jpeg\r\n\r\njpeg\r\n"
	buf := make([]byte, len(expected))
	n := 0
	for n < len(buf) {
		m, err := res.Body.Read(buf[n:])
		if err != nil {
			t.Fatal(err)
		}
		n += m
	}
	if string(buf) != expected {
		t.Fatalf("Expected %q, got %q", expected, buf)
	}
}

func TestServe(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	s := New(listener.Addr().String(), &fakeStats{}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Serve(ctx, listener)
	}()

	res, err := http.Get("http://" + listener.Addr().String() + "/status")
	if err != nil {
		t.Fatal(err)
	}
	_ = res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", res.StatusCode)
	}

	cancel()

	select {
	case err = <-errCh:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("Expected server to stop")
	}
}
