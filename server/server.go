package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/allape/faceblur/pipeline"
	"github.com/allape/faceblur/pipeline/sink/preview"
	"github.com/allape/gogger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var l = gogger.New("server")

const ShutdownTimeout = 5 * time.Second

type StatsProvider interface {
	Stats() pipeline.Snapshot
}

// Server
// Exposes the pipeline stats and, when a hub is given, the blurred preview.
type Server struct {
	Addr string

	stats    StatsProvider
	hub      *preview.Hub
	upgrader websocket.Upgrader
	engine   *gin.Engine
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves until ctx is done, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listener)
}

func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	server := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		l.Info().Println("listening on", listener.Addr())
		errCh <- server.Serve(listener)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	err := server.Shutdown(shutdownCtx)
	if err != nil {
		_ = server.Close()
	}

	if serveErr := <-errCh; serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return serveErr
	}

	l.Info().Println("server stopped")

	return err
}

func (s *Server) status(c *gin.Context) {
	c.JSON(http.StatusOK, s.stats.Stats())
}

func (s *Server) snapshot(c *gin.Context) {
	if s.hub == nil {
		c.String(http.StatusNotImplemented, "preview is disabled")
		return
	}

	frame := s.hub.Latest()
	if frame == nil {
		c.String(http.StatusNotFound, "no frame yet")
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "image/jpeg", frame)
}

// stream sends the preview as multipart MJPEG, viewable in a plain <img> tag
func (s *Server) stream(c *gin.Context) {
	if s.hub == nil {
		c.String(http.StatusNotImplemented, "preview is disabled")
		return
	}

	frames, unsubscribe := s.hub.Subscribe()
	defer unsubscribe()

	c.Header("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	done := c.Request.Context().Done()

	for {
		select {
		case <-done:
			return
		case frame := <-frames:
			err := writePart(c.Writer, frame)
			if err != nil {
				l.Verbose().Println("mjpeg stream client gone:", err)
				return
			}
			c.Writer.Flush()
		}
	}
}

func writePart(w gin.ResponseWriter, frame []byte) error {
	_, err := w.WriteString("--frame\r\nContent-Type: image/jpeg\r\n\r\n")
	if err != nil {
		return err
	}
	_, err = w.Write(frame)
	if err != nil {
		return err
	}
	_, err = w.WriteString("\r\n")
	return err
}

// preview sends every preview frame as a binary websocket message, newest frame wins
func (s *Server) preview(c *gin.Context) {
	if s.hub == nil {
		c.String(http.StatusNotImplemented, "preview is disabled")
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l.Warn().Println("upgrade:", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	frames, unsubscribe := s.hub.Subscribe()
	defer unsubscribe()

	l.Info().Println("preview client connected:", conn.RemoteAddr())

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			// nothing is expected from the browser, this only notices the close
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			l.Info().Println("preview client disconnected:", conn.RemoteAddr())
			return
		case frame := <-frames:
			err = conn.WriteMessage(websocket.BinaryMessage, frame)
			if err != nil {
				l.Warn().Println("write preview frame:", err)
				return
			}
		}
	}
}

type Options struct {
	Cors bool
}

func New(addr string, stats StatsProvider, hub *preview.Hub, options *Options) *Server {
	if options == nil {
		options = &Options{}
	}

	s := &Server{
		Addr:  addr,
		stats: stats,
		hub:   hub,
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	if options.Cors {
		engine.Use(cors.Default())
		s.upgrader.CheckOrigin = func(r *http.Request) bool {
			return true
		}
	}

	engine.GET("/", s.index)
	engine.GET("/status", s.status)
	engine.GET("/snapshot.jpg", s.snapshot)
	engine.GET("/stream.mjpeg", s.stream)
	engine.GET("/preview", s.preview)

	s.engine = engine

	return s
}
