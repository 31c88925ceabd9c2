package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/allape/faceblur/config"
	"github.com/allape/faceblur/factory"
	"github.com/allape/faceblur/pipeline/sink/preview"
	"github.com/allape/faceblur/server"
	"github.com/allape/gogger"
)

var l = gogger.New("main")

func main() {
	os.Exit(run())
}

func run() int {
	conf, err := config.GetConfig()
	if err != nil {
		l.Error().Println("get config:", err)
		return 1
	}

	var hub *preview.Hub
	if conf.Preview.Enabled {
		hub = preview.NewHub()
	}

	p, err := factory.PipelineFromConfig(conf, hub)
	if err != nil {
		l.Error().Println("pipeline from config:", err)
		return 1
	}
	defer func() {
		_ = p.Close()
	}()

	err = p.Open()
	if err != nil {
		l.Error().Println(err)
		return 1
	}

	ctx, stop := notifyContext()
	defer stop()

	serverDone := make(chan struct{})
	if conf.Server.Addr != "" {
		s := server.New(conf.Server.Addr, p, hub, &server.Options{
			Cors: conf.Server.Cors,
		})
		go func() {
			defer close(serverDone)
			err := s.Start(ctx)
			if err != nil {
				l.Error().Println("server:", err)
			}
		}()
	} else {
		close(serverDone)
	}

	err = p.Run(ctx)
	stop()
	<-serverDone

	if err != nil && !errors.Is(err, context.Canceled) {
		l.Error().Println("video processing loop:", err)
		return 1
	}

	l.Info().Println("exiting")

	return 0
}

// notifyContext is done on the first SIGINT or SIGTERM, a second one kills the process if cleanup hangs
func notifyContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		stop()
	}()
	return ctx, stop
}
