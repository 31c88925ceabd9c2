package main

import (
	"bufio"
	"encoding/hex"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/allape/faceblur/config"
	"github.com/allape/faceblur/factory"
	"github.com/allape/faceblur/helper"
	"github.com/allape/faceblur/pipeline/indicator"
	"github.com/allape/faceblur/pipeline/indicator/serialport"
	"github.com/allape/gogger"
)

// ledctl talks to the configured indicator by hand.
// "on" and "off" send the configured payloads, anything else is sent as a payload itself.

var l = gogger.New("ledctl")

func main() {
	os.Exit(run())
}

func run() int {
	conf, err := config.GetConfig()
	if err != nil {
		l.Error().Println("get config:", err)
		return 1
	}

	ind, err := factory.IndicatorFromConfig(conf)
	if err != nil {
		l.Error().Println("indicator from config:", err)
		return 1
	}
	if ind == nil {
		l.Error().Println("no indicator configured")
		return 1
	}

	err = ind.Open()
	if err != nil {
		l.Error().Println("open indicator:", err)
		return 1
	}
	defer func() {
		_ = ind.Close()
	}()

	go func() {
		reader := bufio.NewReader(os.Stdin)
		for {
			text, err := reader.ReadString('\n')
			if err != nil {
				l.Warn().Println("read from stdin:", err)
				return
			}

			text = strings.TrimSpace(text)
			l.Info().Println(">", text)

			switch text {
			case "on", "off":
				err = ind.Set(text == "on")
			default:
				err = sendRaw(ind, text)
			}
			if err != nil {
				l.Error().Println(err)
			}
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	l.Info().Println("awaiting input, type on, off, 0x.., 0b.. or text")
	sig := <-sigs
	l.Info().Println("exiting with", sig)

	return 0
}

func sendRaw(ind indicator.Driver, text string) error {
	raw, err := helper.ParsePayload(text)
	if err != nil {
		return err
	}

	l.Info().Println("> 0x" + hex.EncodeToString(raw))

	sp, ok := ind.(*serialport.Indicator)
	if !ok {
		return errors.New("raw payloads need a serial port indicator")
	}
	return sp.Send(raw)
}
