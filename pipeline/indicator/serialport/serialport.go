package serialport

import (
	"errors"
	"strings"
	"sync"

	"github.com/allape/faceblur/pipeline/indicator"
	"github.com/allape/gogger"
	"go.bug.st/serial"
)

var l = gogger.New("indicator.serialport")

// Port is the subset of serial.Port the indicator uses
type Port interface {
	Write(p []byte) (int, error)
	Read(p []byte) (int, error)
	Drain() error
	Close() error
}

type Opener func(name string, mode *serial.Mode) (Port, error)

func OpenSerial(name string, mode *serial.Mode) (Port, error) {
	return serial.Open(name, mode)
}

type Indicator struct {
	indicator.Driver

	locker sync.Locker
	opener Opener

	Port Port

	Name string
	Baud int
	On   []byte
	Off  []byte
}

func (d *Indicator) Open() error {
	d.locker.Lock()
	defer d.locker.Unlock()

	if d.Port != nil {
		return errors.New("port already open")
	}

	port, err := d.opener(d.Name, &serial.Mode{
		BaudRate: d.Baud,
	})
	if err != nil {
		return err
	}
	d.Port = port

	go func(port Port) {
		buf := make([]byte, 1024)
		unfinishedLine := ""
		for {
			n, err := port.Read(buf)
			if err != nil {
				l.Verbose().Println("read error:", err)
				return
			}
			if n == 0 {
				l.Warn().Println("EOF")
				return
			}
			lines := strings.Split(unfinishedLine+string(buf[:n]), "\n")
			for i := 0; i < len(lines)-1; i++ {
				l.Verbose().Println(">", lines[i])
			}
			unfinishedLine = lines[len(lines)-1]
		}
	}(port)

	return nil
}

func (d *Indicator) Close() error {
	d.locker.Lock()
	defer d.locker.Unlock()

	if d.Port == nil {
		return nil
	}

	err := d.Port.Close()
	d.Port = nil
	return err
}

func (d *Indicator) Set(on bool) error {
	if on {
		return d.Send(d.On)
	}
	return d.Send(d.Off)
}

// Send writes payload as is and waits until it is transmitted
func (d *Indicator) Send(payload []byte) error {
	d.locker.Lock()
	defer d.locker.Unlock()

	if d.Port == nil {
		return errors.New("port is not open")
	}

	_, err := d.Port.Write(payload)
	if err != nil {
		return err
	}

	return d.Port.Drain()
}

type Options struct {
	Baud   int
	On     []byte
	Off    []byte
	Opener Opener
}

func New(name string, options *Options) indicator.Driver {
	if options == nil {
		options = &Options{}
	}

	if options.Baud == 0 {
		options.Baud = 9600
	}
	if len(options.On) == 0 {
		options.On = []byte("a1")
	}
	if len(options.Off) == 0 {
		options.Off = []byte("a0")
	}
	if options.Opener == nil {
		options.Opener = OpenSerial
	}

	return &Indicator{
		locker: &sync.Mutex{},
		opener: options.Opener,

		Name: name,
		Baud: options.Baud,
		On:   options.On,
		Off:  options.Off,
	}
}
