package link

import (
	"io"
	"log"
	"sync"
	"time"

	"go.bug.st/serial"
)

// DefaultSerialMode matches the HC-05/HC-08 factory settings.
var DefaultSerialMode = serial.Mode{
	BaudRate: 9600,
	Parity:   serial.NoParity,
	DataBits: 8,
	StopBits: serial.OneStopBit,
}

// Port pumps bytes between a serial device and a Framer.
type Port struct {
	rw     io.ReadWriteCloser
	name   string
	framer *Framer

	closeChan chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// OpenPort opens the named serial device. A baud of 0 keeps the default.
func OpenPort(name string, baud int, framer *Framer) (port *Port, err error) {
	mode := DefaultSerialMode
	if baud > 0 {
		mode.BaudRate = baud
	}

	p, err := serial.Open(name, &mode)
	if err != nil {
		return nil, err
	}

	port = NewPort(p, framer)
	port.name = name
	return port, nil
}

func NewPort(rw io.ReadWriteCloser, framer *Framer) *Port {
	return &Port{
		rw:        rw,
		name:      "stream",
		framer:    framer,
		closeChan: make(chan struct{}),
	}
}

func (p *Port) Name() string {
	return p.name
}

// Start begins the read and write routines.
func (p *Port) Start() {
	p.wg.Add(2)
	go func() {
		p.readRoutine()
		p.wg.Done()
	}()
	go func() {
		p.writeRoutine()
		p.wg.Done()
	}()
}

// Close stops both routines, closing the device to unblock the reader.
func (p *Port) Close() (err error) {
	p.closeOnce.Do(func() {
		close(p.closeChan)
		err = p.rw.Close()
		p.wg.Wait()
	})
	return
}

func (p *Port) closed() bool {
	select {
	case <-p.closeChan:
		return true
	default:
		return false
	}
}

func (p *Port) readRoutine() {
	b := make([]byte, 64)
	for {
		n, err := p.rw.Read(b)
		for _, c := range b[:n] {
			p.framer.ReceiveByte(c)
		}
		if p.closed() {
			return
		}
		if err == io.EOF {
			log.Printf("[link] %s closed by peer", p.name)
			return
		}
		if err != nil {
			log.Printf("[link] read %s: %v", p.name, err)
			time.Sleep(50 * time.Millisecond)
		}
	}
}

func (p *Port) writeRoutine() {
	for {
		select {
		case <-p.closeChan:
			return
		case <-p.framer.Kick():
		}

		out := p.framer.Drain()
		if len(out) == 0 {
			continue
		}
		if _, err := p.rw.Write(out); err != nil {
			log.Printf("[link] write %s: %v", p.name, err)
		}
	}
}
