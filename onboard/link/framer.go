package link

import (
	"sync"
	"sync/atomic"
)

type TxState uint8

const (
	TX_IDLE TxState = iota
	TX_BODY
	TX_CR
	TX_LF
)

func (s TxState) String() string {
	switch s {
	case TX_BODY:
		return "body"
	case TX_CR:
		return "cr"
	case TX_LF:
		return "lf"
	}
	return "idle"
}

// Framer turns a byte stream into lines and queued messages into a byte
// stream. ReceiveByte and TxReady stand in for the UART interrupt routines.
//
// Every completed line is handed to the sink by value. If the sink refuses it
// the line is dropped and counted, nothing is overwritten in place.
type Framer struct {
	lock sync.Mutex

	rx    []byte
	rxIdx int
	sink  func(line string) bool

	queue     *Ring[Slot]
	txState   TxState
	cursor    int
	txEnabled bool
	kick      chan struct{}

	droppedLines uint64
}

func NewFramer(rxSize, queueSize int, sink func(line string) bool) *Framer {
	if rxSize < 1 {
		rxSize = RX_SIZE
	}
	if queueSize < 1 {
		queueSize = QUEUE_SIZE
	}
	return &Framer{
		rx:    make([]byte, rxSize),
		sink:  sink,
		queue: NewRing[Slot](queueSize),
		kick:  make(chan struct{}, 1),
	}
}

func isTerminator(b byte) bool {
	return b == '\r' || b == '\n' || b == 0
}

// ReceiveByte appends one received byte. Terminators on an empty buffer are
// swallowed so \r\n yields a single line. A full buffer is published as is.
func (f *Framer) ReceiveByte(b byte) {
	f.lock.Lock()
	if isTerminator(b) {
		if f.rxIdx == 0 {
			f.lock.Unlock()
			return
		}
		line := string(f.rx[:f.rxIdx])
		f.rxIdx = 0
		f.lock.Unlock()
		f.publish(line)
		return
	}

	f.rx[f.rxIdx] = b
	f.rxIdx++
	if f.rxIdx < len(f.rx) {
		f.lock.Unlock()
		return
	}

	line := string(f.rx)
	f.rxIdx = 0
	f.lock.Unlock()
	f.publish(line)
}

func (f *Framer) publish(line string) {
	if f.sink == nil || !f.sink(line) {
		atomic.AddUint64(&f.droppedLines, 1)
	}
}

// DroppedLines counts lines the sink refused.
func (f *Framer) DroppedLines() uint64 {
	return atomic.LoadUint64(&f.droppedLines)
}

// Enqueue queues msg for transmission. It returns false when the queue is full
// or msg does not fit a slot; the message is dropped in both cases.
func (f *Framer) Enqueue(msg string) bool {
	slot, err := NewSlot(msg)
	if err != nil {
		return false
	}

	f.lock.Lock()
	defer f.lock.Unlock()
	if !f.queue.Push(slot) {
		return false
	}

	if !f.txEnabled {
		f.txEnabled = true
		select {
		case f.kick <- struct{}{}:
		default:
		}
	}
	return true
}

// TxReady runs one step of the transmit state machine, as the transmit ready
// interrupt would. send reports whether b must go out on the wire. Once the
// machine is idle with nothing queued the transmitter is disabled.
func (f *Framer) TxReady() (b byte, send bool) {
	f.lock.Lock()
	defer f.lock.Unlock()

	switch f.txState {
	case TX_IDLE:
		if f.queue.Empty() {
			f.txEnabled = false
		} else {
			f.cursor = 0
			f.txState = TX_BODY
		}
	case TX_BODY:
		head, _ := f.queue.Front()
		if f.cursor < head.Len() {
			b, send = head.Bytes()[f.cursor], true
			f.cursor++
		} else {
			f.queue.Pop()
			f.txState = TX_CR
		}
	case TX_CR:
		b, send = '\r', true
		f.txState = TX_LF
	case TX_LF:
		b, send = '\n', true
		f.txState = TX_IDLE
	}

	return
}

// TxEnabled reports whether the transmitter still wants TxReady calls.
func (f *Framer) TxEnabled() bool {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.txEnabled
}

// Drain steps the transmitter until it disables itself and returns the bytes
// that went out.
func (f *Framer) Drain() (out []byte) {
	for f.TxEnabled() {
		if b, send := f.TxReady(); send {
			out = append(out, b)
		}
	}
	return
}

func (f *Framer) TxState() TxState {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.txState
}

// Queued returns the number of messages waiting, including one in flight.
func (f *Framer) Queued() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.queue.Len()
}

// Kick is signalled when the transmitter is enabled.
func (f *Framer) Kick() <-chan struct{} {
	return f.kick
}
