package events

import (
	"fmt"
	"sync/atomic"
)

// Event is anything posted to the main loop. The set is closed.
type Event interface {
	event()
}

// InfraredCommand is a decoded remote frame, valid or not.
type InfraredCommand struct {
	Command uint8
	Valid   bool
}

// LineReceived is a complete inbound line from the serial link.
type LineReceived struct {
	Line string
}

// PositionReached is raised when a positioner move has settled.
type PositionReached struct {
	Seq uint32
}

// RangeSample carries a raw ultrasonic sample for the measurement Seq.
type RangeSample struct {
	Seq    uint32
	Sample uint16
}

// Clearance is the result of a single direction check.
type Clearance struct {
	Direction int
	Free      bool
	Distance  uint16
}

// DualClearance is the result of a two direction check.
type DualClearance struct {
	FirstFree, SecondFree bool
}

type TurnCompleted struct {
	Seq uint32
}

type PeriodicTick struct{}

type BatteryTick struct{}

func (InfraredCommand) event() {}
func (LineReceived) event()    {}
func (PositionReached) event() {}
func (RangeSample) event()     {}
func (Clearance) event()       {}
func (DualClearance) event()   {}
func (TurnCompleted) event()   {}
func (PeriodicTick) event()    {}
func (BatteryTick) event()     {}

func (e InfraredCommand) String() string {
	return fmt.Sprintf("ir(cmd=%d valid=%v)", e.Command, e.Valid)
}

func (e LineReceived) String() string {
	return fmt.Sprintf("line(%q)", e.Line)
}

// Queue is a bounded, non-blocking event queue. Posting to a full queue drops
// the new event.
type Queue struct {
	ch      chan Event
	dropped uint64
}

func NewQueue(size int) *Queue {
	if size < 1 {
		size = 1
	}
	return &Queue{ch: make(chan Event, size)}
}

// Post is safe to call from any goroutine and never blocks.
func (q *Queue) Post(ev Event) bool {
	select {
	case q.ch <- ev:
		return true
	default:
		atomic.AddUint64(&q.dropped, 1)
		return false
	}
}

func (q *Queue) C() <-chan Event {
	return q.ch
}

func (q *Queue) Len() int {
	return len(q.ch)
}

func (q *Queue) Cap() int {
	return cap(q.ch)
}

func (q *Queue) Dropped() uint64 {
	return atomic.LoadUint64(&q.dropped)
}
