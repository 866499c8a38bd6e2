package infrared

import (
	"sync"
	"time"
)

// DEFAULT_TICK_RATE matches a 32768Hz clock divided by 4.
const DEFAULT_TICK_RATE = 8192

// Classification windows. Anything outside them is noise, which covers the
// repeat code and the gap between frames.
const (
	ZERO_MIN   = 800 * time.Microsecond
	ZERO_MAX   = 1600 * time.Microsecond
	ONE_MIN    = 1800 * time.Microsecond
	ONE_MAX    = 2800 * time.Microsecond
	LEADER_MIN = 12 * time.Millisecond
	LEADER_MAX = 15 * time.Millisecond
	ABORT_MIN  = 50 * time.Millisecond
)

type Symbol uint8

const (
	SymbolNoise Symbol = iota
	SymbolZero
	SymbolOne
	SymbolLeader
	SymbolAbort
)

func (s Symbol) String() string {
	switch s {
	case SymbolZero:
		return "zero"
	case SymbolOne:
		return "one"
	case SymbolLeader:
		return "leader"
	case SymbolAbort:
		return "abort"
	}
	return "noise"
}

type windows struct {
	zeroMin, zeroMax     uint32
	oneMin, oneMax       uint32
	leaderMin, leaderMax uint32
	abort                uint32
}

// Decoder assembles NEC frames from falling edge timestamps. FallingEdge is
// meant to be called from the pin interrupt.
type Decoder struct {
	lock sync.Mutex
	rate uint32
	win  windows
	sink func(Frame)

	last    uint32
	hasLast bool
	inFrame bool
	bits    int
	raw     uint32
}

func NewDecoder(tickRate uint32, sink func(Frame)) *Decoder {
	if tickRate == 0 {
		tickRate = DEFAULT_TICK_RATE
	}
	return &Decoder{
		rate: tickRate,
		sink: sink,
		win: windows{
			zeroMin:   durationTicks(ZERO_MIN, tickRate),
			zeroMax:   durationTicks(ZERO_MAX, tickRate),
			oneMin:    durationTicks(ONE_MIN, tickRate),
			oneMax:    durationTicks(ONE_MAX, tickRate),
			leaderMin: durationTicks(LEADER_MIN, tickRate),
			leaderMax: durationTicks(LEADER_MAX, tickRate),
			abort:     durationTicks(ABORT_MIN, tickRate),
		},
	}
}

func (d *Decoder) TickRate() uint32 {
	return d.rate
}

// Classify maps an edge to edge delta in ticks to exactly one symbol.
func (d *Decoder) Classify(delta uint32) Symbol {
	w := d.win
	switch {
	case delta >= w.abort:
		return SymbolAbort
	case delta >= w.leaderMin && delta < w.leaderMax:
		return SymbolLeader
	case delta >= w.oneMin && delta < w.oneMax:
		return SymbolOne
	case delta >= w.zeroMin && delta < w.zeroMax:
		return SymbolZero
	}
	return SymbolNoise
}

// FallingEdge feeds one edge at tick. The counter may wrap.
func (d *Decoder) FallingEdge(tick uint32) {
	var (
		frame Frame
		emit  bool
	)

	d.lock.Lock()
	if !d.hasLast {
		d.last = tick
		d.hasLast = true
		d.lock.Unlock()
		return
	}

	delta := tick - d.last
	d.last = tick

	switch d.Classify(delta) {
	case SymbolAbort:
		d.resetFrame()
	case SymbolLeader:
		d.resetFrame()
		d.inFrame = true
	case SymbolZero:
		if d.inFrame {
			d.bits++
		}
	case SymbolOne:
		if d.inFrame {
			d.raw |= 1 << bitPosition(d.bits)
			d.bits++
		}
	}

	if d.inFrame && d.bits == FRAME_BITS {
		frame = frameFromUint32(d.raw)
		emit = true
		d.resetFrame()
	}
	d.lock.Unlock()

	if emit && d.sink != nil {
		d.sink(frame)
	}
}

// Reset drops any partial frame and forgets the last edge.
func (d *Decoder) Reset() {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.resetFrame()
	d.hasLast = false
}

func (d *Decoder) resetFrame() {
	d.inFrame = false
	d.bits = 0
	d.raw = 0
}
