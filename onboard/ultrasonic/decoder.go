package ultrasonic

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/CodedInternet/gorover/onboard/timer"
)

// NoObject is reported when the echo takes longer than the sensor range.
const NoObject Sample = math.MaxUint16

// HC-SR04 usable range
const (
	MIN_RANGE_CM = 4
	MAX_RANGE_CM = 200
)

var (
	ErrNoTrigger = errors.New("no trigger configured")
)

// Sample is a distance in centimetres or NoObject.
type Sample uint16

func (s Sample) Centimeters() (cm uint16, ok bool) {
	if s == NoObject {
		return 0, false
	}
	return uint16(s), true
}

// InRange reports whether the sample is within the sensor's rated range.
func (s Sample) InRange() bool {
	return s != NoObject && s >= MIN_RANGE_CM && s <= MAX_RANGE_CM
}

func (s Sample) String() string {
	if s == NoObject {
		return "no object"
	}
	return fmt.Sprintf("%dcm", uint16(s))
}

type Config struct {
	TickRate     uint32        `yaml:"tick_rate"`
	TicksPerCm   float64       `yaml:"ticks_per_cm"`
	OffsetCm     float64       `yaml:"offset_cm"`
	Timeout      time.Duration `yaml:"timeout"`
	TriggerPulse time.Duration `yaml:"trigger_pulse"`
}

// DefaultConfig is a 24MHz clock divided by 64 and a 36ms echo timeout.
func DefaultConfig() Config {
	return Config{
		TickRate:     375000,
		TicksPerCm:   21.866,
		OffsetCm:     12,
		Timeout:      36 * time.Millisecond,
		TriggerPulse: 10 * time.Microsecond,
	}
}

// Trigger raises the sensor trigger line for width.
type Trigger interface {
	Pulse(width time.Duration) error
}

// Decoder times the echo pulse of one sensor. Edge is meant to be called from
// the echo pin interrupt with the free running counter value.
type Decoder struct {
	lock     sync.Mutex
	cfg      Config
	trig     Trigger
	watchdog timer.Countdown
	sink     func(seq uint32, s Sample)

	seq     uint32
	armed   bool
	echoing bool
	start   uint32

	last    Sample
	hasLast bool
}

func NewDecoder(cfg Config, trig Trigger, watchdog timer.Countdown, sink func(seq uint32, s Sample)) *Decoder {
	return &Decoder{
		cfg:      cfg,
		trig:     trig,
		watchdog: watchdog,
		sink:     sink,
	}
}

// Start triggers a new measurement. Any measurement still in flight is
// abandoned.
func (d *Decoder) Start() (seq uint32, err error) {
	if d.trig == nil {
		return 0, ErrNoTrigger
	}

	d.lock.Lock()
	d.seq++
	seq = d.seq
	d.armed = true
	d.echoing = false
	d.lock.Unlock()

	if d.watchdog != nil {
		d.watchdog.Start(2*d.cfg.Timeout, func() {
			d.expire(seq)
		})
	}

	if err = d.trig.Pulse(d.cfg.TriggerPulse); err != nil {
		d.lock.Lock()
		if d.seq == seq {
			d.armed = false
		}
		d.lock.Unlock()
		if d.watchdog != nil {
			d.watchdog.Halt()
		}
		return 0, err
	}

	return seq, nil
}

// Edge records an echo transition at tick. A second rising edge restarts the
// timing, and edges outside a measurement are ignored.
func (d *Decoder) Edge(high bool, tick uint32) {
	d.lock.Lock()
	if !d.armed {
		d.lock.Unlock()
		return
	}
	if high {
		d.start = tick
		d.echoing = true
		d.lock.Unlock()
		return
	}
	if !d.echoing {
		d.lock.Unlock()
		return
	}

	// no further edges until the next Start
	d.armed = false
	d.echoing = false
	s := d.Decode(tick - d.start)
	d.last, d.hasLast = s, true
	seq := d.seq
	// halted under the lock so a Start racing in keeps its own watchdog
	if d.watchdog != nil {
		d.watchdog.Halt()
	}
	d.lock.Unlock()

	if d.sink != nil {
		d.sink(seq, s)
	}
}

// expire reports NoObject when no falling edge ever arrived.
func (d *Decoder) expire(seq uint32) {
	d.lock.Lock()
	if seq != d.seq || !d.armed {
		d.lock.Unlock()
		return
	}
	d.armed = false
	d.echoing = false
	d.last, d.hasLast = NoObject, true
	d.lock.Unlock()

	if d.sink != nil {
		d.sink(seq, NoObject)
	}
}

// Decode converts an echo width in counter ticks into a sample.
func (d *Decoder) Decode(elapsed uint32) Sample {
	// elapsed/rate > timeout, kept in integers so the boundary is exact
	if uint64(elapsed)*uint64(time.Second) > uint64(d.cfg.Timeout)*uint64(d.cfg.TickRate) {
		return NoObject
	}

	cm := float64(elapsed)/d.cfg.TicksPerCm - d.cfg.OffsetCm
	if cm < 0 {
		return 0
	}
	if cm >= float64(NoObject) {
		return NoObject - 1
	}
	return Sample(cm)
}

// Last returns the most recent sample, if any.
func (d *Decoder) Last() (s Sample, ok bool) {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.last, d.hasLast
}

// Busy reports whether a measurement is in flight.
func (d *Decoder) Busy() bool {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.armed
}
