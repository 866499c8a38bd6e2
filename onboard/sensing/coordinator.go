package sensing

import (
	"log"
	"sync"

	deverrors "github.com/CodedInternet/gorover/onboard/errors"
	"github.com/CodedInternet/gorover/onboard/events"
	"github.com/CodedInternet/gorover/onboard/ultrasonic"
)

const DEFAULT_CLEAR_DISTANCE_CM = 20

type Mode uint8

const (
	MODE_IDLE Mode = iota
	MODE_SINGLE
	MODE_DOUBLE
)

func (m Mode) String() string {
	switch m {
	case MODE_SINGLE:
		return "single"
	case MODE_DOUBLE:
		return "double"
	}
	return "idle"
}

type phase uint8

const (
	PHASE_NONE phase = iota
	PHASE_POSITIONING
	PHASE_RANGING
)

type Positioner interface {
	SetPosition(target int) (seq uint32, err error)
	Settle(seq uint32) bool
	Cancel()
}

type Ranger interface {
	Start() (seq uint32, err error)
}

// Reporter is told about every obstruction found.
type Reporter interface {
	ObjectDetected(angle int, cm uint16)
}

// Coordinator points the sensor, takes a range reading and decides whether
// the way is clear, for one direction or two in turn.
type Coordinator struct {
	lock      sync.Mutex
	pos       Positioner
	rng       Ranger
	post      func(events.Event) bool
	rep       Reporter
	clearance uint16
	Debug     bool

	mode      Mode
	phase     phase
	direction int
	moveSeq   uint32
	rangeSeq  uint32

	// first leg of a double check
	nextDirection  int
	previousSample ultrasonic.Sample
	sampleCount    int
}

func NewCoordinator(pos Positioner, rng Ranger, post func(events.Event) bool, rep Reporter, clearCm uint16) *Coordinator {
	if clearCm == 0 {
		clearCm = DEFAULT_CLEAR_DISTANCE_CM
	}
	return &Coordinator{
		pos:       pos,
		rng:       rng,
		post:      post,
		rep:       rep,
		clearance: clearCm,
	}
}

// Free reports whether a sample leaves room to drive.
func (c *Coordinator) Free(s ultrasonic.Sample) bool {
	return s == ultrasonic.NoObject || uint16(s) >= c.clearance
}

func (c *Coordinator) CheckSingleClearance(dir int) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.mode != MODE_IDLE {
		return deverrors.SensingBusyError{Mode: c.mode.String()}
	}
	c.mode = MODE_SINGLE
	return c.point(dir)
}

// CheckDoubleClearance checks first then second and posts a DualClearance.
func (c *Coordinator) CheckDoubleClearance(first, second int) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.mode != MODE_IDLE {
		return deverrors.SensingBusyError{Mode: c.mode.String()}
	}
	c.mode = MODE_DOUBLE
	c.nextDirection = second
	return c.point(first)
}

// point starts a move for the current leg. Must hold lock.
func (c *Coordinator) point(dir int) error {
	c.direction = dir
	seq, err := c.pos.SetPosition(dir)
	if err != nil {
		c.abort(err)
		return err
	}
	c.moveSeq = seq
	c.phase = PHASE_POSITIONING
	return nil
}

// OnPositionReached continues the check when seq is the move it is waiting
// on. It returns false when the event belongs to someone else.
func (c *Coordinator) OnPositionReached(seq uint32) bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.phase != PHASE_POSITIONING || seq != c.moveSeq {
		return false
	}
	if !c.pos.Settle(seq) {
		return false
	}

	rseq, err := c.rng.Start()
	if err != nil {
		c.abort(err)
		return true
	}
	c.rangeSeq = rseq
	c.phase = PHASE_RANGING
	return true
}

// OnSample evaluates a reading taken for the check in flight.
func (c *Coordinator) OnSample(seq uint32, s ultrasonic.Sample) bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.phase != PHASE_RANGING || seq != c.rangeSeq {
		if c.Debug {
			log.Printf("[sensing] ignoring sample %d (%s)", seq, s)
		}
		return false
	}

	free := c.Free(s)
	if !free && c.rep != nil {
		c.rep.ObjectDetected(c.direction, uint16(s))
	}

	switch {
	case c.mode == MODE_SINGLE:
		dir := c.direction
		c.reset()
		c.post(events.Clearance{Direction: dir, Free: free, Distance: uint16(s)})
	case c.sampleCount == 0:
		c.previousSample = s
		c.sampleCount = 1
		if err := c.point(c.nextDirection); err != nil {
			log.Printf("[sensing] second leg: %v", err)
		}
	default:
		first := c.Free(c.previousSample)
		c.reset()
		c.post(events.DualClearance{FirstFree: first, SecondFree: free})
	}
	return true
}

// abort gives up on the check and reports the way blocked, so whoever waits
// on the result is not left hanging. Must hold lock.
func (c *Coordinator) abort(err error) {
	log.Printf("[sensing] %s check aborted: %v", c.mode, err)
	mode, dir := c.mode, c.direction
	c.reset()
	if mode == MODE_SINGLE {
		c.post(events.Clearance{Direction: dir})
	} else {
		c.post(events.DualClearance{})
	}
}

func (c *Coordinator) reset() {
	c.mode = MODE_IDLE
	c.phase = PHASE_NONE
	c.direction = 0
	c.moveSeq = 0
	c.rangeSeq = 0
	c.nextDirection = 0
	c.previousSample = 0
	c.sampleCount = 0
}

// Cancel abandons the check in flight. No result is posted.
func (c *Coordinator) Cancel() {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.mode == MODE_IDLE {
		return
	}
	if c.phase == PHASE_POSITIONING {
		c.pos.Cancel()
	}
	c.reset()
}

func (c *Coordinator) Busy() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.mode != MODE_IDLE
}

func (c *Coordinator) Mode() Mode {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.mode
}
