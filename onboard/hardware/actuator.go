package hardware

import (
	"errors"
	"sync"
	"time"

	"github.com/CodedInternet/gorover/onboard/events"
	"github.com/CodedInternet/gorover/onboard/timer"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	SERVO_MIN_POSITION = -90
	SERVO_MAX_POSITION = 90

	SERVO_MIN_PULSE = 680 * time.Microsecond
	SERVO_MID_PULSE = 1400 * time.Microsecond
	SERVO_MAX_PULSE = 2300 * time.Microsecond

	SERVO_180DEG_TICKS = 28125 // datasheet figure in shared timer ticks
	SERVO_LOAD_PERCENT = 220   // slowdown from the mounted sensor
)

// DEFAULT_SWEEP is the time for a loaded 180 degree sweep.
var DEFAULT_SWEEP = timer.Ticks(SERVO_180DEG_TICKS) * SERVO_LOAD_PERCENT / 100

var (
	ErrNoPulseWriter = errors.New("positioner has no pulse writer")
)

// PulseWriter sets the high time of the servo PWM signal.
type PulseWriter interface {
	SetPulse(width time.Duration) error
}

// Positioner drives the sensor servo. The servo reports nothing back, so
// arrival is predicted from the angle travelled and signalled with a
// PositionReached event once the shared timer runs out.
type Positioner struct {
	lock  sync.Mutex
	arb   *timer.Arbiter
	pwm   PulseWriter
	sweep time.Duration
	post  func(events.Event) bool

	current, target int
	seq             uint32
	pending         bool
	lease           *timer.Lease
}

func NewPositioner(arb *timer.Arbiter, pwm PulseWriter, sweep time.Duration, post func(events.Event) bool) *Positioner {
	if sweep <= 0 {
		sweep = DEFAULT_SWEEP
	}
	return &Positioner{
		arb:   arb,
		pwm:   pwm,
		sweep: sweep,
		post:  post,
	}
}

func clampPosition(pos int) int {
	return int(mgl64.Clamp(float64(pos), SERVO_MIN_POSITION, SERVO_MAX_POSITION))
}

// PulseWidth maps a position in degrees onto the servo pulse width.
func PulseWidth(pos int) time.Duration {
	pos = clampPosition(pos)
	if pos < 0 {
		return SERVO_MID_PULSE + time.Duration(pos)*(SERVO_MID_PULSE-SERVO_MIN_PULSE)/90
	}
	return SERVO_MID_PULSE + time.Duration(pos)*(SERVO_MAX_PULSE-SERVO_MID_PULSE)/90
}

// SettleTime is the predicted travel time for delta degrees.
func SettleTime(delta int, sweep time.Duration) time.Duration {
	return time.Duration(mgl64.Abs(float64(delta)) / 180 * float64(sweep))
}

// SetPosition starts a move to target, clamped to the servo range. The
// returned seq identifies the PositionReached event for this move. Moving to
// the current position reports arrival straight away without using the timer.
func (p *Positioner) SetPosition(target int) (seq uint32, err error) {
	if p.pwm == nil {
		return 0, ErrNoPulseWriter
	}
	target = clampPosition(target)

	p.lock.Lock()
	defer p.lock.Unlock()

	// a new move supersedes our own pending one
	if p.pending {
		p.lease.Release()
		p.current = p.target
		p.pending = false
		p.lease = nil
	}

	next := p.seq + 1
	var lease *timer.Lease
	if delta := target - p.current; delta != 0 {
		lease, err = p.arb.Acquire("positioner", SettleTime(delta, p.sweep), func() {
			p.post(events.PositionReached{Seq: next})
		})
		if err != nil {
			return 0, err
		}
	}

	if err = p.pwm.SetPulse(PulseWidth(target)); err != nil {
		lease.Release()
		return 0, err
	}

	p.seq = next
	p.target = target
	p.pending = true
	p.lease = lease
	if lease == nil {
		p.post(events.PositionReached{Seq: next})
	}

	return next, nil
}

// Settle records arrival for seq. It reports false for stale or unknown moves.
func (p *Positioner) Settle(seq uint32) bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	if !p.pending || seq != p.seq {
		return false
	}
	p.pending = false
	p.current = p.target
	p.lease = nil
	return true
}

// Cancel gives up waiting for the pending move. The servo still travels to
// its last target.
func (p *Positioner) Cancel() {
	p.lock.Lock()
	defer p.lock.Unlock()
	if !p.pending {
		return
	}
	p.lease.Release()
	p.lease = nil
	p.pending = false
	p.current = p.target
}

func (p *Positioner) Position() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.current
}

func (p *Positioner) Target() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.target
}

func (p *Positioner) Moving() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.pending
}
