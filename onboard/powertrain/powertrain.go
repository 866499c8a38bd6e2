package powertrain

import (
	"log"
	"sync"

	"github.com/CodedInternet/gorover/onboard/events"
	"github.com/CodedInternet/gorover/onboard/hardware"
	"github.com/CodedInternet/gorover/onboard/timer"
	"github.com/go-gl/mathgl/mgl64"
)

// Speeds are duty cycles in percent.
type Speeds struct {
	Forward uint8 `yaml:"forward"`
	Reverse uint8 `yaml:"reverse"`
	Turn    uint8 `yaml:"turn"`
	Step    uint8 `yaml:"step"`
	Min     uint8 `yaml:"min"`
	Max     uint8 `yaml:"max"`
}

func DefaultSpeeds() Speeds {
	return Speeds{
		Forward: 40,
		Reverse: 20,
		Turn:    50,
		Step:    10,
		Min:     20,
		Max:     100,
	}
}

// Observer is told about every change to either motor.
type Observer interface {
	MotorSpeed(side hardware.Side, speed uint8)
	MotorDirection(side hardware.Side, dir hardware.Direction)
}

// Powertrain owns the two drive motors. Turns are timed on the shared timer
// and end with a TurnCompleted event that the main loop hands to FinishTurn.
type Powertrain struct {
	lock   sync.Mutex
	motors [2]hardware.MotorDriver
	arb    *timer.Arbiter
	post   func(events.Event) bool
	obs    Observer
	speeds Speeds

	state   hardware.MotorPairState
	seq     uint32
	turn    int // signed degrees of the pending turn, positive is right
	lease   *timer.Lease
	heading float64
}

func NewPowertrain(left, right hardware.MotorDriver, arb *timer.Arbiter, post func(events.Event) bool, obs Observer, speeds Speeds) *Powertrain {
	pt := &Powertrain{
		motors: [2]hardware.MotorDriver{left, right},
		arb:    arb,
		post:   post,
		obs:    obs,
		speeds: speeds,
	}
	pt.state.Left.Direction = hardware.DIR_STOP
	pt.state.Right.Direction = hardware.DIR_STOP
	return pt
}

func (pt *Powertrain) side(side hardware.Side) *hardware.MotorState {
	if side == hardware.LEFT {
		return &pt.state.Left
	}
	return &pt.state.Right
}

// set drives one side. Must hold lock.
func (pt *Powertrain) set(side hardware.Side, dir hardware.Direction, speed uint8) (err error) {
	if dir == hardware.DIR_STOP {
		speed = 0
	}
	m := pt.motors[side]
	s := pt.side(side)

	if s.Direction != dir {
		if err = m.SetDirection(dir); err != nil {
			return
		}
		s.Direction = dir
		if pt.obs != nil {
			pt.obs.MotorDirection(side, dir)
		}
	}
	if s.Speed != speed {
		if err = m.SetSpeed(speed); err != nil {
			return
		}
		s.Speed = speed
		if pt.obs != nil {
			pt.obs.MotorSpeed(side, speed)
		}
	}
	return nil
}

func (pt *Powertrain) drive(left, right hardware.Direction, speed uint8) error {
	if err := pt.set(hardware.LEFT, left, speed); err != nil {
		return err
	}
	return pt.set(hardware.RIGHT, right, speed)
}

// cancelTurn drops a pending turn. Must hold lock.
func (pt *Powertrain) cancelTurn() {
	if pt.lease == nil {
		return
	}
	pt.lease.Release()
	pt.lease = nil
	pt.turn = 0
}

func (pt *Powertrain) Forward() error {
	pt.lock.Lock()
	defer pt.lock.Unlock()
	pt.cancelTurn()
	return pt.drive(hardware.DIR_FORWARD, hardware.DIR_FORWARD, pt.speeds.Forward)
}

func (pt *Powertrain) Reverse() error {
	pt.lock.Lock()
	defer pt.lock.Unlock()
	pt.cancelTurn()
	return pt.drive(hardware.DIR_REVERSE, hardware.DIR_REVERSE, pt.speeds.Reverse)
}

func (pt *Powertrain) Stop() error {
	pt.lock.Lock()
	defer pt.lock.Unlock()
	pt.cancelTurn()
	return pt.drive(hardware.DIR_STOP, hardware.DIR_STOP, 0)
}

func (pt *Powertrain) step(up bool) (err error) {
	pt.lock.Lock()
	defer pt.lock.Unlock()

	for _, side := range []hardware.Side{hardware.LEFT, hardware.RIGHT} {
		s := pt.side(side)
		if s.Direction == hardware.DIR_STOP {
			continue
		}
		speed := float64(s.Speed)
		if up {
			speed += float64(pt.speeds.Step)
		} else {
			speed -= float64(pt.speeds.Step)
		}
		speed = mgl64.Clamp(speed, float64(pt.speeds.Min), float64(pt.speeds.Max))
		if err = pt.set(side, s.Direction, uint8(speed)); err != nil {
			return
		}
	}
	return nil
}

// SpeedUp raises both running sides by one step, up to the maximum.
func (pt *Powertrain) SpeedUp() error {
	return pt.step(true)
}

// SpeedDown lowers both running sides by one step, down to the minimum.
func (pt *Powertrain) SpeedDown() error {
	return pt.step(false)
}

func (pt *Powertrain) TurnLeft(deg int) (seq uint32, err error) {
	return pt.pivot(-deg, hardware.DIR_REVERSE, hardware.DIR_FORWARD)
}

func (pt *Powertrain) TurnRight(deg int) (seq uint32, err error) {
	return pt.pivot(deg, hardware.DIR_FORWARD, hardware.DIR_REVERSE)
}

func (pt *Powertrain) pivot(deg int, left, right hardware.Direction) (seq uint32, err error) {
	d, err := TurnDuration(deg, pt.speeds.Turn)
	if err != nil {
		return 0, err
	}

	pt.lock.Lock()
	defer pt.lock.Unlock()
	pt.cancelTurn()

	next := pt.seq + 1
	lease, err := pt.arb.Acquire("powertrain", d, func() {
		pt.post(events.TurnCompleted{Seq: next})
	})
	if err != nil {
		return 0, err
	}

	if err = pt.drive(left, right, pt.speeds.Turn); err != nil {
		lease.Release()
		pt.drive(hardware.DIR_STOP, hardware.DIR_STOP, 0)
		return 0, err
	}

	pt.seq = next
	pt.turn = deg
	pt.lease = lease
	return next, nil
}

// FinishTurn stops the motors at the end of turn seq. Stale or unknown turns
// are ignored and return false.
func (pt *Powertrain) FinishTurn(seq uint32) bool {
	pt.lock.Lock()
	defer pt.lock.Unlock()
	if pt.lease == nil || seq != pt.seq {
		return false
	}

	pt.heading = NormalizeHeading(pt.heading + float64(pt.turn))
	pt.lease = nil
	pt.turn = 0
	if err := pt.drive(hardware.DIR_STOP, hardware.DIR_STOP, 0); err != nil {
		log.Printf("[powertrain] stopping after turn %d: %v", seq, err)
	}
	return true
}

// CancelTurn abandons a pending turn and stops.
func (pt *Powertrain) CancelTurn() {
	pt.lock.Lock()
	defer pt.lock.Unlock()
	if pt.lease == nil {
		return
	}
	pt.cancelTurn()
	pt.drive(hardware.DIR_STOP, hardware.DIR_STOP, 0)
}

func (pt *Powertrain) Turning() bool {
	pt.lock.Lock()
	defer pt.lock.Unlock()
	return pt.lease != nil
}

func (pt *Powertrain) State() hardware.MotorPairState {
	pt.lock.Lock()
	defer pt.lock.Unlock()
	return pt.state
}

// Heading is the dead reckoned heading in degrees from completed turns.
func (pt *Powertrain) Heading() float64 {
	pt.lock.Lock()
	defer pt.lock.Unlock()
	return pt.heading
}
