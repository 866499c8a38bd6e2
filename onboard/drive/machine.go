package drive

import (
	"errors"
	"fmt"
	"log"
	"sync"

	deverrors "github.com/CodedInternet/gorover/onboard/errors"
	"github.com/CodedInternet/gorover/onboard/events"
	"github.com/CodedInternet/gorover/onboard/remote"
)

var (
	ErrStarted = errors.New("drive machine already started")
)

type Powertrain interface {
	Forward() error
	Reverse() error
	Stop() error
	SpeedUp() error
	SpeedDown() error
	TurnLeft(deg int) (seq uint32, err error)
	TurnRight(deg int) (seq uint32, err error)
	FinishTurn(seq uint32) bool
	CancelTurn()
}

type Sensor interface {
	CheckSingleClearance(dir int) error
	CheckDoubleClearance(first, second int) error
	Cancel()
	Busy() bool
}

type ModeReporter interface {
	ModeSwitch(autonomous bool)
}

// Config sets where the rover looks and how far it turns to get clear.
type Config struct {
	Ahead         int `yaml:"ahead"`
	Left          int `yaml:"left"`
	Right         int `yaml:"right"`
	AvoidDegrees  int `yaml:"avoid_degrees"`
	EscapeDegrees int `yaml:"escape_degrees"`
}

func DefaultConfig() Config {
	return Config{
		Ahead:         0,
		Left:          -90,
		Right:         90,
		AvoidDegrees:  90,
		EscapeDegrees: 180,
	}
}

// IsFatal reports whether err means the machine cannot go on.
func IsFatal(err error) bool {
	var unknown deverrors.UnknownStateError
	return errors.As(err, &unknown)
}

// Machine decides what the rover does next. It is driven from a single
// goroutine; the lock only guards State for readers elsewhere.
type Machine struct {
	lock  sync.Mutex
	state State

	pt  Powertrain
	sc  Sensor
	tel ModeReporter
	cfg Config
}

func NewMachine(pt Powertrain, sc Sensor, tel ModeReporter, cfg Config) *Machine {
	return &Machine{
		state: Init{},
		pt:    pt,
		sc:    sc,
		tel:   tel,
		cfg:   cfg,
	}
}

func (m *Machine) State() State {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.state
}

func (m *Machine) Kind() StateKind {
	return m.State().Kind()
}

func (m *Machine) transition(to State) {
	m.lock.Lock()
	from := m.state
	m.state = to
	m.lock.Unlock()
	log.Printf("[drive] %s -> %s", Describe(from), Describe(to))
}

// Describe names a state, with its details when it has any.
func Describe(s State) string {
	if s == nil {
		return "<nil>"
	}
	if str, ok := s.(fmt.Stringer); ok {
		return str.String()
	}
	return s.Kind().String()
}

// Start leaves Init for Remote with the motors stopped.
func (m *Machine) Start() error {
	if _, ok := m.State().(Init); !ok {
		return ErrStarted
	}
	m.transition(Remote{})
	return m.pt.Stop()
}

// Handle feeds one event to the machine. Events that mean nothing in the
// current state are dropped.
func (m *Machine) Handle(ev events.Event) error {
	// a finished turn always stops the motors, whoever started it
	if tc, ok := ev.(events.TurnCompleted); ok {
		if !m.pt.FinishTurn(tc.Seq) {
			return nil
		}
	}

	switch m.State().(type) {
	case Init, Remote:
		return nil
	case Running:
		return m.running(ev)
	case Sensing:
		return m.sensing(ev)
	case Turning:
		if _, ok := ev.(events.TurnCompleted); ok {
			m.transition(Running{})
			return m.pt.Forward()
		}
		return nil
	}
	return deverrors.UnknownStateError{State: m.State()}
}

func (m *Machine) running(ev events.Event) error {
	switch ev := ev.(type) {
	case events.PeriodicTick:
		if m.sc.Busy() {
			return nil
		}
		return m.sc.CheckSingleClearance(m.cfg.Ahead)
	case events.Clearance:
		if ev.Free {
			// a no-op unless an earlier turn failed and left the motors stopped
			return m.pt.Forward()
		}
		m.transition(Sensing{})
		if err := m.pt.Stop(); err != nil {
			return err
		}
		return m.sc.CheckDoubleClearance(m.cfg.Left, m.cfg.Right)
	}
	return nil
}

func (m *Machine) sensing(ev events.Event) error {
	dc, ok := ev.(events.DualClearance)
	if !ok {
		return nil
	}

	next := Turning{Direction: TURN_RIGHT, Degrees: m.cfg.EscapeDegrees}
	switch {
	case dc.FirstFree:
		next = Turning{Direction: TURN_LEFT, Degrees: m.cfg.AvoidDegrees}
	case dc.SecondFree:
		next = Turning{Direction: TURN_RIGHT, Degrees: m.cfg.AvoidDegrees}
	}

	var err error
	if next.Direction == TURN_LEFT {
		_, err = m.pt.TurnLeft(next.Degrees)
	} else {
		_, err = m.pt.TurnRight(next.Degrees)
	}
	if err != nil {
		// stay put; the next tick looks ahead again
		m.transition(Running{})
		return err
	}
	m.transition(next)
	return nil
}

// Apply carries out an operator intent.
func (m *Machine) Apply(intent remote.Intent) error {
	if intent.Kind == remote.INTENT_NONE {
		return nil
	}

	switch m.State().(type) {
	case Init:
		return nil
	case Remote:
		return m.remote(intent)
	case Running, Sensing, Turning:
		if intent.Kind != remote.INTENT_TOGGLE_MODE {
			return nil
		}
		m.sc.Cancel()
		m.pt.CancelTurn()
		m.transition(Remote{})
		if m.tel != nil {
			m.tel.ModeSwitch(false)
		}
		return m.pt.Stop()
	}
	return deverrors.UnknownStateError{State: m.State()}
}

func (m *Machine) remote(intent remote.Intent) (err error) {
	switch intent.Kind {
	case remote.INTENT_TOGGLE_MODE:
		m.pt.CancelTurn()
		m.transition(Running{})
		if m.tel != nil {
			m.tel.ModeSwitch(true)
		}
		return m.pt.Forward()
	case remote.INTENT_FORWARD:
		return m.pt.Forward()
	case remote.INTENT_REVERSE:
		return m.pt.Reverse()
	case remote.INTENT_STOP:
		return m.pt.Stop()
	case remote.INTENT_SPEED_UP:
		return m.pt.SpeedUp()
	case remote.INTENT_SPEED_DOWN:
		return m.pt.SpeedDown()
	case remote.INTENT_TURN_LEFT:
		_, err = m.pt.TurnLeft(intent.Degrees)
	case remote.INTENT_TURN_RIGHT:
		_, err = m.pt.TurnRight(intent.Degrees)
	}
	return
}
