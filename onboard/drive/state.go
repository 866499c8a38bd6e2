package drive

import "fmt"

type StateKind uint8

const (
	STATE_INIT StateKind = iota
	STATE_RUNNING
	STATE_SENSING
	STATE_TURNING
	STATE_REMOTE
)

func (k StateKind) String() string {
	switch k {
	case STATE_INIT:
		return "init"
	case STATE_RUNNING:
		return "running"
	case STATE_SENSING:
		return "sensing"
	case STATE_TURNING:
		return "turning"
	case STATE_REMOTE:
		return "remote"
	}
	return fmt.Sprintf("state(%d)", uint8(k))
}

// State is one of Init, Running, Sensing, Turning or Remote.
type State interface {
	Kind() StateKind
	state()
}

type Init struct{}

// Running drives forward and checks ahead on every tick.
type Running struct{}

// Sensing has stopped and is looking left and right.
type Sensing struct{}

// Turning is pivoting away from an obstacle.
type Turning struct {
	Direction TurnDirection
	Degrees   int
}

// Remote follows the operator.
type Remote struct{}

func (Init) Kind() StateKind    { return STATE_INIT }
func (Running) Kind() StateKind { return STATE_RUNNING }
func (Sensing) Kind() StateKind { return STATE_SENSING }
func (Turning) Kind() StateKind { return STATE_TURNING }
func (Remote) Kind() StateKind  { return STATE_REMOTE }

func (Init) state()    {}
func (Running) state() {}
func (Sensing) state() {}
func (Turning) state() {}
func (Remote) state()  {}

func (t Turning) String() string {
	return fmt.Sprintf("turning %s %d", t.Direction, t.Degrees)
}

type TurnDirection uint8

const (
	TURN_LEFT TurnDirection = iota
	TURN_RIGHT
)

func (d TurnDirection) String() string {
	if d == TURN_LEFT {
		return "left"
	}
	return "right"
}
