package hardware

import "fmt"

type Direction uint8

const (
	DIR_FORWARD Direction = iota
	DIR_REVERSE
	DIR_STOP
)

func (d Direction) String() string {
	switch d {
	case DIR_FORWARD:
		return "forward"
	case DIR_REVERSE:
		return "reverse"
	case DIR_STOP:
		return "stop"
	}
	return fmt.Sprintf("direction(%d)", uint8(d))
}

type Side uint8

const (
	LEFT Side = iota
	RIGHT
)

func (s Side) String() string {
	if s == LEFT {
		return "left"
	}
	return "right"
}

// MotorState is speed in percent and direction. A stopped motor has zero speed.
type MotorState struct {
	Direction Direction
	Speed     uint8
}

type MotorPairState struct {
	Left, Right MotorState
}

func (s MotorPairState) Side(side Side) MotorState {
	if side == LEFT {
		return s.Left
	}
	return s.Right
}

func (s MotorPairState) String() string {
	return fmt.Sprintf("L:%s@%d R:%s@%d", s.Left.Direction, s.Left.Speed, s.Right.Direction, s.Right.Speed)
}

// MotorDriver is the electrical drive of one motor. Calls are fire and forget.
type MotorDriver interface {
	SetDirection(dir Direction) error
	SetSpeed(speed uint8) error
}
