package powertrain

import (
	"errors"
	"math"
	"time"

	"github.com/CodedInternet/gorover/onboard/timer"
	"github.com/go-gl/mathgl/mgl64"
)

// A skid steer turn at full power covers 360 degrees in a second, measured on
// carpet with a full pack.
const FULL_POWER_DEG_PER_SEC = 360

var (
	ErrNoPower = errors.New("turn power must be above zero")
)

// TurnDuration predicts how long a pivot of deg degrees takes with both sides
// driven at pct percent. The sign of deg is ignored.
func TurnDuration(deg int, pct uint8) (d time.Duration, err error) {
	if pct == 0 {
		return 0, ErrNoPower
	}
	// ticks = deg / (deg per tick), kept in integers like the countdown
	ticks := uint32(mgl64.Abs(float64(deg))) * 10000 * 100 / (FULL_POWER_DEG_PER_SEC / 10 * uint32(pct))
	return timer.Ticks(ticks), nil
}

// NormalizeHeading wraps a heading in degrees onto [0, 360).
func NormalizeHeading(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
