package hardware

import (
	"io/ioutil"
	"log"
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// 2S li-ion pack limits in millivolts
const (
	BATTERY_MAX_MV = 8400
	BATTERY_MIN_MV = 6000
)

// Battery is read on demand.
type Battery interface {
	Voltage() uint16 // millivolts
	Percentage() uint8
}

// BatteryPercentage maps a pack voltage linearly onto 0-100.
func BatteryPercentage(mv uint16) uint8 {
	if mv <= BATTERY_MIN_MV {
		return 0
	}
	if mv >= BATTERY_MAX_MV {
		return 100
	}
	return uint8(uint32(mv-BATTERY_MIN_MV) * 100 / (BATTERY_MAX_MV - BATTERY_MIN_MV))
}

// FixedBattery reports a constant voltage, for boards without a pack monitor.
type FixedBattery uint16

func (b FixedBattery) Voltage() uint16   { return uint16(b) }
func (b FixedBattery) Percentage() uint8 { return BatteryPercentage(uint16(b)) }

// SysfsBattery reads the pack through an IIO ADC channel behind a resistor
// divider. Scale converts raw counts to millivolts at the pack.
type SysfsBattery struct {
	Path  string
	Scale float64
}

func (b SysfsBattery) Voltage() uint16 {
	raw, err := ioutil.ReadFile(b.Path)
	if err != nil {
		log.Printf("[battery] read %s: %v", b.Path, err)
		return 0
	}
	counts, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
	if err != nil {
		log.Printf("[battery] parse %s: %v", b.Path, err)
		return 0
	}
	return uint16(mgl64.Clamp(counts*b.Scale, 0, math.MaxUint16))
}

func (b SysfsBattery) Percentage() uint8 {
	return BatteryPercentage(b.Voltage())
}
