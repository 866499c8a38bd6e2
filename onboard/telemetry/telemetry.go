package telemetry

import (
	"errors"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/CodedInternet/gorover/onboard/hardware"
)

type MessageType uint8

const (
	MSG_OBJECT_DETECTED MessageType = iota
	MSG_BATTERY_STATUS
	MSG_L_MOTOR_SPEED
	MSG_R_MOTOR_SPEED
	MSG_L_MOTOR_DIR
	MSG_R_MOTOR_DIR
	MSG_MODE_SWITCH
)

type Severity uint8

const (
	SEV_LOW Severity = iota
	SEV_MEDIUM
	SEV_HIGH
)

const (
	MAX_LINE_LEN    = 30 // a 32 byte slot less \r\n
	MAX_PAYLOAD_LEN = 17 // MAX_LINE_LEN less the "type:%d,sev:%d," header

	BATTERY_OK_PCT  = 80
	BATTERY_LOW_PCT = 20

	CLOSE_OBJECT_CM = 10
)

var (
	ErrPayloadTooLong = errors.New("telemetry payload too long")
	ErrMessageTooLong = errors.New("telemetry line too long")
)

// Format renders one outbound telemetry line, without the terminator.
func Format(t MessageType, sev Severity, payload string) (line string, err error) {
	if len(payload) > MAX_PAYLOAD_LEN {
		return "", ErrPayloadTooLong
	}
	line = fmt.Sprintf("type:%d,sev:%d,%s", t, sev, payload)
	if len(line) > MAX_LINE_LEN {
		return "", ErrMessageTooLong
	}
	return
}

// BatterySeverity grades a charge level.
func BatterySeverity(pct uint8) Severity {
	switch {
	case pct >= BATTERY_OK_PCT:
		return SEV_LOW
	case pct <= BATTERY_LOW_PCT:
		return SEV_HIGH
	}
	return SEV_MEDIUM
}

// Sender queues a line for the radio link.
type Sender interface {
	Enqueue(msg string) bool
}

// Notifier formats events into telemetry lines. Lines that cannot be sent are
// dropped and counted.
type Notifier struct {
	out     Sender
	Debug   bool
	dropped uint64
}

func NewNotifier(out Sender) *Notifier {
	return &Notifier{out: out}
}

func (n *Notifier) Notify(t MessageType, sev Severity, payload string) bool {
	line, err := Format(t, sev, payload)
	if err == nil && n.out != nil && n.out.Enqueue(line) {
		return true
	}

	atomic.AddUint64(&n.dropped, 1)
	if n.Debug {
		log.Printf("[telemetry] dropped type:%d %q err=%v", t, payload, err)
	}
	return false
}

func (n *Notifier) Dropped() uint64 {
	return atomic.LoadUint64(&n.dropped)
}

// BatteryStatus takes a single reading so the severity matches the voltage sent.
func (n *Notifier) BatteryStatus(b hardware.Battery) {
	mv := b.Voltage()
	n.Notify(MSG_BATTERY_STATUS, BatterySeverity(hardware.BatteryPercentage(mv)), fmt.Sprintf("v:%d", mv))
}

func (n *Notifier) MotorSpeed(side hardware.Side, speed uint8) {
	t := MSG_L_MOTOR_SPEED
	if side == hardware.RIGHT {
		t = MSG_R_MOTOR_SPEED
	}
	n.Notify(t, SEV_LOW, fmt.Sprintf("sp:%d", speed))
}

func (n *Notifier) MotorDirection(side hardware.Side, dir hardware.Direction) {
	t := MSG_L_MOTOR_DIR
	if side == hardware.RIGHT {
		t = MSG_R_MOTOR_DIR
	}
	n.Notify(t, SEV_LOW, fmt.Sprintf("dir:%d", dir))
}

// ObjectDetected reports an obstruction at angle degrees, cm away.
func (n *Notifier) ObjectDetected(angle int, cm uint16) {
	sev := SEV_MEDIUM
	if cm < CLOSE_OBJECT_CM {
		sev = SEV_HIGH
	}
	n.Notify(MSG_OBJECT_DETECTED, sev, fmt.Sprintf("ang:%d,dst:%d", angle, cm))
}

func (n *Notifier) ModeSwitch(autonomous bool) {
	mode := 0
	if autonomous {
		mode = 1
	}
	n.Notify(MSG_MODE_SWITCH, SEV_LOW, fmt.Sprintf("mode:%d", mode))
}
