package remote

import (
	"fmt"
	"strings"

	"github.com/CodedInternet/gorover/onboard/infrared"
)

const DEFAULT_TURN_DEGREES = 45

type IntentKind uint8

const (
	INTENT_NONE IntentKind = iota
	INTENT_FORWARD
	INTENT_REVERSE
	INTENT_TURN_LEFT
	INTENT_TURN_RIGHT
	INTENT_STOP
	INTENT_SPEED_UP
	INTENT_SPEED_DOWN
	INTENT_TOGGLE_MODE
)

var intentNames = [...]string{
	INTENT_NONE:        "none",
	INTENT_FORWARD:     "forward",
	INTENT_REVERSE:     "reverse",
	INTENT_TURN_LEFT:   "turn left",
	INTENT_TURN_RIGHT:  "turn right",
	INTENT_STOP:        "stop",
	INTENT_SPEED_UP:    "speed up",
	INTENT_SPEED_DOWN:  "speed down",
	INTENT_TOGGLE_MODE: "toggle mode",
}

func (k IntentKind) String() string {
	if int(k) < len(intentNames) {
		return intentNames[k]
	}
	return fmt.Sprintf("intent(%d)", uint8(k))
}

// Intent is what the operator asked for. Degrees is only set for turns.
type Intent struct {
	Kind    IntentKind
	Degrees int
}

func (i Intent) String() string {
	if i.Degrees != 0 {
		return fmt.Sprintf("%s %d", i.Kind, i.Degrees)
	}
	return i.Kind.String()
}

// Translator turns remote buttons and link commands into intents. Everything
// except the mode toggle is only honoured while under remote control.
type Translator struct {
	TurnDegrees int
}

func NewTranslator(turnDegrees int) *Translator {
	if turnDegrees <= 0 {
		turnDegrees = DEFAULT_TURN_DEGREES
	}
	return &Translator{TurnDegrees: turnDegrees}
}

func (t *Translator) FromInfrared(cmd uint8, valid bool, remote bool) Intent {
	if !valid {
		return Intent{}
	}
	if cmd == infrared.BUTTON_ASTERISK {
		return Intent{Kind: INTENT_TOGGLE_MODE}
	}
	if !remote {
		return Intent{}
	}

	switch cmd {
	case infrared.BUTTON_UP:
		return Intent{Kind: INTENT_FORWARD}
	case infrared.BUTTON_DOWN:
		return Intent{Kind: INTENT_REVERSE}
	case infrared.BUTTON_LEFT:
		return Intent{Kind: INTENT_TURN_LEFT, Degrees: t.TurnDegrees}
	case infrared.BUTTON_RIGHT:
		return Intent{Kind: INTENT_TURN_RIGHT, Degrees: t.TurnDegrees}
	case infrared.BUTTON_OK:
		return Intent{Kind: INTENT_STOP}
	case infrared.BUTTON_2:
		return Intent{Kind: INTENT_SPEED_UP}
	case infrared.BUTTON_8:
		return Intent{Kind: INTENT_SPEED_DOWN}
	}
	return Intent{}
}

// FromLine reads the three letter command at the start of a link line. AUT
// asks for autonomy and so only means something under remote control, MAN
// the reverse.
func (t *Translator) FromLine(line string, remote bool) Intent {
	line = strings.TrimSpace(line)
	if len(line) < 3 {
		return Intent{}
	}

	switch cmd := line[:3]; cmd {
	case "AUT":
		if remote {
			return Intent{Kind: INTENT_TOGGLE_MODE}
		}
	case "MAN":
		if !remote {
			return Intent{Kind: INTENT_TOGGLE_MODE}
		}
	default:
		if !remote {
			return Intent{}
		}
		switch cmd {
		case "FWD":
			return Intent{Kind: INTENT_FORWARD}
		case "REV":
			return Intent{Kind: INTENT_REVERSE}
		case "LFT":
			return Intent{Kind: INTENT_TURN_LEFT, Degrees: t.TurnDegrees}
		case "RGT":
			return Intent{Kind: INTENT_TURN_RIGHT, Degrees: t.TurnDegrees}
		case "STP":
			return Intent{Kind: INTENT_STOP}
		}
	}
	return Intent{}
}
