package remote

import (
	"testing"

	"github.com/CodedInternet/gorover/onboard/infrared"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFromInfrared(t *testing.T) {
	tr := NewTranslator(0)

	Convey("under remote control", t, func() {
		So(tr.FromInfrared(infrared.BUTTON_UP, true, true), ShouldResemble, Intent{Kind: INTENT_FORWARD})
		So(tr.FromInfrared(infrared.BUTTON_DOWN, true, true), ShouldResemble, Intent{Kind: INTENT_REVERSE})
		So(tr.FromInfrared(infrared.BUTTON_LEFT, true, true), ShouldResemble, Intent{Kind: INTENT_TURN_LEFT, Degrees: 45})
		So(tr.FromInfrared(infrared.BUTTON_RIGHT, true, true), ShouldResemble, Intent{Kind: INTENT_TURN_RIGHT, Degrees: 45})
		So(tr.FromInfrared(infrared.BUTTON_OK, true, true), ShouldResemble, Intent{Kind: INTENT_STOP})
		So(tr.FromInfrared(infrared.BUTTON_2, true, true), ShouldResemble, Intent{Kind: INTENT_SPEED_UP})
		So(tr.FromInfrared(infrared.BUTTON_8, true, true), ShouldResemble, Intent{Kind: INTENT_SPEED_DOWN})
		So(tr.FromInfrared(infrared.BUTTON_ASTERISK, true, true), ShouldResemble, Intent{Kind: INTENT_TOGGLE_MODE})
		So(tr.FromInfrared(infrared.BUTTON_5, true, true).Kind, ShouldEqual, INTENT_NONE)
	})

	Convey("in autonomous mode only the toggle counts", t, func() {
		So(tr.FromInfrared(infrared.BUTTON_UP, true, false).Kind, ShouldEqual, INTENT_NONE)
		So(tr.FromInfrared(infrared.BUTTON_OK, true, false).Kind, ShouldEqual, INTENT_NONE)
		So(tr.FromInfrared(infrared.BUTTON_ASTERISK, true, false).Kind, ShouldEqual, INTENT_TOGGLE_MODE)
	})

	Convey("invalid frames mean nothing", t, func() {
		So(tr.FromInfrared(infrared.BUTTON_ASTERISK, false, true).Kind, ShouldEqual, INTENT_NONE)
		So(tr.FromInfrared(infrared.BUTTON_UP, false, true).Kind, ShouldEqual, INTENT_NONE)
	})
}

func TestFromLine(t *testing.T) {
	tr := NewTranslator(30)

	Convey("movement commands need remote control", t, func() {
		So(tr.FromLine("FWD", true).Kind, ShouldEqual, INTENT_FORWARD)
		So(tr.FromLine("REV", true).Kind, ShouldEqual, INTENT_REVERSE)
		So(tr.FromLine("LFT", true), ShouldResemble, Intent{Kind: INTENT_TURN_LEFT, Degrees: 30})
		So(tr.FromLine("RGT", true), ShouldResemble, Intent{Kind: INTENT_TURN_RIGHT, Degrees: 30})
		So(tr.FromLine("STP", true).Kind, ShouldEqual, INTENT_STOP)
		So(tr.FromLine("FWD", false).Kind, ShouldEqual, INTENT_NONE)
	})

	Convey("only the first three characters count", t, func() {
		So(tr.FromLine("  FWD please\r", true).Kind, ShouldEqual, INTENT_FORWARD)
		So(tr.FromLine("ST", true).Kind, ShouldEqual, INTENT_NONE)
		So(tr.FromLine("", true).Kind, ShouldEqual, INTENT_NONE)
		So(tr.FromLine("fwd", true).Kind, ShouldEqual, INTENT_NONE)
	})

	Convey("AUT and MAN only toggle towards the other mode", t, func() {
		So(tr.FromLine("AUT", true).Kind, ShouldEqual, INTENT_TOGGLE_MODE)
		So(tr.FromLine("AUT", false).Kind, ShouldEqual, INTENT_NONE)
		So(tr.FromLine("MAN", false).Kind, ShouldEqual, INTENT_TOGGLE_MODE)
		So(tr.FromLine("MAN", true).Kind, ShouldEqual, INTENT_NONE)
	})

	Convey("intents name themselves", t, func() {
		So(Intent{Kind: INTENT_TURN_LEFT, Degrees: 45}.String(), ShouldEqual, "turn left 45")
		So(Intent{Kind: INTENT_STOP}.String(), ShouldEqual, "stop")
		So(IntentKind(42).String(), ShouldEqual, "intent(42)")
	})
}
