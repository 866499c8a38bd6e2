package errors

import (
	. "github.com/smartystreets/goconvey/convey"
	"testing"
)

func TestDeviceErrors(t *testing.T) {
	Convey("timer busy names both parties", t, func() {
		err := TimerBusyError{Owner: "servo", Requester: "powertrain"}
		So(err.Error(), ShouldEqual, "shared timer busy; held by servo, requested by powertrain")

		Convey("missing names are filled in", func() {
			So(TimerBusyError{}.Error(), ShouldContainSubstring, "UNKNOWN")
		})
	})

	Convey("unknown state includes the value", t, func() {
		So(UnknownStateError{State: 42}.Error(), ShouldEqual, "unknown drive state 42")
	})

	Convey("config version error", t, func() {
		err := ConfigVersionError{Version: "2.0.0", Constraint: "~1.0"}
		So(err.Error(), ShouldEqual, "config version 2.0.0 does not satisfy ~1.0")
	})
}
