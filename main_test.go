package main

import (
	"testing"

	"github.com/CodedInternet/gorover/onboard/infrared"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseButton(t *testing.T) {
	Convey("buttons are given by name or code", t, func() {
		code, err := parseButton("up")
		So(err, ShouldBeNil)
		So(code, ShouldEqual, infrared.BUTTON_UP)

		code, err = parseButton("OK")
		So(err, ShouldBeNil)
		So(code, ShouldEqual, infrared.BUTTON_OK)

		code, err = parseButton("0x42")
		So(err, ShouldBeNil)
		So(code, ShouldEqual, infrared.BUTTON_ASTERISK)

		code, err = parseButton("7")
		So(err, ShouldBeNil)
		So(code, ShouldEqual, infrared.BUTTON_7)

		_, err = parseButton("jump")
		So(err, ShouldNotBeNil)

		_, err = parseButton("300")
		So(err, ShouldNotBeNil)
	})
}
