package onboard

import (
	"io/ioutil"
	"os"
	"testing"
	"time"

	deverrors "github.com/CodedInternet/gorover/onboard/errors"
	. "github.com/smartystreets/goconvey/convey"
	"gopkg.in/yaml.v2"
)

const testYaml = `
version: 1.0.3
debug: true
tick_interval: 100ms
ultrasonic:
  timeout: 30ms
speeds:
  forward: 60
gpio:
  left_motor: [20, 21]
simulator:
  obstacles:
    -90: 15
    0: 40
`

func TestConfigParsing(t *testing.T) {
	Convey("parsing is successful", t, func() {
		config, err := ParseConfig([]byte(testYaml))
		So(err, ShouldBeNil)

		Convey("given values override the defaults", func() {
			So(config.Debug, ShouldBeTrue)
			So(config.TickInterval, ShouldEqual, 100*time.Millisecond)
			So(config.Ultrasonic.Timeout, ShouldEqual, 30*time.Millisecond)
			So(config.Speeds.Forward, ShouldEqual, 60)
			So(config.GPIO.LeftMotor, ShouldResemble, PinPair{20, 21})
			So(config.Simulator.Obstacles, ShouldResemble, map[int]uint16{-90: 15, 0: 40})
		})

		Convey("everything else keeps the firmware defaults", func() {
			So(config.BatteryInterval, ShouldEqual, 10*time.Second)
			So(config.Ultrasonic.TickRate, ShouldEqual, 375000)
			So(config.Speeds.Reverse, ShouldEqual, 20)
			So(config.GPIO.RightMotor, ShouldResemble, PinPair{13, 19})
			So(config.ClearDistance, ShouldEqual, 20)
			So(config.Drive.Left, ShouldEqual, -90)
		})
	})

	Convey("pin pairs round trip as a flow list", t, func() {
		out, err := yaml.Marshal(GPIOConfig{LeftMotor: PinPair{1, 2}})
		So(err, ShouldBeNil)
		So(string(out), ShouldContainSubstring, "left_motor: [1, 2]")
	})

	Convey("a motor needs exactly two pins", t, func() {
		_, err := ParseConfig([]byte("version: 1.0.0\ngpio:\n  left_motor: [1, 2, 3]\n"))
		So(err, ShouldNotBeNil)
	})

	Convey("the schema version is checked", t, func() {
		_, err := ParseConfig([]byte("version: 2.0.0\n"))
		So(err, ShouldResemble, deverrors.ConfigVersionError{Version: "2.0.0", Constraint: CONFIG_VERSION_CONSTRAINT})

		_, err = ParseConfig([]byte("version: banana\n"))
		So(err, ShouldHaveSameTypeAs, deverrors.ConfigVersionError{})
	})

	Convey("nonsense limits are refused", t, func() {
		_, err := ParseConfig([]byte("version: 1.0.0\nspeeds:\n  min: 90\n  max: 50\n"))
		So(err, ShouldNotBeNil)

		_, err = ParseConfig([]byte("version: 1.0.0\ntick_interval: 0s\n"))
		So(err, ShouldNotBeNil)

		_, err = ParseConfig([]byte("version: 1.0.0\nspeeds:\n  turn: 0\n"))
		So(err, ShouldNotBeNil)
	})

	Convey("turn angles must be a real turn", t, func() {
		for _, doc := range []string{
			"drive:\n  avoid_degrees: 0\n",
			"drive:\n  escape_degrees: -180\n",
			"drive:\n  escape_degrees: 720\n",
			"remote_turn: 0\n",
		} {
			_, err := ParseConfig([]byte("version: 1.0.0\n" + doc))
			So(err, ShouldNotBeNil)
		}

		config, err := ParseConfig([]byte("version: 1.0.0\ndrive:\n  avoid_degrees: 45\nremote_turn: 30\n"))
		So(err, ShouldBeNil)
		So(config.Drive.AvoidDegrees, ShouldEqual, 45)
		So(config.RemoteTurn, ShouldEqual, 30)
	})
}

func TestLoadConfig(t *testing.T) {
	Convey("configs load from disk", t, func() {
		f, err := ioutil.TempFile("", "rover*.yaml")
		So(err, ShouldBeNil)
		defer os.Remove(f.Name())
		f.WriteString(testYaml)
		f.Close()

		config, err := LoadConfig(f.Name())
		So(err, ShouldBeNil)
		So(config.Version, ShouldEqual, "1.0.3")
	})

	Convey("a missing file is an error", t, func() {
		_, err := LoadConfig("/nonexistent/rover.yaml")
		So(err, ShouldNotBeNil)
	})
}
