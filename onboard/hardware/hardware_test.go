package hardware

import (
	"errors"
	"io/ioutil"
	"os"
	"testing"
	"time"

	"github.com/CodedInternet/gorover/onboard/events"
	"github.com/CodedInternet/gorover/onboard/timer"
	. "github.com/smartystreets/goconvey/convey"
)

type testCountdown struct {
	d    time.Duration
	fire func()
}

func (c *testCountdown) Start(d time.Duration, fire func()) {
	c.d, c.fire = d, fire
}

func (c *testCountdown) Halt() {
	c.fire = nil
}

func (c *testCountdown) expire() {
	f := c.fire
	c.fire = nil
	if f != nil {
		f()
	}
}

type testServo struct {
	pulses []time.Duration
	err    error
}

func (s *testServo) SetPulse(width time.Duration) error {
	if s.err != nil {
		return s.err
	}
	s.pulses = append(s.pulses, width)
	return nil
}

func TestPulseWidth(t *testing.T) {
	Convey("pulse widths follow the servo datasheet", t, func() {
		So(PulseWidth(-90), ShouldEqual, 680*time.Microsecond)
		So(PulseWidth(0), ShouldEqual, 1400*time.Microsecond)
		So(PulseWidth(90), ShouldEqual, 2300*time.Microsecond)
		So(PulseWidth(-45), ShouldEqual, 1040*time.Microsecond)
		So(PulseWidth(45), ShouldEqual, 1850*time.Microsecond)
	})

	Convey("out of range positions clamp", t, func() {
		So(PulseWidth(-180), ShouldEqual, PulseWidth(-90))
		So(PulseWidth(400), ShouldEqual, PulseWidth(90))
	})

	Convey("settle time is proportional to the angle", t, func() {
		So(DEFAULT_SWEEP, ShouldEqual, 618750*time.Microsecond)
		So(SettleTime(180, DEFAULT_SWEEP), ShouldEqual, DEFAULT_SWEEP)
		So(SettleTime(-90, time.Second), ShouldEqual, 500*time.Millisecond)
		So(SettleTime(0, time.Second), ShouldEqual, 0)
	})
}

func TestPositioner(t *testing.T) {
	Convey("a positioner at centre", t, func() {
		cd := &testCountdown{}
		arb := timer.NewArbiter(cd)
		servo := &testServo{}
		q := events.NewQueue(4)
		p := NewPositioner(arb, servo, time.Second, q.Post)

		Convey("a move leases the timer for the travel time", func() {
			seq, err := p.SetPosition(-90)
			So(err, ShouldBeNil)
			So(seq, ShouldEqual, 1)
			So(servo.pulses, ShouldResemble, []time.Duration{680 * time.Microsecond})
			So(cd.d, ShouldEqual, 500*time.Millisecond)
			So(arb.Owner(), ShouldEqual, "positioner")
			So(p.Moving(), ShouldBeTrue)
			So(q.Len(), ShouldEqual, 0)

			Convey("expiry posts position reached and settle records it", func() {
				cd.expire()
				So(<-q.C(), ShouldResemble, events.PositionReached{Seq: 1})
				So(p.Position(), ShouldEqual, 0)
				So(p.Settle(1), ShouldBeTrue)
				So(p.Position(), ShouldEqual, -90)
				So(p.Moving(), ShouldBeFalse)

				Convey("settling twice is refused", func() {
					So(p.Settle(1), ShouldBeFalse)
				})
			})

			Convey("a stale seq does not settle", func() {
				So(p.Settle(7), ShouldBeFalse)
				So(p.Moving(), ShouldBeTrue)
			})

			Convey("cancel frees the timer", func() {
				p.Cancel()
				So(arb.Busy(), ShouldBeFalse)
				So(p.Position(), ShouldEqual, -90)
				So(p.Settle(1), ShouldBeFalse)
			})

			Convey("a new move supersedes the pending one", func() {
				seq, err := p.SetPosition(90)
				So(err, ShouldBeNil)
				So(seq, ShouldEqual, 2)
				So(cd.d, ShouldEqual, time.Second)
				So(p.Settle(1), ShouldBeFalse)
			})
		})

		Convey("a zero distance move reports at once without the timer", func() {
			seq, err := p.SetPosition(0)
			So(err, ShouldBeNil)
			So(arb.Busy(), ShouldBeFalse)
			So(<-q.C(), ShouldResemble, events.PositionReached{Seq: seq})
			So(p.Settle(seq), ShouldBeTrue)
		})

		Convey("targets are clamped", func() {
			p.SetPosition(150)
			So(p.Target(), ShouldEqual, 90)
		})

		Convey("a busy timer is surfaced", func() {
			arb.Acquire("powertrain", time.Second, nil)
			_, err := p.SetPosition(45)
			So(err, ShouldNotBeNil)
			So(p.Moving(), ShouldBeFalse)
			So(servo.pulses, ShouldBeEmpty)
		})

		Convey("a servo fault releases the lease", func() {
			servo.err = errors.New("pwm fault")
			_, err := p.SetPosition(45)
			So(err, ShouldNotBeNil)
			So(arb.Busy(), ShouldBeFalse)
			So(p.Moving(), ShouldBeFalse)
		})
	})

	Convey("no pulse writer is an error", t, func() {
		p := NewPositioner(timer.NewArbiter(&testCountdown{}), nil, 0, nil)
		_, err := p.SetPosition(10)
		So(err, ShouldEqual, ErrNoPulseWriter)
	})
}

func TestMotorState(t *testing.T) {
	Convey("directions and sides name themselves", t, func() {
		So(DIR_FORWARD.String(), ShouldEqual, "forward")
		So(DIR_STOP.String(), ShouldEqual, "stop")
		So(Direction(9).String(), ShouldEqual, "direction(9)")
		So(RIGHT.String(), ShouldEqual, "right")
	})

	Convey("pair state picks a side", t, func() {
		s := MotorPairState{Left: MotorState{DIR_REVERSE, 50}, Right: MotorState{DIR_FORWARD, 50}}
		So(s.Side(LEFT).Direction, ShouldEqual, DIR_REVERSE)
		So(s.String(), ShouldEqual, "L:reverse@50 R:forward@50")
	})
}

func TestBattery(t *testing.T) {
	Convey("battery percentage is linear between the limits", t, func() {
		So(BatteryPercentage(5000), ShouldEqual, 0)
		So(BatteryPercentage(6000), ShouldEqual, 0)
		So(BatteryPercentage(7200), ShouldEqual, 50)
		So(BatteryPercentage(8400), ShouldEqual, 100)
		So(BatteryPercentage(9000), ShouldEqual, 100)
	})

	Convey("a fixed battery reports its voltage", t, func() {
		b := FixedBattery(7200)
		So(b.Voltage(), ShouldEqual, 7200)
		So(b.Percentage(), ShouldEqual, 50)
	})

	Convey("a sysfs battery scales the raw ADC counts", t, func() {
		f, err := ioutil.TempFile("", "in_voltage0_raw")
		So(err, ShouldBeNil)
		defer os.Remove(f.Name())
		f.WriteString("2048\n")
		f.Close()

		b := SysfsBattery{Path: f.Name(), Scale: 4}
		So(b.Voltage(), ShouldEqual, 8192)
		So(b.Percentage(), ShouldEqual, 91)

		Convey("a missing channel reads as flat", func() {
			b.Path = f.Name() + ".missing"
			So(b.Voltage(), ShouldEqual, 0)
		})
	})
}

func TestTicksSince(t *testing.T) {
	Convey("ticks count at the requested rate", t, func() {
		epoch := time.Unix(0, 0)
		So(TicksSince(epoch, epoch.Add(time.Second), 8192), ShouldEqual, 8192)
		So(TicksSince(epoch, epoch.Add(2*time.Millisecond), 375000), ShouldEqual, 750)
	})

	Convey("long uptimes wrap instead of overflowing", t, func() {
		epoch := time.Unix(0, 0)
		day := TicksSince(epoch, epoch.Add(24*time.Hour), 375000)
		So(day, ShouldEqual, uint32(uint64(86400*375000)%(1<<32)))
	})
}
