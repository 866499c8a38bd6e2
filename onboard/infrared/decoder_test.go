package infrared

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func collect() (*[]Frame, func(Frame)) {
	frames := new([]Frame)
	return frames, func(f Frame) {
		*frames = append(*frames, f)
	}
}

func feed(d *Decoder, edges []uint32) {
	for _, e := range edges {
		d.FallingEdge(e)
	}
}

func TestClassify(t *testing.T) {
	for _, rate := range []uint32{DEFAULT_TICK_RATE, 38000, 1000000} {
		d := NewDecoder(rate, nil)

		Convey("windows are ordered and disjoint", t, func() {
			w := d.win
			So(w.zeroMin, ShouldBeLessThan, w.zeroMax)
			So(w.zeroMax, ShouldBeLessThanOrEqualTo, w.oneMin)
			So(w.oneMin, ShouldBeLessThan, w.oneMax)
			So(w.oneMax, ShouldBeLessThanOrEqualTo, w.leaderMin)
			So(w.leaderMin, ShouldBeLessThan, w.leaderMax)
			So(w.leaderMax, ShouldBeLessThanOrEqualTo, w.abort)
		})

		Convey("every delta falls in exactly one class, in window order", t, func() {
			order := []Symbol{SymbolNoise, SymbolZero, SymbolNoise, SymbolOne, SymbolNoise, SymbolLeader, SymbolNoise, SymbolAbort}
			idx, ordered := 0, true
			for delta := uint32(0); delta <= d.win.abort+10 && ordered; delta++ {
				s := d.Classify(delta)
				if s != order[idx] {
					idx++
				}
				ordered = idx < len(order) && s == order[idx]
			}
			So(ordered, ShouldBeTrue)
			So(idx, ShouldEqual, len(order)-1)
		})

		Convey("nominal periods classify as expected", t, func() {
			So(d.Classify(durationTicks(ZERO_PERIOD, rate)), ShouldEqual, SymbolZero)
			So(d.Classify(durationTicks(ONE_PERIOD, rate)), ShouldEqual, SymbolOne)
			So(d.Classify(durationTicks(LEADER_PERIOD, rate)), ShouldEqual, SymbolLeader)
			So(d.Classify(durationTicks(REPEAT_PERIOD, rate)), ShouldEqual, SymbolNoise)
			So(d.Classify(^uint32(0)), ShouldEqual, SymbolAbort)
		})
	}
}

func TestDecoder(t *testing.T) {
	Convey("a decoder at the default rate", t, func() {
		frames, sink := collect()
		d := NewDecoder(0, sink)
		So(d.TickRate(), ShouldEqual, DEFAULT_TICK_RATE)

		Convey("round trips every button", func() {
			start := uint32(1000)
			for code := range buttonNames {
				feed(d, NewFrame(0x00, code).Edges(start, DEFAULT_TICK_RATE))
				start += 2000 // well past the abort threshold
			}
			So(len(*frames), ShouldEqual, len(buttonNames))
			for _, f := range *frames {
				So(f.Valid(), ShouldBeTrue)
				So(f.Address, ShouldEqual, 0)
				So(ButtonName(f.Command), ShouldNotEqual, "?")
			}
		})

		Convey("recovers address and command", func() {
			feed(d, NewFrame(0xA5, BUTTON_UP).Edges(50, DEFAULT_TICK_RATE))
			So(*frames, ShouldHaveLength, 1)
			So((*frames)[0], ShouldResemble, NewFrame(0xA5, BUTTON_UP))
		})

		Convey("invalid frames are still delivered", func() {
			bad := Frame{Address: 0x01, AddressInv: 0x01, Command: 0x46, CommandInv: 0xB9}
			feed(d, bad.Edges(0, DEFAULT_TICK_RATE))
			So(*frames, ShouldHaveLength, 1)
			So((*frames)[0].Valid(), ShouldBeFalse)
			So((*frames)[0].Command, ShouldEqual, 0x46)
		})

		Convey("the first edge is not classified", func() {
			edges := NewFrame(0, BUTTON_OK).Edges(0, DEFAULT_TICK_RATE)
			// without the leader start edge the leader is never seen
			feed(d, edges[1:])
			So(*frames, ShouldBeEmpty)
		})

		Convey("bits outside a frame are ignored", func() {
			d.FallingEdge(0)
			for i := uint32(1); i <= 40; i++ {
				d.FallingEdge(i * 9)
			}
			So(*frames, ShouldBeEmpty)
			So(d.inFrame, ShouldBeFalse)
			So(d.bits, ShouldEqual, 0)
		})

		Convey("an abort mid frame resets", func() {
			edges := NewFrame(0, BUTTON_OK).Edges(0, DEFAULT_TICK_RATE)
			feed(d, edges[:10])
			So(d.inFrame, ShouldBeTrue)

			d.FallingEdge(edges[9] + d.win.abort)
			So(d.inFrame, ShouldBeFalse)
			So(d.bits, ShouldEqual, 0)

			Convey("and the next frame decodes", func() {
				feed(d, NewFrame(0, BUTTON_DOWN).Edges(edges[9]+2*d.win.abort, DEFAULT_TICK_RATE))
				So(*frames, ShouldHaveLength, 1)
				So((*frames)[0].Command, ShouldEqual, BUTTON_DOWN)
			})
		})

		Convey("a repeat code after a frame emits nothing", func() {
			edges := NewFrame(0, BUTTON_2).Edges(0, DEFAULT_TICK_RATE)
			feed(d, edges)
			last := edges[len(edges)-1]
			// ~40ms gap then a repeat burst
			d.FallingEdge(last + durationTicks(40e6, DEFAULT_TICK_RATE))
			d.FallingEdge(last + durationTicks(40e6+REPEAT_PERIOD, DEFAULT_TICK_RATE))
			So(*frames, ShouldHaveLength, 1)
		})

		Convey("the counter may wrap mid frame", func() {
			feed(d, NewFrame(0x10, BUTTON_9).Edges(^uint32(0)-200, DEFAULT_TICK_RATE))
			So(*frames, ShouldHaveLength, 1)
			So((*frames)[0].Command, ShouldEqual, BUTTON_9)
		})

		Convey("reset forgets the reference edge", func() {
			d.FallingEdge(10)
			d.Reset()
			So(d.hasLast, ShouldBeFalse)
		})
	})

	Convey("a fast tick rate decodes the same frame", t, func() {
		frames, sink := collect()
		d := NewDecoder(1000000, sink)
		feed(d, NewFrame(0x00, BUTTON_ASTERISK).Edges(0, 1000000))
		So(*frames, ShouldHaveLength, 1)
		So((*frames)[0].Command, ShouldEqual, BUTTON_ASTERISK)
	})
}

func TestFrame(t *testing.T) {
	Convey("frame fields pack most significant first", t, func() {
		f := NewFrame(0x00, 0x46)
		So(f.Uint32(), ShouldEqual, uint32(0x00FF46B9))
		So(frameFromUint32(0x00FF46B9), ShouldResemble, f)
	})

	Convey("the first bit lands in the address lsb", t, func() {
		So(bitPosition(0), ShouldEqual, 24)
		So(bitPosition(7), ShouldEqual, 31)
		So(bitPosition(8), ShouldEqual, 16)
		So(bitPosition(31), ShouldEqual, 7)
	})

	Convey("edges cover leader plus every bit", t, func() {
		So(NewFrame(1, 2).Edges(0, DEFAULT_TICK_RATE), ShouldHaveLength, FRAME_BITS+2)
	})

	Convey("button names map both ways", t, func() {
		code, ok := ButtonCode("up")
		So(ok, ShouldBeTrue)
		So(code, ShouldEqual, BUTTON_UP)
		_, ok = ButtonCode("nope")
		So(ok, ShouldBeFalse)
		So(ButtonNames(), ShouldHaveLength, len(buttonNames))
	})
}
