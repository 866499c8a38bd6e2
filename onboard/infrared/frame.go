package infrared

import (
	"fmt"
	"time"
)

// Nominal NEC timings, measured falling edge to falling edge.
const (
	LEADER_PERIOD = 13500 * time.Microsecond // 9ms burst + 4.5ms space
	ZERO_PERIOD   = 1125 * time.Microsecond  // 562.5us burst + 562.5us space
	ONE_PERIOD    = 2250 * time.Microsecond  // 562.5us burst + 1687.5us space
	REPEAT_PERIOD = 11250 * time.Microsecond // 9ms burst + 2.25ms space

	FRAME_BITS = 32
)

// Frame is a full 32 bit NEC transmission.
type Frame struct {
	Address, AddressInv uint8
	Command, CommandInv uint8
}

// NewFrame builds a frame with the correct inverted fields.
func NewFrame(address, command uint8) Frame {
	return Frame{
		Address:    address,
		AddressInv: ^address,
		Command:    command,
		CommandInv: ^command,
	}
}

func frameFromUint32(raw uint32) Frame {
	return Frame{
		Address:    uint8(raw >> 24),
		AddressInv: uint8(raw >> 16),
		Command:    uint8(raw >> 8),
		CommandInv: uint8(raw),
	}
}

func (f Frame) Uint32() uint32 {
	return uint32(f.Address)<<24 | uint32(f.AddressInv)<<16 | uint32(f.Command)<<8 | uint32(f.CommandInv)
}

// Valid reports whether no bit is set in both a field and its inverse.
func (f Frame) Valid() bool {
	return f.Address&f.AddressInv == 0 && f.Command&f.CommandInv == 0
}

func (f Frame) String() string {
	return fmt.Sprintf("addr=0x%02X cmd=%d (%s) valid=%v", f.Address, f.Command, ButtonName(f.Command), f.Valid())
}

// bitPosition maps the i-th received bit to its position in the 32 bit word.
// Bytes arrive most significant first, bits inside a byte least significant
// first.
func bitPosition(i int) uint {
	return uint((3-i/8)*8 + i%8)
}

// Edges returns the falling edge ticks a receiver would see for this frame,
// starting with the leader at start. The last edge is the stop burst.
func (f Frame) Edges(start uint32, tickRate uint32) (edges []uint32) {
	leader := durationTicks(LEADER_PERIOD, tickRate)
	zero := durationTicks(ZERO_PERIOD, tickRate)
	one := durationTicks(ONE_PERIOD, tickRate)

	raw := f.Uint32()
	edges = make([]uint32, 0, FRAME_BITS+2)
	t := start
	edges = append(edges, t)
	t += leader
	edges = append(edges, t)
	for i := 0; i < FRAME_BITS; i++ {
		if raw&(1<<bitPosition(i)) != 0 {
			t += one
		} else {
			t += zero
		}
		edges = append(edges, t)
	}

	return
}

// durationTicks rounds d to the nearest tick at rate.
func durationTicks(d time.Duration, rate uint32) uint32 {
	return uint32((d.Nanoseconds()*int64(rate) + int64(time.Second)/2) / int64(time.Second))
}
