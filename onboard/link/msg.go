package link

import (
	"errors"
)

const (
	SLOT_SIZE  = 32 // bytes per outbound slot, including room for the terminator
	QUEUE_SIZE = 10
	RX_SIZE    = 100
)

// errors
var (
	ERR_DATA_TOO_LONG = errors.New("message does not fit an outbound slot")
)

// Slot is an owned, fixed capacity outbound message.
type Slot struct {
	data [SLOT_SIZE]byte
	n    int
}

// NewSlot copies s into a slot. s must leave room for a terminator.
func NewSlot(s string) (slot Slot, err error) {
	if len(s) >= SLOT_SIZE {
		return slot, ERR_DATA_TOO_LONG
	}
	slot.n = copy(slot.data[:], s)
	return
}

func (s *Slot) Len() int {
	return s.n
}

func (s *Slot) Bytes() []byte {
	return s.data[:s.n]
}

func (s *Slot) String() string {
	return string(s.data[:s.n])
}
