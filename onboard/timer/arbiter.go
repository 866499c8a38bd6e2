package timer

import (
	"errors"
	"sync"
	"time"

	deverrors "github.com/CodedInternet/gorover/onboard/errors"
)

// TICK is the resolution of the shared countdown, 0.01ms.
const TICK = 10 * time.Microsecond

var (
	ErrBadDuration = errors.New("lease duration must be positive")
)

// Ticks converts a count of shared timer ticks into a duration.
func Ticks(n uint32) time.Duration {
	return time.Duration(n) * TICK
}

// Countdown is a single one-shot hardware countdown. fire must not be invoked
// from within Start.
type Countdown interface {
	Start(d time.Duration, fire func())
	Halt()
}

// SystemCountdown backs a Countdown with the runtime timer.
type SystemCountdown struct {
	lock sync.Mutex
	t    *time.Timer
}

func (c *SystemCountdown) Start(d time.Duration, fire func()) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.t != nil {
		c.t.Stop()
	}
	c.t = time.AfterFunc(d, fire)
}

func (c *SystemCountdown) Halt() {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.t != nil {
		c.t.Stop()
		c.t = nil
	}
}

// Arbiter hands out exclusive one-shot leases over a single Countdown.
// A second Acquire while a lease is outstanding is rejected.
type Arbiter struct {
	lock  sync.Mutex
	cd    Countdown
	lease *Lease
}

type Lease struct {
	arb      *Arbiter
	Owner    string
	Duration time.Duration
}

func NewArbiter(cd Countdown) *Arbiter {
	return &Arbiter{cd: cd}
}

// Acquire starts the countdown for d and runs fn on expiry. The lease is
// already cleared when fn runs, so fn may acquire again.
func (a *Arbiter) Acquire(owner string, d time.Duration, fn func()) (lease *Lease, err error) {
	if d <= 0 {
		return nil, ErrBadDuration
	}

	a.lock.Lock()
	defer a.lock.Unlock()

	if a.lease != nil {
		return nil, deverrors.TimerBusyError{Owner: a.lease.Owner, Requester: owner}
	}

	lease = &Lease{arb: a, Owner: owner, Duration: d}
	a.lease = lease
	a.cd.Start(d, func() {
		a.expire(lease, fn)
	})

	return lease, nil
}

func (a *Arbiter) expire(lease *Lease, fn func()) {
	a.lock.Lock()
	if a.lease != lease {
		// released before the countdown was halted
		a.lock.Unlock()
		return
	}
	a.lease = nil
	a.lock.Unlock()

	if fn != nil {
		fn()
	}
}

// Release halts the countdown whoever holds it. Safe to call on an idle timer.
func (a *Arbiter) Release() {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.lease = nil
	a.cd.Halt()
}

func (a *Arbiter) Busy() bool {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.lease != nil
}

func (a *Arbiter) Owner() string {
	a.lock.Lock()
	defer a.lock.Unlock()
	if a.lease == nil {
		return ""
	}
	return a.lease.Owner
}

// Release gives the timer back if this lease still holds it.
func (l *Lease) Release() {
	if l == nil {
		return
	}
	a := l.arb
	a.lock.Lock()
	defer a.lock.Unlock()
	if a.lease == l {
		a.lease = nil
		a.cd.Halt()
	}
}

// Active reports whether the lease still holds the timer.
func (l *Lease) Active() bool {
	if l == nil {
		return false
	}
	l.arb.lock.Lock()
	defer l.arb.lock.Unlock()
	return l.arb.lease == l
}
