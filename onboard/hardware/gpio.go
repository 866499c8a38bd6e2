package hardware

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brian-armstrong/gpio"
)

// GPIOMotor drives one side of an L298 style H-bridge through two direction
// pins. Speed needs a PWM channel the sysfs interface does not have, so it is
// only recorded.
type GPIOMotor struct {
	in1, in2 gpio.Pin
	speed    uint8
}

func NewGPIOMotor(in1, in2 uint) *GPIOMotor {
	return &GPIOMotor{
		in1: gpio.NewOutput(in1, false),
		in2: gpio.NewOutput(in2, false),
	}
}

func (m *GPIOMotor) SetDirection(dir Direction) error {
	switch dir {
	case DIR_FORWARD:
		m.in1.High()
		m.in2.Low()
	case DIR_REVERSE:
		m.in1.Low()
		m.in2.High()
	default:
		m.in1.Low()
		m.in2.Low()
	}
	return nil
}

func (m *GPIOMotor) SetSpeed(speed uint8) error {
	m.speed = speed
	return nil
}

func (m *GPIOMotor) Close() {
	m.in1.Low()
	m.in2.Low()
	m.in1.Close()
	m.in2.Close()
}

// GPIOTrigger pulses the ultrasonic trigger pin.
type GPIOTrigger struct {
	pin gpio.Pin
}

func NewGPIOTrigger(pin uint) *GPIOTrigger {
	return &GPIOTrigger{pin: gpio.NewOutput(pin, false)}
}

func (t *GPIOTrigger) Pulse(width time.Duration) error {
	t.pin.High()
	time.Sleep(width)
	t.pin.Low()
	return nil
}

func (t *GPIOTrigger) Close() {
	t.pin.Close()
}

// EdgeWatcher stamps pin changes with a free running tick count and hands
// them to the handler registered for that pin.
type EdgeWatcher struct {
	lock     sync.Mutex
	watcher  *gpio.Watcher
	handlers map[uint]func(high bool, tick uint32)
	epoch    time.Time
	rate     map[uint]uint32
	stop     chan struct{}
}

func NewEdgeWatcher() *EdgeWatcher {
	return &EdgeWatcher{
		watcher:  gpio.NewWatcher(),
		handlers: make(map[uint]func(bool, uint32)),
		rate:     make(map[uint]uint32),
		epoch:    time.Now(),
		stop:     make(chan struct{}),
	}
}

// Handle registers fn for pin, with ticks counted at rate Hz.
func (w *EdgeWatcher) Handle(pin uint, rate uint32, fn func(high bool, tick uint32)) {
	w.lock.Lock()
	w.handlers[pin] = fn
	w.rate[pin] = rate
	w.lock.Unlock()
	w.watcher.AddPin(pin)
}

// Ticks is the counter value at rate for the current instant.
func (w *EdgeWatcher) Ticks(rate uint32) uint32 {
	return TicksSince(w.epoch, time.Now(), rate)
}

// TicksSince converts the time between epoch and now into a wrapping counter.
func TicksSince(epoch, now time.Time, rate uint32) uint32 {
	d := now.Sub(epoch)
	sec := uint64(d / time.Second)
	rem := uint64(d % time.Second)
	return uint32(sec*uint64(rate) + rem*uint64(rate)/uint64(time.Second))
}

func (w *EdgeWatcher) Run() {
	for {
		pin, value := w.watcher.Watch()
		now := time.Now()

		select {
		case <-w.stop:
			return
		default:
		}

		w.lock.Lock()
		fn, ok := w.handlers[pin]
		rate := w.rate[pin]
		w.lock.Unlock()
		if !ok {
			log.Printf("[gpio] edge on unhandled pin %d", pin)
			continue
		}
		fn(value != 0, TicksSince(w.epoch, now, rate))
	}
}

func (w *EdgeWatcher) Close() {
	close(w.stop)
	w.watcher.Close()
}

// SERVO_PERIOD is the standard 50Hz hobby servo frame.
const SERVO_PERIOD = 20 * time.Millisecond

// GPIOServo bit bangs the servo signal on a plain output pin. Jitter is a few
// tens of microseconds, about a degree.
type GPIOServo struct {
	pin   gpio.Pin
	width int64 // nanoseconds, atomic
	stop  chan struct{}
	done  chan struct{}
}

func NewGPIOServo(pin uint) *GPIOServo {
	s := &GPIOServo{
		pin:   gpio.NewOutput(pin, false),
		width: int64(SERVO_MID_PULSE),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *GPIOServo) SetPulse(width time.Duration) error {
	atomic.StoreInt64(&s.width, int64(width))
	return nil
}

func (s *GPIOServo) run() {
	defer close(s.done)
	ticker := time.NewTicker(SERVO_PERIOD)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			s.pin.Low()
			return
		case <-ticker.C:
		}
		s.pin.High()
		time.Sleep(time.Duration(atomic.LoadInt64(&s.width)))
		s.pin.Low()
	}
}

func (s *GPIOServo) Close() {
	close(s.stop)
	<-s.done
	s.pin.Close()
}
