package onboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/CodedInternet/gorover/onboard/drive"
	"github.com/CodedInternet/gorover/onboard/events"
	"github.com/CodedInternet/gorover/onboard/hardware"
	"github.com/CodedInternet/gorover/onboard/infrared"
	"github.com/CodedInternet/gorover/onboard/link"
	"github.com/CodedInternet/gorover/onboard/powertrain"
	"github.com/CodedInternet/gorover/onboard/remote"
	"github.com/CodedInternet/gorover/onboard/sensing"
	"github.com/CodedInternet/gorover/onboard/telemetry"
	"github.com/CodedInternet/gorover/onboard/timer"
	"github.com/CodedInternet/gorover/onboard/ultrasonic"
)

var (
	ErrStopped = errors.New("rover main loop is not running")
)

// Rover wires the hardware backend to the control components and runs the
// main loop that owns them.
type Rover struct {
	cfg     RoverConfig
	backend Backend

	queue      *events.Queue
	arbiter    *timer.Arbiter
	ir         *infrared.Decoder
	sonar      *ultrasonic.Decoder
	framer     *link.Framer
	port       *link.Port
	positioner *hardware.Positioner
	powertrain *powertrain.Powertrain
	notifier   *telemetry.Notifier
	sensing    *sensing.Coordinator
	translator *remote.Translator
	machine    *drive.Machine

	calls   chan func()
	running chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewRover builds a rover on backend. Telemetry goes out over rw when given,
// else over the configured serial device, else to the log.
func NewRover(cfg RoverConfig, backend Backend, rw io.ReadWriteCloser) (*Rover, error) {
	return newRover(cfg, backend, rw, func() timer.Countdown {
		return new(timer.SystemCountdown)
	})
}

func newRover(cfg RoverConfig, backend Backend, rw io.ReadWriteCloser, countdown func() timer.Countdown) (r *Rover, err error) {
	r = &Rover{
		cfg:     cfg,
		backend: backend,
		queue:   events.NewQueue(cfg.EventQueue),
		arbiter: timer.NewArbiter(countdown()),
		calls:   make(chan func()),
		running: make(chan struct{}),
		done:    make(chan struct{}),
	}
	post := r.queue.Post

	r.framer = link.NewFramer(cfg.Link.RxSize, cfg.Link.QueueSize, func(line string) bool {
		return post(events.LineReceived{Line: line})
	})
	switch {
	case rw != nil:
		r.port = link.NewPort(rw, r.framer)
	case cfg.Link.Device != "":
		if r.port, err = link.OpenPort(cfg.Link.Device, cfg.Link.Baud, r.framer); err != nil {
			return nil, fmt.Errorf("unable to open link %s: %v", cfg.Link.Device, err)
		}
	default:
		r.port = link.NewPort(newLogLink(), r.framer)
	}

	r.notifier = telemetry.NewNotifier(r.framer)
	r.notifier.Debug = cfg.Debug

	r.ir = infrared.NewDecoder(cfg.Infrared.TickRate, func(f infrared.Frame) {
		post(events.InfraredCommand{Command: f.Command, Valid: f.Valid()})
	})
	r.sonar = ultrasonic.NewDecoder(cfg.Ultrasonic, backend.Sonar(), countdown(), func(seq uint32, s ultrasonic.Sample) {
		post(events.RangeSample{Seq: seq, Sample: uint16(s)})
	})

	r.positioner = hardware.NewPositioner(r.arbiter, backend.Servo(), cfg.Servo.Sweep, post)
	r.powertrain = powertrain.NewPowertrain(backend.LeftMotor(), backend.RightMotor(), r.arbiter, post, r.notifier, cfg.Speeds)
	r.sensing = sensing.NewCoordinator(r.positioner, r.sonar, post, r.notifier, cfg.ClearDistance)
	r.sensing.Debug = cfg.Debug
	r.translator = remote.NewTranslator(cfg.RemoteTurn)
	r.machine = drive.NewMachine(r.powertrain, r.sensing, r.notifier, cfg.Drive)

	if err = backend.Attach(r.ir.FallingEdge, r.sonar.Edge); err != nil {
		return nil, err
	}
	return r, nil
}

// Run starts the machine and dispatches events until ctx is done or the
// machine fails.
func (r *Rover) Run(ctx context.Context) (err error) {
	defer r.once.Do(func() { close(r.done) })

	if err = r.machine.Start(); err != nil {
		return
	}
	r.port.Start()
	close(r.running)

	tick := time.NewTicker(r.cfg.TickInterval)
	defer tick.Stop()
	battery := time.NewTicker(r.cfg.BatteryInterval)
	defer battery.Stop()

	log.Printf("[rover] running in %s, infrared clock %dHz", r.machine.Kind(), r.ir.TickRate())
	r.notifier.BatteryStatus(r.backend.Battery())

	for {
		select {
		case <-ctx.Done():
			r.halt()
			return nil
		case <-tick.C:
			err = r.dispatch(events.PeriodicTick{})
		case <-battery.C:
			err = r.dispatch(events.BatteryTick{})
		case fn := <-r.calls:
			fn()
		case ev := <-r.queue.C():
			err = r.dispatch(ev)
		}

		if err != nil {
			r.halt()
			return err
		}
	}
}

// dispatch routes one event. Only fatal machine errors are returned.
func (r *Rover) dispatch(ev events.Event) (err error) {
	switch ev := ev.(type) {
	case events.InfraredCommand:
		intent := r.translator.FromInfrared(ev.Command, ev.Valid, r.remote())
		if r.cfg.Debug {
			log.Printf("[rover] %s -> %s", ev, intent)
		}
		err = r.machine.Apply(intent)
	case events.LineReceived:
		intent := r.translator.FromLine(ev.Line, r.remote())
		if r.cfg.Debug {
			log.Printf("[rover] %s -> %s", ev, intent)
		}
		err = r.machine.Apply(intent)
	case events.PositionReached:
		if !r.sensing.OnPositionReached(ev.Seq) {
			r.positioner.Settle(ev.Seq)
		}
	case events.RangeSample:
		r.sensing.OnSample(ev.Seq, ultrasonic.Sample(ev.Sample))
	case events.BatteryTick:
		r.notifier.BatteryStatus(r.backend.Battery())
	default:
		err = r.machine.Handle(ev)
	}

	if err != nil && !drive.IsFatal(err) {
		log.Printf("[rover] %T: %v", ev, err)
		err = nil
	}
	return
}

func (r *Rover) remote() bool {
	return r.machine.Kind() == drive.STATE_REMOTE
}

// halt leaves the rover stopped with nothing in flight.
func (r *Rover) halt() {
	r.sensing.Cancel()
	r.powertrain.CancelTurn()
	if err := r.powertrain.Stop(); err != nil {
		log.Printf("[rover] stopping motors: %v", err)
	}
}

// Do runs fn on the main loop and waits for it.
func (r *Rover) Do(fn func()) error {
	select {
	case <-r.running:
	case <-r.done:
		return ErrStopped
	}

	finished := make(chan struct{})
	select {
	case r.calls <- func() { fn(); close(finished) }:
	case <-r.done:
		return ErrStopped
	}
	<-finished
	return nil
}

// Post queues an event as if it came from an interrupt.
func (r *Rover) Post(ev events.Event) bool {
	return r.queue.Post(ev)
}

// Receive feeds bytes to the link as if they came off the wire.
func (r *Rover) Receive(data []byte) {
	for _, b := range data {
		r.framer.ReceiveByte(b)
	}
}

func (r *Rover) Close() error {
	err := r.port.Close()
	if berr := r.backend.Close(); err == nil {
		err = berr
	}
	return err
}

type Status struct {
	State          string
	Motors         hardware.MotorPairState
	Heading        float64
	Servo          int
	Range          ultrasonic.Sample
	HasRange       bool
	BatteryPct     uint8
	Timer          string
	DroppedEvents  uint64
	DroppedLines   uint64
	DroppedReports uint64
}

// String is the one line status. A range outside the sensor's rated span is
// marked with a trailing ?.
func (s Status) String() string {
	rng := "none"
	if s.HasRange {
		rng = s.Range.String()
		if s.Range != ultrasonic.NoObject && !s.Range.InRange() {
			rng += "?"
		}
	}
	owner := s.Timer
	if owner == "" {
		owner = "idle"
	}
	return fmt.Sprintf("state=%s motors=[%s] heading=%.0f servo=%d range=%s battery=%d%% timer=%s dropped=%d/%d/%d",
		s.State, s.Motors, s.Heading, s.Servo, rng, s.BatteryPct, owner,
		s.DroppedEvents, s.DroppedLines, s.DroppedReports)
}

// Status is a snapshot safe to take from any goroutine.
func (r *Rover) Status() (s Status) {
	s.State = drive.Describe(r.machine.State())
	s.BatteryPct = r.backend.Battery().Percentage()
	s.Motors = r.powertrain.State()
	s.Heading = r.powertrain.Heading()
	s.Servo = r.positioner.Position()
	s.Range, s.HasRange = r.sonar.Last()
	s.Timer = r.arbiter.Owner()
	s.DroppedEvents = r.queue.Dropped()
	s.DroppedLines = r.framer.DroppedLines()
	s.DroppedReports = r.notifier.Dropped()
	return
}

// logLink stands in for the radio when there is none, logging what would
// have been sent.
type logLink struct {
	closed chan struct{}
	once   sync.Once
}

func newLogLink() *logLink {
	return &logLink{closed: make(chan struct{})}
}

func (l *logLink) Read(b []byte) (int, error) {
	<-l.closed
	return 0, io.EOF
}

func (l *logLink) Write(b []byte) (int, error) {
	log.Printf("[link] > %q", b)
	return len(b), nil
}

func (l *logLink) Close() error {
	l.once.Do(func() { close(l.closed) })
	return nil
}
