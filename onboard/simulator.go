package onboard

import (
	"log"
	"math"
	"sync"
	"time"

	"github.com/CodedInternet/gorover/onboard/hardware"
	"github.com/CodedInternet/gorover/onboard/infrared"
	"github.com/CodedInternet/gorover/onboard/ultrasonic"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	SONAR_BEAM_HALF_ANGLE = 15 // degrees either side of the servo bearing
	SONAR_NO_ECHO_PULSE   = 38 * time.Millisecond
	REMOTE_ADDRESS        = 0x00
)

// EdgeSink takes infrared falling edges, EchoSink both echo edges.
type EdgeSink func(tick uint32)
type EchoSink func(high bool, tick uint32)

// Backend is the hardware the rover runs on.
type Backend interface {
	LeftMotor() hardware.MotorDriver
	RightMotor() hardware.MotorDriver
	Servo() hardware.PulseWriter
	Sonar() ultrasonic.Trigger
	Battery() hardware.Battery
	Attach(ir EdgeSink, echo EchoSink) error
	Close() error
}

type SimulatedMotor struct {
	lock  sync.Mutex
	side  hardware.Side
	state hardware.MotorState
	Debug bool
}

func (m *SimulatedMotor) SetDirection(dir hardware.Direction) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.state.Direction = dir
	if m.Debug {
		log.Printf("[sim] %s motor %s", m.side, dir)
	}
	return nil
}

func (m *SimulatedMotor) SetSpeed(speed uint8) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.state.Speed = speed
	return nil
}

func (m *SimulatedMotor) State() hardware.MotorState {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.state
}

// SimulatedServo jumps straight to the commanded angle.
type SimulatedServo struct {
	lock  sync.Mutex
	width time.Duration
}

func (s *SimulatedServo) SetPulse(width time.Duration) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.width = width
	return nil
}

// Angle inverts the pulse width mapping.
func (s *SimulatedServo) Angle() int {
	s.lock.Lock()
	w := s.width
	s.lock.Unlock()
	if w == 0 {
		w = hardware.SERVO_MID_PULSE
	}

	var deg float64
	if w < hardware.SERVO_MID_PULSE {
		deg = float64(w-hardware.SERVO_MID_PULSE) * 90 / float64(hardware.SERVO_MID_PULSE-hardware.SERVO_MIN_PULSE)
	} else {
		deg = float64(w-hardware.SERVO_MID_PULSE) * 90 / float64(hardware.SERVO_MAX_PULSE-hardware.SERVO_MID_PULSE)
	}
	return int(math.Round(deg))
}

// SimulatedSonar answers a trigger with the echo a wall at the mapped
// distance would give.
type SimulatedSonar struct {
	lock      sync.Mutex
	servo     *SimulatedServo
	cfg       ultrasonic.Config
	obstacles map[int]uint16
	echo      EchoSink
	clock     uint32

	// Immediate delivers both edges inside Pulse instead of after the echo time.
	Immediate bool
}

func (s *SimulatedSonar) SetObstacle(bearing int, cm uint16) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.obstacles[bearing] = cm
}

func (s *SimulatedSonar) ClearObstacles() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.obstacles = make(map[int]uint16)
}

// Distance is the nearest obstacle inside the beam at bearing. An obstacle off
// axis is further along the beam by 1/cos of the offset.
func (s *SimulatedSonar) Distance(bearing int) (cm uint16, ok bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	best := math.Inf(1)
	for at, d := range s.obstacles {
		off := mgl64.Abs(float64(at - bearing))
		if off > SONAR_BEAM_HALF_ANGLE {
			continue
		}
		if slant := float64(d) / math.Cos(mgl64.DegToRad(off)); slant < best {
			best = slant
		}
	}
	if math.IsInf(best, 1) {
		return 0, false
	}
	return uint16(math.Round(best)), true
}

// echoTicks is the echo width the decoder turns back into cm.
func (s *SimulatedSonar) echoTicks(cm uint16, ok bool) uint32 {
	if !ok {
		return uint32(SONAR_NO_ECHO_PULSE.Seconds() * float64(s.cfg.TickRate))
	}
	return uint32(math.Ceil((float64(cm) + s.cfg.OffsetCm) * s.cfg.TicksPerCm))
}

func (s *SimulatedSonar) Pulse(width time.Duration) error {
	cm, ok := s.Distance(s.servo.Angle())

	s.lock.Lock()
	echo := s.echo
	ticks := s.echoTicks(cm, ok)
	start := s.clock
	s.clock += ticks + s.cfg.TickRate // a second between pings
	immediate := s.Immediate
	s.lock.Unlock()

	if echo == nil {
		return nil
	}
	fire := func() {
		echo(true, start)
		echo(false, start+ticks)
	}
	if immediate {
		fire()
	} else {
		time.AfterFunc(width+time.Duration(ticks)*time.Second/time.Duration(s.cfg.TickRate), fire)
	}
	return nil
}

// SimulatedBattery loses DrainMV on every read.
type SimulatedBattery struct {
	lock    sync.Mutex
	mv      uint16
	DrainMV uint16
}

func (b *SimulatedBattery) Voltage() uint16 {
	b.lock.Lock()
	defer b.lock.Unlock()
	mv := b.mv
	if b.mv > hardware.BATTERY_MIN_MV+b.DrainMV {
		b.mv -= b.DrainMV
	} else {
		b.mv = hardware.BATTERY_MIN_MV
	}
	return mv
}

func (b *SimulatedBattery) Percentage() uint8 {
	b.lock.Lock()
	defer b.lock.Unlock()
	return hardware.BatteryPercentage(b.mv)
}

func (b *SimulatedBattery) Set(mv uint16) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.mv = mv
}

// SimulatedRemote plays key presses into the infrared decoder as NEC frames.
type SimulatedRemote struct {
	lock  sync.Mutex
	rate  uint32
	ir    EdgeSink
	clock uint32
}

// Press sends one frame for command. It reports false if nothing is listening.
func (r *SimulatedRemote) Press(command uint8) bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.ir == nil {
		return false
	}
	// a second of silence first, so any half frame is abandoned
	r.clock += r.rate
	edges := infrared.NewFrame(REMOTE_ADDRESS, command).Edges(r.clock, r.rate)
	for _, tick := range edges {
		r.ir(tick)
	}
	r.clock = edges[len(edges)-1]
	return true
}

// Simulator is a Backend with no hardware behind it.
type Simulator struct {
	left, right *SimulatedMotor
	servo       *SimulatedServo
	sonar       *SimulatedSonar
	battery     *SimulatedBattery
	remote      *SimulatedRemote
}

func NewSimulator(cfg RoverConfig) *Simulator {
	servo := new(SimulatedServo)
	obstacles := make(map[int]uint16, len(cfg.Simulator.Obstacles))
	for at, cm := range cfg.Simulator.Obstacles {
		obstacles[at] = cm
	}

	return &Simulator{
		left:  &SimulatedMotor{side: hardware.LEFT, state: hardware.MotorState{Direction: hardware.DIR_STOP}, Debug: cfg.Debug},
		right: &SimulatedMotor{side: hardware.RIGHT, state: hardware.MotorState{Direction: hardware.DIR_STOP}, Debug: cfg.Debug},
		servo: servo,
		sonar: &SimulatedSonar{
			servo:     servo,
			cfg:       cfg.Ultrasonic,
			obstacles: obstacles,
		},
		battery: &SimulatedBattery{mv: cfg.Simulator.BatteryMV, DrainMV: cfg.Simulator.DrainMV},
		remote:  &SimulatedRemote{rate: cfg.Infrared.TickRate},
	}
}

func (s *Simulator) LeftMotor() hardware.MotorDriver  { return s.left }
func (s *Simulator) RightMotor() hardware.MotorDriver { return s.right }
func (s *Simulator) Servo() hardware.PulseWriter      { return s.servo }
func (s *Simulator) Sonar() ultrasonic.Trigger        { return s.sonar }
func (s *Simulator) Battery() hardware.Battery        { return s.battery }

func (s *Simulator) Attach(ir EdgeSink, echo EchoSink) error {
	s.remote.lock.Lock()
	s.remote.ir = ir
	s.remote.lock.Unlock()

	s.sonar.lock.Lock()
	s.sonar.echo = echo
	s.sonar.lock.Unlock()
	return nil
}

func (s *Simulator) Close() error {
	return nil
}

func (s *Simulator) Remote() *SimulatedRemote      { return s.remote }
func (s *Simulator) SonarSim() *SimulatedSonar     { return s.sonar }
func (s *Simulator) BatterySim() *SimulatedBattery { return s.battery }
func (s *Simulator) ServoAngle() int               { return s.servo.Angle() }
