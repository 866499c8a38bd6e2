package onboard

import (
	"github.com/CodedInternet/gorover/onboard/hardware"
	"github.com/CodedInternet/gorover/onboard/ultrasonic"
)

// GPIOBackend runs the rover on sysfs GPIO, as on a Raspberry Pi carrier.
type GPIOBackend struct {
	cfg         RoverConfig
	left, right *hardware.GPIOMotor
	servo       *hardware.GPIOServo
	trigger     *hardware.GPIOTrigger
	watcher     *hardware.EdgeWatcher
	battery     hardware.Battery
}

func NewGPIOBackend(cfg RoverConfig) *GPIOBackend {
	b := &GPIOBackend{
		cfg:     cfg,
		left:    hardware.NewGPIOMotor(cfg.GPIO.LeftMotor[0], cfg.GPIO.LeftMotor[1]),
		right:   hardware.NewGPIOMotor(cfg.GPIO.RightMotor[0], cfg.GPIO.RightMotor[1]),
		servo:   hardware.NewGPIOServo(cfg.GPIO.Servo),
		trigger: hardware.NewGPIOTrigger(cfg.GPIO.Trigger),
		watcher: hardware.NewEdgeWatcher(),
		battery: hardware.FixedBattery(hardware.BATTERY_MAX_MV),
	}
	if cfg.GPIO.BatteryADC != "" {
		b.battery = hardware.SysfsBattery{Path: cfg.GPIO.BatteryADC, Scale: cfg.GPIO.BatteryScale}
	}
	return b
}

func (b *GPIOBackend) LeftMotor() hardware.MotorDriver  { return b.left }
func (b *GPIOBackend) RightMotor() hardware.MotorDriver { return b.right }
func (b *GPIOBackend) Servo() hardware.PulseWriter      { return b.servo }
func (b *GPIOBackend) Sonar() ultrasonic.Trigger        { return b.trigger }
func (b *GPIOBackend) Battery() hardware.Battery        { return b.battery }

// Attach starts watching the receiver and echo pins. The receiver output is
// active low, so a burst starts on the falling edge.
func (b *GPIOBackend) Attach(ir EdgeSink, echo EchoSink) error {
	b.watcher.Handle(b.cfg.GPIO.Infrared, b.cfg.Infrared.TickRate, func(high bool, tick uint32) {
		if !high {
			ir(tick)
		}
	})
	b.watcher.Handle(b.cfg.GPIO.Echo, b.cfg.Ultrasonic.TickRate, echo)
	go b.watcher.Run()
	return nil
}

func (b *GPIOBackend) Close() error {
	b.watcher.Close()
	b.left.Close()
	b.right.Close()
	b.servo.Close()
	b.trigger.Close()
	return nil
}
