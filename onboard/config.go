package onboard

import (
	"fmt"
	"io/ioutil"
	"time"

	"github.com/CodedInternet/gorover/onboard/drive"
	deverrors "github.com/CodedInternet/gorover/onboard/errors"
	"github.com/CodedInternet/gorover/onboard/hardware"
	"github.com/CodedInternet/gorover/onboard/infrared"
	"github.com/CodedInternet/gorover/onboard/link"
	"github.com/CodedInternet/gorover/onboard/powertrain"
	"github.com/CodedInternet/gorover/onboard/sensing"
	"github.com/CodedInternet/gorover/onboard/ultrasonic"
	"github.com/Masterminds/semver"
	"gopkg.in/yaml.v2"
)

const (
	CONFIG_VERSION            = "1.0.0"
	CONFIG_VERSION_CONSTRAINT = "~1.0"
)

type RoverConfig struct {
	Version string `yaml:"version"`
	Debug   bool   `yaml:"debug"`

	EventQueue      int           `yaml:"event_queue"`
	TickInterval    time.Duration `yaml:"tick_interval"`
	BatteryInterval time.Duration `yaml:"battery_interval"`

	Infrared      InfraredConfig    `yaml:"infrared"`
	Ultrasonic    ultrasonic.Config `yaml:"ultrasonic"`
	Servo         ServoConfig       `yaml:"servo"`
	Speeds        powertrain.Speeds `yaml:"speeds"`
	Drive         drive.Config      `yaml:"drive"`
	ClearDistance uint16            `yaml:"clear_distance"`
	RemoteTurn    int               `yaml:"remote_turn"`

	Link      LinkConfig      `yaml:"link"`
	GPIO      GPIOConfig      `yaml:"gpio"`
	Simulator SimulatorConfig `yaml:"simulator"`
}

type InfraredConfig struct {
	TickRate uint32 `yaml:"tick_rate"`
}

type ServoConfig struct {
	Sweep time.Duration `yaml:"sweep"`
}

type LinkConfig struct {
	Device    string `yaml:"device"`
	Baud      int    `yaml:"baud"`
	RxSize    int    `yaml:"rx_size"`
	QueueSize int    `yaml:"queue_size"`
}

// PinPair is the IN1/IN2 inputs of one H-bridge channel.
type PinPair [2]uint

type YAMLPinPair []uint

func (p PinPair) MarshalYAML() (interface{}, error) {
	return YAMLPinPair{p[0], p[1]}, nil
}

func (p *PinPair) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var yp YAMLPinPair
	if err := unmarshal(&yp); err != nil {
		return err
	}
	if len(yp) != 2 {
		return fmt.Errorf("motor needs 2 pins, got %d", len(yp))
	}
	p[0], p[1] = yp[0], yp[1]
	return nil
}

type GPIOConfig struct {
	LeftMotor  PinPair `yaml:"left_motor,flow"`
	RightMotor PinPair `yaml:"right_motor,flow"`
	Servo      uint    `yaml:"servo"`
	Trigger    uint    `yaml:"trigger"`
	Echo       uint    `yaml:"echo"`
	Infrared   uint    `yaml:"infrared"`

	// empty for a fixed nominal pack voltage
	BatteryADC   string  `yaml:"battery_adc"`
	BatteryScale float64 `yaml:"battery_scale"`
}

type SimulatorConfig struct {
	// obstacle distance in cm keyed by bearing in degrees, 0 ahead and
	// negative to the left
	Obstacles map[int]uint16 `yaml:"obstacles"`
	BatteryMV uint16         `yaml:"battery_mv"`
	DrainMV   uint16         `yaml:"drain_mv"`
}

func DefaultConfig() RoverConfig {
	return RoverConfig{
		Version:         CONFIG_VERSION,
		EventQueue:      32,
		TickInterval:    200 * time.Millisecond,
		BatteryInterval: 10 * time.Second,
		Infrared:        InfraredConfig{TickRate: infrared.DEFAULT_TICK_RATE},
		Ultrasonic:      ultrasonic.DefaultConfig(),
		Servo:           ServoConfig{Sweep: hardware.DEFAULT_SWEEP},
		Speeds:          powertrain.DefaultSpeeds(),
		Drive:           drive.DefaultConfig(),
		ClearDistance:   sensing.DEFAULT_CLEAR_DISTANCE_CM,
		RemoteTurn:      45,
		Link: LinkConfig{
			Baud:      link.DefaultSerialMode.BaudRate,
			RxSize:    link.RX_SIZE,
			QueueSize: link.QUEUE_SIZE,
		},
		GPIO: GPIOConfig{
			LeftMotor:  PinPair{5, 6},
			RightMotor: PinPair{13, 19},
			Servo:      18,
			Trigger:    23,
			Echo:       24,
			Infrared:   17,
		},
		Simulator: SimulatorConfig{
			Obstacles: map[int]uint16{},
			BatteryMV: hardware.BATTERY_MAX_MV,
			DrainMV:   5,
		},
	}
}

// ParseConfig reads yaml over the defaults and checks the schema version.
func ParseConfig(data []byte) (config RoverConfig, err error) {
	config = DefaultConfig()
	if err = yaml.Unmarshal(data, &config); err != nil {
		return
	}
	err = config.Validate()
	return
}

func LoadConfig(path string) (config RoverConfig, err error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("unable to read config %s: %v", path, err)
	}
	return ParseConfig(data)
}

func (c RoverConfig) Validate() error {
	constraint, err := semver.NewConstraint(CONFIG_VERSION_CONSTRAINT)
	if err != nil {
		return err
	}
	version, err := semver.NewVersion(c.Version)
	if err != nil || !constraint.Check(version) {
		return deverrors.ConfigVersionError{Version: c.Version, Constraint: CONFIG_VERSION_CONSTRAINT}
	}

	switch {
	case c.TickInterval <= 0 || c.BatteryInterval <= 0:
		return fmt.Errorf("tick intervals must be positive")
	case c.Ultrasonic.TickRate == 0 || c.Ultrasonic.TicksPerCm <= 0:
		return fmt.Errorf("ultrasonic tick rate and ticks per cm must be positive")
	case c.Infrared.TickRate == 0:
		return fmt.Errorf("infrared tick rate must be positive")
	case c.Speeds.Min > c.Speeds.Max || c.Speeds.Max > 100:
		return fmt.Errorf("speed limits %d-%d out of order", c.Speeds.Min, c.Speeds.Max)
	case c.Speeds.Turn == 0:
		return fmt.Errorf("turn speed must be positive")
	}
	for name, deg := range map[string]int{
		"drive.avoid_degrees":  c.Drive.AvoidDegrees,
		"drive.escape_degrees": c.Drive.EscapeDegrees,
		"remote_turn":          c.RemoteTurn,
	} {
		if deg <= 0 || deg > 360 {
			return fmt.Errorf("%s must be within 1-360 degrees, got %d", name, deg)
		}
	}
	return nil
}
