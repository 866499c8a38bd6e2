package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	. "github.com/CodedInternet/gorover/onboard"
	"github.com/caarlos0/env/v6"
	"github.com/google/uuid"
)

type EnvConfig struct {
	CONFIG    string `env:"ROVER_CONFIG" envDefault:""`
	DEBUG     bool   `env:"DEBUG" envDefault:"0"`
	SIMULATED bool   `env:"ROVER_SIM" envDefault:"1"`
	SERIAL    string `env:"ROVER_SERIAL" envDefault:""`
	BAUD      int    `env:"ROVER_BAUD" envDefault:"9600"`
}

var (
	ENV     *EnvConfig
	SESSION uuid.UUID
)

func init() {
	ENV = new(EnvConfig)
	if err := env.Parse(ENV); err != nil {
		log.Printf("[main] bad environment: %v", err)
	}
	SESSION = uuid.New()
}

func main() {
	// process flags, the environment gives the defaults
	simulated := flag.Bool("sim", ENV.SIMULATED, "Run the rover against the simulator")
	configFile := flag.String("config", ENV.CONFIG, "Path to the rover yaml config")
	serialDev := flag.String("serial", ENV.SERIAL, "Serial device of the radio link")
	flag.Parse()

	config := DefaultConfig()
	if *configFile != "" {
		var err error
		if config, err = LoadConfig(*configFile); err != nil {
			log.Fatal(err)
		}
	}
	config.Debug = config.Debug || ENV.DEBUG
	if *serialDev != "" {
		config.Link.Device = *serialDev
		config.Link.Baud = ENV.BAUD
	}

	log.Printf("[main] session %s", SESSION)

	var backend Backend
	var sim *Simulator
	if *simulated {
		fmt.Println("Creating simulator")
		sim = NewSimulator(config)
		backend = sim
	} else {
		backend = NewGPIOBackend(config)
	}

	rover, err := NewRover(config, backend, nil)
	if err != nil {
		panic(fmt.Sprintf("Unable to initialize rover: %v", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start an instance of the shell so it can be controlled from the CLI
	shell := newShell(rover, sim)
	go shell.Start()

	err = rover.Run(ctx)
	rover.Close()
	if err != nil {
		log.Fatal(err)
	}
}
