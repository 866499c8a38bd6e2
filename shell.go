package main

import (
	"errors"
	"strconv"
	"strings"

	. "github.com/CodedInternet/gorover/onboard"
	"github.com/CodedInternet/gorover/onboard/infrared"
	"github.com/abiosoft/ishell"
)

var (
	ErrNotSimulated = errors.New("only available in simulator mode")
	ErrUsage        = errors.New("incorrect number of arguments")
)

// parseButton takes a button name or a raw command code.
func parseButton(arg string) (code uint8, err error) {
	if c, ok := infrared.ButtonCode(strings.ToLower(arg)); ok {
		return c, nil
	}
	n, err := strconv.ParseUint(arg, 0, 8)
	return uint8(n), err
}

func newShell(rover *Rover, sim *Simulator) *ishell.Shell {
	simOnly := func(fn func(c *ishell.Context)) func(c *ishell.Context) {
		return func(c *ishell.Context) {
			if sim == nil {
				c.Err(ErrNotSimulated)
				return
			}
			fn(c)
		}
	}

	shell := ishell.New()
	shell.Println("Rover development shell")
	shell.ShowPrompt(true)

	shell.AddCmd(&ishell.Cmd{
		Name: "press",
		Help: "press <button|code>",
		Completer: func([]string) []string {
			return infrared.ButtonNames()
		},
		Func: simOnly(func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(ErrUsage)
				return
			}
			code, err := parseButton(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			if !sim.Remote().Press(code) {
				c.Println("Nothing is listening to the remote")
			}
		}),
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "send",
		Help: "send <line>",
		Func: func(c *ishell.Context) {
			rover.Receive([]byte(strings.Join(c.Args, " ") + "\r\n"))
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "status",
		Help: "Reads the current state of the rover",
		Func: func(c *ishell.Context) {
			c.Printf("session=%s %s\n", SESSION, rover.Status())
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "obstacle",
		Help: "obstacle <angle> <cm>",
		Func: simOnly(func(c *ishell.Context) {
			if len(c.Args) != 2 {
				c.Err(ErrUsage)
				return
			}
			angle, err := strconv.Atoi(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			cm, err := strconv.ParseUint(c.Args[1], 10, 16)
			if err != nil {
				c.Err(err)
				return
			}
			sim.SonarSim().SetObstacle(angle, uint16(cm))
			c.Printf("Obstacle at %d degrees, %dcm\n", angle, cm)
		}),
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "clear",
		Help: "Removes every simulated obstacle",
		Func: simOnly(func(c *ishell.Context) {
			sim.SonarSim().ClearObstacles()
		}),
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "battery",
		Help: "battery <mV>",
		Func: simOnly(func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(ErrUsage)
				return
			}
			mv, err := strconv.ParseUint(c.Args[0], 10, 16)
			if err != nil {
				c.Err(err)
				return
			}
			sim.BatterySim().Set(uint16(mv))
		}),
	})

	return shell
}
