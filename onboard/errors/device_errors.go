package errors

import "fmt"

// TimerBusyError is returned when the shared timer is already leased.
type TimerBusyError struct {
	Owner     string
	Requester string
}

func (err TimerBusyError) Error() string {
	if len(err.Owner) == 0 {
		err.Owner = "UNKNOWN"
	}
	if len(err.Requester) == 0 {
		err.Requester = "UNKNOWN"
	}

	return fmt.Sprintf("shared timer busy; held by %s, requested by %s", err.Owner, err.Requester)
}

type UnknownStateError struct {
	State interface{}
}

func (err UnknownStateError) Error() string {
	return fmt.Sprintf("unknown drive state %#v", err.State)
}

type SensingBusyError struct {
	Mode string
}

func (err SensingBusyError) Error() string {
	return fmt.Sprintf("sensing coordinator busy with a %s check", err.Mode)
}

type ConfigVersionError struct {
	Version    string
	Constraint string
}

func (err ConfigVersionError) Error() string {
	return fmt.Sprintf("config version %s does not satisfy %s", err.Version, err.Constraint)
}
