package machine

import "errors"

var (
	// ErrInsufficientResources is raised when a brew cannot be afforded. The
	// machine enters the Error state and stays there until a reset.
	ErrInsufficientResources = errors.New("insufficient resources")

	// ErrInvalidCommand marks a command received in a state that does not
	// accept it. The command is ignored and the state is unchanged.
	ErrInvalidCommand = errors.New("invalid command")

	// ErrBusy rejects a new timed sequence while one is already running. The
	// running sequence continues unaffected.
	ErrBusy = errors.New("sequence already active")
)
