package execution

import "errors"

var (
	ErrEngineClosed   = errors.New("execution engine closed")
	ErrAlreadyRunning = errors.New("execution engine already running")
	ErrNilFollower    = errors.New("nil follower")
	ErrNilDrive       = errors.New("execution engine needs a drive")
	ErrFollowerPanic  = errors.New("follower panicked")
)
