package codeflow

import "errors"

var (
	ErrMissingClientID = errors.New("missing client id")
	ErrNotInitialized  = errors.New("not initialized")
	ErrHandlerFailed   = errors.New("handler failed")
	ErrSDKUnavailable  = errors.New("identity sdk unavailable")
	ErrPopupFailed     = errors.New("popup failed to open")
	ErrClosed          = errors.New("controller closed")
)

// Phase is the observable controller state
type Phase int

const (
	Uninitialized Phase = iota
	Ready
	Running
	Failed
)

func (p Phase) String() string {
	switch p {
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Failed:
		return "error"
	}
	return "uninitialized"
}

// State is a snapshot of the controller
type State struct {
	Ready   bool
	Running bool
	Error   string
}

// Phase derives the state machine phase from the snapshot
func (s State) Phase() Phase {
	switch {
	case s.Running:
		return Running
	case s.Error != "":
		return Failed
	case s.Ready:
		return Ready
	}
	return Uninitialized
}
