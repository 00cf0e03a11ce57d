package crate

import "fmt"

// State is the lifecycle phase of a job.
//
//	Idle -> Opening -> Streaming -> Finalizing -> Done
//
// Any phase after Idle may instead move to Failed.
type State uint8

const (
	Idle State = iota
	Opening
	Streaming
	Finalizing
	Done
	Failed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Opening:
		return "opening"
	case Streaming:
		return "streaming"
	case Finalizing:
		return "finalizing"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// Terminal reports whether no further transition can follow s.
func (s State) Terminal() bool {
	return s == Done || s == Failed
}

// canMove reports whether from -> to is a legal transition.
func canMove(from, to State) bool {
	if to == Failed {
		return from != Idle && !from.Terminal()
	}
	return to == from+1 && to <= Done
}

// StateHook observes job transitions. It runs on the job's goroutine and
// must not block.
type StateHook func(job Job, from, to State)
