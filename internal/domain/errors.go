package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrDuplicate            = errors.New("duplicate entry")
	ErrInvalidInput         = errors.New("invalid input")
	ErrAborted              = errors.New("aborted by operator")
	ErrExtractorUnavailable = errors.New("extraction service unavailable")
	ErrMalformedResponse    = errors.New("malformed extraction response")
	ErrFixedList            = errors.New("list is a fixed enumeration")
)

// Phase names one step of the publish pipeline.
type Phase string

const (
	PhaseLoad     Phase = "load"
	PhaseScan     Phase = "scan"
	PhaseClassify Phase = "classify"
	PhaseExtract  Phase = "extract"
	PhaseUpload   Phase = "upload"
	PhaseAssemble Phase = "assemble"
	PhaseCommit   Phase = "commit"
)

// PhaseError names the failing phase and the input it failed on.
type PhaseError struct {
	Phase Phase
	Input string
	Err   error
}

func (e *PhaseError) Error() string {
	if e.Input == "" {
		return fmt.Sprintf("%s: %v", e.Phase, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Phase, e.Input, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// Fail wraps err into a PhaseError unless it is nil.
func Fail(phase Phase, input string, err error) error {
	if err == nil {
		return nil
	}
	return &PhaseError{Phase: phase, Input: input, Err: err}
}
