package workflow

import (
	"errors"

	"github.com/nachoal/image-prompt-go/vault"
)

var (
	ErrNoActiveView    = errors.New("no active markdown view")
	ErrNoSelection     = errors.New("no text selected")
	ErrNoImageFound    = errors.New("no image found above selected text")
	ErrFileNotFound    = vault.ErrFileNotFound
	ErrEmptyCompletion = errors.New("completion returned no content")
	ErrBusy            = errors.New("a request is already in flight for this view")
)

// Class groups failures by how far the workflow got
type Class string

const (
	// ClassPrecondition covers a missing view, selection or image reference
	ClassPrecondition Class = "precondition"
	// ClassResolution covers references that do not lead to a readable file
	ClassResolution Class = "resolution"
	// ClassTransport covers network, authentication and response failures
	ClassTransport Class = "transport"
)

// Stage names a step of the workflow
type Stage string

const (
	StageSelection Stage = "selection"
	StageScan      Stage = "scan"
	StageEncode    Stage = "encode"
	StageRequest   Stage = "request"
	StageInsert    Stage = "insert"
)

// Error reports which stage aborted a run
type Error struct {
	Stage Stage
	Class Class
	Err   error
}

func (e *Error) Error() string {
	return string(e.Stage) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func fail(stage Stage, class Class, err error) *Error {
	return &Error{Stage: stage, Class: class, Err: err}
}

// IsPrecondition reports whether err aborted the run before any I/O
func IsPrecondition(err error) bool {
	var werr *Error
	return errors.As(err, &werr) && werr.Class == ClassPrecondition
}
