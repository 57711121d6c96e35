package types

import (
	"errors"
	"fmt"
	"time"
)

// ErrFunctionNotFound is returned when the workload controller does not know
// the requested function
type ErrFunctionNotFound struct {
	Name      string
	Namespace string
}

func (e *ErrFunctionNotFound) Error() string {
	return fmt.Sprintf("function not found: %s.%s", e.Name, e.Namespace)
}

// From checks if the given error is an ErrFunctionNotFound
func (e *ErrFunctionNotFound) From(err error) bool {
	var notFound *ErrFunctionNotFound
	return errors.As(err, &notFound)
}

// ErrProvider is returned when the workload controller is unreachable or
// responds with an error
type ErrProvider struct {
	Op  string
	Err error
}

func (e *ErrProvider) Error() string {
	return fmt.Sprintf("provider error during %s: %v", e.Op, e.Err)
}

func (e *ErrProvider) Unwrap() error {
	return e.Err
}

// From checks if the given error is an ErrProvider
func (e *ErrProvider) From(err error) bool {
	var provider *ErrProvider
	return errors.As(err, &provider)
}

// ErrScaleTimeout is returned when a function never reported an available
// replica within the polling budget
type ErrScaleTimeout struct {
	Function FunctionKey
	Waited   time.Duration
}

func (e *ErrScaleTimeout) Error() string {
	return fmt.Sprintf("timed out waiting for %s to become ready after %v", e.Function, e.Waited)
}

// From checks if the given error is an ErrScaleTimeout
func (e *ErrScaleTimeout) From(err error) bool {
	var timeout *ErrScaleTimeout
	return errors.As(err, &timeout)
}

// ErrEnqueue is returned when an invocation could not be handed to the queue
type ErrEnqueue struct {
	Queue string
	Err   error
}

func (e *ErrEnqueue) Error() string {
	return fmt.Sprintf("failed to enqueue on %s: %v", e.Queue, e.Err)
}

func (e *ErrEnqueue) Unwrap() error {
	return e.Err
}

// From checks if the given error is an ErrEnqueue
func (e *ErrEnqueue) From(err error) bool {
	var enqueue *ErrEnqueue
	return errors.As(err, &enqueue)
}
