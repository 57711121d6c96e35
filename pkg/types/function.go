package types

import (
	"fmt"
	"time"
)

// FunctionKey identifies a deployed function by name and namespace
type FunctionKey struct {
	Name      string
	Namespace string
}

func (k FunctionKey) String() string {
	return fmt.Sprintf("%s.%s", k.Name, k.Namespace)
}

// FunctionStatus is an immutable snapshot of a function's replica state,
// produced by the workload controller on each fetch
type FunctionStatus struct {
	Name              string            `json:"name"`
	Namespace         string            `json:"namespace"`
	Replicas          uint64            `json:"replicas"`
	AvailableReplicas uint64            `json:"availableReplicas"`
	MinReplicas       uint64            `json:"-"`
	MaxReplicas       uint64            `json:"-"`
	ScalingFactor     uint64            `json:"-"`
	Annotations       map[string]string `json:"annotations,omitempty"`
	Labels            map[string]string `json:"labels,omitempty"`
}

// Scaling bounds are carried as labels on the function deployment
const (
	LabelScaleMin    = "com.fngate.scale.min"
	LabelScaleMax    = "com.fngate.scale.max"
	LabelScaleFactor = "com.fngate.scale.factor"

	DefaultMinReplicas   uint64 = 1
	DefaultMaxReplicas   uint64 = 20
	DefaultScalingFactor uint64 = 20
)

// ScaleResult is the outcome of a single admission decision
type ScaleResult struct {
	Available    bool
	Found        bool
	Err          error
	WaitDuration time.Duration
}

// InvocationMessage captures everything needed to replay a function call
// from the queue. Immutable after construction.
type InvocationMessage struct {
	ID          string              `json:"id"`
	Function    FunctionKey         `json:"function"`
	Method      string              `json:"method"`
	Path        string              `json:"path"`
	QueryString string              `json:"query_string"`
	Headers     map[string][]string `json:"headers"`
	Body        []byte              `json:"body"`
	Host        string              `json:"host"`
	CallbackURL string              `json:"callback_url,omitempty"`
	EnqueuedAt  time.Time           `json:"enqueued_at"`
}

// InvocationStatus values for queued invocations
type InvocationStatus string

const (
	InvocationStatusPending  InvocationStatus = "pending"
	InvocationStatusRunning  InvocationStatus = "running"
	InvocationStatusComplete InvocationStatus = "complete"
	InvocationStatusFailed   InvocationStatus = "failed"
)

// InvocationState tracks the lifecycle of a queued invocation
type InvocationState struct {
	ID         string           `json:"id"`
	Status     InvocationStatus `json:"status"`
	WorkerID   string           `json:"worker_id,omitempty"`
	Error      string           `json:"error,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	StartedAt  time.Time        `json:"started_at,omitempty"`
	FinishedAt time.Time        `json:"finished_at,omitempty"`
}
