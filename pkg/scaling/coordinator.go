package scaling

import (
	"golang.org/x/sync/singleflight"

	"github.com/fngate/fngate/pkg/types"
)

// Coordinator collapses concurrent identical controller operations into one
// execution shared by all callers. Status fetches and scale commands use
// distinct keys so one never blocks on the other.
type Coordinator struct {
	group singleflight.Group
}

// NewCoordinator creates a new coordinator
func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// Do executes fn once for all concurrent callers sharing the same key. Late
// joiners block until the leader finishes and receive the leader's result.
func (c *Coordinator) Do(key string, fn func() (any, error)) (any, error) {
	result, err, _ := c.group.Do(key, fn)
	return result, err
}

// StatusKey is the coordination key for status fetches on a function
func StatusKey(key types.FunctionKey) string {
	return "status:" + key.String()
}

// ScaleKey is the coordination key for scale commands on a function
func ScaleKey(key types.FunctionKey) string {
	return "scale:" + key.String()
}
