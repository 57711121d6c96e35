package scaling

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fngate/fngate/pkg/types"
)

func TestCoordinatorCollapsesConcurrentCalls(t *testing.T) {
	coordinator := NewCoordinator()

	var executions int64
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := coordinator.Do("status:figlet.fngate-fn", func() (any, error) {
				atomic.AddInt64(&executions, 1)
				time.Sleep(20 * time.Millisecond)
				return "shared", nil
			})
			assert.NoError(t, err)
			assert.Equal(t, "shared", result)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&executions))
}

func TestCoordinatorDistinctOperationKeys(t *testing.T) {
	key := types.FunctionKey{Name: "figlet", Namespace: "fngate-fn"}

	// A status fetch must never block on a concurrent scale command
	assert.NotEqual(t, StatusKey(key), ScaleKey(key))

	coordinator := NewCoordinator()
	release := make(chan struct{})
	done := make(chan struct{})

	go coordinator.Do(ScaleKey(key), func() (any, error) {
		<-release
		return nil, nil
	})

	go func() {
		coordinator.Do(StatusKey(key), func() (any, error) {
			return nil, nil
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("status fetch blocked on in-flight scale command")
	}
	close(release)
}
