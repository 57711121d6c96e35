package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fngate/fngate/pkg/types"
)

func newTestClient(baseURL string) *Client {
	return NewClient(types.ControllerConfig{
		BaseURL: baseURL,
		Timeout: 2 * time.Second,
	})
}

func TestFunctionStatusParsesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/system/function/figlet", r.URL.Path)
		assert.Equal(t, "fngate-fn", r.URL.Query().Get("namespace"))

		json.NewEncoder(w).Encode(map[string]any{
			"replicas":          3,
			"availableReplicas": 2,
			"labels": map[string]string{
				types.LabelScaleMin:    "2",
				types.LabelScaleMax:    "8",
				types.LabelScaleFactor: "50",
			},
			"annotations": map[string]string{"topic": "invoke"},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	status, err := client.FunctionStatus(context.Background(), types.FunctionKey{Name: "figlet", Namespace: "fngate-fn"})

	require.NoError(t, err)
	assert.Equal(t, uint64(3), status.Replicas)
	assert.Equal(t, uint64(2), status.AvailableReplicas)
	assert.Equal(t, uint64(2), status.MinReplicas)
	assert.Equal(t, uint64(8), status.MaxReplicas)
	assert.Equal(t, uint64(50), status.ScalingFactor)
	assert.Equal(t, "invoke", status.Annotations["topic"])
}

func TestFunctionStatusDefaultsScaleBounds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"replicas": 0, "availableReplicas": 0})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	status, err := client.FunctionStatus(context.Background(), types.FunctionKey{Name: "plain", Namespace: "fngate-fn"})

	require.NoError(t, err)
	assert.Equal(t, types.DefaultMinReplicas, status.MinReplicas)
	assert.Equal(t, types.DefaultMaxReplicas, status.MaxReplicas)
	assert.Equal(t, types.DefaultScalingFactor, status.ScalingFactor)
}

func TestFunctionStatusNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.FunctionStatus(context.Background(), types.FunctionKey{Name: "ghost", Namespace: "fngate-fn"})

	notFound := &types.ErrFunctionNotFound{}
	assert.True(t, notFound.From(err))
}

func TestFunctionStatusProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.FunctionStatus(context.Background(), types.FunctionKey{Name: "broken", Namespace: "fngate-fn"})

	provider := &types.ErrProvider{}
	assert.True(t, provider.From(err))
}

func TestScaleFunctionIsIdempotent(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)

		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/system/scale-function/figlet", r.URL.Path)

		var req scaleRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "figlet", req.ServiceName)
		assert.Equal(t, uint64(1), req.Replicas)

		// The controller treats a repeated scale-to-N as a no-op
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	key := types.FunctionKey{Name: "figlet", Namespace: "fngate-fn"}

	assert.NoError(t, client.ScaleFunction(context.Background(), key, 1))
	assert.NoError(t, client.ScaleFunction(context.Background(), key, 1))
	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))
}

func TestScaleFunctionProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	err := client.ScaleFunction(context.Background(), types.FunctionKey{Name: "figlet", Namespace: "fngate-fn"}, 1)

	provider := &types.ErrProvider{}
	assert.True(t, provider.From(err))
}
