package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fngate/fngate/pkg/types"
)

const defaultTimeout = 5 * time.Second

// Client talks to the workload controller's query/command API. It carries no
// retry or caching logic; callers own both.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a workload controller client
func NewClient(config types.ControllerConfig) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FunctionStatus fetches the current replica state of a function
func (c *Client) FunctionStatus(ctx context.Context, key types.FunctionKey) (types.FunctionStatus, error) {
	endpoint := fmt.Sprintf("%s/system/function/%s?namespace=%s",
		c.baseURL, url.PathEscape(key.Name), url.QueryEscape(key.Namespace))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return types.FunctionStatus{}, &types.ErrProvider{Op: "status fetch", Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return types.FunctionStatus{}, &types.ErrProvider{Op: "status fetch", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		io.Copy(io.Discard, resp.Body)
		return types.FunctionStatus{}, &types.ErrFunctionNotFound{Name: key.Name, Namespace: key.Namespace}
	case resp.StatusCode != http.StatusOK:
		io.Copy(io.Discard, resp.Body)
		return types.FunctionStatus{}, &types.ErrProvider{
			Op:  "status fetch",
			Err: fmt.Errorf("controller returned status %d", resp.StatusCode),
		}
	}

	var status types.FunctionStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return types.FunctionStatus{}, &types.ErrProvider{Op: "status decode", Err: err}
	}

	status.Name = key.Name
	status.Namespace = key.Namespace
	status.MinReplicas = labelValue(status.Labels, types.LabelScaleMin, types.DefaultMinReplicas)
	status.MaxReplicas = labelValue(status.Labels, types.LabelScaleMax, types.DefaultMaxReplicas)
	status.ScalingFactor = labelValue(status.Labels, types.LabelScaleFactor, types.DefaultScalingFactor)

	return status, nil
}

type scaleRequest struct {
	ServiceName string `json:"serviceName"`
	Replicas    uint64 `json:"replicas"`
}

// ScaleFunction requests a replica-count change. Resending the same target
// count is a no-op on the controller side.
func (c *Client) ScaleFunction(ctx context.Context, key types.FunctionKey, replicas uint64) error {
	endpoint := fmt.Sprintf("%s/system/scale-function/%s?namespace=%s",
		c.baseURL, url.PathEscape(key.Name), url.QueryEscape(key.Namespace))

	body, err := json.Marshal(scaleRequest{ServiceName: key.Name, Replicas: replicas})
	if err != nil {
		return &types.ErrProvider{Op: "scale request encode", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return &types.ErrProvider{Op: "scale request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &types.ErrProvider{Op: "scale request", Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return &types.ErrProvider{
			Op:  "scale request",
			Err: fmt.Errorf("controller returned status %d", resp.StatusCode),
		}
	}

	return nil
}

func labelValue(labels map[string]string, key string, fallback uint64) uint64 {
	raw, ok := labels[key]
	if !ok {
		return fallback
	}

	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		return fallback
	}

	return value
}
