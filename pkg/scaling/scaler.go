package scaling

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fngate/fngate/pkg/types"
)

const (
	defaultMaxScaleRetries    = 5
	defaultScaleRetryInterval = 50 * time.Millisecond
	defaultPollInterval       = 100 * time.Millisecond
	defaultMaxPollCount       = 100
)

// StatusClient is the narrow interface to the workload controller
type StatusClient interface {
	FunctionStatus(ctx context.Context, key types.FunctionKey) (types.FunctionStatus, error)
	ScaleFunction(ctx context.Context, key types.FunctionKey, replicas uint64) error
}

// Scaler decides whether a request may proceed to forwarding, triggering and
// awaiting scale-from-zero when the target function has no available replicas.
type Scaler struct {
	client      StatusClient
	cache       *StatusCache
	coordinator *Coordinator
	config      types.ScalingConfig

	// wait suspends the calling request between attempts; injectable so tests
	// run without real delays
	wait func(ctx context.Context, d time.Duration) error
}

// NewScaler creates a scaler with defaults applied to unset config fields
func NewScaler(client StatusClient, config types.ScalingConfig) *Scaler {
	if config.MaxScaleRetries <= 0 {
		config.MaxScaleRetries = defaultMaxScaleRetries
	}
	if config.ScaleRetryInterval <= 0 {
		config.ScaleRetryInterval = defaultScaleRetryInterval
	}
	if config.PollInterval <= 0 {
		config.PollInterval = defaultPollInterval
	}
	if config.MaxPollCount <= 0 {
		config.MaxPollCount = defaultMaxPollCount
	}

	return &Scaler{
		client:      client,
		cache:       NewStatusCache(),
		coordinator: NewCoordinator(),
		config:      config,
		wait:        sleepWithContext,
	}
}

// Cache exposes the status cache for wiring and tests
func (s *Scaler) Cache() *StatusCache {
	return s.cache
}

// Scale admits a request against the target function, scaling it from zero if
// needed and waiting until at least one replica is available
func (s *Scaler) Scale(ctx context.Context, key types.FunctionKey) types.ScaleResult {
	start := time.Now()

	// Warm path: trust a cached status that shows available replicas
	if cached, ok := s.cache.Get(key); ok && cached.AvailableReplicas > 0 {
		return types.ScaleResult{Found: true, Available: true}
	}

	status, err := s.fetchStatusRetry(ctx, key)
	if err != nil {
		return s.errorResult(key, err, start)
	}

	if status.AvailableReplicas > 0 {
		return types.ScaleResult{Found: true, Available: true, WaitDuration: time.Since(start)}
	}

	if status.Replicas == 0 {
		if err := s.requestScaleUp(ctx, key, status); err != nil {
			return s.errorResult(key, err, start)
		}
	}

	for i := 0; i < s.config.MaxPollCount; i++ {
		if err := s.wait(ctx, s.config.PollInterval); err != nil {
			return s.errorResult(key, err, start)
		}

		status, err := s.fetchStatus(ctx, key)
		if err != nil {
			notFound := &types.ErrFunctionNotFound{}
			if notFound.From(err) {
				return s.errorResult(key, err, start)
			}

			// The control plane may flap during a rollout; keep polling
			// within the bounded budget
			log.Warn().Str("function", key.String()).Err(err).Msg("status fetch failed during readiness poll")
			continue
		}

		if status.AvailableReplicas > 0 {
			waited := time.Since(start)
			log.Info().
				Str("function", key.String()).
				Dur("wait_duration", waited).
				Msg("function became ready")
			return types.ScaleResult{Found: true, Available: true, WaitDuration: waited}
		}
	}

	waited := time.Since(start)
	return types.ScaleResult{
		Found:        true,
		Err:          &types.ErrScaleTimeout{Function: key, Waited: waited},
		WaitDuration: waited,
	}
}

// fetchStatus performs a coordinated live status fetch and records the result
// in the cache. The leader runs detached from the caller's context so a
// disconnected caller cannot strand followers waiting on the same key; the
// client's own timeout bounds the call.
func (s *Scaler) fetchStatus(ctx context.Context, key types.FunctionKey) (types.FunctionStatus, error) {
	detached := context.WithoutCancel(ctx)

	result, err := s.coordinator.Do(StatusKey(key), func() (any, error) {
		return s.client.FunctionStatus(detached, key)
	})
	if err != nil {
		return types.FunctionStatus{}, err
	}

	status := result.(types.FunctionStatus)
	s.cache.Set(key, status)

	return status, nil
}

// fetchStatusRetry is fetchStatus with bounded retries on transient provider
// errors. NotFound is fatal on the first response; the function does not exist.
func (s *Scaler) fetchStatusRetry(ctx context.Context, key types.FunctionKey) (types.FunctionStatus, error) {
	notFound := &types.ErrFunctionNotFound{}

	var lastErr error
	for attempt := 0; attempt < s.config.MaxScaleRetries; attempt++ {
		if attempt > 0 {
			if err := s.wait(ctx, s.config.ScaleRetryInterval); err != nil {
				return types.FunctionStatus{}, err
			}
		}

		status, err := s.fetchStatus(ctx, key)
		if err == nil {
			return status, nil
		}
		if notFound.From(err) {
			return types.FunctionStatus{}, err
		}

		lastErr = err
	}

	return types.FunctionStatus{}, lastErr
}

// requestScaleUp issues the scale-from-zero command, retrying on provider
// errors up to the configured bound. If a re-fetch observes that another
// caller or an external actor already raised the desired count, the command
// is skipped and the caller proceeds straight to polling.
func (s *Scaler) requestScaleUp(ctx context.Context, key types.FunctionKey, status types.FunctionStatus) error {
	target := max(status.MinReplicas, 1)
	if status.MaxReplicas > 0 && target > status.MaxReplicas {
		target = status.MaxReplicas
	}

	detached := context.WithoutCancel(ctx)
	notFound := &types.ErrFunctionNotFound{}

	var lastErr error
	for attempt := 0; attempt < s.config.MaxScaleRetries; attempt++ {
		if attempt > 0 {
			if err := s.wait(ctx, s.config.ScaleRetryInterval); err != nil {
				return err
			}
		}

		current, err := s.fetchStatus(ctx, key)
		if err != nil {
			if notFound.From(err) {
				return err
			}
			lastErr = err
			continue
		}

		if current.Replicas > 0 {
			// Another admission check won the race; its command is in flight
			return nil
		}

		_, err = s.coordinator.Do(ScaleKey(key), func() (any, error) {
			return nil, s.client.ScaleFunction(detached, key, target)
		})
		if err != nil {
			lastErr = err
			log.Warn().
				Str("function", key.String()).
				Int("attempt", attempt+1).
				Err(err).
				Msg("scale command failed")
			continue
		}

		log.Info().
			Str("function", key.String()).
			Uint64("replicas", target).
			Msg("requested scale from zero")
		return nil
	}

	return lastErr
}

func (s *Scaler) errorResult(key types.FunctionKey, err error, start time.Time) types.ScaleResult {
	notFound := &types.ErrFunctionNotFound{}
	result := types.ScaleResult{
		Found:        !notFound.From(err),
		Err:          err,
		WaitDuration: time.Since(start),
	}

	if result.Found {
		log.Error().Str("function", key.String()).Err(err).Msg("admission failed")
	}

	return result
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
