package queue

import (
	"github.com/alicebob/miniredis/v2"

	"github.com/fngate/fngate/pkg/common"
	"github.com/fngate/fngate/pkg/types"
)

// NewRedisClientForTest creates a Redis client backed by miniredis for testing
func NewRedisClientForTest() (*common.RedisClient, *miniredis.Miniredis, error) {
	s, err := miniredis.Run()
	if err != nil {
		return nil, nil, err
	}

	rdb, err := common.NewRedisClient(types.RedisConfig{
		Addrs: []string{s.Addr()},
		Mode:  types.RedisModeSingle,
	})
	if err != nil {
		return nil, nil, err
	}

	return rdb, s, nil
}
