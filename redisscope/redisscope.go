// Package redisscope provides a dbscope factory over a redis client.
//
// Each scope is one transactional pipeline (MULTI/EXEC): queued commands are
// sent atomically when the scope commits and discarded when it rolls back.
// Note that queued commands only produce results at Exec time, so read
// results are available after the scope exits, not inside it.
package redisscope

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MishaVyb/dbscope/dbscope"
)

type factory struct {
	client redis.UniversalClient
}

// New returns a factory producing one transactional pipeline per scope.
func New(client redis.UniversalClient) dbscope.Factory[redis.Pipeliner] {
	return &factory{client: client}
}

// Name implements dbscope.Factory.
func (f *factory) Name() string { return "redis" }

// Open implements dbscope.Factory.
func (f *factory) Open(_ context.Context) (redis.Pipeliner, dbscope.Finish, error) {
	pipe := f.client.TxPipeline()

	finish := func(ctx context.Context, failure error) error {
		if failure != nil {
			pipe.Discard()
			return nil
		}
		if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("exec pipeline: %w", err)
		}
		return nil
	}
	return pipe, finish, nil
}
