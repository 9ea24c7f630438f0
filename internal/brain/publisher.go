package brain

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/multibagger/internal/contracts"
	"github.com/wonny/multibagger/pkg/redis"
)

// RedisPublisher hands completed runs to downstream readers through Redis
type RedisPublisher struct {
	cache *redis.Cache
	ttl   time.Duration
}

// NewRedisPublisher creates a publisher. ttl 0 keeps entries forever.
func NewRedisPublisher(cache *redis.Cache, ttl time.Duration) *RedisPublisher {
	return &RedisPublisher{
		cache: cache,
		ttl:   ttl,
	}
}

// Publish writes the run under its id and as the latest run in one transaction
func (p *RedisPublisher) Publish(ctx context.Context, run *contracts.ScreeningRun) error {
	values := map[string]interface{}{
		redis.LatestRunKey():    run,
		redis.RunKey(run.RunID): run,
	}
	if err := p.cache.SetAll(ctx, values, p.ttl); err != nil {
		return fmt.Errorf("publish run %s: %w", run.RunID, err)
	}
	return nil
}

// Latest reads back the most recently published run
func (p *RedisPublisher) Latest(ctx context.Context) (*contracts.ScreeningRun, error) {
	var run contracts.ScreeningRun
	found, err := p.cache.Get(ctx, redis.LatestRunKey(), &run)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &run, nil
}

// PublishUniverseReport stores the latest report of a universe operation
func (p *RedisPublisher) PublishUniverseReport(ctx context.Context, report *contracts.UniverseReport) error {
	if err := p.cache.Set(ctx, redis.UniverseReportKey(report.Operation), report, p.ttl); err != nil {
		return fmt.Errorf("publish universe report: %w", err)
	}
	return nil
}
