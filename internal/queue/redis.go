package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"catalog/consolidator/internal/config"
	"catalog/consolidator/internal/domain"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const pipelineSize = 500

// RedisPublisher appends every row of a dataset to a Redis stream. The client
// is owned by the caller.
type RedisPublisher struct {
	redisClient *redis.Client
	stream      string
	maxLen      int64
}

func NewRedisPublisher(redisClient *redis.Client, cfg config.RedisConfig) *RedisPublisher {
	return &RedisPublisher{
		redisClient: redisClient,
		stream:      cfg.Stream,
		maxLen:      cfg.MaxLen,
	}
}

func (q *RedisPublisher) Name() string {
	return config.SinkRedis
}

func (q *RedisPublisher) Write(ctx context.Context, dataset *domain.Dataset) error {
	for start := 0; start < len(dataset.Rows); start += pipelineSize {
		end := min(start+pipelineSize, len(dataset.Rows))

		pipe := q.redisClient.Pipeline()
		for _, row := range dataset.Rows[start:end] {
			values, err := recordMessage(dataset.RunID, row)
			if err != nil {
				return err
			}
			pipe.XAdd(ctx, &redis.XAddArgs{
				Stream: q.stream,
				MaxLen: q.maxLen,
				Approx: q.maxLen > 0,
				Values: values,
			})
		}

		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("failed to add records to Redis stream %s: %w", q.stream, err)
		}
		log.Debugf("Added records %d-%d to stream %s", start, end, q.stream)
	}

	log.Infof("✅ Published %d records to stream %s", len(dataset.Rows), q.stream)
	return nil
}

// recordMessage builds the stream entry fields for one row.
// Fields: run_id, record_id, record_data
func recordMessage(runID string, row domain.Record) (map[string]interface{}, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize record %v: %w", row.ID(), err)
	}

	return map[string]interface{}{
		"run_id":      runID,
		"record_id":   fmt.Sprint(row.ID()),
		"record_data": string(data),
	}, nil
}
