package container

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"catalog/consolidator/internal/config"
	"catalog/consolidator/internal/observability"
	"catalog/consolidator/internal/queue"
	"catalog/consolidator/internal/repository"
	"catalog/consolidator/internal/service"
	"catalog/consolidator/internal/sink"
	"catalog/consolidator/internal/source"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Container holds all initialized components
type Container struct {
	Config  *config.Config
	Sources []source.Source
	Sinks   []sink.Sink

	Service *service.Service

	db      *pgxpool.Pool
	redis   *redis.Client
	metrics *http.Server
}

// New creates a new container with all dependencies initialized
func New(ctx context.Context, cfg *config.Config, fs afero.Fs) (*Container, error) {
	container := &Container{
		Config: cfg,
	}

	if cfg.Metrics.Enabled {
		server, err := observability.Start(cfg.Metrics.Port)
		if err != nil {
			return nil, fmt.Errorf("failed to start metrics server: %w", err)
		}
		container.metrics = server
	}

	if cfg.Input.Path != "" {
		dataDir := filepath.Join(cfg.Input.Path, cfg.Input.DataDir)
		container.Sources = append(container.Sources, source.NewDirSource(fs, dataDir, cfg.Input.Pattern))
	}
	if len(cfg.Input.URLs) > 0 {
		container.Sources = append(container.Sources, source.NewHTTPSource(cfg.Input))
	}

	for _, name := range cfg.Output.Sinks {
		out, err := container.newSink(ctx, name, fs)
		if err != nil {
			container.Close()
			return nil, err
		}
		container.Sinks = append(container.Sinks, out)
	}

	container.Service = service.NewService(
		container.Sources,
		container.Sinks,
		cfg.Pipeline.Workers,
		cfg.Pipeline.Strict,
	)

	return container, nil
}

func (c *Container) newSink(ctx context.Context, name string, fs afero.Fs) (sink.Sink, error) {
	switch name {
	case config.SinkFile:
		return sink.NewFileSink(fs, c.Config.Output.Dir, c.Config.Output.Format)

	case config.SinkPostgres:
		db, err := pgxpool.New(ctx, c.Config.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		c.db = db

		repo := repository.NewRecordRepository(db, c.Config.Database.Table)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		log.Info("✅ Connected to Postgres successfully")
		return repo, nil

	case config.SinkRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     c.Config.Redis.Addr(),
			Password: c.Config.Redis.Password,
			DB:       c.Config.Redis.Database,
		})
		c.redis = rdb

		if _, err := rdb.Ping(ctx).Result(); err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.Info("✅ Connected to Redis successfully")
		return queue.NewRedisPublisher(rdb, c.Config.Redis), nil

	default:
		return nil, fmt.Errorf("unknown sink %q", name)
	}
}

// Run executes one consolidation and logs its summary
func (c *Container) Run(ctx context.Context) (*service.Result, error) {
	result, err := c.Service.Run(ctx)
	if err != nil {
		return nil, err
	}

	for _, failure := range result.Failures {
		log.Errorf("❌ Excluded %s: %v", failure.Unit, failure.Err)
	}
	log.Infof("✅ Run %s: %d/%d units, %d records, %d columns, %d null-filled keys in %s",
		result.RunID,
		result.Units-len(result.Failures), result.Units,
		len(result.Dataset.Rows), len(result.Dataset.Columns),
		result.Filled, result.Duration.Round(time.Millisecond))

	return result, nil
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Debug("Shutting down container...")

	if c.db != nil {
		c.db.Close()
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			log.Warnf("Failed to close Redis client: %v", err)
		}
	}
	if c.metrics != nil {
		if err := c.metrics.Close(); err != nil {
			log.Warnf("Failed to close metrics server: %v", err)
		}
	}

	return nil
}
