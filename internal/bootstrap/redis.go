package bootstrap

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/north-cloud/burst-tracker/internal/config"
	"github.com/jonesrussell/north-cloud/burst-tracker/internal/events"
	"github.com/jonesrussell/north-cloud/burst-tracker/internal/logger"
)

const redisPingTimeout = 5 * time.Second

// SetupEventPublisher creates an optional event publisher if Redis is enabled.
// Returns nil if Redis is disabled or unavailable.
func SetupEventPublisher(cfg *config.Config, log logger.Logger) *events.Publisher {
	if !cfg.Redis.Enabled {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("Redis not available, events disabled",
			logger.Error(err),
		)
		_ = client.Close()
		return nil
	}

	log.Info("Event publisher initialized",
		logger.String("redis_address", cfg.Redis.Address),
	)
	return events.NewPublisher(client, log)
}
