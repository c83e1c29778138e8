package gateway_integration_storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	giConfig "github.com/veloxpay/gateway-integration/config"
)

// RedisInstance wraps the shared connection backing the job queue.
type RedisInstance struct {
	RDB *redis.Client
}

var redisInstance RedisInstance

func validateRedisConfig(cfg *giConfig.RedisConfig) error {
	if cfg.RedisHost == "" {
		return eris.New("redis host is empty")
	}
	if cfg.RedisPort == "" {
		return eris.New("redis port is empty")
	}

	return nil
}

// InitRedis opens and pings the shared redis connection. Password stays
// optional, local setups usually run without one.
func InitRedis(config *giConfig.RedisConfig) (*RedisInstance, error) {
	if err := validateRedisConfig(config); err != nil {
		return nil, eris.Wrap(err, "invalid redis configuration")
	}

	addr := fmt.Sprintf("%s:%s", config.RedisHost, config.RedisPort)
	redisInstance.RDB = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: config.RedisPassword,
		DB:       int(config.RedisDBNum),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := redisInstance.RDB.Ping(ctx).Result(); err != nil {
		return nil, eris.Wrapf(err, "pinging redis at %s", addr)
	}

	slog.Debug("opened redis connection", "addr", addr, "db", config.RedisDBNum)

	return &redisInstance, nil
}

func GetRedisInstance() *RedisInstance {
	return &redisInstance
}

func (r *RedisInstance) CloseRedis() error {
	if r.RDB == nil {
		slog.Info("redis connection is already closed or was never opened")
		return nil
	}
	if err := r.RDB.Close(); err != nil {
		return eris.Wrap(err, "closing redis connection")
	}
	r.RDB = nil
	return nil
}
