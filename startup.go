package gateway_integration

import (
	"log/slog"
	"strings"

	"github.com/rotisserie/eris"

	giClient "github.com/veloxpay/gateway-integration/client"
	giConfig "github.com/veloxpay/gateway-integration/config"
	giInterfaces "github.com/veloxpay/gateway-integration/interfaces"
	"github.com/veloxpay/gateway-integration/jobs"
	giStorage "github.com/veloxpay/gateway-integration/storage"
	giUtil "github.com/veloxpay/gateway-integration/utils"
)

// InitGatewayAPI loads and validates the configuration, sets up the shared
// validator and the redis connection backing the job queue. Call once at
// process start.
func InitGatewayAPI(envPath string, opts ...giConfig.Option) (*giConfig.Configuration, error) {
	cfg := giConfig.New(envPath, opts...)
	giUtil.InitValidator()

	if err := cfg.Validate(); err != nil {
		return nil, eris.Wrap(err, "validating gateway configuration")
	}

	if strings.Contains(cfg.Mode, "debug") {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	} else {
		slog.SetLogLoggerLevel(slog.LevelInfo)
	}

	if _, err := giStorage.InitRedis(&cfg.RedisConfig); err != nil {
		return nil, eris.Wrap(err, "init redis connection")
	}

	return cfg, nil
}

// NewGatewayClient returns a fresh authenticated API client. Clients cache
// their bearer token, so hand each concurrent job its own instance.
func NewGatewayClient(cfg *giConfig.Configuration) giInterfaces.API {
	return giClient.NewClient(cfg)
}

// NewJobQueue returns the redis-backed job queue over the shared connection
// opened by InitGatewayAPI.
func NewJobQueue() *jobs.Queue {
	return jobs.NewQueue(giStorage.GetRedisInstance())
}
