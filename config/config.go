package gateway_integration_config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"

	giUtil "github.com/veloxpay/gateway-integration/utils"
)

const (
	DefaultBaseURL                    = "https://portal.veloxpay.example"
	DefaultTimeout                    = 30 * time.Second
	DefaultTransferMonitoringInterval = 10 * time.Minute

	DefaultAPIKeyName = "default"
)

// GatewayCredential holds the API key material. Either APIKey alone is set,
// or APIKeys carries a named key set which then must contain a "default"
// entry. APIKeyName picks the active key out of APIKeys.
type GatewayCredential struct {
	APIKey     string
	APIKeys    map[string]string
	APIKeyName string
}

type GatewayClientIdentity struct {
	APIClientName    string `validate:"required"` // sent to the gateway with each login as a papertrail
	APIClientVersion string `validate:"required"` // ditto
}

type GatewayEndpointConfig struct {
	BaseURL string        `validate:"required,url"`
	Timeout time.Duration // for http requests to the gateway API
}

type MonitoringConfig struct {
	// How long to wait between status checks on a running payment process.
	TransferMonitoringInterval time.Duration
}

type RedisConfig struct {
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDBNum    uint8
}

// Configuration bundles everything a client / operation / job needs. It is
// constructed once per logical call chain and passed explicitly; there is no
// process-wide mutable configuration.
type Configuration struct {
	GatewayCredential
	GatewayClientIdentity
	GatewayEndpointConfig
	MonitoringConfig
	RedisConfig

	Mode string // "prod", "dev" or "debug"; debug turns on verbose slog output
}

// Option overrides a field after env loading and before validation.
type Option func(*Configuration)

func WithAPIKey(key string) Option {
	return func(c *Configuration) { c.APIKey = key }
}

func WithAPIKeyName(name string) Option {
	return func(c *Configuration) { c.APIKeyName = name }
}

func WithBaseURL(url string) Option {
	return func(c *Configuration) { c.BaseURL = url }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Configuration) { c.Timeout = d }
}

func WithTransferMonitoringInterval(d time.Duration) Option {
	return func(c *Configuration) { c.TransferMonitoringInterval = d }
}

func New(envPath string, opts ...Option) *Configuration {
	if err := godotenv.Load(envPath); err != nil {
		log.Println("Failed to locate .env file, program will proceed with provided env if any is provided")
	}

	cfg := &Configuration{
		GatewayCredential: GatewayCredential{
			APIKey:     getEnv("GATEWAY_API_KEY", ""),
			APIKeys:    getEnvAsMap("GATEWAY_API_KEYS"),
			APIKeyName: getEnv("GATEWAY_API_KEY_NAME", ""),
		},
		GatewayClientIdentity: GatewayClientIdentity{
			APIClientName:    getEnv("GATEWAY_API_CLIENT_NAME", "Veloxpay Gateway Integration"),
			APIClientVersion: getEnv("GATEWAY_API_CLIENT_VERSION", Version),
		},
		GatewayEndpointConfig: GatewayEndpointConfig{
			BaseURL: getEnv("GATEWAY_BASE_URL", DefaultBaseURL),
			Timeout: time.Duration(getEnvAsInt("GATEWAY_TIMEOUT", int(DefaultTimeout.Seconds()))) * time.Second,
		},
		MonitoringConfig: MonitoringConfig{
			TransferMonitoringInterval: time.Duration(getEnvAsInt("TRANSFER_MONITORING_INTERVAL",
				int(DefaultTransferMonitoringInterval.Seconds()))) * time.Second,
		},
		RedisConfig: RedisConfig{
			RedisHost:     getEnv("REDIS_HOST", ""),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDBNum:    uint8(getEnvAsInt("REDIS_DB_NUM", 0)),
		},
		Mode: getEnv("MODE", "prod"),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// Validate checks the credential invariants and the value ranges the rest of
// the module relies on. Called once after construction; a Configuration that
// passed Validate is treated as immutable.
func (c *Configuration) Validate() error {
	if err := giUtil.GetValidator().Struct(c); err != nil {
		return eris.Wrap(err, "invalid gateway configuration")
	}

	if c.APIKey != "" && len(c.APIKeys) > 0 {
		return eris.New("configure either a single api key or a named key set, not both")
	}
	if c.APIKey == "" && len(c.APIKeys) == 0 {
		return eris.New("no api key configured")
	}
	if len(c.APIKeys) > 0 {
		if _, ok := c.APIKeys[DefaultAPIKeyName]; !ok {
			return eris.New(`named api key set is missing the "default" entry`)
		}
	}
	if c.APIKeyName != "" && len(c.APIKeys) == 0 {
		return eris.New("api key name given but no named key set configured")
	}

	if c.Timeout <= 0 {
		return eris.New("timeout has to be positive")
	}
	if c.TransferMonitoringInterval <= 0 {
		return eris.New("transfer monitoring interval has to be positive")
	}

	return nil
}

// ActiveAPIKey resolves the credential selected for this configuration.
func (c *Configuration) ActiveAPIKey() (string, error) {
	if c.APIKey != "" {
		return c.APIKey, nil
	}

	name := c.APIKeyName
	if name == "" {
		name = DefaultAPIKeyName
	}
	key, ok := c.APIKeys[name]
	if !ok {
		return "", eris.Errorf("no api key named %q configured", name)
	}
	return key, nil
}

// Simple helper function to read an environment or return a default value.
func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultVal
}

// Simple helper function to read an environment variable into integer or return a default value.
func getEnvAsInt(name string, defaultVal int) int {
	valueStr := getEnv(name, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}

	return defaultVal
}

// Helper to read a "name:key,name:key" environment variable into a map.
func getEnvAsMap(name string) map[string]string {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return nil
	}

	result := make(map[string]string)
	for _, pair := range strings.Split(valueStr, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(pair), ":")
		if !found || k == "" {
			continue
		}
		result[k] = v
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
