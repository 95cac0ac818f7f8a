package config

import "time"

type Config struct {
	App            AppConfig            `mapstructure:"app"`
	HTTP           HTTPConfig           `mapstructure:"http"`
	Keycloak       KeycloakConfig       `mapstructure:"keycloak"`
	Session        SessionConfig        `mapstructure:"session"`
	Redis          RedisConfig          `mapstructure:"redis"`
	ClickHouse     ClickHouseConfig     `mapstructure:"clickhouse"`
	S3             S3Config             `mapstructure:"s3"`
	CDN            CDNConfig            `mapstructure:"cdn"`
	Queue          QueueConfig          `mapstructure:"queue"`
	NATS           NATSConfig           `mapstructure:"nats"`
	RabbitMQ       RabbitMQConfig       `mapstructure:"rabbitmq"`
	AuthService    AuthServiceConfig    `mapstructure:"auth_service"`
	Client         ClientConfig         `mapstructure:"client"`
	Vault          VaultConfig          `mapstructure:"vault"`
	OpenTelemetry  OpenTelemetryConfig  `mapstructure:"opentelemetry"`
	Prometheus     PrometheusConfig     `mapstructure:"prometheus"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	CORS           CORSConfig           `mapstructure:"cors"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type HTTPConfig struct {
	Port         int           `mapstructure:"port"`
	FrontendURL  string        `mapstructure:"frontend_url"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type KeycloakConfig struct {
	URL          string `mapstructure:"url"`
	PublicURL    string `mapstructure:"public_url"`
	Realm        string `mapstructure:"realm"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

type SessionConfig struct {
	CookieName     string        `mapstructure:"cookie_name"`
	TTL            time.Duration `mapstructure:"ttl"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
	PKCEStateTTL   time.Duration `mapstructure:"pkce_state_ttl"`
	EncryptionKey  string        `mapstructure:"encryption_key"`
	CookieSecure   bool          `mapstructure:"cookie_secure"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type ClickHouseConfig struct {
	Addr     string `mapstructure:"addr"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type S3Config struct {
	EndpointURL  string `mapstructure:"endpoint_url"`
	Region       string `mapstructure:"region"`
	AccessKey    string `mapstructure:"access_key"`
	SecretKey    string `mapstructure:"secret_key"`
	Bucket       string `mapstructure:"bucket"`
	UsePathStyle bool   `mapstructure:"use_path_style"`
}

type CDNConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type QueueConfig struct {
	Driver string `mapstructure:"driver"` // "nats" or "rabbitmq"
}

type NATSConfig struct {
	URL           string        `mapstructure:"url"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type RabbitMQConfig struct {
	URL string `mapstructure:"url"`
}

type AuthServiceConfig struct {
	URL string `mapstructure:"url"`
}

type ClientConfig struct {
	AuthBaseURL string `mapstructure:"auth_base_url"`
	APIBaseURL  string `mapstructure:"api_base_url"`
}

type VaultConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
	Token   string `mapstructure:"token"`
}

type OpenTelemetryConfig struct {
	Enabled     bool         `mapstructure:"enabled"`
	Jaeger      JaegerConfig `mapstructure:"jaeger"`
	ServiceName string       `mapstructure:"service_name"`
}

type JaegerConfig struct {
	Endpoint     string  `mapstructure:"endpoint"`
	SamplerType  string  `mapstructure:"sampler_type"`
	SamplerParam float64 `mapstructure:"sampler_param"`
}

type PrometheusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      int           `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold float64       `mapstructure:"failure_threshold"`
}

type CORSConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
	MaxAge         int      `mapstructure:"max_age"`
	Credentials    bool     `mapstructure:"credentials"`
}
