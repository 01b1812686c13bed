package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Database *dbConfig
	Service  *svcConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"pgsql"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"portal"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
}

type svcConfig struct {
	Address         string   `envconfig:"PORTAL_ADDRESS" default:":3443"`
	MetricsAddress  string   `envconfig:"PORTAL_METRICS_ADDRESS" default:":8080"`
	LogLevel        string   `envconfig:"PORTAL_LOG_LEVEL" default:"info"`
	CatalogFile     string   `envconfig:"PORTAL_CATALOG_FILE" default:""`
	MigrationFolder string   `envconfig:"PORTAL_MIGRATIONS_FOLDER" default:""`
	AllowedOrigins  []string `envconfig:"PORTAL_ALLOWED_ORIGINS" default:"*"`
	// GatewayPrefix is stripped from request paths when the api sits behind a gateway.
	GatewayPrefix string `envconfig:"PORTAL_GATEWAY_PREFIX" default:""`
	// LatencyBuckets are the http latency histogram buckets, in milliseconds.
	LatencyBuckets []float64 `envconfig:"PORTAL_HTTP_LATENCY_BUCKETS" default:"50,100,300,1000,5000"`
	Triage         triageConfig
	Events        eventsConfig
	Kafka         kafkaConfig
	Redis         redisConfig
	S3            s3Config
	Auth          Auth
	DocStore      docStoreConfig
}

type triageConfig struct {
	MediumAfter  time.Duration `envconfig:"PORTAL_TRIAGE_MEDIUM_AFTER" default:"168h"`
	HighAfter    time.Duration `envconfig:"PORTAL_TRIAGE_HIGH_AFTER" default:"336h"`
	RecentWindow time.Duration `envconfig:"PORTAL_STATS_RECENT_WINDOW" default:"720h"`
}

type eventsConfig struct {
	// Writer is one of stdout, redis, kafka, s3 or none.
	Writer     string `envconfig:"PORTAL_EVENTS_WRITER" default:"stdout"`
	BufferSize int    `envconfig:"PORTAL_EVENTS_BUFFER_SIZE" default:"100"`
}

type kafkaConfig struct {
	Brokers  []string `envconfig:"PORTAL_KAFKA_BROKERS" default:""`
	Topic    string   `envconfig:"PORTAL_KAFKA_TOPIC" default:"portal.status"`
	Version  string   `envconfig:"PORTAL_KAFKA_VERSION" default:""`
	ClientID string   `envconfig:"PORTAL_KAFKA_CLIENT_ID" default:"portal-engine"`
}

type redisConfig struct {
	Address  string `envconfig:"PORTAL_REDIS_ADDRESS" default:"localhost:6379"`
	Password string `envconfig:"PORTAL_REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"PORTAL_REDIS_DB" default:"0"`
	Stream   string `envconfig:"PORTAL_REDIS_STREAM" default:"portal:status"`
	MaxLen   int64  `envconfig:"PORTAL_REDIS_STREAM_MAXLEN" default:"10000"`
}

// s3Config configures the event archive writer.
type s3Config struct {
	Bucket   string `envconfig:"PORTAL_S3_BUCKET" default:""`
	Region   string `envconfig:"PORTAL_S3_REGION" default:"us-east-1"`
	Endpoint string `envconfig:"PORTAL_S3_ENDPOINT" default:""`
	Prefix   string `envconfig:"PORTAL_S3_PREFIX" default:"events/"`
}

type Auth struct {
	// AuthenticationType is none or jwt.
	AuthenticationType string `envconfig:"PORTAL_AUTH" default:"none"`
	JWTSecret          string `envconfig:"PORTAL_JWT_SECRET" default:""`
	JWTIssuer          string `envconfig:"PORTAL_JWT_ISSUER" default:""`
}

type docStoreConfig struct {
	Endpoint  string `envconfig:"PORTAL_DOCSTORE_ENDPOINT" default:""`
	AccessKey string `envconfig:"PORTAL_DOCSTORE_ACCESS_KEY" default:""`
	SecretKey string `envconfig:"PORTAL_DOCSTORE_SECRET_KEY" default:""`
	Bucket    string `envconfig:"PORTAL_DOCSTORE_BUCKET" default:"documents"`
	UseSSL    bool   `envconfig:"PORTAL_DOCSTORE_USE_SSL" default:"true"`
}

// New loads the process configuration once. A .env file in the working
// directory is read first when present.
func New() (*Config, error) {
	if singleConfig == nil {
		_ = godotenv.Load()
		cfg, err := NewDefault()
		if err != nil {
			return nil, err
		}
		singleConfig = cfg
	}
	return singleConfig, nil
}

// NewDefault builds a fresh configuration from the environment and defaults.
func NewDefault() (*Config, error) {
	cfg := &Config{Database: &dbConfig{}, Service: &svcConfig{}}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
