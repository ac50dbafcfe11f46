package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int
	MinConns int
}

// KafkaConfig names the outbound event topic and, optionally, an intake
// topic whose messages are evaluated asynchronously.
type KafkaConfig struct {
	Brokers       []string
	Topic         string
	// AuditTopic, when set, receives fallback-decision events.
	AuditTopic    string
	IntakeTopic   string
	ConsumerGroup string
	TLS           bool
	SASLMechanism string
	SASLUsername  string
	SASLPassword  string
	// IntakeAttempts bounds deliveries of one intake message to the handler.
	IntakeAttempts int
	IntakeBackoff  time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// PredictionConfig points at the external approval predictor. With no URL
// the local rules decide, unless Stub selects the in-process dev predictor.
type PredictionConfig struct {
	URL     string
	Timeout time.Duration
	CAFile  string
	Stub    bool
}

// TLSConfig enables TLS on the gRPC and HTTP listeners when both files are
// set. ClientCAFile additionally requires client certificates.
type TLSConfig struct {
	CertFile     string
	KeyFile      string
	ClientCAFile string
}

func (t TLSConfig) Enabled() bool {
	return t.CertFile != "" && t.KeyFile != ""
}

type LogConfig struct {
	Level  string
	Format string
}

// AuthConfig selects how bearer tokens are verified. PublicKeyFile is read
// at startup when PublicKeyPEM is empty.
type AuthConfig struct {
	Secret        string
	PublicKeyPEM  string
	PublicKeyFile string
	Issuer        string
	// Audience is checked against the aud claim when set.
	Audience string
	Leeway   time.Duration
}

// StorageConfig holds the S3-compatible bucket that receives batch reports.
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// Enabled reports whether report uploads are configured.
func (s StorageConfig) Enabled() bool {
	return s.Endpoint != "" && s.Bucket != ""
}

// TracingConfig exports spans over OTLP/gRPC. An empty Endpoint disables
// tracing.
type TracingConfig struct {
	Endpoint    string
	Insecure    bool
	SampleRatio float64
}

type Config struct {
	GRPCPort    int
	HTTPPort    int
	DB          DatabaseConfig
	Kafka       KafkaConfig
	Redis       RedisConfig
	Prediction  PredictionConfig
	Log         LogConfig
	Auth        AuthConfig
	Storage     StorageConfig
	TLS         TLSConfig
	Tracing     TracingConfig
	Reflection  bool
	ServiceName string
}

func (c Config) Validate() error {
	var errs []error
	if c.DB.Password == "" {
		errs = append(errs, errors.New("DB_PASSWORD environment variable is required"))
	}
	if c.Auth.Secret == "" && c.Auth.PublicKeyPEM == "" && c.Auth.PublicKeyFile == "" {
		errs = append(errs, errors.New("JWT_SECRET, JWT_PUBLIC_KEY or JWT_PUBLIC_KEY_FILE environment variable is required"))
	}
	if c.Prediction.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("PREDICTION_TIMEOUT must be positive, got %s", c.Prediction.Timeout))
	}
	if r := c.Tracing.SampleRatio; c.Tracing.Endpoint != "" && (r <= 0 || r > 1) {
		errs = append(errs, fmt.Errorf("TRACE_SAMPLE_RATIO must be within (0, 1], got %g", r))
	}
	if c.TLS.ClientCAFile != "" && !c.TLS.Enabled() {
		errs = append(errs, errors.New("TLS_CLIENT_CA_FILE requires TLS_CERT_FILE and TLS_KEY_FILE"))
	}
	if c.Storage.Endpoint != "" && (c.Storage.AccessKey == "" || c.Storage.SecretKey == "") {
		errs = append(errs, errors.New("S3_ACCESS_KEY and S3_SECRET_KEY are required when S3_ENDPOINT is set"))
	}
	return errors.Join(errs...)
}

func Load() Config {
	return Config{
		GRPCPort: getEnvInt("GRPC_PORT", 9095),
		HTTPPort: getEnvInt("HTTP_PORT", 8095),
		DB: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "credwise"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "credwise"),
			SSLMode:  getEnv("DB_SSLMODE", "require"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 10),
			MinConns: getEnvInt("DB_MIN_CONNS", 0),
		},
		Kafka: KafkaConfig{
			Brokers:        splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			Topic:          getEnv("KAFKA_TOPIC", "credit.evaluations"),
			AuditTopic:     getEnv("KAFKA_AUDIT_TOPIC", ""),
			IntakeTopic:    getEnv("KAFKA_INTAKE_TOPIC", ""),
			ConsumerGroup:  getEnv("KAFKA_CONSUMER_GROUP", "eligibility-service"),
			TLS:            getEnvBool("KAFKA_TLS", false),
			SASLMechanism:  getEnv("KAFKA_SASL_MECHANISM", ""),
			SASLUsername:   getEnv("KAFKA_SASL_USERNAME", ""),
			SASLPassword:   getEnv("KAFKA_SASL_PASSWORD", ""),
			IntakeAttempts: getEnvInt("KAFKA_INTAKE_ATTEMPTS", 3),
			IntakeBackoff:  getEnvDuration("KAFKA_INTAKE_BACKOFF", 500*time.Millisecond),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			Prefix:   getEnv("REDIS_PREFIX", "credwise:evaluation:"),
			TTL:      getEnvDuration("CACHE_TTL", 15*time.Minute),
		},
		Prediction: PredictionConfig{
			URL:     getEnv("PREDICTION_URL", ""),
			Timeout: getEnvDuration("PREDICTION_TIMEOUT", 5*time.Second),
			CAFile:  getEnv("PREDICTION_CA_FILE", ""),
			Stub:    getEnvBool("PREDICTION_STUB", false),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			Secret:        getEnv("JWT_SECRET", ""),
			PublicKeyPEM:  getEnv("JWT_PUBLIC_KEY", ""),
			PublicKeyFile: getEnv("JWT_PUBLIC_KEY_FILE", ""),
			Issuer:        getEnv("JWT_ISSUER", "credwise"),
			Audience:      getEnv("JWT_AUDIENCE", ""),
			Leeway:        getEnvDuration("JWT_LEEWAY", 30*time.Second),
		},
		Storage: StorageConfig{
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
			Bucket:    getEnv("S3_BUCKET", "credit-reports"),
			Region:    getEnv("S3_REGION", "us-east-1"),
			UseSSL:    getEnvBool("S3_USE_SSL", true),
		},
		TLS: TLSConfig{
			CertFile:     getEnv("TLS_CERT_FILE", ""),
			KeyFile:      getEnv("TLS_KEY_FILE", ""),
			ClientCAFile: getEnv("TLS_CLIENT_CA_FILE", ""),
		},
		Tracing: TracingConfig{
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Insecure:    getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", false),
			SampleRatio: getEnvFloat("TRACE_SAMPLE_RATIO", 1),
		},
		Reflection:  getEnvBool("GRPC_REFLECTION", false),
		ServiceName: "eligibility-service",
	}
}

func (c Config) GRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
