package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string `env:"APP_PORT" envDefault:"8080"`

	DBDriver   string `env:"DB_DRIVER" envDefault:"mysql"`
	MySQLHost  string `env:"MYSQL_HOST" envDefault:"mysql"`
	MySQLPort  string `env:"MYSQL_PORT" envDefault:"3306"`
	MySQLDB    string `env:"MYSQL_DB" envDefault:"edufund"`
	MySQLUser  string `env:"MYSQL_USER" envDefault:"edufund"`
	MySQLPass  string `env:"MYSQL_PASS" envDefault:"edufund"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"edufund.db"`

	RedisAddr    string `env:"REDIS_ADDR" envDefault:"redis:6379"`
	RedisDB      int    `env:"REDIS_DB" envDefault:"0"`
	IdempTTLSecs int    `env:"IDEMPOTENCY_TTL_SECONDS" envDefault:"300"`

	JWTSecret string `env:"JWT_SECRET"`

	LockBackend string        `env:"LOCK_BACKEND" envDefault:"local"`
	LockTTL     time.Duration `env:"LOCK_TTL" envDefault:"30s"`

	NotifyBroker string   `env:"NOTIFY_BROKER" envDefault:"none"`
	NATSURL      string   `env:"NATS_URL" envDefault:"nats://nats:4222"`
	NATSSubject  string   `env:"NATS_SUBJECT" envDefault:"edufund.notifications"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"kafka:9092"`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"edufund.notifications"`

	CloudinaryURL  string `env:"CLOUDINARY_URL"`
	DocumentFolder string `env:"DOCUMENT_FOLDER" envDefault:"edufund/verification"`

	RetryMaxAttempts         uint          `env:"RETRY_MAX_ATTEMPTS" envDefault:"4"`
	RetryInitialInterval     time.Duration `env:"RETRY_INITIAL_INTERVAL" envDefault:"100ms"`
	RetryMaxInterval         time.Duration `env:"RETRY_MAX_INTERVAL" envDefault:"2s"`
	DependencyAttemptTimeout time.Duration `env:"DEPENDENCY_ATTEMPT_TIMEOUT" envDefault:"5s"`

	ArchivePurgeInterval time.Duration `env:"ARCHIVE_PURGE_INTERVAL" envDefault:"1h"`
	RelayInterval        time.Duration `env:"RELAY_INTERVAL" envDefault:"30s"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogJSON  bool   `env:"LOG_JSON" envDefault:"true"`
}

// Load reads an optional .env file, then the process environment.
// Variables already set in the environment win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	var c Config
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	switch c.DBDriver {
	case "mysql":
		if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
			return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
		}
		// ensure port is valid
		if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.JWTSecret == "" {
		return errors.New("missing JWT_SECRET")
	}
	switch c.LockBackend {
	case "local", "redis":
	default:
		return fmt.Errorf("unsupported LOCK_BACKEND %q", c.LockBackend)
	}
	switch c.NotifyBroker {
	case "none", "nats", "kafka":
	default:
		return fmt.Errorf("unsupported NOTIFY_BROKER %q", c.NotifyBroker)
	}
	if c.NotifyBroker == "kafka" && len(c.KafkaBrokers) == 0 {
		return errors.New("missing KAFKA_BROKERS")
	}
	if c.RetryMaxAttempts == 0 {
		return errors.New("RETRY_MAX_ATTEMPTS must be at least 1")
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}
