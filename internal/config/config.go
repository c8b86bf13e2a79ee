package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Database     *dbConfig
	Service      *svcConfig
	Cache        *cacheConfig
	Notification *notificationConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"pgsql"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"recruitment"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
}

type svcConfig struct {
	OpsAddress      string `envconfig:"RECRUITMENT_OPS_ADDRESS" default:":8080"`
	LogLevel        string `envconfig:"RECRUITMENT_LOG_LEVEL" default:"info"`
	DefaultLanguage string `envconfig:"RECRUITMENT_DEFAULT_LANGUAGE" default:"fr"`
	MigrationFolder string `envconfig:"RECRUITMENT_MIGRATIONS_FOLDER" default:""`
	SeedFile        string `envconfig:"RECRUITMENT_SEED_FILE" default:""`
}

type cacheConfig struct {
	Type              string        `envconfig:"RECRUITMENT_CACHE_TYPE" default:"memory"`
	RedisAddress      string        `envconfig:"RECRUITMENT_REDIS_ADDRESS" default:"localhost:6379"`
	RedisPassword     string        `envconfig:"RECRUITMENT_REDIS_PASSWORD" default:""`
	RedisDB           int           `envconfig:"RECRUITMENT_REDIS_DB" default:"0"`
	OperationTimeout  time.Duration `envconfig:"RECRUITMENT_CACHE_TIMEOUT" default:"200ms"`
	EntityTTL         time.Duration `envconfig:"RECRUITMENT_CACHE_ENTITY_TTL" default:"1h"`
	ListTTL           time.Duration `envconfig:"RECRUITMENT_CACHE_LIST_TTL" default:"5m"`
	ClassificationTTL time.Duration `envconfig:"RECRUITMENT_CACHE_CLASSIFICATION_TTL" default:"24h"`
}

type notificationConfig struct {
	Sender   string `envconfig:"RECRUITMENT_NOTIFICATION_SENDER" default:"no-reply@recruitment.local"`
	LoginURL string `envconfig:"RECRUITMENT_LOGIN_URL" default:"http://localhost:3000/login"`
}

// New reads the configuration from the environment once. A .env file in the
// working directory, when present, is loaded first.
func New() (*Config, error) {
	if singleConfig == nil {
		_ = godotenv.Load()

		cfg := new(Config)
		if err := envconfig.Process("", cfg); err != nil {
			return nil, err
		}
		singleConfig = cfg
	}
	return singleConfig, nil
}

func NewDefault() *Config {
	return &Config{
		Database: &dbConfig{
			Type:     "pgsql",
			Hostname: "localhost",
			Port:     "5432",
			Name:     "recruitment",
			User:     "admin",
			Password: "adminpass",
		},
		Service: &svcConfig{
			OpsAddress:      ":8080",
			LogLevel:        "info",
			DefaultLanguage: "fr",
		},
		Cache: &cacheConfig{
			Type:              "memory",
			RedisAddress:      "localhost:6379",
			OperationTimeout:  200 * time.Millisecond,
			EntityTTL:         time.Hour,
			ListTTL:           5 * time.Minute,
			ClassificationTTL: 24 * time.Hour,
		},
		Notification: &notificationConfig{
			Sender:   "no-reply@recruitment.local",
			LoginURL: "http://localhost:3000/login",
		},
	}
}

// NewSqliteInMemory returns the default configuration pointed at a private
// in-memory sqlite database.
func NewSqliteInMemory() *Config {
	cfg := NewDefault()
	cfg.Database.Type = "sqlite"
	cfg.Database.Name = ":memory:"
	return cfg
}
