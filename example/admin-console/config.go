package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "MEDIA_CONSOLE"

type Config struct {
	HTTP    HTTPConfig    `mapstructure:"http"`
	Log     LogConfig     `mapstructure:"log"`
	Blob    BlobConfig    `mapstructure:"blob"`
	Content ContentConfig `mapstructure:"content"`
	Auth    AuthConfig    `mapstructure:"auth"`
}

type HTTPConfig struct {
	Address         string        `mapstructure:"address"`
	CacheControl    string        `mapstructure:"cache_control"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type BlobConfig struct {
	Driver    string   `mapstructure:"driver"` // gcs, s3, or cloud
	Bucket    string   `mapstructure:"bucket"`
	PublicURL string   `mapstructure:"public_url"`
	URL       string   `mapstructure:"url"` // gocloud bucket URL, eg. mem://, file:///data
	S3        S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

type ContentConfig struct {
	Driver    string          `mapstructure:"driver"` // inmemory, postgres, mongo, or datastore
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	Datastore DatastoreConfig `mapstructure:"datastore"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type DatastoreConfig struct {
	ProjectID string `mapstructure:"project_id"`
}

type AuthConfig struct {
	// Disabled accepts any bearer token, never use it outside development
	Disabled bool `mapstructure:"disabled"`

	// Accounts by user ID
	Accounts    map[string]AccountConfig `mapstructure:"accounts"`
	Admins      []string                 `mapstructure:"admins"`
	TokenKeyID  string                   `mapstructure:"token_key_id"`
	TokenSecret string                   `mapstructure:"token_secret"`
	SecretFile  string                   `mapstructure:"secret_file"` // HCL file with more hmac keys
	TokenTTL    time.Duration            `mapstructure:"token_ttl"`
	MaxAttempts int                      `mapstructure:"max_attempts"`
	Lockout     time.Duration            `mapstructure:"lockout"`
	Redis       RedisConfig              `mapstructure:"redis"`
}

type AccountConfig struct {
	Email        string `mapstructure:"email"`
	PasswordHash string `mapstructure:"password_hash"`
}

// RedisConfig is optional, without an address login throttling is off and
// last login is kept in memory
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.address", "localhost:9090")
	v.SetDefault("http.cache_control", "private, max-age=300")
	v.SetDefault("http.shutdown_timeout", 30*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("blob.driver", "cloud")
	v.SetDefault("blob.bucket", "")
	v.SetDefault("blob.public_url", "")
	v.SetDefault("blob.url", "mem://")
	v.SetDefault("blob.s3.endpoint", "")
	v.SetDefault("blob.s3.access_key", "")
	v.SetDefault("blob.s3.secret_key", "")
	v.SetDefault("blob.s3.use_ssl", true)
	v.SetDefault("content.driver", "inmemory")
	v.SetDefault("content.postgres.dsn", "")
	v.SetDefault("content.mongo.uri", "")
	v.SetDefault("content.mongo.database", "media_console")
	v.SetDefault("content.datastore.project_id", "")
	v.SetDefault("auth.disabled", false)
	v.SetDefault("auth.token_key_id", "session-1")
	v.SetDefault("auth.token_secret", "")
	v.SetDefault("auth.secret_file", "")
	v.SetDefault("auth.token_ttl", 12*time.Hour)
	v.SetDefault("auth.max_attempts", 5)
	v.SetDefault("auth.lockout", 15*time.Minute)
	v.SetDefault("auth.redis.address", "")
	v.SetDefault("auth.redis.password", "")
	v.SetDefault("auth.redis.db", 0)
	v.SetDefault("auth.redis.prefix", "media-console|")
}

// loadConfig reads <dir>/<env>.yaml, MEDIA_CONSOLE_* variables override it
// (MEDIA_CONSOLE_AUTH_TOKEN_SECRET for auth.token_secret)
func loadConfig(dir, env string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(env)
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: failed to read config %v/%v.yaml", err, dir, env)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal config", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Blob.Driver {
	case "gcs", "s3":
		if c.Blob.Bucket == "" {
			return fmt.Errorf("blob.bucket is required for the %v driver", c.Blob.Driver)
		}
	case "cloud":
		if c.Blob.URL == "" {
			return errors.New("blob.url is required for the cloud driver")
		}
	default:
		return fmt.Errorf("unknown blob.driver %q", c.Blob.Driver)
	}

	switch c.Content.Driver {
	case "inmemory":
	case "postgres":
		if c.Content.Postgres.DSN == "" {
			return errors.New("content.postgres.dsn is required")
		}
	case "mongo":
		if c.Content.Mongo.URI == "" {
			return errors.New("content.mongo.uri is required")
		}
	case "datastore":
		if c.Content.Datastore.ProjectID == "" {
			return errors.New("content.datastore.project_id is required")
		}
	default:
		return fmt.Errorf("unknown content.driver %q", c.Content.Driver)
	}

	if c.Auth.Disabled {
		return nil
	}
	if c.Auth.TokenSecret == "" && c.Auth.SecretFile == "" {
		return errors.New("auth.token_secret or auth.secret_file is required")
	}
	if len(c.Auth.Admins) == 0 {
		return errors.New("auth.admins must list at least one user ID")
	}
	for _, uid := range c.Auth.Admins {
		if _, ok := c.Auth.Accounts[strings.ToLower(uid)]; !ok {
			return fmt.Errorf("admin %v has no entry in auth.accounts", uid)
		}
	}

	return nil
}
