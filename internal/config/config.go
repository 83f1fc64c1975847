package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	S3          S3Config          `mapstructure:"s3"`
	JWT         JWTConfig         `mapstructure:"jwt"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Plans       PlansConfig       `mapstructure:"plans"`
	Invitations InvitationsConfig `mapstructure:"invitations"`
	LimitsCache LimitsCacheConfig `mapstructure:"limits_cache"`
	AMQP        AMQPConfig        `mapstructure:"amqp"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// DatabaseConfig selects the persistence backend. Driver is "mongo" or "memory".
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	URI    string `mapstructure:"uri"`
	Name   string `mapstructure:"name"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
	File  string `mapstructure:"file"`
}

// PlanLimitsConfig is the capacity granted by one subscription tier.
type PlanLimitsConfig struct {
	MaxClients   int `mapstructure:"max_clients"`
	MaxRoutines  int `mapstructure:"max_routines"`
	MaxExercises int `mapstructure:"max_exercises"`
}

type PlansConfig struct {
	Free    PlanLimitsConfig `mapstructure:"free"`
	Premium PlanLimitsConfig `mapstructure:"premium"`
}

// InvitationsConfig bounds how long Accept/Reject wait for an invitation
// that was just written and is not yet visible.
type InvitationsConfig struct {
	LookupAttempts int           `mapstructure:"lookup_attempts"`
	LookupInterval time.Duration `mapstructure:"lookup_interval"`
}

type LimitsCacheConfig struct {
	SizeBytes int           `mapstructure:"size_bytes"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// AMQPConfig configures the optional change publisher. An empty URL disables it.
type AMQPConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// server.address -> SERVER_ADDRESS, jwt.expiration -> JWT_EXPIRATION
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	setDefaults(v)

	err = v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		// No file; defaults and env vars only.
		err = nil
	} else if err != nil {
		return
	}

	err = v.Unmarshal(&config)
	if err != nil {
		return
	}

	if err = config.Validate(); err != nil {
		return
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("database.driver", "mongo")
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "gym_platform")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("jwt.expiration", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.json", false)
	v.SetDefault("logging.file", "")

	v.SetDefault("plans.free.max_clients", 3)
	v.SetDefault("plans.free.max_routines", 5)
	v.SetDefault("plans.free.max_exercises", 20)
	v.SetDefault("plans.premium.max_clients", 100)
	v.SetDefault("plans.premium.max_routines", 500)
	v.SetDefault("plans.premium.max_exercises", 2000)

	v.SetDefault("invitations.lookup_attempts", 5)
	v.SetDefault("invitations.lookup_interval", "200ms")

	v.SetDefault("limits_cache.size_bytes", 1024*1024)
	v.SetDefault("limits_cache.ttl", "5m")

	v.SetDefault("amqp.url", "")
	v.SetDefault("amqp.exchange", "gym.events")
}

// Validate rejects configurations the services cannot run with.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case "mongo", "memory":
	default:
		return errors.New("database.driver must be \"mongo\" or \"memory\"")
	}
	if c.Plans.Free.MaxClients < 0 || c.Plans.Premium.MaxClients < 0 {
		return errors.New("plan client limits must not be negative")
	}
	if c.Invitations.LookupAttempts < 1 {
		return errors.New("invitations.lookup_attempts must be at least 1")
	}
	return nil
}
