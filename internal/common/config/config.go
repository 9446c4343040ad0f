package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	}

	AWS struct {
		Region string `env:"AWS_REGION" envDefault:"us-east-1"`

		// Optional override for DynamoDB Local and similar test endpoints.
		Endpoint string `env:"AWS_ENDPOINT" envDefault:""`

		UsersTable       string `env:"USERS_TABLE" envDefault:"users"`
		FollowsTable     string `env:"FOLLOWS_TABLE" envDefault:"follows"`
		ConnectionsTable string `env:"CONNECTIONS_TABLE" envDefault:"connections"`

		NotificationQueueURL string `env:"NOTIFICATION_QUEUE_URL" envDefault:""`

		UploadBucket string `env:"UPLOAD_BUCKET" envDefault:""`
	}

	Redis struct {
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Auth struct {
		// OIDC userinfo endpoint used to resolve bearer tokens to identities.
		UserInfoURL string `env:"AUTH_USERINFO_URL,required"`

		CacheTTL time.Duration `env:"AUTH_CACHE_TTL" envDefault:"10m"`
	}
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		// Missing .env is fine; in production the variables are set directly.
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		panic(err)
	}

	return cfg
}
