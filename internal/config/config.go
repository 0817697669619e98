package config

import (
	"os"
	"time"

	"github.com/go-yaml/yaml"
)

type Config struct {
	Server Server `yaml:"server"`
	Auth   Auth   `yaml:"auth"`
	Upload Upload `yaml:"upload"`
}

type Server struct {
	Listen        string `yaml:"listen"`
	PostgresDsn   string `yaml:"postgresDsn"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
}

type Auth struct {
	// TokenSecret is the HMAC key for signing credentials. Required.
	TokenSecret string `yaml:"tokenSecret"`
	// TokenTTL defaults to 720h (30 days) when zero.
	TokenTTL time.Duration `yaml:"tokenTTL"`
	Issuer   string        `yaml:"issuer"`
}

type Upload struct {
	// BaseURL is the externally reachable prefix for issued upload slots,
	// e.g. "https://ingest.example.com/upload".
	BaseURL string `yaml:"baseURL"`
	// MaxSizeBytes defaults to 16 MiB when zero.
	MaxSizeBytes int64 `yaml:"maxSizeBytes"`
}

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, err
	}

	if config.Auth.TokenTTL == 0 {
		config.Auth.TokenTTL = 720 * time.Hour
	}
	if config.Upload.MaxSizeBytes == 0 {
		config.Upload.MaxSizeBytes = 16 << 20
	}
	if config.Server.Listen == "" {
		config.Server.Listen = ":8000"
	}

	return config, nil
}
