package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"

	BlobLocal = "local"
	BlobS3    = "s3"
)

type Config struct {
	Env        string         `yaml:"env" env:"APP_ENV" env-default:"local" json:"-"`
	Storage    StorageConfig  `yaml:"storage" json:"-"`
	HTTPServer HTTPServer     `yaml:"http_server" json:"-"`
	Blob       BlobConfig     `yaml:"blob" json:"-"`
	Live       LiveConfig     `yaml:"live" json:"-"`
	Messages   MessagesConfig `yaml:"messages" json:"messages"`
	Uploads    UploadsConfig  `yaml:"uploads" json:"uploads"`
}

type StorageConfig struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"sqlite"`
	DSN    string `yaml:"dsn" env:"DATABASE_URL" env-default:"storage/groups.db"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8082"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type BlobConfig struct {
	Driver        string        `yaml:"driver" env:"BLOB_DRIVER" env-default:"local"`
	LocalDir      string        `yaml:"local_dir" env:"BLOB_LOCAL_DIR" env-default:"storage/blobs"`
	PublicBaseURL string        `yaml:"public_base_url" env:"BLOB_PUBLIC_BASE_URL" env-default:"http://localhost:8082"`
	URLTTL        time.Duration `yaml:"url_ttl" env-default:"15m"`
	S3            S3Config      `yaml:"s3"`
}

type S3Config struct {
	Bucket    string `yaml:"bucket" env:"S3_BUCKET"`
	Region    string `yaml:"region" env:"S3_REGION"`
	Endpoint  string `yaml:"endpoint" env:"S3_ENDPOINT"`
	AccessKey string `yaml:"access_key" env:"S3_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"S3_SECRET_KEY"`
}

type LiveConfig struct {
	NotifyChannel string `yaml:"notify_channel" env-default:"hodatay_groups_changes"`
}

type MessagesConfig struct {
	EnforceGroupExists bool `yaml:"enforce_group_exists" json:"enforce_group_exists"`
	ResolveConcurrency int  `yaml:"resolve_concurrency" env-default:"8" json:"-"`
}

type UploadsConfig struct {
	MaxImageSize      int64 `yaml:"max_image_size" env-default:"10485760" json:"max_image_size"`
	CompensateOrphans bool  `yaml:"compensate_orphans" json:"-"`
}

// Load reads the YAML file at path and applies environment overrides.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	return cfg
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case StorageSQLite, StoragePostgres:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	switch c.Blob.Driver {
	case BlobLocal:
	case BlobS3:
		if c.Blob.S3.Bucket == "" {
			return fmt.Errorf("blob.s3.bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("unknown blob driver %q", c.Blob.Driver)
	}

	return nil
}
