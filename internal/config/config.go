package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPort     = 3000
	DefaultDataFile = "orders.json"

	StorageFile     = "file"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Registry RegistryConfig `yaml:"registry"`
	Catalog  []Product      `yaml:"catalog"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port           int    `yaml:"port"`
	PublicDir      string `yaml:"public_dir"`
	AllowAnyOrigin bool   `yaml:"allow_any_origin"`
	SendBuffer     int    `yaml:"send_buffer"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Key      string `yaml:"key"`
}

type RabbitMQConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Exchange string `yaml:"exchange"`
}

type KafkaConfig struct {
	Enabled bool   `yaml:"enabled"`
	Brokers string `yaml:"brokers"`
	Topic   string `yaml:"topic"`
}

type RegistryConfig struct {
	// strict | legacy
	TransitionPolicy string `yaml:"transition_policy"`
}

type Product struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Price int64  `yaml:"price"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads the YAML file at path. A missing file yields the defaults so the
// board can start with nothing but a PORT.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse yaml: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.fillDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Default() *Config {
	cfg := &Config{}
	cfg.fillDefaults()
	return cfg
}

// LocalServerURL is the websocket endpoint of a server running on this host
// with the same config, PORT override included.
func (c *Config) LocalServerURL() string {
	return fmt.Sprintf("ws://localhost:%d/ws", c.Server.Port)
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	return nil
}

func (c *Config) fillDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.PublicDir == "" {
		c.Server.PublicDir = "public"
	}
	if c.Server.SendBuffer == 0 {
		c.Server.SendBuffer = 64
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = StorageFile
	}
	if c.Storage.Path == "" {
		c.Storage.Path = DefaultDataFile
	}
	if c.Redis.Key == "" {
		c.Redis.Key = "stall:orders"
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "order_events_fanout"
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "stall.order-events"
	}
	if c.Registry.TransitionPolicy == "" {
		c.Registry.TransitionPolicy = "strict"
	}
	if len(c.Catalog) == 0 {
		c.Catalog = []Product{
			{ID: "A", Name: "Item A", Price: 100},
			{ID: "B", Name: "Item B", Price: 100},
			{ID: "C", Name: "Item C", Price: 200},
		}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be 1-65535, got %d", c.Server.Port)
	}
	switch c.Storage.Driver {
	case StorageFile, StoragePostgres, StorageRedis:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Registry.TransitionPolicy {
	case "strict", "legacy":
	default:
		return fmt.Errorf("unknown transition policy %q", c.Registry.TransitionPolicy)
	}
	seen := make(map[string]bool, len(c.Catalog))
	for _, p := range c.Catalog {
		if p.ID == "" || seen[p.ID] {
			return fmt.Errorf("catalog product ids must be unique and non-empty")
		}
		seen[p.ID] = true
	}
	return nil
}
