package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		// Driver is "sqlite" (default, embedded) or "postgres".
		Driver   string `yaml:"driver"`
		Path     string `yaml:"path"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Cache struct {
		Path string `yaml:"path"`
	} `yaml:"cache"`

	Screenshots struct {
		// Backend is "filesystem" (default) or "minio".
		Backend string `yaml:"backend"`
		Dir     string `yaml:"dir"`
		Minio   struct {
			Endpoint   string `yaml:"endpoint"`
			AccessKey  string `yaml:"accessKey"`
			SecretKey  string `yaml:"secretKey"`
			BucketName string `yaml:"bucketName"`
			Region     string `yaml:"region"`
			UseSSL     bool   `yaml:"useSSL"`
		} `yaml:"minio"`
	} `yaml:"screenshots"`

	Browser struct {
		// Headless defaults to true when unset.
		Headless         *bool `yaml:"headless"`
		NavTimeoutSecs   int   `yaml:"navTimeoutSeconds"`
		SettleDelayMilli int   `yaml:"settleDelayMillis"`
	} `yaml:"browser"`

	Scanner struct {
		Model          string `yaml:"model"`
		ValidatorModel string `yaml:"validatorModel"`
	} `yaml:"scanner"`
}

// Load reads the yaml config file and fills in defaults. API keys and the
// superuser token are not part of the file; they come from the
// environment (OPENAI_API_KEY, GOOGLE_API_KEY, DEBUG_TOKEN).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Path == "" {
		c.Database.Path = "local_user_data/pagelint.db"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Cache.Path == "" {
		c.Cache.Path = "local_user_data/cache.db"
	}
	if c.Screenshots.Backend == "" {
		c.Screenshots.Backend = "filesystem"
	}
	if c.Screenshots.Dir == "" {
		c.Screenshots.Dir = "local_user_data/screenshots"
	}
	if c.Browser.NavTimeoutSecs == 0 {
		c.Browser.NavTimeoutSecs = 60
	}
	if c.Browser.SettleDelayMilli == 0 {
		c.Browser.SettleDelayMilli = 1500
	}
	if c.Scanner.Model == "" {
		c.Scanner.Model = "gpt-4o"
	}
	if c.Scanner.ValidatorModel == "" {
		c.Scanner.ValidatorModel = "gpt-4o"
	}
}

// NavTimeout bounds page navigation only; the run as a whole has no
// overall timeout.
func (c *Config) NavTimeout() time.Duration {
	return time.Duration(c.Browser.NavTimeoutSecs) * time.Second
}

func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.Browser.SettleDelayMilli) * time.Millisecond
}

func (c *Config) BrowserHeadless() bool {
	return c.Browser.Headless == nil || *c.Browser.Headless
}

// PostgresDSN builds the lib/pq connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
