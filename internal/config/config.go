package config

import (
	"os"
	"path"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	Private Private
}

// Duration lets yaml fields carry human-readable values like "24h".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type Public struct {
	ListenAddr string `yaml:"listen_addr"`
	// BaseUrl is the root every minted retrieval URL is composed from,
	// e.g. "http://127.0.0.1:8080/v1". Passed explicitly, never derived
	// from the request.
	BaseUrl   string `yaml:"base_url"`
	MediaRoot string `yaml:"media_root"`

	AllowedOrigins       []string `yaml:"allowed_origins"`
	MaxUploadSizeBytes   int64    `yaml:"max_upload_size_bytes"`
	MaxDecodedSizeBytes  int64    `yaml:"max_decoded_size_bytes"`
	JwtTTL               Duration `yaml:"jwt_ttl"`
	ReaperInterval       Duration `yaml:"reaper_interval"`
	ReaperSafetyInterval Duration `yaml:"reaper_safety_interval"`

	LogLevel string `yaml:"log_level"`
	LogJSON  bool   `yaml:"log_json"`
}

type Private struct {
	JwtKey string `yaml:"jwt_key"`
	Pg     Pg     `yaml:"pg"`
}

type Pg struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Dbname   string `yaml:"dbname"`
}

func mustLoadPath(configPath string, output interface{}) {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file")
	}

	err = yaml.Unmarshal(configFile, output)
	if err != nil {
		panic("can't unmarshal config file")
	}
}

func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	cfg := &Config{public, private}
	cfg.applyDefaults()

	// Minted URLs are composed from BaseUrl once and persisted; there is no
	// sane default and an empty value would silently mint relative URLs.
	if cfg.Public.BaseUrl == "" {
		panic("base_url must be set in public.yaml")
	}
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Public.ListenAddr == "" {
		c.Public.ListenAddr = ":8080"
	}
	if c.Public.MediaRoot == "" {
		c.Public.MediaRoot = "media"
	}
	if c.Public.MaxUploadSizeBytes == 0 {
		c.Public.MaxUploadSizeBytes = 32 << 20
	}
	if c.Public.MaxDecodedSizeBytes == 0 {
		c.Public.MaxDecodedSizeBytes = 128 << 20
	}
	if c.Public.JwtTTL == 0 {
		c.Public.JwtTTL = Duration(24 * time.Hour)
	}
	if c.Public.ReaperInterval == 0 {
		c.Public.ReaperInterval = Duration(time.Hour)
	}
	if c.Public.ReaperSafetyInterval == 0 {
		c.Public.ReaperSafetyInterval = Duration(30 * time.Minute)
	}
	if c.Public.LogLevel == "" {
		c.Public.LogLevel = "info"
	}
}
