package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Constants for upload settings
const (
	defaultPort       = 3000
	defaultMaxSize    = 50.0 // MiB
	defaultCodeLength = 6
	defaultUploadPath = "./uploads"
	defaultSQLitePath = "./data/uploader.db"
)

// Config represents the application configuration
type Config struct {
	Port       int     `mapstructure:"port"`        // HTTP listen port
	UploadPath string  `mapstructure:"upload_path"` // Path to uploaded files
	SQLitePath string  `mapstructure:"sqlite_path"` // Path to the SQLite database
	MaxSize    float64 `mapstructure:"max_size_mib"` // Maximum file size in MiB
	CodeLength int     `mapstructure:"code_length"` // Length of generated short codes
	BaseURL    string  `mapstructure:"base_url"`    // Base URL for links; derived from the request host when empty
}

// LoadConfig loads configuration from config.yaml (if present), environment
// variables prefixed with UPLOADER_, and built-in defaults, in that order of
// precedence.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetDefault("port", defaultPort)
	v.SetDefault("upload_path", defaultUploadPath)
	v.SetDefault("sqlite_path", defaultSQLitePath)
	v.SetDefault("max_size_mib", defaultMaxSize)
	v.SetDefault("code_length", defaultCodeLength)
	v.SetDefault("base_url", "")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvPrefix("uploader")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// A missing config file is fine, defaults and env cover everything
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MaxSizeToBytes returns the maximum upload size in bytes.
func (c *Config) MaxSizeToBytes() int64 {
	return int64(c.MaxSize * 1024 * 1024)
}
