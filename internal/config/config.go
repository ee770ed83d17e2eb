// internal/config/config.go
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	PanelBaseURL       string `mapstructure:"PANEL_BASE_URL"`
	TelegramBotToken   string `mapstructure:"TELEGRAM_BOT_TOKEN"`
	AllowedUserIDs     string `mapstructure:"ALLOWED_USER_IDS"`
	LogLevel           string `mapstructure:"LOG_LEVEL"`
	HTTPTimeoutSeconds int    `mapstructure:"HTTP_TIMEOUT_SECONDS"`
	// --- Admin status API ---
	APIPort string `mapstructure:"API_PORT"`
	APIKey  string `mapstructure:"API_KEY"`
	GinMode string `mapstructure:"GIN_MODE"`
	// -------------------------
}

var AppConfig Config

func LoadConfig() error {
	viper.SetConfigFile(".env") // Look for .env file
	viper.AutomaticEnv()        // Read from environment variables as fallback/override

	// --- Set Defaults ---
	viper.SetDefault("PANEL_BASE_URL", "https://api.7inet.com.cn")
	viper.SetDefault("TELEGRAM_BOT_TOKEN", "")
	viper.SetDefault("ALLOWED_USER_IDS", "")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("HTTP_TIMEOUT_SECONDS", 30)
	viper.SetDefault("API_PORT", "8080")
	viper.SetDefault("API_KEY", "")
	viper.SetDefault("GIN_MODE", "release")

	err := viper.ReadInConfig()
	// Ignore if .env file not found, rely on defaults/env vars
	if _, ok := err.(viper.ConfigFileNotFoundError); !ok && err != nil {
		return err
	}

	err = viper.Unmarshal(&AppConfig)
	if err != nil {
		return err
	}

	return nil
}

// HTTPTimeout returns the panel request timeout as a duration.
func (c *Config) HTTPTimeout() time.Duration {
	if c.HTTPTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// AllowedIDs parses the comma-separated ALLOWED_USER_IDS value into
// Telegram user IDs. An empty value yields an empty list (nobody allowed).
func (c *Config) AllowedIDs() ([]int64, error) {
	if strings.TrimSpace(c.AllowedUserIDs) == "" {
		return nil, nil
	}
	parts := strings.Split(c.AllowedUserIDs, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user id '%s' in ALLOWED_USER_IDS: %w", p, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
