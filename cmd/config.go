package main

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds all service configuration
type Config struct {
	// Basic service settings
	HTTPAddress string

	// Google OAuth configuration
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string

	// Storage backends; empty values fall back to in-memory stores (dev mode)
	DatabaseURL   string
	RedisAddress  string
	RedisPassword string
}

// LoadConfig loads configuration from files and environment variables
func LoadConfig() (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// Configure environment variables - do this BEFORE reading config
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set up explicit mappings between struct fields and environment variables
	envMappings := map[string]string{
		"HTTPAddress":        "HTTP_ADDRESS",
		"GoogleClientID":     "GOOGLE_CLIENT_ID",
		"GoogleClientSecret": "GOOGLE_CLIENT_SECRET",
		"GoogleRedirectURI":  "GOOGLE_REDIRECT_URI",
		"DatabaseURL":        "DATABASE_URL",
		"RedisAddress":       "REDIS_ADDRESS",
		"RedisPassword":      "REDIS_PASSWORD",
	}

	for configKey, envVar := range envMappings {
		if err := v.BindEnv(configKey, envVar); err != nil {
			log.Warn().Err(err).Msgf("Failed to bind environment variable %s for %s", envVar, configKey)
		}
	}

	// Configure the config file settings
	v.SetConfigName("reviewpilot_config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("$HOME/.reviewpilot")

	// Try to read from config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Debug().Msg("Config file not found, using environment variables and defaults")
	} else {
		log.Info().Msgf("Using config file: %s", v.ConfigFileUsed())
	}

	// Unmarshal config into struct
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if config.GoogleClientID == "" || config.GoogleClientSecret == "" {
		// The consent endpoints reject calls until these are set; the rest
		// of the API still works, so this is a warning rather than a fatal.
		log.Warn().Msg("GOOGLE_CLIENT_ID / GOOGLE_CLIENT_SECRET not set, Google connection is disabled")
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server settings
	v.SetDefault("HTTPAddress", ":8080")
}
