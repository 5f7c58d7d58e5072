package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envPrefix is the prefix for all environment variables consumed by the
// application, e.g. VIVA_SERVER_PORT or VIVA_DATABASE_URL.
const envPrefix = "VIVA"

// Load reads configuration from an optional config.yaml in the working
// directory and from VIVA_* environment variables, with environment variables
// taking precedence. The resulting Config is validated before being returned.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; environment variables may carry
		// the full configuration. Any other read error is fatal.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers defaults for every known key. Registering a default
// is also what makes viper see the corresponding environment variable during
// Unmarshal, so every key must appear here even when its default is empty.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout_seconds", 15)

	v.SetDefault("database.url", "")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_lifetime_minutes", 60)
	v.SetDefault("auth.refresh_token_lifetime_minutes", 10080)
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.timeout_seconds", 30)

	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.base_url", "https://api.deepinfra.com/v1/openai")
	v.SetDefault("embedding.model", "sentence-transformers/all-mpnet-base-v2")
	v.SetDefault("embedding.dimensions", 768)
	v.SetDefault("embedding.timeout_seconds", 10)

	v.SetDefault("exam.part_one_attempts", 3)
	v.SetDefault("exam.part_two_attempts", 1)
	v.SetDefault("exam.part_three_attempts", 4)
}
