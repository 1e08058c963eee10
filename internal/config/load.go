// Package config loads and validates application configuration from
// environment variables and an optional config file. Environment variables
// take precedence over file values.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envPrefix is the prefix for configuration environment variables, e.g.
// LEXIQ_DATABASE_DSN overrides database.dsn.
const envPrefix = "LEXIQ"

// Load reads configuration from the environment and an optional config.yaml
// in the working directory, applies defaults, and validates the result.
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
		// A missing config file is fine; the environment and defaults
		// carry the configuration then.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			fields := make([]string, 0, len(validationErrs))
			for _, fe := range validationErrs {
				fields = append(fields, fe.Namespace())
			}
			return nil, fmt.Errorf(
				"invalid configuration (fields: %s): %w",
				strings.Join(fields, ", "),
				err,
			)
		}
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}

	return &cfg, nil
}

// setDefaults installs the defaults applied before file and environment
// values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.log_level", "info")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "lexiq.db")
	v.SetDefault("study.new_words_limit", 10)
	v.SetDefault("study.review_limit", 100)
	v.SetDefault("srs.desired_retention", 0.9)
	v.SetDefault("srs.maximum_interval_days", 365)
	v.SetDefault("audio.reveal_delay", "3s")
	v.SetDefault("audio.rate_delay", "2s")
	v.SetDefault("audio.word_sentence_pause", "800ms")
	v.SetDefault("audio.tts_command", "espeak-ng")
	v.SetDefault("audio.tts_args", []string{"-v", "{lang}"})
}
