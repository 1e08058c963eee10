package config

import "time"

// Config holds all application configuration, organized into logical groups.
type Config struct {
	App      AppConfig      `mapstructure:"app" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Study    StudyConfig    `mapstructure:"study" validate:"required"`
	SRS      SRSConfig      `mapstructure:"srs" validate:"required"`
	Audio    AudioConfig    `mapstructure:"audio"`
}

// AppConfig contains process-level settings.
type AppConfig struct {
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig selects and configures the persistence backend.
type DatabaseConfig struct {
	// Driver is "sqlite" for the embedded single-user store or "postgres"
	// for a server deployment.
	Driver string `mapstructure:"driver" validate:"required,oneof=sqlite postgres"`

	// DSN is the driver-specific connection string: a file path for
	// sqlite, a connection URL for postgres.
	DSN string `mapstructure:"dsn" validate:"required"`
}

// StudyConfig carries the default study policy limits.
type StudyConfig struct {
	NewWordsLimit int `mapstructure:"new_words_limit" validate:"required,gt=0,lte=500"`
	ReviewLimit   int `mapstructure:"review_limit" validate:"required,gt=0,lte=1000"`
}

// SRSConfig carries the forgetting-curve scheduler settings. Zero values
// fall back to the scheduler's defaults.
type SRSConfig struct {
	// DesiredRetention is the target recall probability (e.g. 0.9).
	DesiredRetention float64 `mapstructure:"desired_retention" validate:"gte=0,lte=1"`

	// MaximumIntervalDays caps computed review intervals.
	MaximumIntervalDays int `mapstructure:"maximum_interval_days" validate:"gte=0"`

	// LearningSteps and RelearningSteps are bounded step sequences.
	LearningSteps   []time.Duration `mapstructure:"learning_steps"`
	RelearningSteps []time.Duration `mapstructure:"relearning_steps"`

	// DisableFuzzing turns off the randomized jitter applied to computed
	// intervals to avoid synchronized review spikes.
	DisableFuzzing bool `mapstructure:"disable_fuzzing"`
}

// AudioConfig carries the audio sequencer timing settings and the external
// text-to-speech command it plays through.
type AudioConfig struct {
	Auto              bool          `mapstructure:"auto"`
	RevealDelay       time.Duration `mapstructure:"reveal_delay" validate:"gte=0"`
	RateDelay         time.Duration `mapstructure:"rate_delay" validate:"gte=0"`
	WordSentencePause time.Duration `mapstructure:"word_sentence_pause" validate:"gte=0"`

	// TTSCommand and TTSArgs configure the playback program; "{lang}" in
	// an argument is replaced with the word's language code.
	TTSCommand string   `mapstructure:"tts_command"`
	TTSArgs    []string `mapstructure:"tts_args"`

	// Voices lists language codes the program has voices for. Empty means
	// all languages.
	Voices []string `mapstructure:"voices"`
}
