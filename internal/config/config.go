package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingAPIBaseURL is returned when no problem API endpoint is configured.
var ErrMissingAPIBaseURL = errors.New("missing problem API base URL (set KIKITORI_API)")

// Course is one selectable slice of the problem pool.
type Course struct {
	Label      string `mapstructure:"label"`
	Difficulty string `mapstructure:"difficulty"`
	Length     string `mapstructure:"length"`
}

// Config holds application configuration loaded from an optional config
// file, a .env file, and environment variables.
type Config struct {
	Env          string        `mapstructure:"env"`             // local, dev, production
	APIBaseURL   string        `mapstructure:"-"`               // problem API endpoint, from environment
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`   // per-request timeout for batch fetches
	LogPath      string        `mapstructure:"log_path"`        // log file ("" = stderr)
	Courses      []Course      `mapstructure:"courses"`         // selectable courses
	AutoAdvance  time.Duration `mapstructure:"auto_advance"`    // feedback dwell in rapid mode
}

// DefaultCourses is the built-in course list used when the config file
// defines none.
func DefaultCourses() []Course {
	return []Course{
		{Label: "Short & Easy", Difficulty: "easy", Length: "short"},
		{Label: "Everyday Conversation", Difficulty: "normal", Length: "medium"},
		{Label: "Long Listening", Difficulty: "normal", Length: "long"},
		{Label: "Challenge", Difficulty: "hard", Length: "long"},
	}
}

// Load reads configuration from config files and environment variables.
func Load() (*Config, error) {
	// Pick up a local .env if present; absence is fine.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath("$HOME/.config/kikitori")

	v.SetDefault("env", "local")
	v.SetDefault("fetch_timeout", "15s")
	v.SetDefault("auto_advance", "1500ms")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("api_base_url", "KIKITORI_API")
	_ = v.BindEnv("env", "APP_ENV")
	_ = v.BindEnv("log_path", "KIKITORI_LOG")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	cfg.APIBaseURL = v.GetString("api_base_url")
	if cfg.APIBaseURL == "" {
		return nil, ErrMissingAPIBaseURL
	}

	if len(cfg.Courses) == 0 {
		cfg.Courses = DefaultCourses()
	}

	return &cfg, nil
}
