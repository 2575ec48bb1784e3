package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"quiz-service/internal/app"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // text or json
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Session struct {
		IdleTimeout string `yaml:"idle_timeout"` // 0 keeps sessions until they leave
	} `yaml:"session"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		QuestionsFile    string `yaml:"questions_file"`
		QuestionBank     string `yaml:"question_bank"`
		BankTTL          string `yaml:"bank_ttl"`
		Duration         string `yaml:"duration"`
		QuestionsPerGame int    `yaml:"questions_per_game"`
		BonusTime        struct {
			Enabled bool `yaml:"enabled"`
			Seconds int  `yaml:"seconds"`
		} `yaml:"bonus_time"`
	} `yaml:"quiz"`
	Leaderboard struct {
		SavePath string `yaml:"save_path"`
	} `yaml:"leaderboard"`
	Dashboard struct {
		Password string `yaml:"password"`
		Secret   string `yaml:"secret"`
		TokenTTL string `yaml:"token_ttl"`
	} `yaml:"dashboard"`
	Metrics struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"metrics"`
}

// Default returns the configuration used for keys missing from the file.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	cfg.Redis.Prefix = "quiz"
	cfg.Session.IdleTimeout = "30m"
	cfg.Quiz.QuestionsFile = "config/questions.yaml"
	cfg.Quiz.QuestionBank = "default"
	cfg.Quiz.Duration = "60s"
	cfg.Quiz.QuestionsPerGame = -1
	cfg.Quiz.BonusTime.Seconds = 30
	cfg.Leaderboard.SavePath = "data/leaderboard.yaml"
	cfg.Dashboard.TokenTTL = "12h"
	cfg.Metrics.Enabled = true
	return cfg
}

// Load reads YAML config from path on top of Default.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Settings converts the quiz section into game settings.
func (c Config) Settings() app.Settings {
	return app.Settings{
		Duration:         TTLDuration(c.Quiz.Duration, app.DefaultDuration),
		BonusTimeEnabled: c.Quiz.BonusTime.Enabled,
		BonusTime:        time.Duration(max(0, c.Quiz.BonusTime.Seconds)) * time.Second,
		QuestionsPerGame: c.Quiz.QuestionsPerGame,
	}
}

// SessionIdleTimeout is how long an untouched session lives.
func (c Config) SessionIdleTimeout() time.Duration {
	return TTLDuration(c.Session.IdleTimeout, 30*time.Minute)
}

// LogLevel parses log.level, falling back to info.
func (c Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.Log.Level))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
