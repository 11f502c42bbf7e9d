package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"finstress/internal/chat"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

const envPrefix = "FINSTRESS_"

type Application struct {
	Port         string `koanf:"port"`
	SecureCookie bool   `koanf:"securecookie"`
	DB           DB     `koanf:"db"`
	Log          Log    `koanf:"log"`
	Chat         Chat   `koanf:"chat"`
}

type DB struct {
	Path string `koanf:"path"`
}

type Log struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type Chat struct {
	URL         string        `koanf:"url"`
	APIKey      string        `koanf:"apikey"`
	Model       string        `koanf:"model"`
	Temperature float64       `koanf:"temperature"`
	MaxTokens   int           `koanf:"maxtokens"`
	Timeout     time.Duration `koanf:"timeout"`
}

// ClientConfig converts the chat section for chat.NewClient.
func (c Chat) ClientConfig() chat.Config {
	return chat.Config{
		EndpointURL: c.URL,
		APIKey:      c.APIKey,
		Model:       c.Model,
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
		Timeout:     c.Timeout,
	}
}

func defaults() Application {
	return Application{
		Port: "8080",
		DB:   DB{Path: "finstress.db"},
		Log:  Log{Level: "info", Format: "text"},
		Chat: Chat{
			URL:         "https://api.openai.com/v1/chat/completions",
			Model:       "gpt-3.5-turbo",
			Temperature: 0.7,
			MaxTokens:   500,
		},
	}
}

// Load reads defaults, then the optional YAML file at path, then FINSTRESS_*
// environment variables. A .env file in the working directory is loaded first.
func Load(path string) (Application, error) {
	// Optional in production.
	_ = godotenv.Load()

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return Application{}, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return Application{}, fmt.Errorf("load config file %s: %w", path, err)
			}
			log.Debugf("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Infof("Loaded configuration from file: %s", path)
		}
	}

	err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, envPrefix)), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		return Application{}, fmt.Errorf("load environment: %w", err)
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	// Deployment platforms commonly inject PORT.
	if port := os.Getenv("PORT"); port != "" && os.Getenv(envPrefix+"PORT") == "" {
		app.Port = port
	}
	return app, nil
}

// Validate reports configuration problems. Chat settings are checked by the
// chat client so that a missing key only disables the assistant.
func (a Application) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(a.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", a.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if a.DB.Path == "" {
		problems = append(problems, "database path cannot be empty")
	} else if dir := filepath.Dir(a.DB.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			problems = append(problems, fmt.Sprintf("cannot create database directory '%s': %v", dir, err))
		}
	}

	if _, err := log.ParseLevel(a.Log.Level); err != nil {
		problems = append(problems, fmt.Sprintf("invalid log level '%s'", a.Log.Level))
	}
	if a.Log.Format != "text" && a.Log.Format != "json" {
		problems = append(problems, fmt.Sprintf("invalid log format '%s': must be text or json", a.Log.Format))
	}
	if a.Chat.Timeout < 0 {
		problems = append(problems, "chat timeout cannot be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// SetupLogging configures the global logrus logger.
func (a Application) SetupLogging() {
	level, err := log.ParseLevel(a.Log.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if a.Log.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
