package main

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/agidash/agidash/internal/api"
	"github.com/agidash/agidash/internal/bot"
	"github.com/agidash/agidash/internal/ingest"
	"github.com/agidash/agidash/internal/pubsub"
	"github.com/agidash/agidash/internal/repo"
	"github.com/agidash/agidash/internal/scheduler"
	"github.com/agidash/agidash/pkg/environment"
	"github.com/agidash/agidash/pkg/errors"
)

type Config struct {
	Environment environment.Env  `yaml:"Environment"`
	Mongo       repo.Config      `yaml:"Mongo"`
	API         api.Config       `yaml:"API"`
	Telegram    bot.Config       `yaml:"Telegram"`
	Ingest      ingest.Config    `yaml:"Ingest"`
	StagingDir  string           `yaml:"StagingDir"`
	Scheduler   scheduler.Config `yaml:"Scheduler"`
	Kafka       pubsub.Config    `yaml:"Kafka"`

	Detect struct {
		Hazard float64 `yaml:"hazard"`
	} `yaml:"Detect"`

	Secrets Secrets `yaml:"-"`
}

// Secrets come from the environment, never from the config file.
type Secrets struct {
	PolyAPI        string `env:"POLY_API"`
	SlackWebhook   string `env:"SLACK_WEBHOOK"`
	TelegramToken  string `env:"TELEGRAM_TOKEN"`
	CongressAPIKey string `env:"CONGRESS_API_KEY"`
}

func loadConfig() (*Config, error) {
	path, err := filepath.Abs("config.yaml")
	if err != nil {
		return nil, errors.WrapFail(err, "build path to config")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapFail(err, "read \"config.yaml\"")
	}

	var cfg Config
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, errors.WrapFail(err, "parse yaml")
	}

	err = env.Parse(&cfg.Secrets)
	if err != nil {
		return nil, errors.WrapFail(err, "parse env secrets")
	}

	cfg.Telegram.Token = cfg.Secrets.TelegramToken
	cfg.Ingest.Markets.APIKey = cfg.Secrets.PolyAPI
	cfg.Ingest.Legislation.APIKey = cfg.Secrets.CongressAPIKey

	if cfg.StagingDir == "" {
		cfg.StagingDir = "data/staging"
	}

	if envFromFlags := getEnvFromFlags(); envFromFlags != nil {
		cfg.Environment = *envFromFlags
	}

	return &cfg, nil
}

func getEnvFromFlags() *environment.Env {
	raw := flag.String("env", "", "environment (dev, prod)")
	flag.Parse()
	if raw == nil || *raw == "" {
		return nil
	}

	env := environment.FromString(*raw)
	return &env
}
