package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-core-fx/config"
	"github.com/go-playground/validator/v10"
)

type http struct {
	Address     string   `koanf:"address"      validate:"required"`
	ProxyHeader string   `koanf:"proxy_header"`
	Proxies     []string `koanf:"proxies"`
}

type storageConfig struct {
	DataDir    string        `koanf:"data_dir"    validate:"required_without=InMemory"`
	InMemory   bool          `koanf:"in_memory"`
	GCInterval time.Duration `koanf:"gc_interval" validate:"min=0"`
}

type repositoryConfig struct {
	Path             string `koanf:"path"              validate:"required"`
	CommitMessage    string `koanf:"commit_message"    validate:"required"`
	SaveDirty        bool   `koanf:"save_dirty"`
	ConflictStrategy string `koanf:"conflict_strategy" validate:"oneof=cancel ours theirs"`
	EventHistory     int    `koanf:"event_history"     validate:"gte=0"`
}

type gitAuthorConfig struct {
	Name  string `koanf:"name"`
	Email string `koanf:"email" validate:"omitempty,email"`
}

type gitAuthConfig struct {
	Username       string `koanf:"username"`
	Password       string `koanf:"password"`
	PrivateKeyPath string `koanf:"private_key_path" validate:"omitempty,file"`
	Passphrase     string `koanf:"passphrase"`
}

type gitConfig struct {
	DefaultBranch string          `koanf:"default_branch" validate:"required"`
	Timeout       time.Duration   `koanf:"timeout"        validate:"gte=0"`
	Author        gitAuthorConfig `koanf:"author"`
	Auth          gitAuthConfig   `koanf:"auth"`
}

type sessionConfig struct {
	ModelName string `koanf:"model_name"`
	Snapshots int    `koanf:"snapshots"  validate:"gte=0"`
}

type journalConfig struct {
	Retain int `koanf:"retain" validate:"gte=0"`
}

type Config struct {
	HTTP http `koanf:"http"`

	Storage    storageConfig    `koanf:"storage"`
	Repository repositoryConfig `koanf:"repository"`
	Git        gitConfig        `koanf:"git"`
	Session    sessionConfig    `koanf:"session"`
	Journal    journalConfig    `koanf:"journal"`
}

func Default() Config {
	//nolint:exhaustruct,mnd //default values
	return Config{
		HTTP: http{
			Address:     "127.0.0.1:3000",
			ProxyHeader: "X-Forwarded-For",
			Proxies:     []string{},
		},

		Storage: storageConfig{
			DataDir:    "./data",
			GCInterval: 10 * time.Minute,
		},

		Repository: repositoryConfig{
			Path:             "./model",
			CommitMessage:    "Model changes",
			SaveDirty:        true,
			ConflictStrategy: "cancel",
			EventHistory:     100,
		},

		Git: gitConfig{
			DefaultBranch: "main",
			Timeout:       2 * time.Minute,
		},

		Session: sessionConfig{
			ModelName: "Model",
			Snapshots: 10,
		},

		Journal: journalConfig{
			Retain: 500,
		},
	}
}

func New() (Config, error) {
	cfg := Default()

	options := []config.Option{}
	if yamlPath := os.Getenv("CONFIG_PATH"); yamlPath != "" {
		options = append(options, config.WithLocalYAML(yamlPath))
	}

	if err := config.Load(&cfg, options...); err != nil {
		return Config{}, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(validator.New()); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the loaded values.
func (c Config) Validate(v *validator.Validate) error {
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
