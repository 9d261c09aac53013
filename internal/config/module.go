package config

import (
	"github.com/go-core-fx/fiberfx"
	"github.com/modelsync/modelsync/internal/journal"
	"github.com/modelsync/modelsync/internal/orchestrator"
	"github.com/modelsync/modelsync/internal/session"
	"github.com/modelsync/modelsync/internal/vcs"
	"github.com/modelsync/modelsync/pkg/badgerfx"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"config",
		fx.Provide(New),
		fx.Provide(func(cfg Config) fiberfx.Config {
			return fiberfx.Config{
				Address:     cfg.HTTP.Address,
				ProxyHeader: cfg.HTTP.ProxyHeader,
				Proxies:     cfg.HTTP.Proxies,
			}
		}),
		fx.Provide(func(cfg Config) badgerfx.Config {
			return badgerfx.Config{
				Dir:        cfg.Storage.DataDir,
				InMemory:   cfg.Storage.InMemory,
				GCInterval: cfg.Storage.GCInterval,
			}
		}),
		fx.Provide(func(cfg Config) vcs.Config {
			return vcs.Config{
				DefaultBranch: cfg.Git.DefaultBranch,
				Author: vcs.Signature{
					Name:  cfg.Git.Author.Name,
					Email: cfg.Git.Author.Email,
				},
				Timeout: cfg.Git.Timeout,
			}
		}),
		fx.Provide(func(cfg Config) orchestrator.Config {
			return orchestrator.Config{
				Path:             cfg.Repository.Path,
				CommitMessage:    cfg.Repository.CommitMessage,
				SaveDirty:        cfg.Repository.SaveDirty,
				ConflictStrategy: orchestrator.Strategy(cfg.Repository.ConflictStrategy),
				Credentials: vcs.Credentials{
					Username:       cfg.Git.Auth.Username,
					Password:       cfg.Git.Auth.Password,
					PrivateKeyPath: cfg.Git.Auth.PrivateKeyPath,
					Passphrase:     cfg.Git.Auth.Passphrase,
				},
				EventHistory: cfg.Repository.EventHistory,
			}
		}),
		fx.Provide(func(cfg Config) session.Config {
			return session.Config{
				ModelName: cfg.Session.ModelName,
				Snapshots: cfg.Session.Snapshots,
			}
		}),
		fx.Provide(func(cfg Config) journal.Config {
			return journal.Config{
				Retain: cfg.Journal.Retain,
			}
		}),
	)
}
