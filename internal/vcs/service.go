package vcs

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/config"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/transport"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

type Service struct {
	config Config
	logger *zap.Logger
}

// NewService creates a new Service.
func NewService(config Config, logger *zap.Logger) *Service {
	if config.DefaultBranch == "" {
		config.DefaultBranch = "main"
	}

	return &Service{
		config: config,
		logger: logger,
	}
}

// DefaultBranch returns the branch new repositories are created on.
func (s *Service) DefaultBranch() string {
	return s.config.DefaultBranch
}

// Exists reports whether path holds a repository.
func (s *Service) Exists(path string) bool {
	_, err := git.PlainOpen(path)
	return err == nil
}

// Open opens the repository at path.
func (s *Service) Open(path string) (*Repository, error) {
	repo, err := git.PlainOpen(path)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("%w: %s", ErrRepositoryNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRepository, err)
	}

	return newRepository(path, repo, s.config, s.logger), nil
}

// Init creates an empty repository at path with origin pointing at remoteURL.
// The default branch is left unborn until the first commit.
func (s *Service) Init(path, remoteURL string) (*Repository, error) {
	s.logger.Info("initializing repository",
		zap.String("path", path),
		zap.String("url", remoteURL))

	if s.Exists(path) {
		return nil, fmt.Errorf("%w: %s", ErrRepositoryAlreadyExists, path)
	}

	repo, err := git.PlainInit(path, false,
		git.WithDefaultBranch(plumbing.NewBranchReferenceName(s.config.DefaultBranch)))
	if err != nil {
		s.logger.Error("failed to initialize repository", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrInvalidRepository, err)
	}

	if remoteURL != "" {
		if remErr := addOrigin(repo, remoteURL); remErr != nil {
			s.logger.Error("failed to add remote", zap.Error(remErr))
			return nil, fmt.Errorf("%w: %w", ErrInvalidRepository, remErr)
		}
	}

	s.logger.Info("repository initialized",
		zap.String("path", path),
		zap.String("branch", s.config.DefaultBranch))

	return newRepository(path, repo, s.config, s.logger), nil
}

// Clone clones a repository to the specified directory. Without a branch the
// remote HEAD is checked out. Cloning a remote without history is not an
// error: the result is an empty repository whose origin points at the remote.
func (s *Service) Clone(ctx context.Context, req CloneRequest) (*Repository, error) {
	s.logger.Info("cloning repository",
		zap.String("url", req.URL),
		zap.String("directory", req.Directory),
		zap.String("branch", lo.CoalesceOrEmpty(req.Branch, "HEAD")))

	// Check if directory already exists
	if entries, statErr := os.ReadDir(req.Directory); statErr == nil && len(entries) > 0 {
		return nil, fmt.Errorf("%w: directory %s already exists", ErrRepositoryAlreadyExists, req.Directory)
	}

	auth, err := req.Credentials.AuthMethod()
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	opts := &git.CloneOptions{
		URL:        req.URL,
		Auth:       auth,
		RemoteName: RemoteName,
	}
	if req.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(req.Branch)
	}

	repo, err := git.PlainCloneContext(ctx, req.Directory, opts)
	if errors.Is(err, transport.ErrEmptyRemoteRepository) {
		s.logger.Info("remote has no history, initializing empty repository",
			zap.String("url", req.URL))
		_ = os.RemoveAll(req.Directory)
		return s.Init(req.Directory, req.URL)
	}
	if err != nil {
		s.logger.Error("failed to clone repository", zap.Error(err))
		_ = os.RemoveAll(req.Directory)
		return nil, fmt.Errorf("%w: %w", ErrCloneFailed, mapTransportError(err))
	}

	if req.Branch == "" {
		if recErr := recordDefaultBranch(repo); recErr != nil {
			s.logger.Warn("failed to record default branch", zap.Error(recErr))
		}
	}

	s.logger.Info("repository cloned successfully",
		zap.String("url", req.URL),
		zap.String("directory", req.Directory))

	return newRepository(req.Directory, repo, s.config, s.logger), nil
}

// Remove deletes the repository and its working directory.
func (s *Service) Remove(path string) error {
	s.logger.Info("removing repository", zap.String("path", path))

	if !s.Exists(path) {
		return fmt.Errorf("%w: %s", ErrRepositoryNotFound, path)
	}
	if err := os.RemoveAll(path); err != nil {
		s.logger.Error("failed to remove repository", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrCleanupFailed, err)
	}

	s.logger.Info("repository removed", zap.String("path", path))

	return nil
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.config.Timeout)
}

func addOrigin(repo *git.Repository, url string) error {
	_, err := repo.CreateRemote(&config.RemoteConfig{
		Name:  RemoteName,
		URLs:  []string{url},
		Fetch: []config.RefSpec{fetchSpec()},
	})
	return err
}

func fetchSpec() config.RefSpec {
	return config.RefSpec(fmt.Sprintf("+refs/heads/*:refs/remotes/%s/*", RemoteName))
}

// recordDefaultBranch stores the checked-out branch of a fresh clone, which
// is the branch the remote HEAD named, as the repository default branch.
func recordDefaultBranch(repo *git.Repository) error {
	head, err := repo.Head()
	if err != nil {
		return err
	}
	if !head.Name().IsBranch() {
		return nil
	}

	cfg, err := repo.Config()
	if err != nil {
		return err
	}
	cfg.Init.DefaultBranch = head.Name().Short()
	return repo.SetConfig(cfg)
}
