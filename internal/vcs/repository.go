package vcs

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/config"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/go-git/go-git/v6/plumbing/transport"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Repository binds one working directory to one clone. It is not safe for
// concurrent use; callers serialize access.
type Repository struct {
	path   string
	repo   *git.Repository
	fs     afero.Fs
	config Config
	logger *zap.Logger

	pending *pendingMerge
}

func newRepository(path string, repo *git.Repository, config Config, logger *zap.Logger) *Repository {
	// A clone records the branch the remote HEAD pointed at.
	if cfg, err := repo.Config(); err == nil && cfg.Init.DefaultBranch != "" {
		config.DefaultBranch = cfg.Init.DefaultBranch
	}

	return &Repository{
		path:   path,
		repo:   repo,
		fs:     afero.NewBasePathFs(afero.NewOsFs(), path),
		config: config,
		logger: logger.With(zap.String("repository", path)),
	}
}

// Path returns the working directory.
func (r *Repository) Path() string {
	return r.path
}

// FS returns the working directory as a filesystem rooted at Path.
func (r *Repository) FS() afero.Fs {
	return r.fs
}

// BranchName returns the checked-out branch, even when it has no commits yet.
func (r *Repository) BranchName() (string, error) {
	head, err := r.repo.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidRepository, err)
	}
	if head.Type() == plumbing.SymbolicReference {
		return head.Target().Short(), nil
	}
	// Detached
	return head.Hash().String(), nil
}

// RemoteURL returns the URL of origin, or an empty string when there is none.
func (r *Repository) RemoteURL() (string, error) {
	remote, err := r.repo.Remote(RemoteName)
	if errors.Is(err, git.ErrRemoteNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidRepository, err)
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", nil
	}
	return urls[0], nil
}

// Head returns the HEAD commit, or plumbing.ZeroHash on an unborn branch.
func (r *Repository) Head() (plumbing.Hash, error) {
	head, err := r.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return plumbing.ZeroHash, nil
	}
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("%w: %w", ErrInvalidRepository, err)
	}
	return head.Hash(), nil
}

// ResolveRef resolves a revision (branch, remote branch, tag or hash) to a commit.
func (r *Repository) ResolveRef(name string) (plumbing.Hash, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(name))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("%w: %s", ErrRefNotFound, name)
	}
	return *hash, nil
}

// HasRef reports whether name resolves to a commit.
func (r *Repository) HasRef(name string) bool {
	_, err := r.ResolveRef(name)
	return err == nil
}

// RemoteBranchRef returns the remote-tracking ref of the current branch.
func (r *Repository) RemoteBranchRef() (string, error) {
	branch, err := r.BranchName()
	if err != nil {
		return "", err
	}
	return plumbing.NewRemoteReferenceName(RemoteName, branch).String(), nil
}

// HasChangesToCommit reports whether the working tree differs from HEAD,
// untracked files included.
func (r *Repository) HasChangesToCommit() (bool, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrInvalidRepository, err)
	}
	status, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("failed to get status: %w", err)
	}
	return !status.IsClean(), nil
}

// HasUnpushedCommits reports whether HEAD holds commits the remote branch lacks.
func (r *Repository) HasUnpushedCommits() (bool, error) {
	local, remote, err := r.tips()
	if err != nil || local.IsZero() {
		return false, err
	}
	if remote.IsZero() {
		return true, nil
	}
	contained, err := r.isAncestor(local, remote)
	return !contained, err
}

// HasRemoteCommits reports whether the remote branch holds commits HEAD lacks.
func (r *Repository) HasRemoteCommits() (bool, error) {
	local, remote, err := r.tips()
	if err != nil || remote.IsZero() {
		return false, err
	}
	if local.IsZero() {
		return true, nil
	}
	contained, err := r.isAncestor(remote, local)
	return !contained, err
}

// IsHeadAndRemoteSame reports whether HEAD equals the remote branch tip.
func (r *Repository) IsHeadAndRemoteSame() (bool, error) {
	local, remote, err := r.tips()
	if err != nil {
		return false, err
	}
	return local == remote, nil
}

func (r *Repository) tips() (plumbing.Hash, plumbing.Hash, error) {
	local, err := r.Head()
	if err != nil {
		return plumbing.ZeroHash, plumbing.ZeroHash, err
	}
	remoteRef, err := r.RemoteBranchRef()
	if err != nil {
		return plumbing.ZeroHash, plumbing.ZeroHash, err
	}
	remote, err := r.ResolveRef(remoteRef)
	if errors.Is(err, ErrRefNotFound) {
		return local, plumbing.ZeroHash, nil
	}
	return local, remote, err
}

// isAncestor reports whether a is reachable from b (a == b included).
func (r *Repository) isAncestor(a, b plumbing.Hash) (bool, error) {
	if a == b {
		return true, nil
	}
	ca, err := r.repo.CommitObject(a)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrInvalidRepository, err)
	}
	cb, err := r.repo.CommitObject(b)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrInvalidRepository, err)
	}
	return ca.IsAncestor(cb)
}

// Branches lists local and remote-tracking branches merged by name.
func (r *Repository) Branches() ([]BranchInfo, error) {
	current, err := r.BranchName()
	if err != nil {
		return nil, err
	}

	refs, err := r.repo.References()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRepository, err)
	}

	byName := make(map[string]*BranchInfo)
	get := func(name string) *BranchInfo {
		if b, ok := byName[name]; ok {
			return b
		}
		b := &BranchInfo{
			Name:      name,
			IsCurrent: name == current,
			IsDefault: name == r.config.DefaultBranch,
		}
		byName[name] = b
		return b
	}

	remotePrefix := RemoteName + "/"
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		switch {
		case ref.Name().IsBranch():
			b := get(ref.Name().Short())
			b.HasLocal = true
			b.Hash = ref.Hash().String()
		case ref.Name().IsRemote() && strings.HasPrefix(ref.Name().Short(), remotePrefix):
			name := strings.TrimPrefix(ref.Name().Short(), remotePrefix)
			if name == "HEAD" {
				return nil
			}
			b := get(name)
			b.HasRemote = true
			b.RemoteHash = ref.Hash().String()
			if b.Hash == "" {
				b.Hash = b.RemoteHash
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRepository, err)
	}

	branches := lo.Map(lo.Values(byName), func(b *BranchInfo, _ int) BranchInfo { return *b })
	sortBranches(branches)

	return branches, nil
}

// CanDeleteBranch reports whether name may be deleted: never the default
// branch, never the checked-out branch.
func (r *Repository) CanDeleteBranch(name string) bool {
	if name == "" || name == r.config.DefaultBranch {
		return false
	}
	current, err := r.BranchName()
	if err != nil {
		return false
	}
	return name != current
}

// Commit stages every change in the working tree, deletions included, and
// commits it. With amend the HEAD commit is replaced.
func (r *Repository) Commit(message string, amend bool) (plumbing.Hash, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("%w: %w", ErrInvalidRepository, err)
	}

	if addErr := wt.AddWithOptions(&git.AddOptions{All: true}); addErr != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to stage changes: %w", addErr)
	}

	user, err := r.UserDetails()
	if err != nil {
		return plumbing.ZeroHash, err
	}

	opts := &git.CommitOptions{
		All:    true,
		Amend:  amend,
		Author: signature(user),
	}
	if r.pending != nil && !amend {
		opts.Parents = []plumbing.Hash{r.pending.ours, r.pending.theirs}
	}

	hash, err := wt.Commit(message, opts)
	if errors.Is(err, git.ErrEmptyCommit) {
		return plumbing.ZeroHash, ErrNothingToCommit
	}
	if err != nil {
		r.logger.Error("failed to commit", zap.Error(err))
		return plumbing.ZeroHash, fmt.Errorf("failed to commit: %w", err)
	}
	r.pending = nil

	r.logger.Info("changes committed",
		zap.String("hash", hash.String()),
		zap.Bool("amend", amend))

	return hash, nil
}

// Fetch updates the remote-tracking branches from origin.
func (r *Repository) Fetch(ctx context.Context, auth transport.AuthMethod) (FetchStatus, error) {
	r.logger.Info("fetching from remote")

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	err := r.repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: RemoteName,
		RefSpecs:   []config.RefSpec{fetchSpec()},
		Auth:       auth,
		Force:      true,
	})
	switch {
	case err == nil:
		r.logger.Info("fetched from remote")
		return FetchUpdated, nil
	case errors.Is(err, git.NoErrAlreadyUpToDate):
		r.logger.Info("remote is up to date")
		return FetchUpToDate, nil
	default:
		mapped := mapTransportError(err)
		if !errors.Is(mapped, ErrNoRemoteHistory) {
			r.logger.Error("failed to fetch", zap.Error(err))
		}
		return FetchUpToDate, mapped
	}
}

// Pull fetches and merges the remote branch into HEAD.
func (r *Repository) Pull(ctx context.Context, auth transport.AuthMethod) (*MergeResult, error) {
	if _, err := r.Fetch(ctx, auth); err != nil {
		return nil, err
	}
	remoteRef, err := r.RemoteBranchRef()
	if err != nil {
		return nil, err
	}
	return r.Merge(ctx, remoteRef)
}

// Push pushes the current branch to origin and updates its remote-tracking ref.
func (r *Repository) Push(ctx context.Context, auth transport.AuthMethod) error {
	branch, err := r.BranchName()
	if err != nil {
		return err
	}
	head, err := r.Head()
	if err != nil {
		return err
	}
	if head.IsZero() {
		return fmt.Errorf("%w: %s has no commits", ErrBranchNotFound, branch)
	}

	r.logger.Info("pushing to remote", zap.String("branch", branch))

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	refName := plumbing.NewBranchReferenceName(branch)
	err = r.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: RemoteName,
		RefSpecs:   []config.RefSpec{config.RefSpec(fmt.Sprintf("%s:%s", refName, refName))},
		Auth:       auth,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		r.logger.Error("failed to push", zap.Error(err))
		return mapTransportError(err)
	}

	tracking := plumbing.NewHashReference(plumbing.NewRemoteReferenceName(RemoteName, branch), head)
	if setErr := r.repo.Storer.SetReference(tracking); setErr != nil {
		return fmt.Errorf("failed to update remote-tracking branch: %w", setErr)
	}

	r.logger.Info("pushed to remote",
		zap.String("branch", branch),
		zap.String("hash", head.String()))

	return nil
}

// DeleteRemoteBranch deletes name on origin and its remote-tracking ref.
func (r *Repository) DeleteRemoteBranch(ctx context.Context, auth transport.AuthMethod, name string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	refName := plumbing.NewBranchReferenceName(name)
	err := r.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: RemoteName,
		RefSpecs:   []config.RefSpec{config.RefSpec(":" + refName.String())},
		Auth:       auth,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		r.logger.Error("failed to delete remote branch", zap.String("branch", name), zap.Error(err))
		return mapTransportError(err)
	}

	if rmErr := r.repo.Storer.RemoveReference(plumbing.NewRemoteReferenceName(RemoteName, name)); rmErr != nil {
		return fmt.Errorf("failed to remove remote-tracking branch: %w", rmErr)
	}
	return nil
}

// ResetHard moves the current branch to ref, overwrites the working tree and
// removes untracked files. Any merge in progress is abandoned.
func (r *Repository) ResetHard(ref string) error {
	hash, err := r.ResolveRef(ref)
	if err != nil {
		return err
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRepository, err)
	}

	if resetErr := wt.Reset(&git.ResetOptions{Commit: hash, Mode: git.HardReset}); resetErr != nil {
		r.logger.Error("failed to reset", zap.String("ref", ref), zap.Error(resetErr))
		return fmt.Errorf("failed to reset to %s: %w", ref, resetErr)
	}
	if cleanErr := wt.Clean(&git.CleanOptions{Dir: true}); cleanErr != nil {
		return fmt.Errorf("failed to remove untracked files: %w", cleanErr)
	}
	r.pending = nil

	r.logger.Info("reset to ref",
		zap.String("ref", ref),
		zap.String("hash", hash.String()))

	return nil
}

// CreateBranch creates name at HEAD without checking it out.
func (r *Repository) CreateBranch(name string) error {
	head, err := r.Head()
	if err != nil {
		return err
	}
	if head.IsZero() {
		return fmt.Errorf("%w: HEAD has no commits", ErrRefNotFound)
	}

	refName := plumbing.NewBranchReferenceName(name)
	if _, refErr := r.repo.Reference(refName, false); refErr == nil {
		return fmt.Errorf("%w: %s", ErrBranchAlreadyExists, name)
	}

	if setErr := r.repo.Storer.SetReference(plumbing.NewHashReference(refName, head)); setErr != nil {
		return fmt.Errorf("failed to create branch %s: %w", name, setErr)
	}

	r.logger.Info("branch created", zap.String("branch", name))
	return nil
}

// CheckoutBranch switches to name. A local branch is created from the
// remote-tracking branch when only the latter exists.
func (r *Repository) CheckoutBranch(name string) error {
	if r.pending != nil {
		return ErrMergeInProgress
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRepository, err)
	}

	local := plumbing.NewBranchReferenceName(name)
	if _, refErr := r.repo.Reference(local, false); refErr != nil {
		remote, remErr := r.repo.Reference(plumbing.NewRemoteReferenceName(RemoteName, name), false)
		if remErr != nil {
			return fmt.Errorf("%w: %s", ErrBranchNotFound, name)
		}
		if setErr := r.repo.Storer.SetReference(plumbing.NewHashReference(local, remote.Hash())); setErr != nil {
			return fmt.Errorf("failed to create branch %s: %w", name, setErr)
		}
		cfgErr := r.repo.CreateBranch(&config.Branch{
			Name:   name,
			Remote: RemoteName,
			Merge:  local,
		})
		if cfgErr != nil && !errors.Is(cfgErr, git.ErrBranchExists) {
			return fmt.Errorf("failed to track branch %s: %w", name, cfgErr)
		}
	}

	err = wt.Checkout(&git.CheckoutOptions{Branch: local})
	if errors.Is(err, git.ErrUnstagedChanges) {
		return ErrUncommittedChanges
	}
	if err != nil {
		r.logger.Error("failed to checkout branch", zap.String("branch", name), zap.Error(err))
		return fmt.Errorf("failed to checkout %s: %w", name, err)
	}
	if cleanErr := wt.Clean(&git.CleanOptions{Dir: true}); cleanErr != nil {
		return fmt.Errorf("failed to remove untracked files: %w", cleanErr)
	}

	r.logger.Info("branch checked out", zap.String("branch", name))
	return nil
}

// DeleteBranch deletes the local branch name.
func (r *Repository) DeleteBranch(name string) error {
	if !r.CanDeleteBranch(name) {
		return fmt.Errorf("%w: %s", ErrCannotDeleteBranch, name)
	}

	refName := plumbing.NewBranchReferenceName(name)
	if _, err := r.repo.Reference(refName, false); err != nil {
		return fmt.Errorf("%w: %s", ErrBranchNotFound, name)
	}
	if err := r.repo.Storer.RemoveReference(refName); err != nil {
		return fmt.Errorf("failed to delete branch %s: %w", name, err)
	}
	if err := r.repo.DeleteBranch(name); err != nil && !errors.Is(err, git.ErrBranchNotFound) {
		return fmt.Errorf("failed to delete branch config %s: %w", name, err)
	}

	r.logger.Info("branch deleted", zap.String("branch", name))
	return nil
}

// UserDetails returns the commit identity: repository config first, then the
// global git config, then the configured default.
func (r *Repository) UserDetails() (UserDetails, error) {
	user := UserDetails{
		Name:  r.config.Author.Name,
		Email: r.config.Author.Email,
	}

	if global, err := r.repo.ConfigScoped(config.GlobalScope); err == nil {
		user.Name = lo.CoalesceOrEmpty(global.User.Name, user.Name)
		user.Email = lo.CoalesceOrEmpty(global.User.Email, user.Email)
	}

	local, err := r.repo.Config()
	if err != nil {
		return user, fmt.Errorf("%w: %w", ErrInvalidRepository, err)
	}
	user.Name = lo.CoalesceOrEmpty(local.User.Name, user.Name)
	user.Email = lo.CoalesceOrEmpty(local.User.Email, user.Email)

	return user, nil
}

// SaveUserDetails stores the commit identity in the repository config.
func (r *Repository) SaveUserDetails(user UserDetails) error {
	cfg, err := r.repo.Config()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRepository, err)
	}

	cfg.User.Name = user.Name
	cfg.User.Email = user.Email

	if setErr := r.repo.SetConfig(cfg); setErr != nil {
		return fmt.Errorf("failed to save user details: %w", setErr)
	}
	return nil
}

func (r *Repository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.config.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.config.Timeout)
}

func sortBranches(branches []BranchInfo) {
	slices.SortFunc(branches, func(a, b BranchInfo) int { return strings.Compare(a.Name, b.Name) })
}

func signature(user UserDetails) *object.Signature {
	return &object.Signature{
		Name:  user.Name,
		Email: user.Email,
		When:  time.Now(),
	}
}

// mapTransportError folds go-git transport errors into this package's
// taxonomy. Context errors are kept so callers can tell cancellation apart.
func mapTransportError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, transport.ErrEmptyRemoteRepository):
		return fmt.Errorf("%w: %w", ErrNoRemoteHistory, err)
	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed):
		return fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
	case errors.Is(err, git.ErrNonFastForwardUpdate),
		strings.Contains(err.Error(), "non-fast-forward update"):
		return fmt.Errorf("%w: %w", ErrPushRejected, err)
	default:
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
}
