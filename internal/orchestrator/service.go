package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/transport"
	"github.com/google/uuid"
	"github.com/modelsync/modelsync/internal/grafico"
	"github.com/modelsync/modelsync/internal/model"
	"github.com/modelsync/modelsync/internal/resolver"
	"github.com/modelsync/modelsync/internal/vcs"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	mergeMessage    = "Merged with remote"
	restoredHeading = "Restored objects:"
	initialMessage  = "Initial commit"
	repairMessage   = "Restored missing objects"
)

// Service runs the synchronization pipelines of one working directory. At
// most one pipeline runs at a time.
type Service struct {
	config      Config
	vcs         *vcs.Service
	store       ModelStore
	credentials CredentialProvider
	notifier    Notifier
	recorder    Recorder
	metrics     *Metrics
	logger      *zap.Logger

	mu sync.Mutex
}

func NewService(
	config Config,
	vcsService *vcs.Service,
	store ModelStore,
	credentials CredentialProvider,
	notifier Notifier,
	recorder Recorder,
	metrics *Metrics,
	logger *zap.Logger,
) *Service {
	if config.CommitMessage == "" {
		config.CommitMessage = "Model changes"
	}

	return &Service{
		config:      config,
		vcs:         vcsService,
		store:       store,
		credentials: credentials,
		notifier:    notifier,
		recorder:    recorder,
		metrics:     metrics,
		logger:      logger,
	}
}

// Path returns the working directory the service is bound to.
func (s *Service) Path() string {
	return s.config.Path
}

type run struct {
	result *Result
	auth   transport.AuthMethod
	logger *zap.Logger
}

func (r *run) to(state State) {
	r.result.State = state
	r.result.Transitions = append(r.result.Transitions, state)
	r.logger.Debug("pipeline state", zap.String("state", string(state)))
}

func (r *run) commit(hash plumbing.Hash) {
	r.result.Commits = append(r.result.Commits, hash.String())
}

func (s *Service) execute(ctx context.Context, op Operation, fn func(context.Context, *run) error) (*Result, error) {
	release, err := s.acquire()
	if err != nil {
		s.logger.Info("pipeline rejected", zap.String("operation", string(op)), zap.Error(err))
		return nil, err
	}
	defer release()
	defer s.store.Hold()()

	id := uuid.Must(uuid.NewV7()).String()
	r := &run{
		result: &Result{
			ID:         id,
			Operation:  op,
			Repository: s.config.Path,
			StartedAt:  time.Now(),
		},
		logger: s.logger.With(zap.String("operation", string(op)), zap.String("run", id)),
	}
	r.to(StateInit)

	r.logger.Info("pipeline started", zap.String("path", s.config.Path))

	err = fn(ctx, r)
	r.result.FinishedAt = time.Now()

	if err != nil {
		r.result.State = StateFailed
		r.logger.Error("pipeline failed",
			zap.Strings("transitions", lo.Map(r.result.Transitions, func(s State, _ int) string { return string(s) })),
			zap.Error(err))
	} else {
		r.logger.Info("pipeline finished",
			zap.String("state", string(r.result.State)),
			zap.Int("commits", len(r.result.Commits)),
			zap.Int("restored", len(r.result.Restored)))
	}

	s.metrics.observe(r.result)
	if s.recorder != nil {
		if recErr := s.recorder.Record(context.WithoutCancel(ctx), r.result, err); recErr != nil {
			r.logger.Warn("failed to record run", zap.Error(recErr))
		}
	}

	return r.result, err
}

// Refresh saves and exports the model, commits local changes, then fetches
// and merges the remote branch, repairing references the merge left
// dangling, and reloads the model from the merged files.
func (s *Service) Refresh(ctx context.Context, opts Options) (*Result, error) {
	return s.execute(ctx, OperationRefresh, func(ctx context.Context, r *run) error {
		repo, err := s.open()
		if err != nil {
			return err
		}

		cancelled, err := s.refresh(ctx, r, repo, opts)
		if err != nil {
			return err
		}
		if cancelled {
			s.cancelled(r)
			return nil
		}

		s.notify(r, EventHistoryChanged)
		r.to(StateDone)
		return nil
	})
}

// Publish refreshes and then pushes the branch to the remote.
func (s *Service) Publish(ctx context.Context, opts Options) (*Result, error) {
	return s.execute(ctx, OperationPublish, func(ctx context.Context, r *run) error {
		repo, err := s.open()
		if err != nil {
			return err
		}

		cancelled, err := s.refresh(ctx, r, repo, opts)
		if err != nil {
			return err
		}
		if cancelled {
			s.cancelled(r)
			return nil
		}

		unpushed, err := repo.HasUnpushedCommits()
		if err != nil {
			return err
		}
		if unpushed {
			if pushErr := repo.Push(ctx, r.auth); pushErr != nil {
				return s.vcsError(ctx, pushErr)
			}
		}

		s.notify(r, EventHistoryChanged)
		r.to(StateDone)
		return nil
	})
}

// refresh runs the shared part of Refresh and Publish. It reports true when
// the operator declined the merge and the branch was reset.
func (s *Service) refresh(ctx context.Context, r *run, repo *vcs.Repository, opts Options) (bool, error) {
	if err := s.guard(repo); err != nil {
		return false, err
	}
	if err := s.exportAndCommit(ctx, r, repo, opts); err != nil {
		return false, err
	}
	if err := s.authenticate(ctx, r, repo, opts); err != nil {
		return false, err
	}

	preMerge, err := repo.Head()
	if err != nil {
		return false, err
	}
	r.result.PreMerge = preMerge.String()

	if _, fetchErr := repo.Fetch(ctx, r.auth); fetchErr != nil {
		if errors.Is(fetchErr, vcs.ErrNoRemoteHistory) {
			r.to(StateFetched)
			r.to(StateUpToDate)
			return false, nil
		}
		if ctx.Err() != nil {
			return false, s.rollback(r, repo, preMerge, ctx.Err())
		}
		return false, s.vcsError(ctx, fetchErr)
	}
	r.to(StateFetched)

	remoteRef, err := repo.RemoteBranchRef()
	if err != nil {
		return false, err
	}

	merge, err := repo.Merge(ctx, remoteRef)
	switch {
	case errors.Is(err, vcs.ErrNoRemoteHistory):
		r.to(StateUpToDate)
		return false, nil
	case err != nil && ctx.Err() != nil:
		return false, s.rollback(r, repo, preMerge, ctx.Err())
	case err != nil:
		return false, s.vcsError(ctx, err)
	}

	switch merge.Status {
	case vcs.MergeUpToDate:
		r.to(StateUpToDate)
		return false, nil
	case vcs.MergeFastForward:
		r.to(StateMerged)
	case vcs.MergeMerged:
		r.to(StateMerged)
		r.commit(merge.Commit)
	case vcs.MergeConflicting:
		r.to(StateConflicting)
		r.result.Conflicts = toConflicts(merge.Conflicts)
		r.to(StateResolving)

		choices, proceed := s.operator(opts).ResolveConflicts(ctx, r.result.Conflicts)
		if ctx.Err() != nil {
			return false, s.rollback(r, repo, preMerge, ctx.Err())
		}
		if !proceed {
			r.to(StateCancelled)
			if resetErr := repo.ResetHard(preMerge.String()); resetErr != nil {
				return false, resetErr
			}
			return true, nil
		}

		hash, completeErr := repo.CompleteMerge(choices, "")
		if completeErr != nil {
			return false, completeErr
		}
		r.commit(hash)
		r.to(StateResolved)
	}

	m, err := s.reimport(ctx, r, repo)
	if err != nil {
		if ctx.Err() != nil {
			return false, s.rollback(r, repo, preMerge, ctx.Err())
		}
		return false, err
	}

	return false, s.finish(ctx, r, repo, m, mergeMessage)
}

// Clone clones url into the working directory and loads its model. A remote
// without history yields a new empty model.
func (s *Service) Clone(ctx context.Context, url string, opts Options) (*Result, error) {
	return s.execute(ctx, OperationClone, func(ctx context.Context, r *run) error {
		if s.vcs.Exists(s.config.Path) {
			return fmt.Errorf("%w: %s", vcs.ErrRepositoryAlreadyExists, s.config.Path)
		}

		creds, err := s.credentialsFor(ctx, url, opts)
		if err != nil {
			return err
		}
		r.to(StateAuthenticated)

		repo, err := s.vcs.Clone(ctx, vcs.CloneRequest{
			URL:         url,
			Directory:   s.config.Path,
			Credentials: creds,
		})
		if err != nil {
			return s.vcsError(ctx, err)
		}
		r.to(StateFetched)

		m, err := s.reimport(ctx, r, repo)
		if errors.Is(err, grafico.ErrModelNotFound) {
			m = model.New(uuid.Must(uuid.NewV7()).String(), modelName(url))
			if expErr := grafico.NewExporter(repo.FS(), r.logger).Export(m); expErr != nil {
				return fmt.Errorf("%w: %w", ErrSerialization, expErr)
			}
			r.to(StateExported)
			return s.finish(ctx, r, repo, m, initialMessage, EventRepositoryChanged)
		}
		if err != nil {
			return err
		}

		return s.finish(ctx, r, repo, m, repairMessage, EventRepositoryChanged)
	})
}

// CreateFromModel creates a repository from the session model, commits it
// and pushes it to url. The local repository is removed if the push fails.
func (s *Service) CreateFromModel(ctx context.Context, url string, opts Options) (*Result, error) {
	return s.execute(ctx, OperationCreateFromModel, func(ctx context.Context, r *run) error {
		if s.vcs.Exists(s.config.Path) {
			return fmt.Errorf("%w: %s", vcs.ErrRepositoryAlreadyExists, s.config.Path)
		}

		repo, err := s.vcs.Init(s.config.Path, url)
		if err != nil {
			return err
		}

		err = s.createFromModel(ctx, r, repo, opts)
		if err != nil {
			if rmErr := s.vcs.Remove(s.config.Path); rmErr != nil {
				r.logger.Warn("failed to remove repository", zap.Error(rmErr))
			}
			return err
		}

		s.notify(r, EventRepositoryChanged)
		r.to(StateDone)
		return nil
	})
}

func (s *Service) createFromModel(ctx context.Context, r *run, repo *vcs.Repository, opts Options) error {
	if opts.Message == "" {
		opts.Message = initialMessage
	}
	if err := s.exportAndCommit(ctx, r, repo, opts); err != nil {
		return err
	}
	if err := s.authenticate(ctx, r, repo, opts); err != nil {
		return err
	}
	if err := repo.Push(ctx, r.auth); err != nil {
		return s.vcsError(ctx, err)
	}
	return nil
}

// CheckoutBranch commits pending changes, switches to name and reloads the
// model from it.
func (s *Service) CheckoutBranch(ctx context.Context, name string, opts Options) (*Result, error) {
	return s.execute(ctx, OperationCheckoutBranch, func(ctx context.Context, r *run) error {
		repo, err := s.open()
		if err != nil {
			return err
		}
		if guardErr := s.guard(repo); guardErr != nil {
			return guardErr
		}
		if expErr := s.exportAndCommit(ctx, r, repo, opts); expErr != nil {
			return expErr
		}

		if coErr := repo.CheckoutBranch(name); coErr != nil {
			if errors.Is(coErr, vcs.ErrBranchNotFound) {
				return fmt.Errorf("%w: branch %s", ErrNotFound, name)
			}
			return coErr
		}

		m, err := s.reimport(ctx, r, repo)
		if err != nil {
			return err
		}

		return s.finish(ctx, r, repo, m, repairMessage, EventHistoryChanged)
	})
}

// DeleteBranch deletes name locally and on the remote.
func (s *Service) DeleteBranch(ctx context.Context, name string, opts Options) (*Result, error) {
	return s.execute(ctx, OperationDeleteBranch, func(ctx context.Context, r *run) error {
		repo, err := s.open()
		if err != nil {
			return err
		}
		if !repo.CanDeleteBranch(name) {
			return fmt.Errorf("%w: %s", ErrCannotDeleteBranch, name)
		}

		branches, err := repo.Branches()
		if err != nil {
			return err
		}
		branch, ok := lo.Find(branches, func(b vcs.BranchInfo) bool { return b.Name == name })
		if !ok {
			return fmt.Errorf("%w: branch %s", ErrNotFound, name)
		}

		if branch.HasLocal {
			if delErr := repo.DeleteBranch(name); delErr != nil {
				return delErr
			}
		}
		if branch.HasRemote {
			if authErr := s.authenticate(ctx, r, repo, opts); authErr != nil {
				return authErr
			}
			if delErr := repo.DeleteRemoteBranch(ctx, r.auth, name); delErr != nil {
				return s.vcsError(ctx, delErr)
			}
		}

		s.notify(r, EventHistoryChanged)
		r.to(StateDone)
		return nil
	})
}

// DeleteRepository removes the working directory and its clone.
func (s *Service) DeleteRepository(ctx context.Context) (*Result, error) {
	return s.execute(ctx, OperationDeleteRepository, func(_ context.Context, r *run) error {
		if err := s.vcs.Remove(s.config.Path); err != nil {
			if errors.Is(err, vcs.ErrRepositoryNotFound) {
				return fmt.Errorf("%w: %w", ErrNotFound, err)
			}
			return err
		}

		s.notify(r, EventRepositoryDeleted)
		r.to(StateDone)
		return nil
	})
}

// Reset moves the branch to ref, HEAD when empty, discards every uncommitted
// change and reloads the model. It is the way out of a refresh whose merge
// could not be repaired.
func (s *Service) Reset(ctx context.Context, ref string) (*Result, error) {
	return s.execute(ctx, OperationReset, func(ctx context.Context, r *run) error {
		repo, err := s.open()
		if err != nil {
			return err
		}

		ref = lo.CoalesceOrEmpty(ref, plumbing.HEAD.String())
		if resetErr := repo.ResetHard(ref); resetErr != nil {
			if errors.Is(resetErr, vcs.ErrRefNotFound) {
				return fmt.Errorf("%w: %w", ErrNotFound, resetErr)
			}
			return resetErr
		}

		m, err := s.reimport(ctx, r, repo)
		if err != nil {
			return err
		}

		return s.finish(ctx, r, repo, m, repairMessage, EventHistoryChanged)
	})
}

// Status reads the repository state without taking the pipeline lock.
func (s *Service) Status(_ context.Context) (*RepositoryState, error) {
	repo, err := s.open()
	if err != nil {
		return nil, err
	}

	state := &RepositoryState{Path: repo.Path()}

	if state.Branch, err = repo.BranchName(); err != nil {
		return nil, err
	}
	if state.RemoteURL, err = repo.RemoteURL(); err != nil {
		return nil, err
	}
	head, err := repo.Head()
	if err != nil {
		return nil, err
	}
	if !head.IsZero() {
		state.Head = head.String()
	}
	if state.Dirty, err = repo.HasChangesToCommit(); err != nil {
		return nil, err
	}
	if state.Checksum, _, err = grafico.LoadChecksum(repo.FS()); err != nil {
		return nil, err
	}
	if state.ChecksumValid, err = grafico.VerifyChecksum(repo.FS()); err != nil {
		return nil, err
	}
	if state.UnpushedCommits, err = repo.HasUnpushedCommits(); err != nil {
		return nil, err
	}
	if state.RemoteCommits, err = repo.HasRemoteCommits(); err != nil {
		return nil, err
	}

	return state, nil
}

// Branches lists local and remote branches.
func (s *Service) Branches(_ context.Context) ([]vcs.BranchInfo, error) {
	repo, err := s.open()
	if err != nil {
		return nil, err
	}
	return repo.Branches()
}

// History lists up to limit commits of the current branch, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]vcs.CommitInfo, error) {
	repo, err := s.open()
	if err != nil {
		return nil, err
	}
	head, err := repo.Head()
	if err != nil || head.IsZero() {
		return nil, err
	}
	return repo.History(ctx, head.String(), limit)
}

// UserDetails returns the identity that authors the commits of this
// working directory.
func (s *Service) UserDetails(_ context.Context) (vcs.UserDetails, error) {
	repo, err := s.open()
	if err != nil {
		return vcs.UserDetails{}, err
	}
	return repo.UserDetails()
}

// SetUserDetails stores the commit identity in the repository config. It
// takes the pipeline lock so a running pipeline keeps one author.
func (s *Service) SetUserDetails(_ context.Context, user vcs.UserDetails) error {
	release, err := s.acquire()
	if err != nil {
		return err
	}
	defer release()

	repo, err := s.open()
	if err != nil {
		return err
	}
	if err := repo.SaveUserDetails(user); err != nil {
		return err
	}

	s.logger.Info("user details saved", zap.String("name", user.Name), zap.String("email", user.Email))
	return nil
}

func (s *Service) open() (*vcs.Repository, error) {
	repo, err := s.vcs.Open(s.config.Path)
	if errors.Is(err, vcs.ErrRepositoryNotFound) {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return repo, err
}

// guard refuses to run on a working tree whose model files no longer match
// the checksum of the last export.
func (s *Service) guard(repo *vcs.Repository) error {
	ok, err := grafico.VerifyChecksum(repo.FS())
	if err != nil {
		return err
	}
	if !ok {
		return ErrWorkingTreeModified
	}
	return nil
}

func (s *Service) operator(opts Options) Operator {
	if opts.Operator != nil {
		return opts.Operator
	}
	return PolicyOperator{
		SaveDirty: s.config.SaveDirty,
		Strategy:  s.config.ConflictStrategy,
	}
}

// exportAndCommit saves pending edits, exports the model and commits the
// result when it differs from HEAD.
func (s *Service) exportAndCommit(ctx context.Context, r *run, repo *vcs.Repository, opts Options) error {
	if s.store.IsDirty() {
		if !s.operator(opts).ConfirmSave(ctx) {
			return ErrSaveDeclined
		}
		if err := s.store.Save(ctx); err != nil {
			return fmt.Errorf("failed to save model: %w", err)
		}
	}

	if err := grafico.NewExporter(repo.FS(), r.logger).Export(s.store.Model()); err != nil {
		return fmt.Errorf("%w: %w", ErrSerialization, err)
	}
	if _, err := grafico.SaveChecksum(repo.FS()); err != nil {
		return err
	}
	r.to(StateExported)

	dirty, err := repo.HasChangesToCommit()
	if err != nil || !dirty {
		return err
	}

	message := lo.CoalesceOrEmpty(opts.Message, s.config.CommitMessage)
	hash, err := repo.Commit(message, false)
	if err != nil {
		return err
	}
	r.commit(hash)

	return nil
}

func (s *Service) authenticate(ctx context.Context, r *run, repo *vcs.Repository, opts Options) error {
	url, err := repo.RemoteURL()
	if err != nil {
		return err
	}

	creds, err := s.credentialsFor(ctx, url, opts)
	if err != nil {
		return err
	}
	if r.auth, err = creds.AuthMethod(); err != nil {
		return fmt.Errorf("%w: %w", ErrAuthentication, err)
	}

	r.to(StateAuthenticated)
	return nil
}

func (s *Service) credentialsFor(ctx context.Context, url string, opts Options) (vcs.Credentials, error) {
	if opts.Credentials != nil {
		return *opts.Credentials, nil
	}
	if s.credentials == nil {
		return vcs.Credentials{}, nil
	}

	creds, err := s.credentials.Credentials(ctx, url)
	if err != nil {
		return vcs.Credentials{}, fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	return creds, nil
}

// reimport reads the model back from the working tree, restoring missing
// objects from history. Unrepaired references fail the run.
func (s *Service) reimport(ctx context.Context, r *run, repo *vcs.Repository) (*model.Model, error) {
	importer := grafico.NewImporter(repo.FS(), r.logger)

	m, problems, err := importer.Import()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerialization, err)
	}
	if len(problems) == 0 {
		return m, nil
	}

	head, err := repo.Head()
	if err != nil {
		return nil, err
	}

	handler := resolver.New(repo, repo.FS(), importer, r.logger)
	for _, p := range problems {
		handler.AddProblem(p)
	}

	m, err = handler.Resolve(ctx, head.String())
	switch {
	case err != nil && ctx.Err() != nil:
		return nil, ctx.Err()
	case errors.Is(err, resolver.ErrHistoryRead):
		return nil, fmt.Errorf("%w: %w", ErrHistoryRead, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrSerialization, err)
	}

	r.result.Restored = handler.Restored()
	if handler.HasProblems() {
		r.result.Problems = handler.ErrorMessages()
		return nil, fmt.Errorf("%w: %w", ErrMergeConflictUnresolved, handler.ResolveStatus())
	}

	return m, nil
}

// finish commits repairs made by the reimport, replaces the session model
// and records the checksum. With an event kind it also notifies and ends the
// run.
func (s *Service) finish(ctx context.Context, r *run, repo *vcs.Repository, m *model.Model, message string, kinds ...EventKind) error {
	r.to(StateReimported)

	dirty, err := repo.HasChangesToCommit()
	if err != nil {
		return err
	}
	if dirty {
		hash, commitErr := repo.Commit(commitMessage(message, r.result.Restored), false)
		if commitErr != nil {
			return commitErr
		}
		r.commit(hash)
	}

	if replaceErr := s.store.Replace(ctx, m); replaceErr != nil {
		return fmt.Errorf("failed to replace model: %w", replaceErr)
	}
	if _, sumErr := grafico.SaveChecksum(repo.FS()); sumErr != nil {
		return sumErr
	}

	for _, kind := range kinds {
		s.notify(r, kind)
		r.to(StateDone)
	}

	return nil
}

// rollback resets the branch and working tree to the pre-merge commit after
// a cancellation.
func (s *Service) rollback(r *run, repo *vcs.Repository, preMerge plumbing.Hash, cause error) error {
	r.to(StateCancelled)

	if !preMerge.IsZero() {
		if err := repo.ResetHard(preMerge.String()); err != nil {
			r.logger.Error("failed to roll back", zap.Error(err))
			return fmt.Errorf("%w: rollback failed: %w", ErrCancelled, err)
		}
	}

	r.logger.Info("rolled back to pre-merge state", zap.String("hash", preMerge.String()))
	return fmt.Errorf("%w: %w", ErrCancelled, cause)
}

func (s *Service) cancelled(r *run) {
	r.to(StateMergedCancelled)
	s.emit(r, EventHistoryChanged)
}

func (s *Service) notify(r *run, kind EventKind) {
	s.emit(r, kind)
	r.to(StateNotified)
}

func (s *Service) emit(r *run, kind EventKind) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(Event{
		Kind:       kind,
		Repository: s.config.Path,
		Operation:  r.result.Operation,
		At:         time.Now(),
	})
}

// vcsError maps a façade error into the pipeline taxonomy.
func (s *Service) vcsError(ctx context.Context, err error) error {
	switch {
	case ctx.Err() != nil:
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	case errors.Is(err, vcs.ErrAuthenticationFailed):
		return fmt.Errorf("%w: %w", ErrAuthentication, err)
	case errors.Is(err, vcs.ErrPushRejected):
		return fmt.Errorf("%w: %w", ErrPushRejected, err)
	case errors.Is(err, vcs.ErrNetwork), errors.Is(err, vcs.ErrCloneFailed):
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	default:
		return err
	}
}

func commitMessage(message string, restored []resolver.RestoredObject) string {
	if len(restored) == 0 {
		return message
	}

	var b strings.Builder
	b.WriteString(message)
	b.WriteString("\n\n")
	b.WriteString(restoredHeading)
	for _, o := range restored {
		b.WriteString("\n")
		b.WriteString(o.Descriptor)
	}
	return b.String()
}

func toConflicts(conflicts []vcs.Conflict) []Conflict {
	return lo.Map(conflicts, func(c vcs.Conflict, _ int) Conflict {
		id, _ := grafico.ElementIDFromPath(c.Path)
		return Conflict{
			Path:      c.Path,
			ElementID: id,
			Base:      c.Base,
			Ours:      c.Ours,
			Theirs:    c.Theirs,
		}
	})
}

// modelName derives a model name from a remote URL.
func modelName(url string) string {
	name := path.Base(strings.TrimSuffix(strings.TrimRight(url, "/"), ".git"))
	if name == "." || name == "/" || name == "" {
		return "Model"
	}
	return name
}
