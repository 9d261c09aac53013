package vcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

type pendingMerge struct {
	ref       string
	ours      plumbing.Hash
	theirs    plumbing.Hash
	conflicts []Conflict
}

// MergeInProgress reports whether a conflicting merge awaits CompleteMerge or
// ResetHard.
func (r *Repository) MergeInProgress() bool {
	return r.pending != nil
}

// Conflicts returns the conflicting paths of the merge in progress.
func (r *Repository) Conflicts() []Conflict {
	if r.pending == nil {
		return nil
	}
	return slices.Clone(r.pending.conflicts)
}

// Merge merges ref into HEAD with a file-level three-way merge against the
// merge base. Paths changed on one side only take that side. Paths changed
// differently on both sides are conflicts: the working tree keeps our version
// of them, every clean path is already applied, and nothing is committed until
// CompleteMerge. Without conflicts a merge commit is created.
//
// The working tree must be clean. A missing ref is ErrNoRemoteHistory.
func (r *Repository) Merge(ctx context.Context, ref string) (*MergeResult, error) {
	if r.pending != nil {
		return nil, ErrMergeInProgress
	}

	theirs, err := r.ResolveRef(ref)
	if errors.Is(err, ErrRefNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNoRemoteHistory, ref)
	}
	if err != nil {
		return nil, err
	}

	ours, err := r.Head()
	if err != nil {
		return nil, err
	}

	result := &MergeResult{
		Status: MergeUpToDate,
		Ours:   ours,
		Theirs: theirs,
		Commit: ours,
	}

	if ours == theirs {
		return result, nil
	}
	if !ours.IsZero() {
		contained, ancErr := r.isAncestor(theirs, ours)
		if ancErr != nil {
			return nil, ancErr
		}
		if contained {
			return result, nil
		}
	}

	if dirty, dirtyErr := r.HasChangesToCommit(); dirtyErr != nil {
		return nil, dirtyErr
	} else if dirty {
		return nil, ErrUncommittedChanges
	}

	fastForward := ours.IsZero()
	if !fastForward {
		fastForward, err = r.isAncestor(ours, theirs)
		if err != nil {
			return nil, err
		}
	}
	if fastForward {
		if resetErr := r.ResetHard(theirs.String()); resetErr != nil {
			return nil, resetErr
		}
		result.Status = MergeFastForward
		result.Commit = theirs

		r.logger.Info("fast-forwarded",
			zap.String("ref", ref),
			zap.String("hash", theirs.String()))
		return result, nil
	}

	conflicts, err := r.threeWay(ctx, ours, theirs)
	if err != nil {
		return nil, err
	}

	r.pending = &pendingMerge{
		ref:       ref,
		ours:      ours,
		theirs:    theirs,
		conflicts: conflicts,
	}

	if len(conflicts) > 0 {
		result.Status = MergeConflicting
		result.Conflicts = slices.Clone(conflicts)

		r.logger.Info("merge has conflicts",
			zap.String("ref", ref),
			zap.Int("conflicts", len(conflicts)))
		return result, nil
	}

	commit, err := r.commitMerge(ref)
	if err != nil {
		return nil, err
	}
	result.Status = MergeMerged
	result.Commit = commit

	r.logger.Info("merged",
		zap.String("ref", ref),
		zap.String("hash", commit.String()))

	return result, nil
}

// CompleteMerge applies the chosen side of every conflicting path (ours when
// no choice is given) and commits the merge.
func (r *Repository) CompleteMerge(choices map[string]Choice, message string) (plumbing.Hash, error) {
	if r.pending == nil {
		return plumbing.ZeroHash, ErrNoMergeInProgress
	}

	for _, c := range r.pending.conflicts {
		if choices[c.Path] != ChoiceTheirs {
			continue
		}
		if err := r.applyVersion(c.Path, c.Theirs); err != nil {
			return plumbing.ZeroHash, err
		}
	}

	if message == "" {
		return r.commitMerge(r.pending.ref)
	}
	return r.commitPending(message)
}

func (r *Repository) commitMerge(ref string) (plumbing.Hash, error) {
	branch, err := r.BranchName()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return r.commitPending(fmt.Sprintf("Merge %s into %s", ref, branch))
}

// commitPending commits the merge even when the result equals ours, so the
// remote tip becomes an ancestor of HEAD.
func (r *Repository) commitPending(message string) (plumbing.Hash, error) {
	hash, err := r.Commit(message, false)
	if !errors.Is(err, ErrNothingToCommit) {
		return hash, err
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("%w: %w", ErrInvalidRepository, err)
	}
	user, err := r.UserDetails()
	if err != nil {
		return plumbing.ZeroHash, err
	}

	hash, err = wt.Commit(message, &git.CommitOptions{
		AllowEmptyCommits: true,
		Author:            signature(user),
		Parents:           []plumbing.Hash{r.pending.ours, r.pending.theirs},
	})
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to commit merge: %w", err)
	}
	r.pending = nil

	return hash, nil
}

func (r *Repository) threeWay(ctx context.Context, ours, theirs plumbing.Hash) ([]Conflict, error) {
	oursCommit, err := r.repo.CommitObject(ours)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRepository, err)
	}
	theirsCommit, err := r.repo.CommitObject(theirs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRepository, err)
	}

	bases, err := oursCommit.MergeBase(theirsCommit)
	if err != nil {
		return nil, fmt.Errorf("failed to find merge base: %w", err)
	}

	base := map[string]plumbing.Hash{}
	if len(bases) > 0 {
		if base, err = treeEntries(bases[0]); err != nil {
			return nil, err
		}
	}
	oursFiles, err := treeEntries(oursCommit)
	if err != nil {
		return nil, err
	}
	theirsFiles, err := treeEntries(theirsCommit)
	if err != nil {
		return nil, err
	}

	paths := lo.Uniq(slices.Concat(lo.Keys(base), lo.Keys(oursFiles), lo.Keys(theirsFiles)))
	slices.Sort(paths)

	var conflicts []Conflict
	for _, p := range paths {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		b, o, t := base[p], oursFiles[p], theirsFiles[p]
		switch {
		case o == t, t == b:
			continue
		case o == b:
			version, readErr := r.version(t)
			if readErr != nil {
				return nil, readErr
			}
			if applyErr := r.applyVersion(p, version); applyErr != nil {
				return nil, applyErr
			}
		default:
			c := Conflict{Path: p}
			if c.Base, err = r.version(b); err != nil {
				return nil, err
			}
			if c.Ours, err = r.version(o); err != nil {
				return nil, err
			}
			if c.Theirs, err = r.version(t); err != nil {
				return nil, err
			}
			conflicts = append(conflicts, c)
		}
	}

	return conflicts, nil
}

func treeEntries(commit *object.Commit) (map[string]plumbing.Hash, error) {
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to read tree of %s: %w", commit.Hash, err)
	}

	entries := make(map[string]plumbing.Hash)
	err = tree.Files().ForEach(func(f *object.File) error {
		entries[f.Name] = f.Hash
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tree of %s: %w", commit.Hash, err)
	}

	return entries, nil
}

func (r *Repository) version(hash plumbing.Hash) (*FileVersion, error) {
	if hash.IsZero() {
		return nil, nil
	}

	blob, err := r.repo.BlobObject(hash)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", hash, err)
	}
	reader, err := blob.Reader()
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", hash, err)
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", hash, err)
	}

	return &FileVersion{Hash: hash, Content: content}, nil
}

// applyVersion writes v to p in the working tree, or removes p when v is nil.
func (r *Repository) applyVersion(p string, v *FileVersion) error {
	name := filepath.FromSlash(p)

	if v == nil {
		if err := r.fs.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", p, err)
		}
		return r.pruneParents(p)
	}

	if err := r.fs.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", p, err)
	}
	if err := afero.WriteFile(r.fs, name, v.Content, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", p, err)
	}
	return nil
}

// pruneParents removes the directories of p that became empty.
func (r *Repository) pruneParents(p string) error {
	for dir := path.Dir(p); dir != "." && dir != "/"; dir = path.Dir(dir) {
		exists, err := afero.DirExists(r.fs, filepath.FromSlash(dir))
		if err != nil {
			return fmt.Errorf("failed to inspect %s: %w", dir, err)
		}
		if !exists {
			continue
		}
		empty, err := afero.IsEmpty(r.fs, filepath.FromSlash(dir))
		if err != nil {
			return fmt.Errorf("failed to inspect %s: %w", dir, err)
		}
		if !empty {
			return nil
		}
		if rmErr := r.fs.Remove(filepath.FromSlash(dir)); rmErr != nil {
			return fmt.Errorf("failed to remove %s: %w", dir, rmErr)
		}
	}
	return nil
}
