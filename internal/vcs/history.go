package vcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/go-git/go-git/v6/plumbing/storer"
	"github.com/samber/lo"
)

// Snapshot is the tree of one commit seen during a history walk.
type Snapshot struct {
	commit *object.Commit
	tree   *object.Tree
}

// Info describes the commit.
func (s *Snapshot) Info() CommitInfo {
	return commitInfo(s.commit)
}

// Files returns every file path of the tree, sorted.
func (s *Snapshot) Files() ([]string, error) {
	var files []string
	err := s.tree.Files().ForEach(func(f *object.File) error {
		files = append(files, f.Name)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files of %s: %w", s.commit.Hash, err)
	}

	slices.Sort(files)
	return files, nil
}

// ReadFile returns the content of p in the tree.
func (s *Snapshot) ReadFile(p string) ([]byte, bool, error) {
	f, err := s.tree.File(p)
	if errors.Is(err, object.ErrFileNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to open %s at %s: %w", p, s.commit.Hash, err)
	}

	data, err := readFile(f)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// WalkCommits calls fn for ref and each of its ancestors, newest first by
// committer time. Returning ErrStopWalk from fn ends the walk without error.
func (r *Repository) WalkCommits(ctx context.Context, ref string, fn func(*Snapshot) error) error {
	from, err := r.ResolveRef(ref)
	if err != nil {
		return err
	}

	iter, err := r.repo.Log(&git.LogOptions{
		From:  from,
		Order: git.LogOrderCommitterTime,
	})
	if err != nil {
		return fmt.Errorf("failed to read history of %s: %w", ref, err)
	}
	defer iter.Close()

	err = iter.ForEach(func(c *object.Commit) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		tree, treeErr := c.Tree()
		if treeErr != nil {
			return fmt.Errorf("failed to read tree of %s: %w", c.Hash, treeErr)
		}

		if fnErr := fn(&Snapshot{commit: c, tree: tree}); fnErr != nil {
			if errors.Is(fnErr, ErrStopWalk) {
				return storer.ErrStop
			}
			return fnErr
		}
		return nil
	})
	if err != nil {
		return err
	}

	return nil
}

// History returns up to limit commits reachable from ref, newest first. A
// non-positive limit returns all of them.
func (r *Repository) History(ctx context.Context, ref string, limit int) ([]CommitInfo, error) {
	var commits []CommitInfo

	err := r.WalkCommits(ctx, ref, func(s *Snapshot) error {
		commits = append(commits, s.Info())
		if limit > 0 && len(commits) >= limit {
			return ErrStopWalk
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return commits, nil
}

// FileAt returns the content of p at ref.
func (r *Repository) FileAt(ref, p string) ([]byte, bool, error) {
	hash, err := r.ResolveRef(ref)
	if err != nil {
		return nil, false, err
	}

	commit, err := r.repo.CommitObject(hash)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrInvalidRepository, err)
	}

	f, err := commit.File(p)
	if errors.Is(err, object.ErrFileNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to open %s at %s: %w", p, ref, err)
	}

	data, err := readFile(f)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func readFile(f *object.File) ([]byte, error) {
	reader, err := f.Reader()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
	}
	return data, nil
}

func commitInfo(c *object.Commit) CommitInfo {
	return CommitInfo{
		Hash:    c.Hash.String(),
		Message: c.Message,
		Author:  c.Author.Name,
		Email:   c.Author.Email,
		When:    c.Committer.When,
		Parents: lo.Map(c.ParentHashes, func(h plumbing.Hash, _ int) string { return h.String() }),
	}
}
