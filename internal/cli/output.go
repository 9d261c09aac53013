package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/modelsync/modelsync/internal/journal"
	"github.com/modelsync/modelsync/internal/orchestrator"
	"github.com/modelsync/modelsync/internal/resolver"
	"github.com/modelsync/modelsync/internal/vcs"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

type resultView struct {
	Run         string   `yaml:"run"`
	Operation   string   `yaml:"operation"`
	State       string   `yaml:"state"`
	Transitions []string `yaml:"transitions,flow"`
	Commits     []string `yaml:"commits,omitempty"`
	Restored    []string `yaml:"restored,omitempty"`
	Conflicts   []string `yaml:"conflicts,omitempty"`
	Problems    []string `yaml:"problems,omitempty"`
	Duration    string   `yaml:"duration"`
}

type stateView struct {
	Path            string `yaml:"path"`
	Branch          string `yaml:"branch"`
	Remote          string `yaml:"remote"`
	Head            string `yaml:"head,omitempty"`
	Dirty           bool   `yaml:"dirty"`
	ChecksumValid   bool   `yaml:"checksumValid"`
	UnpushedCommits bool   `yaml:"unpushedCommits"`
	RemoteCommits   bool   `yaml:"remoteCommits"`
}

type userView struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

type branchView struct {
	Name    string `yaml:"name"`
	Current bool   `yaml:"current,omitempty"`
	Default bool   `yaml:"default,omitempty"`
	Local   bool   `yaml:"local"`
	Remote  bool   `yaml:"remote"`
}

type commitView struct {
	Hash    string `yaml:"hash"`
	Author  string `yaml:"author"`
	When    string `yaml:"when"`
	Message string `yaml:"message"`
}

type runView struct {
	ID        string `yaml:"id"`
	Operation string `yaml:"operation"`
	State     string `yaml:"state"`
	Started   string `yaml:"started"`
	Duration  string `yaml:"duration"`
	Error     string `yaml:"error,omitempty"`
}

func printYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to print output: %w", err)
	}
	return enc.Close()
}

func printResult(w io.Writer, res *orchestrator.Result) error {
	if res == nil {
		return nil
	}

	return printYAML(w, resultView{
		Run:         res.ID,
		Operation:   string(res.Operation),
		State:       string(res.State),
		Transitions: lo.Map(res.Transitions, func(s orchestrator.State, _ int) string { return string(s) }),
		Commits:     lo.Map(res.Commits, func(h string, _ int) string { return shortHash(h) }),
		Restored:    lo.Map(res.Restored, func(o resolver.RestoredObject, _ int) string { return o.Descriptor }),
		Conflicts:   lo.Map(res.Conflicts, func(c orchestrator.Conflict, _ int) string { return describe(c) }),
		Problems:    res.Problems,
		Duration:    res.FinishedAt.Sub(res.StartedAt).Round(time.Millisecond).String(),
	})
}

func printState(w io.Writer, s *orchestrator.RepositoryState) error {
	return printYAML(w, stateView{
		Path:            s.Path,
		Branch:          s.Branch,
		Remote:          s.RemoteURL,
		Head:            shortHash(s.Head),
		Dirty:           s.Dirty,
		ChecksumValid:   s.ChecksumValid,
		UnpushedCommits: s.UnpushedCommits,
		RemoteCommits:   s.RemoteCommits,
	})
}

func printUser(w io.Writer, u vcs.UserDetails) error {
	return printYAML(w, userView(u))
}

func printBranches(w io.Writer, branches []vcs.BranchInfo) error {
	return printYAML(w, lo.Map(branches, func(b vcs.BranchInfo, _ int) branchView {
		return branchView{
			Name:    b.Name,
			Current: b.IsCurrent,
			Default: b.IsDefault,
			Local:   b.HasLocal,
			Remote:  b.HasRemote,
		}
	}))
}

func printCommits(w io.Writer, commits []vcs.CommitInfo) error {
	return printYAML(w, lo.Map(commits, func(c vcs.CommitInfo, _ int) commitView {
		return commitView{
			Hash:    shortHash(c.Hash),
			Author:  c.Author,
			When:    c.When.Format(time.RFC3339),
			Message: c.Message,
		}
	}))
}

func printRuns(w io.Writer, runs []journal.Run) error {
	return printYAML(w, lo.Map(runs, func(r journal.Run, _ int) runView {
		return runView{
			ID:        r.ID.String(),
			Operation: r.Operation,
			State:     r.State,
			Started:   r.StartedAt.Format(time.RFC3339),
			Duration:  r.Duration().Round(time.Millisecond).String(),
			Error:     r.Error,
		}
	}))
}

func shortHash(h string) string {
	if len(h) > 7 {
		return h[:7]
	}
	return h
}
