package vcs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/transport"
	"github.com/go-git/go-git/v6/plumbing/transport/http"
	"go.uber.org/zap/zaptest"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	return NewService(Config{
		DefaultBranch: "main",
		Author:        Signature{Name: "Test Author", Email: "test@example.com"},
	}, zaptest.NewLogger(t))
}

func newRemote(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	_, err := git.PlainInit(dir, true, git.WithDefaultBranch(plumbing.NewBranchReferenceName("main")))
	if err != nil {
		t.Fatal(err)
	}
	return dir
}

func newClone(t *testing.T, service *Service, remote string) *Repository {
	t.Helper()

	repo, err := service.Clone(context.Background(), CloneRequest{
		URL:       remote,
		Directory: filepath.Join(t.TempDir(), "clone"),
	})
	if err != nil {
		t.Fatalf("Clone failed: %v", err)
	}
	return repo
}

func writeFile(t *testing.T, repo *Repository, name, content string) {
	t.Helper()

	path := filepath.Join(repo.Path(), filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readWorkFile(t *testing.T, repo *Repository, name string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(repo.Path(), filepath.FromSlash(name)))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func commit(t *testing.T, repo *Repository, message string) plumbing.Hash {
	t.Helper()

	hash, err := repo.Commit(message, false)
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	return hash
}

func push(t *testing.T, repo *Repository) {
	t.Helper()

	if err := repo.Push(context.Background(), nil); err != nil {
		t.Fatalf("Push failed: %v", err)
	}
}

// seed creates a clone with one pushed commit holding the given files.
func seed(t *testing.T, service *Service, remote string, files map[string]string) *Repository {
	t.Helper()

	repo := newClone(t, service, remote)
	for name, content := range files {
		writeFile(t, repo, name, content)
	}
	commit(t, repo, "initial commit")
	push(t, repo)
	return repo
}

func TestService_CloneEmptyRemote(t *testing.T) {
	service := newTestService(t)
	remote := newRemote(t)

	repo := newClone(t, service, remote)

	url, err := repo.RemoteURL()
	if err != nil {
		t.Fatal(err)
	}
	if url != remote {
		t.Errorf("RemoteURL = %q, want %q", url, remote)
	}

	head, err := repo.Head()
	if err != nil {
		t.Fatal(err)
	}
	if !head.IsZero() {
		t.Errorf("expected unborn HEAD, got %s", head)
	}

	branch, err := repo.BranchName()
	if err != nil {
		t.Fatal(err)
	}
	if branch != "main" {
		t.Errorf("BranchName = %q, want main", branch)
	}

	if _, err := repo.Fetch(context.Background(), nil); !errors.Is(err, ErrNoRemoteHistory) {
		t.Errorf("expected ErrNoRemoteHistory from empty remote, got %v", err)
	}
}

func TestService_CloneFollowsRemoteHead(t *testing.T) {
	dir := t.TempDir()
	if _, err := git.PlainInit(dir, true, git.WithDefaultBranch(plumbing.NewBranchReferenceName("master"))); err != nil {
		t.Fatal(err)
	}

	legacy := NewService(Config{
		DefaultBranch: "master",
		Author:        Signature{Name: "Test Author", Email: "test@example.com"},
	}, zaptest.NewLogger(t))
	seed(t, legacy, dir, map[string]string{"a.txt": "a"})

	service := newTestService(t)
	repo := newClone(t, service, dir)

	branch, err := repo.BranchName()
	if err != nil {
		t.Fatal(err)
	}
	if branch != "master" {
		t.Errorf("BranchName = %q, want master", branch)
	}
	if got := readWorkFile(t, repo, "a.txt"); got != "a" {
		t.Errorf("a.txt = %q", got)
	}

	reopened, err := service.Open(repo.Path())
	if err != nil {
		t.Fatal(err)
	}
	if reopened.CanDeleteBranch("master") {
		t.Error("the remote default branch must not be deletable")
	}
	branches, err := reopened.Branches()
	if err != nil {
		t.Fatal(err)
	}
	if len(branches) == 0 || branches[0].Name != "master" || !branches[0].IsDefault {
		t.Errorf("unexpected branches %+v", branches)
	}
}

func TestService_OpenAndRemove(t *testing.T) {
	service := newTestService(t)

	if _, err := service.Open(t.TempDir()); !errors.Is(err, ErrRepositoryNotFound) {
		t.Errorf("expected ErrRepositoryNotFound, got %v", err)
	}

	path := filepath.Join(t.TempDir(), "repo")
	if _, err := service.Init(path, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := service.Init(path, ""); !errors.Is(err, ErrRepositoryAlreadyExists) {
		t.Errorf("expected ErrRepositoryAlreadyExists, got %v", err)
	}
	if !service.Exists(path) {
		t.Fatal("repository should exist")
	}
	if err := service.Remove(path); err != nil {
		t.Fatal(err)
	}
	if service.Exists(path) {
		t.Error("repository should be removed")
	}
}

func TestRepository_CommitPushAndState(t *testing.T) {
	service := newTestService(t)
	remote := newRemote(t)
	repo := newClone(t, service, remote)

	writeFile(t, repo, "model/a.yaml", "a: 1\n")

	dirty, err := repo.HasChangesToCommit()
	if err != nil {
		t.Fatal(err)
	}
	if !dirty {
		t.Error("untracked file should count as a change")
	}

	hash := commit(t, repo, "add a")

	if dirty, _ = repo.HasChangesToCommit(); dirty {
		t.Error("working tree should be clean after commit")
	}
	if unpushed, _ := repo.HasUnpushedCommits(); !unpushed {
		t.Error("expected unpushed commits before push")
	}
	if _, err := repo.Commit("again", false); !errors.Is(err, ErrNothingToCommit) {
		t.Errorf("expected ErrNothingToCommit, got %v", err)
	}

	push(t, repo)

	if same, _ := repo.IsHeadAndRemoteSame(); !same {
		t.Error("HEAD and remote should match after push")
	}
	if unpushed, _ := repo.HasUnpushedCommits(); unpushed {
		t.Error("no commits should be unpushed after push")
	}

	status, err := repo.Fetch(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if status != FetchUpToDate {
		t.Errorf("Fetch = %s, want up-to-date", status)
	}

	other := newClone(t, service, remote)
	data, found, err := other.FileAt("HEAD", "model/a.yaml")
	if err != nil || !found {
		t.Fatalf("FileAt = %v, %v", found, err)
	}
	if string(data) != "a: 1\n" {
		t.Errorf("unexpected content %q", data)
	}
	if _, found, _ := other.FileAt(hash.String(), "model/missing.yaml"); found {
		t.Error("missing file should not be found")
	}

	user, err := repo.UserDetails()
	if err != nil {
		t.Fatal(err)
	}
	if user.Name == "" {
		t.Error("expected a commit identity")
	}
	if err := repo.SaveUserDetails(UserDetails{Name: "Someone", Email: "someone@example.com"}); err != nil {
		t.Fatal(err)
	}
	if user, _ = repo.UserDetails(); user.Name != "Someone" || user.Email != "someone@example.com" {
		t.Errorf("UserDetails = %+v", user)
	}
}

func TestRepository_PushRejected(t *testing.T) {
	service := newTestService(t)
	remote := newRemote(t)
	first := seed(t, service, remote, map[string]string{"a.txt": "a"})
	second := newClone(t, service, remote)

	writeFile(t, first, "b.txt", "b")
	commit(t, first, "add b")
	push(t, first)

	writeFile(t, second, "c.txt", "c")
	commit(t, second, "add c")

	if err := second.Push(context.Background(), nil); !errors.Is(err, ErrPushRejected) {
		t.Errorf("expected ErrPushRejected, got %v", err)
	}
}

func TestRepository_MergeFastForward(t *testing.T) {
	service := newTestService(t)
	remote := newRemote(t)
	first := seed(t, service, remote, map[string]string{"a.txt": "a"})
	second := newClone(t, service, remote)

	writeFile(t, first, "b.txt", "b")
	tip := commit(t, first, "add b")
	push(t, first)

	if remoteCommits, _ := second.HasRemoteCommits(); remoteCommits {
		t.Error("remote commits are unknown before fetch")
	}

	result, err := second.Pull(context.Background(), nil)
	if err != nil {
		t.Fatalf("Pull failed: %v", err)
	}
	if result.Status != MergeFastForward {
		t.Errorf("Status = %s, want fast-forward", result.Status)
	}

	head, _ := second.Head()
	if head != tip {
		t.Errorf("HEAD = %s, want %s", head, tip)
	}
	if got := readWorkFile(t, second, "b.txt"); got != "b" {
		t.Errorf("b.txt = %q", got)
	}

	result, err = second.Pull(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Status != MergeUpToDate {
		t.Errorf("second Pull = %s, want up-to-date", result.Status)
	}
}

func TestRepository_MergeClean(t *testing.T) {
	service := newTestService(t)
	remote := newRemote(t)
	first := seed(t, service, remote, map[string]string{"a.txt": "a", "dir/gone.txt": "x"})
	second := newClone(t, service, remote)

	writeFile(t, first, "b.txt", "b")
	if err := os.Remove(filepath.Join(first.Path(), "dir", "gone.txt")); err != nil {
		t.Fatal(err)
	}
	commit(t, first, "add b, remove gone")
	push(t, first)

	writeFile(t, second, "c.txt", "c")
	ours := commit(t, second, "add c")

	result, err := second.Pull(context.Background(), nil)
	if err != nil {
		t.Fatalf("Pull failed: %v", err)
	}
	if result.Status != MergeMerged {
		t.Fatalf("Status = %s, want merged", result.Status)
	}
	if result.Ours != ours {
		t.Errorf("Ours = %s, want %s", result.Ours, ours)
	}

	if got := readWorkFile(t, second, "b.txt"); got != "b" {
		t.Errorf("b.txt = %q", got)
	}
	if got := readWorkFile(t, second, "c.txt"); got != "c" {
		t.Errorf("c.txt = %q", got)
	}
	if _, err := os.Stat(filepath.Join(second.Path(), "dir")); !os.IsNotExist(err) {
		t.Error("emptied directory should be removed")
	}

	commits, err := second.History(context.Background(), "HEAD", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(commits[0].Parents) != 2 {
		t.Errorf("merge commit has %d parents, want 2", len(commits[0].Parents))
	}
	if dirty, _ := second.HasChangesToCommit(); dirty {
		t.Error("working tree should be clean after merge commit")
	}
}

func TestRepository_MergeConflict(t *testing.T) {
	setup := func(t *testing.T) (*Repository, plumbing.Hash) {
		service := newTestService(t)
		remote := newRemote(t)
		first := seed(t, service, remote, map[string]string{"shared.txt": "base"})
		second := newClone(t, service, remote)

		writeFile(t, first, "shared.txt", "theirs")
		writeFile(t, first, "new.txt", "new")
		commit(t, first, "theirs")
		push(t, first)

		writeFile(t, second, "shared.txt", "ours")
		ours := commit(t, second, "ours")

		result, err := second.Pull(context.Background(), nil)
		if err != nil {
			t.Fatalf("Pull failed: %v", err)
		}
		if result.Status != MergeConflicting {
			t.Fatalf("Status = %s, want conflicting", result.Status)
		}
		if len(result.Conflicts) != 1 || result.Conflicts[0].Path != "shared.txt" {
			t.Fatalf("unexpected conflicts %+v", result.Conflicts)
		}
		c := result.Conflicts[0]
		if string(c.Base.Content) != "base" || string(c.Ours.Content) != "ours" || string(c.Theirs.Content) != "theirs" {
			t.Errorf("unexpected conflict versions %+v", c)
		}

		if got := readWorkFile(t, second, "shared.txt"); got != "ours" {
			t.Errorf("conflicting path should keep ours, got %q", got)
		}
		if got := readWorkFile(t, second, "new.txt"); got != "new" {
			t.Errorf("clean path should be applied, got %q", got)
		}
		if !second.MergeInProgress() {
			t.Error("merge should be in progress")
		}

		return second, ours
	}

	t.Run("complete with theirs", func(t *testing.T) {
		repo, _ := setup(t)

		hash, err := repo.CompleteMerge(map[string]Choice{"shared.txt": ChoiceTheirs}, "Merged with remote")
		if err != nil {
			t.Fatalf("CompleteMerge failed: %v", err)
		}
		if got := readWorkFile(t, repo, "shared.txt"); got != "theirs" {
			t.Errorf("shared.txt = %q, want theirs", got)
		}
		head, _ := repo.Head()
		if head != hash {
			t.Errorf("HEAD = %s, want %s", head, hash)
		}
		if repo.MergeInProgress() {
			t.Error("merge should be finished")
		}
		if remoteCommits, _ := repo.HasRemoteCommits(); remoteCommits {
			t.Error("remote tip should be contained in the merge")
		}
	})

	t.Run("complete with ours", func(t *testing.T) {
		repo, _ := setup(t)

		if _, err := repo.CompleteMerge(nil, ""); err != nil {
			t.Fatalf("CompleteMerge failed: %v", err)
		}
		if got := readWorkFile(t, repo, "shared.txt"); got != "ours" {
			t.Errorf("shared.txt = %q, want ours", got)
		}
	})

	t.Run("reset restores pre-merge state", func(t *testing.T) {
		repo, ours := setup(t)

		if err := repo.ResetHard(ours.String()); err != nil {
			t.Fatalf("ResetHard failed: %v", err)
		}
		if _, err := os.Stat(filepath.Join(repo.Path(), "new.txt")); !os.IsNotExist(err) {
			t.Error("file applied by the merge should be removed")
		}
		head, _ := repo.Head()
		if head != ours {
			t.Errorf("HEAD = %s, want %s", head, ours)
		}
		if dirty, _ := repo.HasChangesToCommit(); dirty {
			t.Error("working tree should be clean")
		}
		if _, err := repo.CompleteMerge(nil, ""); !errors.Is(err, ErrNoMergeInProgress) {
			t.Errorf("expected ErrNoMergeInProgress, got %v", err)
		}
	})
}

func TestRepository_Merge_MissingRef(t *testing.T) {
	service := newTestService(t)
	repo := seed(t, service, newRemote(t), map[string]string{"a.txt": "a"})

	if _, err := repo.Merge(context.Background(), "refs/remotes/origin/nope"); !errors.Is(err, ErrNoRemoteHistory) {
		t.Errorf("expected ErrNoRemoteHistory, got %v", err)
	}
}

func TestRepository_WalkCommits(t *testing.T) {
	service := newTestService(t)
	repo := seed(t, service, newRemote(t), map[string]string{"x.txt": "v1"})

	writeFile(t, repo, "x.txt", "v2")
	commit(t, repo, "second")
	if err := os.Remove(filepath.Join(repo.Path(), "x.txt")); err != nil {
		t.Fatal(err)
	}
	writeFile(t, repo, "y.txt", "y")
	commit(t, repo, "third")

	var messages []string
	var found string
	err := repo.WalkCommits(context.Background(), "HEAD", func(s *Snapshot) error {
		messages = append(messages, s.Info().Message)
		data, ok, err := s.ReadFile("x.txt")
		if err != nil {
			return err
		}
		if ok {
			found = string(data)
			return ErrStopWalk
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if found != "v2" {
		t.Errorf("newest version = %q, want v2", found)
	}
	if len(messages) != 2 {
		t.Errorf("walk should stop at the first match, visited %v", messages)
	}

	commits, err := repo.History(context.Background(), "HEAD", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(commits) != 3 {
		t.Errorf("History returned %d commits, want 3", len(commits))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = repo.WalkCommits(ctx, "HEAD", func(*Snapshot) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRepository_Branches(t *testing.T) {
	service := newTestService(t)
	remote := newRemote(t)
	first := seed(t, service, remote, map[string]string{"a.txt": "a"})

	if err := first.CreateBranch("feature"); err != nil {
		t.Fatal(err)
	}
	if err := first.CreateBranch("feature"); !errors.Is(err, ErrBranchAlreadyExists) {
		t.Errorf("expected ErrBranchAlreadyExists, got %v", err)
	}
	if err := first.CheckoutBranch("feature"); err != nil {
		t.Fatal(err)
	}
	writeFile(t, first, "f.txt", "f")
	commit(t, first, "feature work")
	push(t, first)

	if first.CanDeleteBranch("feature") {
		t.Error("checked-out branch must not be deletable")
	}
	if first.CanDeleteBranch("main") {
		t.Error("default branch must not be deletable")
	}

	second := newClone(t, service, remote)
	if _, err := second.Fetch(context.Background(), nil); err != nil {
		t.Fatal(err)
	}

	branches, err := second.Branches()
	if err != nil {
		t.Fatal(err)
	}
	if len(branches) != 2 {
		t.Fatalf("expected 2 branches, got %+v", branches)
	}
	feature := branches[0]
	if feature.Name != "feature" || feature.HasLocal || !feature.HasRemote {
		t.Errorf("unexpected feature branch %+v", feature)
	}
	if main := branches[1]; !main.IsCurrent || !main.IsDefault || !main.HasLocal {
		t.Errorf("unexpected main branch %+v", main)
	}

	if err := second.CheckoutBranch("feature"); err != nil {
		t.Fatalf("CheckoutBranch from remote failed: %v", err)
	}
	if got := readWorkFile(t, second, "f.txt"); got != "f" {
		t.Errorf("f.txt = %q", got)
	}
	if err := second.CheckoutBranch("nope"); !errors.Is(err, ErrBranchNotFound) {
		t.Errorf("expected ErrBranchNotFound, got %v", err)
	}

	if err := second.CheckoutBranch("main"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(second.Path(), "f.txt")); !os.IsNotExist(err) {
		t.Error("feature file should be gone on main")
	}
	if err := second.DeleteBranch("feature"); err != nil {
		t.Fatalf("DeleteBranch failed: %v", err)
	}
	if err := second.DeleteBranch("main"); !errors.Is(err, ErrCannotDeleteBranch) {
		t.Errorf("expected ErrCannotDeleteBranch, got %v", err)
	}
	if second.HasRef("refs/heads/feature") {
		t.Error("local branch should be deleted")
	}

	if err := second.DeleteRemoteBranch(context.Background(), nil, "feature"); err != nil {
		t.Fatalf("DeleteRemoteBranch failed: %v", err)
	}
	if second.HasRef("refs/remotes/origin/feature") {
		t.Error("remote-tracking branch should be deleted")
	}
}

func TestMapTransportError(t *testing.T) {
	tests := []struct {
		err  error
		want error
	}{
		{transport.ErrEmptyRemoteRepository, ErrNoRemoteHistory},
		{transport.ErrAuthenticationRequired, ErrAuthenticationFailed},
		{transport.ErrAuthorizationFailed, ErrAuthenticationFailed},
		{git.ErrNonFastForwardUpdate, ErrPushRejected},
		{errors.New("connection refused"), ErrNetwork},
		{context.Canceled, context.Canceled},
	}

	for _, tt := range tests {
		if got := mapTransportError(tt.err); !errors.Is(got, tt.want) {
			t.Errorf("mapTransportError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestCredentials_AuthMethod(t *testing.T) {
	auth, err := Credentials{}.AuthMethod()
	if err != nil || auth != nil {
		t.Errorf("zero credentials should be anonymous, got %v, %v", auth, err)
	}

	auth, err = Credentials{Username: "user", Password: "token"}.AuthMethod()
	if err != nil {
		t.Fatal(err)
	}
	basic, ok := auth.(*http.BasicAuth)
	if !ok || basic.Username != "user" || basic.Password != "token" {
		t.Errorf("unexpected auth %#v", auth)
	}

	if _, err := (Credentials{PrivateKeyPath: filepath.Join(t.TempDir(), "missing")}).AuthMethod(); !errors.Is(err, ErrAuthenticationFailed) {
		t.Errorf("expected ErrAuthenticationFailed for missing key, got %v", err)
	}
}
