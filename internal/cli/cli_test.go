package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/modelsync/modelsync/internal/orchestrator"
	"github.com/modelsync/modelsync/internal/resolver"
	"github.com/modelsync/modelsync/internal/vcs"
	"github.com/spf13/cobra"
)

var conflicts = []orchestrator.Conflict{
	{Path: "model/business/actor-1.yaml", ElementID: "actor-1"},
	{Path: "model/folder.yaml"},
}

func TestPromptOperator_ConfirmSave(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}

	for _, tt := range tests {
		out := &bytes.Buffer{}
		o := NewPromptOperator(strings.NewReader(tt.input), out)
		if got := o.ConfirmSave(context.Background()); got != tt.want {
			t.Errorf("ConfirmSave(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if !strings.Contains(out.String(), "unsaved changes") {
			t.Errorf("missing question in %q", out.String())
		}
	}
}

func TestPromptOperator_ResolveConflicts(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   map[string]vcs.Choice
		wantOK bool
	}{
		{
			name:  "ours for all",
			input: "o\n",
			want: map[string]vcs.Choice{
				"model/business/actor-1.yaml": vcs.ChoiceOurs,
				"model/folder.yaml":           vcs.ChoiceOurs,
			},
			wantOK: true,
		},
		{
			name:  "theirs for all",
			input: "theirs\n",
			want: map[string]vcs.Choice{
				"model/business/actor-1.yaml": vcs.ChoiceTheirs,
				"model/folder.yaml":           vcs.ChoiceTheirs,
			},
			wantOK: true,
		},
		{
			name:  "each",
			input: "e\nt\no\n",
			want: map[string]vcs.Choice{
				"model/business/actor-1.yaml": vcs.ChoiceTheirs,
				"model/folder.yaml":           vcs.ChoiceOurs,
			},
			wantOK: true,
		},
		{name: "cancel", input: "c\n"},
		{name: "cancel during each", input: "e\nt\nc\n"},
		{name: "end of input", input: "e\nt\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			o := NewPromptOperator(strings.NewReader(tt.input), out)

			got, ok := o.ResolveConflicts(context.Background(), conflicts)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("choices mismatch (-want +got):\n%s", diff)
			}
			if !strings.Contains(out.String(), "model/business/actor-1.yaml (actor-1)") {
				t.Errorf("conflicts not listed in %q", out.String())
			}
		})
	}
}

func TestPromptOperator_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := NewPromptOperator(strings.NewReader("o\n"), &bytes.Buffer{})
	if _, ok := o.ResolveConflicts(ctx, conflicts); ok {
		t.Error("a cancelled context should decline")
	}
}

func TestRunOptions(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	run := &runOptions{}
	run.bind(cmd, true)
	if err := cmd.ParseFlags([]string{"-m", "edit", "--strategy", "theirs", "--save", "--username", "alice"}); err != nil {
		t.Fatal(err)
	}

	opts, err := run.options(cmd)
	if err != nil {
		t.Fatal(err)
	}
	if opts.Message != "edit" {
		t.Errorf("Message = %q", opts.Message)
	}
	if opts.Credentials == nil || opts.Credentials.Username != "alice" {
		t.Errorf("Credentials = %+v", opts.Credentials)
	}
	want := orchestrator.PolicyOperator{SaveDirty: true, Strategy: orchestrator.StrategyTheirs}
	if opts.Operator != want {
		t.Errorf("Operator = %#v, want %#v", opts.Operator, want)
	}

	run = &runOptions{strategy: "mine"}
	if _, err := run.options(cmd); !errors.Is(err, orchestrator.ErrInvalidStrategy) {
		t.Errorf("expected ErrInvalidStrategy, got %v", err)
	}

	opts, err = (&runOptions{}).options(cmd)
	if err != nil {
		t.Fatal(err)
	}
	if opts.Operator != nil || opts.Credentials != nil {
		t.Errorf("defaults should defer to the configuration, got %+v", opts)
	}
}

func TestPrintResult(t *testing.T) {
	started := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	res := &orchestrator.Result{
		ID:          "run-1",
		Operation:   orchestrator.OperationRefresh,
		State:       orchestrator.StateDone,
		Transitions: []orchestrator.State{orchestrator.StateInit, orchestrator.StateDone},
		Commits:     []string{"abcdef0123456789"},
		Restored:    []resolver.RestoredObject{{ID: "role-1", Descriptor: "BusinessRole 'Role' (role-1)"}},
		StartedAt:   started,
		FinishedAt:  started.Add(1500 * time.Millisecond),
	}

	out := &bytes.Buffer{}
	if err := printResult(out, res); err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		"run: run-1\n",
		"state: DONE\n",
		"transitions: [INIT, DONE]\n",
		"- abcdef0\n",
		"- BusinessRole 'Role' (role-1)\n",
		"duration: 1.5s\n",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output lacks %q:\n%s", want, out.String())
		}
	}
	if strings.Contains(out.String(), "problems") {
		t.Errorf("empty sections should be omitted:\n%s", out.String())
	}

	if err := printResult(out, nil); err != nil {
		t.Errorf("nil result: %v", err)
	}
}

func TestUserCommand(t *testing.T) {
	cmd := newUserCommand(&rootOptions{})

	tests := []struct {
		args    []string
		wantErr bool
	}{
		{nil, false},
		{[]string{"Alice", "alice@example.com"}, false},
		{[]string{"Alice"}, true},
		{[]string{"Alice", "alice@example.com", "extra"}, true},
	}
	for _, tt := range tests {
		if err := cmd.Args(cmd, tt.args); (err != nil) != tt.wantErr {
			t.Errorf("Args(%q) error = %v, wantErr %v", tt.args, err, tt.wantErr)
		}
	}

	out := &bytes.Buffer{}
	if err := printUser(out, vcs.UserDetails{Name: "Alice", Email: "alice@example.com"}); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff("name: Alice\nemail: alice@example.com\n", out.String()); diff != "" {
		t.Errorf("output (-want +got):\n%s", diff)
	}
}
