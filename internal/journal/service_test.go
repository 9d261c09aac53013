package journal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/modelsync/modelsync/internal/orchestrator"
	"github.com/modelsync/modelsync/internal/resolver"
	"go.uber.org/zap/zaptest"
)

func newService(t *testing.T, config Config) *Service {
	t.Helper()

	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return NewService(config, NewRepository(db), zaptest.NewLogger(t))
}

func result(op orchestrator.Operation, state orchestrator.State) *orchestrator.Result {
	started := time.Now()
	return &orchestrator.Result{
		ID:          uuid.Must(uuid.NewV7()).String(),
		Operation:   op,
		Repository:  "/srv/models/archisurance",
		State:       state,
		Transitions: []orchestrator.State{orchestrator.StateInit, state},
		StartedAt:   started,
		FinishedAt:  started.Add(time.Second),
	}
}

func TestService_RecordAndGet(t *testing.T) {
	ctx := context.Background()
	s := newService(t, Config{})

	res := result(orchestrator.OperationRefresh, orchestrator.StateDone)
	res.Commits = []string{"abc"}
	res.Restored = []resolver.RestoredObject{{ID: "role-1", Descriptor: "BusinessRole 'Role' (role-1)"}}
	res.Conflicts = []orchestrator.Conflict{{Path: "model/business/actor-1.yaml", ElementID: "actor-1"}}

	if err := s.Record(ctx, res, nil); err != nil {
		t.Fatal(err)
	}

	run, err := s.Get(ctx, uuid.MustParse(res.ID))
	if err != nil {
		t.Fatal(err)
	}

	want := RunDraft{
		Operation:   "refresh",
		Repository:  "/srv/models/archisurance",
		State:       "DONE",
		Transitions: []string{"INIT", "DONE"},
		Commits:     []string{"abc"},
		Restored:    []string{"BusinessRole 'Role' (role-1)"},
		Conflicts:   []string{"model/business/actor-1.yaml"},
		StartedAt:   res.StartedAt,
		FinishedAt:  res.FinishedAt,
	}
	if diff := cmp.Diff(want, run.RunDraft, cmp.Comparer(func(a, b time.Time) bool { return a.Equal(b) })); diff != "" {
		t.Errorf("unexpected run (-want +got):\n%s", diff)
	}
	if run.Failed() || run.Duration() != time.Second {
		t.Errorf("unexpected outcome: failed=%v duration=%s", run.Failed(), run.Duration())
	}

	if err := s.Record(ctx, res, nil); err == nil {
		t.Error("recording the same run twice should fail")
	}
	if _, err := s.Get(ctx, uuid.Must(uuid.NewV7())); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.Record(ctx, &orchestrator.Result{ID: "not-a-uuid"}, nil); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestService_RecordsFailure(t *testing.T) {
	ctx := context.Background()
	s := newService(t, Config{})

	res := result(orchestrator.OperationPublish, orchestrator.StateFailed)
	if err := s.Record(ctx, res, orchestrator.ErrPushRejected); err != nil {
		t.Fatal(err)
	}

	run, err := s.Get(ctx, uuid.MustParse(res.ID))
	if err != nil {
		t.Fatal(err)
	}
	if !run.Failed() || run.Error != orchestrator.ErrPushRejected.Error() {
		t.Errorf("unexpected error %q", run.Error)
	}
}

func TestService_ListAndPrune(t *testing.T) {
	ctx := context.Background()
	s := newService(t, Config{Retain: 3})

	ops := []orchestrator.Operation{
		orchestrator.OperationClone,
		orchestrator.OperationRefresh,
		orchestrator.OperationPublish,
		orchestrator.OperationRefresh,
	}
	ids := make([]string, 0, len(ops))
	for _, op := range ops {
		res := result(op, orchestrator.StateDone)
		ids = append(ids, res.ID)
		if err := s.Record(ctx, res, nil); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := s.List(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	got := make([]string, 0, len(runs))
	for _, r := range runs {
		got = append(got, r.ID.String())
	}
	if diff := cmp.Diff([]string{ids[3], ids[2], ids[1]}, got); diff != "" {
		t.Errorf("expected newest first with the oldest pruned (-want +got):\n%s", diff)
	}

	limited, err := s.List(ctx, 1)
	if err != nil || len(limited) != 1 || limited[0].ID.String() != ids[3] {
		t.Errorf("List(1) = %v, %v", limited, err)
	}

	refreshes, err := s.ListByOperation(ctx, orchestrator.OperationRefresh)
	if err != nil {
		t.Fatal(err)
	}
	if len(refreshes) != 2 || refreshes[0].ID.String() != ids[3] {
		t.Errorf("unexpected refresh runs %+v", refreshes)
	}

	clones, err := s.ListByOperation(ctx, orchestrator.OperationClone)
	if err != nil || len(clones) != 0 {
		t.Errorf("pruned run should leave no index entry, got %v %v", clones, err)
	}
}
