package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-core-fx/fiberfx/validation"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/modelsync/modelsync/internal/journal"
	"github.com/modelsync/modelsync/internal/orchestrator"
	"github.com/modelsync/modelsync/internal/vcs"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap/zaptest"
)

func TestErrorsHandler(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{orchestrator.ErrBusy, fiber.StatusConflict},
		{orchestrator.ErrWorkingTreeModified, fiber.StatusConflict},
		{fmt.Errorf("%w: main", orchestrator.ErrCannotDeleteBranch), fiber.StatusConflict},
		{orchestrator.ErrSaveDeclined, fiber.StatusConflict},
		{orchestrator.ErrPushRejected, fiber.StatusConflict},
		{orchestrator.ErrCancelled, fiber.StatusConflict},
		{vcs.ErrRepositoryAlreadyExists, fiber.StatusConflict},
		{fmt.Errorf("%w: denied", orchestrator.ErrAuthentication), fiber.StatusUnauthorized},
		{orchestrator.ErrMergeConflictUnresolved, fiber.StatusUnprocessableEntity},
		{orchestrator.ErrNotFound, fiber.StatusNotFound},
		{journal.ErrNotFound, fiber.StatusNotFound},
		{orchestrator.ErrNetwork, fiber.StatusBadGateway},
		{validation.Errors{{Field: "Email", Tag: "email", Message: "invalid email"}}, fiber.StatusBadRequest},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}

	h := &Handler{}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			app := fiber.New()
			app.Use(h.errorsHandler)
			app.Get("/", func(*fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestRespond_UnresolvedReturnsRun(t *testing.T) {
	h := &Handler{}
	res := &orchestrator.Result{
		ID:        "run-1",
		Operation: orchestrator.OperationRefresh,
		State:     orchestrator.StateFailed,
		Problems:  []string{`missing object "ghost" referenced as target by AssignmentRelationship "rel-1"`},
	}

	app := fiber.New()
	app.Use(h.errorsHandler)
	app.Post("/", func(c *fiber.Ctx) error {
		return h.respond(c, res, fmt.Errorf("%w: ghost", orchestrator.ErrMergeConflictUnresolved))
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body FailedResultResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Run.ID != "run-1" || len(body.Run.Problems) != 1 || body.Run.State != "FAILED" {
		t.Errorf("unexpected body %+v", body)
	}
	if body.Run.Commits == nil || body.Run.Conflicts == nil {
		t.Error("empty lists should be encoded as []")
	}
}

func TestSyncOptions(t *testing.T) {
	h := &Handler{validator: validator.New(), logger: zaptest.NewLogger(t)}

	var got orchestrator.Options
	app := fiber.New()
	app.Post("/", func(c *fiber.Ctx) error {
		opts, err := h.syncOptions(c)
		if err != nil {
			return err
		}
		got = opts
		return c.SendStatus(fiber.StatusNoContent)
	})

	post := func(body string) int {
		t.Helper()
		var r io.Reader
		if body != "" {
			r = strings.NewReader(body)
		}
		req := httptest.NewRequest(fiber.MethodPost, "/", r)
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatal(err)
		}
		return resp.StatusCode
	}

	if code := post(""); code != fiber.StatusNoContent {
		t.Fatalf("empty body: status %d", code)
	}
	if got.Message != "" || got.Credentials != nil {
		t.Errorf("empty body should give zero options, got %+v", got)
	}

	if code := post(`{"message":"edit","credentials":{"username":"alice"}}`); code != fiber.StatusNoContent {
		t.Fatalf("status %d", code)
	}
	if got.Message != "edit" || got.Credentials == nil || got.Credentials.Username != "alice" {
		t.Errorf("unexpected options %+v", got)
	}

	if code := post(`{"message":`); code != fiber.StatusBadRequest {
		t.Errorf("malformed body: status %d", code)
	}
	if code := post(`{"message":"` + strings.Repeat("x", 1001) + `"}`); code != fiber.StatusBadRequest {
		t.Errorf("long message: status %d", code)
	}
}

func TestUser(t *testing.T) {
	logger := zaptest.NewLogger(t)
	path := t.TempDir()

	vcsService := vcs.NewService(vcs.Config{DefaultBranch: "main"}, logger)
	service := orchestrator.NewService(
		orchestrator.Config{Path: path},
		vcsService,
		nil,
		orchestrator.StaticCredentials{},
		orchestrator.NewEventLog(0),
		nil,
		orchestrator.NewMetrics(prometheus.NewRegistry()),
		logger,
	)
	h := &Handler{orchestrator: service, validator: validator.New(), logger: logger}

	app := fiber.New()
	h.Register(app)

	do := func(method, body string) (int, UserResponse) {
		t.Helper()
		var r io.Reader
		if body != "" {
			r = strings.NewReader(body)
		}
		req := httptest.NewRequest(method, "/repository/user", r)
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatal(err)
		}

		var user UserResponse
		if resp.StatusCode == fiber.StatusOK {
			if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
				t.Fatal(err)
			}
		}
		return resp.StatusCode, user
	}

	if code, _ := do(fiber.MethodGet, ""); code != fiber.StatusNotFound {
		t.Fatalf("no repository: status %d", code)
	}

	if _, err := vcsService.Init(path, ""); err != nil {
		t.Fatal(err)
	}

	if code, _ := do(fiber.MethodPut, `{"name":"Alice","email":"not an email"}`); code != fiber.StatusBadRequest {
		t.Errorf("invalid email: status %d", code)
	}
	if code, _ := do(fiber.MethodPut, `{"email":"alice@example.com"}`); code != fiber.StatusBadRequest {
		t.Errorf("missing name: status %d", code)
	}

	want := UserResponse{Name: "Alice", Email: "alice@example.com"}
	if code, got := do(fiber.MethodPut, `{"name":"Alice","email":"alice@example.com"}`); code != fiber.StatusOK || got != want {
		t.Fatalf("put: status %d, body %+v", code, got)
	}
	if code, got := do(fiber.MethodGet, ""); code != fiber.StatusOK || got != want {
		t.Errorf("get: status %d, body %+v", code, got)
	}
}
