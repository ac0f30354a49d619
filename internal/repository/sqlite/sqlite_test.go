package sqlite

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/aadish-25/todo-backend/internal/app/migrate"
	"github.com/aadish-25/todo-backend/internal/domain"
	"github.com/aadish-25/todo-backend/internal/repository"
	"github.com/aadish-25/todo-backend/pkg/config"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "todo.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	runner, err := migrate.New(repo.DB(), config.DriverSQLite, log)
	if err != nil {
		t.Fatalf("migrate runner: %v", err)
	}
	if err := runner.Ensure(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repo
}

func seedUser(t *testing.T, repo *Repository, email string) *domain.User {
	t.Helper()
	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     "user-" + email,
		Email:        email,
		PasswordHash: []byte("hash"),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repo.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func seedTodo(t *testing.T, repo *Repository, ownerID, title string) *domain.Todo {
	t.Helper()
	now := time.Now().UTC()
	todo := &domain.Todo{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      "work",
		Title:     title,
		Content:   "No description",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.CreateTodo(context.Background(), todo); err != nil {
		t.Fatalf("create todo: %v", err)
	}
	return todo
}

func TestCreateUserDuplicateEmailConflicts(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	first := seedUser(t, repo, "a@x.com")

	dup := &domain.User{
		ID:           uuid.NewString(),
		Username:     "impostor",
		Email:        "a@x.com",
		PasswordHash: []byte("other"),
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	if err := repo.CreateUser(ctx, dup); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	stored, err := repo.GetUserByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if stored.ID != first.ID || stored.Username != first.Username || string(stored.PasswordHash) != "hash" {
		t.Fatalf("stored user was modified: %+v", stored)
	}
}

func TestGetUserNotFound(t *testing.T) {
	repo := newTestRepository(t)
	if _, err := repo.GetUserByID(context.Background(), uuid.NewString()); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetUserByEmail(context.Background(), "nobody@x.com"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTodosAreScopedByOwner(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	alice := seedUser(t, repo, "alice@x.com")
	bob := seedUser(t, repo, "bob@x.com")

	first := seedTodo(t, repo, alice.ID, "first")
	second := seedTodo(t, repo, alice.ID, "second")
	seedTodo(t, repo, bob.ID, "bob's")

	todos, err := repo.ListTodos(ctx, alice.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(todos) != 2 || todos[0].ID != first.ID || todos[1].ID != second.ID {
		t.Fatalf("expected alice's todos in insertion order, got %+v", todos)
	}

	if _, err := repo.GetTodo(ctx, bob.ID, first.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for cross-owner get, got %v", err)
	}

	hijack := *first
	hijack.OwnerID = bob.ID
	hijack.Title = "hijacked"
	if err := repo.UpdateTodo(ctx, &hijack); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for cross-owner update, got %v", err)
	}
	if err := repo.DeleteTodo(ctx, bob.ID, first.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for cross-owner delete, got %v", err)
	}

	stored, err := repo.GetTodo(ctx, alice.ID, first.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Title != "first" {
		t.Fatalf("cross-owner update leaked through: %+v", stored)
	}
}

func TestUpdateAndDeleteTodo(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	alice := seedUser(t, repo, "alice@x.com")
	todo := seedTodo(t, repo, alice.ID, "draft")

	todo.Title = "final"
	todo.IsCompleted = true
	todo.UpdatedAt = time.Now().UTC().Add(time.Second)
	if err := repo.UpdateTodo(ctx, todo); err != nil {
		t.Fatalf("update: %v", err)
	}
	stored, err := repo.GetTodo(ctx, alice.ID, todo.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Title != "final" || !stored.IsCompleted || stored.Content != "No description" {
		t.Fatalf("unexpected stored todo: %+v", stored)
	}

	if err := repo.DeleteTodo(ctx, alice.ID, todo.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.DeleteTodo(ctx, alice.ID, todo.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestCreateTodoRequiresExistingOwner(t *testing.T) {
	repo := newTestRepository(t)
	todo := &domain.Todo{
		ID:        uuid.NewString(),
		OwnerID:   uuid.NewString(),
		Title:     "orphan",
		Content:   "x",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := repo.CreateTodo(context.Background(), todo); !errors.Is(err, repository.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for unknown owner, got %v", err)
	}
}
