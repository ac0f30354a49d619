package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/aadish-25/todo-backend/internal/domain"
	"github.com/aadish-25/todo-backend/internal/repository"
)

type memoryKV struct {
	mu      sync.Mutex
	values  map[string][]byte
	ttls    map[string]time.Duration
	failGet bool
	failDel bool
}

func newMemoryKV() *memoryKV {
	return &memoryKV{values: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (m *memoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return nil, errors.New("connection refused")
	}
	v, ok := m.values[key]
	if !ok {
		return nil, ErrMiss
	}
	return v, nil
}

func (m *memoryKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *memoryKV) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDel {
		return errors.New("connection refused")
	}
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

type countingTodos struct {
	todos     []domain.Todo
	lists     int
	updateErr error
}

func (c *countingTodos) ListTodos(_ context.Context, ownerID string) ([]domain.Todo, error) {
	c.lists++
	out := make([]domain.Todo, 0)
	for _, t := range c.todos {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (c *countingTodos) CreateTodo(_ context.Context, todo *domain.Todo) error {
	c.todos = append(c.todos, *todo)
	return nil
}

func (c *countingTodos) GetTodo(_ context.Context, ownerID, todoID string) (*domain.Todo, error) {
	for _, t := range c.todos {
		if t.ID == todoID && t.OwnerID == ownerID {
			copied := t
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (c *countingTodos) UpdateTodo(_ context.Context, todo *domain.Todo) error {
	if c.updateErr != nil {
		return c.updateErr
	}
	for i, t := range c.todos {
		if t.ID == todo.ID && t.OwnerID == todo.OwnerID {
			c.todos[i] = *todo
			return nil
		}
	}
	return repository.ErrNotFound
}

func (c *countingTodos) DeleteTodo(_ context.Context, ownerID, todoID string) error {
	for i, t := range c.todos {
		if t.ID == todoID && t.OwnerID == ownerID {
			c.todos = append(c.todos[:i], c.todos[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestListTodosReadsThrough(t *testing.T) {
	backing := &countingTodos{todos: []domain.Todo{
		{ID: "t1", OwnerID: "alice", Title: "milk", Content: "c", CreatedAt: time.Unix(10, 0).UTC()},
		{ID: "t2", OwnerID: "bob", Title: "eggs", Content: "c"},
	}}
	kv := newMemoryKV()
	todos := NewTodos(backing, kv, time.Minute, newLogger())
	ctx := context.Background()

	first, err := todos.ListTodos(ctx, "alice")
	if err != nil {
		t.Fatalf("first list: %v", err)
	}
	second, err := todos.ListTodos(ctx, "alice")
	if err != nil {
		t.Fatalf("second list: %v", err)
	}
	if backing.lists != 1 {
		t.Fatalf("expected one store read, got %d", backing.lists)
	}
	if len(second) != 1 || second[0].ID != first[0].ID || second[0].Title != first[0].Title || !second[0].CreatedAt.Equal(first[0].CreatedAt) {
		t.Fatalf("cached list differs: %+v vs %+v", second, first)
	}
	if kv.ttls[listKeyPrefix+"alice"] != time.Minute {
		t.Fatalf("expected ttl applied, got %s", kv.ttls[listKeyPrefix+"alice"])
	}

	bobs, err := todos.ListTodos(ctx, "bob")
	if err != nil {
		t.Fatalf("bob list: %v", err)
	}
	if len(bobs) != 1 || bobs[0].ID != "t2" {
		t.Fatalf("owners must not share cache entries, got %+v", bobs)
	}
}

func TestWritesInvalidateOwnerList(t *testing.T) {
	backing := &countingTodos{}
	kv := newMemoryKV()
	todos := NewTodos(backing, kv, time.Minute, newLogger())
	ctx := context.Background()

	listLen := func(owner string) int {
		t.Helper()
		list, err := todos.ListTodos(ctx, owner)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		return len(list)
	}

	if n := listLen("alice"); n != 0 {
		t.Fatalf("expected empty list, got %d", n)
	}
	if err := todos.CreateTodo(ctx, &domain.Todo{ID: "t1", OwnerID: "alice", Title: "a", Content: "b"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if n := listLen("alice"); n != 1 {
		t.Fatalf("create did not invalidate, got %d", n)
	}

	if err := todos.UpdateTodo(ctx, &domain.Todo{ID: "t1", OwnerID: "alice", Title: "changed", Content: "b"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	list, err := todos.ListTodos(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list[0].Title != "changed" {
		t.Fatalf("update did not invalidate, got %+v", list[0])
	}

	if err := todos.DeleteTodo(ctx, "alice", "t1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n := listLen("alice"); n != 0 {
		t.Fatalf("delete did not invalidate, got %d", n)
	}
}

func TestFailedWriteKeepsCachedList(t *testing.T) {
	backing := &countingTodos{todos: []domain.Todo{{ID: "t1", OwnerID: "alice", Title: "a", Content: "b"}}}
	kv := newMemoryKV()
	todos := NewTodos(backing, kv, time.Minute, newLogger())
	ctx := context.Background()

	if _, err := todos.ListTodos(ctx, "alice"); err != nil {
		t.Fatalf("list: %v", err)
	}
	if err := todos.DeleteTodo(ctx, "bob", "t1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, ok := kv.values[listKeyPrefix+"alice"]; !ok {
		t.Fatalf("failed cross-owner delete must not touch alice's entry")
	}
}

func TestListFallsBackWhenRedisFails(t *testing.T) {
	backing := &countingTodos{todos: []domain.Todo{{ID: "t1", OwnerID: "alice", Title: "a", Content: "b"}}}
	kv := newMemoryKV()
	kv.failGet = true
	kv.failDel = true
	todos := NewTodos(backing, kv, 0, newLogger())
	ctx := context.Background()

	list, err := todos.ListTodos(ctx, "alice")
	if err != nil || len(list) != 1 {
		t.Fatalf("expected store fallback, got %+v, %v", list, err)
	}
	if err := todos.CreateTodo(ctx, &domain.Todo{ID: "t2", OwnerID: "alice", Title: "a", Content: "b"}); err != nil {
		t.Fatalf("create must succeed when invalidation fails: %v", err)
	}
	if todos.ttl != defaultTTL {
		t.Fatalf("expected default ttl, got %s", todos.ttl)
	}
}

func TestForeignOwnerEntryIsIgnored(t *testing.T) {
	backing := &countingTodos{}
	kv := newMemoryKV()
	kv.values[listKeyPrefix+"alice"] = []byte(`[{"id":"x","owner_id":"mallory","title":"t","content":"c"}]`)
	todos := NewTodos(backing, kv, time.Minute, newLogger())

	list, err := todos.ListTodos(context.Background(), "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 || backing.lists != 1 {
		t.Fatalf("expected store read past foreign entry, got %+v (reads %d)", list, backing.lists)
	}
}
