package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/aadish-25/todo-backend/internal/domain"
	"github.com/aadish-25/todo-backend/internal/repository"
)

const (
	listKeyPrefix = "todo:list:"
	opTimeout     = 250 * time.Millisecond
	defaultTTL    = 30 * time.Second
)

// Todos caches each owner's todo list under a key derived from the owner id.
// Writes go to the store first and then drop that owner's entry. Single-todo
// reads are not cached, so id+owner lookups always reach the store.
type Todos struct {
	next   repository.TodoRepository
	kv     KV
	ttl    time.Duration
	logger *slog.Logger
}

var _ repository.TodoRepository = (*Todos)(nil)

// NewTodos wraps next with a list cache stored in kv.
func NewTodos(next repository.TodoRepository, kv KV, ttl time.Duration, logger *slog.Logger) *Todos {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Todos{next: next, kv: kv, ttl: ttl, logger: logger}
}

type cachedTodo struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	IsCompleted bool      `json:"is_completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListTodos serves the owner's list from Redis when present and fills it on a miss.
// Redis failures fall back to the store.
func (c *Todos) ListTodos(ctx context.Context, ownerID string) ([]domain.Todo, error) {
	key := listKeyPrefix + ownerID
	if todos, ok := c.lookup(ctx, key, ownerID); ok {
		return todos, nil
	}
	todos, err := c.next.ListTodos(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, todos)
	return todos, nil
}

// GetTodo passes through to the store.
func (c *Todos) GetTodo(ctx context.Context, ownerID, todoID string) (*domain.Todo, error) {
	return c.next.GetTodo(ctx, ownerID, todoID)
}

// CreateTodo writes through and drops the owner's cached list.
func (c *Todos) CreateTodo(ctx context.Context, todo *domain.Todo) error {
	if err := c.next.CreateTodo(ctx, todo); err != nil {
		return err
	}
	c.invalidate(ctx, todo.OwnerID)
	return nil
}

// UpdateTodo writes through and drops the owner's cached list.
func (c *Todos) UpdateTodo(ctx context.Context, todo *domain.Todo) error {
	if err := c.next.UpdateTodo(ctx, todo); err != nil {
		return err
	}
	c.invalidate(ctx, todo.OwnerID)
	return nil
}

// DeleteTodo writes through and drops the owner's cached list.
func (c *Todos) DeleteTodo(ctx context.Context, ownerID, todoID string) error {
	if err := c.next.DeleteTodo(ctx, ownerID, todoID); err != nil {
		return err
	}
	c.invalidate(ctx, ownerID)
	return nil
}

func (c *Todos) lookup(ctx context.Context, key, ownerID string) ([]domain.Todo, bool) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	raw, err := c.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			c.logger.Warn("todo cache read failed", "op", "get", "error", err)
		}
		return nil, false
	}
	var cached []cachedTodo
	if err := json.Unmarshal(raw, &cached); err != nil {
		c.logger.Warn("todo cache entry unreadable", "key", key, "error", err)
		return nil, false
	}
	todos := make([]domain.Todo, 0, len(cached))
	for _, t := range cached {
		if t.OwnerID != ownerID {
			c.logger.Warn("todo cache entry has foreign owner", "key", key)
			return nil, false
		}
		todos = append(todos, domain.Todo(t))
	}
	return todos, true
}

func (c *Todos) store(ctx context.Context, key string, todos []domain.Todo) {
	cached := make([]cachedTodo, 0, len(todos))
	for _, t := range todos {
		cached = append(cached, cachedTodo(t))
	}
	raw, err := json.Marshal(cached)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := c.kv.Set(ctx, key, raw, c.ttl); err != nil {
		c.logger.Warn("todo cache write failed", "op", "set", "error", err)
	}
}

// invalidate ignores request cancellation; the write has already committed.
func (c *Todos) invalidate(ctx context.Context, ownerID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), opTimeout)
	defer cancel()
	if err := c.kv.Del(ctx, listKeyPrefix+ownerID); err != nil {
		c.logger.Warn("todo cache invalidation failed", "op", "del", "owner_id", ownerID, "error", err)
	}
}
