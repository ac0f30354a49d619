package repository

import (
	"context"
	"time"

	"github.com/aadish-25/todo-backend/internal/domain"
)

type timeoutStore struct {
	next    Store
	timeout time.Duration
}

// WithTimeout bounds every store call by d, derived from the caller's context.
func WithTimeout(next Store, d time.Duration) Store {
	if d <= 0 {
		return next
	}
	return &timeoutStore{next: next, timeout: d}
}

func (s *timeoutStore) CreateUser(ctx context.Context, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.CreateUser(ctx, user)
}

func (s *timeoutStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.GetUserByEmail(ctx, email)
}

func (s *timeoutStore) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.GetUserByID(ctx, id)
}

func (s *timeoutStore) ListTodos(ctx context.Context, ownerID string) ([]domain.Todo, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.ListTodos(ctx, ownerID)
}

func (s *timeoutStore) CreateTodo(ctx context.Context, todo *domain.Todo) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.CreateTodo(ctx, todo)
}

func (s *timeoutStore) GetTodo(ctx context.Context, ownerID, todoID string) (*domain.Todo, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.GetTodo(ctx, ownerID, todoID)
}

func (s *timeoutStore) UpdateTodo(ctx context.Context, todo *domain.Todo) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.UpdateTodo(ctx, todo)
}

func (s *timeoutStore) DeleteTodo(ctx context.Context, ownerID, todoID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.DeleteTodo(ctx, ownerID, todoID)
}

func (s *timeoutStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.Ping(ctx)
}

func (s *timeoutStore) Close() error {
	return s.next.Close()
}
