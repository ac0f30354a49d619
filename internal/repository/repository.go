package repository

import (
	"context"

	"github.com/aadish-25/todo-backend/internal/domain"
)

// UserRepository persists users.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
}

// TodoRepository persists todos. Every method is scoped by owner; a todo that
// exists under another owner is reported as ErrNotFound.
type TodoRepository interface {
	ListTodos(ctx context.Context, ownerID string) ([]domain.Todo, error)
	CreateTodo(ctx context.Context, todo *domain.Todo) error
	GetTodo(ctx context.Context, ownerID, todoID string) (*domain.Todo, error)
	UpdateTodo(ctx context.Context, todo *domain.Todo) error
	DeleteTodo(ctx context.Context, ownerID, todoID string) error
}

// Store is the full persistence surface used by the API.
type Store interface {
	UserRepository
	TodoRepository
	Ping(ctx context.Context) error
	Close() error
}
