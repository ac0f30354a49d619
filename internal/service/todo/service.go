package todo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/aadish-25/todo-backend/internal/domain"
	"github.com/aadish-25/todo-backend/internal/repository"
)

// ErrValidation marks missing or empty required todo fields.
var ErrValidation = errors.New("invalid todo")

var errMissingOwner = errors.New("owner id required")

// CreateInput carries the caller-supplied fields of a new todo.
type CreateInput struct {
	Name    string
	Title   string
	Content string
}

// Service manages todos on behalf of a resolved owner. Every method takes the
// owner id first; it must come from the authenticated identity, never from input.
type Service struct {
	todos  repository.TodoRepository
	logger *slog.Logger
	now    func() time.Time
}

// New returns a todo service.
func New(todos repository.TodoRepository, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return Service{todos: todos, logger: logger, now: time.Now}
}

// List returns the owner's todos in storage order.
func (s Service) List(ctx context.Context, ownerID string) ([]domain.Todo, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	todos, err := s.todos.ListTodos(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return todos, nil
}

// Get returns one of the owner's todos.
func (s Service) Get(ctx context.Context, ownerID, todoID string) (*domain.Todo, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	todoID = strings.TrimSpace(todoID)
	if todoID == "" {
		return nil, repository.ErrNotFound
	}
	return s.todos.GetTodo(ctx, ownerID, todoID)
}

// Create stores a new incomplete todo bound to ownerID.
func (s Service) Create(ctx context.Context, ownerID string, input CreateInput) (*domain.Todo, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, fmt.Errorf("%w: content is required", ErrValidation)
	}
	now := s.now().UTC()
	todo := &domain.Todo{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      input.Name,
		Title:     input.Title,
		Content:   input.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.todos.CreateTodo(ctx, todo); err != nil {
		return nil, fmt.Errorf("create todo: %w", err)
	}
	s.logger.Info("todo created", "todo_id", todo.ID, "owner_id", ownerID)
	return todo, nil
}

// Update applies the assigned patch fields to one of the owner's todos.
// A todo owned by someone else is reported exactly like a missing one.
func (s Service) Update(ctx context.Context, ownerID, todoID string, patch domain.TodoPatch) (*domain.Todo, error) {
	todo, err := s.Get(ctx, ownerID, todoID)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, fmt.Errorf("%w: title cannot be empty", ErrValidation)
	}
	if patch.Content != nil && strings.TrimSpace(*patch.Content) == "" {
		return nil, fmt.Errorf("%w: content cannot be empty", ErrValidation)
	}
	if patch.Empty() {
		return todo, nil
	}
	patch.Apply(todo)
	todo.UpdatedAt = s.now().UTC()
	if err := s.todos.UpdateTodo(ctx, todo); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update todo: %w", err)
	}
	s.logger.Info("todo updated", "todo_id", todo.ID, "owner_id", ownerID)
	return todo, nil
}

// Delete removes one of the owner's todos.
func (s Service) Delete(ctx context.Context, ownerID, todoID string) error {
	if err := requireOwner(ownerID); err != nil {
		return err
	}
	todoID = strings.TrimSpace(todoID)
	if todoID == "" {
		return repository.ErrNotFound
	}
	if err := s.todos.DeleteTodo(ctx, ownerID, todoID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete todo: %w", err)
	}
	s.logger.Info("todo deleted", "todo_id", todoID, "owner_id", ownerID)
	return nil
}

func requireOwner(ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return errMissingOwner
	}
	return nil
}
