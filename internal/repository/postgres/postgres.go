package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aadish-25/todo-backend/internal/domain"
	"github.com/aadish-25/todo-backend/internal/repository"
)

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ensure Repository satisfies interfaces.
var (
	_ repository.UserRepository = (*Repository)(nil)
	_ repository.TodoRepository = (*Repository)(nil)
	_ repository.Store          = (*Repository)(nil)
)

const (
	userColumns = `id, username, email, password_hash, created_at, updated_at`
	todoColumns = `id, owner_id, name, title, content, is_completed, created_at, updated_at`
)

// Ping checks pool connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close releases pooled connections.
func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

// CreateUser inserts a user. A duplicate email yields repository.ErrConflict.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	const query = `INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.pool.Exec(ctx, query, user.ID, user.Username, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	return mapError(err)
}

// GetUserByEmail fetches a user by email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

// GetUserByID retrieves a user by identifier.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

// ListTodos returns the owner's todos in insertion order.
func (r *Repository) ListTodos(ctx context.Context, ownerID string) ([]domain.Todo, error) {
	const query = `SELECT ` + todoColumns + ` FROM todos
		WHERE owner_id = $1
		ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	todos := make([]domain.Todo, 0)
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, *todo)
	}
	return todos, rows.Err()
}

// CreateTodo inserts a todo bound to todo.OwnerID.
func (r *Repository) CreateTodo(ctx context.Context, todo *domain.Todo) error {
	const query = `INSERT INTO todos (` + todoColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.pool.Exec(ctx, query,
		todo.ID,
		todo.OwnerID,
		todo.Name,
		todo.Title,
		todo.Content,
		todo.IsCompleted,
		todo.CreatedAt,
		todo.UpdatedAt,
	)
	return mapError(err)
}

// GetTodo loads a todo matching both id and owner.
func (r *Repository) GetTodo(ctx context.Context, ownerID, todoID string) (*domain.Todo, error) {
	const query = `SELECT ` + todoColumns + ` FROM todos WHERE id = $1 AND owner_id = $2`
	return scanTodo(r.pool.QueryRow(ctx, query, todoID, ownerID))
}

// UpdateTodo overwrites the mutable fields of a todo matching both id and owner.
func (r *Repository) UpdateTodo(ctx context.Context, todo *domain.Todo) error {
	const query = `UPDATE todos
		SET name = $3,
			title = $4,
			content = $5,
			is_completed = $6,
			updated_at = $7
		WHERE id = $1 AND owner_id = $2
		RETURNING created_at`
	var createdAt time.Time
	err := r.pool.QueryRow(ctx, query,
		todo.ID,
		todo.OwnerID,
		todo.Name,
		todo.Title,
		todo.Content,
		todo.IsCompleted,
		todo.UpdatedAt,
	).Scan(&createdAt)
	if err != nil {
		return mapError(err)
	}
	todo.CreatedAt = createdAt
	return nil
}

// DeleteTodo removes a todo matching both id and owner.
func (r *Repository) DeleteTodo(ctx context.Context, ownerID, todoID string) error {
	const query = `DELETE FROM todos WHERE id = $1 AND owner_id = $2`
	tag, err := r.pool.Exec(ctx, query, todoID, ownerID)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

func scanTodo(row pgx.Row) (*domain.Todo, error) {
	var t domain.Todo
	if err := row.Scan(&t.ID, &t.OwnerID, &t.Name, &t.Title, &t.Content, &t.IsCompleted, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, mapError(err)
	}
	return &t, nil
}

// mapError translates driver errors into repository sentinels.
// A malformed uuid (22P02) cannot name an existing row, so it reads as not found.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return repository.ErrConflict
		case "22P02":
			return repository.ErrNotFound
		case "23503", "23514":
			return repository.ErrInvalidArgument
		}
	}
	return err
}
