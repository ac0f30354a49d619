// Package sqlite implements the repository interfaces over an embedded SQLite
// database for single-node deployments and tests.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/aadish-25/todo-backend/internal/domain"
	"github.com/aadish-25/todo-backend/internal/repository"
)

// Repository implements persistence interfaces on SQLite.
type Repository struct {
	db *sql.DB
}

var (
	_ repository.UserRepository = (*Repository)(nil)
	_ repository.TodoRepository = (*Repository)(nil)
	_ repository.Store          = (*Repository)(nil)
)

const (
	userColumns = `id, username, email, password_hash, created_at, updated_at`
	todoColumns = `id, owner_id, name, title, content, is_completed, created_at, updated_at`
)

// Open opens the database file at path with foreign keys enforced.
// Schema is managed by the migrate runner, not here.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return &Repository{db: db}, nil
}

// DB returns the raw handle for the migration runner.
func (r *Repository) DB() *sql.DB {
	return r.db
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close releases the database handle.
func (r *Repository) Close() error {
	return r.db.Close()
}

// CreateUser inserts a user. A duplicate email yields repository.ErrConflict.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	const query = `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		toMillis(user.CreatedAt),
		toMillis(user.UpdatedAt),
	)
	return mapError(err)
}

// GetUserByEmail fetches a user by email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

// GetUserByID retrieves a user by identifier.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

// ListTodos returns the owner's todos in insertion order.
func (r *Repository) ListTodos(ctx context.Context, ownerID string) ([]domain.Todo, error) {
	const query = `SELECT ` + todoColumns + ` FROM todos WHERE owner_id = ? ORDER BY rowid ASC`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
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
	const query = `INSERT INTO todos (` + todoColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		todo.ID,
		todo.OwnerID,
		todo.Name,
		todo.Title,
		todo.Content,
		todo.IsCompleted,
		toMillis(todo.CreatedAt),
		toMillis(todo.UpdatedAt),
	)
	return mapError(err)
}

// GetTodo loads a todo matching both id and owner.
func (r *Repository) GetTodo(ctx context.Context, ownerID, todoID string) (*domain.Todo, error) {
	const query = `SELECT ` + todoColumns + ` FROM todos WHERE id = ? AND owner_id = ?`
	return scanTodo(r.db.QueryRowContext(ctx, query, todoID, ownerID))
}

// UpdateTodo overwrites the mutable fields of a todo matching both id and owner.
func (r *Repository) UpdateTodo(ctx context.Context, todo *domain.Todo) error {
	const query = `UPDATE todos
		SET name = ?, title = ?, content = ?, is_completed = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?
		RETURNING created_at`
	var createdAt int64
	err := r.db.QueryRowContext(ctx, query,
		todo.Name,
		todo.Title,
		todo.Content,
		todo.IsCompleted,
		toMillis(todo.UpdatedAt),
		todo.ID,
		todo.OwnerID,
	).Scan(&createdAt)
	if err != nil {
		return mapError(err)
	}
	todo.CreatedAt = fromMillis(createdAt)
	return nil
}

// DeleteTodo removes a todo matching both id and owner.
func (r *Repository) DeleteTodo(ctx context.Context, ownerID, todoID string) error {
	const query = `DELETE FROM todos WHERE id = ? AND owner_id = ?`
	res, err := r.db.ExecContext(ctx, query, todoID, ownerID)
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*domain.User, error) {
	var (
		u                    domain.User
		createdAt, updatedAt int64
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &createdAt, &updatedAt); err != nil {
		return nil, mapError(err)
	}
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	return &u, nil
}

func scanTodo(row scanner) (*domain.Todo, error) {
	var (
		t                    domain.Todo
		createdAt, updatedAt int64
	)
	if err := row.Scan(&t.ID, &t.OwnerID, &t.Name, &t.Title, &t.Content, &t.IsCompleted, &createdAt, &updatedAt); err != nil {
		return nil, mapError(err)
	}
	t.CreatedAt = fromMillis(createdAt)
	t.UpdatedAt = fromMillis(updatedAt)
	return &t, nil
}

// toMillis normalizes timestamps into millisecond precision for storage.
func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_UNIQUE, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY:
			return repository.ErrConflict
		case sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY, sqlite3lib.SQLITE_CONSTRAINT_CHECK, sqlite3lib.SQLITE_CONSTRAINT_NOTNULL:
			return repository.ErrInvalidArgument
		}
	}
	return err
}
