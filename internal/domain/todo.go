package domain

import "time"

// Todo is a task record owned by exactly one user.
type Todo struct {
	ID          string
	OwnerID     string
	Name        string
	Title       string
	Content     string
	IsCompleted bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TodoPatch lists the fields of a partial update; nil fields keep their stored value.
type TodoPatch struct {
	Name        *string
	Title       *string
	Content     *string
	IsCompleted *bool
}

// Empty reports whether the patch assigns no field.
func (p TodoPatch) Empty() bool {
	return p.Name == nil && p.Title == nil && p.Content == nil && p.IsCompleted == nil
}

// Apply copies the assigned fields onto todo.
func (p TodoPatch) Apply(todo *Todo) {
	if p.Name != nil {
		todo.Name = *p.Name
	}
	if p.Title != nil {
		todo.Title = *p.Title
	}
	if p.Content != nil {
		todo.Content = *p.Content
	}
	if p.IsCompleted != nil {
		todo.IsCompleted = *p.IsCompleted
	}
}
