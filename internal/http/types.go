package httpx

import (
	"github.com/aadish-25/todo-backend/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status     string         `json:"status"`
	Components map[string]any `json:"components"`
	Timestamp  string         `json:"timestamp"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type registerResponse struct {
	Message string       `json:"message"`
	User    userResponse `json:"user"`
}

type loginResponse struct {
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    userResponse `json:"user"`
}

type createTodoRequest struct {
	Name    string `json:"name"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type updateTodoRequest struct {
	Name        *string `json:"name"`
	Title       *string `json:"title"`
	Content     *string `json:"content"`
	IsCompleted *bool   `json:"isCompleted"`
}

func (u updateTodoRequest) patch() domain.TodoPatch {
	return domain.TodoPatch{Name: u.Name, Title: u.Title, Content: u.Content, IsCompleted: u.IsCompleted}
}

type todoResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	IsCompleted bool   `json:"isCompleted"`
}

type createTodoResponse struct {
	Message string       `json:"message"`
	Data    todoResponse `json:"data"`
}

type getTodoResponse struct {
	Data todoResponse `json:"data"`
}

type updateTodoResponse struct {
	Updated bool         `json:"updated"`
	Data    todoResponse `json:"data"`
}

type deleteTodoResponse struct {
	Deleted bool `json:"deleted"`
}

func newUserResponse(user *domain.User) userResponse {
	return userResponse{ID: user.ID, Username: user.Username, Email: user.Email}
}

func newTodoResponse(todo domain.Todo) todoResponse {
	return todoResponse{
		ID:          todo.ID,
		Name:        todo.Name,
		Title:       todo.Title,
		Content:     todo.Content,
		IsCompleted: todo.IsCompleted,
	}
}
