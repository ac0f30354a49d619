package httpx

import (
	"net/http"

	"github.com/aadish-25/todo-backend/internal/domain"
	"github.com/aadish-25/todo-backend/internal/service/todo"
)

func (r *Router) handleRegister(w http.ResponseWriter, req *http.Request) {
	var payload registerRequest
	if err := decodeJSON(req, &payload); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	user, err := r.auth.Register(req.Context(), payload.Username, payload.Email, payload.Password)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, registerResponse{
		Message: "User registered successfully",
		User:    newUserResponse(user),
	})
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	var payload loginRequest
	if err := decodeJSON(req, &payload); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	user, token, err := r.auth.Login(req.Context(), payload.Email, payload.Password)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Message: "Login successful",
		Token:   token,
		User:    newUserResponse(user),
	})
}

func (r *Router) handleListTodos(w http.ResponseWriter, req *http.Request) {
	owner := mustUser(req)
	todos, err := r.todos.List(req.Context(), owner.ID)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	payload := make([]todoResponse, 0, len(todos))
	for _, t := range todos {
		payload = append(payload, newTodoResponse(t))
	}
	writeJSON(w, http.StatusOK, payload)
}

func (r *Router) handleCreateTodo(w http.ResponseWriter, req *http.Request) {
	owner := mustUser(req)
	var payload createTodoRequest
	if err := decodeJSON(req, &payload); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	created, err := r.todos.Create(req.Context(), owner.ID, todo.CreateInput{
		Name:    payload.Name,
		Title:   payload.Title,
		Content: payload.Content,
	})
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, createTodoResponse{Message: "Todo created", Data: newTodoResponse(*created)})
}

func (r *Router) handleGetTodo(w http.ResponseWriter, req *http.Request) {
	owner := mustUser(req)
	found, err := r.todos.Get(req.Context(), owner.ID, req.PathValue("id"))
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, getTodoResponse{Data: newTodoResponse(*found)})
}

func (r *Router) handleUpdateTodo(w http.ResponseWriter, req *http.Request) {
	owner := mustUser(req)
	var payload updateTodoRequest
	if err := decodeJSON(req, &payload); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	updated, err := r.todos.Update(req.Context(), owner.ID, req.PathValue("id"), payload.patch())
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, updateTodoResponse{Updated: true, Data: newTodoResponse(*updated)})
}

func (r *Router) handleDeleteTodo(w http.ResponseWriter, req *http.Request) {
	owner := mustUser(req)
	if err := r.todos.Delete(req.Context(), owner.ID, req.PathValue("id")); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteTodoResponse{Deleted: true})
}

// mustUser returns the user placed on the context by the auth step.
// Handlers behind authenticate are never reached without one.
func mustUser(req *http.Request) *domain.User {
	user, ok := UserFromContext(req.Context())
	if !ok {
		panic("httpx: handler registered without the authenticate step")
	}
	return user
}
