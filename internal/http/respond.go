package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aadish-25/todo-backend/internal/repository"
	"github.com/aadish-25/todo-backend/internal/service/auth"
	"github.com/aadish-25/todo-backend/internal/service/todo"
)

var errBadRequest = errors.New("invalid JSON body")

// writeJSON writes JSON response with status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError sends an error message.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps service and repository errors onto status codes.
// Messages for 5xx never leak the underlying error.
func (r *Router) writeServiceError(w http.ResponseWriter, req *http.Request, err error) {
	status, kind, msg := classifyError(err)

	if setter, ok := w.(errorKindSetter); ok {
		setter.SetErrorKind(kind)
	}
	fields := []any{"error", err, "error_kind", kind, "method", req.Method, "path", req.URL.Path, "status", status}
	if user, ok := UserFromContext(req.Context()); ok {
		fields = append(fields, "user_id", user.ID)
	}
	if status >= http.StatusInternalServerError {
		r.logger.Error("request failed", fields...)
	} else {
		r.logger.Info("request rejected", fields...)
	}
	writeError(w, status, msg)
}

type errorKindSetter interface {
	SetErrorKind(string)
}

func classifyError(err error) (status int, kind, msg string) {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "bad_request", err.Error()
	case errors.Is(err, auth.ErrValidation), errors.Is(err, todo.ErrValidation):
		return http.StatusBadRequest, "validation", err.Error()
	case errors.Is(err, repository.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_argument", "invalid request"
	case errors.Is(err, auth.ErrAccountExists):
		return http.StatusBadRequest, "account_exists", "User already exists"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials", "Invalid credentials"
	case errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized, "missing_token", "Access token required"
	case errors.Is(err, auth.ErrUnknownUser):
		return http.StatusUnauthorized, "unknown_user", "Invalid token"
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusForbidden, "invalid_token", "Invalid or expired token"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found", "Todo not found"
	default:
		return http.StatusInternalServerError, "internal", "internal server error"
	}
}

// decodeJSON reads exactly one JSON object into dst, rejecting unknown fields.
func decodeJSON(req *http.Request, dst any) error {
	dec := json.NewDecoder(req.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: body exceeds %d bytes", errBadRequest, tooLarge.Limit)
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: body must contain a single object", errBadRequest)
	}
	return nil
}
