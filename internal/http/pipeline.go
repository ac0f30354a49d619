package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// step is one stage of a request pipeline. It returns the request the next
// stage should see, or an error that ends the chain and becomes the response.
type step func(http.ResponseWriter, *http.Request) (*http.Request, error)

type contextSetter interface {
	SetContext(context.Context)
}

type requestIDKey struct{}

const requestIDHeader = "X-Request-ID"

// pipeline runs steps in order before handler, under the audit logger.
func (r *Router) pipeline(handler http.HandlerFunc, steps ...step) http.HandlerFunc {
	return r.audit(func(w http.ResponseWriter, req *http.Request) {
		setter, _ := w.(contextSetter)
		for _, s := range steps {
			next, err := s(w, req)
			if err != nil {
				r.writeServiceError(w, req, err)
				return
			}
			req = next
			if setter != nil {
				setter.SetContext(req.Context())
			}
		}
		handler(w, req)
	})
}

// assignRequestID keeps a caller supplied X-Request-ID or mints one.
func assignRequestID(w http.ResponseWriter, req *http.Request) (*http.Request, error) {
	id := strings.TrimSpace(req.Header.Get(requestIDHeader))
	if id == "" || len(id) > 128 {
		id = uuid.NewString()
	}
	w.Header().Set(requestIDHeader, id)
	return req.WithContext(context.WithValue(req.Context(), requestIDKey{}, id)), nil
}

func limitBody(w http.ResponseWriter, req *http.Request) (*http.Request, error) {
	if req.Body != nil {
		req.Body = http.MaxBytesReader(w, req.Body, maxBodyBytes)
	}
	return req, nil
}

func requestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
