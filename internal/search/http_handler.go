package search

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"catalogsearch/internal/entity"
	"catalogsearch/internal/httpx"
	"catalogsearch/internal/query"
)

//go:generate mockgen -destination=mocks/mock_searcher.go -package=mocks catalogsearch/internal/search Searcher

// Searcher is the part of Engine the HTTP layer needs.
type Searcher interface {
	Search(ctx context.Context, q *query.Group, catalogIDs []string) ([]*entity.Entity, error)
}

type HTTPHandler struct {
	engine Searcher
	log    *zap.Logger
}

func NewHTTPHandler(engine Searcher, log *zap.Logger) *HTTPHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPHandler{engine: engine, log: log}
}

// Search handles GET /v1/search?q=<query>&d=<catalog,catalog>
func (h *HTTPHandler) Search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.JSONErrorWithRequest(r, w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}
	raw := strings.TrimSpace(r.URL.Query().Get("q"))
	if raw == "" {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "VALIDATION_ERROR", "Query is required",
			[]httpx.ErrorDetail{{Field: "q", Message: "required"}})
		return
	}

	q := query.Parse(raw)
	results, err := h.engine.Search(r.Context(), q, splitIDs(r.URL.Query().Get("d")))
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			httpx.JSONErrorWithRequest(r, w, http.StatusGatewayTimeout, "SEARCH_TIMEOUT", "Search did not finish in time", nil)
			return
		}
		h.log.Error("search failed", zap.String("request_id", httpx.RequestIDFrom(r)), zap.Error(err))
		httpx.JSONErrorWithRequest(r, w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	httpx.JSONSuccessWithRequest(r, w, ViewsOf(results), map[string]interface{}{
		"total": len(results),
		"query": query.Format(q),
	})
}

// Query handles GET /v1/query?q=<query>&syntax=string|rpn|text|format and
// shows how a query is interpreted.
func (h *HTTPHandler) Query(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.JSONErrorWithRequest(r, w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}
	raw := r.URL.Query().Get("q")
	if strings.TrimSpace(raw) == "" {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "VALIDATION_ERROR", "Query is required",
			[]httpx.ErrorDetail{{Field: "q", Message: "required"}})
		return
	}
	syntax := strings.ToLower(r.URL.Query().Get("syntax"))
	out, ok := Render(query.Parse(raw), syntax)
	if !ok {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown syntax",
			[]httpx.ErrorDetail{{Field: "syntax", Message: "one of string, rpn, text, format"}})
		return
	}
	if syntax == "" {
		syntax = "string"
	}
	httpx.JSONSuccessWithRequest(r, w, map[string]string{
		"input":  raw,
		"syntax": syntax,
		"output": out,
	}, nil)
}

// Render serializes q in one of the debug syntaxes. An empty syntax is the
// debug string form.
func Render(q *query.Group, syntax string) (string, bool) {
	switch strings.ToLower(syntax) {
	case "", "string":
		return q.String(), true
	case "rpn":
		return query.RPN(q), true
	case "text":
		return query.Text(q), true
	case "format":
		return query.Format(q), true
	}
	return "", false
}

func splitIDs(s string) []string {
	var out []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
