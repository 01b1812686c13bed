package v1

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/careerlink/portal-engine/internal/store/model"
)

const (
	IfMatchHeader = "If-Match"
	ETagHeader    = "ETag"
)

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s %q", name, chi.URLParam(r, name))
	}
	return id, nil
}

// expectedVersion reads the If-Match header. Both "3" and W/"3" are accepted.
func expectedVersion(r *http.Request) (*int, error) {
	raw := strings.TrimSpace(r.Header.Get(IfMatchHeader))
	if raw == "" || raw == "*" {
		return nil, nil
	}
	raw = strings.TrimPrefix(raw, "W/")
	raw = strings.Trim(raw, `"`)
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return nil, fmt.Errorf("invalid %s header %q", IfMatchHeader, r.Header.Get(IfMatchHeader))
	}
	return &v, nil
}

func setETag(w http.ResponseWriter, version int) {
	w.Header().Set(ETagHeader, strconv.Quote(strconv.Itoa(version)))
}

func queryUUID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", name, raw)
	}
	return &id, nil
}

func queryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q", name, raw)
	}
	return v, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return v, nil
}

func queryKind(r *http.Request) (*model.AccountKind, error) {
	raw := r.URL.Query().Get("kind")
	if raw == "" {
		return nil, nil
	}
	kind := model.AccountKind(raw)
	if !kind.Valid() {
		return nil, fmt.Errorf("invalid kind %q", raw)
	}
	return &kind, nil
}

func queryPriority(r *http.Request, name string) *model.Priority {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	p := model.Priority(raw)
	return &p
}

// queryList splits repeated and comma separated values.
func queryList(r *http.Request, name string) []string {
	var out []string
	for _, v := range r.URL.Query()[name] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
