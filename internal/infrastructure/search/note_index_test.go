package search_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-ddd-notes/internal/domain/entity"
	"github.com/oksasatya/go-ddd-notes/internal/infrastructure/search"
)

type recorded struct {
	Method string
	Path   string
	Body   string
}

type fakeES struct {
	mu       sync.Mutex
	requests []recorded
	status   int
	body     string
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recorded{Method: r.Method, Path: r.URL.Path, Body: string(b)})
	status, body := f.status, f.body
	f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	if status == 0 {
		status = http.StatusOK
	}
	if body == "" {
		body = `{}`
	}
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func (f *fakeES) last() recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newIndex(t *testing.T, f *fakeES) *search.NoteIndex {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	es, err := search.NewClient([]string{srv.URL}, "", "")
	require.NoError(t, err)
	return search.NewNoteIndex(es, "notes")
}

func TestNoteIndex_IndexNote(t *testing.T) {
	f := &fakeES{status: http.StatusCreated, body: `{"result":"created"}`}
	idx := newIndex(t, f)

	n := &entity.Note{ID: "n1", Title: "Groceries", Content: "Milk, eggs", UserID: "u1", CreatedAt: time.Now()}
	require.NoError(t, idx.IndexNote(context.Background(), n))

	req := f.last()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/notes/_doc/n1", req.Path)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(req.Body), &doc))
	assert.Equal(t, "Groceries", doc["title"])
	assert.Equal(t, "u1", doc["user_id"])
}

func TestNoteIndex_IndexNoteError(t *testing.T) {
	f := &fakeES{status: http.StatusBadRequest, body: `{"error":"bad"}`}
	idx := newIndex(t, f)

	err := idx.IndexNote(context.Background(), &entity.Note{ID: "n1"})
	assert.Error(t, err)
}

func TestNoteIndex_DeleteNote(t *testing.T) {
	f := &fakeES{}
	idx := newIndex(t, f)

	require.NoError(t, idx.DeleteNote(context.Background(), "n1"))
	req := f.last()
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "/notes/_doc/n1", req.Path)
}

func TestNoteIndex_DeleteMissingDocument(t *testing.T) {
	f := &fakeES{status: http.StatusNotFound, body: `{"result":"not_found"}`}
	idx := newIndex(t, f)

	assert.NoError(t, idx.DeleteNote(context.Background(), "n1"))
}

func TestNoteIndex_Search(t *testing.T) {
	f := &fakeES{body: `{"hits":{"hits":[
		{"_id":"n1","_source":{"id":"n1","title":"Groceries","content":"Milk","user_id":"u1","created_at":"2026-01-02T03:04:05Z"}},
		{"_id":"n2","_source":{"title":"Errands","content":"Bank","user_id":"u1"}}
	]}}`}
	idx := newIndex(t, f)

	notes, err := idx.Search(context.Background(), "u1", "milk", 0)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "n1", notes[0].ID)
	assert.Equal(t, 2026, notes[0].CreatedAt.Year())
	assert.Equal(t, "n2", notes[1].ID)

	req := f.last()
	assert.Equal(t, "/notes/_search", req.Path)
	var q map[string]any
	require.NoError(t, json.Unmarshal([]byte(req.Body), &q))
	assert.EqualValues(t, 10, q["size"])
	assert.Contains(t, req.Body, `"user_id":"u1"`)
}

func TestNoteIndex_EnsureIndexMapsUserIDAsKeyword(t *testing.T) {
	f := &fakeES{body: `{"acknowledged":true}`}
	idx := newIndex(t, f)

	require.NoError(t, idx.EnsureIndex(context.Background()))

	req := f.last()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/notes", req.Path)

	var body struct {
		Mappings struct {
			Properties map[string]struct {
				Type string `json:"type"`
			} `json:"properties"`
		} `json:"mappings"`
	}
	require.NoError(t, json.Unmarshal([]byte(req.Body), &body))
	assert.Equal(t, "keyword", body.Mappings.Properties["user_id"].Type)
	assert.Equal(t, "keyword", body.Mappings.Properties["id"].Type)
	assert.Equal(t, "text", body.Mappings.Properties["title"].Type)
}

func TestNoteIndex_EnsureIndexAlreadyExists(t *testing.T) {
	f := &fakeES{
		status: http.StatusBadRequest,
		body:   `{"error":{"type":"resource_already_exists_exception"},"status":400}`,
	}
	idx := newIndex(t, f)

	assert.NoError(t, idx.EnsureIndex(context.Background()))
}

func TestNoteIndex_EnsureIndexFailure(t *testing.T) {
	f := &fakeES{status: http.StatusForbidden, body: `{"error":{"type":"security_exception"},"status":403}`}
	idx := newIndex(t, f)

	assert.Error(t, idx.EnsureIndex(context.Background()))
}
