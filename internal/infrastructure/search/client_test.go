package search_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-ddd-notes/internal/domain/entity"
	"github.com/oksasatya/go-ddd-notes/internal/infrastructure/search"
)

func TestNewClient_RetriesUnavailableNode(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.ReadAll(r.Body)
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = io.WriteString(w, `{}`)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"result":"created"}`)
	}))
	t.Cleanup(srv.Close)

	es, err := search.NewClient([]string{srv.URL}, "", "")
	require.NoError(t, err)
	idx := search.NewNoteIndex(es, "notes")

	require.NoError(t, idx.IndexNote(context.Background(), &entity.Note{ID: "n1", Title: "t", Content: "c", UserID: "u1"}))
	assert.Equal(t, int32(2), calls.Load())
}

func TestNewClient_BasicAuthOnlyWithUsername(t *testing.T) {
	var auth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		_, _ = io.WriteString(w, `{}`)
	}))
	t.Cleanup(srv.Close)

	es, err := search.NewClient([]string{srv.URL}, "", "ignored")
	require.NoError(t, err)
	require.NoError(t, search.NewNoteIndex(es, "notes").DeleteNote(context.Background(), "n1"))
	assert.Equal(t, "", auth.Load())

	es, err = search.NewClient([]string{srv.URL}, "elastic", "secret")
	require.NoError(t, err)
	require.NoError(t, search.NewNoteIndex(es, "notes").DeleteNote(context.Background(), "n1"))
	assert.Contains(t, auth.Load(), "Basic ")
}
