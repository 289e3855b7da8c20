package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/go-ddd-notes/internal/domain/entity"
)

const requestTimeout = 3 * time.Second

// NoteIndex keeps an Elasticsearch index of notes in step with the database.
// Documents carry user_id as a keyword; no user document is ever written or removed.
type NoteIndex struct {
	ES    *elasticsearch.Client
	Index string
}

func NewNoteIndex(es *elasticsearch.Client, index string) *NoteIndex {
	return &NoteIndex{ES: es, Index: index}
}

type noteDoc struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	UserID    string `json:"user_id"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toDoc(n *entity.Note) noteDoc {
	return noteDoc{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		UserID:    n.UserID,
		CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: n.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func (d noteDoc) toNote() *entity.Note {
	n := &entity.Note{ID: d.ID, Title: d.Title, Content: d.Content, UserID: d.UserID}
	n.CreatedAt, _ = time.Parse(time.RFC3339Nano, d.CreatedAt)
	n.UpdatedAt, _ = time.Parse(time.RFC3339Nano, d.UpdatedAt)
	return n
}

// noteMapping pins user_id (and id) to keyword so the term filter in Search
// matches whole ids; dynamic mapping would make them analyzed text.
const noteMapping = `{
  "mappings": {
    "properties": {
      "id":         {"type": "keyword"},
      "user_id":    {"type": "keyword"},
      "title":      {"type": "text"},
      "content":    {"type": "text"},
      "created_at": {"type": "date"},
      "updated_at": {"type": "date"}
    }
  }
}`

// EnsureIndex creates the notes index with its mapping. An index that already
// exists is left alone.
func (x *NoteIndex) EnsureIndex(ctx context.Context) error {
	req := esapi.IndicesCreateRequest{Index: x.Index, Body: strings.NewReader(noteMapping)}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, x.ES)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if !res.IsError() {
		return nil
	}
	b, _ := io.ReadAll(res.Body)
	if res.StatusCode == http.StatusBadRequest && strings.Contains(string(b), "resource_already_exists_exception") {
		return nil
	}
	return fmt.Errorf("es create index %s: %s", x.Index, res.Status())
}

// IndexNote upserts the note document.
func (x *NoteIndex) IndexNote(ctx context.Context, n *entity.Note) error {
	b, err := json.Marshal(toDoc(n))
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: x.Index, DocumentID: n.ID, Body: bytes.NewReader(b), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, x.ES)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("es index note %s: %s", n.ID, res.Status())
	}
	return nil
}

// DeleteNote removes the note document. A missing document is not an error.
func (x *NoteIndex) DeleteNote(ctx context.Context, id string) error {
	req := esapi.DeleteRequest{Index: x.Index, DocumentID: id, Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, x.ES)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("es delete note %s: %s", id, res.Status())
	}
	return nil
}

// Search runs a multi_match over title and content restricted to one user's notes.
func (x *NoteIndex) Search(ctx context.Context, userID, q string, size int) ([]*entity.Note, error) {
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":  q,
						"fields": []string{"title^2", "content"},
					},
				},
				"filter": map[string]any{
					"term": map[string]any{"user_id": userID},
				},
			},
		},
		"size": size,
	}
	b, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := x.ES.Search(x.ES.Search.WithContext(c), x.ES.Search.WithIndex(x.Index), x.ES.Search.WithBody(bytes.NewReader(b)))
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("es search notes: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string  `json:"_id"`
				Source noteDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]*entity.Note, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		n := h.Source.toNote()
		if n.ID == "" {
			n.ID = h.ID
		}
		out = append(out, n)
	}
	return out, nil
}
