package container

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-ddd-notes/config"
	"github.com/oksasatya/go-ddd-notes/internal/infrastructure/memory"
	"github.com/oksasatya/go-ddd-notes/internal/infrastructure/search"
)

func TestRepositoriesFallBackToMemory(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	users, notes := Repositories()
	assert.IsType(t, &memory.UserRepository{}, users)
	assert.IsType(t, &memory.NoteRepository{}, notes)
}

func TestServicesHonourToggles(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	es, err := search.NewClient([]string{"http://localhost:9200"}, "", "")
	require.NoError(t, err)
	SetES(es)
	SetConfig(&config.Config{ESNotesIndex: "notes", NoteCacheTTL: time.Minute})

	users, notes := Repositories()
	_, noteSvc := Services(users, notes)
	assert.Nil(t, noteSvc.Search)
	assert.Nil(t, noteSvc.Events)

	cfg.SearchEnabled = true
	userSvc, noteSvc := Services(users, notes)
	assert.NotNil(t, noteSvc.Search)
	assert.Equal(t, time.Minute, noteSvc.CacheTTL)
	assert.Equal(t, time.Minute, userSvc.CacheTTL)

	// events enabled without a publisher stays off and keeps synchronous indexing
	cfg.EventsEnabled = true
	_, noteSvc = Services(users, notes)
	assert.Nil(t, noteSvc.Events)
	assert.NotNil(t, noteSvc.Search)
}
