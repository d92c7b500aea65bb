package session

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thywilljoshua/pdf-summarizer/internal/config"
	"github.com/thywilljoshua/pdf-summarizer/internal/segment"
	"github.com/thywilljoshua/pdf-summarizer/internal/summarize"
)

func testStore() *Store {
	s := NewStore()
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return s
}

func doc(titles ...string) Document {
	d := Document{FileName: "book.pdf", Pages: 3}
	for i, t := range titles {
		d.Chapters = append(d.Chapters, segment.Chapter{Ordinal: i, Title: t})
	}
	return d
}

func TestCreateAndGet(t *testing.T) {
	s := testStore()
	st := s.Create()

	_, err := uuid.Parse(st.ID)
	require.NoError(t, err)
	assert.False(t, st.HasDocument())

	got, err := s.Get(st.ID)
	require.NoError(t, err)
	assert.Equal(t, st, got)
	assert.Equal(t, 1, s.Len())

	_, err = s.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResetReplacesEverything(t *testing.T) {
	s := testStore()
	st := s.Create()

	first, err := s.Reset(st.ID, doc("One", "Two"))
	require.NoError(t, err)
	require.True(t, first.HasDocument())

	cfg := config.ModelConfig{Provider: config.ProviderOpenAI, ModelName: "gpt-4o"}
	_, err = s.SetReport(st.ID, first.DocumentID, cfg, &summarize.Report{Document: "book.pdf"})
	require.NoError(t, err)

	second, err := s.Reset(st.ID, doc("Only"))
	require.NoError(t, err)
	assert.NotEqual(t, first.DocumentID, second.DocumentID)
	assert.Nil(t, second.Report)
	assert.Nil(t, second.Config)
	assert.Len(t, second.Chapters, 1)
	assert.Equal(t, st.CreatedAt, second.CreatedAt)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
}

func TestSetReport(t *testing.T) {
	s := testStore()
	st := s.Create()
	cfg := config.ModelConfig{Provider: config.ProviderAnthropic}
	rep := &summarize.Report{Document: "book.pdf"}

	_, err := s.SetReport(st.ID, "", cfg, rep)
	assert.ErrorIs(t, err, ErrNoDocument)

	cur, err := s.Reset(st.ID, doc("One"))
	require.NoError(t, err)

	_, err = s.SetReport(st.ID, "old-document", cfg, rep)
	assert.ErrorIs(t, err, ErrStale)

	got, err := s.SetReport(st.ID, cur.DocumentID, cfg, rep)
	require.NoError(t, err)
	assert.Same(t, rep, got.Report)
	assert.Equal(t, config.ProviderAnthropic, got.Config.Provider)

	_, err = s.SetReport("missing", cur.DocumentID, cfg, rep)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	s := testStore()
	a := s.Create()
	b := s.Create()

	require.NoError(t, s.Delete(a.ID))
	_, err := s.Get(a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(a.ID), ErrNotFound)

	_, err = s.Get(b.ID)
	assert.NoError(t, err)
}

func TestSessionsAreIndependent(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	ids := make([]string, 20)
	for i := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st := s.Create()
			ids[i] = st.ID
			_, err := s.Reset(st.ID, doc("Chapter"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, s.Len())
	seen := map[string]bool{}
	for _, id := range ids {
		st, err := s.Get(id)
		require.NoError(t, err)
		assert.False(t, seen[st.DocumentID])
		seen[st.DocumentID] = true
	}
}
