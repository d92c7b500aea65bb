// Package session keeps per-user summarization state for the HTTP service.
// Sessions live in memory only.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/thywilljoshua/pdf-summarizer/internal/config"
	"github.com/thywilljoshua/pdf-summarizer/internal/segment"
	"github.com/thywilljoshua/pdf-summarizer/internal/summarize"
)

var (
	ErrNotFound   = errors.New("session not found")
	ErrNoDocument = errors.New("session has no document")
	ErrStale      = errors.New("document was replaced while summarizing")
)

// State is a snapshot of one session. Chapters and Report are shared with
// the store and must not be modified.
type State struct {
	ID         string              `json:"id"`
	DocumentID string              `json:"document_id,omitempty"`
	FileName   string              `json:"file_name,omitempty"`
	Pages      int                 `json:"pages,omitempty"`
	Chapters   []segment.Chapter   `json:"chapters,omitempty"`
	Config     *config.ModelConfig `json:"config,omitempty"`
	Report     *summarize.Report   `json:"report,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

func (s State) HasDocument() bool { return s.DocumentID != "" }

// Document is what an upload replaces.
type Document struct {
	FileName string
	Pages    int
	Chapters []segment.Chapter
}

type Store struct {
	mu       sync.RWMutex
	sessions map[string]*State
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{sessions: map[string]*State{}, now: time.Now}
}

func (s *Store) Create() State {
	now := s.now()
	st := &State{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}

	s.mu.Lock()
	s.sessions[st.ID] = st
	s.mu.Unlock()
	return *st
}

func (s *Store) Get(id string) (State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.sessions[id]
	if !ok {
		return State{}, ErrNotFound
	}
	return *st, nil
}

// Reset replaces the session's document and drops everything derived from
// the previous one.
func (s *Store) Reset(id string, doc Document) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[id]
	if !ok {
		return State{}, ErrNotFound
	}
	*st = State{
		ID:         st.ID,
		DocumentID: uuid.NewString(),
		FileName:   doc.FileName,
		Pages:      doc.Pages,
		Chapters:   doc.Chapters,
		CreatedAt:  st.CreatedAt,
		UpdatedAt:  s.now(),
	}
	return *st, nil
}

// SetReport stores the outcome of a run over documentID. It fails with
// ErrStale when another upload replaced the document in the meantime.
func (s *Store) SetReport(id, documentID string, cfg config.ModelConfig, rep *summarize.Report) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[id]
	switch {
	case !ok:
		return State{}, ErrNotFound
	case st.DocumentID == "":
		return State{}, ErrNoDocument
	case st.DocumentID != documentID:
		return State{}, ErrStale
	}
	st.Config = &cfg
	st.Report = rep
	st.UpdatedAt = s.now()
	return *st, nil
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
