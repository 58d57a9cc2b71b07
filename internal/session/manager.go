package session

import (
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/heimdex/heimdex-clipper/internal/timeline"
)

var ErrNotFound = errors.New("session not found")

// Manager keeps the open editing sessions. Sessions live in memory only:
// they are discarded when closed or once their export has been queued.
type Manager struct {
	policy    timeline.Policy
	previewer Previewer
	logger    *slog.Logger

	mu      sync.RWMutex
	editors map[string]*Editor
}

func NewManager(policy timeline.Policy, previewer Previewer, logger *slog.Logger) *Manager {
	return &Manager{
		policy:    policy,
		previewer: previewer,
		logger:    logger,
		editors:   make(map[string]*Editor),
	}
}

func (m *Manager) Policy() timeline.Policy {
	return m.policy
}

// Open starts a session for a loaded media item.
func (m *Manager) Open(mediaID string, duration float64, frameCount int) (*Editor, error) {
	st, err := New(uuid.NewString(), mediaID, duration, frameCount, m.policy)
	if err != nil {
		return nil, err
	}

	ed := NewEditor(st, m.policy, m.previewer, m.logger)

	m.mu.Lock()
	m.editors[st.ID] = ed
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.Info("session opened", "session_id", st.ID, "media_id", mediaID,
			"duration", duration, "frame_count", frameCount)
	}
	return ed, nil
}

func (m *Manager) Get(id string) (*Editor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ed, ok := m.editors[id]
	if !ok {
		return nil, ErrNotFound
	}
	return ed, nil
}

// Close discards a session and stops its background work.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	ed, ok := m.editors[id]
	delete(m.editors, id)
	m.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	ed.Close()
	if m.logger != nil {
		m.logger.Info("session closed", "session_id", id)
	}
	return nil
}

// CloseMedia discards every session editing mediaID.
func (m *Manager) CloseMedia(mediaID string) int {
	var ids []string
	m.mu.RLock()
	for id, ed := range m.editors {
		if ed.Snapshot().MediaID == mediaID {
			ids = append(ids, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range ids {
		m.Close(id)
	}
	return len(ids)
}

func (m *Manager) List() []State {
	m.mu.RLock()
	states := make([]State, 0, len(m.editors))
	for _, ed := range m.editors {
		states = append(states, ed.Snapshot())
	}
	m.mu.RUnlock()

	sort.Slice(states, func(i, j int) bool { return states[i].ID < states[j].ID })
	return states
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.editors)
}

func (m *Manager) CloseAll() {
	m.mu.Lock()
	editors := m.editors
	m.editors = make(map[string]*Editor)
	m.mu.Unlock()

	for _, ed := range editors {
		ed.Close()
	}
}
