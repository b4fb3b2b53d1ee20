package tracker

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"watchlog/utils/optimistic"
)

const dismissalsFile = "dismissed_alerts.json"

// DismissalStore remembers which alert ids this device has dismissed.
// Absence or corruption of the backing file means nothing is dismissed.
type DismissalStore struct {
	mu        sync.RWMutex
	fs        afero.Fs
	path      string
	dismissed map[string]struct{}
}

func NewDismissalStore(fs afero.Fs, dir string) *DismissalStore {
	s := &DismissalStore{
		fs:        fs,
		path:      filepath.Join(dir, dismissalsFile),
		dismissed: make(map[string]struct{}),
	}
	s.load()
	return s
}

func (s *DismissalStore) load() {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return
	}
	for _, id := range ids {
		s.dismissed[id] = struct{}{}
	}
}

func (s *DismissalStore) IsDismissed(alertID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.dismissed[alertID]
	return ok
}

// Dismiss marks an alert id as suppressed. Dismissing twice is a no-op.
func (s *DismissalStore) Dismiss(alertID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.dismissed[alertID]; ok {
		return nil
	}

	return optimistic.Mutation[map[string]struct{}]{
		Snapshot: s.snapshotLocked,
		Apply:    func() { s.dismissed[alertID] = struct{}{} },
		Restore:  func(prev map[string]struct{}) { s.dismissed = prev },
		Commit:   s.persistLocked,
	}.Run()
}

// ClearAll wipes the dismissal set. Used by tests and the settings reset.
func (s *DismissalStore) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return optimistic.Mutation[map[string]struct{}]{
		Snapshot: s.snapshotLocked,
		Apply:    func() { s.dismissed = make(map[string]struct{}) },
		Restore:  func(prev map[string]struct{}) { s.dismissed = prev },
		Commit:   s.persistLocked,
	}.Run()
}

func (s *DismissalStore) snapshotLocked() map[string]struct{} {
	snap := make(map[string]struct{}, len(s.dismissed))
	for k := range s.dismissed {
		snap[k] = struct{}{}
	}
	return snap
}

func (s *DismissalStore) persistLocked() error {
	ids := make([]string, 0, len(s.dismissed))
	for id := range s.dismissed {
		ids = append(ids, id)
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshal dismissals: %w", err)
	}
	return writeFileAtomic(s.fs, s.path, data)
}
