package tracker

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/spf13/afero"

	"watchlog/models"
	"watchlog/utils/optimistic"
)

const baselinesFile = "season_trackers.json"

// BaselineStore holds the device-local season-count baselines for tracked
// series. The file is an annotation layer over the central entry log: losing
// or resetting it only means the next poll re-seeds baselines, so reads are
// permissive and never fail on corrupt or absent data.
type BaselineStore struct {
	mu        sync.RWMutex
	fs        afero.Fs
	path      string
	baselines map[int64]models.SeriesSeasonTracker
}

func NewBaselineStore(fs afero.Fs, dir string) *BaselineStore {
	s := &BaselineStore{
		fs:        fs,
		path:      filepath.Join(dir, baselinesFile),
		baselines: make(map[int64]models.SeriesSeasonTracker),
	}
	s.load()
	return s
}

func (s *BaselineStore) load() {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return
	}
	var stored map[int64]models.SeriesSeasonTracker
	if err := json.Unmarshal(data, &stored); err != nil || stored == nil {
		// Corrupt baseline file degrades to an empty set. JSON null
		// decodes into a nil map with no error, so guard that too.
		return
	}
	s.baselines = stored
}

// All returns every tracked baseline, ordered by series name.
func (s *BaselineStore) All() []models.SeriesSeasonTracker {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.SeriesSeasonTracker, 0, len(s.baselines))
	for _, t := range s.baselines {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SeriesName != out[j].SeriesName {
			return out[i].SeriesName < out[j].SeriesName
		}
		return out[i].TMDBID < out[j].TMDBID
	})
	return out
}

func (s *BaselineStore) Get(tmdbID int64) (models.SeriesSeasonTracker, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.baselines[tmdbID]
	return t, ok
}

// Upsert stores a baseline. An empty incoming cover image keeps the stored
// one so a metadata hiccup does not blank the card art.
func (s *BaselineStore) Upsert(t models.SeriesSeasonTracker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.baselines[t.TMDBID]; ok && t.CoverImage == "" {
		t.CoverImage = existing.CoverImage
	}

	return optimistic.Mutation[map[int64]models.SeriesSeasonTracker]{
		Snapshot: s.snapshotLocked,
		Apply:    func() { s.baselines[t.TMDBID] = t },
		Restore:  func(prev map[int64]models.SeriesSeasonTracker) { s.baselines = prev },
		Commit:   s.persistLocked,
	}.Run()
}

func (s *BaselineStore) Remove(tmdbID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.baselines[tmdbID]; !ok {
		return nil
	}

	return optimistic.Mutation[map[int64]models.SeriesSeasonTracker]{
		Snapshot: s.snapshotLocked,
		Apply:    func() { delete(s.baselines, tmdbID) },
		Restore:  func(prev map[int64]models.SeriesSeasonTracker) { s.baselines = prev },
		Commit:   s.persistLocked,
	}.Run()
}

func (s *BaselineStore) snapshotLocked() map[int64]models.SeriesSeasonTracker {
	snap := make(map[int64]models.SeriesSeasonTracker, len(s.baselines))
	for k, v := range s.baselines {
		snap[k] = v
	}
	return snap
}

func (s *BaselineStore) persistLocked() error {
	data, err := json.MarshalIndent(s.baselines, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal baselines: %w", err)
	}
	return writeFileAtomic(s.fs, s.path, data)
}

// writeFileAtomic writes via a temp file and rename so a crash mid-write
// never leaves a truncated store behind.
func writeFileAtomic(fs afero.Fs, path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	tmp := fmt.Sprintf("%s.tmp-%d", path, time.Now().UnixNano())
	if err := afero.WriteFile(fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp store: %w", err)
	}
	if err := fs.Rename(tmp, path); err != nil {
		_ = fs.Remove(tmp)
		return fmt.Errorf("replace store: %w", err)
	}
	return nil
}
