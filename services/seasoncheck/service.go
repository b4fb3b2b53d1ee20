package seasoncheck

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"watchlog/models"
	"watchlog/utils/debounce"
)

// SeriesMetadata supplies current season counts for tracked series.
type SeriesMetadata interface {
	SeriesDetails(ctx context.Context, tmdbID int64) (models.SeriesDetails, error)
}

// Baselines is the device-local tracker store.
type Baselines interface {
	All() []models.SeriesSeasonTracker
	Get(tmdbID int64) (models.SeriesSeasonTracker, bool)
	Upsert(t models.SeriesSeasonTracker) error
}

// Dismissals filters alerts the user already suppressed.
type Dismissals interface {
	IsDismissed(alertID string) bool
}

// Service polls tracked series for newly released seasons. One pass walks
// every baseline sequentially with a fixed pause between requests; a busy
// flag makes overlapping invocations no-ops.
type Service struct {
	metadata   SeriesMetadata
	baselines  Baselines
	dismissals Dismissals

	pollDelay    time.Duration
	pollInterval time.Duration
	now          func() time.Time

	busyMu sync.Mutex
	busy   bool

	alertMu sync.RWMutex
	alerts  []models.NewSeasonAlert

	seedMu       sync.Mutex
	pendingSeeds map[int64]string
	seeder       *debounce.Debouncer

	// Background loop state
	loopMu  sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewService(metadata SeriesMetadata, baselines Baselines, dismissals Dismissals, pollDelay, pollInterval, seedDebounce time.Duration) *Service {
	return &Service{
		metadata:     metadata,
		baselines:    baselines,
		dismissals:   dismissals,
		pollDelay:    pollDelay,
		pollInterval: pollInterval,
		now:          time.Now,
		pendingSeeds: make(map[int64]string),
		seeder:       debounce.New(seedDebounce),
	}
}

// CheckAll polls every tracked series once. A series whose current season
// count exceeds its stored baseline emits an alert and raises the baseline;
// a count at or below the baseline only refreshes lastChecked, keeping the
// stored count as a monotonic floor. One series failing never aborts the
// rest. Returns the emitted alerts; a pass already in flight returns nil.
func (s *Service) CheckAll(ctx context.Context) []models.NewSeasonAlert {
	s.busyMu.Lock()
	if s.busy {
		s.busyMu.Unlock()
		log.Println("[seasoncheck] Check already running, skipping")
		return nil
	}
	s.busy = true
	s.busyMu.Unlock()

	defer func() {
		s.busyMu.Lock()
		s.busy = false
		s.busyMu.Unlock()
	}()

	var emitted []models.NewSeasonAlert

	tracked := s.baselines.All()
	for i, baseline := range tracked {
		if i > 0 && s.pollDelay > 0 {
			select {
			case <-ctx.Done():
				return emitted
			case <-time.After(s.pollDelay):
			}
		}

		alert, err := s.checkOne(ctx, baseline)
		if err != nil {
			log.Printf("[seasoncheck] Check failed for %s (%d): %v", baseline.SeriesName, baseline.TMDBID, err)
			continue
		}
		if alert != nil {
			emitted = append(emitted, *alert)
		}
	}

	if len(emitted) > 0 {
		s.alertMu.Lock()
		s.alerts = append(s.alerts, emitted...)
		s.alertMu.Unlock()
	}

	return emitted
}

func (s *Service) checkOne(ctx context.Context, baseline models.SeriesSeasonTracker) (*models.NewSeasonAlert, error) {
	details, err := s.metadata.SeriesDetails(ctx, baseline.TMDBID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()

	if details.SeasonCount <= baseline.LastKnownSeasonCount {
		// No new season. The stored count stays put even if the fetched
		// count dropped: upstream season removals are treated as noise.
		baseline.LastChecked = now
		if err := s.baselines.Upsert(baseline); err != nil {
			return nil, err
		}
		return nil, nil
	}

	alert := models.NewSeasonAlert{
		ID:              models.AlertID(baseline.TMDBID, details.SeasonCount, now),
		TMDBID:          baseline.TMDBID,
		SeriesName:      baseline.SeriesName,
		NewSeasonNumber: details.SeasonCount,
		TotalSeasons:    details.SeasonCount,
		CoverImage:      firstNonEmpty(details.PosterURL, baseline.CoverImage),
		CreatedAt:       now,
	}

	baseline.LastKnownSeasonCount = details.SeasonCount
	baseline.LastChecked = now
	if alert.CoverImage != "" {
		baseline.CoverImage = alert.CoverImage
	}
	if err := s.baselines.Upsert(baseline); err != nil {
		return nil, err
	}

	return &alert, nil
}

// Alerts returns the accumulated alerts that have not been dismissed,
// newest first.
func (s *Service) Alerts() []models.NewSeasonAlert {
	s.alertMu.RLock()
	defer s.alertMu.RUnlock()

	out := make([]models.NewSeasonAlert, 0, len(s.alerts))
	for _, alert := range s.alerts {
		if s.dismissals.IsDismissed(alert.ID) {
			continue
		}
		out = append(out, alert)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Seed establishes or refreshes the baseline for one series without
// emitting an alert. Used when a tracked series is first added so the next
// poll has something to compare against.
func (s *Service) Seed(ctx context.Context, tmdbID int64, seriesName string) error {
	details, err := s.metadata.SeriesDetails(ctx, tmdbID)
	if err != nil {
		return err
	}

	baseline := models.SeriesSeasonTracker{
		TMDBID:               tmdbID,
		SeriesName:           firstNonEmpty(details.Name, seriesName),
		LastKnownSeasonCount: details.SeasonCount,
		LastChecked:          s.now().UTC(),
		CoverImage:           details.PosterURL,
	}
	if existing, ok := s.baselines.Get(tmdbID); ok && details.SeasonCount < existing.LastKnownSeasonCount {
		baseline.LastKnownSeasonCount = existing.LastKnownSeasonCount
	}
	return s.baselines.Upsert(baseline)
}

// ScheduleSeed queues a baseline seed for a series and flushes the queue
// after a quiet period, so a burst of entry edits becomes one metadata
// round trip per series.
func (s *Service) ScheduleSeed(tmdbID int64, seriesName string) {
	if tmdbID == 0 {
		return
	}

	s.seedMu.Lock()
	s.pendingSeeds[tmdbID] = seriesName
	s.seedMu.Unlock()

	s.seeder.Trigger(s.flushSeeds)
}

func (s *Service) flushSeeds() {
	s.seedMu.Lock()
	pending := s.pendingSeeds
	s.pendingSeeds = make(map[int64]string)
	s.seedMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for tmdbID, name := range pending {
		if err := s.Seed(ctx, tmdbID, name); err != nil {
			log.Printf("[seasoncheck] Seed failed for %s (%d): %v", name, tmdbID, err)
		}
	}
}

// Start launches the periodic background poll. The first pass runs
// immediately.
func (s *Service) Start(ctx context.Context) error {
	s.loopMu.Lock()
	defer s.loopMu.Unlock()

	if s.running {
		return nil
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	s.wg.Add(1)
	go s.pollLoop()

	log.Println("[seasoncheck] Background poll started")
	return nil
}

// Stop halts the background poll, waiting for an in-flight pass to finish
// or the context to expire.
func (s *Service) Stop(ctx context.Context) error {
	s.loopMu.Lock()
	defer s.loopMu.Unlock()

	if !s.running {
		return nil
	}

	s.cancel()
	s.seeder.Stop()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("[seasoncheck] Background poll stopped")
	case <-ctx.Done():
		log.Println("[seasoncheck] Background poll stopped (timeout)")
	}

	s.running = false
	return nil
}

func (s *Service) pollLoop() {
	defer s.wg.Done()

	interval := s.pollInterval
	if interval <= 0 {
		interval = 6 * time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.CheckAll(s.ctx)

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.CheckAll(s.ctx)
		}
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
