package metadata

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"watchlog/models"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

func newTestService(t *testing.T, ttl time.Duration, rt roundTripFunc) *Service {
	t.Helper()
	svc := NewServiceWithClient("test-key", "en-US", ttl, &http.Client{Transport: rt})
	svc.tmdb.minInterval = 0
	return svc
}

func TestSearchShortQueryReturnsEmptyWithoutNetwork(t *testing.T) {
	called := false
	svc := newTestService(t, time.Minute, func(req *http.Request) (*http.Response, error) {
		called = true
		return jsonResponse(`{"results":[]}`), nil
	})

	// "é" is one character but two bytes; still shorter than the minimum.
	for _, query := range []string{" I ", "é"} {
		results, err := svc.Search(context.Background(), query)
		if err != nil {
			t.Fatalf("search %q failed: %v", query, err)
		}
		if len(results) != 0 {
			t.Fatalf("expected no results for %q, got %d", query, len(results))
		}
	}
	if called {
		t.Fatalf("expected no HTTP request for short queries")
	}
}

func TestSearchFiltersAndTagsResults(t *testing.T) {
	svc := newTestService(t, time.Minute, func(req *http.Request) (*http.Response, error) {
		if !strings.Contains(req.URL.Path, "search/multi") {
			t.Fatalf("unexpected path %q", req.URL.Path)
		}
		if got := req.URL.Query().Get("query"); got != "Inc" {
			t.Fatalf("expected query 'Inc', got %q", got)
		}
		return jsonResponse(`{"results":[
			{"id":27205,"title":"Inception","release_date":"2010-07-15","media_type":"movie","poster_path":"/inception.jpg"},
			{"id":999,"name":"Some Person","media_type":"person"},
			{"id":66788,"name":"Incognito","first_air_date":"2016-09-26","media_type":"tv","poster_path":"/incognito.jpg"}
		]}`), nil
	})

	results, err := svc.Search(context.Background(), "Inc")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	first := results[0]
	if first.TMDBID != 27205 || first.Title != "Inception" || first.Year != 2010 || first.Kind != models.EntryKindMovie {
		t.Fatalf("unexpected first result: %+v", first)
	}
	if first.PosterURL != "https://image.tmdb.org/t/p/w500/inception.jpg" {
		t.Fatalf("unexpected poster URL: %q", first.PosterURL)
	}

	second := results[1]
	if second.TMDBID != 66788 || second.Title != "Incognito" || second.Year != 2016 || second.Kind != models.EntryKindSeries {
		t.Fatalf("unexpected second result: %+v", second)
	}
}

func TestSearchLimitsToTenResults(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(`{"results":[`)
	for i := 0; i < 15; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(`{"id":` + strconv.Itoa(i+1) + `,"title":"Movie","release_date":"2020-01-01","media_type":"movie"}`)
	}
	sb.WriteString(`]}`)

	svc := newTestService(t, time.Minute, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(sb.String()), nil
	})

	results, err := svc.Search(context.Background(), "Movie")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 10 {
		t.Fatalf("expected 10 results, got %d", len(results))
	}
}

func TestSearchCachesWithinTTL(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)
	svc := newTestService(t, time.Minute, func(req *http.Request) (*http.Response, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return jsonResponse(`{"results":[{"id":1,"title":"Dune","release_date":"2021-09-15","media_type":"movie"}]}`), nil
	})

	for i := 0; i < 3; i++ {
		if _, err := svc.Search(context.Background(), "Dune"); err != nil {
			t.Fatalf("search %d failed: %v", i, err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected single upstream call, got %d", calls)
	}
}

func TestSearchCacheExpires(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)
	svc := newTestService(t, 10*time.Millisecond, func(req *http.Request) (*http.Response, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return jsonResponse(`{"results":[]}`), nil
	})

	if _, err := svc.Search(context.Background(), "Dune"); err != nil {
		t.Fatalf("first search failed: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	if _, err := svc.Search(context.Background(), "Dune"); err != nil {
		t.Fatalf("second search failed: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected cache to expire, got %d calls", calls)
	}
}

func TestSearchWithoutAPIKey(t *testing.T) {
	svc := NewService("", "en-US", time.Minute)
	if _, err := svc.Search(context.Background(), "Dune"); err != ErrAPIKeyMissing {
		t.Fatalf("expected ErrAPIKeyMissing, got %v", err)
	}
}

func TestFullSeriesDataSortsByYearAndDropsEmptySeasons(t *testing.T) {
	svc := newTestService(t, time.Minute, func(req *http.Request) (*http.Response, error) {
		switch {
		case strings.HasSuffix(req.URL.Path, "/tv/100"):
			return jsonResponse(`{"id":100,"name":"Anthology","number_of_seasons":4,"number_of_episodes":30}`), nil
		case strings.HasSuffix(req.URL.Path, "/tv/100/season/1"):
			return jsonResponse(`{"id":11,"season_number":1,"air_date":"2015-03-01","episodes":[{"id":1,"episode_number":1,"name":"Pilot"}]}`), nil
		case strings.HasSuffix(req.URL.Path, "/tv/100/season/2"):
			// No episodes announced yet; should be dropped.
			return jsonResponse(`{"id":12,"season_number":2,"air_date":"2021-01-01","episodes":[]}`), nil
		case strings.HasSuffix(req.URL.Path, "/tv/100/season/3"):
			return jsonResponse(`{"id":13,"season_number":3,"air_date":"","episodes":[{"id":3,"episode_number":1,"name":"Unknown"}]}`), nil
		case strings.HasSuffix(req.URL.Path, "/tv/100/season/4"):
			return jsonResponse(`{"id":14,"season_number":4,"air_date":"2013-06-01","episodes":[{"id":4,"episode_number":1,"name":"Early"}]}`), nil
		default:
			t.Fatalf("unexpected path %q", req.URL.Path)
			return nil, nil
		}
	})

	full, err := svc.FullSeriesData(context.Background(), 100)
	if err != nil {
		t.Fatalf("full series fetch failed: %v", err)
	}
	if full.Title != "Anthology" || full.TMDBID != 100 {
		t.Fatalf("unexpected series header: %+v", full)
	}
	if len(full.Seasons) != 3 {
		t.Fatalf("expected 3 seasons after dropping the empty one, got %d", len(full.Seasons))
	}

	gotOrder := []int{full.Seasons[0].SeasonNumber, full.Seasons[1].SeasonNumber, full.Seasons[2].SeasonNumber}
	wantOrder := []int{4, 1, 3} // 2013, 2015, then the undated season last
	for i := range wantOrder {
		if gotOrder[i] != wantOrder[i] {
			t.Fatalf("unexpected season order: got %v, want %v", gotOrder, wantOrder)
		}
	}
}

func TestSeriesDetailsBuildsImageURLs(t *testing.T) {
	svc := newTestService(t, time.Minute, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(`{"id":42,"name":"Severance","number_of_seasons":2,"poster_path":"/sev.jpg","backdrop_path":""}`), nil
	})

	details, err := svc.SeriesDetails(context.Background(), 42)
	if err != nil {
		t.Fatalf("details fetch failed: %v", err)
	}
	if details.PosterURL != "https://image.tmdb.org/t/p/w500/sev.jpg" {
		t.Fatalf("unexpected poster URL: %q", details.PosterURL)
	}
	if details.BackdropURL != "" {
		t.Fatalf("expected empty backdrop URL for missing path, got %q", details.BackdropURL)
	}
}
