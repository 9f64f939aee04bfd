package ingest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"salestats/internal/core"
	"salestats/internal/log"
	"salestats/internal/storage"
)

const seedDocument = `[
	{"id":1,"title":"Backpack","price":50,"description":"Fits a laptop","category":"men's clothing","image":"https://img/1.jpg","sold":true,"dateOfSale":"2021-03-27T20:29:54+05:30"},
	{"id":2,"title":"Gold ring","price":150,"description":"Solid gold","category":"jewelery","image":"https://img/2.jpg","sold":false,"dateOfSale":"2022-03-10T10:00:00+05:30"},
	{"id":"three","title":"Broken","price":1},
	{"id":3,"title":"Monitor","price":950,"description":"27 inch","category":"electronics","image":"https://img/3.jpg","sold":true,"dateOfSale":"2021-03-02T08:15:00+05:30"}
]`

func newTestLogger(buf io.Writer) *log.Logger {
	return log.New(log.Config{Level: slog.LevelDebug, Format: "json", Component: log.ComponentApp, Output: buf})
}

func newFeed(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "transactions.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

type recordingNotifier struct {
	reports []core.SeedReport
	err     error
}

func (n *recordingNotifier) NotifySeeded(_ context.Context, r core.SeedReport) error {
	n.reports = append(n.reports, r)
	return n.err
}

func TestIngestorRun(t *testing.T) {
	feed := newFeed(t, http.StatusOK, seedDocument)
	repo := newRepo(t)
	var buf bytes.Buffer
	notifier := &recordingNotifier{}

	ing := NewIngestor(NewFetcher(feed.URL, 5*time.Second), repo, newTestLogger(&buf), WithNotifier(notifier))

	report, err := ing.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Fetched != 4 || report.Inserted != 3 || report.Ignored != 0 || report.Failed != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.Source != feed.URL {
		t.Errorf("Source = %q, want %q", report.Source, feed.URL)
	}
	if !strings.Contains(buf.String(), "Failed to decode seed element") {
		t.Errorf("decode failure was not logged: %s", buf.String())
	}
	if len(notifier.reports) != 1 || notifier.reports[0].Inserted != 3 {
		t.Errorf("notifier got %+v", notifier.reports)
	}

	n, err := repo.Count(context.Background())
	if err != nil || n != 3 {
		t.Fatalf("Count = %d, %v", n, err)
	}

	stats, err := repo.MonthStatistics(context.Background(), core.March)
	if err != nil {
		t.Fatalf("MonthStatistics: %v", err)
	}
	if stats.TotalSaleAmount != 1150 || stats.TotalSoldItems != 3 || stats.TotalNotSoldItems != 1 {
		t.Errorf("unexpected statistics %+v", stats)
	}
}

func TestIngestorRunIsIdempotent(t *testing.T) {
	feed := newFeed(t, http.StatusOK, seedDocument)
	repo := newRepo(t)
	ing := NewIngestor(NewFetcher(feed.URL, 5*time.Second), repo, newTestLogger(io.Discard))

	if _, err := ing.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	report, err := ing.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if report.Inserted != 0 || report.Ignored != 3 || report.Failed != 1 {
		t.Fatalf("second run should only ignore, got %+v", report)
	}

	n, _ := repo.Count(context.Background())
	if n != 3 {
		t.Fatalf("Count = %d, want 3", n)
	}
}

func TestIngestorFetchFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "down", want: "unexpected status 500"},
		{name: "not found", status: http.StatusNotFound, body: "missing", want: "unexpected status 404"},
		{name: "not an array", status: http.StatusOK, body: `{"id":1}`, want: "decode seed document"},
		{name: "truncated", status: http.StatusOK, body: `[{"id":1}`, want: "decode seed document"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed := newFeed(t, tt.status, tt.body)
			repo := newRepo(t)
			ing := NewIngestor(NewFetcher(feed.URL, 5*time.Second), repo, newTestLogger(io.Discard))

			_, err := ing.Run(context.Background())
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Run err = %v, want %q", err, tt.want)
			}
			if n, _ := repo.Count(context.Background()); n != 0 {
				t.Fatalf("nothing should be stored, got %d rows", n)
			}
		})
	}
}

func TestIngestorUnreachableSource(t *testing.T) {
	feed := newFeed(t, http.StatusOK, "[]")
	url := feed.URL
	feed.Close()

	ing := NewIngestor(NewFetcher(url, time.Second), newRepo(t), newTestLogger(io.Discard))
	if _, err := ing.Run(context.Background()); err == nil {
		t.Fatal("expected fetch error for closed server")
	}
}

type failingWriter struct{ calls int }

func (w *failingWriter) InsertIfAbsent(_ context.Context, t core.Transaction) (bool, error) {
	w.calls++
	if t.ID == 2 {
		return false, errors.New("database is locked")
	}
	return true, nil
}

func TestIngestorContinuesAfterInsertFailure(t *testing.T) {
	feed := newFeed(t, http.StatusOK, seedDocument)
	writer := &failingWriter{}
	var buf bytes.Buffer
	notifier := &recordingNotifier{err: errors.New("broker down")}

	ing := NewIngestor(NewFetcher(feed.URL, 5*time.Second), writer, newTestLogger(&buf), WithNotifier(notifier))
	report, err := ing.Run(context.Background())
	if err != nil {
		t.Fatalf("notifier errors must not fail the run: %v", err)
	}
	if writer.calls != 3 {
		t.Errorf("writer called %d times, want 3", writer.calls)
	}
	if report.Inserted != 2 || report.Failed != 2 {
		t.Errorf("unexpected report %+v", report)
	}
	out := buf.String()
	if !strings.Contains(out, "database is locked") || !strings.Contains(out, "broker down") {
		t.Errorf("failures were not logged: %s", out)
	}
}

func TestIngestorStopsOnCancel(t *testing.T) {
	feed := newFeed(t, http.StatusOK, "[]")
	ing := NewIngestor(NewFetcher(feed.URL, time.Second), newRepo(t), newTestLogger(io.Discard))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ing.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run err = %v, want context.Canceled", err)
	}
}
