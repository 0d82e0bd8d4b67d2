package timesync

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func dateServer(t *testing.T, skew time.Duration) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("Expected HEAD request, got %s", r.Method)
		}
		w.Header().Set("Date", time.Now().Add(skew).UTC().Format(http.TimeFormat))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTimeSyncBeforeSync(t *testing.T) {
	ts := New(nil, nil)

	if ts.IsSynced() {
		t.Error("TimeSync should not be synced initially")
	}
	if !ts.ShouldResync() {
		t.Error("Should need to resync when not yet synced")
	}
	if ts.Offset() != 0 {
		t.Errorf("Expected zero offset, got %v", ts.Offset())
	}
	if diff := time.Since(ts.Now()); diff > time.Second || diff < -time.Second {
		t.Errorf("Unsynced Now() should be local time, differs by %v", diff)
	}
}

func TestTimeSyncMeasuresOffset(t *testing.T) {
	skew := 3 * time.Hour
	ts := New([]string{dateServer(t, skew).URL}, nil)

	if err := ts.Sync(context.Background()); err != nil {
		t.Fatalf("Failed to sync time: %v", err)
	}
	if !ts.IsSynced() {
		t.Error("TimeSync should be synced after calling Sync()")
	}

	// Date has one-second resolution.
	if diff := ts.Offset() - skew; diff > 2*time.Second || diff < -2*time.Second {
		t.Errorf("Expected offset near %v, got %v", skew, ts.Offset())
	}
	if diff := ts.Now().Sub(time.Now().Add(skew)); diff > 2*time.Second || diff < -2*time.Second {
		t.Errorf("Synced Now() off by %v", diff)
	}
	if ts.ShouldResync() {
		t.Error("Should not need to resync immediately after syncing")
	}

	ts.lastSyncTime = time.Now().Add(-2 * time.Hour)
	if !ts.ShouldResync() {
		t.Error("Should need to resync after 2 hours")
	}
}

func TestTimeSyncSkipsBrokenServers(t *testing.T) {
	noDate := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header()["Date"] = nil
	}))
	defer noDate.Close()

	dead := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	deadURL := dead.URL
	dead.Close()

	ts := New([]string{deadURL, noDate.URL, dateServer(t, 0).URL}, nil)
	if err := ts.Sync(context.Background()); err != nil {
		t.Fatalf("Expected sync to succeed with one good server, got %v", err)
	}
	if off := ts.Offset(); off > 2*time.Second || off < -2*time.Second {
		t.Errorf("Expected near-zero offset, got %v", off)
	}
}

func TestTimeSyncAllServersFail(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	deadURL := dead.URL
	dead.Close()

	ts := New([]string{deadURL}, nil)
	if err := ts.Sync(context.Background()); err == nil {
		t.Fatal("Expected error when no server answers")
	}
	if ts.IsSynced() {
		t.Error("Failed sync should not mark the clock synced")
	}
}
