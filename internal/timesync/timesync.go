// Package timesync estimates the offset between the local clock and the
// clocks of remote servers from their HTTP Date headers.
package timesync

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultServers is used when no servers are configured.
var DefaultServers = []string{
	"https://www.google.com",
	"https://www.cloudflare.com",
	"https://www.amazon.com",
}

// ResyncAfter is how long a sync stays fresh.
const ResyncAfter = time.Hour

// TimeSync is a clock corrected by the averaged server offset. Until Sync
// succeeds it reports local time.
type TimeSync struct {
	client  *resty.Client
	servers []string
	logger  *slog.Logger

	mu           sync.RWMutex
	offset       time.Duration
	lastSyncTime time.Time
	synced       bool
}

// New returns a TimeSync that queries servers (DefaultServers when empty).
func New(servers []string, logger *slog.Logger) *TimeSync {
	if len(servers) == 0 {
		servers = DefaultServers
	}
	if logger == nil {
		logger = slog.Default()
	}
	client := resty.New().
		SetTimeout(5 * time.Second).
		SetRedirectPolicy(resty.NoRedirectPolicy())
	return &TimeSync{client: client, servers: servers, logger: logger}
}

// Sync measures every server and stores the average offset. It fails only
// when no server answered with a usable Date header.
func (ts *TimeSync) Sync(ctx context.Context) error {
	var total time.Duration
	ok := 0

	for _, server := range ts.servers {
		offset, err := ts.measure(ctx, server)
		if err != nil {
			ts.logger.Debug("time sync failed", "server", server, "error", err)
			continue
		}
		ts.logger.Debug("time offset", "server", server, "offset", offset)
		total += offset
		ok++
	}

	if ok == 0 {
		return fmt.Errorf("failed to sync time with any of %d servers", len(ts.servers))
	}

	ts.mu.Lock()
	ts.offset = total / time.Duration(ok)
	ts.lastSyncTime = time.Now()
	ts.synced = true
	ts.mu.Unlock()

	ts.logger.Info("time synchronized", "offset", ts.Offset(), "servers", ok)
	return nil
}

// measure sends a HEAD request and compares the Date header against the
// local time at the midpoint of the round trip.
func (ts *TimeSync) measure(ctx context.Context, url string) (time.Duration, error) {
	before := time.Now()
	resp, err := ts.client.R().SetContext(ctx).Head(url)
	after := time.Now()
	if err != nil && resp == nil {
		return 0, err
	}

	date := resp.Header().Get("Date")
	if date == "" {
		return 0, fmt.Errorf("no Date header in response")
	}
	serverTime, err := http.ParseTime(date)
	if err != nil {
		return 0, fmt.Errorf("failed to parse Date header: %w", err)
	}

	// Date has second resolution; the server stamped some instant inside
	// that second, so centre it.
	serverTime = serverTime.Add(500 * time.Millisecond)
	local := before.Add(after.Sub(before) / 2)
	return serverTime.Sub(local), nil
}

// Now returns local time corrected by the offset.
func (ts *TimeSync) Now() time.Time {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	if !ts.synced {
		return time.Now()
	}
	return time.Now().Add(ts.offset)
}

// IsSynced reports whether a sync has succeeded.
func (ts *TimeSync) IsSynced() bool {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.synced
}

// Offset is the current correction.
func (ts *TimeSync) Offset() time.Duration {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.offset
}

// ShouldResync reports whether the last sync is missing or stale.
func (ts *TimeSync) ShouldResync() bool {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return !ts.synced || time.Since(ts.lastSyncTime) > ResyncAfter
}
