package types

import "sync"

// FeedState is the mutex-guarded health record of a single venue's feed
// runner. A FeedRunner owns one FeedState and is the only writer; readers
// (the registry, the HTTP facade, telemetry) always go through the cloning
// accessors below rather than touch the struct directly.
type FeedState struct {
	mtx sync.RWMutex

	connected        bool
	lastSnapshot     *Snapshot
	lastUpdateMs     int64
	messageCount     int64
	errorCount       int64
	reconnectCount   int64
	currentBackoffMs int64
}

// NewFeedState returns a FeedState in its zero, disconnected state.
func NewFeedState() *FeedState {
	return &FeedState{}
}

// RecordSnapshot stores the latest parsed snapshot and bumps the message
// counter. Called by a FeedRunner on every successfully parsed frame.
func (f *FeedState) RecordSnapshot(snap Snapshot) {
	f.mtx.Lock()
	defer f.mtx.Unlock()

	f.lastSnapshot = &snap
	f.lastUpdateMs = snap.TimestampMs
	f.messageCount++
}

// RecordError bumps the error counter. The FeedRunner calls it on parse
// failures only (network errors are counted by RecordReconnect); the caller
// decides whether the error crosses a threshold that triggers a reconnect.
func (f *FeedState) RecordError() {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	f.errorCount++
}

// RecordReconnect bumps the reconnect counter and records the backoff
// duration that was applied before the reconnect attempt.
func (f *FeedState) RecordReconnect(backoffMs int64) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	f.reconnectCount++
	f.currentBackoffMs = backoffMs
}

// SetConnected flips the connected flag. Resets the backoff to zero on a
// successful connect.
func (f *FeedState) SetConnected(connected bool) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	f.connected = connected
	if connected {
		f.currentBackoffMs = 0
	}
}

// IsHealthy reports whether the feed is connected and its last snapshot is
// fresher than maxStalenessMs relative to nowMs. A feed with no snapshot yet
// is never healthy.
func (f *FeedState) IsHealthy(nowMs, maxStalenessMs int64) bool {
	f.mtx.RLock()
	defer f.mtx.RUnlock()

	if !f.connected || f.lastSnapshot == nil {
		return false
	}
	return nowMs-f.lastUpdateMs < maxStalenessMs
}

// FeedStateSnapshot is a point-in-time, safe-to-share copy of a FeedState.
type FeedStateSnapshot struct {
	Connected        bool
	LastSnapshot     *Snapshot
	LastUpdateMs     int64
	MessageCount     int64
	ErrorCount       int64
	ReconnectCount   int64
	CurrentBackoffMs int64
}

// Clone returns a copy of the current state safe to read without holding
// the runner's lock.
func (f *FeedState) Clone() FeedStateSnapshot {
	f.mtx.RLock()
	defer f.mtx.RUnlock()

	return FeedStateSnapshot{
		Connected:        f.connected,
		LastSnapshot:     f.lastSnapshot,
		LastUpdateMs:     f.lastUpdateMs,
		MessageCount:     f.messageCount,
		ErrorCount:       f.errorCount,
		ReconnectCount:   f.reconnectCount,
		CurrentBackoffMs: f.currentBackoffMs,
	}
}
