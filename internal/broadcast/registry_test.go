package broadcast

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStream collects written frames in memory.
type fakeStream struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
	fail   bool
}

func (s *fakeStream) WriteMessage(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("broken pipe")
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	s.frames = append(s.frames, cp)
	return nil
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *fakeStream) events(t *testing.T) []string {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.frames))
	for _, f := range s.frames {
		var env struct {
			Event string `json:"event"`
		}
		require.NoError(t, json.Unmarshal(f, &env))
		out = append(out, env.Event)
	}
	return out
}

func (s *fakeStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func newTestRegistry(cfg Config) *Registry {
	return NewRegistry(cfg, zap.NewNop(), nil)
}

func waitForEvents(t *testing.T, s *fakeStream, n int) []string {
	t.Helper()
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.frames) >= n
	}, time.Second, 5*time.Millisecond)
	return s.events(t)
}

func TestAttachCountsAndConnectedEvent(t *testing.T) {
	r := newTestRegistry(Config{})
	defer r.Shutdown()

	s1 := &fakeStream{}
	s2 := &fakeStream{}
	r.Attach(ChannelMatch, "m1", "u1", RoleWatcher, s1)
	r.Attach(ChannelMatch, "m1", "u2", RoleScorer, s2)

	assert.Equal(t, 2, r.ViewerCount(ChannelMatch, "m1"))
	assert.Equal(t, 1, r.ScorerCount(ChannelMatch, "m1"))
	assert.Equal(t, 0, r.ViewerCount(ChannelMatch, "other"))

	// First connection: its own connected event, then viewer_count for each
	// attach and scorer_count for the scorer attach.
	got := waitForEvents(t, s1, 4)
	assert.Equal(t, []string{"connected", "viewer_count", "viewer_count", "scorer_count"}, got)

	// Second connection never sees the first one's connected event.
	got = waitForEvents(t, s2, 3)
	assert.Equal(t, []string{"connected", "viewer_count", "scorer_count"}, got)
}

func TestChannelsAreIndependent(t *testing.T) {
	r := newTestRegistry(Config{})
	defer r.Shutdown()

	s1 := &fakeStream{}
	s2 := &fakeStream{}
	r.Attach(ChannelMatch, "m1", "u1", RoleWatcher, s1)
	r.Attach(ChannelAccount, "m1", "u2", RoleWatcher, s2)

	// Same key, different kind: distinct channels.
	assert.Equal(t, 1, r.ViewerCount(ChannelMatch, "m1"))
	assert.Equal(t, 1, r.ViewerCount(ChannelAccount, "m1"))

	r.Broadcast(ChannelMatch, "m1", ViewerCountPayload{Count: 42})

	waitForEvents(t, s1, 3)
	// The account channel connection got only its own attach events.
	assert.Equal(t, []string{"connected", "viewer_count"}, waitForEvents(t, s2, 2))
}

func TestBroadcastFanOutContentAndOrder(t *testing.T) {
	r := newTestRegistry(Config{})
	defer r.Shutdown()

	s1 := &fakeStream{}
	s2 := &fakeStream{}
	r.Attach(ChannelGame, "g1", "u1", RoleWatcher, s1)
	r.Attach(ChannelGame, "g1", "u2", RoleWatcher, s2)

	r.Broadcast(ChannelGame, "g1", ScoreUpdatePayload{Unit: 3, Value: 5, EnteredBy: "u2"})
	r.Broadcast(ChannelGame, "g1", HoleAdvancedPayload{Unit: 4, AdvancedBy: "u2"})

	for _, s := range []*fakeStream{s1, s2} {
		got := waitForEvents(t, s, 5)
		// The two broadcasts arrive after the attach events, in publish order.
		assert.Equal(t, []string{"score_update", "hole_advanced"}, got[len(got)-2:])
	}

	s1.mu.Lock()
	var env struct {
		Event string `json:"event"`
		Data  struct {
			Unit  int `json:"unit"`
			Value int `json:"value"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(s1.frames[len(s1.frames)-2], &env))
	s1.mu.Unlock()
	assert.Equal(t, "score_update", env.Event)
	assert.Equal(t, 3, env.Data.Unit)
	assert.Equal(t, 5, env.Data.Value)
}

func TestBroadcastToEmptyChannelIsNoOp(t *testing.T) {
	r := newTestRegistry(Config{})
	defer r.Shutdown()

	// Must not panic or create channel state.
	r.Broadcast(ChannelMatch, "nobody", PingPayload{Timestamp: 1})
	assert.Equal(t, 0, r.ViewerCount(ChannelMatch, "nobody"))
}

func TestDetach(t *testing.T) {
	r := newTestRegistry(Config{})
	defer r.Shutdown()

	s1 := &fakeStream{}
	s2 := &fakeStream{}
	id1 := r.Attach(ChannelMatch, "m1", "u1", RoleScorer, s1)
	r.Attach(ChannelMatch, "m1", "u2", RoleWatcher, s2)

	r.Detach(id1)
	assert.Equal(t, 1, r.ViewerCount(ChannelMatch, "m1"))
	assert.Equal(t, 0, r.ScorerCount(ChannelMatch, "m1"))

	// Idempotent.
	r.Detach(id1)
	r.Detach("unknown-id")
	assert.Equal(t, 1, r.ViewerCount(ChannelMatch, "m1"))

	// The survivor hears the updated counts and the closed stream is closed.
	got := waitForEvents(t, s2, 4)
	assert.Equal(t, []string{"viewer_count", "scorer_count"}, got[len(got)-2:])
	require.Eventually(t, s1.isClosed, time.Second, 5*time.Millisecond)
}

func TestDetachLastConnectionRemovesChannel(t *testing.T) {
	r := newTestRegistry(Config{})
	defer r.Shutdown()

	s := &fakeStream{}
	id := r.Attach(ChannelMatch, "m1", "u1", RoleWatcher, s)
	r.Detach(id)

	assert.Equal(t, 0, r.ViewerCount(ChannelMatch, "m1"))
	// No count broadcast after the channel emptied; the last frames are the
	// attach-time ones.
	got := waitForEvents(t, s, 2)
	assert.Equal(t, []string{"connected", "viewer_count"}, got)
}

func TestWriteFailureDetachesConnection(t *testing.T) {
	r := newTestRegistry(Config{})
	defer r.Shutdown()

	s := &fakeStream{fail: true}
	r.Attach(ChannelMatch, "m1", "u1", RoleWatcher, s)

	require.Eventually(t, func() bool {
		return r.ViewerCount(ChannelMatch, "m1") == 0
	}, time.Second, 5*time.Millisecond)
	require.Eventually(t, s.isClosed, time.Second, 5*time.Millisecond)
}

func TestStaleSweepReapsSilentConnections(t *testing.T) {
	r := newTestRegistry(Config{StaleThreshold: time.Hour})
	defer r.Shutdown()

	fresh := &fakeStream{}
	stale := &fakeStream{}
	r.Attach(ChannelMatch, "m1", "u1", RoleWatcher, fresh)
	staleID := r.Attach(ChannelMatch, "m1", "u2", RoleWatcher, stale)

	// Backdate the stale connection past the threshold.
	r.mu.Lock()
	r.conns[staleID].lastSeen = time.Now().Add(-2 * time.Hour)
	r.mu.Unlock()

	r.sweepStale()

	assert.Equal(t, 1, r.ViewerCount(ChannelMatch, "m1"))
	require.Eventually(t, stale.isClosed, time.Second, 5*time.Millisecond)
	assert.False(t, fresh.isClosed())
}

func TestPingRefreshesLiveness(t *testing.T) {
	r := newTestRegistry(Config{StaleThreshold: time.Hour})
	defer r.Shutdown()

	s := &fakeStream{}
	id := r.Attach(ChannelMatch, "m1", "u1", RoleWatcher, s)
	waitForEvents(t, s, 2)

	r.mu.Lock()
	r.conns[id].lastSeen = time.Now().Add(-2 * time.Hour)
	r.mu.Unlock()

	r.pingAll()
	got := waitForEvents(t, s, 3)
	assert.Equal(t, "ping", got[len(got)-1])

	// The successful ping write refreshed lastSeen, so the sweep keeps it.
	require.Eventually(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		return time.Since(r.conns[id].lastSeen) < time.Minute
	}, time.Second, 5*time.Millisecond)
	r.sweepStale()
	assert.Equal(t, 1, r.ViewerCount(ChannelMatch, "m1"))
}

func TestShutdown(t *testing.T) {
	r := newTestRegistry(Config{})

	s1 := &fakeStream{}
	s2 := &fakeStream{}
	r.Attach(ChannelMatch, "m1", "u1", RoleWatcher, s1)
	r.Attach(ChannelGame, "g1", "u2", RoleWatcher, s2)

	waitForEvents(t, s1, 2)
	waitForEvents(t, s2, 2)

	r.Shutdown()
	r.Shutdown() // second call is a no-op

	for _, s := range []*fakeStream{s1, s2} {
		require.Eventually(t, s.isClosed, time.Second, 5*time.Millisecond)
		got := s.events(t)
		assert.Equal(t, "shutdown", got[len(got)-1])
	}
	assert.Equal(t, 0, r.ViewerCount(ChannelMatch, "m1"))
	assert.Equal(t, 0, r.ViewerCount(ChannelGame, "g1"))
}

func TestEnqueueDropsWhenBufferFull(t *testing.T) {
	r := newTestRegistry(Config{SendBuffer: 1})
	defer r.Shutdown()

	// With buffer size 1, frames the pump has not drained yet must be
	// dropped, never block the caller.
	s := &fakeStream{}
	r.Attach(ChannelMatch, "m1", "u1", RoleWatcher, s)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			r.Broadcast(ChannelMatch, "m1", PingPayload{Timestamp: int64(i)})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a full send buffer")
	}
}

func TestParseChannelKindAndRole(t *testing.T) {
	for _, ok := range []string{"match", "account", "game"} {
		kind, valid := ParseChannelKind(ok)
		assert.True(t, valid)
		assert.Equal(t, ChannelKind(ok), kind)
	}
	_, valid := ParseChannelKind("tournament")
	assert.False(t, valid)

	role, valid := ParseRole("scorer")
	assert.True(t, valid)
	assert.Equal(t, RoleScorer, role)
	_, valid = ParseRole("admin")
	assert.False(t, valid)
}
