package broadcast

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ChannelKind names one of the three independent subscription indexes.
type ChannelKind string

const (
	ChannelMatch   ChannelKind = "match"
	ChannelAccount ChannelKind = "account"
	ChannelGame    ChannelKind = "game"
)

// ParseChannelKind validates a channel kind from an external caller.
func ParseChannelKind(s string) (ChannelKind, bool) {
	switch ChannelKind(s) {
	case ChannelMatch, ChannelAccount, ChannelGame:
		return ChannelKind(s), true
	}
	return "", false
}

// Role is the connection role: watchers are read-only, scorers are counted
// separately for the scorer_count event.
type Role string

const (
	RoleWatcher Role = "watcher"
	RoleScorer  Role = "scorer"
)

// ParseRole validates a role from an external caller.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleWatcher, RoleScorer:
		return Role(s), true
	}
	return "", false
}

// Stream is the writable half of a client connection. *websocket.Conn
// satisfies it; tests use in-memory fakes.
type Stream interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type channelRef struct {
	kind ChannelKind
	key  string
}

// conn is one attached client. Owned exclusively by the registry; closed and
// lastSeen are guarded by the registry mutex.
type conn struct {
	id      string
	channel channelRef
	userID  string
	role    Role
	stream  Stream
	send    chan []byte

	closed   bool
	lastSeen time.Time
}

// Config holds the registry's tunables. The ping interval and stale threshold
// are deliberately configurable; the defaults match a typical hosting
// platform's idle-connection timeout.
type Config struct {
	PingInterval   time.Duration
	StaleThreshold time.Duration
	SendBuffer     int
}

func (c Config) withDefaults() Config {
	if c.PingInterval <= 0 {
		c.PingInterval = 30 * time.Second
	}
	if c.StaleThreshold <= 0 {
		c.StaleThreshold = 120 * time.Second
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = 64
	}
	return c
}

// Registry owns all live client connections and the per-channel subscription
// indexes, and fans broadcast events out to them. All structural access goes
// through one mutex; per-connection writes happen on a dedicated goroutine so
// a slow client never blocks a broadcast caller.
type Registry struct {
	mu       sync.Mutex
	conns    map[string]*conn
	channels map[channelRef]map[string]*conn

	cfg     Config
	log     *zap.Logger
	metrics *Metrics

	closeOnce sync.Once
}

// NewRegistry creates a connection registry. metrics may be nil.
func NewRegistry(cfg Config, log *zap.Logger, metrics *Metrics) *Registry {
	return &Registry{
		conns:    make(map[string]*conn),
		channels: make(map[channelRef]map[string]*conn),
		cfg:      cfg.withDefaults(),
		log:      log,
		metrics:  metrics,
	}
}

// Attach registers a new connection on a channel, pushes a connected event to
// the new connection only, then broadcasts updated counts to the whole
// channel. The channel is created on demand.
func (r *Registry) Attach(kind ChannelKind, key, userID string, role Role, stream Stream) string {
	c := &conn{
		id:       uuid.New().String(),
		channel:  channelRef{kind: kind, key: key},
		userID:   userID,
		role:     role,
		stream:   stream,
		send:     make(chan []byte, r.cfg.SendBuffer),
		lastSeen: time.Now(),
	}

	r.mu.Lock()
	r.conns[c.id] = c
	set := r.channels[c.channel]
	if set == nil {
		set = make(map[string]*conn)
		r.channels[c.channel] = set
	}
	set[c.id] = c

	if data, err := Encode(ConnectedPayload{ConnectionID: c.id, ChannelKey: key}); err == nil {
		r.enqueueLocked(c, data)
	}
	r.broadcastLocked(c.channel, ViewerCountPayload{Count: len(set)})
	if role == RoleScorer {
		r.broadcastLocked(c.channel, ScorerCountPayload{Count: r.scorerCountLocked(c.channel)})
	}
	r.mu.Unlock()

	go r.writePump(c)

	r.metrics.connectionOpened()
	r.log.Info("connection attached",
		zap.String("connection_id", c.id),
		zap.String("channel_kind", string(kind)),
		zap.String("channel_key", key),
		zap.String("user_id", userID),
		zap.String("role", string(role)))
	return c.id
}

// Detach removes a connection. Idempotent: unknown ids are a no-op. If the
// channel still has subscribers, updated counts are broadcast to them.
func (r *Registry) Detach(connectionID string) {
	r.mu.Lock()
	c, ok := r.conns[connectionID]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.conns, connectionID)
	set := r.channels[c.channel]
	delete(set, connectionID)
	remaining := len(set)
	if remaining == 0 {
		delete(r.channels, c.channel)
	}
	r.closeConnLocked(c)
	if remaining > 0 {
		r.broadcastLocked(c.channel, ViewerCountPayload{Count: remaining})
		if c.role == RoleScorer {
			r.broadcastLocked(c.channel, ScorerCountPayload{Count: r.scorerCountLocked(c.channel)})
		}
	}
	r.mu.Unlock()

	r.metrics.connectionClosed()
	r.log.Info("connection detached",
		zap.String("connection_id", connectionID),
		zap.String("channel_key", c.channel.key))
}

// Broadcast serializes the payload once and fans it out to every connection
// on the channel. Per-client failures are absorbed; the call never fails.
func (r *Registry) Broadcast(kind ChannelKind, key string, p Payload) {
	data, err := Encode(p)
	if err != nil {
		r.log.Error("encode broadcast payload", zap.String("event", p.Event()), zap.Error(err))
		return
	}
	r.mu.Lock()
	r.broadcastLocked(channelRef{kind: kind, key: key}, rawPayload{event: p.Event(), data: data})
	r.mu.Unlock()
}

// rawPayload carries an already-encoded envelope through broadcastLocked so
// the payload is serialized exactly once per Broadcast call.
type rawPayload struct {
	event string
	data  []byte
}

func (p rawPayload) Event() string { return p.event }

// broadcastLocked enqueues the payload to every connection in the channel.
// Caller holds r.mu.
func (r *Registry) broadcastLocked(ref channelRef, p Payload) {
	set, ok := r.channels[ref]
	if !ok {
		return
	}
	var data []byte
	if raw, ok := p.(rawPayload); ok {
		data = raw.data
	} else {
		var err error
		data, err = Encode(p)
		if err != nil {
			r.log.Error("encode broadcast payload", zap.String("event", p.Event()), zap.Error(err))
			return
		}
	}
	for _, c := range set {
		r.enqueueLocked(c, data)
	}
}

// enqueueLocked hands the frame to the connection's write pump without
// blocking. A full buffer means the client stopped draining; the frame is
// dropped and the stale sweep will reclaim the connection. Caller holds r.mu.
func (r *Registry) enqueueLocked(c *conn, data []byte) {
	if c.closed {
		return
	}
	select {
	case c.send <- data:
		r.metrics.eventSent()
	default:
		r.metrics.eventDropped()
		r.log.Warn("send buffer full, dropping event",
			zap.String("connection_id", c.id),
			zap.String("channel_key", c.channel.key))
	}
}

// closeConnLocked marks the connection closed and closes its send channel,
// which ends the write pump. Caller holds r.mu.
func (r *Registry) closeConnLocked(c *conn) {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (r *Registry) scorerCountLocked(ref channelRef) int {
	n := 0
	for _, c := range r.channels[ref] {
		if c.role == RoleScorer {
			n++
		}
	}
	return n
}

// ViewerCount returns the number of connections on a channel.
func (r *Registry) ViewerCount(kind ChannelKind, key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.channels[channelRef{kind: kind, key: key}])
}

// ScorerCount returns the number of scorer-role connections on a channel.
func (r *Registry) ScorerCount(kind ChannelKind, key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scorerCountLocked(channelRef{kind: kind, key: key})
}

// writePump writes frames from the send channel to the underlying stream.
// A successful write refreshes the liveness timestamp; a failed write detaches
// the connection. The stream is closed when the pump exits.
func (r *Registry) writePump(c *conn) {
	defer func() {
		_ = c.stream.Close()
	}()
	for data := range c.send {
		if err := c.stream.WriteMessage(websocket.TextMessage, data); err != nil {
			r.log.Debug("write failed", zap.String("connection_id", c.id), zap.Error(err))
			r.Detach(c.id)
			return
		}
		r.touch(c.id)
	}
}

func (r *Registry) touch(connectionID string) {
	r.mu.Lock()
	if c, ok := r.conns[connectionID]; ok {
		c.lastSeen = time.Now()
	}
	r.mu.Unlock()
}

// Run drives the liveness loop: every ping interval, push a ping to all
// connections and then reap any whose last successful write is older than the
// stale threshold. Blocks until ctx is cancelled.
func (r *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.pingAll()
			r.sweepStale()
		}
	}
}

func (r *Registry) pingAll() {
	data, err := Encode(PingPayload{Timestamp: time.Now().Unix()})
	if err != nil {
		return
	}
	r.mu.Lock()
	for _, c := range r.conns {
		r.enqueueLocked(c, data)
	}
	r.mu.Unlock()
}

// sweepStale detaches every connection whose liveness timestamp exceeds the
// stale threshold. This reclaims clients that vanished without closing, e.g.
// after a network partition.
func (r *Registry) sweepStale() {
	cutoff := time.Now().Add(-r.cfg.StaleThreshold)
	r.mu.Lock()
	var stale []string
	for id, c := range r.conns {
		if c.lastSeen.Before(cutoff) {
			stale = append(stale, id)
		}
	}
	r.mu.Unlock()

	for _, id := range stale {
		r.log.Info("reaping stale connection", zap.String("connection_id", id))
		r.Detach(id)
	}
}

// Shutdown pushes a terminal shutdown event to every connection, closes all
// streams, and clears the indexes. The registry must be discarded afterwards.
func (r *Registry) Shutdown() {
	r.closeOnce.Do(func() {
		data, _ := Encode(ShutdownPayload{Message: "server shutting down"})
		r.mu.Lock()
		for _, c := range r.conns {
			r.enqueueLocked(c, data)
			r.closeConnLocked(c)
		}
		n := len(r.conns)
		r.conns = make(map[string]*conn)
		r.channels = make(map[channelRef]map[string]*conn)
		r.mu.Unlock()
		r.log.Info("registry shut down", zap.Int("connections_closed", n))
	})
}
