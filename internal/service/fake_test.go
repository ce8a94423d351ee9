package service

import (
	"context"
	"sync"
	"time"

	"github.com/clubgreens/live-scoring-service/internal/broadcast"
	"github.com/clubgreens/live-scoring-service/internal/errs"
	"github.com/clubgreens/live-scoring-service/internal/model"
)

// ------------------------
// Fake broadcaster
// ------------------------

type broadcastCall struct {
	Kind    broadcast.ChannelKind
	Key     string
	Payload broadcast.Payload
}

// fakeBroadcaster records every Broadcast call in order.
type fakeBroadcaster struct {
	mu      sync.Mutex
	calls   []broadcastCall
	viewers int
}

func (f *fakeBroadcaster) Broadcast(kind broadcast.ChannelKind, key string, p broadcast.Payload) {
	f.mu.Lock()
	f.calls = append(f.calls, broadcastCall{Kind: kind, Key: key, Payload: p})
	f.mu.Unlock()
}

func (f *fakeBroadcaster) ViewerCount(kind broadcast.ChannelKind, key string) int {
	return f.viewers
}

func (f *fakeBroadcaster) events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.Payload.Event())
	}
	return out
}

func (f *fakeBroadcaster) last() *broadcastCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return nil
	}
	c := f.calls[len(f.calls)-1]
	return &c
}

// ------------------------
// Fake authorizer
// ------------------------

// fakeAuthorizer allows the actors in the allowed set.
type fakeAuthorizer struct {
	allowed map[string]bool
	err     error
}

func allowActors(actors ...string) *fakeAuthorizer {
	m := make(map[string]bool, len(actors))
	for _, a := range actors {
		m[a] = true
	}
	return &fakeAuthorizer{allowed: m}
}

func (f *fakeAuthorizer) IsAuthorizedOwner(ctx context.Context, entityID, actorID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.allowed[actorID], nil
}

// ------------------------
// Fake round store
// ------------------------

// fakeRoundStore is an in-memory RoundStore with error-injection hooks.
type fakeRoundStore struct {
	mu       sync.Mutex
	sessions map[string]*model.LiveRoundSession // account -> session
	scores   map[string][]model.LiveRoundScore  // session -> entries

	createErr error
	upsertErr error
	statusErr error
}

func newFakeRoundStore() *fakeRoundStore {
	return &fakeRoundStore{
		sessions: make(map[string]*model.LiveRoundSession),
		scores:   make(map[string][]model.LiveRoundScore),
	}
}

func (f *fakeRoundStore) Current(ctx context.Context, accountID string) (*model.LiveRoundSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess, ok := f.sessions[accountID]
	if !ok {
		return nil, errs.ErrSessionNotFound
	}
	cp := *sess
	return &cp, nil
}

func (f *fakeRoundStore) DeleteByAccount(ctx context.Context, accountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if sess, ok := f.sessions[accountID]; ok {
		delete(f.scores, sess.ID)
	}
	delete(f.sessions, accountID)
	return nil
}

func (f *fakeRoundStore) Create(ctx context.Context, sess *model.LiveRoundSession) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *sess
	f.sessions[sess.AccountID] = &cp
	return nil
}

func (f *fakeRoundStore) UpdateStatus(ctx context.Context, sessionID string, status model.SessionStatus, endedAt *time.Time) error {
	if f.statusErr != nil {
		return f.statusErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sess := range f.sessions {
		if sess.ID == sessionID {
			sess.Status = string(status)
			sess.EndedAt = endedAt
			return nil
		}
	}
	return errs.ErrSessionNotFound
}

func (f *fakeRoundStore) UpdateCurrentHole(ctx context.Context, sessionID string, hole int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sess := range f.sessions {
		if sess.ID == sessionID {
			sess.CurrentHole = hole
			return nil
		}
	}
	return errs.ErrSessionNotFound
}

func (f *fakeRoundStore) UpsertScore(ctx context.Context, score *model.LiveRoundScore) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	entries := f.scores[score.SessionID]
	for i := range entries {
		if entries[i].Hole == score.Hole {
			entries[i] = *score
			return nil
		}
	}
	f.scores[score.SessionID] = append(entries, *score)
	return nil
}

func (f *fakeRoundStore) Scores(ctx context.Context, sessionID string) ([]model.LiveRoundScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.LiveRoundScore, len(f.scores[sessionID]))
	copy(out, f.scores[sessionID])
	return out, nil
}

func (f *fakeRoundStore) AbandonOlderThan(ctx context.Context, cutoff *time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, sess := range f.sessions {
		if model.SessionStatus(sess.Status).Terminal() {
			continue
		}
		if cutoff != nil && !sess.StartedAt.Before(*cutoff) {
			continue
		}
		sess.Status = string(model.SessionStatusAbandoned)
		n++
	}
	return n, nil
}

// ------------------------
// Fake game store
// ------------------------

type fakeGameStore struct {
	mu       sync.Mutex
	sessions map[string]*model.LiveGameSession // game -> session
	scores   map[string][]model.LiveGameScore  // session -> entries

	statusErr error
}

func newFakeGameStore() *fakeGameStore {
	return &fakeGameStore{
		sessions: make(map[string]*model.LiveGameSession),
		scores:   make(map[string][]model.LiveGameScore),
	}
}

func (f *fakeGameStore) Current(ctx context.Context, gameID string) (*model.LiveGameSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess, ok := f.sessions[gameID]
	if !ok {
		return nil, errs.ErrSessionNotFound
	}
	cp := *sess
	return &cp, nil
}

func (f *fakeGameStore) DeleteByGame(ctx context.Context, gameID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if sess, ok := f.sessions[gameID]; ok {
		delete(f.scores, sess.ID)
	}
	delete(f.sessions, gameID)
	return nil
}

func (f *fakeGameStore) Create(ctx context.Context, sess *model.LiveGameSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *sess
	f.sessions[sess.GameID] = &cp
	return nil
}

func (f *fakeGameStore) UpdateStatus(ctx context.Context, sessionID string, status model.SessionStatus, endedAt *time.Time) error {
	if f.statusErr != nil {
		return f.statusErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sess := range f.sessions {
		if sess.ID == sessionID {
			sess.Status = string(status)
			sess.EndedAt = endedAt
			return nil
		}
	}
	return errs.ErrSessionNotFound
}

func (f *fakeGameStore) UpdateCurrentInning(ctx context.Context, sessionID string, inning int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sess := range f.sessions {
		if sess.ID == sessionID {
			sess.CurrentInning = inning
			return nil
		}
	}
	return errs.ErrSessionNotFound
}

func (f *fakeGameStore) UpsertScore(ctx context.Context, score *model.LiveGameScore) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entries := f.scores[score.SessionID]
	for i := range entries {
		if entries[i].Inning == score.Inning && entries[i].Side == score.Side {
			entries[i] = *score
			return nil
		}
	}
	f.scores[score.SessionID] = append(entries, *score)
	return nil
}

func (f *fakeGameStore) Scores(ctx context.Context, sessionID string) ([]model.LiveGameScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.LiveGameScore, len(f.scores[sessionID]))
	copy(out, f.scores[sessionID])
	return out, nil
}

func (f *fakeGameStore) AbandonOlderThan(ctx context.Context, cutoff *time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, sess := range f.sessions {
		if model.SessionStatus(sess.Status).Terminal() {
			continue
		}
		if cutoff != nil && !sess.StartedAt.Before(*cutoff) {
			continue
		}
		sess.Status = string(model.SessionStatusAbandoned)
		n++
	}
	return n, nil
}

// ------------------------
// Fake static lookups
// ------------------------

type fakeCourseStore struct {
	courses map[string]*model.Course
	tees    map[string]*model.CourseTee
}

func (f *fakeCourseStore) GetCourse(ctx context.Context, id string) (*model.Course, error) {
	c, ok := f.courses[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return c, nil
}

func (f *fakeCourseStore) GetTee(ctx context.Context, id string) (*model.CourseTee, error) {
	t, ok := f.tees[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return t, nil
}

type fakeGameLookup struct {
	games map[string]*model.ScheduledGame
}

func (f *fakeGameLookup) GetScheduledGame(ctx context.Context, id string) (*model.ScheduledGame, error) {
	g, ok := f.games[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return g, nil
}

// ------------------------
// Fake result stores
// ------------------------

type fakeRoundResultStore struct {
	mu    sync.Mutex
	saved []*model.Scorecard
	err   error
}

func (f *fakeRoundResultStore) SaveScorecard(ctx context.Context, card *model.Scorecard) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	f.saved = append(f.saved, card)
	f.mu.Unlock()
	return nil
}

type fakeGameResultStore struct {
	mu    sync.Mutex
	saved []*model.GameResult
	err   error
}

func (f *fakeGameResultStore) SaveGameResult(ctx context.Context, result *model.GameResult) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	f.saved = append(f.saved, result)
	f.mu.Unlock()
	return nil
}
