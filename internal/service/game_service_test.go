package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clubgreens/live-scoring-service/internal/broadcast"
	"github.com/clubgreens/live-scoring-service/internal/errs"
	"github.com/clubgreens/live-scoring-service/internal/model"
)

const (
	testGame   = "game-1"
	testScorer = "user-scorer"
)

type gameFixture struct {
	svc     *GameService
	store   *fakeGameStore
	bus     *fakeBroadcaster
	results *fakeGameResultStore
}

func newGameFixture(t *testing.T) *gameFixture {
	t.Helper()
	store := newFakeGameStore()
	bus := &fakeBroadcaster{}
	results := &fakeGameResultStore{}
	games := &fakeGameLookup{
		games: map[string]*model.ScheduledGame{
			testGame: {ID: testGame, AccountID: testAccount, HomeTeam: "Pines", AwayTeam: "Larks"},
		},
	}
	svc := NewGameService(store, games, results, allowActors(testScorer), bus, zap.NewNop())
	return &gameFixture{svc: svc, store: store, bus: bus, results: results}
}

func (f *gameFixture) start(t *testing.T, innings int) *model.GameSnapshot {
	t.Helper()
	snap, err := f.svc.Start(context.Background(), testGame, testScorer, GameParams{Innings: innings})
	require.NoError(t, err)
	return snap
}

func TestGameStart(t *testing.T) {
	f := newGameFixture(t)

	snap := f.start(t, 9)
	assert.Equal(t, model.SessionStatusActive, snap.Status)
	assert.Equal(t, 1, snap.CurrentInning)
	assert.Equal(t, 9, snap.Innings)

	call := f.bus.last()
	require.NotNil(t, call)
	assert.Equal(t, broadcast.ChannelGame, call.Kind)
	assert.Equal(t, testGame, call.Key)
	assert.Equal(t, "session_started", call.Payload.Event())
}

func TestGameStartUnknownGame(t *testing.T) {
	f := newGameFixture(t)

	_, err := f.svc.Start(context.Background(), "nope", testScorer, GameParams{Innings: 9})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestGameStartRejectsSecondSession(t *testing.T) {
	f := newGameFixture(t)
	f.start(t, 9)

	_, err := f.svc.Start(context.Background(), testGame, testScorer, GameParams{Innings: 7})
	assert.ErrorIs(t, err, errs.ErrAlreadyActive)
}

func TestGameStartInningsOutOfRange(t *testing.T) {
	f := newGameFixture(t)

	for _, innings := range []int{0, 31} {
		_, err := f.svc.Start(context.Background(), testGame, testScorer, GameParams{Innings: innings})
		assert.ErrorIs(t, err, errs.ErrOutOfRange, "innings=%d", innings)
	}
}

func TestGameSubmitScore(t *testing.T) {
	f := newGameFixture(t)
	f.start(t, 9)

	entry, err := f.svc.SubmitScore(context.Background(), testGame, testScorer, 2, model.SideHome, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, entry.Inning)
	assert.Equal(t, model.SideHome, entry.Side)
	assert.Equal(t, 3, entry.Runs)

	update, ok := f.bus.last().Payload.(broadcast.ScoreUpdatePayload)
	require.True(t, ok)
	assert.Equal(t, 2, update.Unit)
	assert.Equal(t, 3, update.Value)
	assert.Equal(t, "home", update.Side)
}

func TestGameSubmitScoreSidesIndependent(t *testing.T) {
	f := newGameFixture(t)
	f.start(t, 9)

	_, err := f.svc.SubmitScore(context.Background(), testGame, testScorer, 1, model.SideHome, 2)
	require.NoError(t, err)
	_, err = f.svc.SubmitScore(context.Background(), testGame, testScorer, 1, model.SideAway, 5)
	require.NoError(t, err)

	snap, err := f.svc.State(context.Background(), testGame)
	require.NoError(t, err)
	require.Len(t, snap.Scores, 2, "home and away are distinct entries per inning")
}

func TestGameSubmitScoreInvalidSide(t *testing.T) {
	f := newGameFixture(t)
	f.start(t, 9)

	_, err := f.svc.SubmitScore(context.Background(), testGame, testScorer, 1, model.GameSide("middle"), 2)
	assert.ErrorIs(t, err, errs.ErrOutOfRange)
}

func TestGameSubmitScoreRunsOutOfRange(t *testing.T) {
	f := newGameFixture(t)
	f.start(t, 9)

	for _, runs := range []int{-1, 100} {
		_, err := f.svc.SubmitScore(context.Background(), testGame, testScorer, 1, model.SideHome, runs)
		assert.ErrorIs(t, err, errs.ErrOutOfRange, "runs=%d", runs)
	}

	// Zero runs is a legitimate scoreless inning.
	_, err := f.svc.SubmitScore(context.Background(), testGame, testScorer, 1, model.SideHome, 0)
	assert.NoError(t, err)
}

func TestGameAdvance(t *testing.T) {
	f := newGameFixture(t)
	f.start(t, 9)

	require.NoError(t, f.svc.Advance(context.Background(), testGame, testScorer, 4))

	snap, err := f.svc.State(context.Background(), testGame)
	require.NoError(t, err)
	assert.Equal(t, 4, snap.CurrentInning)

	adv, ok := f.bus.last().Payload.(broadcast.InningAdvancedPayload)
	require.True(t, ok)
	assert.Equal(t, "inning_advanced", adv.Event())
	assert.Equal(t, 4, adv.Unit)
}

func TestGameFinalizeBuildsFullLineScore(t *testing.T) {
	f := newGameFixture(t)
	f.start(t, 3)

	_, err := f.svc.SubmitScore(context.Background(), testGame, testScorer, 1, model.SideHome, 2)
	require.NoError(t, err)
	_, err = f.svc.SubmitScore(context.Background(), testGame, testScorer, 2, model.SideAway, 4)
	require.NoError(t, err)

	require.NoError(t, f.svc.Finalize(context.Background(), testGame, testScorer))

	require.Len(t, f.results.saved, 1)
	result := f.results.saved[0]
	assert.Equal(t, 2, result.HomeRuns)
	assert.Equal(t, 4, result.AwayRuns)
	require.Len(t, result.Lines, 6, "3 innings x 2 sides, gaps filled with zero")

	type line struct {
		side   string
		inning int
	}
	byLine := make(map[line]int)
	for _, l := range result.Lines {
		byLine[line{l.Side, l.Inning}] = l.Runs
	}
	assert.Equal(t, 2, byLine[line{"home", 1}])
	assert.Equal(t, 0, byLine[line{"home", 2}])
	assert.Equal(t, 4, byLine[line{"away", 2}])
	assert.Equal(t, 0, byLine[line{"away", 3}])
}

func TestGameFinalizePersistFailureKeepsSessionActive(t *testing.T) {
	f := newGameFixture(t)
	f.start(t, 9)
	f.results.err = errors.New("db down")

	err := f.svc.Finalize(context.Background(), testGame, testScorer)
	require.Error(t, err)

	sess, err := f.store.Current(context.Background(), testGame)
	require.NoError(t, err)
	assert.Equal(t, string(model.SessionStatusActive), sess.Status)
}

func TestGameStop(t *testing.T) {
	f := newGameFixture(t)
	f.start(t, 9)

	require.NoError(t, f.svc.Stop(context.Background(), testGame, testScorer))
	assert.Empty(t, f.results.saved)

	err := f.svc.Stop(context.Background(), testGame, testScorer)
	assert.ErrorIs(t, err, errs.ErrNoActiveSession)
}

func TestGameStatusAndState(t *testing.T) {
	f := newGameFixture(t)

	summary, err := f.svc.Status(context.Background(), testGame)
	require.NoError(t, err)
	assert.False(t, summary.HasActiveSession)

	snap, err := f.svc.State(context.Background(), testGame)
	require.NoError(t, err)
	assert.Nil(t, snap)

	started := f.start(t, 9)
	summary, err = f.svc.Status(context.Background(), testGame)
	require.NoError(t, err)
	assert.True(t, summary.HasActiveSession)
	assert.Equal(t, started.SessionID, summary.SessionID)
}
