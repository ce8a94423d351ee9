package ticket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubgreens/live-scoring-service/internal/broadcast"
	"github.com/clubgreens/live-scoring-service/internal/errs"
)

func TestIssueAndConsume(t *testing.T) {
	i := NewIssuer("secret", 30*time.Second)

	tok, err := i.Issue(broadcast.ChannelAccount, "acc-1", broadcast.RoleScorer, "user-1")
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	grant, err := i.Consume(tok)
	require.NoError(t, err)
	assert.Equal(t, broadcast.ChannelAccount, grant.ChannelKind)
	assert.Equal(t, "acc-1", grant.ChannelKey)
	assert.Equal(t, broadcast.RoleScorer, grant.Role)
	assert.Equal(t, "user-1", grant.ActorID)
}

func TestConsumeRejectsReplay(t *testing.T) {
	i := NewIssuer("secret", 30*time.Second)

	tok, err := i.Issue(broadcast.ChannelMatch, "m1", broadcast.RoleWatcher, "user-1")
	require.NoError(t, err)

	_, err = i.Consume(tok)
	require.NoError(t, err)

	_, err = i.Consume(tok)
	assert.ErrorIs(t, err, errs.ErrTicketInvalid)
}

func TestConsumeRejectsExpired(t *testing.T) {
	i := NewIssuer("secret", time.Millisecond)

	tok, err := i.Issue(broadcast.ChannelMatch, "m1", broadcast.RoleWatcher, "user-1")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	_, err = i.Consume(tok)
	assert.ErrorIs(t, err, errs.ErrTicketInvalid)
}

func TestConsumeRejectsForeignSignature(t *testing.T) {
	issuer := NewIssuer("secret-a", 30*time.Second)
	other := NewIssuer("secret-b", 30*time.Second)

	tok, err := other.Issue(broadcast.ChannelMatch, "m1", broadcast.RoleWatcher, "user-1")
	require.NoError(t, err)

	_, err = issuer.Consume(tok)
	assert.ErrorIs(t, err, errs.ErrTicketInvalid)
}

func TestConsumeRejectsGarbage(t *testing.T) {
	i := NewIssuer("secret", 30*time.Second)

	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := i.Consume(tok)
		assert.ErrorIs(t, err, errs.ErrTicketInvalid, "token=%q", tok)
	}
}

func TestTTLDefault(t *testing.T) {
	i := NewIssuer("secret", 0)
	assert.Equal(t, 30*time.Second, i.TTL())
}
