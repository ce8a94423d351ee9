package ticket

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/clubgreens/live-scoring-service/internal/broadcast"
	"github.com/clubgreens/live-scoring-service/internal/errs"
)

// Grant is the identity a consumed ticket binds a connection to.
type Grant struct {
	ChannelKind broadcast.ChannelKind
	ChannelKey  string
	Role        broadcast.Role
	ActorID     string
}

type ticketClaims struct {
	jwt.RegisteredClaims
	ChannelKind string `json:"channel_kind"`
	ChannelKey  string `json:"channel_key"`
	Role        string `json:"role"`
}

// Issuer mints and consumes short-lived, single-use attach tickets. A ticket
// is HS256-signed and carries a jti; consuming it records the jti so a replay
// within the TTL window is rejected.
type Issuer struct {
	secret []byte
	ttl    time.Duration

	mu   sync.Mutex
	used map[string]time.Time // jti -> expiry
}

// NewIssuer creates a ticket issuer with the given signing secret and TTL.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		used:   make(map[string]time.Time),
	}
}

// TTL returns the ticket lifetime.
func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue mints a ticket binding {channel, role, actor}.
func (i *Issuer) Issue(kind broadcast.ChannelKind, key string, role broadcast.Role, actorID string) (string, error) {
	now := time.Now()
	claims := &ticketClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   actorID,
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		ChannelKind: string(kind),
		ChannelKey:  key,
		Role:        string(role),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign ticket: %w", err)
	}
	return signed, nil
}

// Consume validates a ticket and marks it used. A second Consume of the same
// ticket, an expired ticket, or a bad signature all return ErrTicketInvalid.
func (i *Issuer) Consume(tokenString string) (*Grant, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ticketClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errs.ErrTicketInvalid
		}
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: expired", errs.ErrTicketInvalid)
		}
		return nil, errs.ErrTicketInvalid
	}
	claims, ok := token.Claims.(*ticketClaims)
	if !ok || !token.Valid || claims.ID == "" {
		return nil, errs.ErrTicketInvalid
	}

	kind, ok := broadcast.ParseChannelKind(claims.ChannelKind)
	if !ok {
		return nil, errs.ErrTicketInvalid
	}
	role, ok := broadcast.ParseRole(claims.Role)
	if !ok {
		return nil, errs.ErrTicketInvalid
	}

	now := time.Now()
	i.mu.Lock()
	for jti, exp := range i.used {
		if exp.Before(now) {
			delete(i.used, jti)
		}
	}
	if _, replayed := i.used[claims.ID]; replayed {
		i.mu.Unlock()
		return nil, fmt.Errorf("%w: already used", errs.ErrTicketInvalid)
	}
	i.used[claims.ID] = claims.ExpiresAt.Time
	i.mu.Unlock()

	return &Grant{
		ChannelKind: kind,
		ChannelKey:  claims.ChannelKey,
		Role:        role,
		ActorID:     claims.Subject,
	}, nil
}
