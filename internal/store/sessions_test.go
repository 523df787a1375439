package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskboxapp/taskbox-server/internal/domain"
	"github.com/taskboxapp/taskbox-server/internal/id"
)

func createTestSession(t *testing.T, s *Store, userID, tokenHash string, ttl time.Duration) *domain.Session {
	t.Helper()

	session := &domain.Session{
		ID:               id.MustGenerate("session"),
		UserID:           userID,
		RefreshTokenHash: tokenHash,
		ExpiresAt:        time.Now().Add(ttl),
		CreatedAt:        time.Now(),
		LastSeenAt:       time.Now(),
		DeviceType:       "web",
		Platform:         "Linux",
	}
	require.NoError(t, s.CreateSession(context.Background(), session))
	return session
}

func TestSessionLookupByRefreshToken(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "ada@example.com")
	session := createTestSession(t, s, user.ID, "hash-one", time.Hour)

	found, err := s.GetSessionByRefreshToken(ctx, "hash-one")
	require.NoError(t, err)
	assert.Equal(t, session.ID, found.ID)

	_, err = s.GetSessionByRefreshToken(ctx, "hash-unknown")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionRotationSwapsTokenIndex(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "ada@example.com")
	session := createTestSession(t, s, user.ID, "hash-old", time.Hour)

	session.RefreshTokenHash = "hash-new"
	require.NoError(t, s.UpdateSession(ctx, session))

	found, err := s.GetSessionByRefreshToken(ctx, "hash-new")
	require.NoError(t, err)
	assert.Equal(t, session.ID, found.ID)

	// The rotated-out token stops working.
	_, err = s.GetSessionByRefreshToken(ctx, "hash-old")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestExpiredSessionReadsAsExpired(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "ada@example.com")
	session := createTestSession(t, s, user.ID, "hash-stale", -time.Minute)

	_, err := s.GetSession(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionExpired)

	_, err = s.GetSessionByRefreshToken(ctx, "hash-stale")
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestDeleteAllUserSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ada := createTestUser(t, s, "ada@example.com")
	eve := createTestUser(t, s, "eve@example.com")
	createTestSession(t, s, ada.ID, "hash-a1", time.Hour)
	createTestSession(t, s, ada.ID, "hash-a2", time.Hour)
	keep := createTestSession(t, s, eve.ID, "hash-e1", time.Hour)

	require.NoError(t, s.DeleteAllUserSessions(ctx, ada.ID))

	sessions, err := s.ListUserSessions(ctx, ada.ID)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	// Other users' sessions survive.
	_, err = s.GetSession(ctx, keep.ID)
	assert.NoError(t, err)
}

func TestDeleteSessionIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "ada@example.com")
	session := createTestSession(t, s, user.ID, "hash-once", time.Hour)

	require.NoError(t, s.DeleteSession(ctx, session.ID))
	assert.NoError(t, s.DeleteSession(ctx, session.ID), "second delete is a no-op")
}

func TestDeleteExpiredSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "ada@example.com")
	createTestSession(t, s, user.ID, "hash-live", time.Hour)
	createTestSession(t, s, user.ID, "hash-dead", -time.Hour)

	removed, err := s.DeleteExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}
