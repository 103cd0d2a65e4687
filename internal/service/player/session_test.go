package player

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu       sync.Mutex
	sessions map[string]Session
}

func newMemStore() *memStore {
	return &memStore{sessions: make(map[string]Session)}
}

func (s *memStore) Load(_ context.Context, userID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return nil, ErrNoSession
	}
	cp := sess
	return &cp, nil
}

func (s *memStore) Save(_ context.Context, userID string, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = *sess
	return nil
}

func (s *memStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}

func TestPlay_NewSessionDefaults(t *testing.T) {
	m := NewManager(newMemStore())

	sess, err := m.Play(context.Background(), "user-1", "track-1")
	require.NoError(t, err)
	assert.Equal(t, "track-1", sess.TrackID)
	assert.True(t, sess.Playing)
	assert.Zero(t, sess.Position)
	assert.Equal(t, 0.7, sess.Volume)
	assert.False(t, sess.UpdatedAt.IsZero())
}

func TestPlay_SwitchTrackResetsPosition(t *testing.T) {
	m := NewManager(newMemStore())
	ctx := context.Background()

	_, err := m.Play(ctx, "user-1", "track-1")
	require.NoError(t, err)
	_, err = m.Seek(ctx, "user-1", 42.5)
	require.NoError(t, err)

	// 换曲目：进度归零
	sess, err := m.Play(ctx, "user-1", "track-2")
	require.NoError(t, err)
	assert.Equal(t, "track-2", sess.TrackID)
	assert.Zero(t, sess.Position)

	// 重复 Play 当前曲目：进度保留，相当于恢复播放
	_, err = m.Seek(ctx, "user-1", 10)
	require.NoError(t, err)
	_, err = m.Pause(ctx, "user-1")
	require.NoError(t, err)
	sess, err = m.Play(ctx, "user-1", "track-2")
	require.NoError(t, err)
	assert.Equal(t, 10.0, sess.Position)
	assert.True(t, sess.Playing)
}

func TestPauseAndSeek(t *testing.T) {
	m := NewManager(newMemStore())
	ctx := context.Background()

	_, err := m.Play(ctx, "user-1", "track-1")
	require.NoError(t, err)

	sess, err := m.Pause(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, sess.Playing)

	sess, err = m.Seek(ctx, "user-1", -5)
	require.NoError(t, err)
	assert.Zero(t, sess.Position)
}

func TestSetVolume_Clamped(t *testing.T) {
	m := NewManager(newMemStore())
	ctx := context.Background()

	sess, err := m.SetVolume(ctx, "user-1", 1.5)
	require.NoError(t, err)
	assert.Equal(t, 1.0, sess.Volume)

	sess, err = m.SetVolume(ctx, "user-1", -0.3)
	require.NoError(t, err)
	assert.Equal(t, 0.0, sess.Volume)

	sess, err = m.SetVolume(ctx, "user-1", 0.45)
	require.NoError(t, err)
	assert.Equal(t, 0.45, sess.Volume)
}

func TestGetAndClose(t *testing.T) {
	m := NewManager(newMemStore())
	ctx := context.Background()

	_, err := m.Get(ctx, "user-1")
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = m.Play(ctx, "user-1", "track-1")
	require.NoError(t, err)

	sess, err := m.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "track-1", sess.TrackID)

	require.NoError(t, m.Close(ctx, "user-1"))
	_, err = m.Get(ctx, "user-1")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSessions_IsolatedPerUser(t *testing.T) {
	m := NewManager(newMemStore())
	ctx := context.Background()

	_, err := m.Play(ctx, "user-1", "track-1")
	require.NoError(t, err)
	_, err = m.Play(ctx, "user-2", "track-2")
	require.NoError(t, err)

	sess, err := m.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "track-1", sess.TrackID)
}
