package player

import (
	"context"
	"errors"
	"sync"
	"time"
)

// 播放状态原先是前端的全局可变 context，这里重做成显式构造、
// 显式传递的会话管理器：每个用户一份会话，同一用户的变更串行执行，
// 状态持久化在带 TTL 的存储里，多个 UI 面（商城预览、底部播放条）
// 读到的是同一份状态。

var ErrNoSession = errors.New("no playback session")

// Session 是一个用户的播放快照。
type Session struct {
	TrackID   string    `json:"trackId"`
	Position  float64   `json:"position"` // 秒
	Volume    float64   `json:"volume"`   // 0.0 - 1.0
	Playing   bool      `json:"playing"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store 是会话的持久化接口，生产环境用 Redis 实现。
type Store interface {
	Load(ctx context.Context, userID string) (*Session, error) // 不存在返回 ErrNoSession
	Save(ctx context.Context, userID string, s *Session) error
	Delete(ctx context.Context, userID string) error
}

// Manager 管理全部播放会话。对同一用户的操作通过 per-user 互斥
// 串行化，避免两个界面同时写状态互相覆盖。
type Manager struct {
	store Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewManager(store Store) *Manager {
	return &Manager{store: store, locks: make(map[string]*sync.Mutex)}
}

func (m *Manager) userLock(userID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[userID] = l
	}
	return l
}

// Play 切到指定曲目并开始播放。重复 Play 当前曲目等价于恢复播放。
func (m *Manager) Play(ctx context.Context, userID, trackID string) (*Session, error) {
	return m.update(ctx, userID, func(s *Session) {
		if s.TrackID != trackID {
			s.TrackID = trackID
			s.Position = 0
		}
		s.Playing = true
	})
}

// Pause 暂停播放。
func (m *Manager) Pause(ctx context.Context, userID string) (*Session, error) {
	return m.update(ctx, userID, func(s *Session) {
		s.Playing = false
	})
}

// Seek 跳到指定位置（秒），负值按 0 处理。
func (m *Manager) Seek(ctx context.Context, userID string, position float64) (*Session, error) {
	return m.update(ctx, userID, func(s *Session) {
		if position < 0 {
			position = 0
		}
		s.Position = position
	})
}

// SetVolume 设置音量，限制在 [0, 1]。
func (m *Manager) SetVolume(ctx context.Context, userID string, volume float64) (*Session, error) {
	return m.update(ctx, userID, func(s *Session) {
		if volume < 0 {
			volume = 0
		}
		if volume > 1 {
			volume = 1
		}
		s.Volume = volume
	})
}

// Get 返回当前会话快照。
func (m *Manager) Get(ctx context.Context, userID string) (*Session, error) {
	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()
	return m.store.Load(ctx, userID)
}

// Close 结束会话（登出/关闭播放器时的 teardown）。
func (m *Manager) Close(ctx context.Context, userID string) error {
	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()
	return m.store.Delete(ctx, userID)
}

func (m *Manager) update(ctx context.Context, userID string, apply func(*Session)) (*Session, error) {
	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	s, err := m.store.Load(ctx, userID)
	if errors.Is(err, ErrNoSession) {
		s = &Session{Volume: 0.7} // 与前端默认音量保持一致
	} else if err != nil {
		return nil, err
	}
	apply(s)
	s.UpdatedAt = time.Now()
	if err := m.store.Save(ctx, userID, s); err != nil {
		return nil, err
	}
	return s, nil
}
