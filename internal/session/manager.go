package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"lawguide-go/internal/model"
	"lawguide-go/internal/repository"

	"github.com/google/uuid"
)

// Publisher 接收每一次成功的状态转换。实现不得阻塞调用方。
type Publisher interface {
	Publish(ctx context.Context, state model.SessionState, actions []string)
}

// Manager 串行化同一会话上的所有状态转换：读取、Reduce、保存、发布在一把锁内完成。
// 后端调用不持有锁，因此不同区块的请求可以并发进行。
type Manager struct {
	repo      repository.SessionRepository
	publisher Publisher
	locks     sync.Map // key: session ID, value: *sync.Mutex；同时是本进程已知会话的登记表
	now       func() time.Time
	newID     func() string
}

// NewManager 创建一个新的 Manager，publisher 可以为 nil。
func NewManager(repo repository.SessionRepository, publisher Publisher) *Manager {
	return &Manager{
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

func (m *Manager) lock(id string) *sync.Mutex {
	mu, _ := m.locks.LoadOrStore(id, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Create 创建并保存一个新会话。
func (m *Manager) Create(ctx context.Context) (model.SessionState, error) {
	state := New(m.newID(), m.newID(), m.now())
	if err := m.repo.Save(ctx, state); err != nil {
		return model.SessionState{}, fmt.Errorf("failed to save new session: %w", err)
	}
	m.lock(state.ID)
	m.publish(ctx, state, []string{"session_created"})
	return state, nil
}

// Get 返回会话的当前状态。
func (m *Manager) Get(ctx context.Context, id string) (model.SessionState, error) {
	return m.repo.Find(ctx, id)
}

// Apply 依次应用 actions。任一 action 失败时整批丢弃，返回应用前的状态和错误。
func (m *Manager) Apply(ctx context.Context, id string, actions ...Action) (model.SessionState, error) {
	mu := m.lock(id)
	mu.Lock()
	defer mu.Unlock()

	state, err := m.repo.Find(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			m.locks.Delete(id)
		}
		return model.SessionState{}, err
	}

	next := state
	names := make([]string, 0, len(actions))
	for _, action := range actions {
		next, err = Reduce(next, action)
		if err != nil {
			return state, err
		}
		names = append(names, action.ActionName())
	}
	if len(names) == 0 {
		return state, nil
	}

	next.UpdatedAt = m.now()
	if err := m.repo.Save(ctx, next); err != nil {
		return state, fmt.Errorf("failed to save session: %w", err)
	}
	m.publish(ctx, next, names)
	return next, nil
}

// Delete 结束会话。
func (m *Manager) Delete(ctx context.Context, id string) error {
	mu := m.lock(id)
	mu.Lock()
	err := m.repo.Delete(ctx, id)
	mu.Unlock()
	m.locks.Delete(id)
	return err
}

// Forget 释放已过期会话占用的锁。
func (m *Manager) Forget(ids ...string) {
	for _, id := range ids {
		m.locks.Delete(id)
	}
}

// Purge 清理已过期或被淘汰的会话并返回其 ID。
// 存储自行过期的会话（如 Redis TTL）不会出现在 repo.Purge 的结果中，
// 这里逐个检查已登记的会话，把已不存在的一并返回。
func (m *Manager) Purge(ctx context.Context) ([]string, error) {
	ids, err := m.repo.Purge(ctx, m.now())
	if err != nil {
		return nil, fmt.Errorf("failed to purge sessions: %w", err)
	}

	gone := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		gone[id] = struct{}{}
	}
	m.locks.Range(func(key, _ interface{}) bool {
		id := key.(string)
		if _, ok := gone[id]; ok {
			return true
		}
		if _, err := m.repo.Find(ctx, id); errors.Is(err, repository.ErrSessionNotFound) {
			gone[id] = struct{}{}
			ids = append(ids, id)
		}
		return ctx.Err() == nil
	})
	m.Forget(ids...)
	return ids, nil
}

func (m *Manager) publish(ctx context.Context, state model.SessionState, actions []string) {
	if m.publisher != nil {
		m.publisher.Publish(ctx, state, actions)
	}
}
