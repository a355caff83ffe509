package repository

import (
	"context"
	"sync"
	"time"

	"lawguide-go/internal/model"
	"lawguide-go/pkg/log"
)

type memoryEntry struct {
	state     model.SessionState
	expiresAt time.Time
}

// memorySessionRepository 是进程内的会话存储，带过期时间和容量上限。
type memorySessionRepository struct {
	mu          sync.RWMutex
	sessions    map[string]memoryEntry
	ttl         time.Duration
	maxSessions int // 0 表示不限制
	now         func() time.Time
	// evicted 记录因容量淘汰、尚未由 Purge 报告的会话
	evicted []string
}

// NewMemorySessionRepository 创建一个内存 SessionRepository。
func NewMemorySessionRepository(ttl time.Duration, maxSessions int) SessionRepository {
	return newMemorySessionRepository(ttl, maxSessions, time.Now)
}

func newMemorySessionRepository(ttl time.Duration, maxSessions int, now func() time.Time) *memorySessionRepository {
	if maxSessions < 0 {
		maxSessions = 0
	}
	return &memorySessionRepository{
		sessions:    make(map[string]memoryEntry),
		ttl:         ttl,
		maxSessions: maxSessions,
		now:         now,
	}
}

func (r *memorySessionRepository) Save(ctx context.Context, state model.SessionState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[state.ID]; !exists && r.maxSessions > 0 && len(r.sessions) >= r.maxSessions {
		r.evictOldestLocked()
	}
	r.sessions[state.ID] = memoryEntry{state: state, expiresAt: r.now().Add(r.ttl)}
	return nil
}

func (r *memorySessionRepository) Find(ctx context.Context, id string) (model.SessionState, error) {
	r.mu.RLock()
	entry, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok || !r.now().Before(entry.expiresAt) {
		return model.SessionState{}, ErrSessionNotFound
	}
	return entry.state, nil
}

func (r *memorySessionRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

func (r *memorySessionRepository) Purge(ctx context.Context, now time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	purged := r.evicted
	r.evicted = nil
	for id, entry := range r.sessions {
		if !now.Before(entry.expiresAt) {
			delete(r.sessions, id)
			purged = append(purged, id)
		}
	}
	return purged, nil
}

// evictOldestLocked 淘汰最久未更新的会话，调用方需持有写锁。
// 被淘汰的 ID 在下一次 Purge 时返回，以便上层清理文件和连接。
func (r *memorySessionRepository) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, entry := range r.sessions {
		if oldestID == "" || entry.state.UpdatedAt.Before(oldest) {
			oldestID = id
			oldest = entry.state.UpdatedAt
		}
	}
	if oldestID != "" {
		delete(r.sessions, oldestID)
		r.evicted = append(r.evicted, oldestID)
		log.Infof("会话数量达到上限 %d，淘汰最久未活动的会话 %s", r.maxSessions, oldestID)
	}
}
