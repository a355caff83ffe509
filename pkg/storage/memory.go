package storage

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryStore 返回一个进程内的 BlobStore，用于单实例部署和测试。
func NewMemoryStore() BlobStore {
	return &memoryStore{objects: make(map[string][]byte)}
}

func (s *memoryStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	buf := make([]byte, len(data))
	copy(buf, data)
	s.mu.Lock()
	s.objects[key] = buf
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return data, nil
}

// PresignedURL 内存存储没有外部地址，由网关自行提供下载。
func (s *memoryStore) PresignedURL(ctx context.Context, key, fileName string, expiry time.Duration) (string, error) {
	return "", nil
}

func (s *memoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) DeletePrefix(ctx context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			delete(s.objects, key)
		}
	}
	return nil
}
