package cache

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// memoryStore 进程内 Store 实现，未配置 Redis 时作为退路，也用于测试
type memoryStore struct {
	mu     sync.Mutex
	values map[string]memoryEntry
	sets   map[string]map[string]struct{}
}

type memoryEntry struct {
	value    string
	deadline time.Time // 零值表示不过期
}

// NewMemoryStore 创建进程内快取
func NewMemoryStore() Store {
	return &memoryStore{
		values: make(map[string]memoryEntry),
		sets:   make(map[string]map[string]struct{}),
	}
}

// 调用方必须持有锁
func (s *memoryStore) live(key string) (memoryEntry, bool) {
	entry, ok := s.values[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !entry.deadline.IsZero() && time.Now().After(entry.deadline) {
		delete(s.values, key)
		return memoryEntry{}, false
	}
	return entry, true
}

func (s *memoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.live(key)
	if !ok {
		return "", ErrMiss
	}
	return entry.value, nil
}

func (s *memoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.deadline = time.Now().Add(ttl)
	}
	s.values[key] = entry
	return nil
}

func (s *memoryStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		delete(s.values, key)
		delete(s.sets, key)
	}
	return nil
}

func (s *memoryStore) Incr(_ context.Context, key string) (int64, error) {
	return s.add(key, 1, 0, false)
}

func (s *memoryStore) DecrBy(_ context.Context, key string, delta int64) (int64, error) {
	return s.add(key, -delta, 0, false)
}

func (s *memoryStore) IncrWindow(_ context.Context, key string, window time.Duration) (int64, error) {
	return s.add(key, 1, window, true)
}

func (s *memoryStore) add(key string, delta int64, ttl time.Duration, ttlOnFirst bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current int64
	entry, ok := s.live(key)
	if ok {
		parsed, err := strconv.ParseInt(entry.value, 10, 64)
		if err != nil {
			return 0, err
		}
		current = parsed
	}
	current += delta

	next := memoryEntry{value: strconv.FormatInt(current, 10), deadline: entry.deadline}
	if !ok && ttlOnFirst && ttl > 0 {
		next.deadline = time.Now().Add(ttl)
	}
	s.values[key] = next
	return current, nil
}

func (s *memoryStore) SAdd(_ context.Context, key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[key]
	if !ok {
		set = make(map[string]struct{})
		s.sets[key] = set
	}
	for _, m := range members {
		set[m] = struct{}{}
	}
	return nil
}

func (s *memoryStore) SMembers(_ context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.sets[key]
	members := make([]string, 0, len(set))
	for m := range set {
		members = append(members, m)
	}
	return members, nil
}

func (s *memoryStore) SRem(_ context.Context, key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[key]
	if !ok {
		return nil
	}
	for _, m := range members {
		delete(set, m)
	}
	return nil
}
