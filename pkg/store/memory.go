package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store used in tests and when no database DSN
// is configured. Records do not survive restarts.
type MemoryStore struct {
	mu       sync.RWMutex
	comments map[int64]Comment
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		comments: make(map[int64]Comment),
	}
}

// Get returns the comment with the given id, or ErrNotFound
func (s *MemoryStore) Get(ctx context.Context, rpid int64) (Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return memTx{s}.Get(ctx, rpid)
}

// QueryTopLevelSince returns persisted top-level comments of oid with ctime
// at or after since
func (s *MemoryStore) QueryTopLevelSince(ctx context.Context, oid int64, since time.Time) ([]Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return memTx{s}.QueryTopLevelSince(ctx, oid, since)
}

// QuerySubReplies returns persisted sub-replies of a thread head
func (s *MemoryStore) QuerySubReplies(ctx context.Context, root int64) ([]Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return memTx{s}.QuerySubReplies(ctx, root)
}

// RecentFirst returns one dashboard page of comments, newest first
func (s *MemoryStore) RecentFirst(ctx context.Context, page, perPage int) ([]Comment, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return memTx{s}.RecentFirst(ctx, page, perPage)
}

// BulkInsert inserts new comment records
func (s *MemoryStore) BulkInsert(ctx context.Context, comments []Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return memTx{s}.BulkInsert(ctx, comments)
}

// UpdateStatus sets the lifecycle status of one comment
func (s *MemoryStore) UpdateStatus(ctx context.Context, rpid int64, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return memTx{s}.UpdateStatus(ctx, rpid, status)
}

// InTx holds the write lock for the duration of fn, so readers observe the
// whole batch or none of it. There is no rollback; the sole writer re-derives
// state on the next pass anyway.
func (s *MemoryStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(memTx{s})
}

// memTx is the lock-free view used inside InTx; the caller holds s.mu
type memTx struct {
	s *MemoryStore
}

func (t memTx) Get(_ context.Context, rpid int64) (Comment, error) {
	c, ok := t.s.comments[rpid]
	if !ok {
		return Comment{}, ErrNotFound
	}
	return c, nil
}

func (t memTx) QueryTopLevelSince(_ context.Context, oid int64, since time.Time) ([]Comment, error) {
	var result []Comment
	for _, c := range t.s.comments {
		if c.Oid == oid && c.IsTopLevel() && !c.Ctime.Before(since) {
			result = append(result, c)
		}
	}
	sortByCtime(result)
	return result, nil
}

func (t memTx) QuerySubReplies(_ context.Context, root int64) ([]Comment, error) {
	var result []Comment
	for _, c := range t.s.comments {
		if c.Root == root {
			result = append(result, c)
		}
	}
	sortByCtime(result)
	return result, nil
}

func (t memTx) RecentFirst(_ context.Context, page, perPage int) ([]Comment, int64, error) {
	if page < 1 {
		page = 1
	}

	all := make([]Comment, 0, len(t.s.comments))
	for _, c := range t.s.comments {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Ctime.Equal(all[j].Ctime) {
			return all[i].Rpid > all[j].Rpid
		}
		return all[i].Ctime.After(all[j].Ctime)
	})

	total := int64(len(all))
	start := (page - 1) * perPage
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + perPage
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (t memTx) BulkInsert(_ context.Context, comments []Comment) error {
	for _, c := range comments {
		t.s.comments[c.Rpid] = c
	}
	return nil
}

func (t memTx) UpdateStatus(_ context.Context, rpid int64, status Status) error {
	c, ok := t.s.comments[rpid]
	if !ok {
		return ErrNotFound
	}
	c.Status = status
	t.s.comments[rpid] = c
	return nil
}

func (t memTx) InTx(_ context.Context, fn func(tx Store) error) error {
	// Already inside the outer transaction's lock
	return fn(t)
}

func sortByCtime(comments []Comment) {
	sort.Slice(comments, func(i, j int) bool {
		if comments[i].Ctime.Equal(comments[j].Ctime) {
			return comments[i].Rpid < comments[j].Rpid
		}
		return comments[i].Ctime.Before(comments[j].Ctime)
	})
}
