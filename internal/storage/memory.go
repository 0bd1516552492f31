package storage

import (
	"context"
	"sync"

	"github.com/cyderes/posts-client/internal/models"
)

var _ Storage = (*MemoryStorage)(nil)

// MemoryStorage keeps archived posts in process memory, in the order they
// were first stored.
type MemoryStorage struct {
	mu     sync.RWMutex
	posts  map[int64]models.ArchivedPost
	order  []int64
	status *models.ArchiveStatus
}

// NewMemoryStorage creates an empty memory storage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{posts: make(map[int64]models.ArchivedPost)}
}

// StorePosts upserts posts by id
func (m *MemoryStorage) StorePosts(ctx context.Context, posts []models.ArchivedPost) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range posts {
		if _, exists := m.posts[p.ID]; !exists {
			m.order = append(m.order, p.ID)
		}
		m.posts[p.ID] = p
	}
	return nil
}

// GetPosts returns up to limit posts starting at offset
func (m *MemoryStorage) GetPosts(ctx context.Context, limit int, offset int) ([]models.ArchivedPost, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	posts := []models.ArchivedPost{}
	if offset < 0 || offset >= len(m.order) || limit <= 0 {
		return posts, nil
	}
	end := min(offset+limit, len(m.order))
	for _, id := range m.order[offset:end] {
		posts = append(posts, m.posts[id])
	}
	return posts, nil
}

// GetPostByID returns nil when the post is not archived
func (m *MemoryStorage) GetPostByID(ctx context.Context, id int64) (*models.ArchivedPost, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.posts[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// UpdateArchiveStatus records the latest status
func (m *MemoryStorage) UpdateArchiveStatus(ctx context.Context, status models.ArchiveStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = &status
	return nil
}

// GetArchiveStatus returns the latest status
func (m *MemoryStorage) GetArchiveStatus(ctx context.Context) (*models.ArchiveStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.status == nil {
		return neverRun(), nil
	}
	status := *m.status
	return &status, nil
}

// Close is a no-op
func (m *MemoryStorage) Close() error {
	return nil
}
