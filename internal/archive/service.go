package archive

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cyderes/posts-client/internal/models"
	"github.com/cyderes/posts-client/internal/storage"
)

// Source is recorded on every archived post
const Source = "local_snapshot"

// SnapshotSource provides the posts to archive
type SnapshotSource interface {
	Snapshot() []models.Post
}

// Service copies the post snapshot into archive storage on demand
type Service struct {
	source  SnapshotSource
	storage storage.Storage
	now     func() time.Time

	// one export at a time
	mu sync.Mutex
}

// NewService creates a new archive service
func NewService(source SnapshotSource, store storage.Storage) *Service {
	return &Service{
		source:  source,
		storage: store,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Export archives the current snapshot and records the outcome. It returns
// the number of posts written.
func (s *Service) Export(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, err := s.storage.GetArchiveStatus(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read archive status: %w", err)
	}

	started := s.now()
	status.Status = models.ArchiveRunning
	status.LastAttempt = started
	status.ErrorMessage = ""
	s.updateStatus(ctx, *status)

	archived := s.transformPosts(s.source.Snapshot(), started)
	if err := s.storage.StorePosts(ctx, archived); err != nil {
		status.Status = models.ArchiveFailure
		status.ErrorMessage = err.Error()
		status.RecordsArchived = 0
		s.updateStatus(ctx, *status)
		return 0, fmt.Errorf("failed to store posts: %w", err)
	}

	status.Status = models.ArchiveSuccess
	status.LastSuccessfulRun = started
	status.RecordsArchived = len(archived)
	s.updateStatus(ctx, *status)

	log.Printf("Successfully archived %d posts", len(archived))
	return len(archived), nil
}

// Status returns the last recorded archive status
func (s *Service) Status(ctx context.Context) (*models.ArchiveStatus, error) {
	return s.storage.GetArchiveStatus(ctx)
}

// Posts lists archived posts
func (s *Service) Posts(ctx context.Context, limit, offset int) ([]models.ArchivedPost, error) {
	return s.storage.GetPosts(ctx, limit, offset)
}

// Post returns the archived post with the given id, or nil if it was never
// archived
func (s *Service) Post(ctx context.Context, id int64) (*models.ArchivedPost, error) {
	return s.storage.GetPostByID(ctx, id)
}

func (s *Service) updateStatus(ctx context.Context, status models.ArchiveStatus) {
	if err := s.storage.UpdateArchiveStatus(ctx, status); err != nil {
		log.Printf("Failed to update archive status: %v", err)
	}
}

// transformPosts adds archive metadata to posts
func (s *Service) transformPosts(posts []models.Post, at time.Time) []models.ArchivedPost {
	transformed := make([]models.ArchivedPost, len(posts))

	for i, post := range posts {
		transformed[i] = models.ArchivedPost{
			Post:       post,
			ArchivedAt: at,
			Source:     Source,
		}
	}

	return transformed
}
