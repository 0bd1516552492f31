package storage

import (
	"context"
	"fmt"

	"github.com/cyderes/posts-client/internal/config"
	"github.com/cyderes/posts-client/internal/models"
)

// Storage interface defines the contract for archive storage
type Storage interface {
	StorePosts(ctx context.Context, posts []models.ArchivedPost) error
	GetPosts(ctx context.Context, limit int, offset int) ([]models.ArchivedPost, error)
	GetPostByID(ctx context.Context, id int64) (*models.ArchivedPost, error)
	UpdateArchiveStatus(ctx context.Context, status models.ArchiveStatus) error
	GetArchiveStatus(ctx context.Context) (*models.ArchiveStatus, error)
	Close() error
}

// NewStorage creates a new storage instance based on configuration
func NewStorage(cfg config.StorageConfig) (Storage, error) {
	switch cfg.Type {
	case "", "memory":
		return NewMemoryStorage(), nil
	case "dynamodb":
		return NewDynamoDBStorage(cfg)
	case "mongodb":
		return NewMongoDBStorage(cfg)
	case "postgresql":
		return NewPostgreSQLStorage(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// neverRun is reported before the first archive run
func neverRun() *models.ArchiveStatus {
	return &models.ArchiveStatus{Status: models.ArchiveNeverRun}
}
