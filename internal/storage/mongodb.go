package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cyderes/posts-client/internal/config"
	"github.com/cyderes/posts-client/internal/models"
)

var _ Storage = (*MongoDBStorage)(nil)

// MongoDBStorage implements Storage interface using MongoDB
type MongoDBStorage struct {
	client *mongo.Client
	posts  *mongo.Collection
	status *mongo.Collection
}

// NewMongoDBStorage connects to MongoDB and verifies the connection
func NewMongoDBStorage(cfg config.StorageConfig) (*MongoDBStorage, error) {
	if cfg.MongoDBURI == "" {
		return nil, errors.New("mongodb uri is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoDBURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := client.Database(cfg.MongoDatabase)
	return &MongoDBStorage{
		client: client,
		posts:  db.Collection(cfg.TableName),
		status: db.Collection(cfg.TableName + "_status"),
	}, nil
}

// StorePosts upserts posts by id in a single bulk write
func (m *MongoDBStorage) StorePosts(ctx context.Context, posts []models.ArchivedPost) error {
	if len(posts) == 0 {
		return nil
	}

	writes := make([]mongo.WriteModel, 0, len(posts))
	for _, post := range posts {
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": post.ID}).
			SetReplacement(post).
			SetUpsert(true))
	}

	if _, err := m.posts.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("failed to store posts: %w", err)
	}
	return nil
}

// GetPosts returns posts ordered by id
func (m *MongoDBStorage) GetPosts(ctx context.Context, limit int, offset int) ([]models.ArchivedPost, error) {
	posts := []models.ArchivedPost{}
	if limit <= 0 || offset < 0 {
		return posts, nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := m.posts.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("failed to decode posts: %w", err)
	}
	return posts, nil
}

// GetPostByID retrieves a specific post by ID
func (m *MongoDBStorage) GetPostByID(ctx context.Context, id int64) (*models.ArchivedPost, error) {
	var post models.ArchivedPost
	err := m.posts.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post %d: %w", id, err)
	}
	return &post, nil
}

// UpdateArchiveStatus upserts the single status document
func (m *MongoDBStorage) UpdateArchiveStatus(ctx context.Context, status models.ArchiveStatus) error {
	_, err := m.status.ReplaceOne(ctx,
		bson.M{"_id": archiveStatusKey},
		status,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to store archive status: %w", err)
	}
	return nil
}

// GetArchiveStatus retrieves the current archive status
func (m *MongoDBStorage) GetArchiveStatus(ctx context.Context) (*models.ArchiveStatus, error) {
	var status models.ArchiveStatus
	err := m.status.FindOne(ctx, bson.M{"_id": archiveStatusKey}).Decode(&status)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return neverRun(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get archive status: %w", err)
	}
	return &status, nil
}

// Close disconnects the client
func (m *MongoDBStorage) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
