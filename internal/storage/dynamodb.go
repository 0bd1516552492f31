package storage

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"

	"github.com/cyderes/posts-client/internal/config"
	"github.com/cyderes/posts-client/internal/models"
)

const archiveStatusKey = "archive_status"

var _ Storage = (*DynamoDBStorage)(nil)

// DynamoDBStorage implements Storage interface using AWS DynamoDB
type DynamoDBStorage struct {
	client      *dynamodb.DynamoDB
	tableName   string
	statusTable string
}

// NewDynamoDBStorage creates a new DynamoDB storage instance
func NewDynamoDBStorage(cfg config.StorageConfig) (*DynamoDBStorage, error) {
	awsConfig := &aws.Config{
		Region: aws.String(cfg.Region),
	}

	// For local testing with DynamoDB Local
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	storage := &DynamoDBStorage{
		client:      dynamodb.New(sess),
		tableName:   cfg.TableName,
		statusTable: cfg.TableName + "_status",
	}

	if err := storage.ensureTable(storage.tableName, dynamodb.ScalarAttributeTypeN); err != nil {
		return nil, fmt.Errorf("failed to ensure table exists: %w", err)
	}
	if err := storage.ensureTable(storage.statusTable, dynamodb.ScalarAttributeTypeS); err != nil {
		return nil, fmt.Errorf("failed to ensure status table exists: %w", err)
	}

	return storage, nil
}

// ensureTable creates a table keyed by "id" if it doesn't exist
func (d *DynamoDBStorage) ensureTable(name, keyType string) error {
	_, err := d.client.DescribeTable(&dynamodb.DescribeTableInput{
		TableName: aws.String(name),
	})
	if err == nil {
		return nil
	}

	_, err = d.client.CreateTable(&dynamodb.CreateTableInput{
		TableName: aws.String(name),
		KeySchema: []*dynamodb.KeySchemaElement{
			{
				AttributeName: aws.String("id"),
				KeyType:       aws.String(dynamodb.KeyTypeHash),
			},
		},
		AttributeDefinitions: []*dynamodb.AttributeDefinition{
			{
				AttributeName: aws.String("id"),
				AttributeType: aws.String(keyType),
			},
		},
		BillingMode: aws.String(dynamodb.BillingModePayPerRequest),
	})
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", name, err)
	}

	return d.client.WaitUntilTableExists(&dynamodb.DescribeTableInput{
		TableName: aws.String(name),
	})
}

// StorePosts stores posts in DynamoDB
func (d *DynamoDBStorage) StorePosts(ctx context.Context, posts []models.ArchivedPost) error {
	for _, post := range posts {
		item, err := dynamodbattribute.MarshalMap(post)
		if err != nil {
			return fmt.Errorf("failed to marshal post %d: %w", post.ID, err)
		}

		_, err = d.client.PutItemWithContext(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(d.tableName),
			Item:      item,
		})
		if err != nil {
			return fmt.Errorf("failed to store post %d: %w", post.ID, err)
		}
	}

	return nil
}

// GetPosts scans the table, skipping offset items. Scan order is the
// table's, not archive order.
func (d *DynamoDBStorage) GetPosts(ctx context.Context, limit int, offset int) ([]models.ArchivedPost, error) {
	posts := []models.ArchivedPost{}
	if limit <= 0 || offset < 0 {
		return posts, nil
	}

	var items []map[string]*dynamodb.AttributeValue
	want := offset + limit
	err := d.client.ScanPagesWithContext(ctx, &dynamodb.ScanInput{
		TableName: aws.String(d.tableName),
	}, func(page *dynamodb.ScanOutput, lastPage bool) bool {
		items = append(items, page.Items...)
		return len(items) < want
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan posts: %w", err)
	}

	if offset >= len(items) {
		return posts, nil
	}
	items = items[offset:min(want, len(items))]

	if err := dynamodbattribute.UnmarshalListOfMaps(items, &posts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal posts: %w", err)
	}
	return posts, nil
}

// GetPostByID retrieves a specific post by ID
func (d *DynamoDBStorage) GetPostByID(ctx context.Context, id int64) (*models.ArchivedPost, error) {
	result, err := d.client.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]*dynamodb.AttributeValue{
			"id": {
				N: aws.String(strconv.FormatInt(id, 10)),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get post %d: %w", id, err)
	}

	if result.Item == nil {
		return nil, nil
	}

	var post models.ArchivedPost
	if err := dynamodbattribute.UnmarshalMap(result.Item, &post); err != nil {
		return nil, fmt.Errorf("failed to unmarshal post: %w", err)
	}

	return &post, nil
}

// UpdateArchiveStatus updates the archive status
func (d *DynamoDBStorage) UpdateArchiveStatus(ctx context.Context, status models.ArchiveStatus) error {
	item, err := dynamodbattribute.MarshalMap(status)
	if err != nil {
		return fmt.Errorf("failed to marshal archive status: %w", err)
	}

	// Fixed key for the single status record
	item["id"] = &dynamodb.AttributeValue{S: aws.String(archiveStatusKey)}

	_, err = d.client.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.statusTable),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to store archive status: %w", err)
	}
	return nil
}

// GetArchiveStatus retrieves the current archive status
func (d *DynamoDBStorage) GetArchiveStatus(ctx context.Context) (*models.ArchiveStatus, error) {
	result, err := d.client.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.statusTable),
		Key: map[string]*dynamodb.AttributeValue{
			"id": {
				S: aws.String(archiveStatusKey),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get archive status: %w", err)
	}

	if result.Item == nil {
		return neverRun(), nil
	}

	var status models.ArchiveStatus
	if err := dynamodbattribute.UnmarshalMap(result.Item, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal archive status: %w", err)
	}

	return &status, nil
}

// Close closes the DynamoDB connection
func (d *DynamoDBStorage) Close() error {
	// DynamoDB client doesn't need explicit closing
	return nil
}
