package stockdata

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/spacesedan/tickerflow/internal/models"
)

const dynamoKeyAttribute = "cache_key"

// DynamoAPI is the subset of the DynamoDB client the store uses.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// DynamoStore keeps the record as one item keyed by cache_key.
type DynamoStore struct {
	client DynamoAPI
	table  string
	key    string
}

type dynamoRecord struct {
	CacheKey   string            `dynamodbav:"cache_key"`
	CapturedAt time.Time         `dynamodbav:"timestamp"`
	Data       []models.PriceBar `dynamodbav:"data"`
}

func NewDynamoStore(client DynamoAPI, table, key string) *DynamoStore {
	return &DynamoStore{client: client, table: table, key: key}
}

func (s *DynamoStore) itemKey() map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		dynamoKeyAttribute: &types.AttributeValueMemberS{Value: s.key},
	}
}

func (s *DynamoStore) Load(ctx context.Context) (*models.CacheEntry, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            s.itemKey(),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("[DynamoStore] get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrCacheMiss
	}

	var record dynamoRecord
	if err := attributevalue.UnmarshalMap(out.Item, &record); err != nil {
		return nil, fmt.Errorf("[DynamoStore] unmarshal item: %w", err)
	}
	return &models.CacheEntry{CapturedAt: record.CapturedAt, Data: record.Data}, nil
}

func (s *DynamoStore) Save(ctx context.Context, entry models.CacheEntry) error {
	item, err := attributevalue.MarshalMap(dynamoRecord{
		CacheKey:   s.key,
		CapturedAt: entry.CapturedAt,
		Data:       entry.Data,
	})
	if err != nil {
		return fmt.Errorf("[DynamoStore] marshal item: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("[DynamoStore] put item: %w", err)
	}
	return nil
}

func (s *DynamoStore) Clear(ctx context.Context) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       s.itemKey(),
	})
	if err != nil {
		return fmt.Errorf("[DynamoStore] delete item: %w", err)
	}
	return nil
}
