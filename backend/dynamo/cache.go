package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Cache stores opaque payloads with a ttl attribute. Enable DynamoDB TTL
// on the attribute for physical expiry; Get filters lapsed entries either
// way, since TTL deletion is eventually consistent.
type Cache struct {
	client *dynamodb.Client
	config Config
}

// NewCache creates a Cache over the given client.
func NewCache(client *dynamodb.Client, config Config) *Cache {
	config.validate()
	return &Cache{client: client, config: config}
}

type cacheItem struct {
	Key   string `dynamodbav:"pk"`
	Value []byte `dynamodbav:"value"`
	TTL   int64  `dynamodbav:"ttl"`
}

// Put stores value under key for at most ttl.
func (c *Cache) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	item, err := attributevalue.MarshalMap(cacheItem{
		Key:   key,
		Value: value,
		TTL:   time.Now().Add(ttl).Unix(),
	})
	if err != nil {
		return fmt.Errorf("marshal cache item %q: %w", key, err)
	}
	_, err = c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.config.CacheTable),
		Item:      item,
	})
	return err
}

// Get returns the value stored under key, or ok=false if absent or lapsed.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	result, err := c.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.config.CacheTable),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return nil, false, err
	}
	if result.Item == nil {
		return nil, false, nil
	}
	var item cacheItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, false, fmt.Errorf("unmarshal cache item %q: %w", key, err)
	}
	if item.TTL <= time.Now().Unix() {
		return nil, false, nil
	}
	return item.Value, true, nil
}

// Remove deletes the value stored under key, if any.
func (c *Cache) Remove(ctx context.Context, key string) error {
	_, err := c.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(c.config.CacheTable),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: key},
		},
	})
	return err
}

// isConditionalCheckFailed reports whether err is a DynamoDB conditional
// write rejection.
func isConditionalCheckFailed(err error) bool {
	var condErr *types.ConditionalCheckFailedException
	return errors.As(err, &condErr)
}
