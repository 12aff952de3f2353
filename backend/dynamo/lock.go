package dynamo

import (
	"context"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// Locker is a lease lock over one DynamoDB item. Acquisition is a
// conditional put that succeeds when no live lease exists; the owner token
// keeps one holder from releasing another's lease. A crashed holder blocks
// others only until its lease lapses.
type Locker struct {
	client *dynamodb.Client
	config Config
	owner  string
}

// NewLocker creates a Locker with a fresh owner token.
func NewLocker(client *dynamodb.Client, config Config) *Locker {
	config.validate()
	return &Locker{
		client: client,
		config: config,
		owner:  uuid.New().String(),
	}
}

// TryAcquire attempts to take the lease, polling until timeout.
func (l *Locker) TryAcquire(ctx context.Context, timeout time.Duration) (bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		ok, err := l.tryOnce(ctx)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		if time.Now().Add(l.config.PollInterval).After(deadline) {
			return false, nil
		}
		select {
		case <-time.After(l.config.PollInterval):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
}

func (l *Locker) tryOnce(ctx context.Context) (bool, error) {
	now := time.Now()
	_, err := l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(l.config.LockTable),
		Item: map[string]types.AttributeValue{
			"pk":    &types.AttributeValueMemberS{Value: l.config.LockName},
			"owner": &types.AttributeValueMemberS{Value: l.owner},
			"lease_until": &types.AttributeValueMemberN{
				Value: strconv.FormatInt(now.Add(l.config.LeaseTTL).UnixMilli(), 10),
			},
		},
		ConditionExpression: aws.String("attribute_not_exists(pk) OR lease_until < :now OR #owner = :owner"),
		ExpressionAttributeNames: map[string]string{
			"#owner": "owner",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now":   &types.AttributeValueMemberN{Value: strconv.FormatInt(now.UnixMilli(), 10)},
			":owner": &types.AttributeValueMemberS{Value: l.owner},
		},
	})
	if isConditionalCheckFailed(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Release gives the lease back. Releasing a lease held by someone else, or
// not held at all, is a no-op.
func (l *Locker) Release(ctx context.Context) error {
	_, err := l.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(l.config.LockTable),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: l.config.LockName},
		},
		ConditionExpression: aws.String("#owner = :owner"),
		ExpressionAttributeNames: map[string]string{
			"#owner": "owner",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner": &types.AttributeValueMemberS{Value: l.owner},
		},
	})
	if isConditionalCheckFailed(err) {
		return nil
	}
	return err
}

// ReleaseAll clears the lease regardless of owner. Cleanup after a crashed
// holder.
func (l *Locker) ReleaseAll(ctx context.Context) error {
	_, err := l.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(l.config.LockTable),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: l.config.LockName},
		},
	})
	return err
}
