package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"pronet-backend/internal/features/user/models"
	"pronet-backend/internal/features/user/repository"
)

const emailIndex = "email-index"

// batchGetLimit is the DynamoDB cap on keys per BatchGetItem call.
const batchGetLimit = 100

type dynamoRepository struct {
	client *dynamodb.Client
	table  string
}

// NewUserRepository creates a DynamoDB-backed user repository.
func NewUserRepository(client *dynamodb.Client, table string) repository.UserRepository {
	return &dynamoRepository{client: client, table: table}
}

func (r *dynamoRepository) Create(ctx context.Context, user *models.User) error {
	item, err := attributevalue.MarshalMap(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return fmt.Errorf("put user: %w", err)
	}
	return nil
}

func (r *dynamoRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	if out.Item == nil {
		return nil, repository.ErrNotFound
	}

	var user models.User
	if err := attributevalue.UnmarshalMap(out.Item, &user); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	return &user, nil
}

func (r *dynamoRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.table),
		IndexName:              aws.String(emailIndex),
		KeyConditionExpression: aws.String("email = :email"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":email": &types.AttributeValueMemberS{Value: email},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("query user by email: %w", err)
	}
	if len(out.Items) == 0 {
		return nil, repository.ErrNotFound
	}

	var user models.User
	if err := attributevalue.UnmarshalMap(out.Items[0], &user); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	return &user, nil
}

func (r *dynamoRepository) Update(ctx context.Context, id string, update *models.UserUpdate) (*models.User, error) {
	sets := []string{"#updatedAt = :updatedAt"}
	names := map[string]string{"#updatedAt": "updatedAt"}
	values := map[string]types.AttributeValue{}

	updatedAt, err := attributevalue.Marshal(time.Now())
	if err != nil {
		return nil, fmt.Errorf("marshal updatedAt: %w", err)
	}
	values[":updatedAt"] = updatedAt

	addSet := func(field string, value interface{}) error {
		av, err := attributevalue.Marshal(value)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", field, err)
		}
		placeholder := "#" + field
		names[placeholder] = field
		sets = append(sets, fmt.Sprintf("%s = :%s", placeholder, field))
		values[":"+field] = av
		return nil
	}

	fields := []struct {
		name  string
		value interface{}
		set   bool
	}{
		{"name", ptrValue(update.Name), update.Name != nil},
		{"headline", ptrValue(update.Headline), update.Headline != nil},
		{"aboutUser", ptrValue(update.AboutUser), update.AboutUser != nil},
		{"currentPosition", ptrValue(update.CurrentPosition), update.CurrentPosition != nil},
		{"location", ptrValue(update.Location), update.Location != nil},
		{"displayPictureUrl", ptrValue(update.DisplayPictureURL), update.DisplayPictureURL != nil},
		{"backgroundImageUrl", ptrValue(update.BackgroundImageURL), update.BackgroundImageURL != nil},
	}
	for _, f := range fields {
		if !f.set {
			continue
		}
		if err := addSet(f.name, f.value); err != nil {
			return nil, err
		}
	}
	if update.DateOfBirth != nil {
		if err := addSet("dateOfBirth", *update.DateOfBirth); err != nil {
			return nil, err
		}
	}
	if update.Skills != nil {
		if err := addSet("skills", *update.Skills); err != nil {
			return nil, err
		}
	}

	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression:          aws.String("SET " + strings.Join(sets, ", ")),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ConditionExpression:       aws.String("attribute_exists(id)"),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("update user %s: %w", id, err)
	}

	var user models.User
	if err := attributevalue.UnmarshalMap(out.Attributes, &user); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	return &user, nil
}

func (r *dynamoRepository) IncrementCounter(ctx context.Context, userID string, field models.CounterField, delta int64) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: userID},
		},
		UpdateExpression:         aws.String("ADD #counter :delta"),
		ExpressionAttributeNames: map[string]string{"#counter": string(field)},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":delta": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", delta)},
		},
		ConditionExpression: aws.String("attribute_exists(id)"),
	})
	if err != nil {
		return fmt.Errorf("increment %s for user %s: %w", field, userID, err)
	}
	return nil
}

func (r *dynamoRepository) GetSnapshots(ctx context.Context, ids []string) ([]models.UserSnapshot, error) {
	snapshots := make([]models.UserSnapshot, 0, len(ids))

	for start := 0; start < len(ids); start += batchGetLimit {
		end := start + batchGetLimit
		if end > len(ids) {
			end = len(ids)
		}

		keys := make([]map[string]types.AttributeValue, 0, end-start)
		for _, id := range ids[start:end] {
			keys = append(keys, map[string]types.AttributeValue{
				"id": &types.AttributeValueMemberS{Value: id},
			})
		}

		requests := map[string]types.KeysAndAttributes{
			r.table: {
				Keys:                     keys,
				ProjectionExpression:     aws.String("id, #name, headline, displayPictureUrl, backgroundImageUrl, email"),
				ExpressionAttributeNames: map[string]string{"#name": "name"},
			},
		}

		// BatchGetItem may return unprocessed keys under throttling; retry
		// until the batch drains.
		for len(requests) > 0 {
			out, err := r.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
				RequestItems: requests,
			})
			if err != nil {
				return nil, fmt.Errorf("batch get users: %w", err)
			}

			for _, item := range out.Responses[r.table] {
				var snapshot models.UserSnapshot
				if err := attributevalue.UnmarshalMap(item, &snapshot); err != nil {
					return nil, fmt.Errorf("unmarshal snapshot: %w", err)
				}
				snapshots = append(snapshots, snapshot)
			}
			requests = out.UnprocessedKeys
		}
	}

	return snapshots, nil
}

func ptrValue(s *string) interface{} {
	if s == nil {
		return ""
	}
	return *s
}
