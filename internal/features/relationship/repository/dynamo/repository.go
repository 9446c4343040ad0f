package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"pronet-backend/internal/features/relationship/models"
	"pronet-backend/internal/features/relationship/repository"
)

const connectorIndex = "connector-index"

type dynamoRepository struct {
	client           *dynamodb.Client
	followsTable     string
	connectionsTable string
}

// NewEdgeRepository creates a DynamoDB-backed edge repository.
func NewEdgeRepository(client *dynamodb.Client, followsTable, connectionsTable string) repository.EdgeRepository {
	return &dynamoRepository{
		client:           client,
		followsTable:     followsTable,
		connectionsTable: connectionsTable,
	}
}

func (r *dynamoRepository) GetFollow(ctx context.Context, followerID, followeeID string) (*models.Follow, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.followsTable),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: models.FollowID(followerID, followeeID)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get follow: %w", err)
	}
	if out.Item == nil {
		return nil, nil
	}

	var follow models.Follow
	if err := attributevalue.UnmarshalMap(out.Item, &follow); err != nil {
		return nil, fmt.Errorf("unmarshal follow: %w", err)
	}
	return &follow, nil
}

func (r *dynamoRepository) GetConnection(ctx context.Context, connectorID, connecteeID string) (*models.Connection, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.connectionsTable),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: models.ConnectionID(connectorID, connecteeID)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get connection: %w", err)
	}
	if out.Item == nil {
		return nil, nil
	}

	var connection models.Connection
	if err := attributevalue.UnmarshalMap(out.Item, &connection); err != nil {
		return nil, fmt.Errorf("unmarshal connection: %w", err)
	}
	return &connection, nil
}

func (r *dynamoRepository) ListConnections(ctx context.Context, connectorID string, connType models.ConnectionType, limit int32, cursor string) ([]models.Connection, string, error) {
	startKey, err := decodeCursor(cursor)
	if err != nil {
		return nil, "", err
	}

	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.connectionsTable),
		IndexName:              aws.String(connectorIndex),
		KeyConditionExpression: aws.String("connectorId = :connector"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":connector": &types.AttributeValueMemberS{Value: connectorID},
		},
		Limit:             aws.Int32(limit),
		ExclusiveStartKey: startKey,
	}

	switch connType {
	case models.ConnectionTypeConnected:
		input.FilterExpression = aws.String("isConnected = :connected")
		input.ExpressionAttributeValues[":connected"] = &types.AttributeValueMemberBOOL{Value: true}
	case models.ConnectionTypePending:
		input.FilterExpression = aws.String("isConnected = :connected AND connectionInitiatedBy <> :connector")
		input.ExpressionAttributeValues[":connected"] = &types.AttributeValueMemberBOOL{Value: false}
	case models.ConnectionTypeSent:
		input.FilterExpression = aws.String("isConnected = :connected AND connectionInitiatedBy = :connector")
		input.ExpressionAttributeValues[":connected"] = &types.AttributeValueMemberBOOL{Value: false}
	}

	out, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, "", fmt.Errorf("query connections: %w", err)
	}

	connections := make([]models.Connection, 0, len(out.Items))
	for _, item := range out.Items {
		var connection models.Connection
		if err := attributevalue.UnmarshalMap(item, &connection); err != nil {
			return nil, "", fmt.Errorf("unmarshal connection: %w", err)
		}
		connections = append(connections, connection)
	}

	nextCursor, err := encodeCursor(out.LastEvaluatedKey)
	if err != nil {
		return nil, "", err
	}
	return connections, nextCursor, nil
}

func (r *dynamoRepository) ExecuteTx(ctx context.Context, ops []repository.EdgeOp) error {
	if len(ops) == 0 {
		return nil
	}

	items := make([]types.TransactWriteItem, 0, len(ops))
	for _, op := range ops {
		item, err := r.transactItem(op)
		if err != nil {
			return err
		}
		items = append(items, item)
	}

	_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err != nil {
		var canceled *types.TransactionCanceledException
		if errors.As(err, &canceled) {
			for _, reason := range canceled.CancellationReasons {
				if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
					return repository.ErrEdgeConflict
				}
			}
		}
		return fmt.Errorf("edge transaction: %w", err)
	}
	return nil
}

func (r *dynamoRepository) transactItem(op repository.EdgeOp) (types.TransactWriteItem, error) {
	switch {
	case op.PutFollow != nil:
		item, err := attributevalue.MarshalMap(op.PutFollow)
		if err != nil {
			return types.TransactWriteItem{}, fmt.Errorf("marshal follow: %w", err)
		}
		return types.TransactWriteItem{Put: &types.Put{
			TableName:           aws.String(r.followsTable),
			Item:                item,
			ConditionExpression: aws.String("attribute_not_exists(id)"),
		}}, nil

	case op.DeleteFollowID != "":
		return types.TransactWriteItem{Delete: &types.Delete{
			TableName: aws.String(r.followsTable),
			Key: map[string]types.AttributeValue{
				"id": &types.AttributeValueMemberS{Value: op.DeleteFollowID},
			},
		}}, nil

	case op.PutConnection != nil:
		item, err := attributevalue.MarshalMap(op.PutConnection)
		if err != nil {
			return types.TransactWriteItem{}, fmt.Errorf("marshal connection: %w", err)
		}
		return types.TransactWriteItem{Put: &types.Put{
			TableName:           aws.String(r.connectionsTable),
			Item:                item,
			ConditionExpression: aws.String("attribute_not_exists(id)"),
		}}, nil

	case op.ConfirmConnection != nil:
		updatedAt, err := attributevalue.Marshal(op.ConfirmConnection.UpdatedAt)
		if err != nil {
			return types.TransactWriteItem{}, fmt.Errorf("marshal updatedAt: %w", err)
		}
		return types.TransactWriteItem{Update: &types.Update{
			TableName: aws.String(r.connectionsTable),
			Key: map[string]types.AttributeValue{
				"id": &types.AttributeValueMemberS{Value: op.ConfirmConnection.ID},
			},
			UpdateExpression: aws.String("SET isConnected = :connected, connectedAt = :connectedAt, updatedAt = :updatedAt"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":connected":   &types.AttributeValueMemberBOOL{Value: true},
				":connectedAt": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", op.ConfirmConnection.ConnectedAt)},
				":updatedAt":   updatedAt,
			},
			ConditionExpression: aws.String("attribute_exists(id)"),
		}}, nil

	case op.DeleteConnectionID != "":
		return types.TransactWriteItem{Delete: &types.Delete{
			TableName: aws.String(r.connectionsTable),
			Key: map[string]types.AttributeValue{
				"id": &types.AttributeValueMemberS{Value: op.DeleteConnectionID},
			},
		}}, nil
	}

	return types.TransactWriteItem{}, fmt.Errorf("empty edge operation")
}
