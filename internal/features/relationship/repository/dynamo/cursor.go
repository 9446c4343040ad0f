package dynamo

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"pronet-backend/internal/common/errors"
)

// The pagination cursor is the query's LastEvaluatedKey, round-tripped
// through JSON and base64 so clients see a single opaque token. All key
// attributes on the connections table and its index are strings.

func encodeCursor(key map[string]types.AttributeValue) (string, error) {
	if len(key) == 0 {
		return "", nil
	}

	plain := map[string]string{}
	if err := attributevalue.UnmarshalMap(key, &plain); err != nil {
		return "", fmt.Errorf("unmarshal cursor key: %w", err)
	}

	raw, err := json.Marshal(plain)
	if err != nil {
		return "", fmt.Errorf("marshal cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func decodeCursor(cursor string) (map[string]types.AttributeValue, error) {
	if cursor == "" {
		return nil, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, errors.NewInvalidError("cursor is not valid")
	}

	plain := map[string]string{}
	if err := json.Unmarshal(raw, &plain); err != nil {
		return nil, errors.NewInvalidError("cursor is not valid")
	}

	key, err := attributevalue.MarshalMap(plain)
	if err != nil {
		return nil, fmt.Errorf("marshal cursor key: %w", err)
	}
	return key, nil
}
