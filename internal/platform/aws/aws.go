package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// Clients bundles the AWS service clients the application depends on.
type Clients struct {
	DynamoDB *dynamodb.Client
	SQS      *sqs.Client
	S3       *s3.Client
}

// NewClients loads the default AWS configuration and constructs the service
// clients. An endpoint override routes DynamoDB to a local instance in tests
// and development.
func NewClients(ctx context.Context, region, endpoint string) (*Clients, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}

	var dynamoOpts []func(*dynamodb.Options)
	if endpoint != "" {
		dynamoOpts = append(dynamoOpts, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}

	return &Clients{
		DynamoDB: dynamodb.NewFromConfig(cfg, dynamoOpts...),
		SQS:      sqs.NewFromConfig(cfg),
		S3:       s3.NewFromConfig(cfg),
	}, nil
}
