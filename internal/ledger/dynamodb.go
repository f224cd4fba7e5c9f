package ledger

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsmiddleware "github.com/aws/aws-sdk-go-v2/aws/middleware"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

const dynamoKeyAttribute = "id"

// DynamoDBAPI is the subset of the DynamoDB client used by the ledger
// (allows injection for testing).
type DynamoDBAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoDBConfig addresses the ledger table.
type DynamoDBConfig struct {
	Table    string
	Region   string
	Endpoint string // optional, e.g. DynamoDB Local
}

// DynamoDB stores posted ids in a table whose partition key is the string
// attribute "id".
type DynamoDB struct {
	api   DynamoDBAPI
	table string
}

// NewDynamoDB builds a ledger using the default AWS credential chain.
func NewDynamoDB(ctx context.Context, cfg DynamoDBConfig) (*DynamoDB, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return NewDynamoDBWithClient(client, cfg.Table), nil
}

// NewDynamoDBWithClient builds a ledger on an existing client.
func NewDynamoDBWithClient(api DynamoDBAPI, table string) *DynamoDB {
	return &DynamoDB{api: api, table: table}
}

func (d *DynamoDB) key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		dynamoKeyAttribute: &types.AttributeValueMemberS{Value: id},
	}
}

func (d *DynamoDB) Exists(ctx context.Context, id string) (bool, error) {
	out, err := d.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.table),
		Key:            d.key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return false, fmt.Errorf("%w: get %q from %s: %v", ErrStorageUnavailable, id, d.table, err)
	}
	if out == nil {
		return false, fmt.Errorf("%w: empty GetItem response for %q", ErrStorageUnavailable, id)
	}
	return len(out.Item) > 0, nil
}

func (d *DynamoDB) Record(ctx context.Context, id string) error {
	out, err := d.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(d.table),
		Item:                     d.key(id),
		ConditionExpression:      aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": dynamoKeyAttribute},
	})
	if err != nil {
		var conflict *types.ConditionalCheckFailedException
		if errors.As(err, &conflict) {
			return ErrAlreadyRecorded
		}
		var respErr *smithyhttp.ResponseError
		if errors.As(err, &respErr) {
			return fmt.Errorf("%w: put %q returned HTTP %d: %v", ErrWriteAmbiguous, id, respErr.HTTPStatusCode(), err)
		}
		return fmt.Errorf("%w: put %q: %v", ErrWriteAmbiguous, id, err)
	}
	if out == nil {
		return fmt.Errorf("%w: empty PutItem response for %q", ErrWriteAmbiguous, id)
	}

	// Only an explicit HTTP 200 counts as recorded.
	raw, ok := awsmiddleware.GetRawResponse(out.ResultMetadata).(*smithyhttp.Response)
	if !ok || raw == nil || raw.Response == nil {
		return fmt.Errorf("%w: put %q returned no HTTP status", ErrWriteAmbiguous, id)
	}
	if raw.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: put %q returned HTTP %d", ErrWriteAmbiguous, id, raw.StatusCode)
	}
	return nil
}

func (d *DynamoDB) Close() error { return nil }
