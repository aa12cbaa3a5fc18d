package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hvacbridge/estimator/pkg/database"
	"github.com/hvacbridge/estimator/pkg/types"
)

const defaultProfileTable = "estimator_profiles"

// DynamoAPI is the part of the DynamoDB client the backend uses
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// profileItem is the table row. Table requirements:
//   - PK: user_id (string)
type profileItem struct {
	UserID    string `dynamodbav:"user_id"`
	Config    string `dynamodbav:"config"`
	Catalog   string `dynamodbav:"catalog"`
	UpdatedAt string `dynamodbav:"updated_at"`
}

// DynamoBackend stores one item per user
type DynamoBackend struct {
	ddb       DynamoAPI
	tableName string
}

func NewDynamoBackend(ddb DynamoAPI, tableName string) *DynamoBackend {
	if tableName == "" {
		tableName = defaultProfileTable
	}
	return &DynamoBackend{ddb: ddb, tableName: tableName}
}

// NewDynamoBackendFromEnv builds the client from region and optional endpoint
func NewDynamoBackendFromEnv(ctx context.Context, tableName, region, endpoint string) (*DynamoBackend, error) {
	client, err := database.NewDynamoClient(ctx, region, endpoint)
	if err != nil {
		return nil, err
	}
	return NewDynamoBackend(client, tableName), nil
}

func (d *DynamoBackend) Name() string { return "dynamodb" }

func (d *DynamoBackend) Load(ctx context.Context, userID string) (*types.Profile, error) {
	out, err := d.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]ddbtypes.AttributeValue{
			"user_id": &ddbtypes.AttributeValueMemberS{Value: userID},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Item) == 0 {
		return nil, ErrProfileNotFound
	}

	var it profileItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}
	updatedAt, _ := time.Parse(time.RFC3339Nano, it.UpdatedAt)
	return decodeProfile(userID, []byte(it.Config), []byte(it.Catalog), updatedAt)
}

func (d *DynamoBackend) Save(ctx context.Context, profile *types.Profile) error {
	configJSON, catalogJSON, err := encodeProfile(profile)
	if err != nil {
		return err
	}

	av, err := attributevalue.MarshalMap(profileItem{
		UserID:    profile.UserID,
		Config:    string(configJSON),
		Catalog:   string(catalogJSON),
		UpdatedAt: profile.UpdatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("encode item: %w", err)
	}

	_, err = d.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.tableName),
		Item:      av,
	})
	return err
}

func (d *DynamoBackend) Ping(ctx context.Context) error {
	_, err := d.ddb.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(d.tableName)})
	return err
}

func (d *DynamoBackend) Close() error { return nil }
