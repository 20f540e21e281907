package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	errorvalues "github.com/limbo/lumi/internal/error_values"
)

// DynamoAPI is the part of *dynamodb.Client the driver uses.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DynamoKV maps kind:owner[:suffix] keys onto a single table with
// PK = OWNER#{owner} and SK = kind[:suffix], so a prefix scan over one
// user's records is a begins_with query inside one partition.
type DynamoKV struct {
	client    DynamoAPI
	tableName string
}

type ddbItem struct {
	PK    string `dynamodbav:"PK"`
	SK    string `dynamodbav:"SK"`
	Key   string `dynamodbav:"Key"`
	Value string `dynamodbav:"Value"`
}

func NewDynamoKV(client DynamoAPI, tableName string) *DynamoKV {
	return &DynamoKV{
		client:    client,
		tableName: tableName,
	}
}

// splitKey turns "daily:{uid}:2025-01-01" into ("OWNER#{uid}", "daily:2025-01-01").
func splitKey(key string) (pk, sk string, err error) {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("key %q is not kind:owner[:suffix]", key)
	}
	sk = parts[0]
	if len(parts) == 3 {
		sk += ":" + parts[2]
	}
	return "OWNER#" + parts[1], sk, nil
}

func (kv *DynamoKV) Get(ctx context.Context, key string) ([]byte, error) {
	pk, sk, err := splitKey(key)
	if err != nil {
		return nil, err
	}
	out, err := kv.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(kv.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pk},
			"SK": &types.AttributeValueMemberS{Value: sk},
		},
	})
	if err != nil {
		return nil, errors.New("getting item error: " + err.Error())
	}
	if len(out.Item) == 0 {
		return nil, errorvalues.ErrKeyNotFound
	}
	var item ddbItem
	if err = attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, errors.New("unmarshalling item error: " + err.Error())
	}
	return []byte(item.Value), nil
}

func (kv *DynamoKV) Set(ctx context.Context, key string, value []byte) error {
	pk, sk, err := splitKey(key)
	if err != nil {
		return err
	}
	item, err := attributevalue.MarshalMap(ddbItem{PK: pk, SK: sk, Key: key, Value: string(value)})
	if err != nil {
		return errors.New("marshalling item error: " + err.Error())
	}
	_, err = kv.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(kv.tableName),
		Item:      item,
	})
	if err != nil {
		return errors.New("putting item error: " + err.Error())
	}
	return nil
}

// GetByPrefix only supports prefixes that name an owner, e.g. "daily:{uid}:".
func (kv *DynamoKV) GetByPrefix(ctx context.Context, prefix string) ([]KVEntry, error) {
	parts := strings.SplitN(prefix, ":", 3)
	if len(parts) < 3 || parts[1] == "" {
		return nil, fmt.Errorf("prefix %q must be kind:owner:", prefix)
	}
	keyEx := expression.Key("PK").Equal(expression.Value("OWNER#" + parts[1])).
		And(expression.Key("SK").BeginsWith(parts[0] + ":" + parts[2]))
	expr, err := expression.NewBuilder().WithKeyCondition(keyEx).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(kv.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(true),
	}
	result := make([]KVEntry, 0, 8)
	for {
		out, err := kv.client.Query(ctx, input)
		if err != nil {
			return nil, errors.New("querying items error: " + err.Error())
		}
		var items []ddbItem
		if err = attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
			return nil, errors.New("unmarshalling items error: " + err.Error())
		}
		for _, it := range items {
			result = append(result, KVEntry{Key: it.Key, Value: []byte(it.Value)})
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	return result, nil
}
