package repository_test

import (
	"context"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	errorvalues "github.com/limbo/lumi/internal/error_values"
	"github.com/limbo/lumi/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDynamo keeps items in a map and answers the PK = / SK begins_with
// queries the driver issues, one item per page to exercise pagination.
type fakeDynamo struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]map[string]types.AttributeValue)}
}

func attrS(item map[string]types.AttributeValue, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := attrS(in.Key, "PK") + "|" + attrS(in.Key, "SK")
	return &dynamodb.GetItemOutput{Item: f.items[id]}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[attrS(in.Item, "PK")+"|"+attrS(in.Item, "SK")] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var pk, skPrefix string
	for _, v := range in.ExpressionAttributeValues {
		s := v.(*types.AttributeValueMemberS).Value
		if strings.HasPrefix(s, "OWNER#") {
			pk = s
		} else {
			skPrefix = s
		}
	}
	var ids []string
	for id, item := range f.items {
		if attrS(item, "PK") == pk && strings.HasPrefix(attrS(item, "SK"), skPrefix) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	start := 0
	if in.ExclusiveStartKey != nil {
		last := attrS(in.ExclusiveStartKey, "PK") + "|" + attrS(in.ExclusiveStartKey, "SK")
		for i, id := range ids {
			if id == last {
				start = i + 1
			}
		}
	}
	out := &dynamodb.QueryOutput{}
	if start < len(ids) {
		item := f.items[ids[start]]
		out.Items = []map[string]types.AttributeValue{item}
		if start+1 < len(ids) {
			out.LastEvaluatedKey = map[string]types.AttributeValue{"PK": item["PK"], "SK": item["SK"]}
		}
	}
	return out, nil
}

func kvDrivers(t *testing.T) map[string]repository.KVStore {
	sqliteKV, err := repository.NewSQLiteKV(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sqliteKV.Close() })
	return map[string]repository.KVStore{
		"memory":   repository.NewMemoryKV(),
		"sqlite":   sqliteKV,
		"dynamodb": repository.NewDynamoKV(newFakeDynamo(), "lumi"),
	}
}

func TestKVDriversContract(t *testing.T) {
	ctx := context.Background()
	for name, kv := range kvDrivers(t) {
		t.Run(name, func(t *testing.T) {
			_, err := kv.Get(ctx, "user:u1")
			assert.ErrorIs(t, err, errorvalues.ErrKeyNotFound)

			require.NoError(t, kv.Set(ctx, "user:u1", []byte(`{"name":"a"}`)))
			require.NoError(t, kv.Set(ctx, "user:u1", []byte(`{"name":"b"}`)))
			v, err := kv.Get(ctx, "user:u1")
			require.NoError(t, err)
			assert.JSONEq(t, `{"name":"b"}`, string(v))

			require.NoError(t, kv.Set(ctx, "daily:u1:2025-01-02", []byte(`{"date":"2025-01-02"}`)))
			require.NoError(t, kv.Set(ctx, "daily:u1:2025-01-01", []byte(`{"date":"2025-01-01"}`)))
			require.NoError(t, kv.Set(ctx, "daily:u2:2025-01-01", []byte(`{"date":"2025-01-01"}`)))
			require.NoError(t, kv.Set(ctx, "DAILY:u1:2025-01-03", []byte(`{}`)))

			entries, err := kv.GetByPrefix(ctx, "daily:u1:")
			require.NoError(t, err)
			require.Len(t, entries, 2)
			assert.Equal(t, "daily:u1:2025-01-01", entries[0].Key)
			assert.Equal(t, "daily:u1:2025-01-02", entries[1].Key)

			entries, err = kv.GetByPrefix(ctx, "daily:u3:")
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestDynamoKVStoresRawKey(t *testing.T) {
	fake := newFakeDynamo()
	kv := repository.NewDynamoKV(fake, "lumi")
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, "daily:u1:2025-01-01", []byte(`{}`)))
	item := fake.items["OWNER#u1|daily:2025-01-01"]
	require.NotNil(t, item)
	var decoded struct {
		Key string `dynamodbav:"Key"`
	}
	require.NoError(t, attributevalue.UnmarshalMap(item, &decoded))
	assert.Equal(t, "daily:u1:2025-01-01", decoded.Key)

	assert.Error(t, kv.Set(ctx, "nokind", []byte(`{}`)))
	_, err := kv.GetByPrefix(ctx, "daily:")
	assert.Error(t, err)
}
