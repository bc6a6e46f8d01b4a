package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"
)

type fakeDynamo struct {
	getOut       *dynamodb.GetItemOutput
	getErr       error
	putErr       error
	delErr       error
	lastGetInput *dynamodb.GetItemInput
	lastPutInput *dynamodb.PutItemInput
	lastDelInput *dynamodb.DeleteItemInput
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.lastGetInput = in
	return f.getOut, f.getErr
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.lastPutInput = in
	return &dynamodb.PutItemOutput{}, f.putErr
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.lastDelInput = in
	return &dynamodb.DeleteItemOutput{}, f.delErr
}

func mustNewDynamo(t *testing.T, db *fakeDynamo) *Dynamo {
	t.Helper()
	d, err := NewDynamo(db, "test-table")
	require.NoError(t, err)
	return d
}

func TestNewDynamo_Validation(t *testing.T) {
	_, err := NewDynamo(nil, "t")
	require.Error(t, err)

	_, err = NewDynamo(&fakeDynamo{}, "  ")
	require.Error(t, err)
}

func TestGet_HappyPath(t *testing.T) {
	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
		"PK":    &types.AttributeValueMemberS{Value: "favorites_u1"},
		"value": &types.AttributeValueMemberS{Value: `["3"]`},
	}}}
	d := mustNewDynamo(t, db)

	got, ok, err := d.Get(context.Background(), "favorites_u1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `["3"]`, got)

	require.Equal(t, "test-table", *db.lastGetInput.TableName)
	pk := db.lastGetInput.Key["PK"].(*types.AttributeValueMemberS)
	require.Equal(t, "favorites_u1", pk.Value)
}

func TestGet_MissingItem(t *testing.T) {
	d := mustNewDynamo(t, &fakeDynamo{getOut: &dynamodb.GetItemOutput{}})

	_, ok, err := d.Get(context.Background(), "missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGet_NonStringValue(t *testing.T) {
	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
		"PK":    &types.AttributeValueMemberS{Value: "k"},
		"value": &types.AttributeValueMemberN{Value: "7"},
	}}}
	d := mustNewDynamo(t, db)

	_, _, err := d.Get(context.Background(), "k")
	require.Error(t, err)
}

func TestGet_APIError(t *testing.T) {
	d := mustNewDynamo(t, &fakeDynamo{getErr: errors.New("throttled")})

	_, _, err := d.Get(context.Background(), "k")
	require.Error(t, err)
	require.Contains(t, err.Error(), "throttled")
}

func TestSet_WritesKeyAndValue(t *testing.T) {
	db := &fakeDynamo{}
	d := mustNewDynamo(t, db)

	require.NoError(t, d.Set(context.Background(), "chat_messages_u1", `[]`))

	require.Equal(t, "test-table", *db.lastPutInput.TableName)
	pk := db.lastPutInput.Item["PK"].(*types.AttributeValueMemberS)
	require.Equal(t, "chat_messages_u1", pk.Value)
	val := db.lastPutInput.Item["value"].(*types.AttributeValueMemberS)
	require.Equal(t, `[]`, val.Value)
}

func TestRemove_DeletesKey(t *testing.T) {
	db := &fakeDynamo{}
	d := mustNewDynamo(t, db)

	require.NoError(t, d.Remove(context.Background(), "reservations_guest"))
	pk := db.lastDelInput.Key["PK"].(*types.AttributeValueMemberS)
	require.Equal(t, "reservations_guest", pk.Value)
}
