package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// DynamoStore keeps documents in a DynamoDB table with partition key
// `collection` and sort key `doc_id`. Batches commit through
// TransactWriteItems, which gives the same all-or-nothing guarantee the other
// backends provide. No native watch support; pair with the Kafka change feed.
type DynamoStore struct {
	client    *dynamodb.Client
	tableName string
	nowFn     func() time.Time
}

type dynamoDocument struct {
	Collection string `dynamodbav:"collection"`
	DocID      string `dynamodbav:"doc_id"`
	Data       string `dynamodbav:"data"`
	UpdatedAt  string `dynamodbav:"updated_at"`
}

func NewDynamoStore(client *dynamodb.Client, tableName string) *DynamoStore {
	return &DynamoStore{client: client, tableName: tableName, nowFn: time.Now}
}

func (d *DynamoStore) Get(ctx context.Context, collection, id string) (Document, error) {
	result, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key:       docKey(collection, id),
	})
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if result.Item == nil {
		return Document{}, ErrNotFound
	}
	return unmarshalDynamoDoc(result.Item)
}

func (d *DynamoStore) List(ctx context.Context, collection string) ([]Document, error) {
	result, err := d.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(d.tableName),
		KeyConditionExpression: aws.String("#c = :c"),
		ExpressionAttributeNames: map[string]string{
			"#c": "collection",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberS{Value: collection},
		},
		ScanIndexForward: aws.Bool(true), // ascending by doc_id
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	docs := make([]Document, 0, len(result.Items))
	for _, item := range result.Items {
		doc, err := unmarshalDynamoDoc(item)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (d *DynamoStore) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := uuid.New().String()
	if err := d.Set(ctx, collection, id, data, false); err != nil {
		return "", err
	}
	return id, nil
}

func (d *DynamoStore) Set(ctx context.Context, collection, id string, data map[string]any, merge bool) error {
	now := d.nowFn()
	body, err := normalize(data, now)
	if err != nil {
		return err
	}

	if merge {
		existing, err := d.Get(ctx, collection, id)
		if err == nil {
			merged := copyData(existing.Data)
			for k, v := range body {
				merged[k] = v
			}
			body = merged
		} else if err != ErrNotFound {
			return err
		}
	}

	av, err := marshalDynamoDoc(collection, id, body, now)
	if err != nil {
		return err
	}

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (d *DynamoStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if _, err := d.Get(ctx, collection, id); err != nil {
		return err
	}
	return d.Set(ctx, collection, id, fields, true)
}

func (d *DynamoStore) Delete(ctx context.Context, collection, id string) error {
	_, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.tableName),
		Key:       docKey(collection, id),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (d *DynamoStore) Batch() Batch {
	return &dynamoBatch{store: d}
}

type dynamoBatch struct {
	store *DynamoStore
	ops   []batchOp
}

func (b *dynamoBatch) Set(collection, id string, data map[string]any) {
	b.ops = append(b.ops, batchOp{collection: collection, id: id, data: data})
}

func (b *dynamoBatch) Delete(collection, id string) {
	b.ops = append(b.ops, batchOp{collection: collection, id: id})
}

// Commit stages every write into a single TransactWriteItems call.
func (b *dynamoBatch) Commit(ctx context.Context) error {
	now := b.store.nowFn()

	items := make([]types.TransactWriteItem, 0, len(b.ops))
	for _, op := range b.ops {
		if op.data == nil {
			items = append(items, types.TransactWriteItem{
				Delete: &types.Delete{
					TableName: aws.String(b.store.tableName),
					Key:       docKey(op.collection, op.id),
				},
			})
			continue
		}
		body, err := normalize(op.data, now)
		if err != nil {
			return err
		}
		av, err := marshalDynamoDoc(op.collection, op.id, body, now)
		if err != nil {
			return err
		}
		items = append(items, types.TransactWriteItem{
			Put: &types.Put{
				TableName: aws.String(b.store.tableName),
				Item:      av,
			},
		})
	}

	_, err := b.store.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func docKey(collection, id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"collection": &types.AttributeValueMemberS{Value: collection},
		"doc_id":     &types.AttributeValueMemberS{Value: id},
	}
}

func marshalDynamoDoc(collection, id string, body map[string]any, now time.Time) (map[string]types.AttributeValue, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode document %s: %w", id, err)
	}
	av, err := attributevalue.MarshalMap(dynamoDocument{
		Collection: collection,
		DocID:      id,
		Data:       string(raw),
		UpdatedAt:  now.Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal document %s: %w", id, err)
	}
	return av, nil
}

func unmarshalDynamoDoc(item map[string]types.AttributeValue) (Document, error) {
	var rec dynamoDocument
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return Document{}, fmt.Errorf("unmarshal document: %w", err)
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(rec.Data), &data); err != nil {
		return Document{}, fmt.Errorf("decode document %s: %w", rec.DocID, err)
	}
	updatedAt, _ := time.Parse(time.RFC3339Nano, rec.UpdatedAt)
	return Document{ID: rec.DocID, Data: data, UpdatedAt: updatedAt}, nil
}
