package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sharinghood-api/internal/domain"
)

type CommunityRepo struct {
	client       *dynamodb.Client
	tableName    string
	membersTable string
}

func NewCommunityRepo(client *dynamodb.Client, tableName, membersTable string) *CommunityRepo {
	return &CommunityRepo{client: client, tableName: tableName, membersTable: membersTable}
}

// Create writes c and its creator's membership in one transaction, so a
// community never exists without a member. An existing id yields ErrConflict.
func (r *CommunityRepo) Create(ctx context.Context, c *domain.Community, creator *domain.Member) error {
	items, err := communityWrites(r.tableName, r.membersTable, c, creator)
	if err != nil {
		return err
	}
	return transactCreate(ctx, r.client, "community "+c.CommunityID, items)
}

func communityWrites(table, membersTable string, c *domain.Community, creator *domain.Member) ([]types.TransactWriteItem, error) {
	cw, err := newItemWrite(table, "community_id", c)
	if err != nil {
		return nil, err
	}
	mw, err := newItemWrite(membersTable, "community_id", creator)
	if err != nil {
		return nil, err
	}
	return []types.TransactWriteItem{cw, mw}, nil
}

func (r *CommunityRepo) Get(ctx context.Context, communityID string) (*domain.Community, error) {
	var c domain.Community
	if err := getItem(ctx, r.client, r.tableName, strKey("community_id", communityID), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByCode finds a community by its join code.
func (r *CommunityRepo) GetByCode(ctx context.Context, code string) (*domain.Community, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("code-index"),
		KeyConditionExpression:    aws.String("#c = :c"),
		ExpressionAttributeNames:  map[string]string{"#c": "code"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":c": strVal(code)},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("community not found: %w", domain.ErrNotFound)
	}
	var c domain.Community
	if err := attributevalue.UnmarshalMap(out.Items[0], &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// BatchGet returns the communities for ids in the order given.
func (r *CommunityRepo) BatchGet(ctx context.Context, ids []string) ([]domain.Community, error) {
	ids = dedupe(ids)
	keys := make([]map[string]types.AttributeValue, len(ids))
	for i, id := range ids {
		keys[i] = strKey("community_id", id)
	}
	raw, err := batchGetItems(ctx, r.client, r.tableName, keys)
	if err != nil {
		return nil, err
	}
	var found []domain.Community
	if err := attributevalue.UnmarshalListOfMaps(raw, &found); err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Community, len(found))
	for _, c := range found {
		byID[c.CommunityID] = c
	}
	out := make([]domain.Community, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}
