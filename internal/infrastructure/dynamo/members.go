package dynamo

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sharinghood-api/internal/domain"
	"github.com/sharinghood-api/internal/pkg/paginate"
)

// MemberRepo stores community membership. PK community_id, SK user_id.
type MemberRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewMemberRepo(client *dynamodb.Client, tableName string) *MemberRepo {
	return &MemberRepo{client: client, tableName: tableName}
}

// Put adds a member; joining twice yields ErrConflict.
func (r *MemberRepo) Put(ctx context.Context, m *domain.Member) error {
	return putNew(ctx, r.client, r.tableName, "community_id", m)
}

func (r *MemberRepo) IsMember(ctx context.Context, communityID, userID string) (bool, error) {
	var m domain.Member
	err := getItem(ctx, r.client, r.tableName, compositeKey("community_id", communityID, "user_id", userID), &m)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListCommunityIDs returns the ids of every community userID belongs to.
func (r *MemberRepo) ListCommunityIDs(ctx context.Context, userID string) ([]string, error) {
	return r.collect(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("user_id-index"),
		KeyConditionExpression:    aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":uid": strVal(userID)},
		ProjectionExpression:      aws.String("community_id"),
	}, "community_id")
}

// ListUserIDs returns the ids of every member of communityID.
func (r *MemberRepo) ListUserIDs(ctx context.Context, communityID string) ([]string, error) {
	return r.collect(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    aws.String("community_id = :c"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":c": strVal(communityID)},
		ProjectionExpression:      aws.String("user_id"),
	}, "user_id")
}

func (r *MemberRepo) collect(ctx context.Context, in *dynamodb.QueryInput, attr string) ([]string, error) {
	p := dynamodb.NewQueryPaginator(r.client, in)
	var ids []string
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, item := range out.Items {
			if v, ok := item[attr].(*types.AttributeValueMemberS); ok {
				ids = append(ids, v.Value)
			}
		}
	}
	return ids, nil
}

// ByCommunity pages the members of communityID, most recently joined first.
func (r *MemberRepo) ByCommunity(communityID string) paginate.Source[domain.Member] {
	return querySource[domain.Member]{client: r.client, q: pageQuery{
		table:   r.tableName,
		index:   "community_id-joined_at-index",
		keyCond: "community_id = :c",
		values:  map[string]types.AttributeValue{":c": strVal(communityID)},
	}}
}
