package dynamo

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sharinghood-api/internal/domain"
	"github.com/sharinghood-api/internal/pkg/paginate"
)

type PostRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewPostRepo(client *dynamodb.Client, tableName string) *PostRepo {
	return &PostRepo{client: client, tableName: tableName}
}

func (r *PostRepo) Put(ctx context.Context, p *domain.Post) error {
	return putNew(ctx, r.client, r.tableName, "post_id", p)
}

func (r *PostRepo) Get(ctx context.Context, postID string) (*domain.Post, error) {
	var p domain.Post
	if err := getItem(ctx, r.client, r.tableName, strKey("post_id", postID), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostRepo) Update(ctx context.Context, postID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC()
	return updateItem(ctx, r.client, r.tableName, strKey("post_id", postID), updates)
}

// ActiveByCommunity pages the active posts of a community, newest first.
// The GSI sorts on post_id, a ULID, so key order is creation order.
func (r *PostRepo) ActiveByCommunity(communityID string) paginate.Source[domain.Post] {
	return querySource[domain.Post]{client: r.client, q: activeInCommunity(r.tableName, "community_id-post_id-index", communityID)}
}

func activeInCommunity(table, index, communityID string) pageQuery {
	return pageQuery{
		table:   table,
		index:   index,
		keyCond: "community_id = :c",
		filter:  "#active = :t",
		names:   map[string]string{"#active": fieldIsActive},
		values: map[string]types.AttributeValue{
			":c": strVal(communityID),
			":t": &types.AttributeValueMemberBOOL{Value: true},
		},
	}
}
