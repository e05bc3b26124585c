package dynamo

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sharinghood-api/internal/domain"
	"github.com/sharinghood-api/internal/pkg/paginate"
)

type ThreadRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewThreadRepo(client *dynamodb.Client, tableName string) *ThreadRepo {
	return &ThreadRepo{client: client, tableName: tableName}
}

func (r *ThreadRepo) Put(ctx context.Context, t *domain.Thread) error {
	return putNew(ctx, r.client, r.tableName, "thread_id", t)
}

// ByParent pages the comments on a post or request, newest first.
func (r *ThreadRepo) ByParent(parentID string) paginate.Source[domain.Thread] {
	return querySource[domain.Thread]{client: r.client, q: pageQuery{
		table:   r.tableName,
		index:   "parent_id-thread_id-index",
		keyCond: "parent_id = :p",
		values:  map[string]types.AttributeValue{":p": strVal(parentID)},
	}}
}
